package yggauth

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MrEthical07/yggauth/document"
	internalaudit "github.com/MrEthical07/yggauth/internal/audit"
	"github.com/MrEthical07/yggauth/internal/flows"
	"github.com/MrEthical07/yggauth/runner"
)

// Engine owns the collaborators shared by every account: the remote
// authenticator, the task executor, audit and metrics, and the optional
// account store.
//
// Engine instances are built once with Builder and are safe for concurrent use.
type Engine struct {
	config    Config
	encoding  document.Encoding
	remote    Authenticator
	executor  Executor
	ownedPool *runner.Pool
	logger    *zap.Logger
	tracer    trace.Tracer
	audit     *internalaudit.Dispatcher
	metrics   *Metrics
	store     AccountStore
	flowDeps  flows.Deps
	clock     func() time.Time

	closed atomic.Bool
}

func (e *Engine) ready() bool {
	return e != nil && !e.closed.Load()
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// NewAccount creates an empty, not verified account for login. login may be
// blank; a successful Login task sets it.
func (e *Engine) NewAccount(login string) *Account {
	return newAccount(e, login)
}

// LoadAccount decodes a persisted account document of any supported version
// and encoding. The account starts not verified and not dirty.
func (e *Engine) LoadAccount(data []byte) (*Account, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	doc, err := document.Decode(data)
	if err != nil {
		return nil, err
	}
	return e.accountFromDocument(doc), nil
}

// LoadAccountVersion decodes data as a document of version v.
func (e *Engine) LoadAccountVersion(v document.Version, data []byte) (*Account, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	doc, err := document.DecodeVersion(v, data)
	if err != nil {
		return nil, err
	}
	return e.accountFromDocument(doc), nil
}

// Persist writes acc to the account store. The account is marked saved only
// if nothing changed it while the write was in flight.
func (e *Engine) Persist(ctx context.Context, acc *Account) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if e.store == nil {
		return ErrStoreNotConfigured
	}
	if acc == nil {
		return errors.New("nil account")
	}

	doc, revision := acc.snapshot()
	if err := e.store.Save(ctx, doc); err != nil {
		e.logger.Warn("yggauth: persist failed", zap.String("account", doc.LoginUsername), zap.Error(err))
		return err
	}
	acc.markSavedAt(revision)
	return nil
}

// Restore loads the account stored for login.
func (e *Engine) Restore(ctx context.Context, login string) (*Account, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.store == nil {
		return nil, ErrStoreNotConfigured
	}
	doc, err := e.store.Get(ctx, login)
	if err != nil {
		return nil, err
	}
	return e.accountFromDocument(doc), nil
}

// Forget deletes the stored account for login. Forgetting an unknown login
// succeeds.
func (e *Engine) Forget(ctx context.Context, login string) error {
	if !e.ready() {
		return ErrEngineNotReady
	}
	if e.store == nil {
		return ErrStoreNotConfigured
	}
	return e.store.Delete(ctx, login)
}

// Accounts lists the stored login usernames in sorted order.
func (e *Engine) Accounts(ctx context.Context) ([]string, error) {
	if !e.ready() {
		return nil, ErrEngineNotReady
	}
	if e.store == nil {
		return nil, ErrStoreNotConfigured
	}
	return e.store.List(ctx)
}

// MetricsSnapshot returns a copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// AuditDropped returns how many audit events were dropped because the
// dispatcher buffer was full.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// Close stops the engine. Tasks can no longer start; running tasks finish
// and their audit events are flushed. An executor pool created by Build is
// released, waiting up to Executor.ReleaseTimeout.
func (e *Engine) Close() error {
	if e == nil || e.closed.Swap(true) {
		return nil
	}
	var err error
	if e.ownedPool != nil {
		err = e.ownedPool.Close(e.config.Executor.ReleaseTimeout)
	}
	e.audit.Close()
	return err
}
