package yggauth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
	"weak"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MrEthical07/yggauth/internal"
	"github.com/MrEthical07/yggauth/internal/flows"
	"github.com/MrEthical07/yggauth/yggdrasil"
)

// Task is a one-shot authentication operation against the remote server.
//
// A task moves Created → Running → {Succeeded, Failed, Cancelled}. It holds
// only a weak reference to its account: if the account is closed or garbage
// collected before the task completes, the completion changes nothing.
type Task struct {
	id      string
	kind    TaskKind
	engine  *Engine
	account weak.Pointer[Account]

	// Login credentials until Start hands them to the worker.
	username string
	password string

	mu      sync.Mutex
	state   TaskState
	err     error
	login   string
	cancel  context.CancelFunc
	span    trace.Span
	started time.Time
	done    chan struct{}
}

// taskInput is what the worker reads, captured when the task starts.
type taskInput struct {
	login       string
	accessToken string
	clientToken string
	selected    *yggdrasil.Profile

	// Login credentials, owned by the worker once the task is Running.
	username string
	password string
}

// taskOutcome is what a finished flow hands back to the account.
type taskOutcome struct {
	failure flows.FailureKind
	err     error
	// apply runs with the account write lock held, only if the task still
	// owns a live account.
	apply func(a *Account)
	meta  map[string]string
}

func newTask(a *Account, kind TaskKind) *Task {
	return &Task{
		id:      internal.NewTaskID(),
		kind:    kind,
		engine:  a.engine,
		account: weak.Make(a),
		done:    make(chan struct{}),
	}
}

// ID returns the task identifier (a ULID).
func (t *Task) ID() string { return t.id }

// Kind returns what the task does.
func (t *Task) Kind() TaskKind { return t.kind }

// State returns the current lifecycle state.
func (t *Task) State() TaskState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the task failure. It is nil while the task runs and after success.
func (t *Task) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Done is closed when the task reaches a terminal state. Any account mutation
// made by the task, and its metrics and audit record, happen before Done is
// closed.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends, and returns the task error.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start claims the account and hands the task to the executor. It fails
// without contacting the server when another task owns the account
// (ErrTaskAlreadyRunning), when the task was started before
// (ErrTaskNotStartable) or when the account is gone (ErrAccountClosed).
//
// The task is Running before the executor accepts it, so Cancel never waits
// for a saturated executor. Cancelling ctx cancels the task.
func (t *Task) Start(ctx context.Context) error {
	e := t.engine
	if !e.ready() {
		return ErrEngineNotReady
	}

	in, runCtx, err := t.begin(ctx)
	if err != nil {
		return err
	}

	if err := e.executor.Submit(func() { t.run(runCtx, in) }); err != nil {
		return t.reject(err)
	}

	e.logger.Debug("yggauth: task started",
		zap.String("task_id", t.id),
		zap.Stringer("task_kind", t.kind),
		zap.String("account", in.login),
	)
	return nil
}

// begin claims the account and moves t to Running. Credentials move from the
// task into the returned input; the worker only ever reads that copy.
func (t *Task) begin(ctx context.Context) (taskInput, context.Context, error) {
	e := t.engine

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TaskCreated {
		return taskInput{}, nil, ErrTaskNotStartable
	}

	acc := t.account.Value()
	if acc == nil || acc.Closed() {
		return taskInput{}, nil, ErrAccountClosed
	}

	in, err := acc.claim(t)
	if err != nil {
		e.metrics.Inc(MetricTaskAlreadyRunning)
		e.logger.Debug("yggauth: task start refused",
			zap.String("task_id", t.id),
			zap.Stringer("task_kind", t.kind),
			zap.String("account", in.login),
			zap.Error(err),
		)
		return taskInput{}, nil, err
	}
	in.username, in.password = t.username, t.password
	t.clearCredentials()

	runCtx, cancel := context.WithCancel(ctx)
	runCtx, span := e.tracer.Start(runCtx, "yggauth.task."+t.kind.String(),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("yggauth.task.id", t.id),
			attribute.String("yggauth.task.kind", t.kind.String()),
		),
	)

	t.state = TaskRunning
	t.login = in.login
	t.cancel = cancel
	t.span = span
	t.started = e.now()
	return in, runCtx, nil
}

// reject fails a task the executor refused. A Cancel that won the race
// already finished the task; the refusal is still reported to the caller.
func (t *Task) reject(cause error) error {
	err := fmt.Errorf("%w: %v", ErrExecutorRejected, cause)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TaskRunning {
		return err
	}
	if acc := t.account.Value(); acc != nil {
		acc.release(t)
	}
	t.engine.metrics.Inc(MetricTaskRejected)
	t.finishLocked(TaskFailed, err)
	close(t.done)
	return err
}

// Cancel stops the task. A running task releases the account immediately and
// its eventual result is discarded. Cancel on a finished task does nothing.
func (t *Task) Cancel() {
	t.mu.Lock()
	switch t.state {
	case TaskCreated:
		t.state = TaskCancelled
		t.err = ErrTaskCancelled
		t.clearCredentials()
		close(t.done)
		t.mu.Unlock()
		return
	case TaskRunning:
		if acc := t.account.Value(); acc != nil {
			acc.release(t)
		}
		t.cancel()
		t.finishLocked(TaskCancelled, ErrTaskCancelled)
		t.mu.Unlock()
		t.engine.recordOutcome(t, taskOutcome{failure: flows.FailureCancelled, err: ErrTaskCancelled}, "")
		close(t.done)
		return
	default:
		t.mu.Unlock()
	}
}

func (t *Task) run(ctx context.Context, in taskInput) {
	t.complete(t.safeExecute(ctx, in))
}

// safeExecute turns a panic in the remote or a flow into a failed outcome so
// the account is always released.
func (t *Task) safeExecute(ctx context.Context, in taskInput) (out taskOutcome) {
	defer func() {
		if r := recover(); r != nil {
			t.engine.logger.Error("yggauth: task panicked",
				zap.String("task_id", t.id),
				zap.Stringer("task_kind", t.kind),
				zap.Any("panic", r),
			)
			out = taskOutcome{
				failure: flows.FailureUnknown,
				err:     fmt.Errorf("%w: %v", ErrTaskPanicked, r),
			}
		}
	}()
	return t.execute(ctx, in)
}

func (t *Task) execute(ctx context.Context, in taskInput) taskOutcome {
	switch t.kind {
	case TaskLogin:
		return t.engine.runLogin(ctx, in)
	case TaskValidate:
		return t.engine.runValidate(ctx, in)
	case TaskRefresh:
		return t.engine.runRefresh(ctx, in)
	case TaskLogout:
		return t.engine.runLogout(ctx, in)
	default:
		return taskOutcome{failure: flows.FailureUnknown, err: errors.New("unknown task kind")}
	}
}

func (t *Task) complete(out taskOutcome) {
	t.mu.Lock()
	if t.state != TaskRunning {
		// Cancelled while the remote call was in flight.
		t.mu.Unlock()
		return
	}

	if out.failure == flows.FailureCancelled {
		if acc := t.account.Value(); acc != nil {
			acc.release(t)
		}
		t.finishLocked(TaskCancelled, ErrTaskCancelled)
		t.mu.Unlock()
		t.engine.recordOutcome(t, out, "")
		close(t.done)
		return
	}

	profileID := ""
	applied := false
	if acc := t.account.Value(); acc != nil && !acc.Closed() {
		applied, profileID = acc.completeTask(t, out.apply)
	}

	switch {
	case !applied:
		out.failure = flows.FailureUnknown
		out.err = ErrAccountClosed
		t.finishLocked(TaskFailed, ErrAccountClosed)
	case out.failure == flows.FailureNone:
		t.finishLocked(TaskSucceeded, nil)
	default:
		t.finishLocked(TaskFailed, out.err)
	}
	t.mu.Unlock()

	t.engine.recordOutcome(t, out, profileID)
	close(t.done)
}

// finishLocked moves the task to a terminal state. t.mu must be held. The
// caller closes t.done once the outcome is recorded.
func (t *Task) finishLocked(state TaskState, err error) {
	t.state = state
	t.err = err
	t.clearCredentials()
	if t.cancel != nil {
		t.cancel()
	}
	if t.span != nil {
		if err != nil {
			t.span.RecordError(err)
			t.span.SetStatus(codes.Error, state.String())
		} else {
			t.span.SetStatus(codes.Ok, "")
		}
		t.span.SetAttributes(attribute.String("yggauth.task.state", state.String()))
		t.span.End()
	}
}

func (t *Task) clearCredentials() {
	t.username = ""
	t.password = ""
}

// claim makes t the owner of a and snapshots what t needs to run.
// t.mu is held by the caller; lock order is always task then account.
func (a *Account) claim(t *Task) (taskInput, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	in := taskInput{
		login:       a.login,
		accessToken: a.tokens[TokenAccess],
		clientToken: a.tokens[TokenClient],
		selected:    a.profileSnapshotLocked(),
	}
	if a.task != nil {
		return in, ErrTaskAlreadyRunning
	}
	a.task = t
	return in, nil
}

// release drops t's ownership of a, if it still has it.
func (a *Account) release(t *Task) {
	a.mu.Lock()
	if a.task == t {
		a.task = nil
	}
	a.mu.Unlock()
}

// completeTask applies a finished task's result and releases ownership in one
// critical section. It reports false when t no longer owns a.
func (a *Account) completeTask(t *Task, apply func(*Account)) (bool, string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.task != t {
		return false, ""
	}
	if apply != nil {
		apply(a)
	}
	a.task = nil
	return true, a.current
}
