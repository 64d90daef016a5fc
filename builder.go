package yggauth

import (
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/MrEthical07/yggauth/document"
	"github.com/MrEthical07/yggauth/internal"
	internalaudit "github.com/MrEthical07/yggauth/internal/audit"
	"github.com/MrEthical07/yggauth/internal/flows"
	internalmetrics "github.com/MrEthical07/yggauth/internal/metrics"
	"github.com/MrEthical07/yggauth/runner"
	"github.com/MrEthical07/yggauth/store"
	"github.com/MrEthical07/yggauth/yggdrasil"
)

const tracerName = "github.com/MrEthical07/yggauth"

// Builder assembles an Engine.
//
// Builder instances are configured during initialization and used once.
type Builder struct {
	config Config

	remote         Authenticator
	executor       Executor
	logger         *zap.Logger
	auditSink      AuditSink
	tracerProvider trace.TracerProvider
	store          AccountStore
	redis          redis.UniversalClient
	clock          func() time.Time

	built bool
}

// New returns a Builder starting from DefaultConfig.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithAuthenticator replaces the default Yggdrasil HTTP client. Remote
// configuration is then ignored.
func (b *Builder) WithAuthenticator(a Authenticator) *Builder {
	b.remote = a
	return b
}

// WithExecutor sets the executor tasks run on. The caller keeps ownership:
// Engine.Close does not release it.
func (b *Builder) WithExecutor(ex Executor) *Builder {
	b.executor = ex
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(l *zap.Logger) *Builder {
	b.logger = l
	return b
}

// WithAuditSink sets where audit events go. Audit must also be enabled in
// the configuration.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithTracerProvider sets the provider task spans are created from. The
// default is the global otel provider.
func (b *Builder) WithTracerProvider(tp trace.TracerProvider) *Builder {
	b.tracerProvider = tp
	return b
}

// WithStore sets the account store used by Persist, Restore, Forget and
// Accounts.
func (b *Builder) WithStore(s AccountStore) *Builder {
	b.store = s
	return b
}

// WithRedis builds a Redis account store from the Store configuration
// section. WithStore takes precedence.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the task latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// WithClock overrides the time source used for expiry checks, latency and
// audit timestamps.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// Build validates the configuration and returns the Engine. A Builder can
// build only once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	enc, err := document.ParseEncoding(cfg.Document.Encoding)
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// -------- REMOTE --------
	remote := b.remote
	if remote == nil {
		remote = yggdrasil.NewClient(yggdrasil.Config{
			BaseURL:      cfg.Remote.BaseURL,
			Timeout:      cfg.Remote.Timeout,
			UserAgent:    cfg.Remote.UserAgent,
			AgentName:    cfg.Remote.AgentName,
			AgentVersion: cfg.Remote.AgentVersion,
		})
	}

	engine := &Engine{
		config:   cfg,
		encoding: enc,
		remote:   remote,
		logger:   logger,
		clock:    b.clock,
	}

	// -------- EXECUTOR --------
	switch {
	case b.executor != nil:
		engine.executor = b.executor
	case cfg.Executor.PoolSize > 0:
		pool, err := runner.NewPool(cfg.Executor.PoolSize, cfg.Executor.Nonblocking, logger)
		if err != nil {
			return nil, err
		}
		engine.executor = pool
		engine.ownedPool = pool
	default:
		engine.executor = runner.Go{}
	}

	// -------- STORE --------
	switch {
	case b.store != nil:
		engine.store = b.store
	case b.redis != nil:
		engine.store = store.NewStore(b.redis, cfg.Store.RedisPrefix, cfg.Store.TTL, enc)
	}

	// -------- OBSERVABILITY --------
	tp := b.tracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	engine.tracer = tp.Tracer(tracerName)
	engine.audit = internalaudit.NewDispatcher(internalaudit.Config{
		Enabled:     cfg.Audit.Enabled,
		BufferSize:  cfg.Audit.BufferSize,
		DropIfFull:  cfg.Audit.DropIfFull,
		EmitTimeout: cfg.Audit.EmitTimeout,
	}, b.auditSink)
	engine.metrics = internalmetrics.New(internalmetrics.Config{
		Enabled:                 cfg.Metrics.Enabled,
		EnableLatencyHistograms: cfg.Metrics.EnableLatencyHistograms,
	})

	// -------- FLOWS --------
	warn := logger.Sugar().Warnw
	engine.flowDeps = flows.Deps{
		Login:    flows.LoginDeps{Remote: remote, NewClientToken: internal.NewClientToken},
		Validate: flows.ValidateDeps{Remote: remote},
		Refresh:  flows.RefreshDeps{Remote: remote},
		Logout:   flows.LogoutDeps{Remote: remote, Warn: warn},
	}

	b.built = true

	return engine, nil
}
