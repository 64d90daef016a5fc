package yggauth

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func auditedEngine(t *testing.T, configure ...func(*Builder)) (*Engine, *ChannelSink) {
	t.Helper()

	srv := newFakeServer(t)
	sink := NewChannelSink(64)
	cfg := testConfig(srv.URL)
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	cfg.Metrics.EnableLatencyHistograms = true

	e := newTestEngine(t, srv, append([]func(*Builder){func(b *Builder) {
		b.WithConfig(cfg).WithAuditSink(sink)
	}}, configure...)...)
	return e, sink
}

func nextEvent(t *testing.T, sink *ChannelSink) AuditEvent {
	t.Helper()
	select {
	case ev := <-sink.Events():
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("no audit event")
		return AuditEvent{}
	}
}

func TestAuditEvents(t *testing.T) {
	e, sink := auditedEngine(t)

	acc := loggedIn(t, e)
	ev := nextEvent(t, sink)
	assert.Equal(t, "task_login_success", ev.EventType)
	assert.True(t, ev.Success)
	assert.Equal(t, testUser, ev.Account)
	assert.Equal(t, "login", ev.TaskKind)
	assert.Equal(t, "p1", ev.ProfileID)
	assert.Equal(t, "2", ev.Metadata["profiles"])
	assert.NotEmpty(t, ev.TaskID)

	require.Error(t, runTask(t, acc.CreateLoginTask(testUser, "wrong")))
	ev = nextEvent(t, sink)
	assert.Equal(t, "task_login_failure", ev.EventType)
	assert.False(t, ev.Success)
	assert.Equal(t, "invalid_credentials", ev.Error)

	require.NoError(t, runTask(t, acc.CreateLogoutTask()))
	ev = nextEvent(t, sink)
	assert.Equal(t, "task_logout_success", ev.EventType)
	assert.Equal(t, "true", ev.Metadata["remote_invalidated"])
}

func TestAuditCancelledTask(t *testing.T) {
	g := newGate()
	remote := &fakeRemote{validate: func(ctx context.Context, _, _ string) error { return g.wait(ctx) }}
	sink := NewChannelSink(8)
	cfg := testConfig("http://yggdrasil.invalid")
	cfg.Audit.Enabled = true
	e := newFakeEngine(t, remote, func(b *Builder) { b.WithConfig(cfg).WithAuditSink(sink) })

	acc := e.NewAccount("a")
	require.NoError(t, acc.SetToken(TokenAccess, "at"))
	task := acc.CreateValidateTask()
	require.NoError(t, task.Start(context.Background()))
	g.awaitEntered(t)
	task.Cancel()

	ev := nextEvent(t, sink)
	assert.Equal(t, "task_validate_cancelled", ev.EventType)
	assert.Equal(t, "cancelled", ev.Error)
}

func TestMetricsCountOutcomes(t *testing.T) {
	e, _ := auditedEngine(t)

	acc := loggedIn(t, e)
	require.NoError(t, runTask(t, acc.CreateValidateTask()))
	require.NoError(t, runTask(t, acc.CreateRefreshTask()))
	require.Error(t, runTask(t, acc.CreateLoginTask(testUser, "wrong")))
	require.NoError(t, runTask(t, acc.CreateLogoutTask()))
	require.Error(t, runTask(t, acc.CreateValidateTask()))

	snap := e.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricLoginSuccess])
	assert.Equal(t, uint64(1), snap.Counters[MetricLoginFailure])
	assert.Equal(t, uint64(1), snap.Counters[MetricLoginInvalidCredentials])
	assert.Equal(t, uint64(1), snap.Counters[MetricValidateSuccess])
	assert.Equal(t, uint64(1), snap.Counters[MetricValidateFailure])
	assert.Equal(t, uint64(1), snap.Counters[MetricValidateInvalidToken])
	assert.Equal(t, uint64(1), snap.Counters[MetricRefreshSuccess])
	assert.Equal(t, uint64(1), snap.Counters[MetricLogout])

	var observed uint64
	for _, n := range snap.Histograms[MetricTaskLatency] {
		observed += n
	}
	assert.Equal(t, uint64(6), observed)
}

func TestMetricsCountInvalidateFailure(t *testing.T) {
	srv := newFakeServer(t)
	e := newTestEngine(t, srv)
	acc := loggedIn(t, e)

	srv.FailNext("/invalidate", http.StatusBadGateway, "")
	require.NoError(t, runTask(t, acc.CreateLogoutTask()))

	snap := e.MetricsSnapshot()
	assert.Equal(t, uint64(1), snap.Counters[MetricLogoutInvalidateFailure])
	assert.Equal(t, uint64(1), snap.Counters[MetricLogout])
}

func TestMetricsDisabled(t *testing.T) {
	e := newFakeEngine(t, &fakeRemote{}, func(b *Builder) { b.WithMetricsEnabled(false) })
	acc := e.NewAccount("")
	require.NoError(t, runTask(t, acc.CreateLoginTask("u", "p")))

	assert.Empty(t, e.MetricsSnapshot().Counters)
}

func TestTaskSpans(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	srv := newFakeServer(t)
	e := newTestEngine(t, srv, func(b *Builder) { b.WithTracerProvider(tp) })

	acc := loggedIn(t, e)
	require.Error(t, runTask(t, acc.CreateLoginTask(testUser, "wrong")))

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "yggauth.task.login", spans[0].Name())
	assert.Equal(t, codes.Ok, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, tracerName, spans[0].InstrumentationScope().Name)
}

func TestLogsNeverCarryTokens(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	srv := newFakeServer(t)
	e := newTestEngine(t, srv, func(b *Builder) { b.WithLogger(zap.New(core)) })

	acc := loggedIn(t, e)
	access, _ := acc.Token(TokenAccess)
	client, _ := acc.Token(TokenClient)
	srv.FailNext("/invalidate", http.StatusInternalServerError, "")
	require.NoError(t, runTask(t, acc.CreateLogoutTask()))
	require.Error(t, runTask(t, acc.CreateLoginTask(testUser, "wrong")))

	assert.Equal(t, 1, logs.FilterMessage("yggauth: task failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("yggauth: access token invalidation failed").Len())

	for _, entry := range logs.All() {
		for k, v := range entry.ContextMap() {
			s, _ := v.(string)
			assert.False(t, strings.Contains(s, access), "field %s leaks the access token", k)
			assert.False(t, strings.Contains(s, client), "field %s leaks the client token", k)
			assert.NotContains(t, s, testPass)
		}
	}
}

func TestAuditDroppedWhenFull(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	cfg := testConfig("http://yggdrasil.invalid")
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = true
	e := newFakeEngine(t, &fakeRemote{}, func(b *Builder) { b.WithConfig(cfg).WithAuditSink(sink) })
	t.Cleanup(func() { close(block) })

	for i := 0; i < 4; i++ {
		require.NoError(t, runTask(t, e.NewAccount("").CreateLogoutTask()))
	}
	require.Eventually(t, func() bool { return e.AuditDropped() > 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestAuditWaitIsBounded(t *testing.T) {
	block := make(chan struct{})
	sink := blockingSink{release: block}
	cfg := testConfig("http://yggdrasil.invalid")
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 1
	cfg.Audit.DropIfFull = false
	cfg.Audit.EmitTimeout = 20 * time.Millisecond
	e := newFakeEngine(t, &fakeRemote{}, func(b *Builder) { b.WithConfig(cfg).WithAuditSink(sink) })
	t.Cleanup(func() { close(block) })

	// A stuck sink must not hold finished tasks open.
	for i := 0; i < 4; i++ {
		require.NoError(t, runTask(t, e.NewAccount("").CreateLogoutTask()))
	}
	assert.Positive(t, e.AuditDropped())
}

type blockingSink struct{ release chan struct{} }

func (s blockingSink) Emit(context.Context, AuditEvent) { <-s.release }
