package yggauth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/yggauth/yggdrasil"
	"github.com/MrEthical07/yggauth/yggdrasil/yggdrasiltest"
)

const (
	testUser = "alice@example.com"
	testPass = "hunter2"
)

func newFakeServer(t *testing.T) *yggdrasiltest.Server {
	t.Helper()

	srv := yggdrasiltest.NewServer(yggdrasiltest.Account{
		Username: testUser,
		Password: testPass,
		Profiles: []yggdrasil.Profile{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "Bob", Legacy: true},
		},
		User: yggdrasil.User{
			ID: "u1",
			Properties: []yggdrasil.UserProperty{
				{Name: "preferredLanguage", Value: "en"},
				{Name: "twitch_access_token", Value: "x"},
			},
		},
	})
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.Remote.BaseURL = baseURL
	cfg.Remote.Timeout = 5 * time.Second
	return cfg
}

func newTestEngine(t *testing.T, srv *yggdrasiltest.Server, configure ...func(*Builder)) *Engine {
	t.Helper()

	b := New().WithConfig(testConfig(srv.URL))
	for _, f := range configure {
		f(b)
	}
	e, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func newFakeEngine(t *testing.T, remote Authenticator, configure ...func(*Builder)) *Engine {
	t.Helper()

	b := New().WithConfig(testConfig("http://yggdrasil.invalid")).WithAuthenticator(remote)
	for _, f := range configure {
		f(b)
	}
	e, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// runTask starts task and waits for it to finish.
func runTask(t *testing.T, task *Task) error {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, task.Start(ctx))
	return task.Wait(ctx)
}

func loggedIn(t *testing.T, e *Engine) *Account {
	t.Helper()

	acc := e.NewAccount("")
	require.NoError(t, runTask(t, acc.CreateLoginTask(testUser, testPass)))
	return acc
}

// fakeRemote is an in-memory Authenticator. Unset hooks succeed with empty
// results.
type fakeRemote struct {
	mu    sync.Mutex
	calls map[string]int

	authenticate func(ctx context.Context, username, password, clientToken string) (*yggdrasil.Session, error)
	validate     func(ctx context.Context, accessToken, clientToken string) error
	refresh      func(ctx context.Context, accessToken, clientToken string, selected *yggdrasil.Profile) (*yggdrasil.Session, error)
	invalidate   func(ctx context.Context, accessToken, clientToken string) error
}

func (f *fakeRemote) count(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[name]++
}

func (f *fakeRemote) Calls(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeRemote) Authenticate(ctx context.Context, username, password, clientToken string) (*yggdrasil.Session, error) {
	f.count("authenticate")
	if f.authenticate != nil {
		return f.authenticate(ctx, username, password, clientToken)
	}
	return &yggdrasil.Session{AccessToken: "access", ClientToken: clientToken}, nil
}

func (f *fakeRemote) Validate(ctx context.Context, accessToken, clientToken string) error {
	f.count("validate")
	if f.validate != nil {
		return f.validate(ctx, accessToken, clientToken)
	}
	return nil
}

func (f *fakeRemote) Refresh(ctx context.Context, accessToken, clientToken string, selected *yggdrasil.Profile) (*yggdrasil.Session, error) {
	f.count("refresh")
	if f.refresh != nil {
		return f.refresh(ctx, accessToken, clientToken, selected)
	}
	return &yggdrasil.Session{AccessToken: accessToken + "-next", ClientToken: clientToken, SelectedProfile: selected}, nil
}

func (f *fakeRemote) Invalidate(ctx context.Context, accessToken, clientToken string) error {
	f.count("invalidate")
	if f.invalidate != nil {
		return f.invalidate(ctx, accessToken, clientToken)
	}
	return nil
}

// gate blocks a fake remote call until released or the call is cancelled.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) error {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-g.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("remote call never started")
	}
}
