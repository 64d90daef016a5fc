package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/yggauth"
	"github.com/MrEthical07/yggauth/yggdrasil"
	"github.com/MrEthical07/yggauth/yggdrasil/yggdrasiltest"
)

const (
	cliUser = "alice@example.com"
	cliPass = "hunter2"
)

type cliEnv struct {
	redis  *miniredis.Miniredis
	server *yggdrasiltest.Server
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	srv := yggdrasiltest.NewServer(yggdrasiltest.Account{
		Username: cliUser,
		Password: cliPass,
		Profiles: []yggdrasil.Profile{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "Bob", Legacy: true},
		},
		User: yggdrasil.User{ID: "u1"},
	})
	t.Cleanup(srv.Close)
	return &cliEnv{redis: miniredis.RunT(t), server: srv}
}

func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	args = append(args, "--redis-addr", e.redis.Addr(), "--base-url", e.server.URL)
	return execute(t, stdin, args...)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLoginStoresAccount(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, cliPass+"\n", "login", cliUser)
	require.NoError(t, err)
	assert.Equal(t, cliUser+": verified (profile Alice)\n", out)

	out, err = env.run(t, "", "show")
	require.NoError(t, err)
	assert.Equal(t, cliUser+"\n", out)

	out, err = env.run(t, "", "show", cliUser, "--json")
	require.NoError(t, err)
	var view accountView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.True(t, view.LoggedIn)
	assert.Equal(t, "not_verified", view.Status)
	assert.Equal(t, "p1", view.Current)
	require.Len(t, view.Profiles, 2)
	assert.True(t, view.Profiles[1].Legacy)
	assert.NotContains(t, out, "token")
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "wrong\n", "login", cliUser)
	require.ErrorIs(t, err, yggauth.ErrInvalidCredentials)

	_, err = env.run(t, "", "login", cliUser)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no password")
}

func TestCheckValidatesStoredSession(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, cliPass+"\n", "login", cliUser)
	require.NoError(t, err)

	out, err := env.run(t, "", "check", cliUser)
	require.NoError(t, err)
	assert.Equal(t, cliUser+": verified (profile Alice)\n", out)
	assert.Equal(t, 1, env.server.Calls("/validate"))
	assert.Zero(t, env.server.Calls("/refresh"))
}

func TestCheckRetriesNetworkErrors(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, cliPass+"\n", "login", cliUser)
	require.NoError(t, err)

	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	_, err = execute(t, "", "check", cliUser,
		"--redis-addr", env.redis.Addr(),
		"--base-url", deadURL,
		"--timeout", "200ms",
		"--retries", "2",
		"--backoff", "1ms",
	)
	require.ErrorIs(t, err, yggauth.ErrNetwork)
}

func TestCheckUnknownAccount(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "", "check", "nobody")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no stored account")
	assert.Zero(t, env.server.TotalCalls())
}

func TestRefreshAndSelect(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, cliPass+"\n", "login", cliUser)
	require.NoError(t, err)

	out, err := env.run(t, "", "select", cliUser, "p2")
	require.NoError(t, err)
	assert.Equal(t, cliUser+": not_verified (profile Bob)\n", out)

	_, err = env.run(t, "", "select", cliUser, "p9")
	require.ErrorIs(t, err, yggauth.ErrProfileNotFound)

	out, err = env.run(t, "", "refresh", cliUser)
	require.NoError(t, err)
	assert.Equal(t, cliUser+": verified (profile Bob)\n", out)
	assert.Equal(t, 1, env.server.Calls("/refresh"))
}

func TestLogoutForget(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, cliPass+"\n", "login", cliUser)
	require.NoError(t, err)

	out, err := env.run(t, "", "logout", cliUser)
	require.NoError(t, err)
	assert.Equal(t, cliUser+": not_verified (profile -)\n", out)
	assert.Equal(t, 1, env.server.Calls("/invalidate"))

	out, err = env.run(t, "", "logout", cliUser, "--forget")
	require.NoError(t, err)
	assert.Equal(t, cliUser+": forgotten\n", out)

	out, err = env.run(t, "", "show")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestConfigFileAndFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yggauth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
remote:
  base_url: http://auth.example.test
  timeout: 10s
document:
  encoding: msgpack
store:
  redis_prefix: cli
redis:
  addr: 10.0.0.1:6379
  db: 2
`), 0o600))

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerConfigFlags(fs)
	require.NoError(t, fs.Parse([]string{"--timeout", "3s"}))

	cfg, err := loadConfig(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "http://auth.example.test", cfg.Remote.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, "msgpack", cfg.Document.Encoding)
	assert.Equal(t, "cli", cfg.Store.RedisPrefix)
	assert.Equal(t, "10.0.0.1:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "Minecraft", cfg.Remote.AgentName, "unset keys keep defaults")
}

func TestConfigRejectsInvalidValues(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	registerConfigFlags(fs)
	require.NoError(t, fs.Parse([]string{"--encoding", "xml"}))

	_, err := loadConfig("", fs)
	require.Error(t, err)

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"), pflag.NewFlagSet("empty", pflag.ContinueOnError))
	require.Error(t, err)
}
