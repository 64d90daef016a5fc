package yggauth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisEngine(t *testing.T, configure ...func(*Config)) (*Engine, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	cfg := testConfig("http://yggdrasil.invalid")
	cfg.Store.RedisPrefix = "yggtest"
	for _, f := range configure {
		f(&cfg)
	}
	e := newFakeEngine(t, &fakeRemote{}, func(b *Builder) {
		b.WithConfig(cfg).WithRedis(rdb)
	})
	return e, mr
}

func TestPersistRestore(t *testing.T) {
	e, mr := newRedisEngine(t)
	ctx := context.Background()
	acc := populatedAccount(t, e)
	require.True(t, acc.Dirty())

	require.NoError(t, e.Persist(ctx, acc))
	assert.False(t, acc.Dirty())
	assert.True(t, mr.Exists("yggtest:acct:alice@example.com"))

	restored, err := e.Restore(ctx, "alice@example.com")
	require.NoError(t, err)
	assertSameAccount(t, acc, restored)
	assert.False(t, restored.Dirty())

	logins, err := e.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice@example.com"}, logins)
}

func TestPersistMsgpackWithTTL(t *testing.T) {
	e, mr := newRedisEngine(t, func(c *Config) {
		c.Document.Encoding = "msgpack"
		c.Store.TTL = time.Hour
	})
	ctx := context.Background()

	require.NoError(t, e.Persist(ctx, populatedAccount(t, e)))
	assert.Equal(t, time.Hour, mr.TTL("yggtest:acct:alice@example.com"))

	restored, err := e.Restore(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, restored.Size())
}

func TestRestoreMigratesLegacyDocument(t *testing.T) {
	e, mr := newRedisEngine(t)
	ctx := context.Background()
	require.NoError(t, mr.Set("yggtest:acct:bob", `{"username":"bob","clientToken":"ct","accessToken":"at","profiles":[{"id":"p1","name":"Bob"}],"activeProfile":"p1"}`))
	_, err := mr.SAdd("yggtest:accounts", "bob")
	require.NoError(t, err)

	acc, err := e.Restore(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "p1", acc.CurrentProfile().ID())

	raw, err := mr.Get("yggtest:acct:bob")
	require.NoError(t, err)
	assert.Contains(t, raw, `"formatVersion":2`)
}

func TestForget(t *testing.T) {
	e, _ := newRedisEngine(t)
	ctx := context.Background()
	require.NoError(t, e.Persist(ctx, populatedAccount(t, e)))

	require.NoError(t, e.Forget(ctx, "alice@example.com"))
	require.NoError(t, e.Forget(ctx, "alice@example.com"))

	_, err := e.Restore(ctx, "alice@example.com")
	require.ErrorIs(t, err, ErrAccountNotFound)
	logins, err := e.Accounts(ctx)
	require.NoError(t, err)
	assert.Empty(t, logins)
}

func TestPersistenceWithoutStore(t *testing.T) {
	e := newFakeEngine(t, &fakeRemote{})
	ctx := context.Background()

	require.ErrorIs(t, e.Persist(ctx, e.NewAccount("a")), ErrStoreNotConfigured)
	_, err := e.Restore(ctx, "a")
	require.ErrorIs(t, err, ErrStoreNotConfigured)
	require.ErrorIs(t, e.Forget(ctx, "a"), ErrStoreNotConfigured)
	_, err = e.Accounts(ctx)
	require.ErrorIs(t, err, ErrStoreNotConfigured)
}

func TestPersistAfterLogin(t *testing.T) {
	srv := newFakeServer(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	e := newTestEngine(t, srv, func(b *Builder) { b.WithRedis(rdb) })
	ctx := context.Background()

	acc := loggedIn(t, e)
	require.NoError(t, e.Persist(ctx, acc))

	restored, err := e.Restore(ctx, testUser)
	require.NoError(t, err)
	require.NoError(t, runTask(t, restored.CreateCheckTask()))
	assert.Equal(t, StatusVerified, restored.Status())
}

func TestReloginKeepsStoreKey(t *testing.T) {
	e, _ := newRedisEngine(t)
	ctx := context.Background()

	acc := e.NewAccount(testUser)
	require.NoError(t, runTask(t, acc.CreateLoginTask("Alice", "pw")))
	assert.Equal(t, testUser, acc.LoginUsername())
	require.NoError(t, e.Persist(ctx, acc))

	logins, err := e.Accounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{testUser}, logins)
}
