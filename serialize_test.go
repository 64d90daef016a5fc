package yggauth

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrEthical07/yggauth/document"
)

func populatedAccount(t *testing.T, e *Engine) *Account {
	t.Helper()

	acc := e.NewAccount("alice@example.com")
	require.NoError(t, acc.SetToken(TokenClient, "ct"))
	require.NoError(t, acc.SetToken(TokenAccess, "at"))
	require.NoError(t, acc.SetProfiles([]*MojangProfile{
		NewMojangProfile("p2", "Bob", true),
		NewMojangProfile("p1", "Alice", false),
		NewMojangProfile("p3", "Carol", false),
	}))
	require.True(t, acc.SetCurrentProfile("p1"))
	acc.SetUser(&User{
		ID:     "u1",
		Legacy: true,
		Properties: []UserProperty{
			{Name: "z", Value: "last"},
			{Name: "a", Value: "first"},
		},
	})
	return acc
}

func assertSameAccount(t *testing.T, want, got *Account) {
	t.Helper()

	assert.Equal(t, want.LoginUsername(), got.LoginUsername())
	for _, name := range []string{TokenClient, TokenAccess} {
		w, _ := want.Token(name)
		g, _ := got.Token(name)
		assert.Equal(t, w, g, name)
	}
	require.Equal(t, want.Size(), got.Size())
	for i := 0; i < want.Size(); i++ {
		assert.Equal(t, want.At(i).ID(), got.At(i).ID())
		assert.Equal(t, want.At(i).Name(), got.At(i).Name())
		assert.Equal(t, want.At(i).Legacy(), got.At(i).Legacy())
	}
	if want.CurrentProfile() == nil {
		assert.Nil(t, got.CurrentProfile())
	} else {
		require.NotNil(t, got.CurrentProfile())
		assert.Equal(t, want.CurrentProfile().ID(), got.CurrentProfile().ID())
	}
	assert.Equal(t, want.User(), got.User())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	for _, enc := range []string{"json", "msgpack"} {
		t.Run(enc, func(t *testing.T) {
			cfg := testConfig("http://yggdrasil.invalid")
			cfg.Document.Encoding = enc
			e := newFakeEngine(t, &fakeRemote{}, func(b *Builder) { b.WithConfig(cfg) })
			acc := populatedAccount(t, e)

			data, err := acc.Save()
			require.NoError(t, err)
			loaded, err := e.LoadAccount(data)
			require.NoError(t, err)

			assertSameAccount(t, acc, loaded)
			assert.False(t, loaded.Dirty())
			assert.Equal(t, StatusNotVerified, loaded.Status())
		})
	}
}

func TestRoundTripEmptyAccount(t *testing.T) {
	e := newFakeEngine(t, &fakeRemote{})
	acc := e.NewAccount("")

	loaded, err := e.LoadAccount(mustSave(t, acc))
	require.NoError(t, err)

	assertSameAccount(t, acc, loaded)
}

func TestRoundTripAfterLogin(t *testing.T) {
	srv := newFakeServer(t)
	e := newTestEngine(t, srv)
	acc := loggedIn(t, e)

	loaded, err := e.LoadAccount(mustSave(t, acc))
	require.NoError(t, err)

	assertSameAccount(t, acc, loaded)
}

func TestSaveWritesCurrentVersion(t *testing.T) {
	e := newFakeEngine(t, &fakeRemote{})
	acc := populatedAccount(t, e)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(mustSave(t, acc), &raw))

	assert.EqualValues(t, document.CurrentVersion, raw["formatVersion"])
	assert.Equal(t, "mojang", raw["type"])
	assert.Equal(t, "p1", raw["currentProfile"])
}

func TestLoadLegacyDocument(t *testing.T) {
	e := newFakeEngine(t, &fakeRemote{})
	legacy := []byte(`{
		"username": "alice@example.com",
		"clientToken": "ct",
		"accessToken": "at",
		"profiles": [{"id": "p1", "name": "Alice"}, {"id": "p2", "name": "Bob"}],
		"activeProfile": "p2",
		"user": {"id": "u1", "properties": [{"name": "preferredLanguage", "value": "en"}]},
		"someFutureField": true
	}`)

	for _, load := range []func([]byte) (*Account, error){
		e.LoadAccount,
		func(b []byte) (*Account, error) { return e.LoadAccountVersion(document.V1, b) },
	} {
		acc, err := load(legacy)
		require.NoError(t, err)

		access, _ := acc.Token(TokenAccess)
		assert.Equal(t, "at", access)
		assert.Equal(t, 2, acc.Size())
		assert.False(t, acc.At(0).Legacy())
		assert.Equal(t, "p2", acc.CurrentProfile().ID())
		require.NotNil(t, acc.User())
		assert.False(t, acc.User().Legacy)
		assert.Equal(t, "en", acc.User().Properties[0].Value)
	}
}

func TestLoadRejectsFutureVersion(t *testing.T) {
	e := newFakeEngine(t, &fakeRemote{})

	_, err := e.LoadAccount([]byte(`{"formatVersion": 99, "type": "mojang"}`))
	require.ErrorIs(t, err, document.ErrUnsupportedVersion)
}

func TestLoadDropsDanglingSelection(t *testing.T) {
	e := newFakeEngine(t, &fakeRemote{})

	acc, err := e.LoadAccount([]byte(`{"formatVersion": 2, "type": "mojang", "loginUsername": "a",
		"profiles": [{"id": "p1", "name": "A"}], "currentProfile": "gone",
		"tokens": {"accessToken": "at", "bogus": "x"}}`))
	require.NoError(t, err)

	assert.Nil(t, acc.CurrentProfile())
	v, _ := acc.Token(TokenAccess)
	assert.Equal(t, "at", v)
	assert.Len(t, acc.Document().Tokens, 1)
}
