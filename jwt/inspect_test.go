package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signed(t testing.TB, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	require.NoError(t, err)
	return tok
}

func TestInspectReadsYggdrasilClaims(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, jwt.MapClaims{
		"sub":  "u1",
		"yggt": "abc123",
		"spr":  "p1",
		"exp":  exp.Unix(),
	})

	claims, err := Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "abc123", claims.TokenID)
	assert.Equal(t, "p1", claims.SelectedProfile)
	assert.Equal(t, "u1", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.True(t, claims.ExpiresAt.Time.Equal(exp))
}

func TestInspectAcceptsExpiredTokens(t *testing.T) {
	tok := signed(t, jwt.MapClaims{"exp": time.Now().Add(-time.Hour).Unix()})

	_, err := Inspect(tok)
	require.NoError(t, err)
	assert.True(t, Expired(tok, time.Now(), 0))
}

func TestOpaqueTokenHasUnknownExpiry(t *testing.T) {
	_, err := Inspect("0123456789abcdef0123456789abcdef")
	require.ErrorIs(t, err, ErrOpaqueToken)

	_, ok := ExpiresAt("0123456789abcdef0123456789abcdef")
	assert.False(t, ok)
	assert.False(t, Expired("0123456789abcdef0123456789abcdef", time.Now(), time.Minute))
}

func TestExpiredHonorsLeeway(t *testing.T) {
	now := time.Now()
	tok := signed(t, jwt.MapClaims{"exp": now.Add(30 * time.Second).Unix()})

	assert.False(t, Expired(tok, now, 0))
	assert.True(t, Expired(tok, now, time.Minute))
}

// FuzzInspect exercises the claim decoder with arbitrary token strings.
// Goal: no panics; malformed inputs must be rejected with errors.
func FuzzInspect(f *testing.F) {
	f.Add(signed(f, jwt.MapClaims{"yggt": "x", "exp": time.Now().Unix()}))
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJ1aWQiOiJ0ZXN0In0.")
	f.Add("deadbeef")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := Inspect(input)
		if err != nil {
			return
		}
		if claims == nil {
			t.Fatal("nil claims without error")
		}
		_ = Expired(input, time.Now(), time.Second)
	})
}
