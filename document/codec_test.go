package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *Document {
	return &Document{
		Type:          AccountTypeMojang,
		LoginUsername: "alice@example.com",
		Tokens: map[string]string{
			TokenClient: "0123456789abcdef0123456789abcdef",
			TokenAccess: "eyJhbGciOiJIUzI1NiJ9.e30.sig",
		},
		Profiles: []Profile{
			{ID: "p1", Name: "Alice"},
			{ID: "p2", Name: "AliceAlt", Legacy: true},
		},
		CurrentProfile: "p2",
		User: &User{
			ID:     "u1",
			Legacy: true,
			Properties: []Property{
				{Name: "preferredLanguage", Value: "en"},
				{Name: "twitch_access_token", Value: "x"},
			},
		},
	}
}

func TestRoundTripBothEncodings(t *testing.T) {
	for _, enc := range []Encoding{EncodingJSON, EncodingMsgpack} {
		t.Run(enc.String(), func(t *testing.T) {
			in := sampleDocument()
			data, err := Encode(in, enc)
			require.NoError(t, err)

			out, err := Decode(data)
			require.NoError(t, err)

			in.Version = CurrentVersion
			assert.Equal(t, in, out)
		})
	}
}

func TestEmptyDocumentRoundTrip(t *testing.T) {
	data, err := Encode(&Document{LoginUsername: "bob"}, EncodingJSON)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "bob", out.LoginUsername)
	assert.Empty(t, out.Tokens)
	assert.Nil(t, out.Profiles)
	assert.Nil(t, out.User)
	assert.Equal(t, "", out.Token(TokenAccess))
}

func TestDecodeLegacyV1(t *testing.T) {
	legacy := []byte(`{
		"username": "alice@example.com",
		"clientToken": "ct",
		"accessToken": "at",
		"profiles": [{"id": "p1", "name": "Alice"}, {"id": "p2", "name": "Other"}],
		"activeProfile": "p2",
		"user": {"id": "u1", "properties": [{"name": "preferredLanguage", "value": "en"}]}
	}`)

	for name, decode := range map[string]func() (*Document, error){
		"sniffed":  func() (*Document, error) { return Decode(legacy) },
		"explicit": func() (*Document, error) { return DecodeVersion(V1, legacy) },
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := decode()
			require.NoError(t, err)
			assert.Equal(t, V1, doc.Version)
			assert.Equal(t, AccountTypeMojang, doc.Type)
			assert.Equal(t, "alice@example.com", doc.LoginUsername)
			assert.Equal(t, "ct", doc.Token(TokenClient))
			assert.Equal(t, "at", doc.Token(TokenAccess))
			require.Len(t, doc.Profiles, 2)
			assert.False(t, doc.Profiles[0].Legacy)
			assert.Equal(t, "p2", doc.CurrentProfile)
			require.NotNil(t, doc.User)
			assert.False(t, doc.User.Legacy)
			assert.Equal(t, []Property{{Name: "preferredLanguage", Value: "en"}}, doc.User.Properties)
		})
	}
}

func TestLegacyMigratesOnReencode(t *testing.T) {
	doc, err := Decode([]byte(`{"username":"a","accessToken":"at"}`))
	require.NoError(t, err)

	data, err := Encode(doc, EncodingJSON)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"formatVersion":2`)

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, CurrentVersion, again.Version)
	assert.Equal(t, "at", again.Token(TokenAccess))
}

func TestDecodeIsTolerant(t *testing.T) {
	data := []byte(`{
		"formatVersion": 2,
		"type": "mojang",
		"loginUsername": "a",
		"tokens": {"clientToken": "ct", "accessToken": "", "sessionCookie": "zzz"},
		"profiles": [{"id": "p1", "name": "First"}, {"id": "p1", "name": "Dup"}, {"id": "", "name": "Blank"}],
		"currentProfile": "gone",
		"futureField": {"nested": true}
	}`)

	doc, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{TokenClient: "ct"}, doc.Tokens)
	assert.Equal(t, []Profile{{ID: "p1", Name: "First"}}, doc.Profiles)
	assert.Empty(t, doc.CurrentProfile)
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]struct {
		data []byte
		want error
	}{
		"future version": {[]byte(`{"formatVersion": 3}`), ErrUnsupportedVersion},
		"zero version":   {[]byte(`{"formatVersion": 0}`), ErrUnsupportedVersion},
		"other type":     {[]byte(`{"formatVersion": 2, "type": "msa"}`), ErrUnsupportedType},
		"not an object":  {[]byte(`[1,2]`), ErrMalformed},
		"truncated":      {[]byte(`{"formatVersion": 2, "tokens": {`), ErrMalformed},
		"empty":          {nil, ErrMalformed},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(tc.data)
			require.ErrorIs(t, err, tc.want)
		})
	}

	_, err := DecodeVersion(Version(9), []byte(`{}`))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeVersionMismatch(t *testing.T) {
	data, err := Encode(sampleDocument(), EncodingMsgpack)
	require.NoError(t, err)

	_, err = DecodeVersion(V1, data)
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	doc, err := DecodeVersion(V2, data)
	require.NoError(t, err)
	assert.Equal(t, "p2", doc.CurrentProfile)
}

func TestParseEncoding(t *testing.T) {
	enc, err := ParseEncoding("MsgPack")
	require.NoError(t, err)
	assert.Equal(t, EncodingMsgpack, enc)

	enc, err = ParseEncoding("")
	require.NoError(t, err)
	assert.Equal(t, EncodingJSON, enc)

	_, err = ParseEncoding("xml")
	require.ErrorIs(t, err, ErrUnknownEncoding)
}
