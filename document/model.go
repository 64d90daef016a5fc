package document

// Version is the layout version of a persisted account.
type Version int

const (
	V1 Version = 1
	V2 Version = 2

	// CurrentVersion is the layout Encode produces.
	CurrentVersion = V2
)

// AccountTypeMojang is the only account type this package reads or writes.
const AccountTypeMojang = "mojang"

// Token names accepted in Document.Tokens.
const (
	TokenClient = "clientToken"
	TokenAccess = "accessToken"
)

// KnownToken reports whether name is a defined token name.
func KnownToken(name string) bool {
	return name == TokenClient || name == TokenAccess
}

// Profile is a persisted game profile.
type Profile struct {
	ID     string `json:"id" codec:"id"`
	Name   string `json:"name" codec:"name"`
	Legacy bool   `json:"legacy,omitempty" codec:"legacy,omitempty"`
}

// Property is a persisted user property. Order is preserved.
type Property struct {
	Name  string `json:"name" codec:"name"`
	Value string `json:"value" codec:"value"`
}

// User is the persisted server-asserted identity of the account owner.
type User struct {
	ID         string     `json:"id" codec:"id"`
	Legacy     bool       `json:"legacy,omitempty" codec:"legacy,omitempty"`
	Properties []Property `json:"properties,omitempty" codec:"properties,omitempty"`
}

// Document is the decoded, version-independent form of a persisted account.
type Document struct {
	Version        Version           `json:"formatVersion" codec:"formatVersion"`
	Type           string            `json:"type" codec:"type"`
	LoginUsername  string            `json:"loginUsername" codec:"loginUsername"`
	Tokens         map[string]string `json:"tokens,omitempty" codec:"tokens,omitempty"`
	Profiles       []Profile         `json:"profiles,omitempty" codec:"profiles,omitempty"`
	CurrentProfile string            `json:"currentProfile,omitempty" codec:"currentProfile,omitempty"`
	User           *User             `json:"user,omitempty" codec:"user,omitempty"`
}

// Token returns the named token, or "" when absent.
func (d *Document) Token(name string) string {
	if d == nil || d.Tokens == nil {
		return ""
	}
	return d.Tokens[name]
}

// v1Document is the legacy flat layout. It has no version field; profiles
// carry no legacy flag and the user record only an id and properties.
type v1Document struct {
	Username      string      `json:"username"`
	ClientToken   string      `json:"clientToken"`
	AccessToken   string      `json:"accessToken"`
	Profiles      []v1Profile `json:"profiles"`
	ActiveProfile string      `json:"activeProfile"`
	User          *v1User     `json:"user"`
}

type v1Profile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type v1User struct {
	ID         string     `json:"id"`
	Properties []Property `json:"properties"`
}

func (v *v1Document) upgrade() *Document {
	doc := &Document{
		Version:        V1,
		Type:           AccountTypeMojang,
		LoginUsername:  v.Username,
		Tokens:         map[string]string{},
		CurrentProfile: v.ActiveProfile,
	}
	if v.ClientToken != "" {
		doc.Tokens[TokenClient] = v.ClientToken
	}
	if v.AccessToken != "" {
		doc.Tokens[TokenAccess] = v.AccessToken
	}
	for _, p := range v.Profiles {
		doc.Profiles = append(doc.Profiles, Profile{ID: p.ID, Name: p.Name})
	}
	if v.User != nil {
		doc.User = &User{ID: v.User.ID, Properties: v.User.Properties}
	}
	return doc
}
