package yggdrasil

// Agent identifies the game the credentials are exchanged for.
type Agent struct {
	Name    string `json:"name"`
	Version int    `json:"version"`
}

// Profile is a game profile as reported by the remote.
type Profile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Legacy bool   `json:"legacy,omitempty"`
}

// UserProperty is a single server-asserted user property.
type UserProperty struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// User carries the server-asserted identity fields of an account.
type User struct {
	ID         string         `json:"id"`
	Legacy     bool           `json:"legacy,omitempty"`
	Properties []UserProperty `json:"properties,omitempty"`
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	out := u
	if u.Properties != nil {
		out.Properties = make([]UserProperty, len(u.Properties))
		copy(out.Properties, u.Properties)
	}
	return out
}

// AuthenticateRequest is the body of an /authenticate call.
type AuthenticateRequest struct {
	Agent       Agent  `json:"agent"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	ClientToken string `json:"clientToken,omitempty"`
	RequestUser bool   `json:"requestUser"`
}

// RefreshRequest is the body of a /refresh call.
type RefreshRequest struct {
	AccessToken     string   `json:"accessToken"`
	ClientToken     string   `json:"clientToken"`
	SelectedProfile *Profile `json:"selectedProfile,omitempty"`
	RequestUser     bool     `json:"requestUser"`
}

type tokenPair struct {
	AccessToken string `json:"accessToken"`
	ClientToken string `json:"clientToken"`
}

// Session is the successful result of /authenticate and /refresh.
type Session struct {
	AccessToken       string    `json:"accessToken"`
	ClientToken       string    `json:"clientToken"`
	AvailableProfiles []Profile `json:"availableProfiles,omitempty"`
	SelectedProfile   *Profile  `json:"selectedProfile,omitempty"`
	User              *User     `json:"user,omitempty"`
}

type errorResponse struct {
	Error        string `json:"error"`
	ErrorMessage string `json:"errorMessage"`
	Cause        string `json:"cause,omitempty"`
}
