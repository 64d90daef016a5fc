package yggauth

// LaunchSession is what a game launch needs from an account.
type LaunchSession struct {
	Username    string
	PlayerName  string
	UUID        string
	AccessToken string
	ClientToken string
	// UserType is "legacy" for unmigrated profiles and "mojang" otherwise.
	UserType string
	// SessionToken is the legacy "token:<access>:<profile id>" form.
	SessionToken string
	Properties   []UserProperty
}

// Session builds the launch data from the current profile and tokens. It
// reports false when there is no access token or no current profile.
func (a *Account) Session() (LaunchSession, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	access := a.tokens[TokenAccess]
	p := a.currentLocked()
	if access == "" || p == nil {
		return LaunchSession{}, false
	}

	s := LaunchSession{
		Username:     a.login,
		PlayerName:   p.name,
		UUID:         p.id,
		AccessToken:  access,
		ClientToken:  a.tokens[TokenClient],
		UserType:     "mojang",
		SessionToken: "token:" + access + ":" + p.id,
	}
	if p.legacy {
		s.UserType = "legacy"
	}
	if a.user != nil && len(a.user.Properties) > 0 {
		s.Properties = append([]UserProperty(nil), a.user.Properties...)
	}
	return s, true
}
