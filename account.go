package yggauth

import (
	"sync"
	"sync/atomic"

	"github.com/MrEthical07/yggauth/yggdrasil"
)

// Account is one Mojang-style account: its login identifier, tokens,
// profiles, current profile selection, user metadata and verification flag.
//
// All methods are safe for concurrent use. State changes come from the
// setters below and from the completion of the task that currently owns the
// account.
type Account struct {
	engine *Engine

	mu       sync.RWMutex
	login    string
	tokens   map[string]string
	profiles []*MojangProfile
	current  string
	user     *User
	verified bool
	dirty    bool
	revision uint64
	task     *Task

	closed atomic.Bool
}

func newAccount(e *Engine, login string) *Account {
	return &Account{
		engine: e,
		login:  login,
		tokens: make(map[string]string, 2),
	}
}

// Type returns the account type descriptor.
func (a *Account) Type() AccountType {
	return MojangAccountType()
}

// LoginUsername returns the username or email used to log in.
func (a *Account) LoginUsername() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.login
}

// Token returns the named token, or "" when it is unset.
func (a *Account) Token(name string) (string, error) {
	if !validTokenName(name) {
		return "", ErrInvalidTokenName
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tokens[name], nil
}

// SetToken sets the named token. Setting the access token to a different
// value drops the verification flag.
func (a *Account) SetToken(name, value string) error {
	if !validTokenName(name) {
		return ErrInvalidTokenName
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	if name == TokenAccess && a.tokens[name] != value {
		a.verified = false
	}
	a.setTokenLocked(name, value)
	a.touchLocked()
	return nil
}

func validTokenName(name string) bool {
	return name == TokenClient || name == TokenAccess
}

func (a *Account) setTokenLocked(name, value string) {
	if value == "" {
		delete(a.tokens, name)
		return
	}
	a.tokens[name] = value
}

// Profiles returns the profiles in server order. The slice is a copy.
func (a *Account) Profiles() []Profile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]Profile, len(a.profiles))
	for i, p := range a.profiles {
		out[i] = p
	}
	return out
}

// SetProfiles replaces the whole profile list. Profiles must have unique,
// non-empty ids. A current selection absent from list is cleared.
func (a *Account) SetProfiles(list []*MojangProfile) error {
	seen := make(map[string]struct{}, len(list))
	for _, p := range list {
		if p == nil || p.id == "" {
			return ErrInvalidProfiles
		}
		if _, dup := seen[p.id]; dup {
			return ErrInvalidProfiles
		}
		seen[p.id] = struct{}{}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.replaceProfilesLocked(append([]*MojangProfile(nil), list...))
	a.touchLocked()
	return nil
}

func (a *Account) replaceProfilesLocked(list []*MojangProfile) {
	if len(list) == 0 {
		list = nil
	}
	a.profiles = list
	if a.current != "" && a.indexLocked(a.current) < 0 {
		a.current = ""
	}
}

// SetCurrentProfile selects the profile with the given id. It returns false
// and leaves the selection unchanged when no such profile exists.
func (a *Account) SetCurrentProfile(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if id == "" || a.indexLocked(id) < 0 {
		return false
	}
	if a.current != id {
		a.current = id
		a.touchLocked()
	}
	return true
}

// SelectProfile is SetCurrentProfile reporting ErrProfileNotFound.
func (a *Account) SelectProfile(id string) error {
	if !a.SetCurrentProfile(id) {
		return ErrProfileNotFound
	}
	return nil
}

// CurrentProfile returns the selected profile, or nil when none is selected.
func (a *Account) CurrentProfile() Profile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if p := a.currentLocked(); p != nil {
		return p
	}
	return nil
}

func (a *Account) currentLocked() *MojangProfile {
	if a.current == "" {
		return nil
	}
	if i := a.indexLocked(a.current); i >= 0 {
		return a.profiles[i]
	}
	return nil
}

// At returns the profile at index i, or nil when i is out of range.
func (a *Account) At(i int) Profile {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if i < 0 || i >= len(a.profiles) {
		return nil
	}
	return a.profiles[i]
}

// Size returns the number of profiles.
func (a *Account) Size() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.profiles)
}

// IndexOf returns the position of the profile with p's id, or -1.
func (a *Account) IndexOf(p Profile) int {
	if p == nil {
		return -1
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.indexLocked(p.ID())
}

func (a *Account) indexLocked(id string) int {
	for i, p := range a.profiles {
		if p.id == id {
			return i
		}
	}
	return -1
}

// Status derives the verification status. An account is verified only while
// the flag set by a successful task holds and an access token is present.
func (a *Account) Status() AccountStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.statusLocked()
}

func (a *Account) statusLocked() AccountStatus {
	if a.verified && a.tokens[TokenAccess] != "" {
		return StatusVerified
	}
	return StatusNotVerified
}

// Avatar returns the current profile's avatar URL, or "".
func (a *Account) Avatar() string {
	if p := a.CurrentProfile(); p != nil {
		return p.Avatar()
	}
	return ""
}

// BigAvatar returns the current profile's body render URL, or "".
func (a *Account) BigAvatar() string {
	if p := a.CurrentProfile(); p != nil {
		return p.BigAvatar()
	}
	return ""
}

// User returns a copy of the user metadata, or nil when none is known.
func (a *Account) User() *User {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return cloneUser(a.user)
}

// SetUser replaces the user metadata. nil clears it.
func (a *Account) SetUser(u *User) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.user = cloneUser(u)
	a.touchLocked()
}

func cloneUser(u *User) *User {
	if u == nil {
		return nil
	}
	c := u.Clone()
	if len(c.Properties) == 0 {
		c.Properties = nil
	}
	return &c
}

// Dirty reports whether the account changed since it was created, loaded or
// last marked saved.
func (a *Account) Dirty() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.dirty
}

// MarkSaved clears the dirty flag.
func (a *Account) MarkSaved() {
	a.mu.Lock()
	a.dirty = false
	a.mu.Unlock()
}

func (a *Account) markSavedAt(revision uint64) {
	a.mu.Lock()
	if a.revision == revision {
		a.dirty = false
	}
	a.mu.Unlock()
}

func (a *Account) touchLocked() {
	a.dirty = true
	a.revision++
}

// Busy reports whether a task currently owns the account.
func (a *Account) Busy() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.task != nil
}

// CurrentTask returns the task that owns the account, or nil.
func (a *Account) CurrentTask() *Task {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.task
}

// Close releases the account. The owning task, if any, is cancelled and no
// task will mutate the account afterwards. Close is idempotent.
func (a *Account) Close() {
	if a.closed.Swap(true) {
		return
	}
	a.mu.RLock()
	t := a.task
	a.mu.RUnlock()
	if t != nil {
		t.Cancel()
	}
}

// Closed reports whether Close was called.
func (a *Account) Closed() bool {
	return a.closed.Load()
}

func (a *Account) profileSnapshotLocked() *yggdrasil.Profile {
	p := a.currentLocked()
	if p == nil {
		return nil
	}
	return &yggdrasil.Profile{ID: p.id, Name: p.name, Legacy: p.legacy}
}

func profilesFromRemote(list []yggdrasil.Profile) []*MojangProfile {
	out := make([]*MojangProfile, 0, len(list))
	for _, p := range list {
		out = append(out, NewMojangProfile(p.ID, p.Name, p.Legacy))
	}
	return out
}
