package yggauth

import (
	"maps"

	"github.com/MrEthical07/yggauth/document"
)

// Document returns the account in its persisted form.
func (a *Account) Document() *document.Document {
	doc, _ := a.snapshot()
	return doc
}

// Save encodes the account in the current document version using the
// engine's configured encoding. Save does not clear the dirty flag; call
// MarkSaved once the bytes are stored.
func (a *Account) Save() ([]byte, error) {
	enc := document.EncodingJSON
	if a.engine != nil {
		enc = a.engine.encoding
	}
	doc, _ := a.snapshot()
	return document.Encode(doc, enc)
}

// snapshot copies the persisted fields together with the revision they
// belong to.
func (a *Account) snapshot() (*document.Document, uint64) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	doc := &document.Document{
		Version:        document.CurrentVersion,
		Type:           document.AccountTypeMojang,
		LoginUsername:  a.login,
		CurrentProfile: a.current,
	}
	if len(a.tokens) > 0 {
		doc.Tokens = maps.Clone(a.tokens)
	}
	for _, p := range a.profiles {
		doc.Profiles = append(doc.Profiles, document.Profile{ID: p.id, Name: p.name, Legacy: p.legacy})
	}
	if a.user != nil {
		u := &document.User{ID: a.user.ID, Legacy: a.user.Legacy}
		for _, prop := range a.user.Properties {
			u.Properties = append(u.Properties, document.Property{Name: prop.Name, Value: prop.Value})
		}
		doc.User = u
	}
	return doc, a.revision
}

// accountFromDocument builds an account from a decoded document. The
// verification flag is never persisted, so the account starts not verified.
func (e *Engine) accountFromDocument(doc *document.Document) *Account {
	a := newAccount(e, doc.LoginUsername)
	for name, value := range doc.Tokens {
		if document.KnownToken(name) && value != "" {
			a.tokens[name] = value
		}
	}
	if len(doc.Profiles) > 0 {
		a.profiles = make([]*MojangProfile, 0, len(doc.Profiles))
		for _, p := range doc.Profiles {
			a.profiles = append(a.profiles, NewMojangProfile(p.ID, p.Name, p.Legacy))
		}
	}
	if doc.CurrentProfile != "" && a.indexLocked(doc.CurrentProfile) >= 0 {
		a.current = doc.CurrentProfile
	}
	if doc.User != nil {
		u := &User{ID: doc.User.ID, Legacy: doc.User.Legacy}
		for _, prop := range doc.User.Properties {
			u.Properties = append(u.Properties, UserProperty{Name: prop.Name, Value: prop.Value})
		}
		a.user = u
	}
	return a
}
