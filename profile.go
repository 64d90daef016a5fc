package yggauth

// Profile is a game-playable identity belonging to an account.
//
// Profiles are immutable values; replacing or renaming a profile produces a
// new value. Callers must not keep a Profile past a profile-list replacement
// and expect it to track the account.
type Profile interface {
	ID() string
	Name() string
	Legacy() bool
	TypeText() string
	TypeIcon() string
	Avatar() string
	BigAvatar() string
}

const (
	avatarURLPrefix    = "web:https://crafatar.com/avatars/"
	bigAvatarURLPrefix = "web:https://crafatar.com/renders/body/"
)

// MojangProfile is the profile variant of Mojang-style accounts.
type MojangProfile struct {
	id     string
	name   string
	legacy bool
}

// NewMojangProfile returns a profile. legacy marks pre-Mojang-migration accounts.
func NewMojangProfile(id, name string, legacy bool) *MojangProfile {
	return &MojangProfile{id: id, name: name, legacy: legacy}
}

func (p *MojangProfile) ID() string   { return p.id }
func (p *MojangProfile) Name() string { return p.name }
func (p *MojangProfile) Legacy() bool { return p.legacy }

func (p *MojangProfile) TypeText() string { return "Minecraft" }
func (p *MojangProfile) TypeIcon() string { return "icon:minecraft" }

// Avatar returns the head avatar URL, or "" for a profile without id.
func (p *MojangProfile) Avatar() string {
	if p.id == "" {
		return ""
	}
	return avatarURLPrefix + p.id
}

// BigAvatar returns the body render URL, or "" for a profile without id.
func (p *MojangProfile) BigAvatar() string {
	if p.id == "" {
		return ""
	}
	return bigAvatarURLPrefix + p.id
}

func (p *MojangProfile) withName(name string) *MojangProfile {
	return &MojangProfile{id: p.id, name: name, legacy: p.legacy}
}

// CredentialKind describes what an account type asks the user for.
type CredentialKind uint8

const (
	CredentialUsernamePassword CredentialKind = iota
)

// AccountType describes an account variant for presentation layers.
type AccountType struct {
	ID            string
	Text          string
	Icon          string
	UsernameLabel string
	PasswordLabel string
	Kind          CredentialKind
}

// MojangAccountType returns the descriptor of Mojang-style accounts.
func MojangAccountType() AccountType {
	return AccountType{
		ID:            "mojang",
		Text:          "Mojang",
		Icon:          "icon:mojang",
		UsernameLabel: "E-Mail/Username:",
		PasswordLabel: "Password:",
		Kind:          CredentialUsernamePassword,
	}
}
