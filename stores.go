package memberauth

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the minimal capability surface the credential core needs from an
// account record. Concrete representations (fs, gorm, datastore, or an
// application's own user type) satisfy this interface; the core never
// depends on a particular struct.
//
// Invariant: whenever PasswordHash is non-empty, Salt is non-empty too.
// Every writer in this package maintains that.
type User interface {
	// Id is a stable identity key, used to tell two loads of the same
	// logical user apart from two different users. Never compare User
	// values by reference.
	Id() string

	// Username is unique, case-insensitively, within a license.
	Username() string

	// License scopes the account to a tenant.
	License() string

	Salt() string
	SetSalt(salt string)

	// PasswordHash is empty when the account has no local credential
	// (an OAuth-only account).
	PasswordHash() string
	SetPasswordHash(hash string)

	ResetToken() string
	ResetTokenExpiresAt() time.Time
	SetResetToken(token string, expiresAt time.Time)
}

// OAuthAccount links an external (provider, provider user id) identity to a
// local account.
type OAuthAccount struct {
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	Username       string    `json:"username"`
	License        string    `json:"license"`
	CreatedAt      time.Time `json:"created_at"`
}

// UserStore is the persistence collaborator. Implementations must return
// ErrUserNotFound / ErrLinkNotFound on lookup misses, treat usernames
// case-insensitively within a license, and serialize concurrent writes to
// the same user record. The core performs no locking or retry of its own.
type UserStore interface {
	// GetUser looks a user up by (username, license).
	GetUser(username, license string) (User, error)

	// GetUserByResetToken looks a user up solely by an outstanding reset
	// token. The token is the whole credential on this path.
	GetUserByResetToken(token string) (User, error)

	// GetUserByOAuthIdentity resolves the owner of a linked external
	// identity.
	GetUserByOAuthIdentity(provider, providerUserID string) (User, error)

	// AddUser persists a brand new user.
	AddUser(user User) error

	// SaveUser updates an existing user.
	SaveUser(user User) error

	// CreateOAuthAccount associates (provider, providerUserID) with an
	// existing user.
	CreateOAuthAccount(provider, providerUserID, username, license string) error

	// DeleteOAuthAccount removes a link.
	DeleteOAuthAccount(provider, providerUserID string) error

	// GetOAuthAccountsForUser lists all links owned by a user. Empty when
	// none.
	GetOAuthAccountsForUser(username, license string) ([]*OAuthAccount, error)
}

// NormalizeUsername lowercases a username for case-insensitive matching.
// Stores index by the normalized form; the managers normalize before every
// lookup so the two sides agree.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// BasicUser is a simple User implementation, handy for tests and for
// applications without their own user type.
type BasicUser struct {
	UserId         string    `json:"id"`
	Name           string    `json:"username"`
	LicenseId      string    `json:"license"`
	PasswordSalt   string    `json:"salt,omitempty"`
	Hash           string    `json:"password_hash,omitempty"`
	Token          string    `json:"reset_token,omitempty"`
	TokenExpiresAt time.Time `json:"reset_token_expires_at"`
}

// NewBasicUser creates a BasicUser with a fresh random id.
func NewBasicUser(username, license string) *BasicUser {
	return &BasicUser{
		UserId:    uuid.NewString(),
		Name:      username,
		LicenseId: license,
	}
}

func (u *BasicUser) Id() string       { return u.UserId }
func (u *BasicUser) Username() string { return u.Name }
func (u *BasicUser) License() string  { return u.LicenseId }

func (u *BasicUser) Salt() string        { return u.PasswordSalt }
func (u *BasicUser) SetSalt(salt string) { u.PasswordSalt = salt }

func (u *BasicUser) PasswordHash() string        { return u.Hash }
func (u *BasicUser) SetPasswordHash(hash string) { u.Hash = hash }

func (u *BasicUser) ResetToken() string             { return u.Token }
func (u *BasicUser) ResetTokenExpiresAt() time.Time { return u.TokenExpiresAt }
func (u *BasicUser) SetResetToken(token string, expiresAt time.Time) {
	u.Token = token
	u.TokenExpiresAt = expiresAt
}
