package memberauth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CredentialManager orchestrates local username/password authentication and
// the password reset lifecycle against a UserStore. It is stateless and
// safe for concurrent use across requests; per-user write serialization is
// the store's responsibility.
type CredentialManager struct {
	// Users must be provided.
	Users UserStore

	// Encoder hashes and verifies passwords. Defaults to PBKDF2Encoder.
	Encoder SecurityEncoder

	// Sessions is signalled on successful login/logout. Defaults to
	// NopSessionBinder.
	Sessions SessionBinder

	// GenerateToken produces reset tokens. Defaults to GenerateResetToken.
	GenerateToken func() (string, error)

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// EnsureDefaults fills in defaults for optional fields.
func (m *CredentialManager) EnsureDefaults() *CredentialManager {
	if m.Encoder == nil {
		m.Encoder = &PBKDF2Encoder{}
	}
	if m.Sessions == nil {
		m.Sessions = NopSessionBinder{}
	}
	if m.GenerateToken == nil {
		m.GenerateToken = GenerateResetToken
	}
	if m.Logger == nil {
		m.Logger = slog.Default()
	}
	return m
}

// Login authenticates username/password within a license. It fails closed:
// an absent user, a missing local credential, or a hash mismatch all return
// false without distinguishing which happened. On success the session
// binder is signalled with the remember flag and Login returns true.
func (m *CredentialManager) Login(ctx context.Context, username, password, license string, remember bool) bool {
	m.EnsureDefaults()
	user, err := m.Users.GetUser(NormalizeUsername(username), license)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			m.Logger.Warn("login lookup failed", "username", username, "err", err)
		}
		return false
	}
	if !VerifyPassword(m.Encoder, password, user.Salt(), user.PasswordHash()) {
		return false
	}
	if err := m.Sessions.IssueSession(ctx, user.Username(), remember); err != nil {
		m.Logger.Warn("session issue failed", "username", user.Username(), "err", err)
		return false
	}
	return true
}

// LoginWithToken authenticates by a previously issued token alone. Trust is
// delegated entirely to the token's issuance; no password check happens
// here. If the token resolves to a user a session is issued unconditionally.
func (m *CredentialManager) LoginWithToken(ctx context.Context, ssoToken string) bool {
	m.EnsureDefaults()
	user, err := m.Users.GetUserByResetToken(ssoToken)
	if err != nil {
		return false
	}
	if err := m.Sessions.IssueSession(ctx, user.Username(), false); err != nil {
		m.Logger.Warn("session issue failed", "username", user.Username(), "err", err)
		return false
	}
	return true
}

// Logout revokes the active session. Always succeeds; revoking with no
// active session is a no-op.
func (m *CredentialManager) Logout(ctx context.Context) {
	m.EnsureDefaults()
	if err := m.Sessions.RevokeSession(ctx); err != nil {
		m.Logger.Warn("session revoke failed", "err", err)
	}
}

// CreateAccount persists a new user with the given plaintext password,
// hashed before storage. A user already holding the same (username,
// license) fails with ErrCodeDuplicateUsername. A salt is generated when
// the record carries none; the password is encoded with it.
func (m *CredentialManager) CreateAccount(user User, password string) error {
	m.EnsureDefaults()
	_, err := m.Users.GetUser(NormalizeUsername(user.Username()), user.License())
	if err == nil {
		return NewAuthError(ErrCodeDuplicateUsername, fmt.Sprintf("username %q already exists", user.Username()), "username")
	}
	if !errors.Is(err, ErrUserNotFound) {
		return persistenceError("create account", err)
	}

	if user.Salt() == "" {
		user.SetSalt(m.Encoder.GenerateSalt())
	}
	user.SetPasswordHash(m.Encoder.Encode(password, user.Salt()))
	if err := m.Users.AddUser(user); err != nil {
		return persistenceError("create account", err)
	}
	m.Logger.Info("account created", "username", user.Username(), "license", user.License())
	return nil
}

// UpdateAccount saves changes to user. It fails with ErrCodeUsernameTaken
// when a *different* logical user already owns the target username within
// the license. Identity is compared by Id, never by reference: stores hand
// back fresh instances per query.
func (m *CredentialManager) UpdateAccount(user User) error {
	m.EnsureDefaults()
	existing, err := m.Users.GetUser(NormalizeUsername(user.Username()), user.License())
	if err == nil && existing.Id() != user.Id() {
		return NewAuthError(ErrCodeUsernameTaken, fmt.Sprintf("username %q is already taken", user.Username()), "username")
	}
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return persistenceError("update account", err)
	}
	if err := m.Users.SaveUser(user); err != nil {
		return persistenceError("update account", err)
	}
	return nil
}

// HasLocalAccount reports whether the user exists and holds a local
// password credential.
func (m *CredentialManager) HasLocalAccount(username, license string) bool {
	m.EnsureDefaults()
	user, err := m.Users.GetUser(NormalizeUsername(username), license)
	if err != nil {
		return false
	}
	return user.PasswordHash() != ""
}

// Exists reports whether any user record exists for (username, license).
func (m *CredentialManager) Exists(username, license string) bool {
	m.EnsureDefaults()
	_, err := m.Users.GetUser(NormalizeUsername(username), license)
	return err == nil
}

// ChangePassword verifies oldPassword and, on match, re-encodes newPassword
// with the user's existing salt and persists. A wrong old password returns
// false and never mutates stored state. An absent user also returns false.
func (m *CredentialManager) ChangePassword(username, oldPassword, newPassword, license string) bool {
	m.EnsureDefaults()
	user, err := m.Users.GetUser(NormalizeUsername(username), license)
	if err != nil {
		return false
	}
	if !VerifyPassword(m.Encoder, oldPassword, user.Salt(), user.PasswordHash()) {
		return false
	}
	// Same salt on purpose: only the credential changes here.
	user.SetPasswordHash(m.Encoder.Encode(newPassword, user.Salt()))
	if err := m.Users.SaveUser(user); err != nil {
		m.Logger.Warn("change password save failed", "username", username, "err", err)
		return false
	}
	m.Logger.Info("password changed", "username", username)
	return true
}

// SetLocalPassword adds a local credential to an account that has none (an
// OAuth-only account). An existing local password fails loudly with
// ErrCodeLocalPasswordExists; this is never a silent overwrite path.
func (m *CredentialManager) SetLocalPassword(username, newPassword, license string) error {
	m.EnsureDefaults()
	user, err := m.Users.GetUser(NormalizeUsername(username), license)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return NewAuthError(ErrCodeInvalidUsername, fmt.Sprintf("no user %q", username), "username")
		}
		return persistenceError("set local password", err)
	}
	if user.PasswordHash() != "" {
		return NewAuthError(ErrCodeLocalPasswordExists, "account already has a local password", "password")
	}
	user.SetSalt(m.Encoder.GenerateSalt())
	user.SetPasswordHash(m.Encoder.Encode(newPassword, user.Salt()))
	if err := m.Users.SaveUser(user); err != nil {
		return persistenceError("set local password", err)
	}
	m.Logger.Info("local password added", "username", username)
	return nil
}

// GeneratePasswordResetToken issues or extends a reset token for the user.
//
// Regeneration happens when forced, when no token exists, or when the
// existing token has already expired. Otherwise the existing token is
// reused and its expiration only ever moves forward: a request for an
// earlier expiration never shortens an outstanding token.
func (m *CredentialManager) GeneratePasswordResetToken(username string, expiry time.Duration, license string, forceRegeneration bool) (string, error) {
	m.EnsureDefaults()
	user, err := m.Users.GetUser(NormalizeUsername(username), license)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return "", NewAuthError(ErrCodeInvalidUsername, fmt.Sprintf("no user %q", username), "username")
		}
		return "", persistenceError("generate reset token", err)
	}

	now := time.Now()
	requested := now.Add(expiry)

	switch {
	case forceRegeneration, user.ResetToken() == "", !now.Before(user.ResetTokenExpiresAt()):
		token, err := m.GenerateToken()
		if err != nil {
			return "", fmt.Errorf("generate reset token: %w", err)
		}
		user.SetResetToken(token, requested)
	case requested.After(user.ResetTokenExpiresAt()):
		user.SetResetToken(user.ResetToken(), requested)
	}

	if err := m.Users.SaveUser(user); err != nil {
		return "", persistenceError("generate reset token", err)
	}
	return user.ResetToken(), nil
}

// ResetPassword consumes a reset token and installs newPassword. The token
// is the sole credential on this path. An unknown or expired token returns
// false. On success the token slot is cleared and its expiration pinned to
// TokenExpiredSentinel, so a second use of the same token always fails.
func (m *CredentialManager) ResetPassword(resetToken, newPassword string) bool {
	m.EnsureDefaults()
	if resetToken == "" {
		return false
	}
	user, err := m.Users.GetUserByResetToken(resetToken)
	if err != nil {
		return false
	}
	// Expiration is validated here even if the store already filters
	// expired tokens out of the lookup.
	if !time.Now().Before(user.ResetTokenExpiresAt()) {
		return false
	}
	if user.Salt() == "" {
		user.SetSalt(m.Encoder.GenerateSalt())
	}
	user.SetPasswordHash(m.Encoder.Encode(newPassword, user.Salt()))
	user.SetResetToken("", TokenExpiredSentinel)
	if err := m.Users.SaveUser(user); err != nil {
		m.Logger.Warn("reset password save failed", "username", user.Username(), "err", err)
		return false
	}
	m.Logger.Info("password reset", "username", user.Username())
	return true
}
