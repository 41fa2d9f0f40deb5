package memberauth

import (
	"context"
	"errors"
	"log/slog"
)

// OAuthManager orchestrates linking, unlinking and lookup of external OAuth
// identities against local accounts. It never leaves an account without a
// way to authenticate: an unlink that would strand the user is refused.
type OAuthManager struct {
	// Users must be provided.
	Users UserStore

	// Providers is the immutable registry of configured providers, built
	// once at startup.
	Providers *ProviderRegistry

	// Sessions is signalled on successful OAuth login. Defaults to
	// NopSessionBinder.
	Sessions SessionBinder

	// Exchange performs the provider handshake round trip. Optional; the
	// Request/Verify/Login delegation fails quietly without it.
	Exchange OAuthExchange

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// EnsureDefaults fills in defaults for optional fields.
func (m *OAuthManager) EnsureDefaults() *OAuthManager {
	if m.Providers == nil {
		m.Providers = NewProviderRegistry()
	}
	if m.Sessions == nil {
		m.Sessions = NopSessionBinder{}
	}
	if m.Logger == nil {
		m.Logger = slog.Default()
	}
	return m
}

// CreateOAuthAccount links (provider, providerUserID) to the local account
// matching user's username and license, creating the local account first
// when none exists. An existing account is reused as-is; this never
// produces a duplicate user record.
func (m *OAuthManager) CreateOAuthAccount(provider, providerUserID string, user User) error {
	m.EnsureDefaults()
	target, err := m.Users.GetUser(NormalizeUsername(user.Username()), user.License())
	if errors.Is(err, ErrUserNotFound) {
		if err := m.Users.AddUser(user); err != nil {
			return persistenceError("create oauth account", err)
		}
		target = user
		m.Logger.Info("account created for oauth identity", "username", user.Username(), "provider", provider)
	} else if err != nil {
		return persistenceError("create oauth account", err)
	}

	if err := m.Users.CreateOAuthAccount(provider, providerUserID, target.Username(), target.License()); err != nil {
		return persistenceError("create oauth account", err)
	}
	m.Logger.Info("oauth identity linked", "username", target.Username(), "provider", provider)
	return nil
}

// DisassociateOAuthAccount unlinks (provider, providerUserID) from its
// owning account. Returns false when no such link exists, and refuses
// (false) when the link is the account's only remaining authentication
// method, i.e. no local password and no second linked identity.
func (m *OAuthManager) DisassociateOAuthAccount(provider, providerUserID, license string) bool {
	m.EnsureDefaults()
	user, err := m.Users.GetUserByOAuthIdentity(provider, providerUserID)
	if err != nil {
		return false
	}
	if user.License() != license {
		return false
	}

	if user.PasswordHash() == "" {
		links, err := m.Users.GetOAuthAccountsForUser(NormalizeUsername(user.Username()), license)
		if err != nil {
			m.Logger.Warn("unlink: listing links failed", "username", user.Username(), "err", err)
			return false
		}
		if len(links) <= 1 {
			// Last authentication method; removing it would orphan the
			// account.
			return false
		}
	}

	if err := m.Users.DeleteOAuthAccount(provider, providerUserID); err != nil {
		m.Logger.Warn("unlink failed", "provider", provider, "err", err)
		return false
	}
	m.Logger.Info("oauth identity unlinked", "username", user.Username(), "provider", provider)
	return true
}

// GetOAuthClientData resolves a registered provider by name, case
// insensitively. Unknown providers are an error, never an empty result.
func (m *OAuthManager) GetOAuthClientData(providerName string) (*ClientData, error) {
	m.EnsureDefaults()
	client, err := m.Providers.Get(providerName)
	if err != nil {
		return nil, NewAuthError(ErrCodeUnknownProvider, err.Error(), "provider")
	}
	return client, nil
}

// RegisteredClientData returns all configured providers.
func (m *OAuthManager) RegisteredClientData() []*ClientData {
	m.EnsureDefaults()
	return m.Providers.All()
}

// GetOAuthAccountsForUser lists the linked identities for a user. Empty,
// with no error, when the user has none.
func (m *OAuthManager) GetOAuthAccountsForUser(username, license string) ([]*OAuthAccount, error) {
	m.EnsureDefaults()
	return m.Users.GetOAuthAccountsForUser(NormalizeUsername(username), license)
}

// GetUsernameFromOAuthIdentity returns the username owning a linked
// identity, or "" when the identity is unlinked. An unlinked identity is
// not an error; only store failures surface as one.
func (m *OAuthManager) GetUsernameFromOAuthIdentity(provider, providerUserID string) (string, error) {
	m.EnsureDefaults()
	user, err := m.Users.GetUserByOAuthIdentity(provider, providerUserID)
	if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrLinkNotFound) {
		return "", nil
	}
	if err != nil {
		return "", persistenceError("lookup oauth identity", err)
	}
	return user.Username(), nil
}

// RequestAuthentication starts the handshake round trip for providerName
// via the Exchange collaborator.
func (m *OAuthManager) RequestAuthentication(ctx context.Context, providerName string) error {
	m.EnsureDefaults()
	client, err := m.GetOAuthClientData(providerName)
	if err != nil {
		return err
	}
	if m.Exchange == nil {
		return NewAuthError(ErrCodeUnknownProvider, "no oauth exchange configured", "provider")
	}
	return m.Exchange.RequestAuthentication(ctx, client)
}

// VerifyAuthentication completes the handshake for the provider active in
// the current request. A missing active provider or a failed verification
// yields ("", false) rather than an error; this is an expected outcome.
func (m *OAuthManager) VerifyAuthentication(ctx context.Context) (providerUserID string, ok bool) {
	m.EnsureDefaults()
	if m.Exchange == nil {
		return "", false
	}
	name := m.Exchange.ActiveProvider(ctx)
	if name == "" {
		return "", false
	}
	client, err := m.Providers.Get(name)
	if err != nil {
		m.Logger.Warn("verify: provider not registered", "provider", name)
		return "", false
	}
	id, err := m.Exchange.VerifyAuthentication(ctx, client)
	if err != nil || id == "" {
		if err != nil {
			m.Logger.Warn("oauth verification failed", "provider", name, "err", err)
		}
		return "", false
	}
	return id, true
}

// Login completes the handshake and, when the verified identity is linked
// to a local account, issues a session for it. Returns false for a failed
// handshake or an unlinked identity.
func (m *OAuthManager) Login(ctx context.Context) bool {
	m.EnsureDefaults()
	if m.Exchange == nil {
		return false
	}
	name := m.Exchange.ActiveProvider(ctx)
	if name == "" {
		return false
	}
	providerUserID, ok := m.VerifyAuthentication(ctx)
	if !ok {
		return false
	}
	username, err := m.GetUsernameFromOAuthIdentity(name, providerUserID)
	if err != nil || username == "" {
		return false
	}
	if err := m.Sessions.IssueSession(ctx, username, false); err != nil {
		m.Logger.Warn("session issue failed", "username", username, "err", err)
		return false
	}
	return true
}
