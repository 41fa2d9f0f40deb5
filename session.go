package memberauth

import "context"

// SessionBinder is the session collaborator. The managers only ever signal
// it after a successful authentication decision; everything about how
// sessions are represented (cookies, JWTs, server-side state) lives behind
// this interface. WebSessionBinder is the bundled implementation.
type SessionBinder interface {
	// IssueSession establishes an authenticated session for username.
	// remember asks for an extended lifetime.
	IssueSession(ctx context.Context, username string, remember bool) error

	// RevokeSession ends the active session. A no-op when none is active.
	RevokeSession(ctx context.Context) error
}

// OAuthExchange is the handshake collaborator that talks to external OAuth
// providers. The core delegates the redirect/verification round trip here
// and only consumes the resulting provider user id. The oauth2 subpackage
// provides a web implementation.
type OAuthExchange interface {
	// ActiveProvider returns the provider name associated with the current
	// request, or "" when none is in flight.
	ActiveProvider(ctx context.Context) string

	// RequestAuthentication kicks off the provider round trip for the
	// given registered client.
	RequestAuthentication(ctx context.Context, client *ClientData) error

	// VerifyAuthentication completes the round trip and returns the
	// provider's user id for the authenticated subject.
	VerifyAuthentication(ctx context.Context, client *ClientData) (providerUserID string, err error)
}

// NopSessionBinder discards session signals. Useful when only the decision
// logic is wanted, and in tests that don't care about sessions.
type NopSessionBinder struct{}

func (NopSessionBinder) IssueSession(ctx context.Context, username string, remember bool) error {
	return nil
}

func (NopSessionBinder) RevokeSession(ctx context.Context) error { return nil }
