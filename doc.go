// Package memberauth is a membership/identity credential core: local
// username/password authentication, password reset token lifecycle, and
// linking of external OAuth identities to local accounts.
//
// The package holds decision logic and invariants only. Persistence, the
// OAuth redirect handshake and session issuance are collaborators behind
// narrow interfaces (UserStore, OAuthExchange, SessionBinder), so the core
// runs the same against any storage or transport.
//
// # Architecture
//
// User: the minimal capability interface the core needs from an account
// record (username, license scope, salt, password hash, reset token slot).
// Any concrete representation can satisfy it; BasicUser is provided.
//
// CredentialManager: login, account create/update, password change, reset
// token issuance and consumption. Absent users and wrong passwords fail
// closed as booleans; conflicts (duplicate username, existing local
// password) fail loudly with coded AuthErrors.
//
// OAuthManager: link/unlink/lookup of (provider, provider user id)
// identities. Its central invariant is that an unlink never strands an
// account: the operation is refused unless a local password or a second
// linked identity remains.
//
// ProviderRegistry: the immutable, built-once-at-startup set of configured
// OAuth providers. Lookup misses are errors, not empty results.
//
// # Basic Usage
//
//	store := stores.NewFSUserStore("/path/to/storage")
//	creds := &memberauth.CredentialManager{Users: store}
//
//	user := memberauth.NewBasicUser("alice@example.com", "acme")
//	if err := creds.CreateAccount(user, "s3cret-password"); err != nil { ... }
//
//	ok := creds.Login(ctx, "alice@example.com", "s3cret-password", "acme", false)
//
//	registry := memberauth.NewProviderRegistry(
//	    memberauth.ClientData{Name: "google", DisplayName: "Google", Client: googleCfg},
//	)
//	oauthMgr := &memberauth.OAuthManager{Users: store, Providers: registry}
//
// # Invariants
//
// A stored password hash always has a salt alongside it. A consumed reset
// token is cleared and its expiration pinned to a past sentinel, so it can
// never be replayed. An account always retains at least one authentication
// method across unlink operations.
//
// # Store Implementations
//
// The stores package provides a file-based UserStore suitable for
// development and tests; stores/gorm and stores/gae back the same
// interface with a relational database and Google Cloud Datastore.
//
// # Security
//
// Passwords are hashed with PBKDF2-HMAC-SHA256 over a per-user random
// salt, and verified with a constant-time comparison. Reset tokens are
// 32 bytes from crypto/rand, URL-safe encoded, single use.
package memberauth
