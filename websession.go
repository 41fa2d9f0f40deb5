package memberauth

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/golang-jwt/jwt/v5"
)

// WebSessionBinder implements SessionBinder on top of an scs session
// manager, minting a JWT auth token alongside the server-side session.
// Handlers must run inside the session manager's LoadAndSave middleware so
// the request context carries session data.
type WebSessionBinder struct {
	// Session must be provided.
	Session *scs.SessionManager

	// Optional name used as a prefix for session variable names.
	AppName string

	// Session variable holding the logged-in username. Defaults to
	// "loggedInUsername".
	UserSessionVar string

	// Session variable holding the signed auth token.
	AuthTokenSessionVar string

	// JWT related fields
	JwtIssuer    string
	JWTSecretKey string

	// Session lifetimes. Remember extends the session to RememberTimeout.
	SessionTimeout  time.Duration
	RememberTimeout time.Duration
}

// EnsureDefaults fills in defaults for unset fields.
func (b *WebSessionBinder) EnsureDefaults() *WebSessionBinder {
	if b.AppName == "" {
		b.AppName = "MemberAuth"
	}
	if b.UserSessionVar == "" {
		b.UserSessionVar = "loggedInUsername"
	}
	if b.AuthTokenSessionVar == "" {
		b.AuthTokenSessionVar = fmt.Sprintf("%sAuthToken", b.AppName)
	}
	if b.JwtIssuer == "" {
		b.JwtIssuer = fmt.Sprintf("%s-Issuer", b.AppName)
	}
	if b.JWTSecretKey == "" {
		b.JWTSecretKey = strings.TrimSpace(os.Getenv("MEMBERAUTH_JWT_SECRET_KEY"))
		if b.JWTSecretKey == "" {
			b.JWTSecretKey = "MyTestJWTSecretKey123456"
		}
	}
	if b.SessionTimeout <= 0 {
		b.SessionTimeout = 24 * time.Hour
	}
	if b.RememberTimeout <= 0 {
		b.RememberTimeout = 30 * 24 * time.Hour
	}
	return b
}

// IssueSession records the authenticated username in the session and mints
// a JWT for API callers. remember stretches the token lifetime and asks scs
// to persist the session cookie.
func (b *WebSessionBinder) IssueSession(ctx context.Context, username string, remember bool) error {
	b.EnsureDefaults()
	b.Session.Put(ctx, b.UserSessionVar, username)
	b.Session.RememberMe(ctx, remember)

	lifetime := b.SessionTimeout
	if remember {
		lifetime = b.RememberTimeout
	}
	tokenString, err := b.signToken(username, lifetime)
	if err != nil {
		return fmt.Errorf("signing auth token: %w", err)
	}
	b.Session.Put(ctx, b.AuthTokenSessionVar, tokenString)
	return nil
}

// RevokeSession destroys the active session. Destroying a session that was
// never established is not an error.
func (b *WebSessionBinder) RevokeSession(ctx context.Context) error {
	b.EnsureDefaults()
	return b.Session.Destroy(ctx)
}

// LoggedInUsername returns the username bound to the current session, or ""
// when no session is active.
func (b *WebSessionBinder) LoggedInUsername(ctx context.Context) string {
	b.EnsureDefaults()
	return b.Session.GetString(ctx, b.UserSessionVar)
}

// AuthToken returns the JWT minted for the current session, or "".
func (b *WebSessionBinder) AuthToken(ctx context.Context) string {
	b.EnsureDefaults()
	return b.Session.GetString(ctx, b.AuthTokenSessionVar)
}

func (b *WebSessionBinder) signToken(username string, lifetime time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": username,
		"iss": b.JwtIssuer,
		"exp": now.Add(lifetime).Unix(),
		"iat": now.Unix(),
	})
	return token.SignedString([]byte(b.JWTSecretKey))
}

// VerifyToken parses and verifies a JWT minted by this binder and returns
// the subject username. Suitable as the Middleware's VerifyToken hook.
func (b *WebSessionBinder) VerifyToken(tokenString string) (username string, t any, err error) {
	b.EnsureDefaults()
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		return []byte(b.JWTSecretKey), nil
	})
	if err != nil {
		return "", nil, err
	}
	if !token.Valid {
		return "", nil, fmt.Errorf("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || claims == nil {
		return "", nil, fmt.Errorf("claims is not a map")
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return "", nil, err
	}
	if sub == "" {
		return "", nil, fmt.Errorf("subject not found")
	}
	return sub, token, nil
}
