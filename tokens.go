package memberauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"
)

// Reset token expiry defaults.
const (
	// TokenExpiryPasswordReset is the default lifetime of a reset token.
	TokenExpiryPasswordReset = 1 * time.Hour

	resetTokenBytes = 32
)

// TokenExpiredSentinel is the expiration written to a reset token slot once
// the token has been consumed. Any expiration comparison classifies it as
// long expired, so a cleared token can never be replayed.
var TokenExpiredSentinel = time.Unix(0, 0).UTC()

// GenerateResetToken generates a cryptographically secure random token,
// URL-safe encoded. Stateless and safe for concurrent use.
func GenerateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
