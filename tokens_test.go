package memberauth_test

import (
	"strings"
	"testing"
	"time"

	ma "github.com/panyam/memberauth"
)

func TestGenerateResetToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		token, err := ma.GenerateResetToken()
		if err != nil {
			t.Fatalf("GenerateResetToken failed: %v", err)
		}
		if len(token) < 32 {
			t.Errorf("Token %q looks too short", token)
		}
		if strings.ContainsAny(token, "+/=") {
			t.Errorf("Token %q should be URL-safe", token)
		}
		if seen[token] {
			t.Fatalf("Token %q generated twice", token)
		}
		seen[token] = true
	}
}

func TestTokenExpiredSentinelIsPast(t *testing.T) {
	if !ma.TokenExpiredSentinel.Before(time.Now()) {
		t.Error("Sentinel expiration must classify as expired")
	}
}
