package memberauth_test

import (
	"testing"

	ma "github.com/panyam/memberauth"
)

func TestEncodeIsDeterministic(t *testing.T) {
	enc := &ma.PBKDF2Encoder{Iterations: 1000}

	salt := enc.GenerateSalt()
	first := enc.Encode("correct horse battery staple", salt)
	second := enc.Encode("correct horse battery staple", salt)

	if first != second {
		t.Errorf("Same password and salt should encode identically, got %q and %q", first, second)
	}
	if first == "" {
		t.Error("Encoded hash should not be empty")
	}
}

func TestEncodeVariesWithInputs(t *testing.T) {
	enc := &ma.PBKDF2Encoder{Iterations: 1000}
	salt := enc.GenerateSalt()

	base := enc.Encode("password123", salt)

	if got := enc.Encode("password124", salt); got == base {
		t.Error("Different passwords should encode differently")
	}
	if got := enc.Encode("password123", enc.GenerateSalt()); got == base {
		t.Error("Different salts should encode differently")
	}
}

func TestGenerateSaltUnique(t *testing.T) {
	enc := &ma.PBKDF2Encoder{}

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		salt := enc.GenerateSalt()
		if salt == "" {
			t.Fatal("Salt should not be empty")
		}
		if seen[salt] {
			t.Fatalf("Salt %q generated twice", salt)
		}
		seen[salt] = true
	}
}

func TestVerifyPassword(t *testing.T) {
	enc := &ma.PBKDF2Encoder{Iterations: 1000}
	salt := enc.GenerateSalt()
	hash := enc.Encode("secret123", salt)

	tests := []struct {
		name     string
		password string
		salt     string
		hash     string
		want     bool
	}{
		{"correct password", "secret123", salt, hash, true},
		{"wrong password", "secret124", salt, hash, false},
		{"wrong salt", "secret123", enc.GenerateSalt(), hash, false},
		{"empty stored hash", "secret123", salt, "", false},
		{"empty password against real hash", "", salt, hash, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ma.VerifyPassword(enc, tt.password, tt.salt, tt.hash); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}
