package stores_test

import (
	"errors"
	"os"
	"testing"
	"time"

	ma "github.com/panyam/memberauth"
	"github.com/panyam/memberauth/stores"
)

func newTestStore(t *testing.T) *stores.FSUserStore {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "memberauth-store-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tmpDir) })
	return stores.NewFSUserStore(tmpDir)
}

func TestAddAndGetUser(t *testing.T) {
	store := newTestStore(t)

	alice := ma.NewBasicUser("Alice", "tenant1")
	alice.SetSalt("somesalt")
	alice.SetPasswordHash("somehash")
	if err := store.AddUser(alice); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	t.Run("lookup is case-insensitive", func(t *testing.T) {
		for _, name := range []string{"alice", "Alice", "ALICE"} {
			user, err := store.GetUser(name, "tenant1")
			if err != nil {
				t.Errorf("GetUser(%q) failed: %v", name, err)
				continue
			}
			if user.Id() != alice.Id() {
				t.Errorf("GetUser(%q) returned a different user", name)
			}
			if user.Salt() != "somesalt" || user.PasswordHash() != "somehash" {
				t.Errorf("Credentials did not round-trip for %q", name)
			}
		}
	})

	t.Run("license scopes the lookup", func(t *testing.T) {
		if _, err := store.GetUser("alice", "tenant2"); !errors.Is(err, ma.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("duplicate add fails", func(t *testing.T) {
		if err := store.AddUser(ma.NewBasicUser("ALICE", "tenant1")); err == nil {
			t.Error("Adding the same username twice should fail")
		}
	})

	t.Run("unknown user", func(t *testing.T) {
		if _, err := store.GetUser("bob", "tenant1"); !errors.Is(err, ma.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestSaveUserRoundTrip(t *testing.T) {
	store := newTestStore(t)

	alice := ma.NewBasicUser("alice", "")
	if err := store.AddUser(alice); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	alice.SetSalt("salt2")
	alice.SetPasswordHash("hash2")
	alice.SetResetToken("tok123", expires)
	if err := store.SaveUser(alice); err != nil {
		t.Fatalf("SaveUser failed: %v", err)
	}

	loaded, err := store.GetUser("alice", "")
	if err != nil {
		t.Fatalf("GetUser failed: %v", err)
	}
	if loaded.Salt() != "salt2" || loaded.PasswordHash() != "hash2" {
		t.Error("Credentials did not round-trip")
	}
	if loaded.ResetToken() != "tok123" {
		t.Errorf("Reset token did not round-trip, got %q", loaded.ResetToken())
	}
	if !loaded.ResetTokenExpiresAt().Equal(expires) {
		t.Errorf("Expiration did not round-trip, got %v", loaded.ResetTokenExpiresAt())
	}
}

func TestGetUserByResetToken(t *testing.T) {
	store := newTestStore(t)

	alice := ma.NewBasicUser("alice", "tenant1")
	alice.SetResetToken("alice-token", time.Now().Add(time.Hour))
	bob := ma.NewBasicUser("bob", "tenant2")
	bob.SetResetToken("bob-token", time.Now().Add(time.Hour))
	for _, u := range []*ma.BasicUser{alice, bob} {
		if err := store.AddUser(u); err != nil {
			t.Fatalf("AddUser failed: %v", err)
		}
	}

	user, err := store.GetUserByResetToken("bob-token")
	if err != nil {
		t.Fatalf("GetUserByResetToken failed: %v", err)
	}
	if user.Username() != "bob" {
		t.Errorf("Expected bob, got %q", user.Username())
	}

	if _, err := store.GetUserByResetToken("missing-token"); !errors.Is(err, ma.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got %v", err)
	}
	if _, err := store.GetUserByResetToken(""); !errors.Is(err, ma.ErrUserNotFound) {
		t.Errorf("Empty token should never match, got %v", err)
	}
}

func TestOAuthAccountLifecycle(t *testing.T) {
	store := newTestStore(t)

	alice := ma.NewBasicUser("alice", "tenant1")
	if err := store.AddUser(alice); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}

	if err := store.CreateOAuthAccount("google", "g123", "alice", "tenant1"); err != nil {
		t.Fatalf("CreateOAuthAccount failed: %v", err)
	}
	if err := store.CreateOAuthAccount("github", "gh456", "alice", "tenant1"); err != nil {
		t.Fatalf("CreateOAuthAccount failed: %v", err)
	}

	t.Run("resolve owner", func(t *testing.T) {
		user, err := store.GetUserByOAuthIdentity("google", "g123")
		if err != nil {
			t.Fatalf("GetUserByOAuthIdentity failed: %v", err)
		}
		if user.Username() != "alice" {
			t.Errorf("Expected alice, got %q", user.Username())
		}
	})

	t.Run("list links", func(t *testing.T) {
		links, err := store.GetOAuthAccountsForUser("alice", "tenant1")
		if err != nil {
			t.Fatalf("GetOAuthAccountsForUser failed: %v", err)
		}
		if len(links) != 2 {
			t.Fatalf("Expected 2 links, got %d", len(links))
		}
		for _, link := range links {
			if link.Username != "alice" || link.License != "tenant1" {
				t.Errorf("Link owner mismatch: %+v", link)
			}
			if link.CreatedAt.IsZero() {
				t.Error("Link should record its creation time")
			}
		}
	})

	t.Run("no links for other users", func(t *testing.T) {
		links, err := store.GetOAuthAccountsForUser("bob", "tenant1")
		if err != nil {
			t.Fatalf("GetOAuthAccountsForUser failed: %v", err)
		}
		if len(links) != 0 {
			t.Errorf("Expected no links, got %d", len(links))
		}
	})

	t.Run("delete link", func(t *testing.T) {
		if err := store.DeleteOAuthAccount("google", "g123"); err != nil {
			t.Fatalf("DeleteOAuthAccount failed: %v", err)
		}
		if _, err := store.GetUserByOAuthIdentity("google", "g123"); !errors.Is(err, ma.ErrUserNotFound) {
			t.Errorf("Deleted link should not resolve, got %v", err)
		}
		links, _ := store.GetOAuthAccountsForUser("alice", "tenant1")
		if len(links) != 1 {
			t.Errorf("Expected 1 remaining link, got %d", len(links))
		}
	})

	t.Run("unknown identity", func(t *testing.T) {
		if _, err := store.GetUserByOAuthIdentity("google", "never-linked"); !errors.Is(err, ma.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got %v", err)
		}
	})
}

func TestStoreIsolation(t *testing.T) {
	store1 := newTestStore(t)
	store2 := newTestStore(t)

	if err := store1.AddUser(ma.NewBasicUser("alice", "")); err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if _, err := store2.GetUser("alice", ""); !errors.Is(err, ma.ErrUserNotFound) {
		t.Errorf("Stores should not share state, got %v", err)
	}
}
