// Package stores provides a file-based UserStore implementation, storing
// users and OAuth links as JSON files. Suitable for development, tests and
// small deployments; production systems should use stores/gorm or
// stores/gae.
package stores

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	ma "github.com/panyam/memberauth"
)

// FSUserStore stores users and OAuth links as JSON files under a root
// directory. A single mutex serializes all writes, which also satisfies
// the per-user write serialization the credential core expects.
type FSUserStore struct {
	StoragePath string

	mu sync.Mutex
}

func NewFSUserStore(storagePath string) *FSUserStore {
	return &FSUserStore{StoragePath: storagePath}
}

func (s *FSUserStore) userPath(username, license string) string {
	if license == "" {
		license = "_default"
	}
	return filepath.Join(s.StoragePath, "users", url.PathEscape(license),
		url.PathEscape(ma.NormalizeUsername(username))+".json")
}

func (s *FSUserStore) linkPath(provider, providerUserID string) string {
	name := url.PathEscape(provider) + "__" + url.PathEscape(providerUserID)
	return filepath.Join(s.StoragePath, "links", name+".json")
}

func (s *FSUserStore) GetUser(username, license string) (ma.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readUser(s.userPath(username, license))
}

func (s *FSUserStore) readUser(path string) (*ma.BasicUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	var user ma.BasicUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *FSUserStore) GetUserByResetToken(token string) (ma.User, error) {
	if token == "" {
		return nil, ma.ErrUserNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *ma.BasicUser
	root := filepath.Join(s.StoragePath, "users")
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		user, rerr := s.readUser(path)
		if rerr == nil && user.ResetToken() == token {
			found = user
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if found == nil {
		return nil, ma.ErrUserNotFound
	}
	return found, nil
}

func (s *FSUserStore) GetUserByOAuthIdentity(provider, providerUserID string) (ma.User, error) {
	s.mu.Lock()
	link, err := s.readLink(s.linkPath(provider, providerUserID))
	s.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(link.Username, link.License)
}

func (s *FSUserStore) AddUser(user ma.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.userPath(user.Username(), user.License())
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("user already exists: %s", user.Username())
	}
	return s.writeUser(path, user)
}

func (s *FSUserStore) SaveUser(user ma.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeUser(s.userPath(user.Username(), user.License()), user)
}

func (s *FSUserStore) writeUser(path string, user ma.User) error {
	snapshot, ok := user.(*ma.BasicUser)
	if !ok {
		// Convert other implementations into the stored representation.
		snapshot = &ma.BasicUser{
			UserId:       user.Id(),
			Name:         user.Username(),
			LicenseId:    user.License(),
			PasswordSalt: user.Salt(),
			Hash:         user.PasswordHash(),
		}
		snapshot.SetResetToken(user.ResetToken(), user.ResetTokenExpiresAt())
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSUserStore) CreateOAuthAccount(provider, providerUserID, username, license string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	link := &ma.OAuthAccount{
		Provider:       provider,
		ProviderUserID: providerUserID,
		Username:       ma.NormalizeUsername(username),
		License:        license,
		CreatedAt:      time.Now(),
	}
	path := s.linkPath(provider, providerUserID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(link, "", "  ")
	if err != nil {
		return err
	}
	return writeAtomicFile(path, data)
}

func (s *FSUserStore) DeleteOAuthAccount(provider, providerUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	err := os.Remove(s.linkPath(provider, providerUserID))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *FSUserStore) GetOAuthAccountsForUser(username, license string) ([]*ma.OAuthAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username = ma.NormalizeUsername(username)
	var out []*ma.OAuthAccount
	root := filepath.Join(s.StoragePath, "links")
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		link, err := s.readLink(filepath.Join(root, e.Name()))
		if err != nil {
			continue
		}
		if link.Username == username && link.License == license {
			out = append(out, link)
		}
	}
	return out, nil
}

func (s *FSUserStore) readLink(path string) (*ma.OAuthAccount, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var link ma.OAuthAccount
	if err := json.Unmarshal(data, &link); err != nil {
		return nil, err
	}
	return &link, nil
}
