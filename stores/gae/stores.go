//go:build !wasm
// +build !wasm

package gae

import (
	"context"
	"time"

	"cloud.google.com/go/datastore"
	"google.golang.org/api/iterator"

	ma "github.com/panyam/memberauth"
)

// Kind constants for Datastore entities
const (
	KindUser         = "User"
	KindOAuthAccount = "OAuthAccount"
)

// UserStore implements memberauth.UserStore using Google Cloud Datastore.
type UserStore struct {
	client    *datastore.Client
	namespace string
	ctx       context.Context
}

// NewUserStore creates a new Datastore-backed UserStore
func NewUserStore(client *datastore.Client, namespace string) *UserStore {
	return &UserStore{
		client:    client,
		namespace: namespace,
		ctx:       context.Background(),
	}
}

// WithContext returns a copy of the store with the given context
func (s *UserStore) WithContext(ctx context.Context) *UserStore {
	return &UserStore{
		client:    s.client,
		namespace: s.namespace,
		ctx:       ctx,
	}
}

func (s *UserStore) namespacedKey(kind, name string) *datastore.Key {
	key := datastore.NameKey(kind, name, nil)
	key.Namespace = s.namespace
	return key
}

func (s *UserStore) userKey(username, license string) *datastore.Key {
	return s.namespacedKey(KindUser, license+"|"+ma.NormalizeUsername(username))
}

func (s *UserStore) linkKey(provider, providerUserID string) *datastore.Key {
	return s.namespacedKey(KindOAuthAccount, provider+"|"+providerUserID)
}

func (s *UserStore) GetUser(username, license string) (ma.User, error) {
	var entity UserEntity
	if err := s.client.Get(s.ctx, s.userKey(username, license), &entity); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) GetUserByResetToken(token string) (ma.User, error) {
	if token == "" {
		return nil, ma.ErrUserNotFound
	}
	query := datastore.NewQuery(KindUser).
		FilterField("reset_token", "=", token).
		Limit(1)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	it := s.client.Run(s.ctx, query)
	var entity UserEntity
	_, err := it.Next(&entity)
	if err == iterator.Done {
		return nil, ma.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return entity.ToUser(), nil
}

func (s *UserStore) GetUserByOAuthIdentity(provider, providerUserID string) (ma.User, error) {
	var link OAuthAccountEntity
	if err := s.client.Get(s.ctx, s.linkKey(provider, providerUserID), &link); err != nil {
		if err == datastore.ErrNoSuchEntity {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(link.Username, link.License)
}

func (s *UserStore) AddUser(user ma.User) error {
	key := s.userKey(user.Username(), user.License())
	entity := UserToEntity(user, key)
	now := time.Now()
	entity.CreatedAt = now
	entity.UpdatedAt = now
	_, err := s.client.Put(s.ctx, key, entity)
	return err
}

func (s *UserStore) SaveUser(user ma.User) error {
	key := s.userKey(user.Username(), user.License())

	// Preserve CreatedAt across saves
	var existing UserEntity
	err := s.client.Get(s.ctx, key, &existing)
	if err != nil && err != datastore.ErrNoSuchEntity {
		return err
	}

	entity := UserToEntity(user, key)
	entity.CreatedAt = existing.CreatedAt
	if entity.CreatedAt.IsZero() {
		entity.CreatedAt = time.Now()
	}
	entity.UpdatedAt = time.Now()

	_, err = s.client.Put(s.ctx, key, entity)
	return err
}

func (s *UserStore) CreateOAuthAccount(provider, providerUserID, username, license string) error {
	key := s.linkKey(provider, providerUserID)
	entity := &OAuthAccountEntity{
		Key:            key,
		Provider:       provider,
		ProviderUserID: providerUserID,
		Username:       ma.NormalizeUsername(username),
		License:        license,
		CreatedAt:      time.Now(),
	}
	_, err := s.client.Put(s.ctx, key, entity)
	return err
}

func (s *UserStore) DeleteOAuthAccount(provider, providerUserID string) error {
	err := s.client.Delete(s.ctx, s.linkKey(provider, providerUserID))
	if err == datastore.ErrNoSuchEntity {
		return nil
	}
	return err
}

func (s *UserStore) GetOAuthAccountsForUser(username, license string) ([]*ma.OAuthAccount, error) {
	query := datastore.NewQuery(KindOAuthAccount).
		FilterField("username", "=", ma.NormalizeUsername(username)).
		FilterField("license", "=", license)
	if s.namespace != "" {
		query = query.Namespace(s.namespace)
	}

	var links []*ma.OAuthAccount
	it := s.client.Run(s.ctx, query)
	for {
		var entity OAuthAccountEntity
		_, err := it.Next(&entity)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		links = append(links, entity.ToOAuthAccount())
	}
	return links, nil
}
