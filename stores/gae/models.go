//go:build !wasm
// +build !wasm

package gae

import (
	"time"

	"cloud.google.com/go/datastore"
	ma "github.com/panyam/memberauth"
)

// UserEntity is the Datastore entity for user accounts.
// Key format: License + "|" + normalized username
type UserEntity struct {
	Key                 *datastore.Key `datastore:"__key__"`
	UserID              string         `datastore:"user_id"`
	Username            string         `datastore:"username"`
	License             string         `datastore:"license"`
	Salt                string         `datastore:"salt,noindex"`
	PasswordHash        string         `datastore:"password_hash,noindex"`
	ResetToken          string         `datastore:"reset_token"`
	ResetTokenExpiresAt time.Time      `datastore:"reset_token_expires_at,noindex"`
	CreatedAt           time.Time      `datastore:"created_at"`
	UpdatedAt           time.Time      `datastore:"updated_at"`
}

func (e *UserEntity) ToUser() *ma.BasicUser {
	user := &ma.BasicUser{
		UserId:       e.UserID,
		Name:         e.Username,
		LicenseId:    e.License,
		PasswordSalt: e.Salt,
		Hash:         e.PasswordHash,
	}
	user.SetResetToken(e.ResetToken, e.ResetTokenExpiresAt)
	return user
}

func UserToEntity(u ma.User, key *datastore.Key) *UserEntity {
	return &UserEntity{
		Key:                 key,
		UserID:              u.Id(),
		Username:            ma.NormalizeUsername(u.Username()),
		License:             u.License(),
		Salt:                u.Salt(),
		PasswordHash:        u.PasswordHash(),
		ResetToken:          u.ResetToken(),
		ResetTokenExpiresAt: u.ResetTokenExpiresAt(),
	}
}

// OAuthAccountEntity is the Datastore entity for provider identity links.
// Key format: Provider + "|" + ProviderUserID
type OAuthAccountEntity struct {
	Key            *datastore.Key `datastore:"__key__"`
	Provider       string         `datastore:"provider"`
	ProviderUserID string         `datastore:"provider_user_id"`
	Username       string         `datastore:"username"`
	License        string         `datastore:"license"`
	CreatedAt      time.Time      `datastore:"created_at"`
}

func (e *OAuthAccountEntity) ToOAuthAccount() *ma.OAuthAccount {
	return &ma.OAuthAccount{
		Provider:       e.Provider,
		ProviderUserID: e.ProviderUserID,
		Username:       e.Username,
		License:        e.License,
		CreatedAt:      e.CreatedAt,
	}
}
