package gorm

import (
	"time"

	ma "github.com/panyam/memberauth"
)

// UserModel is the GORM model for user accounts. Username is stored
// normalized (lowercase) so the unique index enforces case-insensitive
// uniqueness within a license.
type UserModel struct {
	ID                  string `gorm:"primaryKey;size:64"`
	Username            string `gorm:"size:255;uniqueIndex:idx_users_username_license"`
	License             string `gorm:"size:64;uniqueIndex:idx_users_username_license"`
	Salt                string `gorm:"size:64"`
	PasswordHash        string `gorm:"size:128"`
	ResetToken          string `gorm:"size:128;index"`
	ResetTokenExpiresAt time.Time
	CreatedAt           time.Time `gorm:"autoCreateTime"`
	UpdatedAt           time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

// OAuthAccountModel is the GORM model for provider identity links.
type OAuthAccountModel struct {
	Provider       string    `gorm:"primaryKey;size:32"`
	ProviderUserID string    `gorm:"primaryKey;size:255"`
	Username       string    `gorm:"size:255;index:idx_links_owner"`
	License        string    `gorm:"size:64;index:idx_links_owner"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
}

func (OAuthAccountModel) TableName() string {
	return "oauth_accounts"
}

func (m *OAuthAccountModel) ToOAuthAccount() *ma.OAuthAccount {
	return &ma.OAuthAccount{
		Provider:       m.Provider,
		ProviderUserID: m.ProviderUserID,
		Username:       m.Username,
		License:        m.License,
		CreatedAt:      m.CreatedAt,
	}
}

// GormUser adapts a UserModel to the memberauth.User interface.
type GormUser struct {
	model *UserModel
}

func (u *GormUser) Id() string       { return u.model.ID }
func (u *GormUser) Username() string { return u.model.Username }
func (u *GormUser) License() string  { return u.model.License }

func (u *GormUser) Salt() string        { return u.model.Salt }
func (u *GormUser) SetSalt(salt string) { u.model.Salt = salt }

func (u *GormUser) PasswordHash() string        { return u.model.PasswordHash }
func (u *GormUser) SetPasswordHash(hash string) { u.model.PasswordHash = hash }

func (u *GormUser) ResetToken() string             { return u.model.ResetToken }
func (u *GormUser) ResetTokenExpiresAt() time.Time { return u.model.ResetTokenExpiresAt }
func (u *GormUser) SetResetToken(token string, expiresAt time.Time) {
	u.model.ResetToken = token
	u.model.ResetTokenExpiresAt = expiresAt
}

// userToModel snapshots any memberauth.User into a UserModel.
func userToModel(user ma.User) *UserModel {
	if gu, ok := user.(*GormUser); ok {
		return gu.model
	}
	return &UserModel{
		ID:                  user.Id(),
		Username:            ma.NormalizeUsername(user.Username()),
		License:             user.License(),
		Salt:                user.Salt(),
		PasswordHash:        user.PasswordHash(),
		ResetToken:          user.ResetToken(),
		ResetTokenExpiresAt: user.ResetTokenExpiresAt(),
	}
}
