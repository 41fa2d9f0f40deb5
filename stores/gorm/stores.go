package gorm

import (
	"errors"

	"gorm.io/gorm"

	ma "github.com/panyam/memberauth"
)

// AutoMigrate runs database migrations for all memberauth tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&UserModel{},
		&OAuthAccountModel{},
	)
}

// UserStore implements memberauth.UserStore using GORM. Per-user write
// serialization is delegated to the database.
type UserStore struct {
	db *gorm.DB
}

func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(username, license string) (ma.User, error) {
	var model UserModel
	err := s.db.First(&model, "username = ? AND license = ?",
		ma.NormalizeUsername(username), license).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	return &GormUser{model: &model}, nil
}

func (s *UserStore) GetUserByResetToken(token string) (ma.User, error) {
	if token == "" {
		return nil, ma.ErrUserNotFound
	}
	var model UserModel
	if err := s.db.First(&model, "reset_token = ?", token).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	return &GormUser{model: &model}, nil
}

func (s *UserStore) GetUserByOAuthIdentity(provider, providerUserID string) (ma.User, error) {
	var link OAuthAccountModel
	err := s.db.First(&link, "provider = ? AND provider_user_id = ?", provider, providerUserID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ma.ErrUserNotFound
		}
		return nil, err
	}
	return s.GetUser(link.Username, link.License)
}

func (s *UserStore) AddUser(user ma.User) error {
	return s.db.Create(userToModel(user)).Error
}

func (s *UserStore) SaveUser(user ma.User) error {
	return s.db.Save(userToModel(user)).Error
}

func (s *UserStore) CreateOAuthAccount(provider, providerUserID, username, license string) error {
	link := &OAuthAccountModel{
		Provider:       provider,
		ProviderUserID: providerUserID,
		Username:       ma.NormalizeUsername(username),
		License:        license,
	}
	return s.db.Save(link).Error
}

func (s *UserStore) DeleteOAuthAccount(provider, providerUserID string) error {
	return s.db.Delete(&OAuthAccountModel{},
		"provider = ? AND provider_user_id = ?", provider, providerUserID).Error
}

func (s *UserStore) GetOAuthAccountsForUser(username, license string) ([]*ma.OAuthAccount, error) {
	var models []OAuthAccountModel
	err := s.db.Where("username = ? AND license = ?",
		ma.NormalizeUsername(username), license).Find(&models).Error
	if err != nil {
		return nil, err
	}
	links := make([]*ma.OAuthAccount, len(models))
	for i := range models {
		links[i] = models[i].ToOAuthAccount()
	}
	return links, nil
}
