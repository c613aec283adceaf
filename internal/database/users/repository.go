// Package users provides database operations for staff accounts.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByTokenHash(hash)
package users

import (
	"gorm.io/gorm"

	"github.com/mrlokans/librarium/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser persists a user record. Password hashing happens in the auth
// service; this layer stores whatever hash it is handed.
func (r *Repository) CreateUser(user *entities.User) error {
	return r.db.Create(user).Error
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(id uint) (*entities.User, error) {
	var user entities.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByUsername retrieves a user by username.
func (r *Repository) GetUserByUsername(username string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByTokenHash retrieves a user by the hash of their API token.
func (r *Repository) GetUserByTokenHash(hash string) (*entities.User, error) {
	var user entities.User
	err := r.db.Where("token_hash = ?", hash).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetTokenHash stores the hash of a freshly issued API token.
func (r *Repository) SetTokenHash(userID uint, hash string) error {
	return r.db.Model(&entities.User{}).Where("id = ?", userID).Update("token_hash", hash).Error
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers() (int64, error) {
	var count int64
	err := r.db.Model(&entities.User{}).Count(&count).Error
	return count, err
}
