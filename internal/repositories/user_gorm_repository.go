package repositories

import (
	"errors"
	"fmt"

	"nutrifit/internal/apperror"
	"nutrifit/internal/models"

	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.Conflict(fmt.Sprintf("El email '%s' ya está registrado.", user.Email))
		}
		return apperror.Storage("failed to create user", err)
	}
	return nil
}

// GetByID retrieves a user by their ID from the database.
func (r *GORMUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.UserNotFound(id)
		}
		return nil, apperror.Storage(fmt.Sprintf("failed to get user by ID %d", id), err)
	}
	return &user, nil
}

// GetByEmail retrieves a user by their email from the database.
func (r *GORMUserRepository) GetByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound(apperror.ResourceUser, fmt.Sprintf("Usuario con email %s no encontrado.", email))
		}
		return nil, apperror.Storage(fmt.Sprintf("failed to get user by email %s", email), err)
	}
	return &user, nil
}

// Exists reports whether a user with the given ID is stored.
func (r *GORMUserRepository) Exists(id uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, apperror.Storage(fmt.Sprintf("failed to look up user %d", id), err)
	}
	return count > 0, nil
}
