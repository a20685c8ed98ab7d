package repositories

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("user already exists")
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepositoryInterface {
	return &UserRepository{db: db}
}

// Create maps unique violations on username or email to ErrUserAlreadyExists
func (r *UserRepository) Create(user *models.User) error {
	if user == nil {
		return fmt.Errorf("user: %w", errNilRecord)
	}

	err := r.db.Create(user).Error
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrUserAlreadyExists
	default:
		return fmt.Errorf("failed to create user: %w", err)
	}
}

func (r *UserRepository) GetByID(id uuid.UUID) (*models.User, error) {
	return r.first("id = ?", id)
}

// GetByEmail matches case-insensitively
func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	return r.first("LOWER(email) = LOWER(?)", email)
}

func (r *UserRepository) GetByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username)
}

func (r *UserRepository) first(clause string, arg interface{}) (*models.User, error) {
	user := new(models.User)
	err := r.db.Where(clause, arg).First(user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Update(user *models.User) error {
	if user == nil {
		return fmt.Errorf("user: %w", errNilRecord)
	}
	if err := r.db.Save(user).Error; err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

// UpdateFailedLoginAttempts persists only the lockout columns
func (r *UserRepository) UpdateFailedLoginAttempts(user *models.User) error {
	if user == nil {
		return fmt.Errorf("user: %w", errNilRecord)
	}
	return r.setColumns(user.ID, map[string]interface{}{
		"failed_login_attempts": user.FailedLoginAttempts,
		"locked_at":             user.LockedAt,
	})
}

// RecordLogin stamps a successful login and clears any lockout state
func (r *UserRepository) RecordLogin(userID uuid.UUID, at time.Time) error {
	return r.setColumns(userID, map[string]interface{}{
		"failed_login_attempts": 0,
		"locked_at":             nil,
		"last_login_at":         at,
	})
}

func (r *UserRepository) setColumns(userID uuid.UUID, columns map[string]interface{}) error {
	if err := r.db.Model(&models.User{ID: userID}).Updates(columns).Error; err != nil {
		return fmt.Errorf("failed to update user %s: %w", userID, err)
	}
	return nil
}

// isUniqueViolation recognises duplicate keys from postgres (23505) and sqlite
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{"duplicate key", "UNIQUE constraint", "23505"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
