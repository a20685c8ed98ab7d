package repositories

import (
	"errors"
	"fmt"
	"time"

	"spendwise/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	errNilRecord            = errors.New("record cannot be nil")
)

// pruneBefore hard-deletes rows of T whose column is older than cutoff
func pruneBefore[T any](db *gorm.DB, column string, cutoff time.Time) (int64, error) {
	result := db.Where(column+" < ?", cutoff).Delete(new(T))
	if result.Error != nil {
		return 0, fmt.Errorf("failed to prune %s: %w", column, result.Error)
	}
	return result.RowsAffected, nil
}

// RefreshTokenRepository stores hashed refresh tokens. Rotation revokes the
// presented token, so a hash is usable at most once.
type RefreshTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewRefreshTokenRepository(db *gorm.DB) RefreshTokenRepositoryInterface {
	return &RefreshTokenRepository{db: db, now: time.Now}
}

func (r *RefreshTokenRepository) Create(token *models.RefreshToken) error {
	if token == nil {
		return fmt.Errorf("refresh token: %w", errNilRecord)
	}
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByTokenHash(tokenHash string) (*models.RefreshToken, error) {
	token := new(models.RefreshToken)
	err := r.db.Where("token_hash = ?", tokenHash).First(token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefreshTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	return token, nil
}

// Revoke returns ErrRefreshTokenNotFound when the token is unknown or
// already revoked
func (r *RefreshTokenRepository) Revoke(tokenID uuid.UUID) error {
	revoked, err := r.revokeWhere("id = ? AND revoked_at IS NULL", tokenID)
	if err != nil {
		return err
	}
	if revoked == 0 {
		return ErrRefreshTokenNotFound
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllForUser(userID uuid.UUID) error {
	_, err := r.revokeWhere("user_id = ? AND revoked_at IS NULL", userID)
	return err
}

func (r *RefreshTokenRepository) revokeWhere(clause string, arg uuid.UUID) (int64, error) {
	result := r.db.Model(&models.RefreshToken{}).Where(clause, arg).Update("revoked_at", r.now())
	if result.Error != nil {
		return 0, fmt.Errorf("failed to revoke refresh tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (r *RefreshTokenRepository) DeleteExpired() (int64, error) {
	return pruneBefore[models.RefreshToken](r.db, "expires_at", r.now())
}

// BlacklistedTokenRepository holds the jti of access tokens revoked by logout
type BlacklistedTokenRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewBlacklistedTokenRepository(db *gorm.DB) BlacklistedTokenRepositoryInterface {
	return &BlacklistedTokenRepository{db: db, now: time.Now}
}

func (r *BlacklistedTokenRepository) Create(token *models.BlacklistedToken) error {
	if token == nil {
		return fmt.Errorf("blacklisted token: %w", errNilRecord)
	}
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}
	return nil
}

func (r *BlacklistedTokenRepository) IsBlacklisted(jti string) (bool, error) {
	var hits int64
	err := r.db.Model(&models.BlacklistedToken{}).Where("jti = ?", jti).Count(&hits).Error
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return hits > 0, nil
}

// DeleteExpired drops entries for tokens that would be rejected on expiry anyway
func (r *BlacklistedTokenRepository) DeleteExpired() (int64, error) {
	return pruneBefore[models.BlacklistedToken](r.db, "expires_at", r.now())
}

type AuditLogRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewAuditLogRepository(db *gorm.DB) AuditLogRepositoryInterface {
	return &AuditLogRepository{db: db, now: time.Now}
}

func (r *AuditLogRepository) Create(entry *models.AuditLog) error {
	if entry == nil {
		return fmt.Errorf("audit log: %w", errNilRecord)
	}
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// GetByUserID pages through a user's trail newest first and reports the
// total number of entries
func (r *AuditLogRepository) GetByUserID(userID uuid.UUID, offset, limit int) ([]*models.AuditLog, int64, error) {
	scope := r.db.Model(&models.AuditLog{}).Where("user_id = ?", userID)

	var total int64
	if err := scope.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	var page []*models.AuditLog
	if err := scope.Order("created_at DESC").Offset(offset).Limit(limit).Find(&page).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return page, total, nil
}

func (r *AuditLogRepository) DeleteOlderThan(retention time.Duration) (int64, error) {
	return pruneBefore[models.AuditLog](r.db, "created_at", r.now().Add(-retention))
}
