package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"spendwise/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrLinkedItemNotFound      = errors.New("linked item not found")
	ErrLinkedItemAlreadyExists = errors.New("linked item already exists")
)

type linkedItemRepository struct {
	db *gorm.DB
}

// NewLinkedItemRepository creates a new linked item repository
func NewLinkedItemRepository(db *gorm.DB) LinkedItemRepositoryInterface {
	return &linkedItemRepository{db: db}
}

func (r *linkedItemRepository) Create(ctx context.Context, item *models.LinkedItem) error {
	if item == nil {
		return errors.New("linked item cannot be nil")
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrLinkedItemAlreadyExists
		}
		return fmt.Errorf("failed to create linked item: %w", err)
	}
	return nil
}

func (r *linkedItemRepository) GetByProviderItemID(ctx context.Context, providerItemID string) (*models.LinkedItem, error) {
	var item models.LinkedItem
	err := r.db.WithContext(ctx).Where("provider_item_id = ?", providerItemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkedItemNotFound
		}
		return nil, fmt.Errorf("failed to get linked item: %w", err)
	}
	return &item, nil
}

func (r *linkedItemRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.LinkedItem, error) {
	var items []models.LinkedItem
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list linked items: %w", err)
	}
	return items, nil
}

func (r *linkedItemRepository) MarkSynced(ctx context.Context, id uuid.UUID, syncedAt time.Time) error {
	result := r.db.WithContext(ctx).Model(&models.LinkedItem{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"last_synced_at": syncedAt, "updated_at": syncedAt})
	if result.Error != nil {
		return fmt.Errorf("failed to mark linked item synced: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLinkedItemNotFound
	}
	return nil
}
