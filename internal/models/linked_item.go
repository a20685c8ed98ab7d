package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LinkedItem is a bank data provider connection for one institution login.
// The access token never leaves the server.
type LinkedItem struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ProviderItemID  string     `gorm:"type:varchar(100);not null;uniqueIndex" json:"provider_item_id"`
	AccessToken     string     `gorm:"type:varchar(255);not null" json:"-"`
	InstitutionName string     `gorm:"type:varchar(255)" json:"institution_name,omitempty"`
	LastSyncedAt    *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (li *LinkedItem) BeforeCreate(tx *gorm.DB) error {
	if li.ID == uuid.Nil {
		li.ID = uuid.New()
	}

	now := time.Now()
	if li.CreatedAt.IsZero() {
		li.CreatedAt = now
	}
	if li.UpdatedAt.IsZero() {
		li.UpdatedAt = now
	}
	return nil
}

func (li *LinkedItem) TableName() string {
	return "linked_items"
}
