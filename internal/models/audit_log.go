package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Audit actions. Auth events come first, then ledger and bank events.
const (
	AuditActionLogin         = "login"
	AuditActionLogout        = "logout"
	AuditActionRegister      = "register"
	AuditActionFailedLogin   = "failed_login"
	AuditActionAccountLocked = "account_locked"
	AuditActionTokenRefresh  = "token_refresh"

	AuditActionBankLinked           = "bank_linked"
	AuditActionBankAccountCreated   = "bank_account_created"
	AuditActionTransactionsImported = "transactions_imported"
	AuditActionTransactionCreated   = "transaction_created"
	AuditActionTransactionDeleted   = "transaction_deleted"
	AuditActionExpenseCreated       = "expense_created"
	AuditActionExpenseUpdated       = "expense_updated"
	AuditActionExpenseDeleted       = "expense_deleted"
)

// AuditLog is an append-only record of a security or ledger event.
// UserID is nil for events without an authenticated subject, such as a
// login attempt for an unknown username.
type AuditLog struct {
	ID         uuid.UUID     `gorm:"type:uuid;primary_key" json:"id"`
	UserID     *uuid.UUID    `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Action     string        `gorm:"type:varchar(100);not null;index" json:"action"`
	Resource   string        `gorm:"type:varchar(100);not null" json:"resource"`
	ResourceID string        `gorm:"type:varchar(255)" json:"resource_id,omitempty"`
	IPAddress  string        `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	UserAgent  string        `gorm:"type:text" json:"user_agent,omitempty"`
	Metadata   AuditMetadata `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;index" json:"created_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"-"`
}

func (al *AuditLog) TableName() string {
	return "audit_logs"
}

func (al *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if al.ID == uuid.Nil {
		al.ID = uuid.New()
	}
	if al.CreatedAt.IsZero() {
		al.CreatedAt = time.Now()
	}
	return nil
}

func (al *AuditLog) SetMetadata(key string, value interface{}) {
	if al.Metadata == nil {
		al.Metadata = AuditMetadata{}
	}
	al.Metadata[key] = value
}

// GetMetadata returns fallback when key is absent
func (al *AuditLog) GetMetadata(key string, fallback interface{}) interface{} {
	if value, ok := al.Metadata[key]; ok {
		return value
	}
	return fallback
}

func (al *AuditLog) String() string {
	subject := "anonymous"
	if al.UserID != nil {
		subject = al.UserID.String()
	}
	return fmt.Sprintf("AuditLog[User: %s, Action: %s, Resource: %s/%s, IP: %s, Time: %s]",
		subject, al.Action, al.Resource, al.ResourceID, al.IPAddress, al.CreatedAt.Format(time.RFC3339))
}

// AuditMetadata is stored as JSON text so the column works on both
// postgres and sqlite. An empty map is stored as NULL.
type AuditMetadata map[string]interface{}

func (m AuditMetadata) Value() (driver.Value, error) {
	if len(m) == 0 {
		return nil, nil
	}
	raw, err := json.Marshal(map[string]interface{}(m))
	if err != nil {
		return nil, fmt.Errorf("encode audit metadata: %w", err)
	}
	return string(raw), nil
}

func (m *AuditMetadata) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into AuditMetadata", src)
	}

	if len(raw) == 0 {
		*m = nil
		return nil
	}

	decoded := map[string]interface{}{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("decode audit metadata: %w", err)
	}
	*m = decoded
	return nil
}
