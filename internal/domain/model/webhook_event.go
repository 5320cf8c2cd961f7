package model

import (
	"database/sql/driver"
	"time"

	"gorm.io/datatypes"
)

// WebhookStatus represents the processing status of a webhook
type WebhookStatus string

const (
	WebhookStatusPending   WebhookStatus = "pending"
	WebhookStatusCompleted WebhookStatus = "completed"
	WebhookStatusFailed    WebhookStatus = "failed"
)

// Scan implements sql.Scanner interface
func (w *WebhookStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*w = WebhookStatus(v)
	case []byte:
		*w = WebhookStatus(v)
	default:
		*w = WebhookStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (w WebhookStatus) Value() (driver.Value, error) {
	return string(w), nil
}

// PaymentWebhookEvent journals a provider notification delivery.
// Processing correctness never depends on this table; it records what arrived and how it ended.
type PaymentWebhookEvent struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Provider    PaymentProvider `gorm:"type:payment_provider;not null;uniqueIndex:idx_payment_webhook_events_provider_event" json:"provider"`
	EventID     string          `gorm:"size:255;not null;uniqueIndex:idx_payment_webhook_events_provider_event" json:"event_id"`
	EventType   string          `gorm:"size:100;not null;index" json:"event_type"`
	Status      WebhookStatus   `gorm:"type:webhook_status;not null;default:'pending';index" json:"status"`
	Attempts    int             `gorm:"not null;default:0" json:"attempts"`
	LastError   *string         `json:"last_error,omitempty"`
	Payload     datatypes.JSON  `gorm:"type:jsonb" json:"payload,omitempty"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CreatedAt   time.Time       `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (PaymentWebhookEvent) TableName() string {
	return "payment_webhook_events"
}
