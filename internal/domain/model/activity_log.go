package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ActivityActionCreditPurchase is logged once per confirmed purchase
const ActivityActionCreditPurchase = "credit_purchase"

// ActivityLog is a user-visible history entry
type ActivityLog struct {
	ID        int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    uuid.UUID         `gorm:"type:uuid;not null;index:idx_activity_logs_user_created" json:"user_id"`
	Action    string            `gorm:"not null;size:100" json:"action"`
	Details   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"details"`
	CreatedAt time.Time         `gorm:"not null;default:now();index:idx_activity_logs_user_created" json:"created_at"`
}

// TableName specifies the table name for GORM
func (ActivityLog) TableName() string {
	return "activity_logs"
}
