package model

import (
	"time"

	"github.com/google/uuid"
)

// UserCredits is the spendable balance of a user.
// It is only ever increased through the increment_user_credits database function.
type UserCredits struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Credits   int64     `gorm:"not null;default:0" json:"credits"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (UserCredits) TableName() string {
	return "user_credits"
}
