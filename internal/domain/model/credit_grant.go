package model

import (
	"time"

	"github.com/google/uuid"
)

// CreditGrant records that a confirmed purchase's credits were added to the balance.
// purchase_id is unique, so a purchase can be granted at most once.
type CreditGrant struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PurchaseID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"purchase_id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Credits    int64     `gorm:"not null" json:"credits"`
	CreatedAt  time.Time `gorm:"not null;default:now()" json:"created_at"`
}

// TableName specifies the table name for GORM
func (CreditGrant) TableName() string {
	return "credit_grants"
}
