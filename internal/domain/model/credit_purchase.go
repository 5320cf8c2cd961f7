package model

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
)

// PurchaseStatus represents the lifecycle state of a credit purchase
type PurchaseStatus string

const (
	PurchaseStatusPending   PurchaseStatus = "pending"
	PurchaseStatusConfirmed PurchaseStatus = "confirmed"
	PurchaseStatusFailed    PurchaseStatus = "failed"
)

// IsTerminal reports whether no further transition is allowed
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseStatusConfirmed || s == PurchaseStatusFailed
}

// Scan implements sql.Scanner interface
func (s *PurchaseStatus) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*s = PurchaseStatus(v)
	case []byte:
		*s = PurchaseStatus(v)
	default:
		*s = PurchaseStatusPending
	}
	return nil
}

// Value implements driver.Valuer interface
func (s PurchaseStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// PaymentProvider identifies the external payment processor
type PaymentProvider string

const (
	PaymentProviderStripe      PaymentProvider = "stripe"
	PaymentProviderMercadoPago PaymentProvider = "mercado_pago"
)

func (p PaymentProvider) IsValid() bool {
	return p == PaymentProviderStripe || p == PaymentProviderMercadoPago
}

// Scan implements sql.Scanner interface
func (p *PaymentProvider) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*p = PaymentProvider(v)
	case []byte:
		*p = PaymentProvider(v)
	}
	return nil
}

// Value implements driver.Valuer interface
func (p PaymentProvider) Value() (driver.Value, error) {
	return string(p), nil
}

// PaymentMethod is the instrument the user picked at checkout
type PaymentMethod string

const (
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	PaymentMethodBoleto     PaymentMethod = "boleto"
	PaymentMethodDebit      PaymentMethod = "debit"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCreditCard, PaymentMethodPix, PaymentMethodBoleto, PaymentMethodDebit:
		return true
	}
	return false
}

// Scan implements sql.Scanner interface
func (m *PaymentMethod) Scan(src interface{}) error {
	switch v := src.(type) {
	case string:
		*m = PaymentMethod(v)
	case []byte:
		*m = PaymentMethod(v)
	}
	return nil
}

// Value implements driver.Valuer interface
func (m PaymentMethod) Value() (driver.Value, error) {
	return string(m), nil
}

// CreditPurchase is one attempt by a user to buy a package of credits.
// Owner and economics are fixed at creation; only status, external id and timestamps change.
type CreditPurchase struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID       `gorm:"type:uuid;not null;index:idx_credit_purchases_user_created" json:"user_id"`
	PackageID         string          `gorm:"size:100" json:"package_id,omitempty"`
	BaseCredits       int64           `gorm:"not null" json:"base_credits"`
	BonusCredits      int64           `gorm:"not null;default:0" json:"bonus_credits"`
	TotalCredits      int64           `gorm:"not null" json:"total_credits"`
	PriceMinor        int64           `gorm:"not null" json:"price_minor"`
	Currency          string          `gorm:"size:3;not null" json:"currency"`
	PaymentProvider   PaymentProvider `gorm:"type:payment_provider;not null;uniqueIndex:idx_credit_purchases_provider_external" json:"payment_provider"`
	PaymentMethod     PaymentMethod   `gorm:"type:payment_method;not null" json:"payment_method"`
	ExternalPaymentID *string         `gorm:"size:255;uniqueIndex:idx_credit_purchases_provider_external" json:"external_payment_id,omitempty"`
	Status            PurchaseStatus  `gorm:"type:purchase_status;not null;default:'pending';index" json:"status"`
	ResolvedAt        *time.Time      `json:"resolved_at,omitempty"`
	CreatedAt         time.Time       `gorm:"not null;default:now();index:idx_credit_purchases_user_created" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

// TableName specifies the table name for GORM
func (CreditPurchase) TableName() string {
	return "credit_purchases"
}

// HasExternalID reports whether a provider reference has been attached
func (p *CreditPurchase) HasExternalID() bool {
	return p.ExternalPaymentID != nil && *p.ExternalPaymentID != ""
}

// ExternalID returns the provider reference or an empty string
func (p *CreditPurchase) ExternalID() string {
	if p.ExternalPaymentID == nil {
		return ""
	}
	return *p.ExternalPaymentID
}

// NewPurchase holds the inputs for a pending purchase
type NewPurchase struct {
	UserID            uuid.UUID       `validate:"required"`
	PackageID         string          `validate:"omitempty,max=100"`
	BaseCredits       int64           `validate:"gt=0"`
	BonusCredits      int64           `validate:"gte=0"`
	PriceMinor        int64           `validate:"gt=0"`
	Currency          string          `validate:"required,len=3"`
	PaymentProvider   PaymentProvider `validate:"required"`
	PaymentMethod     PaymentMethod   `validate:"required"`
	ExternalPaymentID string          `validate:"omitempty,max=255"`
}
