package repository

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
)

func validNewPurchase() *model.NewPurchase {
	return &model.NewPurchase{
		UserID:          uuid.New(),
		PackageID:       "pro",
		BaseCredits:     1000,
		PriceMinor:      9990,
		Currency:        "brl",
		PaymentProvider: model.PaymentProviderStripe,
		PaymentMethod:   model.PaymentMethodCreditCard,
	}
}

func TestValidateNewPurchase(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *model.NewPurchase)
		field  string
	}{
		{"valid", func(p *model.NewPurchase) {}, ""},
		{"missing user", func(p *model.NewPurchase) { p.UserID = uuid.Nil }, "UserID"},
		{"zero credits", func(p *model.NewPurchase) { p.BaseCredits = 0 }, "BaseCredits"},
		{"negative bonus", func(p *model.NewPurchase) { p.BonusCredits = -5 }, "BonusCredits"},
		{"zero price", func(p *model.NewPurchase) { p.PriceMinor = 0 }, "PriceMinor"},
		{"bad currency", func(p *model.NewPurchase) { p.Currency = "reais" }, "Currency"},
		{"unknown provider", func(p *model.NewPurchase) { p.PaymentProvider = "paypal" }, "PaymentProvider"},
		{"unknown method", func(p *model.NewPurchase) { p.PaymentMethod = "cash" }, "PaymentMethod"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validNewPurchase()
			tt.mutate(p)

			err := ValidateNewPurchase(p)

			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var validationErr *domainErrors.ValidationError
			if assert.ErrorAs(t, err, &validationErr) {
				assert.Equal(t, tt.field, validationErr.Field)
			}
		})
	}

	assert.Error(t, ValidateNewPurchase(nil))
}
