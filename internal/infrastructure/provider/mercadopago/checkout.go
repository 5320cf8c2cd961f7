package mercadopago

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

type preferenceItem struct {
	Title      string      `json:"title"`
	Quantity   int         `json:"quantity"`
	UnitPrice  json.Number `json:"unit_price"`
	CurrencyID string      `json:"currency_id"`
}

type backURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

type paymentTypeID struct {
	ID string `json:"id"`
}

type paymentMethods struct {
	ExcludedPaymentTypes []paymentTypeID `json:"excluded_payment_types,omitempty"`
}

type preferenceRequest struct {
	Items             []preferenceItem  `json:"items"`
	ExternalReference string            `json:"external_reference"`
	NotificationURL   string            `json:"notification_url,omitempty"`
	BackURLs          backURLs          `json:"back_urls"`
	AutoReturn        string            `json:"auto_return,omitempty"`
	Metadata          map[string]string `json:"metadata"`
	PaymentMethods    paymentMethods    `json:"payment_methods"`
}

// payment_type_id kept open for each payment method
var allowedPaymentTypes = map[model.PaymentMethod]string{
	model.PaymentMethodCreditCard: "credit_card",
	model.PaymentMethodDebit:      "debit_card",
	model.PaymentMethodPix:        "bank_transfer",
	model.PaymentMethodBoleto:     "ticket",
}

var allPaymentTypes = []string{"credit_card", "debit_card", "bank_transfer", "ticket", "atm", "prepaid_card"}

// CreateCheckout creates a Checkout Pro preference whose external_reference is the purchase id
func (m *MercadoPagoProvider) CreateCheckout(ctx context.Context, req *provider.CheckoutRequest) (*provider.CheckoutSession, error) {
	purchaseID := req.PurchaseID.String()

	body := preferenceRequest{
		Items: []preferenceItem{{
			Title:      req.Description,
			Quantity:   1,
			UnitPrice:  json.Number(decimal.New(req.PriceMinor, -2).StringFixed(2)),
			CurrencyID: strings.ToUpper(req.Currency),
		}},
		ExternalReference: purchaseID,
		NotificationURL:   m.cfg.NotificationURL,
		BackURLs: backURLs{
			Success: req.SuccessURL,
			Failure: req.CancelURL,
			Pending: req.SuccessURL,
		},
		AutoReturn:     "approved",
		Metadata:       map[string]string{"purchase_id": purchaseID, "user_id": req.UserID.String()},
		PaymentMethods: paymentMethods{ExcludedPaymentTypes: excludedTypes(req.PaymentMethod)},
	}

	var pref preference
	err := m.do(ctx, "POST", "/checkout/preferences", body, map[string]string{"X-Idempotency-Key": purchaseID}, &pref)
	if err != nil {
		m.logger.Error("Failed to create preference", zap.String("purchase_id", purchaseID), zap.Error(err))
		return nil, err
	}

	m.logger.Info("Preference created",
		zap.String("purchase_id", purchaseID),
		zap.String("external_id", pref.ID))

	return &provider.CheckoutSession{ExternalID: pref.ID, URL: pref.InitPoint}, nil
}

// excludedTypes leaves only the payment type matching the chosen method
func excludedTypes(method model.PaymentMethod) []paymentTypeID {
	allowed, ok := allowedPaymentTypes[method]
	if !ok {
		return nil
	}
	var excluded []paymentTypeID
	for _, t := range allPaymentTypes {
		if t != allowed {
			excluded = append(excluded, paymentTypeID{ID: t})
		}
	}
	return excluded
}
