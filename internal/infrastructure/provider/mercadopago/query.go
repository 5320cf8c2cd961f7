package mercadopago

import (
	"context"
	"net/url"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

// QueryStatus retrieves a payment, or for a preference the best payment made against it
func (m *MercadoPagoProvider) QueryStatus(ctx context.Context, ref provider.Reference) (*provider.StatusResult, error) {
	if ref.Provider != model.PaymentProviderMercadoPago {
		return nil, provider.NewInvalidReferenceError("wrong_provider", "reference is not a Mercado Pago reference", ref.String())
	}

	switch ref.Kind {
	case provider.KindPayment:
		var p payment
		if err := m.do(ctx, "GET", "/v1/payments/"+url.PathEscape(ref.ID), nil, nil, &p); err != nil {
			return nil, err
		}
		return paymentResult(&p), nil

	case provider.KindPreference:
		return m.queryPreference(ctx, ref.ID)
	}

	return nil, provider.NewInvalidReferenceError("unsupported_kind", "Mercado Pago cannot query this reference kind", ref.String())
}

// queryPreference resolves a preference through the payments made with its external_reference.
// An approved payment wins; otherwise the newest payment (results are sorted newest first) decides.
func (m *MercadoPagoProvider) queryPreference(ctx context.Context, preferenceID string) (*provider.StatusResult, error) {
	var pref preference
	if err := m.do(ctx, "GET", "/checkout/preferences/"+url.PathEscape(preferenceID), nil, nil, &pref); err != nil {
		return nil, err
	}

	if pref.ExternalReference == "" {
		return &provider.StatusResult{Outcome: provider.OutcomeUnknown, RawStatus: "no_external_reference", PaymentID: pref.ID}, nil
	}

	query := url.Values{}
	query.Set("external_reference", pref.ExternalReference)
	query.Set("sort", "date_created")
	query.Set("criteria", "desc")

	var search paymentSearch
	if err := m.do(ctx, "GET", "/v1/payments/search?"+query.Encode(), nil, nil, &search); err != nil {
		return nil, err
	}

	if len(search.Results) == 0 {
		return &provider.StatusResult{
			Outcome:           provider.OutcomeUnknown,
			RawStatus:         "no_payment",
			PurchaseReference: pref.ExternalReference,
			PaymentID:         pref.ID,
		}, nil
	}

	chosen := &search.Results[0]
	for i := range search.Results {
		if search.Results[i].Status == "approved" {
			chosen = &search.Results[i]
			break
		}
	}

	return paymentResult(chosen), nil
}

// paymentResult: approved -> Paid; rejected, cancelled, refunded, charged_back -> NotPaid
func paymentResult(p *payment) *provider.StatusResult {
	result := &provider.StatusResult{
		Outcome:           provider.OutcomeUnknown,
		RawStatus:         p.Status,
		PurchaseReference: p.ExternalReference,
		PaymentID:         p.ID.String(),
		AmountMinor:       p.TransactionAmount.Shift(2).Round(0).IntPart(),
		Currency:          p.CurrencyID,
	}

	switch p.Status {
	case "approved":
		result.Outcome = provider.OutcomePaid
	case "rejected", "cancelled", "refunded", "charged_back":
		result.Outcome = provider.OutcomeNotPaid
	}
	return result
}
