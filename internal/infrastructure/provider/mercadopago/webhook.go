package mercadopago

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	domainErrors "github.com/wekeepgrowing/semo-credits/internal/domain/errors"
	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

const (
	// SignatureHeader carries "ts=<unix>,v1=<hex hmac>"
	SignatureHeader = "X-Signature"
	RequestIDHeader = "X-Request-Id"
)

// notification is the webhook body; it names the resource but never its status
type notification struct {
	Type   string `json:"type"`
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// VerifyWebhook authenticates x-signature and returns a query signal for payment notifications
func (m *MercadoPagoProvider) VerifyWebhook(payload []byte, headers http.Header) (*provider.WebhookEvent, error) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, domainErrors.NewValidationError("payload", "malformed notification")
	}

	requestID := headers.Get(RequestIDHeader)
	if err := VerifySignature(m.cfg.WebhookSecret, headers.Get(SignatureHeader), requestID, n.Data.ID); err != nil {
		return nil, domainErrors.NewSignatureVerificationError(string(model.PaymentProviderMercadoPago), err)
	}

	// Only data.id, x-request-id and ts are signed. The top-level id is not part of the
	// journal key; the topic is, so an edited topic never shadows the genuine delivery.
	eventID := n.Type + ":" + n.Data.ID
	if requestID != "" {
		eventID += ":" + requestID
	}

	out := &provider.WebhookEvent{
		Provider:  model.PaymentProviderMercadoPago,
		EventID:   eventID,
		EventType: n.Type,
		Signal:    provider.SignalIgnore,
		Payload:   payload,
	}
	if n.Action != "" {
		out.EventType = n.Action
	}

	if n.Type == "payment" && n.Data.ID != "" {
		ref, err := provider.ParseReference(model.PaymentProviderMercadoPago, n.Data.ID)
		if err != nil {
			return nil, domainErrors.NewValidationError("data.id", "not a payment id")
		}
		out.Reference = &ref
		out.Signal = provider.SignalQuery
	}

	return out, nil
}

// VerifySignature checks v1 = HMAC-SHA256(secret, "id:<data.id>;request-id:<x-request-id>;ts:<ts>;")
func VerifySignature(secret, signature, requestID, dataID string) error {
	if secret == "" {
		return errors.New("webhook secret not configured")
	}

	var ts, v1 string
	for _, part := range strings.Split(signature, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "ts":
			ts = value
		case "v1":
			v1 = value
		}
	}
	if ts == "" || v1 == "" {
		return errors.New("malformed signature header")
	}

	expected := Sign(secret, ts, requestID, dataID)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return errors.New("signature mismatch")
	}
	return nil
}

// Sign computes the v1 value for a notification
func Sign(secret, ts, requestID, dataID string) string {
	var manifest strings.Builder
	if dataID != "" {
		fmt.Fprintf(&manifest, "id:%s;", strings.ToLower(dataID))
	}
	if requestID != "" {
		fmt.Fprintf(&manifest, "request-id:%s;", requestID)
	}
	fmt.Fprintf(&manifest, "ts:%s;", ts)

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(manifest.String()))
	return hex.EncodeToString(mac.Sum(nil))
}
