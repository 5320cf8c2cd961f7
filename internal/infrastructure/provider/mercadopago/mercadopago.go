package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/wekeepgrowing/semo-credits/internal/domain/model"
	"github.com/wekeepgrowing/semo-credits/internal/domain/provider"
)

const defaultBaseURL = "https://api.mercadopago.com"

// Config holds Mercado Pago credentials and endpoints
type Config struct {
	AccessToken     string
	WebhookSecret   string
	BaseURL         string
	NotificationURL string
	Timeout         time.Duration
}

// MercadoPagoProvider implements provider.Gateway against the Mercado Pago REST API
type MercadoPagoProvider struct {
	cfg    Config
	client *http.Client
	logger *zap.Logger
}

// NewMercadoPagoProvider creates a new Mercado Pago provider
func NewMercadoPagoProvider(cfg Config, logger *zap.Logger) *MercadoPagoProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &MercadoPagoProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With(zap.String("provider", string(model.PaymentProviderMercadoPago))),
	}
}

// Name returns the provider name
func (m *MercadoPagoProvider) Name() model.PaymentProvider {
	return model.PaymentProviderMercadoPago
}

// payment is the subset of /v1/payments/{id} the service reads
type payment struct {
	ID                json.Number     `json:"id"`
	Status            string          `json:"status"`
	StatusDetail      string          `json:"status_detail"`
	ExternalReference string          `json:"external_reference"`
	TransactionAmount decimal.Decimal `json:"transaction_amount"`
	CurrencyID        string          `json:"currency_id"`
}

type preference struct {
	ID                string `json:"id"`
	ExternalReference string `json:"external_reference"`
	InitPoint         string `json:"init_point"`
}

type paymentSearch struct {
	Results []payment `json:"results"`
}

// apiError is the error body Mercado Pago returns
type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Status  int    `json:"status"`
}

// do sends a request and decodes a 2xx JSON body into out.
// 404 and 400 are permanent (bad reference); everything else that fails is retryable.
func (m *MercadoPagoProvider) do(ctx context.Context, method, path string, body interface{}, headers map[string]string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return &provider.ProviderError{Code: "MARSHAL_ERROR", Message: "Failed to prepare request", Details: err.Error()}
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, m.cfg.BaseURL+path, reader)
	if err != nil {
		return &provider.ProviderError{Code: "REQUEST_ERROR", Message: "Failed to create request", Details: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+m.cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		m.logger.Warn("Mercado Pago request failed", zap.String("path", path), zap.Error(err))
		return provider.NewUnavailableError("API_ERROR", "Mercado Pago request failed", err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return provider.NewUnavailableError("RESPONSE_ERROR", "Failed to read response", err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		_ = json.Unmarshal(respBody, &apiErr)
		code := apiErr.Error
		if code == "" {
			code = fmt.Sprintf("http_%d", resp.StatusCode)
		}

		m.logger.Warn("Mercado Pago returned an error",
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("code", code))

		switch resp.StatusCode {
		case http.StatusNotFound, http.StatusBadRequest:
			return provider.NewInvalidReferenceError(code, "Mercado Pago rejected the reference", apiErr.Message)
		default:
			return provider.NewUnavailableError(code, "Mercado Pago request failed", apiErr.Message)
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return provider.NewUnavailableError("PARSE_ERROR", "Failed to parse response", err.Error())
	}
	return nil
}
