package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/shopspring/decimal"
)

// GatewayClient — клиент платёжного шлюза.
//
// Шлюз — внешний vendor: charges (списание overage), checkout sessions
// (апгрейд плана), payouts (выплаты партнёрских комиссий).
type GatewayClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewGatewayClient создаёт клиента из окружения.
// PAYMENTS_API_KEY — ключ API, PAYMENTS_BASE_URL — адрес шлюза.
func NewGatewayClient() *GatewayClient {
	baseURL := os.Getenv("PAYMENTS_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.payments.example.com"
	}
	return &GatewayClient{
		apiKey:  os.Getenv("PAYMENTS_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewGatewayClientWith создаёт клиента с явными параметрами (для тестов).
func NewGatewayClientWith(apiKey, baseURL string) *GatewayClient {
	return &GatewayClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type customerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

type customerResponse struct {
	ID string `json:"id"`
}

type chargeRequest struct {
	CustomerRef string `json:"customer_ref"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type chargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type checkoutRequest struct {
	CustomerRef string `json:"customer_ref"`
	PlanID      string `json:"plan_id"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
}

type checkoutResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type payoutRequest struct {
	CustomerRef string `json:"customer_ref"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
}

type payoutResponse struct {
	ID string `json:"id"`
}

type gatewayError struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// CreateCustomer регистрирует организацию как клиента шлюза.
// Возвращает customer_ref для последующих charges и checkout sessions.
func (c *GatewayClient) CreateCustomer(ctx context.Context, name, email string) (string, error) {
	req := customerRequest{
		Name:  name,
		Email: email,
	}

	var resp customerResponse
	if err := c.post(ctx, "/v1/customers", req, &resp); err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return resp.ID, nil
}

// Charge списывает сумму с клиента. Возвращает идентификатор платежа.
func (c *GatewayClient) Charge(ctx context.Context, customerRef string, amount decimal.Decimal, description string) (string, error) {
	req := chargeRequest{
		CustomerRef: customerRef,
		AmountCents: amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    "usd",
		Description: description,
	}

	var resp chargeResponse
	if err := c.post(ctx, "/v1/charges", req, &resp); err != nil {
		return "", fmt.Errorf("create charge: %w", err)
	}
	return resp.ID, nil
}

// CreateCheckoutSession создаёт checkout session для смены плана.
// Возвращает URL, на который нужно отправить пользователя.
func (c *GatewayClient) CreateCheckoutSession(ctx context.Context, customerRef, planID, successURL, cancelURL string) (string, error) {
	req := checkoutRequest{
		CustomerRef: customerRef,
		PlanID:      planID,
		SuccessURL:  successURL,
		CancelURL:   cancelURL,
	}

	var resp checkoutResponse
	if err := c.post(ctx, "/v1/checkout/sessions", req, &resp); err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return resp.URL, nil
}

// CreatePayout выплачивает партнёрскую комиссию.
// Возвращает идентификатор выплаты.
func (c *GatewayClient) CreatePayout(ctx context.Context, customerRef string, amount decimal.Decimal, description string) (string, error) {
	req := payoutRequest{
		CustomerRef: customerRef,
		AmountCents: amount.Mul(decimal.NewFromInt(100)).IntPart(),
		Currency:    "usd",
		Description: description,
	}

	var resp payoutResponse
	if err := c.post(ctx, "/v1/payouts", req, &resp); err != nil {
		return "", fmt.Errorf("create payout: %w", err)
	}
	return resp.ID, nil
}

// post выполняет POST запрос к шлюзу.
func (c *GatewayClient) post(ctx context.Context, path string, payload, result any) error {
	if c.apiKey == "" {
		return fmt.Errorf("PAYMENTS_API_KEY not set")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var gwErr gatewayError
		if err := json.NewDecoder(resp.Body).Decode(&gwErr); err == nil && gwErr.Error.Message != "" {
			return fmt.Errorf("gateway %d: %s", resp.StatusCode, gwErr.Error.Message)
		}
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
