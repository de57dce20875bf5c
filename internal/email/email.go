// Package email — клиент транзакционной почты.
// Используется для отправки rate confirmation на подпись
// и приглашений по реферальной программе.
package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// Client — клиент email-провайдера.
type Client struct {
	apiKey  string
	baseURL string
	from    string
	client  *http.Client
}

// NewClient создаёт клиента из окружения.
// EMAIL_API_KEY — ключ API, EMAIL_BASE_URL — адрес провайдера,
// EMAIL_FROM — адрес отправителя.
func NewClient() *Client {
	baseURL := os.Getenv("EMAIL_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.mail.example.com"
	}
	from := os.Getenv("EMAIL_FROM")
	if from == "" {
		from = "noreply@freightline.example.com"
	}
	return &Client{
		apiKey:  os.Getenv("EMAIL_API_KEY"),
		baseURL: baseURL,
		from:    from,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewClientWith создаёт клиента с явными параметрами (для тестов).
func NewClientWith(apiKey, baseURL, from string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		from:    from,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type sendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
}

type sendResponse struct {
	ID string `json:"id"`
}

type sendError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Send отправляет письмо. Возвращает идентификатор письма у провайдера.
func (c *Client) Send(ctx context.Context, to, subject, text string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("EMAIL_API_KEY not set")
	}
	if to == "" {
		return "", fmt.Errorf("empty recipient")
	}

	body, err := json.Marshal(sendRequest{
		From:    c.from,
		To:      to,
		Subject: subject,
		Text:    text,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var sendErr sendError
		if err := json.NewDecoder(resp.Body).Decode(&sendErr); err == nil && sendErr.Error.Message != "" {
			return "", fmt.Errorf("email provider %d: %s", resp.StatusCode, sendErr.Error.Message)
		}
		return "", fmt.Errorf("email provider returned status %d", resp.StatusCode)
	}

	var sendResp sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&sendResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	return sendResp.ID, nil
}

// SendRateConfirmation отправляет перевозчику ссылку на подписание
// rate confirmation.
func (c *Client) SendRateConfirmation(ctx context.Context, to, number, signURL string) (string, error) {
	subject := fmt.Sprintf("Rate Confirmation %s", number)
	text := fmt.Sprintf(
		"You have received rate confirmation %s.\n\nReview and sign here:\n%s\n\nThis link is unique to you. Do not forward it.",
		number, signURL,
	)
	return c.Send(ctx, to, subject, text)
}

// SendReferralInvite отправляет приглашение по реферальной программе.
func (c *Client) SendReferralInvite(ctx context.Context, to, orgName, signupURL string) (string, error) {
	subject := fmt.Sprintf("%s invited you to Freightline", orgName)
	text := fmt.Sprintf(
		"%s uses Freightline to record and process carrier calls and thinks you would too.\n\nSign up here:\n%s",
		orgName, signupURL,
	)
	return c.Send(ctx, to, subject, text)
}
