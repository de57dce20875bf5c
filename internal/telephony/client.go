package telephony

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Client — клиент провайдера телефонии.
// Используется для скачивания записей звонков по URL из webhook.
type Client struct {
	accountSID string
	authToken  string
	client     *http.Client
}

// NewClient создаёт клиента из окружения.
// TELEPHONY_ACCOUNT_SID и TELEPHONY_AUTH_TOKEN — учётные данные провайдера.
func NewClient() *Client {
	return &Client{
		accountSID: os.Getenv("TELEPHONY_ACCOUNT_SID"),
		authToken:  os.Getenv("TELEPHONY_AUTH_TOKEN"),
		client:     &http.Client{Timeout: 2 * time.Minute},
	}
}

// NewClientWith создаёт клиента с явными параметрами (для тестов).
func NewClientWith(accountSID, authToken string) *Client {
	return &Client{
		accountSID: accountSID,
		authToken:  authToken,
		client:     &http.Client{Timeout: 2 * time.Minute},
	}
}

// AuthToken возвращает auth token для проверки подписей webhook.
func (c *Client) AuthToken() string {
	return c.authToken
}

// DownloadRecording скачивает аудиозапись звонка.
// Провайдер отдаёт записи по basic auth с учётными данными аккаунта.
func (c *Client) DownloadRecording(ctx context.Context, recordingURL string) ([]byte, error) {
	if c.accountSID == "" || c.authToken == "" {
		return nil, fmt.Errorf("telephony credentials not set")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, recordingURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.accountSID, c.authToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download recording: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recording download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read recording body: %w", err)
	}

	return data, nil
}
