package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

const (
	defaultBaseURL     = "https://api.openai.com/v1"
	transcriptionModel = "whisper-1"
	extractionModel    = "gpt-4o-mini"

	maxRetries   = 3
	initialDelay = time.Second
)

// Client — клиент AI-провайдера: транскрипция аудио и извлечение полей.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewClient создаёт клиента из окружения (AI_API_KEY, AI_BASE_URL).
func NewClient() *Client {
	baseURL := os.Getenv("AI_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		apiKey:  os.Getenv("AI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// NewClientWith создаёт клиента с явными параметрами (для тестов).
func NewClientWith(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Minute},
	}
}

// TranscriptionResult — результат транскрипции.
type TranscriptionResult struct {
	Text     string
	Language string
	Model    string
}

type transcriptionResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

// Transcribe отправляет аудиозапись на транскрипцию.
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (*TranscriptionResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("AI_API_KEY not set")
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("empty audio")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("write audio: %w", err)
	}
	if err := mw.WriteField("model", transcriptionModel); err != nil {
		return nil, fmt.Errorf("write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	respBody, err := c.doOnce(req)
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	var resp transcriptionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("decode transcription response: %w", err)
	}

	return &TranscriptionResult{
		Text:     resp.Text,
		Language: resp.Language,
		Model:    transcriptionModel,
	}, nil
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error"`
}

// chatCompletion выполняет chat completion с retry на 429 и 5xx.
func (c *Client) chatCompletion(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("AI_API_KEY not set")
	}

	req := chatRequest{
		Model: extractionModel,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature:    0,
		ResponseFormat: &respFormat{Type: "json_object"},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			// Задержка 1s, 2s, 4s
			delay := initialDelay << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return "", fmt.Errorf("create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var aiErr apiError
			if json.Unmarshal(respBody, &aiErr) == nil && aiErr.Error.Message != "" {
				lastErr = fmt.Errorf("ai api error (%d): %s", resp.StatusCode, aiErr.Error.Message)
			} else {
				lastErr = fmt.Errorf("ai api error (%d): %s", resp.StatusCode, string(respBody))
			}

			// Повторяем только на rate limit и серверных ошибках
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var chatResp chatResponse
		if err := json.Unmarshal(respBody, &chatResp); err != nil {
			return "", fmt.Errorf("decode response: %w", err)
		}
		if len(chatResp.Choices) == 0 {
			return "", fmt.Errorf("no choices in response")
		}

		return chatResp.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("max retries (%d) exceeded: %w", maxRetries, lastErr)
}

// doOnce выполняет запрос без retry (транскрипция — дорогая, повтор
// решается на уровне retry задачи в worker).
func (c *Client) doOnce(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var aiErr apiError
		if json.Unmarshal(respBody, &aiErr) == nil && aiErr.Error.Message != "" {
			return nil, fmt.Errorf("ai api error (%d): %s", resp.StatusCode, aiErr.Error.Message)
		}
		return nil, fmt.Errorf("ai api error (%d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
