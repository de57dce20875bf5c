package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// CallResponse — звонок из API.
type CallResponse struct {
	ID              string `json:"id"`
	Direction       string `json:"direction"`
	FromNumber      string `json:"from_number"`
	ToNumber        string `json:"to_number"`
	ProviderCallSID string `json:"provider_call_sid"`
	DurationSec     int    `json:"duration_sec"`
	BillableMinutes int    `json:"billable_minutes"`
	Status          string `json:"status"`
	Error           string `json:"error,omitempty"`
	CreatedAt       string `json:"created_at"`
}

// CallDetailResponse — звонок с расшифровкой и извлечёнными полями.
type CallDetailResponse struct {
	CallResponse
	Transcript *TranscriptResponse `json:"transcript,omitempty"`
	Extraction *ExtractionResponse `json:"extraction,omitempty"`
}

// TranscriptResponse — расшифровка из API.
type TranscriptResponse struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Model    string `json:"model,omitempty"`
	Redacted bool   `json:"redacted,omitempty"`
}

// ExtractionResponse — извлечённые поля из API.
type ExtractionResponse struct {
	Fields     map[string]any `json:"fields"`
	Confidence float64        `json:"confidence"`
	Redacted   bool           `json:"redacted,omitempty"`
}

// DecisionResponse — admission-проекция usage из API.
type DecisionResponse struct {
	Allowed                 bool   `json:"allowed"`
	Reason                  string `json:"reason,omitempty"`
	UsedMinutes             int    `json:"used_minutes"`
	IncludedMinutes         int    `json:"included_minutes"`
	PendingMinutes          int    `json:"pending_minutes"`
	EstimatedMinutes        int    `json:"estimated_minutes"`
	ProjectedUsedMinutes    int    `json:"projected_used_minutes"`
	ProjectedOverageMinutes int    `json:"projected_overage_minutes"`
	ProjectedCharge         string `json:"projected_charge"`
}

// PeriodResponse — расчётный период из API.
type PeriodResponse struct {
	Month           string `json:"month"`
	IncludedMinutes int    `json:"included_minutes"`
	UsedMinutes     int    `json:"used_minutes"`
	OverageMinutes  int    `json:"overage_minutes"`
	OverageCharge   string `json:"overage_charge"`
	Status          string `json:"status"`
}

// RateConfResponse — rate confirmation из API.
type RateConfResponse struct {
	ID         string `json:"id"`
	LoadID     string `json:"load_id"`
	CarrierID  string `json:"carrier_id"`
	Number     string `json:"number"`
	Rate       string `json:"rate"`
	Status     string `json:"status"`
	SentAt     string `json:"sent_at,omitempty"`
	SignedAt   string `json:"signed_at,omitempty"`
	SignerName string `json:"signer_name,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// ListCallsOpts — параметры фильтрации звонков.
type ListCallsOpts struct {
	Status string
	Limit  int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Client — HTTP-клиент для Freightline API.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient создаёт клиента. Token — JWT из /auth/login,
// пустой токен означает неаутентифицированные запросы.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Calls ---

// ListCalls возвращает звонки организации.
func (c *Client) ListCalls(opts ListCallsOpts) ([]CallResponse, error) {
	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var calls []CallResponse
	err := c.list("/api/v1/calls", params, &calls)
	return calls, err
}

// GetCall возвращает звонок с расшифровкой.
func (c *Client) GetCall(id string) (*CallDetailResponse, error) {
	var call CallDetailResponse
	err := c.get("/api/v1/calls/"+id, &call)
	return &call, err
}

// ReprocessCall ставит FAILED звонок на повторную обработку.
func (c *Client) ReprocessCall(id string) (*CallResponse, error) {
	var call CallResponse
	err := c.post("/api/v1/calls/"+id+"/reprocess", nil, &call)
	return &call, err
}

// --- Usage ---

// GetUsage возвращает admission-проекцию текущего периода.
func (c *Client) GetUsage(estimateMinutes int) (*DecisionResponse, error) {
	path := "/api/v1/usage"
	if estimateMinutes > 0 {
		path += "?estimate=" + strconv.Itoa(estimateMinutes)
	}

	var decision DecisionResponse
	err := c.get(path, &decision)
	return &decision, err
}

// ListPeriods возвращает расчётные периоды.
func (c *Client) ListPeriods() ([]PeriodResponse, error) {
	var periods []PeriodResponse
	err := c.list("/api/v1/usage/periods", nil, &periods)
	return periods, err
}

// --- Rate confirmations ---

// ListRateConfs возвращает rate confirmations. Если status не пустой — фильтрует.
func (c *Client) ListRateConfs(status string) ([]RateConfResponse, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}

	var rcs []RateConfResponse
	err := c.list("/api/v1/rateconfs", params, &rcs)
	return rcs, err
}

// GetRateConf возвращает rate confirmation по ID.
func (c *Client) GetRateConf(id string) (*RateConfResponse, error) {
	var rc RateConfResponse
	err := c.get("/api/v1/rateconfs/"+id, &rc)
	return &rc, err
}

// SendRateConf отправляет документ перевозчику на подпись.
func (c *Client) SendRateConf(id string) (*RateConfResponse, error) {
	var rc RateConfResponse
	err := c.post("/api/v1/rateconfs/"+id+"/send", nil, &rc)
	return &rc, err
}

// VoidRateConf аннулирует документ.
func (c *Client) VoidRateConf(id string) (*RateConfResponse, error) {
	var rc RateConfResponse
	err := c.post("/api/v1/rateconfs/"+id+"/void", nil, &rc)
	return &rc, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
