package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/deliverydesk/internal/models"
	"github.com/deliverydesk/internal/scheduler"
)

type Client struct {
	baseURL    string
	token      string
	apiKey     string
	httpClient *http.Client
}

// NewClient configures a client from DELIVERYDESK_API_URL,
// DELIVERYDESK_TOKEN and DELIVERYDESK_API_KEY.
func NewClient() (*Client, error) {
	baseURL := os.Getenv("DELIVERYDESK_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return New(baseURL, os.Getenv("DELIVERYDESK_TOKEN"), os.Getenv("DELIVERYDESK_API_KEY"))
}

func New(baseURL, token, apiKey string) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 2 * time.Minute,
		},
	}, nil
}

type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type ReportOptions struct {
	Recipients []string `json:"recipients,omitempty"`
}

type CreateReportRequest struct {
	Title      string         `json:"title"`
	DataSource string         `json:"dataSource"`
	Format     string         `json:"format"`
	DateRange  DateRange      `json:"dateRange"`
	Columns    []string       `json:"columns,omitempty"`
	Filters    map[string]any `json:"filters,omitempty"`
	Options    *ReportOptions `json:"options,omitempty"`
}

type CreateReportResponse struct {
	Success       bool   `json:"success"`
	ReportID      uint   `json:"reportId"`
	FileName      string `json:"fileName"`
	Emailed       bool   `json:"emailed"`
	DeliveryError string `json:"deliveryError"`
}

type ScheduledReportRequest struct {
	Name       string         `json:"name"`
	DataSource string         `json:"dataSource"`
	Format     string         `json:"format"`
	Frequency  string         `json:"frequency"`
	DayOfWeek  *int           `json:"dayOfWeek,omitempty"`
	DayOfMonth *int           `json:"dayOfMonth,omitempty"`
	TimeOfDay  string         `json:"timeOfDay,omitempty"`
	Recipients []string       `json:"recipients,omitempty"`
	Columns    []string       `json:"columns,omitempty"`
	Filters    map[string]any `json:"filters,omitempty"`
}

type ScheduledReportPage struct {
	Items []models.ScheduledReport `json:"items"`
	Total int64                    `json:"total"`
	Page  int                      `json:"page"`
	Limit int                      `json:"limit"`
}

func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.send(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password}, &resp); err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) RunDue(ctx context.Context) (*scheduler.Summary, error) {
	var summary scheduler.Summary
	if err := c.send(ctx, http.MethodPost, "/api/v1/scheduled-reports/run", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

func (c *Client) CreateReport(ctx context.Context, req CreateReportRequest) (*CreateReportResponse, error) {
	var resp CreateReportResponse
	if err := c.send(ctx, http.MethodPost, "/api/v1/reports", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DownloadReport writes the rendered file of a report to output.
func (c *Client) DownloadReport(ctx context.Context, id uint, output string) error {
	resp, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/reports/%d/download", id), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	_, err = io.Copy(out, resp.Body)
	return err
}

func (c *Client) ListScheduledReports(ctx context.Context, page, limit int) (*ScheduledReportPage, error) {
	query := url.Values{}
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("limit", fmt.Sprintf("%d", limit))

	var result ScheduledReportPage
	if err := c.send(ctx, http.MethodGet, "/api/v1/scheduled-reports?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CreateScheduledReport(ctx context.Context, req ScheduledReportRequest) (*models.ScheduledReport, error) {
	var sr models.ScheduledReport
	if err := c.send(ctx, http.MethodPost, "/api/v1/scheduled-reports", req, &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

func (c *Client) SetScheduledReportEnabled(ctx context.Context, id uint, enabled bool) (*models.ScheduledReport, error) {
	var sr models.ScheduledReport
	if err := c.send(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/scheduled-reports/%d", id), map[string]bool{"enabled": enabled}, &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

func (c *Client) DeleteScheduledReport(ctx context.Context, id uint) error {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/scheduled-reports/%d", id), nil, nil)
}

func (c *Client) send(ctx context.Context, method, endpoint string, data, v interface{}) error {
	var body io.Reader
	if data != nil {
		jsonData, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = bytes.NewReader(jsonData)
	}

	resp, err := c.doRequest(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}
	return nil
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	if len(e.Fields) > 0 {
		return fmt.Sprintf("API error: %s %v", e.Message, e.Fields)
	}
	return "API error: " + e.Message
}

func (c *Client) doRequest(ctx context.Context, method, endpoint string, body io.Reader) (*http.Response, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	u.Path = path.Join(u.Path, ref.Path)
	u.RawQuery = ref.RawQuery

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp struct {
			Error  string            `json:"error"`
			Fields map[string]string `json:"fields"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil {
			apiErr.Message = errResp.Error
			apiErr.Fields = errResp.Fields
		}
		return nil, apiErr
	}

	return resp, nil
}
