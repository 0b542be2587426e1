// Package simapi is the HTTP client for the simulation backend's
// status, results, and report endpoints.
package simapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mkusuma/courtview/domain/repositories"
)

const (
	defaultTimeout       = 30 * time.Second
	defaultReportTimeout = 2 * time.Minute

	// Reports can be large; anything beyond this is suspect.
	maxReportSize = 32 << 20 // 32MB
)

// Config holds configuration for the backend client.
// Required fields:
// - BaseURL: root URL of the simulation backend, e.g. "http://localhost:5000/api"
type Config struct {
	BaseURL string
	Timeout time.Duration // Optional: per-request timeout (default 30s)
}

// Client implements repositories.SimulationBackend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// Ensure Client implements the SimulationBackend interface
var _ repositories.SimulationBackend = (*Client)(nil)

// NewClient creates a backend client.
func NewClient(config Config, logger *zap.Logger) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("simulation backend base URL is required")
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}, nil
}

// Status implements repositories.SimulationBackend.
func (c *Client) Status(ctx context.Context, caseID string) (*repositories.SimulationStatus, error) {
	var status repositories.SimulationStatus
	url := fmt.Sprintf("%s/simulation/status/%s", c.baseURL, caseID)
	if err := c.getJSON(ctx, url, &status); err != nil {
		return nil, fmt.Errorf("simulation status for case %s: %w", caseID, err)
	}
	return &status, nil
}

// Results implements repositories.SimulationBackend.
func (c *Client) Results(ctx context.Context, caseID string) (*repositories.SimulationResults, error) {
	var results repositories.SimulationResults
	url := fmt.Sprintf("%s/simulation/results/%s", c.baseURL, caseID)
	if err := c.getJSON(ctx, url, &results); err != nil {
		return nil, fmt.Errorf("simulation results for case %s: %w", caseID, err)
	}
	return &results, nil
}

// Report implements repositories.SimulationBackend. The artifact is
// returned as-is with the backend's content type and, when provided,
// its attachment filename.
func (c *Client) Report(ctx context.Context, caseID string) (*repositories.Report, error) {
	url := fmt.Sprintf("%s/simulation/report/%s", c.baseURL, caseID)

	ctx, cancel := context.WithTimeout(ctx, defaultReportTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build report request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch report: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.errorFromResponse(resp)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReportSize))
	if err != nil {
		return nil, fmt.Errorf("read report body: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	filename := fmt.Sprintf("simulation_report_%s.pdf", caseID)
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			filename = params["filename"]
		}
	}

	c.logger.Info("Report downloaded",
		zap.String("caseID", caseID),
		zap.Int("bytes", len(data)))

	return &repositories.Report{
		Filename:    filename,
		ContentType: contentType,
		Data:        data,
	}, nil
}

// getJSON performs a GET and decodes a JSON body into out.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.errorFromResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorFromResponse surfaces the backend's {"error": ...} message when
// the body carries one, falling back to the HTTP status.
func (c *Client) errorFromResponse(resp *http.Response) error {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body); err == nil && body.Error != "" {
		return fmt.Errorf("backend returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("backend returned %d", resp.StatusCode)
}
