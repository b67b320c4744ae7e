package apifootball

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultBaseURL is the default API base URL
	DefaultBaseURL = "https://v3.football.api-sports.io"

	// DefaultHost is sent as x-rapidapi-host
	DefaultHost = "v3.football.api-sports.io"

	// DefaultTimeout is the default HTTP client timeout
	DefaultTimeout = 30 * time.Second
)

// ErrPredictionNotFound is returned when the API has no prediction for a fixture.
var ErrPredictionNotFound = errors.New("prediction not found")

// Client represents an API-Football v3 client
type Client struct {
	baseURL    string
	apiKey     string
	host       string
	httpClient *http.Client
}

// Config holds the configuration for the API client
type Config struct {
	BaseURL string
	APIKey  string
	Host    string
	Timeout time.Duration
}

// NewClient creates a new API-Football client
func NewClient(apiKey string) *Client {
	return NewClientWithConfig(Config{
		BaseURL: DefaultBaseURL,
		APIKey:  apiKey,
		Host:    DefaultHost,
		Timeout: DefaultTimeout,
	})
}

// NewClientWithConfig creates a new client with custom configuration
func NewClientWithConfig(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Host == "" {
		config.Host = DefaultHost
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}

	return &Client{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		host:    config.Host,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// envelope is the common response wrapper of every v3 endpoint.
type envelope struct {
	Get      string          `json:"get"`
	Errors   json.RawMessage `json:"errors"`
	Results  int             `json:"results"`
	Response json.RawMessage `json:"response"`
}

// get performs a GET request and returns the raw "response" member
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (json.RawMessage, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	if params != nil {
		u.RawQuery = params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-rapidapi-host", c.host)
	req.Header.Set("x-rapidapi-key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{
			Code:    resp.StatusCode,
			Message: string(body),
		}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if msg := errorMessage(env.Errors); msg != "" {
		return nil, &APIError{Code: resp.StatusCode, Message: msg}
	}

	return env.Response, nil
}

// errorMessage flattens the "errors" member, which the API sends either as an
// empty array or as an object keyed by error name.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var byName map[string]string
	if err := json.Unmarshal(raw, &byName); err == nil {
		for name, msg := range byName {
			return name + ": " + msg
		}
		return ""
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

// APIError represents an API error response
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.Code, e.Message)
}
