// Package d1 talks to a Cloudflare D1 database over the Cloudflare HTTP API
// and exposes it as a database/sql driver, so gorm can use the remote
// database the same way it uses a local SQLite file.
package d1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the Cloudflare v4 API root
const DefaultBaseURL = "https://api.cloudflare.com/client/v4"

// ErrMissingCredentials is returned when account, database or token is empty
var ErrMissingCredentials = errors.New("d1: account id, database id and token are required")

// Config identifies a remote D1 database
type Config struct {
	BaseURL    string
	AccountID  string
	DatabaseID string
	Token      string
	HTTPClient *http.Client
}

// Client executes SQL against the D1 raw query endpoint
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
}

// NewClient creates a client for one D1 database
func NewClient(cfg Config) (*Client, error) {
	if cfg.AccountID == "" || cfg.DatabaseID == "" || cfg.Token == "" {
		return nil, ErrMissingCredentials
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   fmt.Sprintf("%s/accounts/%s/d1/database/%s/raw", baseURL, cfg.AccountID, cfg.DatabaseID),
		token:      cfg.Token,
	}, nil
}

// Meta is the execution metadata D1 returns with every statement
type Meta struct {
	Changes     int64   `json:"changes"`
	LastRowID   int64   `json:"last_row_id"`
	Duration    float64 `json:"duration"`
	RowsRead    int64   `json:"rows_read"`
	RowsWritten int64   `json:"rows_written"`
}

// RawResult holds one statement's result in column/row form
type RawResult struct {
	Columns []string
	Rows    [][]any
	Meta    Meta
}

// APIError is a non-success response from the Cloudflare API
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("d1: request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("d1: request failed with status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

type queryRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type apiMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rawEnvelope struct {
	Success bool         `json:"success"`
	Errors  []apiMessage `json:"errors"`
	Result  []struct {
		Success bool `json:"success"`
		Meta    Meta `json:"meta"`
		Results struct {
			Columns []string `json:"columns"`
			Rows    [][]any  `json:"rows"`
		} `json:"results"`
	} `json:"result"`
}

// Raw runs one SQL statement with positional params
func (c *Client) Raw(ctx context.Context, query string, params []any) (*RawResult, error) {
	if params == nil {
		params = []any{}
	}

	body, err := json.Marshal(queryRequest{SQL: query, Params: params})
	if err != nil {
		return nil, fmt.Errorf("d1: failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("d1: failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("d1: request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("d1: failed to read response: %w", err)
	}

	var env rawEnvelope
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &APIError{StatusCode: resp.StatusCode, Messages: []string{strings.TrimSpace(string(payload))}}
		}
		return nil, fmt.Errorf("d1: failed to decode response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		for _, m := range env.Errors {
			apiErr.Messages = append(apiErr.Messages, m.Message)
		}
		return nil, apiErr
	}

	if len(env.Result) == 0 {
		return &RawResult{}, nil
	}

	first := env.Result[0]
	return &RawResult{
		Columns: first.Results.Columns,
		Rows:    first.Results.Rows,
		Meta:    first.Meta,
	}, nil
}
