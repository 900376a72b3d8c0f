// Package supabase is a client for the managed backend: PostgREST rows,
// object storage, and the GoTrue identity API.
package supabase

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client talks to one Supabase project. The zero-value bearer token is
// the API key itself; WithToken derives a per-session client whose
// requests run under the signed-in user's row-level security.
type Client struct {
	baseURL     string
	apiKey      string
	token       string
	coverBucket string
	httpClient  *http.Client
}

// New creates a client authenticated with the anon key.
func New(baseURL, apiKey, coverBucket string) *Client {
	return &Client{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		apiKey:      apiKey,
		coverBucket: coverBucket,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

// NewAdmin creates a client authenticated with the service-role key,
// for administrative operations such as account deletion.
func NewAdmin(baseURL, serviceRoleKey string) *Client {
	return New(baseURL, serviceRoleKey, "")
}

// WithToken returns a copy of the client that sends the given access
// token as its bearer credential.
func (c *Client) WithToken(accessToken string) *Client {
	derived := *c
	derived.token = accessToken
	return &derived
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.apiKey)
	token := c.token
	if token == "" {
		token = c.apiKey
	}
	req.Header.Set("Authorization", "Bearer "+token)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	return req, nil
}

func (c *Client) newJSONRequest(ctx context.Context, method, path string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// APIError is a non-2xx response from the backend, carrying the
// backend's own message.
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	ErrorCode  string `json:"code"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("supabase: status %d", e.StatusCode)
	}
	return fmt.Sprintf("supabase: status %d: %s", e.StatusCode, e.Message)
}

// apiError drains the response body into an APIError. GoTrue reports
// {msg} or {error_description}, PostgREST reports {message}; all three
// are tried.
func apiError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return apiErr
	}
	var raw struct {
		Message          string `json:"message"`
		Msg              string `json:"msg"`
		Code             string `json:"code"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &raw); err == nil {
		apiErr.ErrorCode = raw.Code
		switch {
		case raw.Message != "":
			apiErr.Message = raw.Message
		case raw.Msg != "":
			apiErr.Message = raw.Msg
		case raw.ErrorDescription != "":
			apiErr.Message = raw.ErrorDescription
		}
	}
	return apiErr
}

func decodeJSON(resp *http.Response, out any) error {
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
