// internal/backend/client.go
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const (
	DefaultAIServiceURL = "http://localhost:8000"
	DefaultBackendURL   = "http://localhost:8081"
	DefaultSearchURL    = "http://localhost:8080"
)

// maxErrorBody bounds how much of a failed response ends up in a StatusError.
const maxErrorBody = 512

// Options configures a Client. Empty fields take the Default* values.
type Options struct {
	AIServiceURL string
	BackendURL   string
	SearchURL    string
	HTTPClient   *http.Client
}

// Client talks to the AI service, the commerce backend and the search endpoint.
// It holds no per-user state; tokens are passed in by the caller.
type Client struct {
	aiURL      string
	backendURL string
	searchURL  string
	hc         *http.Client
}

// NewClient builds a Client from opts.
func NewClient(opts Options) *Client {
	c := &Client{
		aiURL:      trimBase(opts.AIServiceURL, DefaultAIServiceURL),
		backendURL: trimBase(opts.BackendURL, DefaultBackendURL),
		searchURL:  trimBase(opts.SearchURL, DefaultSearchURL),
		hc:         opts.HTTPClient,
	}
	if c.hc == nil {
		c.hc = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}
	return c
}

func trimBase(u, def string) string {
	if u == "" {
		u = def
	}
	return strings.TrimRight(u, "/")
}

// SendChatMessage posts message to the AI service and returns its reply text.
func (c *Client) SendChatMessage(ctx context.Context, message string) (string, error) {
	body, err := c.post(ctx, "chat", c.aiURL+"/chat", ChatRequest{Input: message}, "")
	if err != nil {
		return "", err
	}
	var resp ChatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("chat: decode response: %w", err)
	}
	return resp.Response, nil
}

// Login posts credentials to the auth endpoint and extracts the session token.
func (c *Client) Login(ctx context.Context, credentials any) (*LoginResponse, error) {
	body, err := c.post(ctx, "login", c.backendURL+"/auth/login", credentials, "")
	if err != nil {
		return nil, err
	}
	resp := &LoginResponse{Raw: body}

	var token string
	if err := json.Unmarshal(body, &token); err == nil {
		resp.Token = token
		return resp, nil
	}
	var obj struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, fmt.Errorf("login: decode response: %w", err)
	}
	resp.Token = obj.Token
	return resp, nil
}

// CreateOrder posts order to the backend. token may be empty.
func (c *Client) CreateOrder(ctx context.Context, order any, token string) (json.RawMessage, error) {
	return c.post(ctx, "create order", c.backendURL+"/orders", order, token)
}

// MakePayment posts paymentInfo to the backend. token may be empty.
func (c *Client) MakePayment(ctx context.Context, paymentInfo any, token string) (json.RawMessage, error) {
	return c.post(ctx, "make payment", c.backendURL+"/payments", paymentInfo, token)
}

// Recommend posts query to the product recommendation endpoint and returns the raw body.
func (c *Client) Recommend(ctx context.Context, query string) (json.RawMessage, error) {
	return c.post(ctx, "recommend", c.searchURL+"/api/products/recommend", SearchRequest{Query: query}, "")
}

// post sends payload as JSON and returns the response body of a 2xx answer.
// A bearer header is set only when token is non-empty.
func (c *Client) post(ctx context.Context, op, url string, payload any, token string) (json.RawMessage, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	r.Header.Set("Content-Type", "application/json")
	r.Header.Set("Accept", "application/json")
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}

	hresp, err := c.hc.Do(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer hresp.Body.Close()

	body, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", op, err)
	}
	zap.S().Debugw("backend call", "op", op, "url", url, "status", hresp.StatusCode, "bytes", len(body))

	if hresp.StatusCode < 200 || hresp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(body))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, &StatusError{Op: op, StatusCode: hresp.StatusCode, Body: snippet}
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(body), nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
