package backend

import (
	"encoding/json"
	"fmt"
)

// ChatRequest is the payload sent to the AI service's /chat endpoint.
type ChatRequest struct {
	Input string `json:"input"`
}

// ChatResponse is what /chat answers with; only Response is used.
type ChatResponse struct {
	Response string `json:"response"`
}

// SearchRequest is the payload sent to /api/products/recommend.
type SearchRequest struct {
	Query string `json:"query"`
}

// Credentials is the login payload understood by the mock backend.
// Login itself accepts any JSON-encodable value.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the raw body it came from.
// The backend may answer with a bare JSON string or an object with a token field.
type LoginResponse struct {
	Token string
	Raw   json.RawMessage
}

// StatusError is returned when a service answers with a non-2xx status.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.StatusCode, e.Body)
}
