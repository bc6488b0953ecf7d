// internal/backend/server.go
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MockOptions tunes the in-process stand-in for the AI service and commerce backend.
type MockOptions struct {
	SigningKey string // HS256 key for login tokens; DefaultSigningKey when empty
	FailChat   bool   // answer /chat with 503
}

// Product is one entry of the mock catalog.
type Product struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
}

// RecommendResponse is the body of the mock /api/products/recommend.
type RecommendResponse struct {
	Query    string    `json:"query"`
	Products []Product `json:"products"`
}

var catalog = []Product{
	{ID: "P-100", Name: "Trail Running Shoes", Category: "shoes", Price: 89.99, Rating: 4.6},
	{ID: "P-101", Name: "Leather Office Shoes", Category: "shoes", Price: 120.00, Rating: 4.2},
	{ID: "P-200", Name: "Noise Cancelling Headphones", Category: "electronics", Price: 199.00, Rating: 4.8},
	{ID: "P-201", Name: "Bluetooth Speaker", Category: "electronics", Price: 49.50, Rating: 4.1},
	{ID: "P-300", Name: "Cotton Hoodie", Category: "clothing", Price: 39.00, Rating: 4.4},
	{ID: "P-301", Name: "Rain Jacket", Category: "clothing", Price: 75.00, Rating: 4.5},
}

// DefaultSigningKey signs mock login tokens when no key is configured.
const DefaultSigningKey = "dev-signing-key"

type contextKey string

const subjectKey contextKey = "subject"

type mockServer struct {
	opts   MockOptions
	secret []byte
}

// NewMockRouter returns a handler serving /chat, /api/products/recommend,
// /auth/login, /orders and /payments.
func NewMockRouter(opts MockOptions) http.Handler {
	if opts.SigningKey == "" {
		opts.SigningKey = DefaultSigningKey
	}
	s := &mockServer{opts: opts, secret: []byte(opts.SigningKey)}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/chat", s.chat)
	r.Post("/api/products/recommend", s.recommend)
	r.Post("/auth/login", s.login)
	r.Group(func(auth chi.Router) {
		auth.Use(s.requireBearer)
		auth.Post("/orders", s.createOrder)
		auth.Post("/payments", s.makePayment)
	})
	return r
}

// StartMockServer starts the mock on addr (e.g. ":0") and returns the server
// together with the address it actually listens on.
func StartMockServer(addr string, opts MockOptions) (*http.Server, string, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, "", err
	}
	server := &http.Server{Handler: NewMockRouter(opts), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zap.S().Infow("mock backend listening", "address", ln.Addr().String(), "fail_chat", opts.FailChat)
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.S().Errorw("mock backend stopped", "error", err)
		}
	}()
	return server, ln.Addr().String(), nil
}

func (s *mockServer) chat(w http.ResponseWriter, r *http.Request) {
	if s.opts.FailChat {
		writeError(w, http.StatusServiceUnavailable, "AI service unavailable")
		return
	}
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeJSON(w, http.StatusOK, ChatResponse{Response: "AI Response for: " + req.Input})
}

func (s *mockServer) recommend(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	writeJSON(w, http.StatusOK, RecommendResponse{Query: req.Query, Products: matchCatalog(req.Query)})
}

// matchCatalog returns products whose name or category contains any query word.
func matchCatalog(query string) []Product {
	words := strings.Fields(strings.ToLower(query))
	out := []Product{}
	for _, p := range catalog {
		hay := strings.ToLower(p.Name + " " + p.Category)
		for _, w := range words {
			if strings.Contains(hay, w) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func (s *mockServer) login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	claims := jwt.MapClaims{
		"sub": creds.Username,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not sign token")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *mockServer) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return s.secret, nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		sub, _ := token.Claims.GetSubject()
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), subjectKey, sub)))
	})
}

func (s *mockServer) createOrder(w http.ResponseWriter, r *http.Request) {
	var order map[string]any
	if err := json.NewDecoder(r.Body).Decode(&order); err != nil || order == nil {
		writeError(w, http.StatusBadRequest, "invalid order")
		return
	}
	order["id"] = "ORD-" + uuid.NewString()
	if sub, ok := r.Context().Value(subjectKey).(string); ok {
		order["customer"] = sub
	}
	order["status"] = "CREATED"
	writeJSON(w, http.StatusOK, order)
}

func (s *mockServer) makePayment(w http.ResponseWriter, r *http.Request) {
	var info map[string]any
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     "PAY-" + uuid.NewString(),
		"status": "Payment processed",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.S().Errorw("write JSON error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
