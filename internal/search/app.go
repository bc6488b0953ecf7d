// Package search is the single-query product search surface.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("commercechat/search")

// ErrSuperseded is returned by a search whose result was discarded because a
// newer search started before it finished.
var ErrSuperseded = errors.New("search superseded by a newer query")

// Recommender posts a query to the recommendation endpoint.
type Recommender interface {
	Recommend(ctx context.Context, query string) (json.RawMessage, error)
}

// App holds a query and the last displayed result.
//
// Starting a search cancels the one in flight, so a slow earlier response can
// never overwrite the result of a later query.
type App struct {
	rec Recommender

	mu     sync.Mutex
	query  string
	result string
	gen    uint64
	cancel context.CancelFunc
}

func NewApp(rec Recommender) *App {
	return &App{rec: rec}
}

func (a *App) SetQuery(q string) {
	a.mu.Lock()
	a.query = q
	a.mu.Unlock()
}

func (a *App) Query() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.query
}

// Result is the last response body, indented as JSON.
func (a *App) Result() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.result
}

// Search posts the current query and replaces the result with the response.
// The result is left untouched on error.
func (a *App) Search(ctx context.Context) (string, error) {
	a.mu.Lock()
	return a.searchLocked(ctx)
}

// SearchFor sets the query and searches it in one step.
func (a *App) SearchFor(ctx context.Context, query string) (string, error) {
	a.mu.Lock()
	a.query = query
	return a.searchLocked(ctx)
}

// searchLocked is entered with a.mu held and releases it while the request runs.
func (a *App) searchLocked(ctx context.Context) (string, error) {
	if a.cancel != nil {
		a.cancel()
	}
	a.gen++
	gen := a.gen
	query := a.query
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	ctx, span := tracer.Start(ctx, "Search",
		trace.WithAttributes(attribute.String("search.query", query)),
	)
	defer span.End()

	raw, err := a.rec.Recommend(ctx, query)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.gen {
		zap.S().Debugw("discarding stale search result", "query", query)
		return "", ErrSuperseded
	}
	a.cancel = nil
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("search %q: %w", query, err)
	}
	pretty, err := Format(raw)
	if err != nil {
		span.RecordError(err)
		return "", err
	}
	a.result = pretty
	return pretty, nil
}

// Format indents a JSON body with two spaces. Non-JSON bodies are rendered as
// a JSON string, the way a raw text response would be displayed.
func Format(raw json.RawMessage) (string, error) {
	var buf bytes.Buffer
	if json.Valid(raw) {
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	b, err := json.Marshal(string(raw))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
