package search

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recommenderFunc func(ctx context.Context, query string) (json.RawMessage, error)

func (f recommenderFunc) Recommend(ctx context.Context, query string) (json.RawMessage, error) {
	return f(ctx, query)
}

func TestSearchReplacesResult(t *testing.T) {
	app := NewApp(recommenderFunc(func(_ context.Context, q string) (json.RawMessage, error) {
		return json.RawMessage(`{"query":"` + q + `","products":[]}`), nil
	}))
	app.SetQuery("shoes")

	got, err := app.Search(context.Background())
	require.NoError(t, err)
	want := "{\n  \"query\": \"shoes\",\n  \"products\": []\n}"
	assert.Equal(t, want, got)
	assert.Equal(t, want, app.Result())
	assert.Equal(t, "shoes", app.Query())
}

func TestSearchErrorKeepsResult(t *testing.T) {
	fail := false
	app := NewApp(recommenderFunc(func(context.Context, string) (json.RawMessage, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return json.RawMessage(`"ok"`), nil
	}))

	_, err := app.Search(context.Background())
	require.NoError(t, err)

	fail = true
	_, err = app.Search(context.Background())
	require.Error(t, err)
	assert.Equal(t, `"ok"`, app.Result())
}

func TestSearchStaleResponseNeverOverwrites(t *testing.T) {
	slowStarted := make(chan struct{})
	app := NewApp(recommenderFunc(func(ctx context.Context, q string) (json.RawMessage, error) {
		if q == "slow" {
			close(slowStarted)
			<-ctx.Done()
			return json.RawMessage(`{"q":"slow"}`), nil
		}
		return json.RawMessage(`{"q":"fast"}`), nil
	}))

	app.SetQuery("slow")
	slowErr := make(chan error, 1)
	go func() {
		_, err := app.Search(context.Background())
		slowErr <- err
	}()
	<-slowStarted

	app.SetQuery("fast")
	_, err := app.Search(context.Background())
	require.NoError(t, err)

	select {
	case err := <-slowErr:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(time.Second):
		t.Fatal("slow search was not cancelled")
	}
	assert.Equal(t, "{\n  \"q\": \"fast\"\n}", app.Result())
}

func TestFormatNonJSON(t *testing.T) {
	got, err := Format(json.RawMessage("Payment processed"))
	require.NoError(t, err)
	assert.Equal(t, `"Payment processed"`, got)
}
