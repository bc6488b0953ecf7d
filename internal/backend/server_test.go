package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/ffaiyaz23/commercechat/internal/backend"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startMock(t *testing.T, opts backend.MockOptions) *backend.Client {
	t.Helper()
	server, addr, err := backend.StartMockServer("127.0.0.1:0", opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = server.Close() })

	base := "http://" + addr
	return backend.NewClient(backend.Options{AIServiceURL: base, BackendURL: base, SearchURL: base})
}

func TestMockBackend_Chat(t *testing.T) {
	client := startMock(t, backend.MockOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	reply, err := client.SendChatMessage(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, "AI Response for: hello", reply)
}

func TestMockBackend_ChatFailure(t *testing.T) {
	client := startMock(t, backend.MockOptions{FailChat: true})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.SendChatMessage(ctx, "hello")
	assert.True(t, backend.IsStatus(err, http.StatusServiceUnavailable))

	reply, err := backend.FallbackChatter{Client: client}.SendChatMessage(ctx, "hello")
	require.NoError(t, err)
	assert.Equal(t, backend.ChatFallback, reply)
}

func TestMockBackend_Recommend(t *testing.T) {
	client := startMock(t, backend.MockOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	raw, err := client.Recommend(ctx, "running shoes")
	require.NoError(t, err)

	var resp backend.RecommendResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, "running shoes", resp.Query)
	require.Len(t, resp.Products, 2)
	for _, p := range resp.Products {
		assert.Equal(t, "shoes", p.Category)
	}

	raw, err = client.Recommend(ctx, "submarine")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Empty(t, resp.Products)
}

func TestMockBackend_OrderFlow(t *testing.T) {
	client := startMock(t, backend.MockOptions{SigningKey: "test-key"})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.Login(ctx, backend.Credentials{Username: "alice"})
	assert.True(t, backend.IsStatus(err, http.StatusUnauthorized))

	login, err := client.Login(ctx, backend.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)

	_, err = client.CreateOrder(ctx, map[string]any{"productId": "P-100", "quantity": 1}, "")
	assert.True(t, backend.IsStatus(err, http.StatusUnauthorized))

	_, err = client.CreateOrder(ctx, map[string]any{"productId": "P-100"}, "not-a-jwt")
	assert.True(t, backend.IsStatus(err, http.StatusUnauthorized))

	raw, err := client.CreateOrder(ctx, map[string]any{"productId": "P-100", "quantity": 1}, login.Token)
	require.NoError(t, err)
	var order map[string]any
	require.NoError(t, json.Unmarshal(raw, &order))
	assert.Contains(t, order["id"], "ORD-")
	assert.Equal(t, "alice", order["customer"])
	assert.Equal(t, "P-100", order["productId"])

	raw, err = client.MakePayment(ctx, map[string]any{"orderId": order["id"], "amount": 89.99}, login.Token)
	require.NoError(t, err)
	var payment map[string]any
	require.NoError(t, json.Unmarshal(raw, &payment))
	assert.Equal(t, "Payment processed", payment["status"])
}

func TestMockBackend_DefaultSigningKey(t *testing.T) {
	client := startMock(t, backend.MockOptions{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "bob",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString([]byte(backend.DefaultSigningKey))
	require.NoError(t, err)

	raw, err := client.CreateOrder(ctx, map[string]any{"productId": "P-300"}, token)
	require.NoError(t, err)
	var order map[string]any
	require.NoError(t, json.Unmarshal(raw, &order))
	assert.Equal(t, "bob", order["customer"])
}
