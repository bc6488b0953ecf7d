package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ffaiyaz23/commercechat/internal/chat"
	"github.com/ffaiyaz23/commercechat/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chatterFunc func(ctx context.Context, message string) (string, error)

func (f chatterFunc) SendChatMessage(ctx context.Context, message string) (string, error) {
	return f(ctx, message)
}

type recommenderFunc func(ctx context.Context, query string) (json.RawMessage, error)

func (f recommenderFunc) Recommend(ctx context.Context, query string) (json.RawMessage, error) {
	return f(ctx, query)
}

func TestRunChatPlain(t *testing.T) {
	window := chat.NewWindow(chatterFunc(func(_ context.Context, msg string) (string, error) {
		return "R", nil
	}))
	input := chat.NewInput()

	var out bytes.Buffer
	err := RunChat(context.Background(), window, input, strings.NewReader("\n   \nhello\n"), &out, ChatOptions{Plain: true})
	require.NoError(t, err)

	assert.Equal(t, []chat.Message{
		{Text: chat.WelcomeText, Sender: chat.SenderBot},
		{Text: "hello", Sender: chat.SenderUser},
		{Text: "R", Sender: chat.SenderBot},
	}, window.Messages())
	assert.Contains(t, out.String(), "you> hello\n")
	assert.Contains(t, out.String(), "bot> R\n")
	assert.Equal(t, 1, strings.Count(out.String(), "you> hello"))
	assert.False(t, input.Disabled())
}

func TestRunChatPlainWrapsAtWidth(t *testing.T) {
	window := chat.NewWindow(chatterFunc(func(context.Context, string) (string, error) {
		return "red trail running shoes in size ten", nil
	}))

	var out bytes.Buffer
	err := RunChat(context.Background(), window, chat.NewInput(), strings.NewReader("shoes\n"), &out, ChatOptions{Plain: true, Width: 20})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "bot> red trail\n     running shoes\n")
	for _, line := range strings.Split(strings.TrimRight(out.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), 20, "line %q", line)
	}
}

func TestRunChatFrameShowsFailure(t *testing.T) {
	window := chat.NewWindow(chatterFunc(func(context.Context, string) (string, error) {
		return "", errors.New("down")
	}), chat.WithViewport(5, 80))

	var out bytes.Buffer
	err := RunChat(context.Background(), window, chat.NewInput(), strings.NewReader("hi\n"), &out, ChatOptions{})
	require.NoError(t, err)

	frames := strings.Split(out.String(), clearScreen)
	last := frames[len(frames)-1]
	assert.Contains(t, last, "bot> "+chat.ErrorText)
	assert.Contains(t, last, "[Send] > ")
	assert.False(t, window.Loading())
}

func TestRunSearch(t *testing.T) {
	app := search.NewApp(recommenderFunc(func(_ context.Context, q string) (json.RawMessage, error) {
		if q == "broken" {
			return nil, errors.New("refused")
		}
		return json.RawMessage(`{"query":"` + q + `"}`), nil
	}))

	var out bytes.Buffer
	require.NoError(t, RunSearch(context.Background(), app, strings.NewReader("broken\n"), &out))
	assert.Contains(t, out.String(), "search failed")

	out.Reset()
	require.NoError(t, RunSearch(context.Background(), app, strings.NewReader("shoes\n"), &out))
	assert.Contains(t, out.String(), "\"query\": \"shoes\"")
	assert.Equal(t, "{\n  \"query\": \"shoes\"\n}", app.Result())
}
