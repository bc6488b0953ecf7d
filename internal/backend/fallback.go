package backend

import (
	"context"

	"go.uber.org/zap"
)

// ChatFallback is the reply shown when the AI service cannot be reached.
const ChatFallback = "Error connecting to AI service"

// FallbackChatter never fails: any chat error is logged and replaced by ChatFallback.
type FallbackChatter struct {
	Client interface {
		SendChatMessage(ctx context.Context, message string) (string, error)
	}
}

func (f FallbackChatter) SendChatMessage(ctx context.Context, message string) (string, error) {
	reply, err := f.Client.SendChatMessage(ctx, message)
	if err != nil {
		zap.S().Warnw("chat request failed, using fallback reply", "error", err)
		return ChatFallback, nil
	}
	return reply, nil
}
