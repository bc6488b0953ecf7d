package chat

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("commercechat/chat")

// Chatter produces a reply for a user message.
type Chatter interface {
	SendChatMessage(ctx context.Context, message string) (string, error)
}

// State is a snapshot of the window handed to subscribers.
type State struct {
	Messages     []Message
	Loading      bool
	Frame        []string
	ScrollTop    int
	ScrollHeight int
	MaxScroll    int
}

// Window owns the message log and the request lifecycle of the chat flow.
type Window struct {
	chatter Chatter

	mu       sync.Mutex
	messages []Message
	loading  bool
	view     *Viewport
	subs     []chan State
}

type Option func(*Window)

// WithViewport sets the visible size of the window.
func WithViewport(height, width int) Option {
	return func(w *Window) { w.view = NewViewport(height, width) }
}

// NewWindow returns a window whose log holds only the welcome message.
func NewWindow(chatter Chatter, opts ...Option) *Window {
	w := &Window{chatter: chatter, view: NewViewport(20, 80)}
	for _, opt := range opts {
		opt(w)
	}
	w.appendLocked(Message{Text: WelcomeText, Sender: SenderBot})
	return w
}

// Send runs one round trip: the user message is appended immediately, the
// chatter is called with loading set, and the reply (or ErrorText) is appended.
// Loading is cleared on every path, including a panicking chatter.
func (w *Window) Send(ctx context.Context, text string) Message {
	ctx, span := tracer.Start(ctx, "ChatWindow.Send",
		trace.WithAttributes(attribute.Int("chat.input_length", len(text))),
	)
	defer span.End()

	w.mu.Lock()
	w.appendLocked(Message{Text: text, Sender: SenderUser})
	w.loading = true
	w.publishLocked()
	w.mu.Unlock()

	bot := Message{Text: ErrorText, Sender: SenderBot}
	defer func() {
		w.mu.Lock()
		w.appendLocked(bot)
		w.loading = false
		w.publishLocked()
		w.mu.Unlock()
	}()

	reply, err := w.chatter.SendChatMessage(ctx, text)
	if err != nil {
		span.RecordError(err)
		zap.S().Errorw("chat send failed",
			"trace_id", span.SpanContext().TraceID().String(),
			"error", err,
		)
		return bot
	}
	bot.Text = reply
	return bot
}

// Run sends every submission from in until in is closed or ctx is done.
// The input is re-enabled after each send completes.
func (w *Window) Run(ctx context.Context, in *Input) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text, ok := <-in.Submits():
			if !ok {
				return nil
			}
			in.SetDisabled(true)
			w.Send(ctx, text)
			in.SetDisabled(false)
		}
	}
}

// Subscribe returns a channel receiving state snapshots after every change.
// Only the latest snapshot is kept if the reader falls behind.
func (w *Window) Subscribe() <-chan State {
	ch := make(chan State, 1)
	w.mu.Lock()
	w.subs = append(w.subs, ch)
	ch <- w.snapshotLocked()
	w.mu.Unlock()
	return ch
}

// Messages returns a copy of the log.
func (w *Window) Messages() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Message(nil), w.messages...)
}

func (w *Window) Loading() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.loading
}

// State returns the current snapshot.
func (w *Window) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// appendLocked adds m to the log and keeps the viewport pinned to the bottom.
func (w *Window) appendLocked(m Message) {
	w.messages = append(w.messages, m)
	w.view.SetMessages(w.messages)
	w.view.ScrollToBottom()
}

func (w *Window) snapshotLocked() State {
	return State{
		Messages:     append([]Message(nil), w.messages...),
		Loading:      w.loading,
		Frame:        w.view.Frame(),
		ScrollTop:    w.view.ScrollTop(),
		ScrollHeight: w.view.ScrollHeight(),
		MaxScroll:    w.view.MaxScrollTop(),
	}
}

func (w *Window) publishLocked() {
	st := w.snapshotLocked()
	for _, ch := range w.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}
