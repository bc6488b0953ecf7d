// Package tui drives the chat window and the search app from a line-based terminal.
package tui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ffaiyaz23/commercechat/internal/chat"
)

const (
	clearScreen = "\033[H\033[2J"
	title       = "🛍️ AI Commerce Chatbot"
)

// ChatOptions controls how the chat window is drawn.
type ChatOptions struct {
	// Plain prints each new message once instead of redrawing the viewport;
	// used when stdout is not a terminal.
	Plain bool
	// Width wraps plain-mode bubbles; 80 when unset.
	Width int
}

type chatScreen struct {
	mu      sync.Mutex
	out     io.Writer
	plain   bool
	width   int
	printed int
}

// RunChat reads lines from r, submits each through input and renders the
// window to w until r is exhausted or ctx is done.
func RunChat(ctx context.Context, window *chat.Window, input *chat.Input, r io.Reader, w io.Writer, opts ChatOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	width := opts.Width
	if width <= 0 {
		width = 80
	}
	screen := &chatScreen{out: w, plain: opts.Plain, width: width}
	updates := window.Subscribe()

	renderDone := make(chan struct{})
	go func() {
		defer close(renderDone)
		for {
			select {
			case <-ctx.Done():
				return
			case st := <-updates:
				screen.draw(st)
			}
		}
	}()

	runErr := make(chan error, 1)
	go func() { runErr <- window.Run(ctx, input) }()

	var scanErr error
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr = scanner.Err()
	}()

	eof := false
read:
	for {
		select {
		case <-ctx.Done():
			break read
		case line, ok := <-lines:
			if !ok {
				eof = true
				break read
			}
			if strings.TrimSpace(line) == "" {
				continue
			}
			if input.Disabled() {
				screen.notice("(still waiting for a reply, message ignored)")
				continue
			}
			input.SetText(line)
			input.KeyPress(chat.Key{Name: "Enter"})
		}
	}
	input.Close()

	err := <-runErr
	cancel()
	<-renderDone
	screen.draw(window.State())

	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil || !eof {
		return err
	}
	return scanErr
}

func (s *chatScreen) draw(st chat.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.plain {
		for _, m := range st.Messages[min(s.printed, len(st.Messages)):] {
			for _, line := range (chat.Bubble{Message: m}).Render(s.width) {
				fmt.Fprintln(s.out, line)
			}
		}
		s.printed = len(st.Messages)
		return
	}

	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(title + "\n\n")
	for _, line := range st.Frame {
		b.WriteString(line + "\n")
	}
	if st.Loading {
		b.WriteString("\n[...] ")
	} else {
		b.WriteString("\n[Send] > ")
	}
	fmt.Fprint(s.out, b.String())
}

func (s *chatScreen) notice(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.out, msg)
}
