package chat

import (
	"strings"
	"sync"
)

// Key is a key press delivered to the Input.
type Key struct {
	Name  string // "Enter", or a printable rune as a string
	Shift bool
}

// Input holds the single line being typed and emits it on submit.
//
// A successful submit disables the input; whoever consumes Submits is
// expected to call SetDisabled(false) once the request has finished.
type Input struct {
	mu       sync.Mutex
	text     string
	disabled bool
	closed   bool
	submits  chan string
}

func NewInput() *Input {
	return &Input{submits: make(chan string, 1)}
}

// Submits delivers submitted texts, already trimmed.
func (in *Input) Submits() <-chan string { return in.submits }

func (in *Input) SetText(s string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.disabled {
		return
	}
	in.text = s
}

func (in *Input) Text() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.text
}

func (in *Input) SetDisabled(d bool) {
	in.mu.Lock()
	in.disabled = d
	in.mu.Unlock()
}

func (in *Input) Disabled() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.disabled
}

// CanSubmit mirrors the send button state: enabled and non-blank.
func (in *Input) CanSubmit() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.canSubmitLocked()
}

func (in *Input) canSubmitLocked() bool {
	return !in.disabled && !in.closed && strings.TrimSpace(in.text) != ""
}

// Submit emits the current text and clears the field. It is a no-op, returning
// false, when the text is blank or the input is disabled.
func (in *Input) Submit() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.canSubmitLocked() {
		return false
	}
	text := strings.TrimSpace(in.text)
	select {
	case in.submits <- text:
	default:
		// previous submission not yet picked up
		return false
	}
	in.text = ""
	in.disabled = true
	return true
}

// KeyPress handles Enter (submit unless shift is held) and appends printable keys.
func (in *Input) KeyPress(k Key) bool {
	if k.Name == "Enter" {
		if k.Shift {
			return false
		}
		return in.Submit()
	}
	in.mu.Lock()
	if !in.disabled {
		in.text += k.Name
	}
	in.mu.Unlock()
	return false
}

// Close stops further submissions and closes the Submits channel.
func (in *Input) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return
	}
	in.closed = true
	close(in.submits)
}
