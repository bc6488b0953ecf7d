package chat

import (
	"strings"
	"unicode/utf8"
)

var senderTags = map[Sender]string{
	SenderUser: "you> ",
	SenderBot:  "bot> ",
}

// Bubble renders a single message.
type Bubble struct {
	Message Message
}

// Class mirrors the styling hook used by the web front end ("bubble user", "bubble bot").
func (b Bubble) Class() string {
	return "bubble " + string(b.Message.Sender)
}

// Render returns the message as terminal lines no wider than width runes.
// The first line carries the sender tag; continuation lines are indented to match.
func (b Bubble) Render(width int) []string {
	tag, ok := senderTags[b.Message.Sender]
	if !ok {
		tag = string(b.Message.Sender) + "> "
	}
	indent := strings.Repeat(" ", utf8.RuneCountInString(tag))
	avail := width - utf8.RuneCountInString(tag)
	if avail < 1 {
		avail = 1
	}

	var lines []string
	for _, para := range strings.Split(b.Message.Text, "\n") {
		lines = append(lines, wrap(para, avail)...)
	}
	for i := range lines {
		if i == 0 {
			lines[i] = tag + lines[i]
		} else {
			lines[i] = indent + lines[i]
		}
	}
	return lines
}

// wrap breaks s on spaces so no line exceeds width runes; longer words are split.
func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var (
		lines []string
		cur   []rune
	)
	for _, w := range words {
		wr := []rune(w)
		for len(wr) > width {
			if len(cur) > 0 {
				lines = append(lines, string(cur))
				cur = nil
			}
			lines = append(lines, string(wr[:width]))
			wr = wr[width:]
		}
		switch {
		case len(cur) == 0:
			cur = wr
		case len(cur)+1+len(wr) <= width:
			cur = append(append(cur, ' '), wr...)
		default:
			lines = append(lines, string(cur))
			cur = wr
		}
	}
	if len(cur) > 0 {
		lines = append(lines, string(cur))
	}
	return lines
}
