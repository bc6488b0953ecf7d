package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBubbleClass(t *testing.T) {
	assert.Equal(t, "bubble user", Bubble{Message: Message{Text: "x", Sender: SenderUser}}.Class())
	assert.Equal(t, "bubble bot", Bubble{Message: Message{Text: "x", Sender: SenderBot}}.Class())
}

func TestBubbleRender(t *testing.T) {
	cases := []struct {
		name  string
		msg   Message
		width int
		want  []string
	}{
		{"short", Message{Text: "hello", Sender: SenderUser}, 40, []string{"you> hello"}},
		{"wrapped", Message{Text: "one two three", Sender: SenderBot}, 12, []string{"bot> one two", "     three"}},
		{"newline", Message{Text: "a\nb", Sender: SenderBot}, 40, []string{"bot> a", "     b"}},
		{"long word", Message{Text: "abcdefgh", Sender: SenderUser}, 9, []string{"you> abcd", "     efgh"}},
		{"empty", Message{Text: "", Sender: SenderUser}, 20, []string{"you> "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Bubble{Message: tc.msg}.Render(tc.width))
		})
	}
}

func TestViewportScroll(t *testing.T) {
	v := NewViewport(2, 40)
	v.SetMessages([]Message{{Text: "a", Sender: SenderBot}})
	assert.Equal(t, 0, v.MaxScrollTop())
	assert.Equal(t, []string{"bot> a"}, v.Frame())

	v.SetMessages([]Message{
		{Text: "a", Sender: SenderBot},
		{Text: "b", Sender: SenderUser},
		{Text: "c", Sender: SenderBot},
	})
	assert.Equal(t, 3, v.ScrollHeight())
	assert.Equal(t, 0, v.ScrollTop())

	v.ScrollToBottom()
	assert.Equal(t, 1, v.ScrollTop())
	assert.Equal(t, []string{"you> b", "bot> c"}, v.Frame())

	v.ScrollTo(99)
	assert.Equal(t, 1, v.ScrollTop())
	v.ScrollTo(-3)
	assert.Equal(t, 0, v.ScrollTop())
}
