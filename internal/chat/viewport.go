package chat

// Viewport is a fixed-height window over the rendered message lines.
type Viewport struct {
	Height int
	Width  int

	lines     []string
	scrollTop int
}

// NewViewport returns a viewport showing height rows of width columns.
func NewViewport(height, width int) *Viewport {
	if height < 1 {
		height = 1
	}
	if width < 1 {
		width = 1
	}
	return &Viewport{Height: height, Width: width}
}

// SetMessages re-renders the content from msgs. The scroll offset is clamped, not moved.
func (v *Viewport) SetMessages(msgs []Message) {
	v.lines = v.lines[:0]
	for _, m := range msgs {
		v.lines = append(v.lines, Bubble{Message: m}.Render(v.Width)...)
	}
	v.ScrollTo(v.scrollTop)
}

// ScrollHeight is the total number of content lines.
func (v *Viewport) ScrollHeight() int { return len(v.lines) }

// ScrollTop is the index of the first visible line.
func (v *Viewport) ScrollTop() int { return v.scrollTop }

// MaxScrollTop is the largest valid ScrollTop.
func (v *Viewport) MaxScrollTop() int {
	if n := len(v.lines) - v.Height; n > 0 {
		return n
	}
	return 0
}

// ScrollTo moves to offset, clamped to [0, MaxScrollTop].
func (v *Viewport) ScrollTo(offset int) {
	if offset < 0 {
		offset = 0
	}
	if m := v.MaxScrollTop(); offset > m {
		offset = m
	}
	v.scrollTop = offset
}

func (v *Viewport) ScrollToBottom() { v.scrollTop = v.MaxScrollTop() }

// Frame returns the visible lines.
func (v *Viewport) Frame() []string {
	end := v.scrollTop + v.Height
	if end > len(v.lines) {
		end = len(v.lines)
	}
	out := make([]string, end-v.scrollTop)
	copy(out, v.lines[v.scrollTop:end])
	return out
}
