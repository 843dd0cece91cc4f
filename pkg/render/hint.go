package render

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// NoColor leaves the hint in the terminal's default foreground.
const NoColor = -1

// Hint is non-editable text drawn after the buffer. Color is an SGR
// foreground code (30-37 or 90-97) or NoColor.
type Hint struct {
	Text  string
	Color int
	Bold  bool
}

// Plain returns an unstyled hint.
func Plain(text string) *Hint {
	return &Hint{Text: text, Color: NoColor}
}

func (h *Hint) equal(o *Hint) bool {
	if h == nil || o == nil {
		return h == o
	}
	return *h == *o
}

// styler turns hints into escape-coded strings for one output.
type styler struct {
	r *lipgloss.Renderer
}

func newStyler(r *lipgloss.Renderer, profile termenv.Profile) styler {
	r.SetColorProfile(profile)
	return styler{r: r}
}

func (s styler) render(h *Hint, text string) string {
	color := h.Color
	if h.Bold && color == NoColor {
		color = 37
	}
	if color == NoColor && !h.Bold {
		return text
	}
	style := s.r.NewStyle().Bold(h.Bold)
	if idx, ok := sgrToANSI(color); ok {
		style = style.Foreground(lipgloss.ANSIColor(idx))
	}
	return style.Render(text)
}

func sgrToANSI(code int) (uint, bool) {
	switch {
	case code >= 30 && code <= 37:
		return uint(code - 30), true
	case code >= 90 && code <= 97:
		return uint(code - 90 + 8), true
	}
	return 0, false
}
