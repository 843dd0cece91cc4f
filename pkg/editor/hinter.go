package editor

import (
	"fmt"

	"github.com/kcaldas/linenoise/pkg/logging"
	"github.com/kcaldas/linenoise/pkg/render"
)

// Hinter suggests text to show after the line. It is called on every
// repaint, so it must return quickly. A nil hint shows nothing.
type Hinter interface {
	Hint(line string) *render.Hint
}

// HinterFunc adapts a function to Hinter.
type HinterFunc func(line string) *render.Hint

// Hint calls f.
func (f HinterFunc) Hint(line string) *render.Hint {
	return f(line)
}

// safeHint calls h and turns a panic into no hint.
func safeHint(h Hinter, line string, logger logging.Logger) (hint *render.Hint) {
	if h == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("hinter panicked", "panic", fmt.Sprint(r), "line", line)
			hint = nil
		}
	}()
	hint = h.Hint(line)
	if hint != nil && hint.Text == "" {
		return nil
	}
	return hint
}
