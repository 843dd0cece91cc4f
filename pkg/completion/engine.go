// Package completion cycles through candidates produced by a caller supplied
// Completer.
package completion

import (
	"fmt"

	"github.com/kcaldas/linenoise/pkg/logging"
)

// Completer produces candidates for the current line.
type Completer interface {
	Complete(line string) []string
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(line string) []string

// Complete calls f.
func (f CompleterFunc) Complete(line string) []string {
	return f(line)
}

// Engine holds the browsing state for one edit session. Candidates are
// generated on the first Start after the line changed and reused while the
// line stays the same.
type Engine struct {
	completer Completer
	logger    logging.Logger

	candidates  []string
	index       int
	active      bool
	original    string
	generatedAt string
	fresh       bool
	generations int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine around c. A nil Completer never offers candidates.
func New(c Completer, opts ...Option) *Engine {
	e := &Engine{completer: c, logger: logging.NewDisabledLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins browsing for line and returns the first candidate. It reports
// false when there are no candidates.
func (e *Engine) Start(line string) (string, bool) {
	if !e.fresh || e.generatedAt != line {
		e.candidates = e.generate(line)
		e.generatedAt = line
		e.fresh = true
	}
	if len(e.candidates) == 0 {
		return "", false
	}
	e.original = line
	e.index = 0
	e.active = true
	return e.candidates[0], true
}

// Next advances to the following candidate, wrapping to the first.
func (e *Engine) Next() string {
	if !e.active {
		return ""
	}
	e.index = (e.index + 1) % len(e.candidates)
	return e.candidates[e.index]
}

// Current returns the candidate on display.
func (e *Engine) Current() string {
	if !e.active {
		return ""
	}
	return e.candidates[e.index]
}

// Index returns the position of the current candidate.
func (e *Engine) Index() int {
	return e.index
}

// Active reports whether candidates are being browsed.
func (e *Engine) Active() bool {
	return e.active
}

// Candidates returns a copy of the last generated candidates.
func (e *Engine) Candidates() []string {
	return append([]string(nil), e.candidates...)
}

// Cancel stops browsing and returns the line as it was before Start.
func (e *Engine) Cancel() string {
	e.active = false
	return e.original
}

// Commit stops browsing and returns the chosen candidate. The buffer now holds
// new content, so the next Start regenerates.
func (e *Engine) Commit() string {
	chosen := e.Current()
	e.active = false
	e.fresh = false
	return chosen
}

// Invalidate marks the candidates stale after the line was edited.
func (e *Engine) Invalidate() {
	e.active = false
	e.fresh = false
}

// Generations counts calls made to the Completer.
func (e *Engine) Generations() int {
	return e.generations
}

func (e *Engine) generate(line string) (candidates []string) {
	if e.completer == nil {
		return nil
	}
	e.generations++
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("completer panicked", "panic", fmt.Sprint(r), "line", line)
			candidates = nil
		}
	}()
	return e.completer.Complete(line)
}
