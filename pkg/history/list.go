// Package history keeps previously accepted lines: a bounded list, a per-session
// navigator over it, and a file store for persistence.
package history

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// DefaultMax is the capacity used when none is given.
const DefaultMax = 100

// ErrInvalidMax is returned when a capacity below one is requested.
var ErrInvalidMax = errors.New("history: max must be at least 1")

// DedupePolicy decides which duplicate lines Append refuses.
type DedupePolicy int

const (
	// DedupeNone keeps every line.
	DedupeNone DedupePolicy = iota
	// DedupeAdjacent drops a line equal to the most recent entry.
	DedupeAdjacent
	// DedupeAll removes any earlier copy before appending.
	DedupeAll
)

func (p DedupePolicy) String() string {
	switch p {
	case DedupeNone:
		return "none"
	case DedupeAdjacent:
		return "adjacent"
	case DedupeAll:
		return "all"
	}
	return fmt.Sprintf("DedupePolicy(%d)", int(p))
}

// ParseDedupe maps "none", "adjacent" or "all" to a policy.
func ParseDedupe(name string) (DedupePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "off":
		return DedupeNone, nil
	case "", "adjacent":
		return DedupeAdjacent, nil
	case "all", "global":
		return DedupeAll, nil
	}
	return DedupeNone, fmt.Errorf("history: unknown dedupe policy %q", name)
}

// List is an ordered, bounded sequence of lines, oldest first. When full the
// oldest entry is evicted. It is safe for concurrent use.
type List struct {
	mu      sync.RWMutex
	lines   []string
	max     int
	dedupe  DedupePolicy
	version uint64
}

// Option configures a List.
type Option func(*List)

// WithDedupe sets the duplicate policy. The default is DedupeAdjacent.
func WithDedupe(p DedupePolicy) Option {
	return func(l *List) {
		l.dedupe = p
	}
}

// New creates an empty list holding at most max lines. A max below one
// selects DefaultMax.
func New(max int, opts ...Option) *List {
	if max < 1 {
		max = DefaultMax
	}
	l := &List{max: max, dedupe: DedupeAdjacent}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append adds line as the newest entry and reports whether the list changed.
func (l *List) Append(line string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.dedupe {
	case DedupeAdjacent:
		if n := len(l.lines); n > 0 && l.lines[n-1] == line {
			return false
		}
	case DedupeAll:
		for i, existing := range l.lines {
			if existing == line {
				if i == len(l.lines)-1 {
					return false
				}
				l.lines = append(l.lines[:i], l.lines[i+1:]...)
				break
			}
		}
	}

	l.lines = append(l.lines, line)
	if len(l.lines) > l.max {
		l.lines = append(l.lines[:0], l.lines[len(l.lines)-l.max:]...)
	}
	l.version++
	return true
}

// Len returns the number of entries.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.lines)
}

// At returns entry i, where 0 is the oldest.
func (l *List) At(i int) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if i < 0 || i >= len(l.lines) {
		return "", false
	}
	return l.lines[i], true
}

// Last returns the newest entry.
func (l *List) Last() (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.lines) == 0 {
		return "", false
	}
	return l.lines[len(l.lines)-1], true
}

// Snapshot returns a copy of the entries, oldest first.
func (l *List) Snapshot() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

// Restore replaces the entries with lines, keeping the newest when there are
// more than the list can hold.
func (l *List) Restore(lines []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(lines) > l.max {
		lines = lines[len(lines)-l.max:]
	}
	l.lines = append([]string(nil), lines...)
	l.version++
}

// SetMax changes the capacity, dropping the oldest entries if needed.
func (l *List) SetMax(max int) error {
	if max < 1 {
		return ErrInvalidMax
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.max = max
	if len(l.lines) > max {
		l.lines = append([]string(nil), l.lines[len(l.lines)-max:]...)
		l.version++
	}
	return nil
}

// Max returns the capacity.
func (l *List) Max() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.max
}

// Dedupe returns the duplicate policy.
func (l *List) Dedupe() DedupePolicy {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.dedupe
}

// Clear removes every entry.
func (l *List) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lines = nil
	l.version++
}

// Version changes whenever the entries change. Navigators use it to notice
// that the list moved underneath them.
func (l *List) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}
