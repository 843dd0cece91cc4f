package history

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"

	"github.com/kcaldas/linenoise/pkg/logging"
)

// FileStore persists a List as one entry per line. Newlines, carriage returns
// and backslashes inside entries are escaped, and an empty entry is written
// as \e. Blank lines in the file are skipped.
type FileStore struct {
	path   string
	logger logging.Logger
}

// StoreOption configures a FileStore.
type StoreOption func(*FileStore)

// WithStoreLogger sets the store logger.
func WithStoreLogger(logger logging.Logger) StoreOption {
	return func(s *FileStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewFileStore creates a store for path. A leading ~ is expanded.
func NewFileStore(path string, opts ...StoreOption) (*FileStore, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand history path: %w", err)
	}
	s := &FileStore{path: expanded, logger: logging.NewDisabledLogger()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the expanded file path.
func (s *FileStore) Path() string {
	return s.path
}

// Load replaces the entries of l with the file contents. A missing file
// leaves l untouched.
func (s *FileStore) Load(l *List) error {
	file, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open history file: %w", err)
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		escaped := strings.TrimRight(scanner.Text(), "\r")
		if escaped == "" {
			continue
		}
		lines = append(lines, unescapeLine(escaped))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read history file: %w", err)
	}

	l.Restore(lines)
	s.logger.Debug("history loaded", "path", s.path, "entries", l.Len())
	return nil
}

// Save writes the entries of l.
func (s *FileStore) Save(l *List) error {
	return s.SaveLines(l.Snapshot())
}

// SaveLines writes lines, oldest first. The file is only readable by its owner.
func (s *FileStore) SaveLines(lines []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create history file: %w", err)
	}
	defer file.Close()
	// An existing file keeps its old mode under O_CREATE.
	if err := file.Chmod(0o600); err != nil {
		return fmt.Errorf("failed to restrict history file: %w", err)
	}

	w := bufio.NewWriter(file)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, escapeLine(line)); err != nil {
			return fmt.Errorf("failed to write history entry: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	s.logger.Debug("history saved", "path", s.path, "entries", len(lines))
	return nil
}

// emptyEntry stands for an empty entry, which would otherwise be a blank line.
const emptyEntry = `\e`

func escapeLine(line string) string {
	if line == "" {
		return emptyEntry
	}
	escaped := strings.ReplaceAll(line, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	return strings.ReplaceAll(escaped, "\r", `\r`)
}

func unescapeLine(escaped string) string {
	if escaped == emptyEntry {
		return ""
	}
	var sb strings.Builder
	for i := 0; i < len(escaped); i++ {
		c := escaped[i]
		if c != '\\' || i+1 == len(escaped) {
			sb.WriteByte(c)
			continue
		}
		switch escaped[i+1] {
		case 'n':
			sb.WriteByte('\n')
			i++
		case 'r':
			sb.WriteByte('\r')
			i++
		case '\\':
			sb.WriteByte('\\')
			i++
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
