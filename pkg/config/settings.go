package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"github.com/kcaldas/linenoise/pkg/editor"
	"github.com/kcaldas/linenoise/pkg/history"
	"github.com/kcaldas/linenoise/pkg/logging"
	"github.com/kcaldas/linenoise/pkg/terminal"
)

const (
	// DefaultPath is the settings file read when no path is given.
	DefaultPath = "~/.linenoise.yaml"
	// DefaultHistoryFile is where the command line tools keep history.
	DefaultHistoryFile = "~/.linenoise_history"

	envPrefix = "LINENOISE_"
)

// HistorySettings configures the history list and its file.
type HistorySettings struct {
	File   string `yaml:"file"`
	Max    int    `yaml:"max"`
	Dedupe string `yaml:"dedupe"`
}

// Settings are the user-facing editor settings.
type Settings struct {
	Prompt        string          `yaml:"prompt"`
	Multiline     bool            `yaml:"multiline"`
	History       HistorySettings `yaml:"history"`
	HotKey        string          `yaml:"hotkey"`
	CancelKey     string          `yaml:"cancel_key"`
	EOFOnCtrlD    bool            `yaml:"eof_on_ctrl_d"`
	IgnoreEmpty   bool            `yaml:"ignore_empty"`
	AutoHistory   bool            `yaml:"auto_history"`
	EscapeTimeout time.Duration   `yaml:"escape_timeout"`
	PollInterval  time.Duration   `yaml:"poll_interval"`
	FallbackCols  int             `yaml:"fallback_cols"`
}

// DefaultSettings match the editor defaults.
func DefaultSettings() Settings {
	return Settings{
		Prompt: "> ",
		History: HistorySettings{
			File:   DefaultHistoryFile,
			Max:    history.DefaultMax,
			Dedupe: history.DedupeAdjacent.String(),
		},
		CancelKey:     "c",
		EOFOnCtrlD:    true,
		AutoHistory:   true,
		EscapeTimeout: editor.DefaultEscapeTimeout,
		PollInterval:  editor.DefaultPollInterval,
		FallbackCols:  terminal.DefaultFallbackCols,
	}
}

// LoadSettings reads the YAML file at path over the defaults. An empty path
// reads DefaultPath, which may be missing; an explicit path must exist.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()
	optional := path == ""
	if optional {
		path = DefaultPath
	}

	expanded, err := homedir.Expand(path)
	if err != nil {
		return s, fmt.Errorf("failed to expand settings path: %w", err)
	}
	data, err := os.ReadFile(expanded)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read settings: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("failed to parse settings %s: %w", expanded, err)
	}
	return s, nil
}

// LoadDotEnv loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides settings with LINENOISE_* variables.
func (s *Settings) ApplyEnv(m Manager) {
	s.Prompt = m.GetStringWithDefault(envPrefix+"PROMPT", s.Prompt)
	s.Multiline = m.GetBoolWithDefault(envPrefix+"MULTILINE", s.Multiline)
	s.History.File = m.GetStringWithDefault(envPrefix+"HISTORY_FILE", s.History.File)
	s.History.Max = m.GetIntWithDefault(envPrefix+"HISTORY_MAX", s.History.Max)
	s.History.Dedupe = m.GetStringWithDefault(envPrefix+"HISTORY_DEDUPE", s.History.Dedupe)
	s.HotKey = m.GetStringWithDefault(envPrefix+"HOTKEY", s.HotKey)
	s.CancelKey = m.GetStringWithDefault(envPrefix+"CANCEL_KEY", s.CancelKey)
	s.EOFOnCtrlD = m.GetBoolWithDefault(envPrefix+"EOF_ON_CTRL_D", s.EOFOnCtrlD)
	s.IgnoreEmpty = m.GetBoolWithDefault(envPrefix+"IGNORE_EMPTY", s.IgnoreEmpty)
	s.AutoHistory = m.GetBoolWithDefault(envPrefix+"AUTO_HISTORY", s.AutoHistory)
	s.EscapeTimeout = m.GetDurationWithDefault(envPrefix+"ESCAPE_TIMEOUT", s.EscapeTimeout)
	s.PollInterval = m.GetDurationWithDefault(envPrefix+"POLL_INTERVAL", s.PollInterval)
	s.FallbackCols = m.GetIntWithDefault(envPrefix+"FALLBACK_COLS", s.FallbackCols)
}

// Load combines defaults, the settings file and the environment.
func Load(path string, m Manager) (Settings, error) {
	s, err := LoadSettings(path)
	if err != nil {
		return s, err
	}
	s.ApplyEnv(m)
	return s, s.Validate()
}

// Validate checks the settings for values the editor cannot use.
func (s Settings) Validate() error {
	var errs []error
	if s.History.Max < 1 {
		errs = append(errs, fmt.Errorf("history.max must be at least 1, got %d", s.History.Max))
	}
	if _, err := history.ParseDedupe(s.History.Dedupe); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseHotKey(s.HotKey); err != nil {
		errs = append(errs, err)
	}
	if _, err := ParseCtrlKey(s.CancelKey); err != nil {
		errs = append(errs, err)
	}
	if s.EscapeTimeout <= 0 {
		errs = append(errs, fmt.Errorf("escape_timeout must be positive, got %s", s.EscapeTimeout))
	}
	if s.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("poll_interval must be positive, got %s", s.PollInterval))
	}
	if s.FallbackCols < 1 {
		errs = append(errs, fmt.Errorf("fallback_cols must be positive, got %d", s.FallbackCols))
	}
	return errors.Join(errs...)
}

// ParseCtrlKey reads a control letter written as "c", "ctrl-c" or "^C".
// "" and "none" disable the key and yield 0.
func ParseCtrlKey(value string) (byte, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" || v == "none" {
		return 0, nil
	}
	v = strings.TrimPrefix(strings.TrimPrefix(v, "ctrl-"), "^")
	if len(v) != 1 || v[0] < 'a' || v[0] > 'z' {
		return 0, fmt.Errorf("invalid control key %q", value)
	}
	return v[0] - 'a' + 'A', nil
}

// ParseHotKey reads a hot key: one printable character, or a control key in
// any form ParseCtrlKey accepts prefixed with "ctrl-" or "^".
func ParseHotKey(value string) (rune, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return 0, nil
	}
	lower := strings.ToLower(v)
	if len(v) > 1 && (strings.HasPrefix(lower, "ctrl-") || strings.HasPrefix(lower, "^")) {
		letter, err := ParseCtrlKey(v)
		if err != nil {
			return 0, err
		}
		return rune(letter-'A') + 1, nil
	}
	if utf8.RuneCountInString(v) != 1 {
		return 0, fmt.Errorf("invalid hot key %q", value)
	}
	r, _ := utf8.DecodeRuneInString(v)
	return r, nil
}

// NewHistory creates the history list described by the settings.
func (s Settings) NewHistory() (*history.List, error) {
	policy, err := history.ParseDedupe(s.History.Dedupe)
	if err != nil {
		return nil, err
	}
	return history.New(s.History.Max, history.WithDedupe(policy)), nil
}

// HistoryStore returns the history file, or nil when history is not kept.
func (s Settings) HistoryStore(logger logging.Logger) (*history.FileStore, error) {
	if s.History.File == "" {
		return nil, nil
	}
	return history.NewFileStore(s.History.File, history.WithStoreLogger(logger))
}

// EditorOptions translates the settings into editor options.
func (s Settings) EditorOptions() ([]editor.Option, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	cancel, _ := ParseCtrlKey(s.CancelKey)
	hot, _ := ParseHotKey(s.HotKey)

	return []editor.Option{
		editor.WithMultiline(s.Multiline),
		editor.WithCancelKey(cancel),
		editor.WithHotKey(hot),
		editor.WithEOFOnCtrlD(s.EOFOnCtrlD),
		editor.WithIgnoreEmpty(s.IgnoreEmpty),
		editor.WithAutoHistory(s.AutoHistory),
		editor.WithEscapeTimeout(s.EscapeTimeout),
		editor.WithPollInterval(s.PollInterval),
		editor.WithTerminalOptions(terminal.WithFallbackCols(s.FallbackCols)),
	}, nil
}
