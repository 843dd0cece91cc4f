// Package di assembles the editor, its settings, history and event bus for
// the command line tools.
package di

import (
	"os"

	"github.com/kcaldas/linenoise/pkg/config"
	"github.com/kcaldas/linenoise/pkg/editor"
	"github.com/kcaldas/linenoise/pkg/events"
	"github.com/kcaldas/linenoise/pkg/history"
	"github.com/kcaldas/linenoise/pkg/logging"
)

// SettingsPath names the settings file. Empty reads config.DefaultPath.
type SettingsPath string

// SettingsOverride adjusts loaded settings, e.g. from command line flags.
type SettingsOverride func(*config.Settings)

// Streams are the terminal files the editor works on.
type Streams struct {
	In  *os.File
	Out *os.File
}

// StdStreams uses the process stdin and stdout.
func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: os.Stdout}
}

// App holds everything a command needs.
type App struct {
	Settings config.Settings
	Editor   *editor.Editor
	History  *history.List
	// Store is nil when history is not kept in a file.
	Store  *history.FileStore
	Bus    *events.InMemoryBus
	Logger logging.Logger
}

// NewApp groups the wired components.
func NewApp(settings config.Settings, ed *editor.Editor, list *history.List, store *history.FileStore,
	bus *events.InMemoryBus, logger logging.Logger) *App {
	return &App{
		Settings: settings,
		Editor:   ed,
		History:  list,
		Store:    store,
		Bus:      bus,
		Logger:   logger,
	}
}

// Close drains pending events.
func (a *App) Close() {
	a.Bus.Shutdown()
}

// ProvideConfigManager provides the environment configuration manager
func ProvideConfigManager() config.Manager {
	return config.NewConfigManager()
}

// ProvideLogger provides the process logger
func ProvideLogger() logging.Logger {
	return logging.GetGlobalLogger()
}

// ProvideSettings loads the settings file, applies the environment and then
// the overrides.
func ProvideSettings(path SettingsPath, override SettingsOverride, m config.Manager) (config.Settings, error) {
	s, err := config.LoadSettings(string(path))
	if err != nil {
		return s, err
	}
	s.ApplyEnv(m)
	if override != nil {
		override(&s)
	}
	return s, s.Validate()
}

// ProvideHistory provides the history list described by the settings
func ProvideHistory(s config.Settings) (*history.List, error) {
	return s.NewHistory()
}

// ProvideHistoryStore provides the history file, or nil
func ProvideHistoryStore(s config.Settings, logger logging.Logger) (*history.FileStore, error) {
	return s.HistoryStore(logger.With("component", "history"))
}

// ProvideEventBus provides the bus carrying session events
func ProvideEventBus(logger logging.Logger) *events.InMemoryBus {
	return events.NewEventBus(events.WithLogger(logger.With("component", "events")))
}

// ProvidePublisher exposes the bus to publishers
func ProvidePublisher(bus *events.InMemoryBus) events.Publisher {
	return bus
}

// ProvideEditor builds the editor on the given streams
func ProvideEditor(streams Streams, s config.Settings, list *history.List, pub events.Publisher,
	logger logging.Logger) (*editor.Editor, error) {
	opts, err := s.EditorOptions()
	if err != nil {
		return nil, err
	}
	opts = append(opts,
		editor.WithHistory(list),
		editor.WithPublisher(pub),
		editor.WithLogger(logger.With("component", "editor")),
	)
	return editor.New(streams.In, streams.Out, opts...), nil
}
