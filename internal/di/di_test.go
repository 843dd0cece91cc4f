package di

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/linenoise/pkg/config"
	"github.com/kcaldas/linenoise/pkg/events"
)

func pipeStreams(t *testing.T) Streams {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return Streams{In: r, Out: w}
}

func isolatedHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	homedir.Reset()
	t.Cleanup(homedir.Reset)
	return home
}

func TestInitializeApp_Defaults(t *testing.T) {
	home := isolatedHome(t)

	app, err := InitializeApp("", nil, pipeStreams(t))
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, config.DefaultSettings(), app.Settings)
	assert.Same(t, app.History, app.Editor.History())
	require.NotNil(t, app.Store)
	assert.Equal(t, filepath.Join(home, ".linenoise_history"), app.Store.Path())
	assert.NotNil(t, app.Logger)
}

func TestInitializeApp_FileEnvAndOverride(t *testing.T) {
	isolatedHome(t)
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prompt: \"file> \"\nhistory:\n  file: \"\"\n  max: 7\n"), 0o600))
	t.Setenv("LINENOISE_HISTORY_DEDUPE", "all")

	app, err := InitializeApp(SettingsPath(path), func(s *config.Settings) {
		s.Multiline = true
	}, pipeStreams(t))
	require.NoError(t, err)
	defer app.Close()

	assert.Equal(t, "file> ", app.Settings.Prompt)
	assert.True(t, app.Settings.Multiline)
	assert.True(t, app.Editor.Multiline())
	assert.Equal(t, 7, app.History.Max())
	assert.Equal(t, "all", app.History.Dedupe().String())
	assert.Nil(t, app.Store)
}

func TestInitializeApp_InvalidSettings(t *testing.T) {
	isolatedHome(t)

	_, err := InitializeApp("", func(s *config.Settings) {
		s.History.Max = 0
	}, pipeStreams(t))
	assert.ErrorContains(t, err, "history.max")

	_, err = InitializeApp(SettingsPath(filepath.Join(t.TempDir(), "missing.yaml")), nil, pipeStreams(t))
	assert.Error(t, err)
}

func TestApp_BusDeliversLineEvents(t *testing.T) {
	isolatedHome(t)
	app, err := InitializeApp("", nil, pipeStreams(t))
	require.NoError(t, err)

	var (
		mu  sync.Mutex
		got []string
	)
	app.Bus.Subscribe(events.LineAccepted{}.Topic(), func(e interface{}) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, e.(events.LineAccepted).Line)
	})

	events.PublishEvent(ProvidePublisher(app.Bus), events.LineAccepted{Line: "one"})
	events.PublishEvent(app.Bus, events.LineAccepted{Line: "two"})
	app.Close()

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 2
	}, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"one", "two"}, got)
}
