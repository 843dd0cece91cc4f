package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/linenoise/internal/di"
	"github.com/kcaldas/linenoise/pkg/history"
	"github.com/kcaldas/linenoise/pkg/logging"
	"github.com/kcaldas/linenoise/pkg/version"
)

type harness struct {
	home   string
	stdout bytes.Buffer
	out    *os.File
}

// newHarness isolates HOME and the debug log, and feeds input through a
// regular file so the editor reads plain lines.
func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	h := &harness{home: t.TempDir()}
	t.Setenv("HOME", h.home)
	t.Setenv(logging.DebugFileEnv, filepath.Join(t.TempDir(), "debug.log"))
	homedir.Reset()

	inPath := filepath.Join(t.TempDir(), "input")
	require.NoError(t, os.WriteFile(inPath, []byte(input), 0o600))
	in, err := os.Open(inPath)
	require.NoError(t, err)
	h.out, err = os.Create(filepath.Join(t.TempDir(), "output"))
	require.NoError(t, err)

	prev := streams
	streams = func() di.Streams { return di.Streams{In: in, Out: h.out} }
	t.Cleanup(func() {
		streams = prev
		homedir.Reset()
		logging.SetGlobalLogger(logging.NewDisabledLogger())
		in.Close()
		h.out.Close()
	})
	return h
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetOut(&h.stdout)
	cmd.SetErr(&h.stdout)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(h.home, "absent.env")}, args...))

	err := cmd.ExecuteContext(context.Background())
	data, readErr := os.ReadFile(h.out.Name())
	require.NoError(t, readErr)
	return string(data), err
}

func TestVersionFlag(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.run(t, "--version")

	require.NoError(t, err)
	out := h.stdout.String()
	assert.True(t, strings.HasPrefix(out, "linenoise version "+version.GetVersion()+"\ncommit: "), out)
	assert.Contains(t, out, "\nplatform: "+runtime.GOOS+"/"+runtime.GOARCH+"\n")
}

func TestVerboseLogsToStderrWithoutDebugFile(t *testing.T) {
	h := newHarness(t, "")
	t.Setenv(logging.DebugFileEnv, "")
	stderrPath := filepath.Join(t.TempDir(), "stderr")
	stderr, err := os.Create(stderrPath)
	require.NoError(t, err)
	original := os.Stderr
	os.Stderr = stderr
	t.Cleanup(func() {
		os.Stderr = original
		stderr.Close()
	})

	_, err = h.run(t, "-v", "--history", "")
	require.NoError(t, err)

	data, err := os.ReadFile(stderrPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "level=DEBUG msg=\"logging configured\" verbose=true quiet=false")
}

func TestVerboseLogsToDebugFile(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.run(t, "-v", "--history", "")
	require.NoError(t, err)

	data, err := os.ReadFile(os.Getenv(logging.DebugFileEnv))
	require.NoError(t, err)
	assert.Contains(t, string(data), "logging configured")
}

func TestEcho(t *testing.T) {
	h := newHarness(t, "hello\n/historylen 2\n/historylen\n/foo\n\nhi?\nlast")

	out, err := h.run(t)

	require.NoError(t, err)
	assert.Equal(t, "echo: 'hello'\n"+
		"no history length\n"+
		"unrecognized command: /foo\n"+
		"echo: 'hi?'\n"+
		"echo: 'last'\n", out)

	data, err := os.ReadFile(filepath.Join(h.home, ".linenoise_history"))
	require.NoError(t, err)
	assert.Equal(t, "hi\nlast\n", string(data))
}

func TestHandleEchoLine_RecordsHotKeyLineWithoutKey(t *testing.T) {
	var out bytes.Buffer
	app := &di.App{History: history.New(history.DefaultMax)}

	handleEchoLine(app, &out, "hello?", '?')
	handleEchoLine(app, &out, "hello?", '?')
	handleEchoLine(app, &out, "?", '?')

	assert.Equal(t, "echo: 'hello?'\necho: 'hello?'\necho: '?'\n", out.String())
	assert.Equal(t, []string{"hello"}, app.History.Snapshot())
}

func TestEcho_FlagsOverrideSettings(t *testing.T) {
	h := newHarness(t, "one\ntwo\n")
	settings := filepath.Join(h.home, "settings.yaml")
	require.NoError(t, os.WriteFile(settings, []byte("history:\n  file: \"\"\n"), 0o600))
	history := filepath.Join(h.home, "custom_history")

	out, err := h.run(t, "--config", settings, "--history", history, "--multiline")

	require.NoError(t, err)
	assert.Equal(t, "Multi-line mode enabled.\necho: 'one'\necho: 'two'\n", out)
	data, err := os.ReadFile(history)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestEcho_InvalidHistoryLength(t *testing.T) {
	h := newHarness(t, "/historylen zero\n/historylen 0\n")

	out, err := h.run(t, "--history", "")

	require.NoError(t, err)
	assert.Equal(t, "invalid history length: zero\ninvalid history length: 0\n", out)
	assert.NoFileExists(t, filepath.Join(h.home, ".linenoise_history"))
}

func TestEcho_BadConfig(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.run(t, "--config", filepath.Join(h.home, "missing.yaml"))

	assert.ErrorContains(t, err, "failed to initialize")
}

func TestEchoCallbacks(t *testing.T) {
	assert.Equal(t, []string{"hello", "hello there"}, echoCompletions("h"))
	assert.Nil(t, echoCompletions("x"))
	assert.Nil(t, echoCompletions(""))

	hint := echoHint("hello")
	require.NotNil(t, hint)
	assert.Equal(t, " World", hint.Text)
	assert.Equal(t, 35, hint.Color)
	assert.Nil(t, echoHint("hell"))
}

func TestMenu(t *testing.T) {
	h := newHarness(t, "a a0 x y\nh?\nb\nzz\nc c1 ?\nexit\nnever\n")

	out, err := h.run(t, "menu")

	require.NoError(t, err)
	assert.Contains(t, out, `a0 function arguments ["x" "y"]`+"\n")
	assert.Regexp(t, `help\s+: general help`, out)
	assert.Regexp(t, `history\s+: command history`, out)
	assert.Contains(t, out, "additional input needed\n")
	assert.Contains(t, out, "unknown command\nzz\n^^\n")
	assert.Regexp(t, `arg2\s+: arg2 description`, out)
	assert.NotContains(t, out, "never")

	data, err := os.ReadFile(filepath.Join(h.home, ".linenoise_history"))
	require.NoError(t, err)
	assert.Equal(t, "a a0 x y\nzz\nexit\n", string(data))
}

func TestTerminalOnlyCommands(t *testing.T) {
	for _, name := range []string{"keycodes", "loop"} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, "")

			_, err := h.run(t, name)

			assert.ErrorContains(t, err, name+" needs an interactive terminal")
		})
	}
}

func TestLoop_RejectsBadCount(t *testing.T) {
	h := newHarness(t, "")

	_, err := h.run(t, "loop", "--count", "0")

	assert.ErrorContains(t, err, "count must be positive")
}

func TestLoopStep(t *testing.T) {
	var out bytes.Buffer
	step := loopStep(&out, 3, time.Hour)

	assert.False(t, step())
	assert.False(t, step(), "waits for the interval")
	assert.Equal(t, "loop index 0/3\r\n", out.String())

	out.Reset()
	step = loopStep(&out, 2, 0)
	assert.False(t, step())
	assert.True(t, step())
	assert.Equal(t, 2, strings.Count(out.String(), "loop index"))
}
