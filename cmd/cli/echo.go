package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kcaldas/linenoise/internal/di"
	"github.com/kcaldas/linenoise/pkg/completion"
	"github.com/kcaldas/linenoise/pkg/config"
	"github.com/kcaldas/linenoise/pkg/editor"
	"github.com/kcaldas/linenoise/pkg/events"
	"github.com/kcaldas/linenoise/pkg/render"
)

const echoHotKey = '?'

func echoCompletions(line string) []string {
	if strings.HasPrefix(line, "h") {
		return []string{"hello", "hello there"}
	}
	return nil
}

func echoHint(line string) *render.Hint {
	if line == "hello" {
		return &render.Hint{Text: " World", Color: 35}
	}
	return nil
}

// runEcho reads lines and echoes them back. Lines starting with '/' are
// commands.
func runEcho(ctx context.Context, opts *rootOptions) (err error) {
	app, err := opts.initialize()
	if err != nil {
		return err
	}

	ed := app.Editor
	out := ed.Terminal().Out()
	ed.SetCompleter(completion.CompleterFunc(echoCompletions))
	ed.SetHinter(editor.HinterFunc(echoHint))

	hotKey, _ := config.ParseHotKey(app.Settings.HotKey)
	if hotKey == 0 {
		hotKey = echoHotKey
	}
	ed.SetHotKey(hotKey)

	if ed.Multiline() {
		fmt.Fprintln(out, "Multi-line mode enabled.")
	}

	if app.Store != nil {
		if loadErr := app.Store.Load(app.History); loadErr != nil {
			app.Logger.Warn("failed to load history", "path", app.Store.Path(), "error", loadErr)
		}
		store := app.Store
		app.Bus.Subscribe(events.LineAccepted{}.Topic(), func(e interface{}) {
			accepted, ok := e.(events.LineAccepted)
			if !ok {
				return
			}
			if saveErr := store.SaveLines(accepted.History); saveErr != nil {
				app.Logger.Warn("failed to save history", "path", store.Path(), "error", saveErr)
			}
		})
	}
	defer func() {
		app.Close()
		if app.Store != nil {
			err = errors.Join(err, app.Store.Save(app.History))
		}
	}()

	for {
		line, readErr := ed.ReadLine(ctx, app.Settings.Prompt)
		if errors.Is(readErr, io.EOF) || errors.Is(readErr, editor.ErrCancelled) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
		handleEchoLine(app, out, line, hotKey)
	}
}

func handleEchoLine(app *di.App, out io.Writer, line string, hotKey rune) {
	switch {
	case strings.HasPrefix(line, "/historylen"):
		fields := strings.Fields(line)
		if len(fields) < 2 {
			fmt.Fprintln(out, "no history length")
			return
		}
		n, err := strconv.Atoi(fields[1])
		if err == nil {
			err = app.History.SetMax(n)
		}
		if err != nil {
			fmt.Fprintf(out, "invalid history length: %s\n", fields[1])
		}
	case strings.HasPrefix(line, "/"):
		fmt.Fprintf(out, "unrecognized command: %s\n", line)
	case line != "":
		fmt.Fprintf(out, "echo: '%s'\n", line)
		// The editor does not record lines ended by the hot key; record them
		// without it.
		trimmed, ok := strings.CutSuffix(line, string(hotKey))
		if last, _ := app.History.Last(); ok && trimmed != "" && last != trimmed {
			app.History.Append(trimmed)
		}
	}
}
