package menu

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kcaldas/linenoise/pkg/completion"
	"github.com/kcaldas/linenoise/pkg/editor"
	"github.com/kcaldas/linenoise/pkg/history"
)

type fakeEditor struct {
	lines     []string
	err       error
	initials  []string
	hist      *history.List
	completer completion.Completer
	hotKey    rune
	auto      bool
	poll      editor.PollFunc
}

func newFakeEditor(lines ...string) *fakeEditor {
	return &fakeEditor{lines: lines, hist: history.New(history.DefaultMax), auto: true}
}

func (f *fakeEditor) Edit(_ context.Context, _ string, initial string) (string, error) {
	f.initials = append(f.initials, initial)
	if len(f.lines) == 0 {
		if f.err != nil {
			return "", f.err
		}
		return "", io.EOF
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeEditor) History() *history.List              { return f.hist }
func (f *fakeEditor) SetCompleter(c completion.Completer) { f.completer = c }
func (f *fakeEditor) SetHotKey(key rune)                  { f.hotKey = key }
func (f *fakeEditor) SetAutoHistory(enabled bool)         { f.auto = enabled }
func (f *fakeEditor) SetPoll(fn editor.PollFunc)          { f.poll = fn }

type calls struct {
	args [][]string
}

func (c *calls) action(_ *CLI, args []string) error {
	c.args = append(c.args, args)
	return nil
}

func testRoot(rec *calls) Menu {
	argHelp := []HelpLine{
		{"arg0", "arg0 description"},
		{"arg1", "arg1 description"},
	}
	return Menu{
		Submenu("a", "a functions",
			Leaf("a0", "a0 function", rec.action, argHelp...),
			Leaf("a1", "a1 function", rec.action, argHelp...),
			Leaf("a2", "a2 function", rec.action),
		),
		Submenu("b", "b functions",
			Leaf("b0", "b0 function", rec.action),
			Leaf("b1", "b1 function", rec.action),
		),
		ExitItem(),
		HelpItem(),
		HistoryItem(),
	}
}

func newTestCLI(lines ...string) (*CLI, *fakeEditor, *bytes.Buffer, *calls) {
	rec := &calls{}
	ed := newFakeEditor(lines...)
	out := &bytes.Buffer{}
	return New(ed, out, testRoot(rec), WithPrompt("cli> ")), ed, out, rec
}

func TestComplete(t *testing.T) {
	root := testRoot(&calls{})

	tests := []struct {
		line string
		want []string
	}{
		{"", []string{"a", "b", "exit", "help", "history"}},
		{"h", []string{"help", "history"}},
		{"he", []string{"help"}},
		{"a", []string{"a a0", "a a1", "a a2"}},
		{"a a", []string{"a a0", "a a1", "a a2"}},
		{"b b", []string{"b b0", "b b1"}},
		{"he      ", []string{"help    "}},
		{"a a0", nil},
		{"x", nil},
		{"a x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, root.Complete(tt.line))
		})
	}
}

func TestNew_ConfiguresEditor(t *testing.T) {
	c, ed, _, _ := newTestCLI()

	assert.Equal(t, HelpKey, ed.hotKey)
	assert.False(t, ed.auto, "the CLI records history itself")
	require.NotNil(t, ed.completer)
	assert.Equal(t, []string{"help", "history"}, ed.completer.Complete("h"))
	assert.Equal(t, c.Complete("h"), ed.completer.Complete("h"))
}

func TestParse_RunsLeafWithArgs(t *testing.T) {
	c, ed, _, rec := newTestCLI()

	assert.Equal(t, "", c.Parse("a a0 x y"))
	assert.Equal(t, "", c.Parse(`a a1 "hello world"`))

	assert.Equal(t, [][]string{{"x", "y"}, {"hello world"}}, rec.args)
	assert.Equal(t, []string{"a a0 x y", `a a1 "hello world"`}, ed.hist.Snapshot())
}

func TestParse_Abbreviations(t *testing.T) {
	c, _, _, rec := newTestCLI()

	c.Parse("b b1")
	c.Parse("b b0 z")

	assert.Equal(t, [][]string{{}, {"z"}}, rec.args)
}

func TestParse_UnknownCommand(t *testing.T) {
	c, ed, out, rec := newTestCLI()

	assert.Equal(t, "", c.Parse("a zz 1"))

	assert.Equal(t, "unknown command\na zz 1\n  ^^  \n", out.String())
	assert.Empty(t, rec.args)
	assert.Equal(t, []string{"a zz 1"}, ed.hist.Snapshot())
}

func TestParse_AmbiguousCommand(t *testing.T) {
	c, ed, out, _ := newTestCLI()

	assert.Equal(t, "", c.Parse("a a"))

	assert.Equal(t, "ambiguous command\na a\n  ^\n", out.String())
	assert.Zero(t, ed.hist.Len())
}

func TestParse_AdditionalInputNeeded(t *testing.T) {
	c, _, out, _ := newTestCLI()

	assert.Equal(t, "a", c.Parse("a"))
	assert.Equal(t, "additional input needed\n", out.String())
}

func TestParse_CommandHelp(t *testing.T) {
	c, ed, out, _ := newTestCLI()

	assert.Equal(t, "h", c.Parse("h?"))

	assert.Regexp(t, `help\s+: general help`, out.String())
	assert.Regexp(t, `history\s+: command history`, out.String())
	assert.NotContains(t, out.String(), "exit")
	assert.Zero(t, ed.hist.Len())
}

func TestParse_MenuHelp(t *testing.T) {
	c, _, out, _ := newTestCLI()

	assert.Equal(t, "a ", c.Parse("a ?"))
	assert.Regexp(t, `a0\s+: a0 function`, out.String())
	assert.Regexp(t, `a2\s+: a2 function`, out.String())
}

func TestParse_FunctionHelp(t *testing.T) {
	c, _, out, rec := newTestCLI()

	assert.Equal(t, "a a0 ", c.Parse("a a0 ?"))
	assert.Regexp(t, `arg0\s+: arg0 description`, out.String())

	out.Reset()
	assert.Equal(t, "a a2 x", c.Parse("a a2 x?"))
	assert.Regexp(t, `<cr>\s+: perform the function`, out.String())

	assert.Empty(t, rec.args, "help does not run the command")
}

func TestParse_History(t *testing.T) {
	c, ed, out, _ := newTestCLI()

	assert.Equal(t, "", c.Parse("history"))
	assert.Equal(t, "no history\n", out.String())

	ed.hist.Append("first")
	ed.hist.Append("second")
	out.Reset()

	assert.Equal(t, "", c.Parse("history"))
	assert.Regexp(t, `(?s)1:\s+first.*0:\s+second`, out.String())

	assert.Equal(t, "first", c.Parse("history 1"))
	assert.Equal(t, "second", c.Parse("hist 0"))

	out.Reset()
	assert.Equal(t, "", c.Parse("history 7"))
	assert.Equal(t, "invalid argument\n", out.String())

	assert.Equal(t, []string{"first", "second"}, ed.hist.Snapshot(), "history commands are not recorded")
}

func TestParse_ActionError(t *testing.T) {
	ed := newFakeEditor()
	out := &bytes.Buffer{}
	root := Menu{Leaf("fail", "always fails", func(*CLI, []string) error { return errors.New("boom") })}
	c := New(ed, out, root)

	assert.Equal(t, "", c.Parse("fail"))
	assert.Equal(t, "fail: boom\n", out.String())
}

func TestParse_BlankLine(t *testing.T) {
	c, ed, out, _ := newTestCLI()

	assert.Equal(t, "", c.Parse("   "))
	assert.Empty(t, out.String())
	assert.Zero(t, ed.hist.Len())
}

func TestGeneralHelp(t *testing.T) {
	c, _, out, _ := newTestCLI()

	c.Parse("help")

	assert.Regexp(t, `<tab>\s+: auto complete commands`, out.String())
	assert.Regexp(t, `\* note\s+: commands can be incomplete`, out.String())
}

func TestRun_UntilExit(t *testing.T) {
	c, ed, _, rec := newTestCLI("a a0 1", "h?", "exit", "a a0 never")

	require.NoError(t, c.Run(context.Background()))

	assert.Equal(t, []string{"", "", "h"}, ed.initials)
	assert.Equal(t, [][]string{{"1"}}, rec.args)
	assert.Equal(t, []string{"a a0 1", "exit"}, ed.hist.Snapshot())
}

func TestRun_StopsAtEOFAndCancel(t *testing.T) {
	c, _, _, _ := newTestCLI()
	require.NoError(t, c.Run(context.Background()))

	c, ed, _, _ := newTestCLI()
	ed.err = editor.ErrCancelled
	require.NoError(t, c.Run(context.Background()))
}

func TestRun_ReturnsEditorErrors(t *testing.T) {
	c, ed, _, _ := newTestCLI()
	ed.err = context.Canceled

	assert.ErrorIs(t, c.Run(context.Background()), context.Canceled)
}

func TestRun_LoadsAndSavesHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0o600))
	store, err := history.NewFileStore(path)
	require.NoError(t, err)

	rec := &calls{}
	ed := newFakeEditor("b b0")
	c := New(ed, io.Discard, testRoot(rec), WithHistoryStore(store))

	require.NoError(t, c.Run(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nb b0\n", string(data))
}

func TestWithPoll(t *testing.T) {
	ed := newFakeEditor()
	New(ed, io.Discard, nil, WithPoll(func() bool { return true }))

	require.NotNil(t, ed.poll)
	assert.True(t, ed.poll())
}
