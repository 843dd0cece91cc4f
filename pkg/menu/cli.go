package menu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"github.com/kcaldas/linenoise/pkg/completion"
	"github.com/kcaldas/linenoise/pkg/editor"
	"github.com/kcaldas/linenoise/pkg/history"
	"github.com/kcaldas/linenoise/pkg/logging"
)

// HelpKey is the hot key that asks for help on the current line.
const HelpKey = '?'

// DefaultPrompt is used when no prompt is configured.
const DefaultPrompt = "> "

// LineEditor is the part of the line editor the CLI drives.
type LineEditor interface {
	Edit(ctx context.Context, prompt, initial string) (string, error)
	History() *history.List
	SetCompleter(c completion.Completer)
	SetHotKey(key rune)
	SetAutoHistory(enabled bool)
	SetPoll(fn editor.PollFunc)
}

// CLI reads commands with a LineEditor and dispatches them through a menu
// tree. It records valid and unknown commands in the editor history itself.
type CLI struct {
	ed      LineEditor
	out     io.Writer
	root    Menu
	prompt  string
	store   *history.FileStore
	logger  logging.Logger
	running bool
	next    *string
}

// Option configures a CLI.
type Option func(*CLI)

// WithPrompt sets the command prompt.
func WithPrompt(prompt string) Option {
	return func(c *CLI) { c.prompt = prompt }
}

// WithHistoryStore loads history when Run starts and saves it when Run ends.
func WithHistoryStore(store *history.FileStore) Option {
	return func(c *CLI) { c.store = store }
}

// WithPoll sets the function the editor calls while waiting for input.
func WithPoll(fn editor.PollFunc) Option {
	return func(c *CLI) { c.ed.SetPoll(fn) }
}

// WithLogger sets the CLI logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *CLI) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a CLI on ed that writes command output to out.
func New(ed LineEditor, out io.Writer, root Menu, opts ...Option) *CLI {
	c := &CLI{
		ed:     ed,
		out:    out,
		root:   root,
		prompt: DefaultPrompt,
		logger: logging.NewComponentLogger("menu"),
	}
	for _, opt := range opts {
		opt(c)
	}
	ed.SetCompleter(completion.CompleterFunc(func(line string) []string {
		return c.root.Complete(line)
	}))
	ed.SetHotKey(HelpKey)
	ed.SetAutoHistory(false)
	return c
}

// SetRoot replaces the menu tree.
func (c *CLI) SetRoot(root Menu) { c.root = root }

// SetPrompt replaces the command prompt.
func (c *CLI) SetPrompt(prompt string) { c.prompt = prompt }

// Complete returns the completions for line.
func (c *CLI) Complete(line string) []string { return c.root.Complete(line) }

// Printf writes command output.
func (c *CLI) Printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

// Out is where command output goes.
func (c *CLI) Out() io.Writer { return c.out }

// Exit makes Run return after the current command.
func (c *CLI) Exit() { c.running = false }

// Recall makes line the initial contents of the next prompt. A command that
// recalls a line is not recorded in history.
func (c *CLI) Recall(line string) { c.next = &line }

// Run reads and dispatches commands until Exit is called, the user cancels
// or input ends. History is saved on the way out when a store is configured.
func (c *CLI) Run(ctx context.Context) error {
	if c.store != nil {
		if err := c.store.Load(c.ed.History()); err != nil {
			c.logger.Warn("failed to load history", "path", c.store.Path(), "error", err)
		}
	}

	c.running = true
	line := ""
	var runErr error
	for c.running {
		input, err := c.ed.Edit(ctx, c.prompt, line)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, editor.ErrCancelled) {
				runErr = err
			}
			break
		}
		line = c.Parse(input)
	}
	c.running = false

	if c.store != nil {
		if err := c.store.Save(c.ed.History()); err != nil {
			logging.LogError(c.logger, "failed to save history", err, "path", c.store.Path())
			runErr = errors.Join(runErr, err)
		}
	}
	return runErr
}

// Parse processes one command line and returns the initial contents for the
// next prompt: usually empty, or the same line when help was shown or more
// input is needed.
func (c *CLI) Parse(line string) string {
	words := tokenize(line)
	if len(words) == 0 {
		return ""
	}

	menu := c.root
	for idx, word := range words {
		if cmd, ok := strings.CutSuffix(word, string(HelpKey)); ok {
			c.commandHelp(cmd, menu)
			return dropHelpKey(line)
		}

		matches := menu.resolve(word)
		switch {
		case len(matches) == 0:
			c.displayError("unknown command", words, idx)
			// Recorded so the user can fix it up.
			c.record(line)
			return ""
		case len(matches) > 1:
			c.displayError("ambiguous command", words, idx)
			return ""
		}

		item := matches[0]
		if item.IsSubmenu() {
			menu = item.Sub
			continue
		}

		args := words[idx+1:]
		if len(args) > 0 && strings.HasSuffix(args[len(args)-1], string(HelpKey)) {
			c.functionHelp(item)
			return dropHelpKey(line)
		}
		return c.invoke(item, args, line)
	}

	c.Printf("additional input needed\n")
	return line
}

func (c *CLI) invoke(item Item, args []string, line string) string {
	c.next = nil
	if item.Action != nil {
		if err := item.Action(c, args); err != nil {
			c.logger.Debug("command failed", "command", item.Name, "error", err)
			c.Printf("%s: %v\n", item.Name, err)
		}
	}
	if c.next != nil {
		next := *c.next
		c.next = nil
		return next
	}
	c.record(line)
	return ""
}

func (c *CLI) record(line string) {
	if line = strings.TrimSpace(line); line != "" {
		c.ed.History().Append(line)
	}
}

// tokenize splits a command line into words, honouring shell quoting. A line
// with unbalanced quotes falls back to splitting on spaces.
func tokenize(line string) []string {
	words, err := shlex.Split(line)
	if err != nil {
		return strings.Fields(line)
	}
	return words
}

func dropHelpKey(line string) string {
	return strings.TrimSuffix(line, string(HelpKey))
}

func (c *CLI) displayError(msg string, words []string, idx int) {
	marker := make([]string, len(words))
	for i, w := range words {
		ch := " "
		if i == idx {
			ch = "^"
		}
		marker[i] = strings.Repeat(ch, len(w))
	}
	c.Printf("%s\n%s\n%s\n", msg, strings.Join(words, " "), strings.Join(marker, " "))
}

// IntArg parses arg as a base-10 integer within [lo, hi]. It prints
// "invalid argument" and reports false otherwise.
func (c *CLI) IntArg(arg string, lo, hi int) (int, bool) {
	val, err := strconv.Atoi(arg)
	if err != nil || val < lo || val > hi {
		c.Printf("invalid argument\n")
		return 0, false
	}
	return val, true
}

// DisplayHistory lists the history with the newest entry numbered 0, or,
// given one index, returns that entry for editing.
func (c *CLI) DisplayHistory(args []string) string {
	entries := c.ed.History().Snapshot()
	n := len(entries)
	if len(args) == 1 {
		idx, ok := c.IntArg(args[0], 0, n-1)
		if !ok {
			return ""
		}
		return entries[n-idx-1]
	}
	if n == 0 {
		c.Printf("no history\n")
		return ""
	}
	rows := make([][]string, n)
	for i, e := range entries {
		rows[i] = []string{strconv.Itoa(n-i-1) + ":", e}
	}
	c.table(rows)
	return ""
}
