// Package menu runs a command line interface over a tree of menus. Commands
// may be abbreviated to any unambiguous prefix, Tab completes them and a
// trailing '?' shows help for whatever has been typed so far.
package menu

import "strings"

// Action runs a leaf command with the words typed after it.
type Action func(c *CLI, args []string) error

// HelpLine documents one parameter of a leaf command.
type HelpLine struct {
	Param string
	Descr string
}

// Item is one entry of a menu: either a submenu (Sub set) or a leaf command
// (Action set).
type Item struct {
	Name  string
	Descr string
	Sub   Menu
	// Action runs the command. Ignored when Sub is set.
	Action Action
	// Help lists the leaf parameters. Nil shows the generic <cr> help.
	Help []HelpLine
}

// IsSubmenu reports whether the item opens another menu.
func (it Item) IsSubmenu() bool {
	return it.Sub != nil
}

// Menu is one level of the command tree.
type Menu []Item

// Submenu builds a submenu item.
func Submenu(name, descr string, items ...Item) Item {
	return Item{Name: name, Descr: descr, Sub: Menu(items)}
}

// Leaf builds a command item.
func Leaf(name, descr string, action Action, help ...HelpLine) Item {
	return Item{Name: name, Descr: descr, Action: action, Help: help}
}

// withPrefix returns the items whose name starts with prefix.
func (m Menu) withPrefix(prefix string) Menu {
	var out Menu
	for _, it := range m {
		if strings.HasPrefix(it.Name, prefix) {
			out = append(out, it)
		}
	}
	return out
}

// resolve matches cmd against the menu: an exact name wins, otherwise every
// item with cmd as prefix matches.
func (m Menu) resolve(cmd string) Menu {
	var out Menu
	for _, it := range m {
		if it.Name == cmd {
			return Menu{it}
		}
		if strings.HasPrefix(it.Name, cmd) {
			out = append(out, it)
		}
	}
	return out
}

func (m Menu) names() []string {
	names := make([]string, len(m))
	for i, it := range m {
		names[i] = it.Name
	}
	return names
}

// span is the byte range of one space-separated word.
type span struct{ start, end int }

func splitIndex(s string) []span {
	var spans []span
	start := -1
	for i := 0; i <= len(s); i++ {
		space := i == len(s) || s[i] == ' '
		switch {
		case space && start >= 0:
			spans = append(spans, span{start, i})
			start = -1
		case !space && start < 0:
			start = i
		}
	}
	return spans
}

// Complete returns the completed command lines for line. The candidates are
// padded with spaces to at least the length of line so the cursor does not
// jump back while cycling.
func (m Menu) Complete(line string) []string {
	prefix := ""
	menu := m
	for _, sp := range splitIndex(line) {
		cmd := line[sp.start:sp.end]
		prefix = line[:sp.end]

		matches := menu.withPrefix(cmd)
		switch {
		case len(matches) == 0:
			return nil
		case len(matches) > 1:
			return completions(prefix, len(line), cmd, matches.names())
		}

		item := matches[0]
		if len(cmd) < len(item.Name) {
			return completions(prefix, len(line), cmd, []string{item.Name})
		}
		if !item.IsSubmenu() {
			return nil
		}
		menu = item.Sub
	}
	return completions(prefix, len(line), "", menu.names())
}

func completions(prefix string, minLen int, cmd string, names []string) []string {
	if cmd == "" && prefix != "" {
		prefix += " "
	}
	out := make([]string, len(names))
	for i, name := range names {
		l := prefix + name[len(cmd):]
		if pad := minLen - len(l); pad > 0 {
			l += strings.Repeat(" ", pad)
		}
		out[i] = l
	}
	return out
}
