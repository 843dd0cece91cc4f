package menu

import (
	"github.com/olekukonko/tablewriter"
)

var (
	crHelp = []HelpLine{
		{"<cr>", "perform the function"},
	}

	generalHelp = []HelpLine{
		{"?", "display command help - Eg. ?, show ?, s?"},
		{"<up>", "go backwards in command history"},
		{"<dn>", "go forwards in command history"},
		{"<tab>", "auto complete commands"},
		{"* note", "commands can be incomplete - Eg. sh = sho = show"},
	}

	// HistoryHelp documents the arguments of the history command.
	HistoryHelp = []HelpLine{
		{"<cr>", "display all history"},
		{"<index>", "recall history entry <index>"},
	}
)

// HelpItem is a "help" command showing the general help.
func HelpItem() Item {
	return Leaf("help", "general help", func(c *CLI, _ []string) error {
		c.GeneralHelp()
		return nil
	})
}

// HistoryItem is a "history" command listing or recalling history entries.
func HistoryItem() Item {
	return Leaf("history", "command history", func(c *CLI, args []string) error {
		c.Recall(c.DisplayHistory(args))
		return nil
	}, HistoryHelp...)
}

// ExitItem is an "exit" command ending Run.
func ExitItem() Item {
	return Leaf("exit", "exit application", func(c *CLI, _ []string) error {
		c.Exit()
		return nil
	})
}

// GeneralHelp explains the editing keys.
func (c *CLI) GeneralHelp() {
	c.helpTable(generalHelp)
}

func (c *CLI) commandHelp(cmd string, menu Menu) {
	var rows [][]string
	for _, it := range menu.withPrefix(cmd) {
		rows = append(rows, []string{it.Name, ": " + it.Descr})
	}
	c.table(rows)
}

func (c *CLI) functionHelp(item Item) {
	help := item.Help
	if len(help) == 0 {
		help = crHelp
	}
	c.helpTable(help)
}

func (c *CLI) helpTable(lines []HelpLine) {
	rows := make([][]string, len(lines))
	for i, l := range lines {
		descr := ""
		if l.Descr != "" {
			descr = ": " + l.Descr
		}
		rows[i] = []string{l.Param, descr}
	}
	c.table(rows)
}

// table prints rows as borderless left-aligned columns.
func (c *CLI) table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	t := tablewriter.NewWriter(c.out)
	t.SetBorder(false)
	t.SetHeaderLine(false)
	t.SetRowLine(false)
	t.SetColumnSeparator("")
	t.SetCenterSeparator("")
	t.SetRowSeparator("")
	t.SetAutoWrapText(false)
	t.SetAlignment(tablewriter.ALIGN_LEFT)
	for _, r := range rows {
		t.Append(r)
	}
	t.Render()
}
