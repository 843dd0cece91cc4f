package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kcaldas/linenoise/pkg/menu"
)

const menuPrompt = "cli> "

var argumentHelp = []menu.HelpLine{
	{Param: "arg0", Descr: "arg0 description"},
	{Param: "arg1", Descr: "arg1 description"},
	{Param: "arg2", Descr: "arg2 description"},
}

// demoLeaf prints the arguments it was called with.
func demoLeaf(name string, help ...menu.HelpLine) menu.Item {
	return menu.Leaf(name, name+" function description", func(c *menu.CLI, args []string) error {
		c.Printf("%s function arguments %q\n", name, args)
		return nil
	}, help...)
}

// demoMenu is a small command tree showing nested menus and argument help.
func demoMenu() menu.Menu {
	return menu.Menu{
		menu.Submenu("a", "a functions",
			demoLeaf("a0", argumentHelp...),
			demoLeaf("a1", argumentHelp...),
			demoLeaf("a2"),
		),
		menu.Submenu("b", "b functions",
			demoLeaf("b0", argumentHelp...),
			demoLeaf("b1"),
		),
		menu.Submenu("c", "c functions",
			demoLeaf("c0", argumentHelp...),
			demoLeaf("c1", argumentHelp...),
			demoLeaf("c2"),
		),
		menu.ExitItem(),
		menu.HelpItem(),
		menu.HistoryItem(),
	}
}

func newMenuCommand(opts *rootOptions) *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "menu",
		Short: "Run a demo command menu",
		Long: `Run a command menu with nested commands. Commands may be
abbreviated, <tab> completes them and '?' shows help.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.initialize()
			if err != nil {
				return err
			}
			defer app.Close()

			c := menu.New(app.Editor, app.Editor.Terminal().Out(), demoMenu(),
				menu.WithPrompt(prompt),
				menu.WithHistoryStore(app.Store),
				menu.WithLogger(app.Logger.With("component", "menu")),
			)
			if err := c.Run(cmd.Context()); err != nil {
				return fmt.Errorf("menu: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", menuPrompt, "command prompt")
	return cmd
}
