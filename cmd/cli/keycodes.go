package cli

import (
	"github.com/spf13/cobra"
)

func newKeycodesCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "keycodes",
		Short: "Show the bytes each key sends",
		Long: `Show the bytes each key sends and the key they decode to.
Type 'quit' to exit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := opts.initialize()
			if err != nil {
				return err
			}
			defer app.Close()

			if err := requireTerminal("keycodes", app.Editor.Terminal().In()); err != nil {
				return err
			}
			return app.Editor.PrintKeycodes(cmd.Context(), nil)
		},
	}
}
