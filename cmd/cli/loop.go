package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
)

const loopExitKey = 0x04 // ctrl-d

func newLoopCommand(opts *rootOptions) *cobra.Command {
	var (
		count    int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "loop",
		Short: "Run a background task until ctrl-d",
		Long: `Run a task that prints a line per step while the terminal stays
in raw mode. Press ctrl-d to stop early.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("count must be positive, got %d", count)
			}
			app, err := opts.initialize()
			if err != nil {
				return err
			}
			defer app.Close()

			term := app.Editor.Terminal()
			if err := requireTerminal("loop", term.In()); err != nil {
				return err
			}
			out := term.Out()

			fmt.Fprint(out, "looping: press ctrl-d to exit\r\n")
			completed, err := app.Editor.Loop(cmd.Context(), loopStep(out, count, interval), loopExitKey)
			if err != nil {
				return err
			}
			if completed {
				fmt.Fprintln(out, "loop completed")
			} else {
				fmt.Fprintln(out, "early exit of loop")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 10, "number of steps")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "time between steps")
	return cmd
}

// loopStep returns a step function that prints one line per interval and
// reports completion after count lines.
func loopStep(out io.Writer, count int, interval time.Duration) func() bool {
	idx := 0
	var next time.Time
	return func() bool {
		now := time.Now()
		if now.Before(next) {
			return false
		}
		// Raw mode: no newline translation.
		fmt.Fprintf(out, "loop index %d/%d\r\n", idx, count)
		idx++
		next = now.Add(interval)
		return idx >= count
	}
}
