package cli

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

// requireTerminal fails when f is a pipe or a file. Commands that only make
// sense with a keyboard attached use it.
func requireTerminal(name string, f *os.File) error {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return nil
	}
	return fmt.Errorf("%s needs an interactive terminal", name)
}
