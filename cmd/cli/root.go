package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kcaldas/linenoise/internal/di"
	"github.com/kcaldas/linenoise/pkg/config"
	"github.com/kcaldas/linenoise/pkg/logging"
	"github.com/kcaldas/linenoise/pkg/version"
)

const debugLogFile = "linenoise-debug.log"

// streams is replaced in tests.
var streams = di.StdStreams

// rootOptions holds the global flags.
type rootOptions struct {
	configPath  string
	envFile     string
	historyFile string
	multiline   bool
	verbose     bool
	quiet       bool

	historySet   bool
	multilineSet bool
}

// NewRootCommand builds the linenoise command tree. Without a subcommand it
// runs the echo prompt.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "linenoise",
		Short: "Line editing for terminal programs",
		Long: `linenoise reads lines from the terminal with editing, history,
completion and hints. Without a subcommand it echoes every line typed.`,
		Version:       version.GetVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.historySet = cmd.Flags().Changed("history")
			opts.multilineSet = cmd.Flags().Changed("multiline")
			return opts.setup()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEcho(cmd.Context(), opts)
		},
	}
	cmd.SetVersionTemplate(version.GetInfo().String() + "\n")

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "settings file (default "+config.DefaultPath+")")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "file of LINENOISE_* variables to load")
	cmd.PersistentFlags().StringVar(&opts.historyFile, "history", "", "history file, empty to keep history in memory only")
	cmd.PersistentFlags().BoolVar(&opts.multiline, "multiline", false, "wrap long lines over several rows")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output (debug level)")
	cmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "quiet output (errors only)")

	cmd.AddCommand(
		newKeycodesCommand(opts),
		newLoopCommand(opts),
		newMenuCommand(opts),
	)
	return cmd
}

// setup loads the environment file and installs the logger.
func (o *rootOptions) setup() error {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return err
	}
	logging.SetGlobalLogger(o.newLogger())
	logging.Debug("logging configured", "verbose", o.verbose, "quiet", o.quiet)
	return nil
}

// newLogger logs to LINENOISE_DEBUG_FILE when it is set, since the terminal
// belongs to the editor. Without it -v and -q log to stderr, and everything
// else goes to the default debug file at the env-selected level.
func (o *rootOptions) newLogger() logging.Logger {
	toFile := os.Getenv(logging.DebugFileEnv) != ""
	switch {
	case o.quiet && !toFile:
		return logging.NewQuietLogger()
	case o.verbose && !toFile:
		return logging.NewVerboseLogger()
	}

	logger := logging.NewFileLoggerFromEnv(debugLogFile)
	if o.quiet {
		logger.SetLevel(slog.LevelError)
	} else if o.verbose {
		logger.SetLevel(slog.LevelDebug)
	}
	return logger
}

// override applies the flags given on the command line.
func (o *rootOptions) override(s *config.Settings) {
	if o.multilineSet {
		s.Multiline = o.multiline
	}
	if o.historySet {
		s.History.File = o.historyFile
	}
}

// initialize wires the application for one command.
func (o *rootOptions) initialize() (*di.App, error) {
	app, err := di.InitializeApp(di.SettingsPath(o.configPath), o.override, streams())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return app, nil
}
