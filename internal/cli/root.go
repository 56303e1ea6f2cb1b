// Package cli implements the memoproxy command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/memoproxy/internal/config"
	"github.com/vnykmshr/memoproxy/pkg/memoize"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "memoproxy",
		Short: "Generate caching proxies for Go services",
		Long: `memoproxy generates, for every service type marked memoizable, a proxy
type implementing the same interfaces that caches method results in a
memoize.Pool and forwards every other call unchanged.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, "usage",
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "usage", err)
	})

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", config.DefaultFile, "configuration file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewGenerateCommand(opts))
	cmd.AddCommand(NewInspectCommand(opts))
	cmd.AddCommand(NewCleanCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// loadConfig reads the configuration and builds the logger it describes
func loadConfig(opts *RootOptions, f *OutputFormatter) (*config.Config, memoize.Logger, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	f.VerboseLog("loaded %s", opts.ConfigPath)

	logger, err := NewLogger(cfg.Log, opts.Verbose, f.errWriter())
	if err != nil {
		return nil, nil, f.Fail(ExitCommandError, ErrCodeConfig, err)
	}
	return cfg, logger, nil
}

// NewLogger builds a slog-backed logger writing to w. Verbose forces debug.
func NewLogger(lc config.LogConfig, verbose bool, w io.Writer) (memoize.Logger, error) {
	level, err := memoize.ParseLogLevel(lc.Level)
	if err != nil {
		return nil, err
	}
	if verbose {
		level = memoize.LogLevelDebug
	}
	if level == memoize.LogLevelNone {
		return memoize.NewNoOpLogger(), nil
	}

	hopts := &slog.HandlerOptions{Level: slogLevel(level)}
	var handler slog.Handler
	if lc.Format == "json" {
		handler = slog.NewJSONHandler(w, hopts)
	} else {
		handler = slog.NewTextHandler(w, hopts)
	}
	return memoize.NewSlogLogger(slog.New(handler)), nil
}

func slogLevel(level memoize.LogLevel) slog.Level {
	switch level {
	case memoize.LogLevelDebug:
		return slog.LevelDebug
	case memoize.LogLevelWarn:
		return slog.LevelWarn
	case memoize.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
