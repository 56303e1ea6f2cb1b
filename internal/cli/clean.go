package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/memoproxy/internal/artifact"
	"github.com/vnykmshr/memoproxy/internal/synth"
)

// CleanResult is the output of the clean command
type CleanResult struct {
	Dir     string `json:"dir"`
	Removed int    `json:"removed"`
	Failed  int    `json:"failed"`
}

// NewCleanCommand creates the clean command.
func NewCleanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "clean",
		Short:         "Delete generated proxies from the target directory",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(rootOpts, cmd)
		},
	}
}

func runClean(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	cfg, logger, err := loadConfig(opts, f)
	if err != nil {
		return err
	}

	m := artifact.New(artifact.Config{Dir: cfg.TargetDirectory, Suffix: synth.FileSuffix, Logger: logger})
	wiped, err := m.Wipe()
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeClean, err)
	}

	res := CleanResult{Dir: m.Dir(), Removed: wiped.Removed, Failed: wiped.Failed}
	return f.Success(res, func(w io.Writer) {
		fmt.Fprintf(w, "removed %d generated files from %s\n", res.Removed, res.Dir)
		if res.Failed > 0 {
			fmt.Fprintf(w, "warning: %d files could not be removed\n", res.Failed)
		}
	})
}
