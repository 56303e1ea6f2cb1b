package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/memoproxy/internal/orchestrator"
)

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Generate proxies for every memoizable service",
		Long: `Run one generation pass: clear the target directory, generate a proxy
for every service tagged memoizable and write the registration file that
decorates the original services.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(rootOpts, cmd)
		},
	}
}

func runGenerate(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	cfg, logger, err := loadConfig(opts, f)
	if err != nil {
		return err
	}

	orch, err := orchestrator.FromConfig(cfg, logger)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	res, err := orch.Run(cmd.Context())
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneration, err)
	}

	return f.Success(res, func(w io.Writer) {
		if res.Disabled {
			fmt.Fprintln(w, "memoization disabled, nothing generated")
			return
		}
		for _, p := range res.Proxies {
			fmt.Fprintf(w, "%s: %s -> %s (%d/%d memoized)\n", p.ServiceID, p.Type, p.File, p.Memoized, p.Methods)
		}
		for _, id := range res.Skipped {
			fmt.Fprintf(w, "%s: skipped, type not found\n", id)
		}
		fmt.Fprintf(w, "generated %d proxies in %s\n", len(res.Proxies), cfg.TargetDirectory)
		if res.WipeFailures > 0 {
			fmt.Fprintf(w, "warning: %d stale files could not be removed\n", res.WipeFailures)
		}
	})
}
