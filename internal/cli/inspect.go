package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vnykmshr/memoproxy/internal/model"
	"github.com/vnykmshr/memoproxy/internal/orchestrator"
	"github.com/vnykmshr/memoproxy/internal/synth"
)

// ServiceReport is the inspect output of one service
type ServiceReport struct {
	ServiceID  string         `json:"service_id"`
	Type       string         `json:"type"`
	ProxyType  string         `json:"proxy_type"`
	Interfaces []string       `json:"interfaces"`
	Methods    []MethodReport `json:"methods"`
}

// MethodReport is the inspect output of one method
type MethodReport struct {
	Signature  string `json:"signature"`
	Memoized   bool   `json:"memoized"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
	Origin     string `json:"origin"`
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the resolved directives of every memoizable service",
		Long: `Introspect every service tagged memoizable and print its interfaces and
methods with the effective memoization setting, without writing files.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, cmd)
		},
	}
}

func runInspect(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	cfg, logger, err := loadConfig(opts, f)
	if err != nil {
		return err
	}

	orch, err := orchestrator.FromConfig(cfg, logger)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, err)
	}

	descs, err := orch.Describe(cmd.Context())
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeGeneration, err)
	}

	reports := make([]ServiceReport, 0, len(descs))
	for _, d := range descs {
		reports = append(reports, report(d))
	}

	return f.Success(reports, func(w io.Writer) {
		for _, r := range reports {
			fmt.Fprintf(w, "%s (%s) -> %s\n", r.ServiceID, r.Type, r.ProxyType)
			for _, iface := range r.Interfaces {
				fmt.Fprintf(w, "  implements %s\n", iface)
			}
			for _, m := range r.Methods {
				if m.Memoized {
					fmt.Fprintf(w, "  [memo %ds, %s] %s\n", m.TTLSeconds, m.Origin, m.Signature)
				} else {
					fmt.Fprintf(w, "  [forward]     %s\n", m.Signature)
				}
			}
		}
	})
}

func report(d model.ProxyDescriptor) ServiceReport {
	r := ServiceReport{
		ServiceID: d.ServiceID,
		Type:      d.Original.String(),
		ProxyType: synth.ProxyName(d),
	}
	for _, iface := range d.Interfaces {
		r.Interfaces = append(r.Interfaces, iface.String())
	}
	for _, m := range d.Methods {
		mr := MethodReport{
			Signature: m.Signature(nil),
			Memoized:  m.Directive.Enabled,
			Origin:    m.Directive.Origin.String(),
		}
		if m.Directive.Enabled {
			mr.TTLSeconds = m.Directive.Seconds
		}
		r.Methods = append(r.Methods, mr)
	}
	return r
}
