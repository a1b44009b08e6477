package main

import (
	"fmt"

	goSession "github.com/MrEthical07/goSession"
	"github.com/spf13/cobra"
)

func newLintCmd(o *options) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate the config and report questionable settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := o.config()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			findings := cfg.Lint()
			if len(findings) == 0 {
				fmt.Fprintln(out, "config ok")
				return nil
			}
			for _, w := range findings {
				fmt.Fprintf(out, "%-5s %-24s %s\n", w.Severity, w.Code, w.Message)
			}
			if strict && len(findings.BySeverity(goSession.LintWarn)) > 0 {
				return fmt.Errorf("%d lint warnings", len(findings.BySeverity(goSession.LintWarn)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "fail on warnings")
	return cmd
}
