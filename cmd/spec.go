package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clify-dev/clify/internal/cligen"
	"github.com/clify-dev/clify/internal/spec"
)

func newSpecCmd(model *spec.Model, table *cligen.Table) *cobra.Command {
	specCmd := &cobra.Command{
		Use:           "spec",
		Short:         "Inspect the loaded OpenAPI document",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	specCmd.AddCommand(newSpecListCmd(model, table))
	specCmd.AddCommand(newSpecVerifyCmd(model))

	return specCmd
}

func newSpecListCmd(model *spec.Model, table *cligen.Table) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List the generated commands and their operations",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if model.Title != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n\n", model.Title, model.Version)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 4, 2, ' ', 0)
			for _, d := range table.All() {
				summary := d.Op.Summary
				fmt.Fprintf(tw, "%s\t%s %s\t%s\n", d.Name, d.Op.Method, d.Op.Path, summary)
			}
			return tw.Flush()
		},
	}
}

func newSpecVerifyCmd(model *spec.Model) *cobra.Command {
	return &cobra.Command{
		Use:           "verify",
		Short:         "Verify the document yields a stable, collision-free command set",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			first := cligen.Synthesize(model)
			second := cligen.Synthesize(model)
			if len(first) != len(second) {
				return fmt.Errorf("synthesis is unstable: %d vs %d commands", len(first), len(second))
			}
			seen := make(map[string]bool, len(first))
			for i, d := range first {
				if d.Name != second[i].Name {
					return fmt.Errorf("synthesis is unstable: %q vs %q at %d", d.Name, second[i].Name, i)
				}
				if seen[d.Name] {
					return fmt.Errorf("duplicate command name %q", d.Name)
				}
				seen[d.Name] = true
			}
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
