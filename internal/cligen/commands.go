package cligen

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clify-dev/clify/internal/httpclient"
)

// AddCommands registers one cobra command per dispatch table entry.
func AddCommands(root *cobra.Command, table *Table) {
	for _, d := range table.All() {
		root.AddCommand(buildCommand(d))
	}
}

func buildCommand(d *Descriptor) *cobra.Command {
	op := d.Op
	short := op.Summary
	if short == "" {
		short = fmt.Sprintf("%s %s", op.Method, op.Path)
	}

	cmd := &cobra.Command{
		Use:   d.Name,
		Short: short,
		Long:  longHelp(d),
		Args:  cobra.NoArgs,
	}

	bindings := bindParamFlags(cmd.Flags(), d)

	var dataArg string
	if op.Body != nil {
		usage := "request body: inline JSON, @file, or - for stdin"
		if op.Body.Required {
			usage += " (required)"
		}
		cmd.Flags().StringVarP(&dataArg, "data", "d", "", usage)
	}

	cmd.RunE = func(cmd *cobra.Command, _ []string) error {
		// Flags parsed successfully past this point; later failures are
		// not usage errors.
		cmd.SilenceUsage = true

		rt, ok := RuntimeFrom(cmd.Context())
		if !ok {
			return errors.New("runtime not initialized")
		}

		values, err := collectValues(cmd.Flags(), bindings)
		if err != nil {
			return err
		}

		payload, contentType, err := resolveBody(op, dataArg, rt.Stdin)
		if err != nil {
			return err
		}
		if warn := validateBody(op, payload); warn != "" {
			fmt.Fprintf(rt.Stderr, "warning: %s\n", warn)
		}

		req, err := BuildRequest(cmd.Context(), rt, op, values, payload, contentType)
		if err != nil {
			return err
		}

		res, err := rt.Client.Do(req, payload)
		if err != nil {
			return err
		}

		if res.Status >= 400 {
			if perr := rt.Printer.PrintErrorResponse(res.Status, res.Headers, res.Body); perr != nil {
				return perr
			}
			return &httpclient.StatusError{Status: res.Status}
		}
		return rt.Printer.PrintResponse(res.Status, res.Headers, res.Body)
	}

	return cmd
}

func longHelp(d *Descriptor) string {
	op := d.Op
	var sb strings.Builder
	if op.Description != "" {
		sb.WriteString(strings.TrimRight(op.Description, "\n"))
		sb.WriteString("\n\n")
	} else if op.Summary != "" {
		sb.WriteString(op.Summary)
		sb.WriteString("\n\n")
	}
	fmt.Fprintf(&sb, "%s %s", op.Method, op.Path)

	if op.Body != nil && len(op.Body.Fields) > 0 {
		fmt.Fprintf(&sb, "\n\nRequest body fields (%s):\n", bodyContentType(op.Body))
		tw := tabwriter.NewWriter(&sb, 2, 4, 2, ' ', 0)
		for _, f := range op.Body.Fields {
			typ := f.Type
			if typ == "" {
				typ = "any"
			}
			req := ""
			if f.Required {
				req = " (required)"
			}
			fmt.Fprintf(tw, "  %s\t%s%s\n", f.Name, typ, req)
		}
		_ = tw.Flush()
		sb.WriteString("\nPass the payload with --data: inline JSON, @file, or - for stdin.")
	}
	return sb.String()
}
