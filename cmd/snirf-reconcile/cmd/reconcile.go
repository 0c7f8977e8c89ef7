package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scigolib/snirf"
	"github.com/scigolib/snirf/internal/output"
)

func addReconcileFlags(cmd *cobra.Command) {
	cmd.Flags().String("source", "", "SNIRF file to copy probe metadata from (read-only)")
	cmd.Flags().String("target", "", "SNIRF file to complete (modified in place)")
	cmd.Flags().Bool("dry-run", false, "Report what would be copied without writing")
}

func newReconcileCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Copy missing probe entries from source to target",
		Long: `Copy every entry of the source nirs/probe group that the target lacks.

Exit status is 0 on success (including when nothing needed copying), 1 when a
file is missing, malformed or not writable, and 2 when some fields could not
be copied.`,
		Args: cobra.NoArgs,
		RunE: a.runReconcile,
	}
	addReconcileFlags(cmd)
	return cmd
}

func (a *app) runReconcile(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return fmt.Errorf("unexpected arguments %v: use --source and --target", args)
	}
	if a.cfg.Source == "" || a.cfg.Target == "" {
		return errors.New("both --source and --target are required")
	}

	report, err := snirf.Reconcile(a.cfg.Source, a.cfg.Target,
		snirf.WithLogger(a.logger),
		snirf.WithDryRun(a.cfg.DryRun),
	)
	if err != nil {
		return err
	}

	format := a.format()
	out := cmd.OutOrStdout()
	if err := output.Render(out, format, report); err != nil {
		return err
	}
	if format == output.FormatTable {
		fmt.Fprintln(out, output.Summary(report))
	}

	if code := exitCode(report, nil); code != ExitOK {
		return &exitError{code: code, err: report.Err()}
	}
	return nil
}
