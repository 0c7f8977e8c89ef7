// Package cmd implements the snirf-reconcile commands.
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/scigolib/snirf"
	"github.com/scigolib/snirf/internal/config"
	"github.com/scigolib/snirf/internal/logging"
	"github.com/scigolib/snirf/internal/output"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitError   = 1 // NotFound, Format or Access error, or bad usage.
	ExitPartial = 2 // At least one probe field failed to copy.
)

// BuildInfo identifies the binary.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// exitError carries a specific exit code through cobra.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// app holds the state shared by all commands of one invocation.
type app struct {
	build      BuildInfo
	configFile string
	cfg        *config.Config
	logger     zerolog.Logger
}

// Execute runs the command line args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer, build BuildInfo) int {
	root := NewRootCommand(build)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCodeFor(err)
}

// NewRootCommand builds the command tree. Without a subcommand the root runs
// reconcile.
func NewRootCommand(build BuildInfo) *cobra.Command {
	a := &app{build: build, logger: logging.Nop}

	root := &cobra.Command{
		Use:   "snirf-reconcile",
		Short: "Complete the probe metadata of a SNIRF file",
		Long: `snirf-reconcile copies probe metadata (nirs/probe) that is present in a
source SNIRF file but missing from a target SNIRF file.

Entries already present in the target are never overwritten, and entries only
present in the target are never deleted. Running it twice copies nothing the
second time.`,
		Example: `  snirf-reconcile --source raw_data.snirf --target processed.snirf
  snirf-reconcile reconcile --source raw.snirf --target out.snirf --dry-run -o json
  snirf-reconcile keys raw.snirf processed.snirf`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		RunE:              a.runReconcile,
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "",
		"config file (default is $HOME/"+config.ConfigName+".yaml)")
	root.PersistentFlags().StringP("output", "o", "", "Output format: table, json, yaml, toml")
	root.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	root.PersistentFlags().BoolP("quiet", "q", false, "Only log warnings and errors")
	root.PersistentFlags().Bool("no-color", false, "Disable colored output")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error or off")
	root.PersistentFlags().String("log-format", "", "Log format: console, json or auto")
	addReconcileFlags(root)

	root.AddCommand(
		newReconcileCommand(a),
		newKeysCommand(a),
		newInspectCommand(a),
		newDumpCommand(),
		newVersionCommand(a),
	)
	return root
}

// setup loads configuration and the logger before any command runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if _, err := output.ParseFormat(cfg.Output); err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cmd.ErrOrStderr(), cfg.Logging())
	if cfg.ConfigFile != "" {
		a.logger.Debug().Str("file", cfg.ConfigFile).Msg("using config file")
	}
	return nil
}

// format returns the configured output format, detecting one when unset.
func (a *app) format() output.Format {
	f, _ := output.ParseFormat(a.cfg.Output)
	if f == "" {
		return output.DetectFormat("")
	}
	return f
}

// exitCodeFor maps an error returned by a command to an exit code.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitError
}

// exitCode maps the outcome of a reconciliation to an exit code.
func exitCode(report *snirf.Report, err error) int {
	switch {
	case err != nil:
		return ExitError
	case report != nil && report.HasFailures():
		return ExitPartial
	default:
		return ExitOK
	}
}
