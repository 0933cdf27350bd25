package cli

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/bond/internal/reconcile"
)

// ReconcileOptions holds flags for the reconcile command.
type ReconcileOptions struct {
	Current   string
	Reference string
	TestID    string
	NoSave    string
	Mode      string
}

// NewReconcileCommand creates the reconcile command.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReconcileOptions{}

	cmd := &cobra.Command{
		Use:   "reconcile --current <file>",
		Short: "Reconcile recorded observations against a reference file",
		Long: `Reconcile a recorded trace against its reference observation file.

The current file uses the reference file format. When it holds a single
test, --test may be omitted. The reference file defaults to the test's
location under the configured observation directory.

Modes follow the reconcile setting: abort fails on differences, console
reviews them interactively, accept writes them to the reference file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Current, "current", "", "file holding the recorded observations (required)")
	cmd.Flags().StringVar(&opts.Reference, "reference", "", "reference observation file (default: under the observation directory)")
	cmd.Flags().StringVar(&opts.TestID, "test", "", "test identifier (default: the only test in --current)")
	cmd.Flags().StringVar(&opts.NoSave, "no-save", "", "show differences for diagnostics only, with this reason")
	cmd.Flags().StringVar(&opts.Mode, "reconcile", "", "reconcile mode (abort|console|accept); overrides settings")
	_ = cmd.MarkFlagRequired("current")

	return cmd
}

func runReconcile(rootOpts *RootOptions, opts *ReconcileOptions, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)
	settings := rootOpts.settings()
	logger := rootOpts.logger()

	modeName := opts.Mode
	if modeName == "" {
		modeName = settings.Reconcile
	}
	mode, err := reconcile.ParseMode(modeName)
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "reconcile mode", err)
	}

	data, err := os.ReadFile(opts.Current)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, "read current observations", err)
	}
	current, err := reconcile.ParseFile(data)
	if err != nil {
		return commandError(formatter, ErrCodeInvalidFile, opts.Current, err)
	}

	testID, err := pickTestID(current, opts.TestID)
	if err != nil {
		return commandError(formatter, ErrCodeAmbiguousRun, opts.Current, err)
	}

	path := opts.Reference
	if path == "" {
		path = reconcile.FilePath(settings.ObservationDir, testID)
	}
	formatter.VerboseLog("Reconciling %s (%d observations) against %s, reconcile=%s", testID, len(current[testID]), path, mode)

	// Diffs and prompts stay off stdout when it carries JSON.
	var out io.Writer = formatter.Writer
	if formatter.JSON() {
		out = formatter.GetErrWriter()
	}
	r := reconcile.New(mode,
		reconcile.WithOutput(out),
		reconcile.WithLogger(logger),
		reconcile.WithPrompter(reconcile.NewConsolePrompter(cmd.InOrStdin(), out)),
	)

	outcome, err := r.Reconcile(reconcile.Request{
		TestID:       testID,
		Path:         path,
		Observations: current[testID],
		NoSave:       opts.NoSave,
	})
	if reconcile.IsMismatch(err) {
		_ = formatter.Failure(ErrCodeMismatch, fmt.Sprintf("%s: observations differ from %s", testID, path), outcome)
		return WrapExitError(ExitFailure, ErrCodeMismatch+": observations differ", err)
	}
	if err != nil {
		return commandError(formatter, ErrCodeWriteFailed, "reconcile", err)
	}

	if formatter.JSON() {
		return formatter.Success(outcome)
	}
	fmt.Fprintf(formatter.Writer, "✓ %s: %s (%s)\n", testID, outcome.Status, path)
	return nil
}

// pickTestID returns want, or the only test in file when want is empty.
func pickTestID(file reconcile.File, want string) (string, error) {
	if want != "" {
		if _, ok := file[want]; !ok {
			return "", fmt.Errorf("no observations for test %q", want)
		}
		return want, nil
	}
	if len(file) != 1 {
		ids := slices.Sorted(maps.Keys(file))
		return "", fmt.Errorf("--test is required: file holds %d tests %v", len(file), ids)
	}
	for id := range file {
		return id, nil
	}
	return "", nil
}
