package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bond/internal/reconcile"
)

// FmtResult reports the files the fmt command looked at.
type FmtResult struct {
	Files []FmtFile `json:"files"`
}

// FmtFile is the fmt outcome for one file.
type FmtFile struct {
	Path    string `json:"path"`
	Changed bool   `json:"changed"`
	Error   string `json:"error,omitempty"`
}

// NewFmtCommand creates the fmt command.
func NewFmtCommand(rootOpts *RootOptions) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "fmt <file>...",
		Short: "Rewrite reference files in canonical form",
		Long: `Rewrite reference observation files in canonical form: one observation
per line, keys sorted with the spy point first.

With --check, files are left untouched and the command fails when any of
them would change.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFmt(rootOpts, check, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "report files that are not canonical without rewriting them")

	return cmd
}

func runFmt(rootOpts *RootOptions, check bool, paths []string, cmd *cobra.Command) error {
	formatter := rootOpts.formatter(cmd)
	logger := rootOpts.logger()

	var result FmtResult
	var invalid, changed int
	for _, path := range paths {
		entry := FmtFile{Path: path}
		if err := formatFile(path, check, &entry); err != nil {
			entry.Error = err.Error()
			invalid++
		}
		if entry.Changed {
			changed++
			logger.Debug("reference file not canonical", "path", path, "rewritten", !check)
		}
		result.Files = append(result.Files, entry)
	}

	failed := invalid > 0 || (check && changed > 0)
	if formatter.JSON() {
		if failed {
			_ = formatter.Failure(ErrCodeUnformatted, fmt.Sprintf("%d invalid, %d not canonical", invalid, changed), result)
		} else if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		for _, f := range result.Files {
			switch {
			case f.Error != "":
				fmt.Fprintf(formatter.Writer, "✗ %s: %s\n", f.Path, f.Error)
			case f.Changed && check:
				fmt.Fprintf(formatter.Writer, "✗ %s: not canonical\n", f.Path)
			case f.Changed:
				fmt.Fprintf(formatter.Writer, "✓ %s: rewritten\n", f.Path)
			default:
				formatter.VerboseLog("%s: already canonical", f.Path)
			}
		}
	}

	if failed {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d invalid, %d not canonical", ErrCodeUnformatted, invalid, changed))
	}
	return nil
}

func formatFile(path string, check bool, entry *FmtFile) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	formatted, err := reconcile.Format(data)
	if err != nil {
		return err
	}
	if formatted == string(data) {
		return nil
	}
	entry.Changed = true
	if check {
		return nil
	}
	return os.WriteFile(path, []byte(formatted), 0o644)
}
