package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/bond/internal/reconcile"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool        `json:"valid"`
	Files  int         `json:"files"`
	Errors []FileError `json:"errors,omitempty"`
}

// FileError is a validation failure for one reference file.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <path>...",
		Short: "Validate reference observation files",
		Long: `Validate reference observation files against the reference file schema.

Directories are searched recursively for *.json files.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	files, err := collectReferenceFiles(paths)
	if err != nil {
		return commandError(formatter, ErrCodeNotFound, "collect reference files", err)
	}
	formatter.VerboseLog("Found %d reference file(s)", len(files))

	result := ValidationResult{Files: len(files)}
	for _, path := range files {
		formatter.VerboseLog("Validating %s", path)
		if err := validateFile(path); err != nil {
			result.Errors = append(result.Errors, FileError{Path: path, Message: err.Error()})
		}
	}
	result.Valid = len(result.Errors) == 0

	if result.Valid {
		if formatter.JSON() {
			return formatter.Success(result)
		}
		fmt.Fprintf(formatter.Writer, "✓ %d reference file(s) valid\n", result.Files)
		return nil
	}

	if formatter.JSON() {
		if err := formatter.Failure(ErrCodeInvalidFile, result.Errors[0].Message, result); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		fmt.Fprintln(formatter.Writer)
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "%s\n  %s: %s\n\n", e.Path, ErrCodeInvalidFile, e.Message)
		}
	}

	// Validation failures = exit code 1
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))
}

func validateFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = reconcile.ParseFile(data)
	return err
}

// collectReferenceFiles expands directories into the reference files they
// contain. Explicit file arguments are kept regardless of extension.
func collectReferenceFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == reconcile.FileExt {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
