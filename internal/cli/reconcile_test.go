package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bond/internal/config"
	"github.com/roach88/bond/internal/reconcile"
)

const chargeObs = `{"__spyPoint__":"payment.charge","amount":42}`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runReconcileCmd(t *testing.T, rootOpts *RootOptions, args ...string) (string, string, error) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	cmd := NewReconcileCommand(rootOpts)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetIn(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestReconcileAcceptThenAbort(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, filepath.Join(dir, "current.json"), reconcile.Render("TestCharge", []string{chargeObs}))
	reference := filepath.Join(dir, "reference", "TestCharge.json")

	out, _, err := runReconcileCmd(t, &RootOptions{Format: "text"},
		"--current", current, "--reference", reference, "--reconcile", "accept")
	require.NoError(t, err)
	assert.Contains(t, out, "Accepting (reconcile=accept) differences for TestCharge")
	assert.Contains(t, out, "✓ TestCharge: accepted")
	assert.FileExists(t, reference)

	out, _, err = runReconcileCmd(t, &RootOptions{Format: "text"},
		"--current", current, "--reference", reference, "--reconcile", "abort")
	require.NoError(t, err)
	assert.Equal(t, "✓ TestCharge: matched ("+reference+")\n", out)
}

func TestReconcileMismatchJSON(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, filepath.Join(dir, "current.json"), reconcile.Render("TestCharge", []string{chargeObs}))
	reference := writeFile(t, filepath.Join(dir, "ref.json"), reconcile.Render("TestCharge", nil))

	out, diag, err := runReconcileCmd(t, &RootOptions{Format: "json"},
		"--current", current, "--reference", reference, "--reconcile", "abort")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.True(t, reconcile.IsMismatch(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeMismatch, resp.Error.Code)
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "rejected", data["status"])

	// The diff goes to stderr so stdout stays parseable.
	assert.Contains(t, diag, "+    "+chargeObs)
}

func TestReconcileUsesSettings(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, filepath.Join(dir, "current.json"), reconcile.Render("TestCharge/eur", []string{chargeObs}))
	rootOpts := &RootOptions{
		Format:   "text",
		Settings: config.Settings{Reconcile: "accept", ObservationDir: filepath.Join(dir, "obs"), LogLevel: "off"},
	}

	_, _, err := runReconcileCmd(t, rootOpts, "--current", current)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(dir, "obs", "TestCharge", "eur.json"))
}

func TestReconcileNoSave(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, filepath.Join(dir, "current.json"), reconcile.Render("TestCharge", []string{chargeObs}))
	reference := filepath.Join(dir, "ref.json")

	out, _, err := runReconcileCmd(t, &RootOptions{Format: "text"},
		"--current", current, "--reference", reference, "--reconcile", "accept", "--no-save", "test failed")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ TestCharge: unsaved")
	assert.NoFileExists(t, reference)
}

func TestReconcileCommandErrors(t *testing.T) {
	dir := t.TempDir()
	two := writeFile(t, filepath.Join(dir, "two.json"), `{"TestA":[],"TestB":[]}`)
	broken := writeFile(t, filepath.Join(dir, "broken.json"), `{"TestA":{}}`)

	tests := []struct {
		name string
		args []string
		code string
	}{
		{"missing current", []string{"--current", filepath.Join(dir, "nope.json")}, ErrCodeNotFound},
		{"invalid current", []string{"--current", broken}, ErrCodeInvalidFile},
		{"ambiguous test", []string{"--current", two}, ErrCodeAmbiguousRun},
		{"unknown test", []string{"--current", two, "--test", "TestC"}, ErrCodeAmbiguousRun},
		{"bad mode", []string{"--current", two, "--test", "TestA", "--reconcile", "dialog"}, ErrCodeConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runReconcileCmd(t, &RootOptions{Format: "text"}, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.code)
			assert.Contains(t, out, "Error ["+tt.code+"]")
		})
	}
}

func TestReconcileConsoleWithoutTerminal(t *testing.T) {
	dir := t.TempDir()
	current := writeFile(t, filepath.Join(dir, "current.json"), reconcile.Render("TestCharge", []string{chargeObs}))

	stdin, err := os.Create(filepath.Join(dir, "stdin"))
	require.NoError(t, err)
	defer stdin.Close()

	cmd := NewReconcileCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(stdin)
	cmd.SetArgs([]string{"--current", current, "--reference", filepath.Join(dir, "ref.json"), "--reconcile", "console"})

	err = cmd.Execute()
	require.Error(t, err)
	assert.ErrorIs(t, err, reconcile.ErrNoTerminal)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}
