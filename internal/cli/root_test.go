package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bond/internal/config"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "bond", cmd.Use)
	assert.Contains(t, cmd.Long, "reference observation files")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"reconcile", "fmt", "validate"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestReconcileCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	reconcileCmd, _, err := cmd.Find([]string{"reconcile"})
	require.NoError(t, err)

	for _, name := range []string{"current", "reference", "test", "no-save", "reconcile"} {
		assert.NotNil(t, reconcileCmd.Flags().Lookup(name), "flag %s", name)
	}
}

func TestFmtCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	fmtCmd, _, err := cmd.Find([]string{"fmt"})
	require.NoError(t, err)

	checkFlag := fmtCmd.Flags().Lookup("check")
	require.NotNil(t, checkFlag)
	assert.Equal(t, "false", checkFlag.DefValue)
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--format", "invalid", "validate", "."})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestRootLoadsSettings(t *testing.T) {
	for _, k := range []string{config.EnvConfig, config.EnvObservationDir, config.EnvActive, config.EnvLogLevel} {
		t.Setenv(k, "")
	}
	t.Setenv(config.EnvReconcile, "abort")

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", t.TempDir()})
	require.NoError(t, cmd.Execute())

	t.Setenv(config.EnvReconcile, "kdiff3")
	cmd = NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"validate", t.TempDir()})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRootOptionsDefaults(t *testing.T) {
	opts := &RootOptions{}
	assert.Equal(t, config.Defaults(), opts.settings())
	assert.NotNil(t, opts.logger())
}
