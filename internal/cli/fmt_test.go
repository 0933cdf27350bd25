package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const uglyReference = `{"TestX": [ {"what": 5, "__spyPoint__": "p"} ]}`

const canonicalReference = "{\n  \"TestX\": [\n    {\"__spyPoint__\":\"p\",\"what\":5}\n  ]\n}\n"

func runFmtCmd(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewFmtCommand(&RootOptions{Format: format})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestFmtRewrites(t *testing.T) {
	dir := t.TempDir()
	ugly := writeFile(t, filepath.Join(dir, "ugly.json"), uglyReference)
	clean := writeFile(t, filepath.Join(dir, "clean.json"), canonicalReference)

	out, err := runFmtCmd(t, "text", ugly, clean)
	require.NoError(t, err)
	assert.Equal(t, "✓ "+ugly+": rewritten\n", out)

	data, err := os.ReadFile(ugly)
	require.NoError(t, err)
	assert.Equal(t, canonicalReference, string(data))
}

func TestFmtKeepsMultiTestFileValid(t *testing.T) {
	dir := t.TempDir()
	multi := writeFile(t, filepath.Join(dir, "multi.json"), `{"TestB":[{"y":1,"x":2}],"TestA":[]}`)

	_, err := runFmtCmd(t, "text", multi)
	require.NoError(t, err)

	data, err := os.ReadFile(multi)
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"TestA\": [],\n  \"TestB\": [\n    {\"x\":2,\"y\":1}\n  ]\n}\n", string(data))

	out, err := runValidateCmd(t, "text", multi)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ 1 reference file(s) valid")

	_, err = runFmtCmd(t, "text", "--check", multi)
	assert.NoError(t, err)
}

func TestFmtCheck(t *testing.T) {
	dir := t.TempDir()
	ugly := writeFile(t, filepath.Join(dir, "ugly.json"), uglyReference)

	out, err := runFmtCmd(t, "text", "--check", ugly)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "not canonical")

	data, err := os.ReadFile(ugly)
	require.NoError(t, err)
	assert.Equal(t, uglyReference, string(data), "--check must not rewrite")

	clean := writeFile(t, filepath.Join(dir, "clean.json"), canonicalReference)
	_, err = runFmtCmd(t, "text", "--check", clean)
	assert.NoError(t, err)
}

func TestFmtInvalidFileJSON(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, filepath.Join(dir, "broken.json"), `[1]`)

	out, err := runFmtCmd(t, "json", broken)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeUnformatted, resp.Error.Code)
}
