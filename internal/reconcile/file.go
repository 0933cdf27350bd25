package reconcile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/roach88/bond/internal/canonical"
)

//go:embed reference.schema.json
var referenceSchemaJSON string

var referenceSchema = jsonschema.MustCompileString("reference.schema.json", referenceSchemaJSON)

// FileExt is the extension of reference observation files.
const FileExt = ".json"

var unsafePathChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FilePath returns the reference file location for a test under dir.
// Subtest separators become directories. A segment holding unsafe
// characters has them replaced by underscores and gains a hash of the
// original segment, so distinct test ids never share a file.
func FilePath(dir, testID string) string {
	segments := strings.Split(testID, "/")
	for i, seg := range segments {
		s := unsafePathChars.ReplaceAllString(seg, "_")
		if s == "" || s == "." || s == ".." {
			s = "_"
		}
		if s != seg {
			s += "-" + segmentHash(seg)
		}
		segments[i] = s
	}
	return filepath.Join(dir, filepath.Join(segments...)+FileExt)
}

func segmentHash(seg string) string {
	h := fnv.New32a()
	h.Write([]byte(seg))
	return fmt.Sprintf("%08x", h.Sum32())
}

// Render lays out a trace in the reference file format.
// Each element of observations must already be canonical JSON text.
func Render(testID string, observations []string) string {
	return File{testID: observations}.Render()
}

// File is a decoded reference file: test identifier to canonical
// observation lines.
type File map[string][]string

// ParseFile validates and decodes reference file content.
// Observations are re-canonicalized, so hand-edited files with a different
// layout or key order compare equal to their canonical rendering.
func ParseFile(data []byte) (File, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode reference file: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode reference file: unexpected data after top-level object")
	}
	if err := referenceSchema.Validate(raw); err != nil {
		return nil, fmt.Errorf("invalid reference file: %w", err)
	}

	v, err := canonical.FromDecoded(raw)
	if err != nil {
		return nil, fmt.Errorf("decode reference file: %w", err)
	}
	obj, ok := v.(canonical.Object)
	if !ok {
		return nil, fmt.Errorf("invalid reference file: top level must be an object")
	}

	file := make(File, len(obj))
	for testID, entry := range obj {
		arr, ok := entry.(canonical.Array)
		if !ok {
			return nil, fmt.Errorf("invalid reference file: %q must map to an array", testID)
		}
		lines := make([]string, len(arr))
		for i, elem := range arr {
			b, err := canonical.Marshal(elem)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", testID, i, err)
			}
			lines[i] = string(b)
		}
		file[testID] = lines
	}
	return file, nil
}

// Render lays out f as one JSON object, one member per test in key
// order and one observation per line.
func (f File) Render() string {
	ids := slices.Collect(maps.Keys(f))
	slices.SortFunc(ids, canonical.CompareKeys)

	var b strings.Builder
	b.WriteString("{")
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString("\n  ")
		b.WriteString(canonical.MustMarshal(canonical.String(id)))
		b.WriteString(": [")
		observations := f[id]
		for j, obs := range observations {
			b.WriteString("\n    ")
			b.WriteString(obs)
			if j < len(observations)-1 {
				b.WriteByte(',')
			}
		}
		if len(observations) > 0 {
			b.WriteString("\n  ")
		}
		b.WriteString("]")
	}
	b.WriteString("\n}\n")
	return b.String()
}

// Format re-renders reference file content canonically.
func Format(data []byte) (string, error) {
	file, err := ParseFile(data)
	if err != nil {
		return "", err
	}
	return file.Render(), nil
}

// reference is the stored side of a comparison.
type reference struct {
	text    string
	missing bool
	// malformed is set when the file exists but could not be decoded; text
	// then holds the raw content so the diff still shows it.
	malformed error
}

// loadReference reads the stored reference for testID at path.
func loadReference(path, testID string) (reference, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return reference{missing: true}, nil
	}
	if err != nil {
		return reference{}, fmt.Errorf("read reference file %s: %w", path, err)
	}

	file, err := ParseFile(data)
	if err != nil {
		return reference{text: string(data), malformed: err}, nil
	}
	lines, ok := file[testID]
	if !ok {
		return reference{text: string(data), malformed: fmt.Errorf("no entry for %q", testID)}, nil
	}
	return reference{text: Render(testID, lines)}, nil
}

// writeReference atomically replaces the reference file at path.
func writeReference(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create reference directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".bond-*"+FileExt)
	if err != nil {
		return fmt.Errorf("create temporary reference file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write reference file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write reference file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("write reference file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace reference file: %w", err)
	}
	return nil
}
