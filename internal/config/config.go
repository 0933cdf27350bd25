// Package config resolves bond settings from defaults, an optional YAML or
// CUE file, and BOND_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/roach88/bond/internal/logging"
	"github.com/roach88/bond/internal/reconcile"
)

// Environment variables read by Load.
const (
	EnvConfig         = "BOND_CONFIG"
	EnvReconcile      = "BOND_RECONCILE"
	EnvObservationDir = "BOND_OBSERVATION_DIR"
	EnvActive         = "BOND_ACTIVE"
	EnvLogLevel       = "BOND_LOG_LEVEL"
)

// DefaultObservationDir is where reference files live, relative to the
// package under test.
const DefaultObservationDir = "testdata/observations"

// Settings holds the resolved configuration.
type Settings struct {
	// Reconcile is the reconcile mode: abort, console or accept.
	Reconcile string `mapstructure:"reconcile" yaml:"reconcile" json:"reconcile"`

	// ObservationDir is the directory holding reference files.
	ObservationDir string `mapstructure:"observation_dir" yaml:"observation_dir" json:"observation_dir"`

	// Active enables spying for code that runs outside a started test
	// context.
	Active bool `mapstructure:"active" yaml:"active" json:"active"`

	// LogLevel is a slog level name, or "off".
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
}

// Defaults returns the built-in settings. The default reconcile mode is
// console; accept is never a default.
func Defaults() Settings {
	return Settings{
		Reconcile:      string(reconcile.ModeConsole),
		ObservationDir: DefaultObservationDir,
		LogLevel:       logging.Off,
	}
}

// Mode returns the parsed reconcile mode.
func (s Settings) Mode() (reconcile.Mode, error) {
	return reconcile.ParseMode(s.Reconcile)
}

// Validate reports the first invalid setting.
func (s Settings) Validate() error {
	if _, err := s.Mode(); err != nil {
		return fmt.Errorf("%s: %w", EnvReconcile, err)
	}
	if strings.TrimSpace(s.ObservationDir) == "" {
		return fmt.Errorf("%s: observation directory is empty", EnvObservationDir)
	}
	if _, _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("%s: %w", EnvLogLevel, err)
	}
	return nil
}

// Load resolves settings. path names a config file; when empty, BOND_CONFIG
// is consulted, and with neither set no file is read. Environment variables
// override the file.
func Load(path string) (Settings, error) {
	s := Defaults()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		if err := s.mergeFile(path); err != nil {
			return Settings{}, err
		}
	}
	if err := s.mergeEnv(); err != nil {
		return Settings{}, err
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var raw map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue":
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return fmt.Errorf("compile config %s: %w", path, err)
		}
		if err := v.Decode(&raw); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	case ".yaml", ".yml", ".json":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode config %s: %w", path, err)
		}
	default:
		return fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml, .json or .cue)", path, ext)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           s,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	return nil
}

func (s *Settings) mergeEnv() error {
	if v := os.Getenv(EnvReconcile); v != "" {
		s.Reconcile = v
	}
	if v := os.Getenv(EnvObservationDir); v != "" {
		s.ObservationDir = v
	}
	if v := os.Getenv(EnvActive); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvActive, err)
		}
		s.Active = active
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	return nil
}
