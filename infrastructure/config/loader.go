// Package config loads declarative agent configuration and assembles
// engines from it.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dokkiitech/LinkDeck-sub000/domain/config"
)

// Format is a configuration file format.
type Format string

// Supported formats.
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", config.ErrUnsupportedFormat, ext)
	}
}

// Loader reads agent configuration.
type Loader struct {
	// ExpandEnv substitutes ${VAR} references before parsing.
	ExpandEnv bool
	// StrictEnv fails on unset variables without a default.
	StrictEnv bool
	// Validate rejects configurations with validation errors.
	Validate bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithEnvExpansion toggles environment expansion.
func WithEnvExpansion(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.ExpandEnv = enabled
	}
}

// WithStrictEnv toggles strict environment expansion.
func WithStrictEnv(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.StrictEnv = enabled
	}
}

// WithValidation toggles validation.
func WithValidation(enabled bool) LoaderOption {
	return func(l *Loader) {
		l.Validate = enabled
	}
}

// NewLoader creates a loader that expands the environment leniently and validates.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{ExpandEnv: true, Validate: true}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFile reads the configuration at path, picking the format by extension.
func (l *Loader) LoadFile(path string) (*config.AgentConfig, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, path)
	case err != nil:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg, err := l.LoadBytes(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Load reads the configuration from r.
func (l *Loader) Load(r io.Reader, format Format) (*config.AgentConfig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return l.LoadBytes(data, format)
}

// LoadString parses content in the given format.
func (l *Loader) LoadString(content string, format Format) (*config.AgentConfig, error) {
	return l.LoadBytes([]byte(content), format)
}

// LoadBytes parses data in the given format.
func (l *Loader) LoadBytes(data []byte, format Format) (*config.AgentConfig, error) {
	if l.ExpandEnv {
		expanded, err := newEnvExpander(l.StrictEnv).Expand(string(data))
		if err != nil {
			return nil, err
		}
		data = []byte(expanded)
	}

	cfg := &config.AgentConfig{}
	if err := decode(data, format, cfg); err != nil {
		return nil, err
	}

	if l.Validate {
		if errs := config.NewValidator().Validate(cfg); errs.HasErrors() {
			return nil, fmt.Errorf("%w: %w", config.ErrValidationFailed, errs)
		}
	}
	return cfg, nil
}

func decode(data []byte, format Format, cfg *config.AgentConfig) error {
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
		}
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return fmt.Errorf("%w: %v", config.ErrInvalidFormat, err)
		}
	default:
		return fmt.Errorf("%w: %s", config.ErrUnsupportedFormat, format)
	}
	return nil
}
