package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// decoder turns raw file bytes into a Config without defaults applied.
type decoder func(data []byte, cfg *Config) error

var decoders = map[string]decoder{
	".yaml": decodeYAML,
	".yml":  decodeYAML,
	".json": decodeJSON,
}

func decodeJSON(data []byte, cfg *Config) error {
	if !json.Valid(data) {
		return ErrInvalidJSON
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	return nil
}

func decodeYAML(data []byte, cfg *Config) error {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	return nil
}

// LoadFromFile reads a Config from path. Files ending in .yaml or .yml are
// YAML, anything else is JSON. The result has defaults applied and is valid.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	case errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
	case err != nil:
		if fi, statErr := os.Stat(path); statErr == nil && fi.IsDir() {
			return nil, fmt.Errorf("%s is a directory, not a configuration file", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}

	decode, ok := decoders[strings.ToLower(filepath.Ext(path))]
	if !ok {
		decode = decodeJSON
	}
	return parse(data, decode, path)
}

// ParseJSON decodes a JSON configuration, applies defaults and validates it.
func ParseJSON(data []byte) (*Config, error) {
	return parse(data, decodeJSON, "")
}

// ParseYAML decodes a YAML configuration, applies defaults and validates it.
func ParseYAML(data []byte) (*Config, error) {
	return parse(data, decodeYAML, "")
}

func parse(data []byte, decode decoder, source string) (*Config, error) {
	cfg := &Config{}
	if err := decode(data, cfg); err != nil {
		if source != "" {
			return nil, fmt.Errorf("%s: %w", source, err)
		}
		return nil, err
	}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToYAML renders cfg as YAML, the format `config show` prints.
func ToYAML(cfg *Config) ([]byte, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
