package contract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads a raw Contract. The result has not been through validation.
func Load(path string) (*Contract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c, err := Decode(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return c, nil
}

func Decode(data []byte, format Format) (*Contract, error) {
	c := &Contract{}
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(c); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported contract format %q", format)
	}
	return c, nil
}

func Encode(c *Contract, format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(c, "", "  ")
	case FormatYAML:
		return yaml.Marshal(c)
	}
	return nil, fmt.Errorf("unsupported contract format %q", format)
}

func Save(c *Contract, path string) error {
	data, err := Encode(c, FormatOf(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
