package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// DescriptorFileName is the project descriptor read from the working directory
// and from the Composer home directory.
const DescriptorFileName = "composer.json"

// LoadDescriptor reads and decodes a package descriptor. Files ending in .yaml
// or .yml are decoded as YAML, everything else as JSON.
func LoadDescriptor(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: failed to parse YAML %s: %v", ErrInvalidConfig, path, err)
		}
	default:
		raw, err = decodeJSONObject(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
	}

	return descriptorFromMap(raw), nil
}

// LoadOptionalDescriptor is LoadDescriptor, except that a missing file yields an
// empty descriptor.
func LoadOptionalDescriptor(path string) (*Descriptor, error) {
	d, err := LoadDescriptor(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Descriptor{}, nil
	}
	return d, err
}

func decodeJSONObject(data []byte) (map[string]any, error) {
	if !gjson.ValidBytes(data) {
		return nil, errors.New("invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, errors.New("JSON document is not an object")
	}
	m, _ := root.Value().(map[string]any)
	return m, nil
}

func descriptorFromMap(raw map[string]any) *Descriptor {
	d := &Descriptor{
		Name:    stringValue(raw["name"]),
		Version: stringValue(raw["version"]),
	}
	if extra, ok := raw["extra"].(map[string]any); ok {
		d.Extra = extra
	}
	if archive, ok := raw["archive"].(map[string]any); ok {
		d.ArchiveExcludes = stringList(archive["exclude"])
	}
	return d
}
