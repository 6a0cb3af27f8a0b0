// Package cfgfile loads job configuration from JSON, TOML, or YAML
// files, selected by extension. Top-level
// keys match CLI option long names with dashes converted to
// underscores. CLI-supplied values always override file values; cfgfile
// only produces the file's contribution to the merge, which the cli
// package layers CLI flags on top of.
package cfgfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Load reads path and decodes it into a flat key/value map keyed by
// underscored option names.
func Load(path string) (map[string]any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cfgfile: read %s: %w", path, err)
	}

	out := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("cfgfile: parse JSON %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("cfgfile: parse YAML %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("cfgfile: parse TOML %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("cfgfile: unrecognized config extension %q (want .json, .yaml/.yml, or .toml)", ext)
	}

	return normalizeKeys(out), nil
}

// normalizeKeys converts dash-separated keys to underscored form, so a
// config file written with either convention resolves the same way.
func normalizeKeys(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[strings.ReplaceAll(k, "-", "_")] = v
	}
	return out
}

// Merge layers overrides on top of base, last-write-wins per key
//. Only keys present in
// overrides replace the base's value; absent keys keep the file's
// setting.
func Merge(base, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
