package installer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/edgeswitch-install/internal/model"
)

// Destination directories inside an Ansible checkout.
const (
	testDir        = "test/units/modules/network/edgeswitch"
	fixturesDir    = testDir + "/fixtures"
	moduleUtilsDir = "lib/ansible/module_utils/network/edgeswitch"
	modulesDir     = "lib/ansible/modules/network/edgeswitch"
)

// DefaultLayout returns the EdgeSwitch staging table. Each call returns a
// fresh copy, so callers may modify it.
func DefaultLayout() model.Layout {
	return model.Layout{
		Directories: []string{
			fixturesDir,
			moduleUtilsDir,
			modulesDir,
		},
		FileSets: []model.FileSet{
			{SourceDir: testDir, Pattern: "*.py", DestDir: testDir},
			{SourceDir: fixturesDir, Pattern: "*", DestDir: fixturesDir},
			{SourceDir: "module_utils/network/edgeswitch", Pattern: "*.py", DestDir: moduleUtilsDir},
			{SourceDir: "library", Pattern: "*.py", DestDir: modulesDir},
		},
		Files: []model.FileCopy{
			{Source: "plugins/cliconf/edgeswitch.py", Dest: "lib/ansible/plugins/cliconf/edgeswitch.py"},
			{Source: "plugins/terminal/edgeswitch.py", Dest: "lib/ansible/plugins/terminal/edgeswitch.py"},
		},
	}
}

// LoadLayout reads a layout table from path. The format is chosen by
// extension: .yaml/.yml are YAML, .json/.jsonc are JSON with comments.
// The loaded layout is validated before it is returned.
func LoadLayout(path string) (*model.Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file %s: %w", path, err)
	}

	layout, err := ParseLayout(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("layout file %s: %w", path, err)
	}
	return layout, nil
}

// ParseLayout decodes and validates a layout from data. ext selects the
// decoder and includes the leading dot.
func ParseLayout(data []byte, ext string) (*model.Layout, error) {
	var layout model.Layout

	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&layout); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case ".json", ".jsonc":
		// jsonc.ToJSON strips comments and trailing commas.
		dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&layout); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported layout format %q (valid: .yaml, .yml, .json, .jsonc)", ext)
	}

	if err := layout.Validate(); err != nil {
		return nil, err
	}
	return &layout, nil
}

// MarshalLayout encodes a layout as YAML, or as indented JSON when asJSON
// is set.
func MarshalLayout(layout *model.Layout, asJSON bool) ([]byte, error) {
	if asJSON {
		data, err := json.MarshalIndent(layout, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to serialize layout JSON: %w", err)
		}
		return append(data, '\n'), nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(layout); err != nil {
		return nil, fmt.Errorf("failed to serialize layout YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to serialize layout YAML: %w", err)
	}
	return buf.Bytes(), nil
}
