package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// loadValues reads the caller-supplied constants tree from a JSON or YAML
// file. JSON numbers are kept as json.Number so the scanner and renderer
// see them verbatim. An empty path means no custom constants.
func loadValues(path string) (any, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read values file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		var tree any
		if err := decoder.Decode(&tree); err != nil {
			return nil, fmt.Errorf("parse values file %s: %w", path, err)
		}
		// Decode stops after the first value; anything but EOF here means
		// the file held more than one.
		if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse values file %s: unexpected data after top-level value", path)
		}
		return tree, nil
	case ".yaml", ".yml":
		var tree any
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, fmt.Errorf("parse values file %s: %w", path, err)
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("unsupported values file extension %q: use .json, .yaml, or .yml", filepath.Ext(path))
	}
}
