package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/jlipinski/glean"
	"gopkg.in/yaml.v3"
)

// LoadSchemaFile reads a JSON or YAML schema document and wraps it in a
// glean.Schema named after the file. YAML documents are converted to JSON
// before wrapping, so downstream code only ever sees JSON.
func LoadSchemaFile(path string) (*glean.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, glean.Errorf(glean.EINVALID, "cannot read schema file: %v", err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, glean.Errorf(glean.EINVALID, "schema file %q is not valid YAML: %v", path, err)
		}
		data, err = json.Marshal(doc)
		if err != nil {
			return nil, glean.Errorf(glean.EINVALID, "schema file %q does not convert to JSON: %v", path, err)
		}
	}

	return glean.NewSchema(name, data)
}
