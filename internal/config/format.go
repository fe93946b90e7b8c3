package config

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// isYAML reports whether path names a YAML config file. Every other
// extension is read and written as JSON.
func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// decode parses data into c. YAML documents are converted to JSON first so
// both formats share the json struct tags.
func decode(path string, data []byte, c *Config) error {
	if isYAML(path) {
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return err
		}
		if v == nil {
			return nil
		}
		var err error
		if data, err = json.Marshal(v); err != nil {
			return err
		}
	}
	return json.Unmarshal(data, c)
}

// encode serializes c in the format matching path.
func encode(path string, c *Config) ([]byte, error) {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil || !isYAML(path) {
		return data, err
	}

	// JSON is valid YAML. Going through a node keeps the field order.
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, child := range n.Content {
		blockStyle(child)
	}
}
