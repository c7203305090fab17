package prefixes

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// prefixFile is the on-disk layout of an extra prefixes file:
//
//	prefixes:
//	  sports: http://example.org/sports/
type prefixFile struct {
	Prefixes map[string]string `yaml:"prefixes"`
}

// LoadFile reads extra slug -> namespace pairs from a YAML file
func LoadFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prefixes file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes extra prefixes from YAML bytes
func ParseYAML(data []byte) (map[string]string, error) {
	var f prefixFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse prefixes file: %w", err)
	}
	if f.Prefixes == nil {
		f.Prefixes = map[string]string{}
	}
	return f.Prefixes, nil
}
