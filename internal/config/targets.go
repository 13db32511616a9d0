package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type targetsFile struct {
	Endpoints []string `yaml:"endpoints"`
}

// LoadTargets reads an endpoint list from a YAML file, order preserved.
// The file complements endpoints given on the command line.
func LoadTargets(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file %q: %w", path, err)
	}
	var tf targetsFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parse targets file %q: %w", path, err)
	}
	return tf.Endpoints, nil
}
