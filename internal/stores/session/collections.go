package session

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// CollectionsConfig declares the ordered list of collections a deployment
// wants session lookups restricted to. The order is the stable order
// timelines concatenate collections in.
type CollectionsConfig struct {
	Collections []string `yaml:"collections"`
}

// LoadCollectionsConfig reads an ordered collection list from a YAML file
func LoadCollectionsConfig(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collections config file: %w", err)
	}

	var cfg CollectionsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse collections config file: %w", err)
	}
	return cfg.Collections, nil
}
