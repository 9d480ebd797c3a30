package pipeline

import (
	"os"

	"gopkg.in/yaml.v3"
)

// LoadManifest reads a task set definition from a YAML file and validates it.
func LoadManifest(path string) (*TaskSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var set TaskSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, err
	}

	if err := set.Validate(); err != nil {
		return nil, err
	}
	return &set, nil
}
