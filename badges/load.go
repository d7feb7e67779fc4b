package badges

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadProps reads and validates a props file. YAML and JSON are both
// accepted.
func LoadProps(path string) (Props, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Props{}, fmt.Errorf("failed to read badges config %s: %w", path, err)
	}

	return ParseProps(data)
}

func ParseProps(data []byte) (Props, error) {
	var props Props
	if err := yaml.Unmarshal(data, &props); err != nil {
		return Props{}, fmt.Errorf("failed to parse badges config: %w", err)
	}

	if err := props.Validate(); err != nil {
		return Props{}, err
	}

	return props, nil
}
