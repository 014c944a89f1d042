package conf

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// structToMap round-trips settings through YAML so it can be merged into
// viper without hand-maintaining a field-by-field mapping.
func structToMap(settings *Settings) (map[string]any, error) {
	if settings == nil {
		return nil, fmt.Errorf("settings is nil")
	}
	raw, err := yaml.Marshal(settings)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	var out map[string]any
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal settings into map: %w", err)
	}
	return out, nil
}
