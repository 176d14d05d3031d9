package params

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// ParseKeyValuePairs converts "key=value" strings into typed parameters.
//
// Example:
//
//	params, err := ParseKeyValuePairs([]string{"since=2024-01-01", "limit=100"})
//	// Returns: map[string]any{"since": "2024-01-01", "limit": 100}
func ParseKeyValuePairs(pairs []string) (map[string]any, error) {
	result := make(map[string]any, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("parameter %q is not in key=value format (example: --param since=2024-01-01): %w", pair, neoload.ErrInvalidConfig)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, fmt.Errorf("parameter has empty key: %q: %w", pair, neoload.ErrInvalidConfig)
		}
		result[key] = TypedValue(value)
	}

	if err := neoload.CheckReservedParameters(result); err != nil {
		return nil, err
	}
	return result, nil
}

// TypedValue interprets s as a YAML scalar or flow collection.
// Input that YAML cannot parse is returned unchanged.
func TypedValue(s string) any {
	if strings.TrimSpace(s) == "" {
		return s
	}
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	switch v.(type) {
	case map[string]any:
		// A bare "a: b" reads as a mapping; only explicit {..} is meant as one.
		if !strings.HasPrefix(strings.TrimSpace(s), "{") {
			return s
		}
	}
	return v
}

// Merge returns a new map holding every layer, later layers winning.
func Merge(layers ...map[string]any) map[string]any {
	out := make(map[string]any)
	for _, layer := range layers {
		for k, v := range layer {
			out[k] = v
		}
	}
	return out
}
