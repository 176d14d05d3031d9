package params

import (
	"bytes"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// ParseEnvFile parses .env formatted content into raw strings.
// Comments, quoting, export prefixes and ${VAR} expansion follow godotenv.
func ParseEnvFile(content []byte) (map[string]string, error) {
	values, err := godotenv.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", neoload.ErrInvalidConfig, err)
	}
	return values, nil
}

// LoadFile reads a parameters file in .env format and types its values.
func LoadFile(path string) (map[string]any, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read params file %s: %w", path, err)
	}

	raw, err := ParseEnvFile(content)
	if err != nil {
		return nil, fmt.Errorf("params file %s: %w", path, err)
	}

	typed := make(map[string]any, len(raw))
	for k, v := range raw {
		typed[k] = TypedValue(v)
	}
	if err := neoload.CheckReservedParameters(typed); err != nil {
		return nil, fmt.Errorf("params file %s: %w", path, err)
	}
	return typed, nil
}
