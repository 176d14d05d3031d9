package neoload

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ConnectionConfig holds everything needed to reach the graph database.
// It is resolved once by the CLI from flags, environment and neoload.yaml
// and passed explicitly; nothing reads ambient global state.
type ConnectionConfig struct {
	URI      string
	Username string
	Password string
	Database string

	// Encrypted upgrades neo4j:// and bolt:// to their +s variants.
	Encrypted bool

	// MaxConnections bounds the driver pool; 0 keeps the driver default.
	MaxConnections int

	ConnectTimeout time.Duration
}

// Validate checks that the URI is usable.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	if c.URI == "" {
		errs = append(errs, fmt.Errorf("URI is required: %w", ErrInvalidConfig))
	} else if u, err := url.Parse(c.URI); err != nil || u.Host == "" {
		errs = append(errs, fmt.Errorf("URI %q is not a valid server address: %w", c.URI, ErrInvalidConfig))
	} else if !isGraphScheme(u.Scheme) {
		errs = append(errs, fmt.Errorf("URI scheme %q is not supported (use neo4j, neo4j+s, bolt or bolt+s): %w", u.Scheme, ErrInvalidConfig))
	}

	if c.MaxConnections < 0 {
		errs = append(errs, fmt.Errorf("max connections cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// EffectiveURI returns URI with the scheme upgraded when Encrypted is set.
func (c *ConnectionConfig) EffectiveURI() string {
	if !c.Encrypted {
		return c.URI
	}
	for _, scheme := range []string{"neo4j", "bolt"} {
		if strings.HasPrefix(c.URI, scheme+"://") {
			return scheme + "+s://" + strings.TrimPrefix(c.URI, scheme+"://")
		}
	}
	return c.URI
}

func isGraphScheme(scheme string) bool {
	switch scheme {
	case "neo4j", "neo4j+s", "neo4j+ssc", "bolt", "bolt+s", "bolt+ssc":
		return true
	}
	return false
}
