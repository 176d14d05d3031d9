package source

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// decodeCharset converts r from the named IANA charset to UTF-8. A leading
// byte order mark is dropped for UTF-8 input.
func decodeCharset(r io.Reader, name string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, fmt.Errorf("encoding %q: %w", name, neoload.ErrUnsupportedFormat)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}
