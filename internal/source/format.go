package source

import (
	"fmt"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/vvka-141/neoload/pkg/neoload"
)

const (
	CompressionNone = "none"
	CompressionGzip = "gz"
	CompressionZip  = "zip"
	CompressionTgz  = "tgz"

	FormatCSV    = "csv"
	FormatTXT    = "txt"
	FormatTSV    = "tsv"
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
)

// DetectFormat derives compression and format from a file name. Explicit
// values win over the name; an archive without a recognizable inner
// extension defaults to csv, since its member name decides later.
func DetectFormat(name, format, compression string) (string, string, error) {
	lower := strings.ToLower(name)

	switch c := strings.ToLower(compression); c {
	case "":
		switch {
		case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
			compression = CompressionTgz
		case strings.HasSuffix(lower, ".gz"), strings.HasSuffix(lower, ".gzip"):
			compression = CompressionGzip
		case strings.HasSuffix(lower, ".zip"):
			compression = CompressionZip
		default:
			compression = CompressionNone
		}
	case CompressionNone, CompressionGzip, CompressionZip, CompressionTgz:
		compression = c
	case "gzip":
		compression = CompressionGzip
	default:
		return "", "", fmt.Errorf("compression %q: %w", compression, neoload.ErrUnsupportedFormat)
	}

	if format != "" {
		f, ok := normalizeFormat(format)
		if !ok {
			return "", "", fmt.Errorf("format %q: %w", format, neoload.ErrUnsupportedFormat)
		}
		return compression, f, nil
	}

	inner := lower
	for _, suffix := range []string{".tar.gz", ".tgz", ".gzip", ".gz", ".zip"} {
		if strings.HasSuffix(inner, suffix) {
			inner = strings.TrimSuffix(inner, suffix)
			break
		}
	}
	if f, ok := normalizeFormat(strings.TrimPrefix(path.Ext(inner), ".")); ok {
		return compression, f, nil
	}
	if compression == CompressionZip || compression == CompressionTgz {
		return compression, FormatCSV, nil
	}
	return "", "", fmt.Errorf("cannot detect format of %q (set format): %w", name, neoload.ErrUnsupportedFormat)
}

func normalizeFormat(f string) (string, bool) {
	switch strings.ToLower(f) {
	case "csv":
		return FormatCSV, true
	case "txt":
		return FormatTXT, true
	case "tsv", "tab":
		return FormatTSV, true
	case "json":
		return FormatJSON, true
	case "ndjson", "jsonl":
		return FormatNDJSON, true
	default:
		return "", false
	}
}

// fieldSeparator returns the CSV delimiter: the configured single
// character, a tab for tsv, a comma otherwise.
func fieldSeparator(sep, format string) (rune, error) {
	if sep == "" {
		if format == FormatTSV {
			return '\t', nil
		}
		return ',', nil
	}
	if sep == `\t` {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(sep)
	if size != len(sep) || r == utf8.RuneError || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("field_separator %q must be a single character: %w", sep, neoload.ErrInvalidConfig)
	}
	return r, nil
}
