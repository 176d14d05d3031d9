package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// QueryOpener runs a query and returns its rows in chunks. Implemented by db.Source.
type QueryOpener interface {
	Open(ctx context.Context, query string, chunkSize int) (neoload.ChunkReader, error)
}

// Opener implements neoload.SourceOpener.
type Opener struct {
	logger   neoload.Logger
	fetchers map[string]Fetcher
	postgres QueryOpener

	s3Once sync.Once
	s3Err  error
}

type Option func(*Opener)

// WithFetcher registers f for URLs with the given scheme, replacing any default.
func WithFetcher(scheme string, f Fetcher) Option {
	return func(o *Opener) { o.fetchers[strings.ToLower(scheme)] = f }
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *Opener) {
		f := NewHTTPFetcher(client)
		o.fetchers["http"] = f
		o.fetchers["https"] = f
	}
}

// WithPostgres enables postgres: URLs.
func WithPostgres(q QueryOpener) Option {
	return func(o *Opener) { o.postgres = q }
}

// NewOpener creates an Opener reading local files and http(s) URLs.
// s3:// support is created from the default AWS configuration on first use
// unless an "s3" fetcher is registered.
func NewOpener(logger neoload.Logger, opts ...Option) *Opener {
	if logger == nil {
		panic("logger cannot be nil")
	}
	o := &Opener{
		logger:   logger,
		fetchers: map[string]Fetcher{"file": FileFetcher{}},
	}
	WithHTTPClient(http.DefaultClient)(o)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Open implements neoload.SourceOpener.
func (o *Opener) Open(ctx context.Context, spec neoload.SourceSpec, chunkSize int) (neoload.ChunkReader, error) {
	if chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be >= 1, got %d: %w", chunkSize, neoload.ErrInvalidConfig)
	}

	loc, err := ParseLocation(spec.URL)
	if err != nil {
		return nil, err
	}

	if loc.Scheme == "postgres" {
		if o.postgres == nil {
			return nil, fmt.Errorf("%s: no postgres source configured (sources.postgres): %w", spec.URL, neoload.ErrUnsupportedSource)
		}
		if strings.TrimSpace(spec.SQL) == "" {
			return nil, fmt.Errorf("%s: postgres sources need sql: %w", spec.URL, neoload.ErrInvalidConfig)
		}
		return o.postgres.Open(ctx, spec.SQL, chunkSize)
	}

	compression, format, err := DetectFormat(loc.Name(), spec.Format, spec.Compression)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.URL, err)
	}
	sep, err := fieldSeparator(spec.FieldSeparator, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.URL, err)
	}

	fetcher, err := o.fetcher(ctx, loc.Scheme)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", spec.URL, err)
	}

	raw, err := fetcher.Fetch(ctx, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", spec.URL, neoload.ErrSourceFailed, err)
	}
	o.logger.Verbose("✓ Opened %s (compression=%s, format=%s)", spec.URL, compression, format)

	content, member, err := decompress(raw, compression)
	if err != nil {
		raw.Close()
		return nil, fmt.Errorf("%s: %w", spec.URL, err)
	}
	closers := []io.Closer{content}
	if content != raw {
		closers = append(closers, raw)
	}
	if member != "" {
		o.logger.Verbose("✓ Reading archive member %s", member)
		if spec.Format == "" {
			if _, inner, err := DetectFormat(member, "", "none"); err == nil {
				format = inner
				if sep, err = fieldSeparator(spec.FieldSeparator, format); err != nil {
					closeAll(closers)
					return nil, fmt.Errorf("%s: %w", spec.URL, err)
				}
			}
		}
	}

	text, err := decodeCharset(content, spec.Encoding)
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("%s: %w", spec.URL, err)
	}

	var rows rowSource
	switch format {
	case FormatCSV, FormatTXT, FormatTSV:
		rows, err = newCSVRows(text, sep, spec.SkipRecords, o.logger)
	case FormatJSON, FormatNDJSON:
		rows, err = newJSONRows(text, spec.SkipRecords)
	default:
		err = fmt.Errorf("format %q: %w", format, neoload.ErrUnsupportedFormat)
	}
	if err != nil {
		closeAll(closers)
		return nil, fmt.Errorf("%s: %w", spec.URL, err)
	}

	return &chunkReader{rows: rows, size: chunkSize, closers: closers}, nil
}

func (o *Opener) fetcher(ctx context.Context, scheme string) (Fetcher, error) {
	if scheme == "s3" {
		o.s3Once.Do(func() {
			if _, ok := o.fetchers["s3"]; ok {
				return
			}
			f, err := NewDefaultS3Fetcher(ctx)
			if err != nil {
				o.s3Err = err
				return
			}
			o.fetchers["s3"] = f
		})
		if o.s3Err != nil {
			return nil, fmt.Errorf("%w: %w", neoload.ErrSourceFailed, o.s3Err)
		}
	}

	f, ok := o.fetchers[scheme]
	if !ok {
		return nil, fmt.Errorf("scheme %q: %w", scheme, neoload.ErrUnsupportedSource)
	}
	return f, nil
}

// Location is a parsed data file URL.
type Location struct {
	Scheme string

	// Host is the bucket for s3 and the server for http(s).
	Host string

	// Path is the file path for local files, the object key for s3.
	Path string

	// URL is the original text.
	URL string
}

// Name returns the last path element, used for format detection.
func (l Location) Name() string {
	return path.Base(strings.ReplaceAll(l.Path, "\\", "/"))
}

// ParseLocation parses a data file URL. Strings without a scheme (or with a
// single-letter drive prefix) are local paths.
func ParseLocation(raw string) (Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Location{}, fmt.Errorf("empty data file url: %w", neoload.ErrInvalidConfig)
	}

	u, err := url.Parse(raw)
	if err != nil || len(u.Scheme) <= 1 {
		return Location{Scheme: "file", Path: raw, URL: raw}, nil
	}

	loc := Location{Scheme: strings.ToLower(u.Scheme), Host: u.Host, URL: raw}
	switch loc.Scheme {
	case "file":
		loc.Path = u.Path
		if loc.Path == "" {
			loc.Path = u.Opaque
		}
	case "s3":
		loc.Path = strings.TrimPrefix(u.Path, "/")
		if loc.Host == "" || loc.Path == "" {
			return Location{}, fmt.Errorf("s3 url %q needs a bucket and a key: %w", raw, neoload.ErrInvalidConfig)
		}
	case "postgres", "postgresql":
		loc.Scheme = "postgres"
		loc.Path = u.Opaque + u.Path
	default:
		loc.Path = u.Path
	}
	return loc, nil
}

func closeAll(closers []io.Closer) error {
	var first error
	for _, c := range closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
