package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/neoload/pkg/neoload"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

// ErrMissingKeys is returned when required configuration keys are absent.
var ErrMissingKeys = errors.New("missing configuration keys")

const ConfigFileName = "neoload.yaml"

type ConnectionConfig struct {
	URI            string `yaml:"uri"`
	Username       string `yaml:"username"`
	Database       string `yaml:"database"`
	Encrypted      bool   `yaml:"encrypted"`
	MaxConnections int    `yaml:"max_connections"`
}

// PostgresSourceConfig configures the relational database behind postgres: data files.
type PostgresSourceConfig struct {
	Connection     string `yaml:"connection"`
	AuthMethod     string `yaml:"auth_method,omitempty"`
	AWSRegion      string `yaml:"aws_region,omitempty"`
	GoogleInstance string `yaml:"google_instance,omitempty"`
	AzureTenantID  string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `yaml:"azure_client_id,omitempty"`
}

type SourcesConfig struct {
	Postgres *PostgresSourceConfig `yaml:"postgres,omitempty"`
}

// QueryList accepts either a single query (or query name) or a list of them.
type QueryList []string

func (q *QueryList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		*q = QueryList{value.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return err
		}
		*q = list
		return nil
	default:
		return fmt.Errorf("line %d: expected a query or a list of queries", value.Line)
	}
}

// DataFile describes one file (or table) to load.
type DataFile struct {
	URL            string         `yaml:"url"`
	Cypher         QueryList      `yaml:"cypher"`
	SQL            string         `yaml:"sql,omitempty"`
	Format         string         `yaml:"format,omitempty"`
	Compression    string         `yaml:"compression,omitempty"`
	ChunkSize      int            `yaml:"chunk_size"`
	FieldSeparator string         `yaml:"field_separator"`
	SkipRecords    int            `yaml:"skip_records"`
	SkipFile       bool           `yaml:"skip_file"`
	Encoding       string         `yaml:"encoding"`
	Partitions     int            `yaml:"partitions"`
	Parallel       bool           `yaml:"parallel"`
	Workers        int            `yaml:"workers"`
	Parameters     map[string]any `yaml:"parameters"`
}

type ProjectConfig struct {
	Connection ConnectionConfig  `yaml:"connection"`
	Database   string            `yaml:"database"`
	Queries    map[string]string `yaml:"queries"`
	PreIngest  QueryList         `yaml:"pre_ingest"`
	Files      []DataFile        `yaml:"files"`
	PostIngest QueryList         `yaml:"post_ingest"`
	Params     map[string]any    `yaml:"params"`
	Sources    SourcesConfig     `yaml:"sources"`
	Timeout    string            `yaml:"timeout"`

	// dir is the directory the file was read from; relative data file paths resolve against it.
	dir string
}

// Load reads neoload.yaml from sourcePath. sourcePath may also name the YAML file itself.
func Load(sourcePath string) (*ProjectConfig, error) {
	configPath := sourcePath
	if info, err := os.Stat(sourcePath); err == nil && info.IsDir() {
		configPath = filepath.Join(sourcePath, ConfigFileName)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	cfg.dir = filepath.Dir(configPath)
	return cfg, nil
}

// Parse decodes a configuration document. Keys of the top level, the
// connection block and every data file are case-insensitive.
func Parse(data []byte) (*ProjectConfig, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("wrong YAML format: %w: %w", neoload.ErrInvalidConfig, err)
	}

	var cfg ProjectConfig
	if len(doc.Content) == 0 {
		return &cfg, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("top level must be a mapping: %w", neoload.ErrInvalidConfig)
	}
	lowerKeys(root)
	if conn := child(root, "connection"); conn != nil {
		lowerKeys(conn)
	}
	if files := child(root, "files"); files != nil && files.Kind == yaml.SequenceNode {
		for i, f := range files.Content {
			if f.Kind != yaml.MappingNode {
				return nil, fmt.Errorf("files[%d] must be a mapping: %w", i, neoload.ErrInvalidConfig)
			}
			lowerKeys(f)
			if missing := missingKeys(f, "url", "cypher"); len(missing) > 0 {
				return nil, fmt.Errorf("files[%d]: %w: %s: %w", i, ErrMissingKeys, strings.Join(missing, ","), neoload.ErrInvalidConfig)
			}
		}
	}

	if err := root.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: %w", neoload.ErrInvalidConfig, err)
	}
	return &cfg, nil
}

// RequireKeys fails with ErrMissingKeys unless every key is set at the top level.
func RequireKeys(data []byte, keys ...string) error {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("wrong YAML format: %w: %w", neoload.ErrInvalidConfig, err)
	}
	if len(doc.Content) == 0 {
		return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(keys, ","))
	}
	root := doc.Content[0]
	lowerKeys(root)
	if missing := missingKeys(root, keys...); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingKeys, strings.Join(missing, ","))
	}
	return nil
}

func lowerKeys(m *yaml.Node) {
	if m.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i < len(m.Content); i += 2 {
		m.Content[i].Value = strings.ToLower(m.Content[i].Value)
	}
}

func child(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func missingKeys(m *yaml.Node, keys ...string) []string {
	var missing []string
	for _, k := range keys {
		if child(m, k) == nil {
			missing = append(missing, k)
		}
	}
	return missing
}

// Validate checks values that YAML decoding cannot.
// It returns a multi-error if multiple validation failures occur.
func (c *ProjectConfig) Validate() error {
	var errs []error

	if _, err := c.TimeoutDuration(); err != nil {
		errs = append(errs, err)
	}
	if err := neoload.CheckReservedParameters(c.Params); err != nil {
		errs = append(errs, fmt.Errorf("params: %w", err))
	}

	for i, f := range c.Files {
		where := fmt.Sprintf("files[%d] (%s)", i, f.URL)
		if f.ChunkSize < 0 {
			errs = append(errs, fmt.Errorf("%s: chunk_size cannot be negative: %w", where, neoload.ErrInvalidConfig))
		}
		if f.SkipRecords < 0 {
			errs = append(errs, fmt.Errorf("%s: skip_records cannot be negative: %w", where, neoload.ErrInvalidConfig))
		}
		if f.Partitions < 0 {
			errs = append(errs, fmt.Errorf("%s: partitions cannot be negative: %w", where, neoload.ErrInvalidConfig))
		}
		if f.Workers < 0 {
			errs = append(errs, fmt.Errorf("%s: workers cannot be negative: %w", where, neoload.ErrInvalidConfig))
		}
		if err := neoload.CheckReservedParameters(f.Parameters); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
		if strings.HasPrefix(f.URL, "postgres:") && f.SQL == "" {
			errs = append(errs, fmt.Errorf("%s: postgres sources need sql: %w", where, neoload.ErrInvalidConfig))
		}
		if _, err := c.ResolveQueries(f.Cypher); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", where, err))
		}
	}

	if _, err := c.ResolveQueries(c.PreIngest); err != nil {
		errs = append(errs, fmt.Errorf("pre_ingest: %w", err))
	}
	if _, err := c.ResolveQueries(c.PostIngest); err != nil {
		errs = append(errs, fmt.Errorf("post_ingest: %w", err))
	}

	return errors.Join(errs...)
}

// ResolveQueries replaces query names with their text from the queries
// section. Entries that are not names are taken as Cypher text; a single
// word that names no query is rejected as a likely typo.
func (c *ProjectConfig) ResolveQueries(list QueryList) ([]string, error) {
	out := make([]string, 0, len(list))
	for _, entry := range list {
		entry = strings.TrimSpace(entry)
		if q, ok := c.Queries[entry]; ok {
			out = append(out, q)
			continue
		}
		if entry == "" || !strings.ContainsAny(entry, " \t\n") {
			return nil, fmt.Errorf("unknown query %q (known: %s): %w", entry, strings.Join(c.queryNames(), ", "), neoload.ErrInvalidConfig)
		}
		out = append(out, entry)
	}
	return out, nil
}

func (c *ProjectConfig) queryNames() []string {
	names := make([]string, 0, len(c.Queries))
	for n := range c.Queries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// TargetDatabase returns connection.database, falling back to the top-level database key.
func (c *ProjectConfig) TargetDatabase() string {
	if c.Connection.Database != "" {
		return c.Connection.Database
	}
	return c.Database
}

// TimeoutDuration parses the timeout key; zero when unset.
func (c *ProjectConfig) TimeoutDuration() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, neoload.ErrInvalidConfig)
	}
	return d, nil
}

// PlanOptions adjusts how a configuration becomes an ingest plan.
type PlanOptions struct {
	// Only restricts the plan to data files whose URL ends with one of these names.
	Only []string

	SkipPreIngest  bool
	SkipPostIngest bool

	// Partitions, Parallel and Workers override every data file when set.
	Partitions *int
	Parallel   *bool
	Workers    *int

	// Parameters override the params section.
	Parameters map[string]any
}

func (o PlanOptions) validate() error {
	var errs []error
	if o.Partitions != nil && *o.Partitions < 1 {
		errs = append(errs, fmt.Errorf("partitions must be >= 1, got %d: %w", *o.Partitions, neoload.ErrInvalidConfig))
	}
	if o.Workers != nil && *o.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers cannot be negative, got %d: %w", *o.Workers, neoload.ErrInvalidConfig))
	}
	if err := neoload.CheckReservedParameters(o.Parameters); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Plan turns the configuration into an ingest plan.
func (c *ProjectConfig) Plan(opts PlanOptions) (neoload.IngestPlan, error) {
	if err := c.Validate(); err != nil {
		return neoload.IngestPlan{}, err
	}
	if err := opts.validate(); err != nil {
		return neoload.IngestPlan{}, err
	}

	plan := neoload.IngestPlan{
		Database:   c.TargetDatabase(),
		Parameters: mergeParams(c.Params, opts.Parameters),
	}
	if !opts.SkipPreIngest {
		plan.PreIngest, _ = c.ResolveQueries(c.PreIngest)
	}
	if !opts.SkipPostIngest {
		plan.PostIngest, _ = c.ResolveQueries(c.PostIngest)
	}

	for _, f := range c.Files {
		if f.SkipFile || !selected(f.URL, opts.Only) {
			continue
		}
		queries, _ := c.ResolveQueries(f.Cypher)

		load := neoload.FileLoad{
			Source: neoload.SourceSpec{
				URL:            c.resolveURL(f.URL),
				Format:         f.Format,
				Compression:    f.Compression,
				FieldSeparator: f.FieldSeparator,
				SkipRecords:    f.SkipRecords,
				Encoding:       f.Encoding,
				SQL:            f.SQL,
			},
			Queries:    queries,
			ChunkSize:  f.ChunkSize,
			Partitions: max(f.Partitions, neoload.DefaultPartitions),
			Parallel:   f.Parallel,
			Workers:    f.Workers,
			Parameters: f.Parameters,
		}
		if opts.Partitions != nil {
			load.Partitions = *opts.Partitions
		}
		if opts.Parallel != nil {
			load.Parallel = *opts.Parallel
		}
		if opts.Workers != nil {
			load.Workers = *opts.Workers
		}
		plan.Files = append(plan.Files, load)
	}

	if len(opts.Only) > 0 && len(plan.Files) == 0 {
		return plan, fmt.Errorf("no data file matches %s: %w", strings.Join(opts.Only, ", "), neoload.ErrInvalidConfig)
	}
	return plan, nil
}

// resolveURL makes bare relative paths relative to the config file's directory.
func (c *ProjectConfig) resolveURL(url string) string {
	if strings.Contains(url, ":") || filepath.IsAbs(url) || c.dir == "" {
		return url
	}
	return filepath.Join(c.dir, url)
}

func selected(url string, only []string) bool {
	if len(only) == 0 {
		return true
	}
	for _, name := range only {
		if url == name || strings.HasSuffix(url, "/"+name) {
			return true
		}
	}
	return false
}

func mergeParams(base, override map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
