package cli

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/neoload/internal/config"
	"github.com/vvka-141/neoload/internal/logging"
	"github.com/vvka-141/neoload/pkg/neoload"
)

func clearConnectionEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{neoload.EnvURI, neoload.EnvUsername, neoload.EnvPassword, neoload.EnvDatabase} {
		t.Setenv(key, "")
	}
}

func TestResolveConnection_Defaults(t *testing.T) {
	clearConnectionEnv(t)

	cfg := resolveConnection(connectionFlags{}, nil)
	if cfg.URI != neoload.DefaultURI {
		t.Errorf("URI = %q, want %q", cfg.URI, neoload.DefaultURI)
	}
	if cfg.Username != neoload.DefaultUsername {
		t.Errorf("Username = %q, want %q", cfg.Username, neoload.DefaultUsername)
	}
	if cfg.Database != "" {
		t.Errorf("Database = %q, want server default", cfg.Database)
	}
}

func TestResolveConnection_Precedence(t *testing.T) {
	clearConnectionEnv(t)
	projectCfg := &config.ProjectConfig{
		Connection: config.ConnectionConfig{URI: "neo4j://yaml:7687", Username: "yaml-user", MaxConnections: 7},
		Database:   "yaml-db",
	}

	cfg := resolveConnection(connectionFlags{}, projectCfg)
	if cfg.URI != "neo4j://yaml:7687" || cfg.Username != "yaml-user" || cfg.Database != "yaml-db" {
		t.Errorf("yaml values not used: %+v", cfg)
	}
	if cfg.MaxConnections != 7 {
		t.Errorf("MaxConnections = %d, want 7", cfg.MaxConnections)
	}

	t.Setenv(neoload.EnvURI, "neo4j://env:7687")
	t.Setenv(neoload.EnvDatabase, "env-db")
	t.Setenv(neoload.EnvPassword, "secret")
	cfg = resolveConnection(connectionFlags{}, projectCfg)
	if cfg.URI != "neo4j://env:7687" || cfg.Database != "env-db" {
		t.Errorf("environment should override yaml: %+v", cfg)
	}
	if cfg.Username != "yaml-user" {
		t.Errorf("Username = %q, want yaml-user", cfg.Username)
	}
	if cfg.Password != "secret" {
		t.Errorf("password should come from %s", neoload.EnvPassword)
	}

	cfg = resolveConnection(connectionFlags{uri: "bolt://flag:7687", database: "flag-db", encrypted: true}, projectCfg)
	if cfg.URI != "bolt://flag:7687" || cfg.Database != "flag-db" {
		t.Errorf("flags should override environment: %+v", cfg)
	}
	if cfg.EffectiveURI() != "bolt+s://flag:7687" {
		t.Errorf("EffectiveURI = %q", cfg.EffectiveURI())
	}
}

func TestLoadMergedParameters_Layers(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.env")
	prod := filepath.Join(dir, "prod.env")
	if err := os.WriteFile(base, []byte("region=eu\nbatch=1\nlimit=10\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(prod, []byte("batch=2\n"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := loadMergedParameters(
		map[string]any{"region": "us", "owner": "ops"},
		[]string{base, prod},
		[]string{"limit=99", "dry=true"},
		logging.NewNullLogger(),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]any{"owner": "ops", "region": "eu", "batch": 2, "limit": 99, "dry": true}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %#v, want %#v", k, got[k], v)
		}
	}
}

func TestLoadMergedParameters_Errors(t *testing.T) {
	logger := logging.NewNullLogger()

	_, err := loadMergedParameters(nil, []string{filepath.Join(t.TempDir(), "missing.env")}, nil, logger)
	if !errors.Is(err, neoload.ErrInvalidConfig) {
		t.Errorf("missing params file: expected ErrInvalidConfig, got %v", err)
	}

	_, err = loadMergedParameters(nil, nil, []string{"novalue"}, logger)
	if !errors.Is(err, neoload.ErrInvalidConfig) {
		t.Errorf("malformed pair: expected ErrInvalidConfig, got %v", err)
	}

	_, err = loadMergedParameters(nil, nil, []string{"rows=1"}, logger)
	if !errors.Is(err, neoload.ErrInvalidConfig) {
		t.Errorf("reserved name: expected ErrInvalidConfig, got %v", err)
	}
}

func newTimeoutCmd(t *testing.T, set string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Duration("timeout", time.Minute, "")
	if set != "" {
		if err := cmd.Flags().Set("timeout", set); err != nil {
			t.Fatal(err)
		}
	}
	return cmd
}

func TestResolveEffectiveTimeout(t *testing.T) {
	projectCfg := &config.ProjectConfig{Timeout: "90s"}

	got, err := resolveEffectiveTimeout(newTimeoutCmd(t, ""), projectCfg, time.Minute)
	if err != nil || got != 90*time.Second {
		t.Errorf("yaml timeout: got %v, %v", got, err)
	}

	got, err = resolveEffectiveTimeout(newTimeoutCmd(t, "2m"), projectCfg, 2*time.Minute)
	if err != nil || got != 2*time.Minute {
		t.Errorf("flag should win when set: got %v, %v", got, err)
	}

	got, err = resolveEffectiveTimeout(newTimeoutCmd(t, ""), nil, time.Minute)
	if err != nil || got != time.Minute {
		t.Errorf("flag default without config: got %v, %v", got, err)
	}

	_, err = resolveEffectiveTimeout(newTimeoutCmd(t, ""), &config.ProjectConfig{Timeout: "soon"}, time.Minute)
	if !errors.Is(err, neoload.ErrInvalidConfig) {
		t.Errorf("invalid yaml timeout: expected ErrInvalidConfig, got %v", err)
	}

	_, err = resolveEffectiveTimeout(newTimeoutCmd(t, "0s"), nil, 0)
	if !errors.Is(err, neoload.ErrInvalidConfig) {
		t.Errorf("zero flag timeout: expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := loadProjectConfig(dir)
	if err != nil || cfg != nil {
		t.Fatalf("missing neoload.yaml should yield nil config, got %v, %v", cfg, err)
	}

	if err := os.WriteFile(filepath.Join(dir, config.ConfigFileName), []byte("files: [{url: a.csv}]\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = loadProjectConfig(dir)
	if !errors.Is(err, neoload.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig for a data file without cypher, got %v", err)
	}
}

func TestBuildSourceOpener(t *testing.T) {
	logger := logging.NewNullLogger()

	opener, closer, err := buildSourceOpener(nil, logger)
	if err != nil || opener == nil || closer == nil {
		t.Fatalf("expected a file opener, got %v, %v, %v", opener, closer, err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}

	projectCfg := &config.ProjectConfig{Sources: config.SourcesConfig{
		Postgres: &config.PostgresSourceConfig{Connection: "postgres://localhost/app", AuthMethod: "kerberos"},
	}}
	_, _, err = buildSourceOpener(projectCfg, logger)
	if !errors.Is(err, neoload.ErrUnsupportedAuthMethod) {
		t.Errorf("expected ErrUnsupportedAuthMethod, got %v", err)
	}

	projectCfg.Sources.Postgres.AuthMethod = ""
	opener, closer, err = buildSourceOpener(projectCfg, logger)
	if err != nil || opener == nil {
		t.Fatalf("standard postgres source: %v", err)
	}
	if err := closer.Close(); err != nil {
		t.Errorf("closing an unopened source: %v", err)
	}
}
