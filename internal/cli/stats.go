package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/neoload/internal/graphdb"
	"github.com/vvka-141/neoload/internal/logging"
	"github.com/vvka-141/neoload/internal/services"
	"github.com/vvka-141/neoload/internal/tui"
)

var statsCmd = &cobra.Command{
	Use:   "stats <kind>",
	Short: "Show schema statistics of a database",
	Long: `Stats prints exploratory statistics about the graph.

Kinds:
  labels         Node count and relative frequency per label
  multilabels    Node count per label combination
  relationships  Count and relative frequency per relationship type
  properties     Properties per label and relationship type (requires APOC)
  constraints    Schema constraints
  indexes        Indexes
  paths          Frequency of (label)-[type]->(label) patterns (requires APOC)

Examples:
  neoload stats labels
  neoload stats paths -d movies`,
	Args:      RequireStatKind,
	ValidArgs: statKindNames(),
	RunE:      runStats,
}

type statsFlagValues struct {
	connection connectionFlags
	project    string
	timeout    time.Duration
}

var statsFlags statsFlagValues

func init() {
	rootCmd.AddCommand(statsCmd)

	registerConnectionFlags(statsCmd, &statsFlags.connection)

	statsCmd.Flags().StringVar(&statsFlags.project, "project", ".",
		"Directory (or file) holding neoload.yaml")
	statsCmd.Flags().DurationVar(&statsFlags.timeout, "timeout", 5*time.Minute,
		"Maximum duration of the statistics query")
}

func statKindNames() []string {
	names := make([]string, len(services.StatKinds))
	for i, k := range services.StatKinds {
		names[i] = string(k)
	}
	return names
}

func runStats(cmd *cobra.Command, args []string) error {
	kind, err := services.ParseStatKind(args[0])
	if err != nil {
		return err
	}

	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))
	projectCfg, err := loadProjectConfig(statsFlags.project)
	if err != nil {
		return err
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, statsFlags.timeout)
	if err != nil {
		return err
	}
	ctx, cancel := newCommandContext(timeout, "statistics")
	defer cancel()

	connCfg := resolveConnection(statsFlags.connection, projectCfg)
	driver, err := graphdb.Connect(ctx, connCfg, logger)
	if err != nil {
		return err
	}
	defer driver.Close(context.Background())

	graph := services.NewGraphService(driver, services.NewLoadService(driver, logger), logger)
	table, err := services.NewStatsService(graph).Get(ctx, kind, connCfg.Database)
	if err != nil {
		return err
	}

	fmt.Fprintln(os.Stdout, tui.RenderTable(table, tui.IsTerminal(os.Stdout)))
	return nil
}
