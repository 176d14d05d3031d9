package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/neoload/internal/config"
	"github.com/vvka-141/neoload/internal/graphdb"
	"github.com/vvka-141/neoload/internal/logging"
	"github.com/vvka-141/neoload/internal/services"
	"github.com/vvka-141/neoload/internal/tui"
)

var queryCmd = &cobra.Command{
	Use:   "query <cypher>",
	Short: "Run a Cypher query",
	Long: `Query runs one Cypher query and prints its result.

Read queries (the default) print the returned records as a table. With
--write the query runs in a write transaction and the update counters are
printed instead.

When the project directory holds a neoload.yaml, its connection settings
and params apply, and the argument may name a query of its queries section.

Examples:
  neoload query "MATCH (n) RETURN labels(n) AS labels, count(*) AS nodes"
  neoload query --write "MATCH (p:Person) WHERE p.age < \$min DETACH DELETE p" --param min=18
  neoload query count_people --project ./import`,
	Args: RequireQuery,
	RunE: runQuery,
}

type queryFlagValues struct {
	connection  connectionFlags
	project     string
	write       bool
	params      []string
	paramsFiles []string
	timeout     time.Duration
}

var queryFlags queryFlagValues

func init() {
	rootCmd.AddCommand(queryCmd)

	registerConnectionFlags(queryCmd, &queryFlags.connection)

	queryCmd.Flags().StringVar(&queryFlags.project, "project", ".",
		"Directory (or file) holding neoload.yaml")
	queryCmd.Flags().BoolVar(&queryFlags.write, "write", false,
		"Run the query in a write transaction and print its counters")
	queryCmd.Flags().StringSliceVar(&queryFlags.params, "param", nil,
		"Query parameter as key=value (repeatable)")
	queryCmd.Flags().StringSliceVar(&queryFlags.paramsFiles, "params-file", nil,
		"Parameters from a .env file (repeatable)")
	queryCmd.Flags().DurationVar(&queryFlags.timeout, "timeout", 5*time.Minute,
		"Maximum duration of the query")
}

func runQuery(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	projectCfg, err := loadProjectConfig(queryFlags.project)
	if err != nil {
		return err
	}

	query := args[0]
	var base map[string]any
	if projectCfg != nil {
		base = projectCfg.Params
		resolved, err := projectCfg.ResolveQueries(config.QueryList{query})
		if err != nil {
			return err
		}
		query = resolved[0]
	}

	parameters, err := loadMergedParameters(base, queryFlags.paramsFiles, queryFlags.params, logger)
	if err != nil {
		return err
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, queryFlags.timeout)
	if err != nil {
		return err
	}
	ctx, cancel := newCommandContext(timeout, "query")
	defer cancel()

	connCfg := resolveConnection(queryFlags.connection, projectCfg)
	driver, err := graphdb.Connect(ctx, connCfg, logger)
	if err != nil {
		return err
	}
	defer driver.Close(context.Background())

	graph := services.NewGraphService(driver, services.NewLoadService(driver, logger), logger)
	styled := tui.IsTerminal(os.Stdout)

	if queryFlags.write {
		counters, err := graph.ExecuteWriteQuery(ctx, query, connCfg.Database, parameters)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, tui.RenderCounters(counters, styled))
		return nil
	}

	table, err := graph.ExecuteRead(ctx, query, connCfg.Database, parameters)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, tui.RenderTable(table, styled))
	return nil
}
