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
	"github.com/vvka-141/neoload/pkg/neoload"
)

var loadCmd = &cobra.Command{
	Use:   "load [project_dir]",
	Short: "Load the data files of a project into Neo4j",
	Long: `Load runs an ingest described by neoload.yaml in project_dir (default: the
current directory).

The load command:
1. Runs the pre_ingest queries
2. Reads every data file that is not marked skip_file, chunk_size rows at a time
3. Splits each chunk into partitions and writes each partition in its own
   transaction, sequentially or with parallel workers
4. Runs the post_ingest queries
5. Prints a summary of the counters per data file

Sequential loads stop at the first failed partition. Parallel loads run
every partition and report all failures together. Either way the counters
of the partitions that committed are reported.

Password Authentication:
  For security, password is NOT accepted as a CLI flag. Set NEO4J_PASSWORD
  in the environment or in a .env file next to where neoload runs.

Examples:
  # Load ./neoload.yaml
  neoload load

  # Load one data file of a project with 4 parallel workers
  neoload load ./import --file people.csv --partitions 8 --parallel --workers 4

  # Layered parameters (CLI overrides files, files override neoload.yaml)
  neoload load ./import --params-file prod.env --param batch=2024`,
	Args: OptionalProjectPath,
	RunE: runLoad,
}

type loadFlagValues struct {
	connection     connectionFlags
	params         []string
	paramsFiles    []string
	files          []string
	partitions     int
	parallel       bool
	workers        int
	skipPreIngest  bool
	skipPostIngest bool
	timeout        time.Duration
}

var loadFlags loadFlagValues

func init() {
	rootCmd.AddCommand(loadCmd)

	registerConnectionFlags(loadCmd, &loadFlags.connection)

	loadCmd.Flags().StringSliceVar(&loadFlags.params, "param", nil,
		"Query parameter as key=value (repeatable; values are typed: 1, 2.5, true, text)")
	loadCmd.Flags().StringSliceVar(&loadFlags.paramsFiles, "params-file", nil,
		"Parameters from a .env file (repeatable; later files override earlier ones)")
	loadCmd.Flags().StringArrayVar(&loadFlags.files, "file", nil,
		"Only load data files whose URL ends with this name (repeatable)")
	loadCmd.Flags().IntVar(&loadFlags.partitions, "partitions", neoload.DefaultPartitions,
		"Partitions per chunk for every data file (overrides neoload.yaml)")
	loadCmd.Flags().BoolVar(&loadFlags.parallel, "parallel", false,
		"Load partitions with parallel workers (overrides neoload.yaml)")
	loadCmd.Flags().IntVar(&loadFlags.workers, "workers", 0,
		"Parallel workers (0 = number of CPUs)")
	loadCmd.Flags().BoolVar(&loadFlags.skipPreIngest, "skip-pre-ingest", false,
		"Do not run the pre_ingest queries")
	loadCmd.Flags().BoolVar(&loadFlags.skipPostIngest, "skip-post-ingest", false,
		"Do not run the post_ingest queries")
	loadCmd.Flags().DurationVar(&loadFlags.timeout, "timeout", neoload.DefaultTimeout,
		"Maximum duration of the whole load (overrides neoload.yaml)")
}

func runLoad(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	projectPath := "."
	if len(args) == 1 {
		projectPath = args[0]
	}

	projectCfg, err := loadProjectConfig(projectPath)
	if err != nil {
		return err
	}
	if projectCfg == nil {
		return fmt.Errorf("%s not found in %s\n\nTip: neoload load expects a project directory containing %s: %w",
			config.ConfigFileName, projectPath, config.ConfigFileName, neoload.ErrInvalidConfig)
	}

	timeout, err := resolveEffectiveTimeout(cmd, projectCfg, loadFlags.timeout)
	if err != nil {
		return err
	}

	styled := tui.IsInteractive()
	var logger neoload.Logger
	var progress *tui.Progress
	if styled {
		progress = tui.NewProgress(os.Stderr, verbose)
		logger = progress
	} else {
		logger = logging.NewConsoleLogger(verbose)
	}

	parameters, err := loadMergedParameters(nil, loadFlags.paramsFiles, loadFlags.params, logger)
	if err != nil {
		return err
	}

	plan, err := projectCfg.Plan(planOptionsFromFlags(cmd, loadFlags, parameters))
	if err != nil {
		return err
	}

	connCfg := resolveConnection(loadFlags.connection, projectCfg)
	plan.Database = connCfg.Database

	opener, sources, err := buildSourceOpener(projectCfg, logger)
	if err != nil {
		return err
	}
	defer sources.Close()

	ctx, cancel := newCommandContext(timeout, "load")
	defer cancel()

	driver, err := graphdb.Connect(ctx, connCfg, logger)
	if err != nil {
		return err
	}
	defer driver.Close(context.Background())

	loader := services.NewLoadService(driver, logger)
	if progress != nil {
		loader = loader.WithObserver(progress)
	}
	graph := services.NewGraphService(driver, loader, logger)
	ingest := services.NewIngestService(graph, loader, opener, logger)
	if progress != nil {
		ingest = ingest.WithObserver(progress)
		progress.Start()
	}

	report, err := ingest.Run(ctx, plan)
	if progress != nil {
		progress.Stop()
	}
	if report != nil {
		fmt.Fprintln(os.Stdout, tui.RenderReport(report, styled))
	}
	if err != nil {
		return fmt.Errorf("load failed: %w", err)
	}
	return nil
}

// planOptionsFromFlags only overrides neoload.yaml for flags set on the command line.
func planOptionsFromFlags(cmd *cobra.Command, flags loadFlagValues, parameters map[string]any) config.PlanOptions {
	opts := config.PlanOptions{
		Only:           flags.files,
		SkipPreIngest:  flags.skipPreIngest,
		SkipPostIngest: flags.skipPostIngest,
		Parameters:     parameters,
	}
	if cmd.Flags().Changed("partitions") {
		opts.Partitions = &flags.partitions
	}
	if cmd.Flags().Changed("parallel") {
		opts.Parallel = &flags.parallel
	}
	if cmd.Flags().Changed("workers") {
		opts.Workers = &flags.workers
	}
	return opts
}
