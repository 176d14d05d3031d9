package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "neoload",
	Short: "Bulk-load tabular data into Neo4j",
	Long: `neoload reads CSV, JSON and relational data and loads it into Neo4j
with parameterized Cypher queries.

Rows are split into partitions and each partition is written in its own
transaction, sequentially or by a pool of parallel workers. The rows of a
partition are bound to the $rows parameter:

  UNWIND $rows AS row
  MERGE (p:Person {id: row.id}) SET p.name = row.name

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid configuration or parameters
  11 - Graph database connection failed
  13 - Load or query failed
  14 - Data source could not be read`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersionInfo()
		return nil
	}
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output for all commands")
}

// getVerboseFlag safely retrieves the verbose flag value
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to get verbose flag: %v\n", err)
		return false
	}
	return verbose
}
