package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// OptionalProjectPath accepts zero or one project_path argument.
// The current directory is used when none is given.
func OptionalProjectPath(cmd *cobra.Command, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("accepts at most 1 arg(s), received %d", len(args))
	}
	return nil
}

// RequireQuery validates that exactly one Cypher query argument is provided.
// Returns a helpful error message with usage and examples if missing or too many.
func RequireQuery(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <cypher>

Usage: %s

Example:
  %s "MATCH (n) RETURN count(n) AS nodes"`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d (quote the query)", len(args))
	}
	return nil
}

// RequireStatKind validates that exactly one statistics kind is provided.
func RequireStatKind(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf(`missing required argument: <kind>

Usage: %s

Example:
  %s labels`, cmd.UseLine(), cmd.CommandPath())
	}
	if len(args) > 1 {
		return fmt.Errorf("accepts 1 arg(s), received %d", len(args))
	}
	return nil
}
