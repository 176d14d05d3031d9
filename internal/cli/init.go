package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/neoload/internal/logging"
	"github.com/vvka-141/neoload/internal/scaffold"
)

var initCmd = &cobra.Command{
	Use:   "init <project_dir>",
	Short: "Create a new neoload project",
	Long: `Init creates a starter project with a neoload.yaml in an empty or new
directory.

Templates:
  basic     Two CSV files loaded into Person nodes and KNOWS relationships
  postgres  Tables copied from PostgreSQL (standard, AWS, Google or Azure auth)

Examples:
  neoload init ./people
  neoload init ./warehouse --template postgres`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

var initTemplate string

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringVarP(&initTemplate, "template", "t", scaffold.DefaultTemplate,
		"Project template (basic, postgres)")
}

func runInit(cmd *cobra.Command, args []string) error {
	targetPath := args[0]
	projectName := filepath.Base(filepath.Clean(targetPath))
	if abs, err := filepath.Abs(targetPath); err == nil {
		projectName = filepath.Base(abs)
	}

	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))
	if err := scaffold.NewScaffolder(logger).CreateProject(projectName, initTemplate, targetPath); err != nil {
		return err
	}

	tree, err := scaffold.BuildFileTree(targetPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Created project %q:\n\n%s\nNext: cd %s && neoload load\n", projectName, tree, targetPath)
	return nil
}
