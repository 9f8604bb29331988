package commands

import (
	"fmt"

	"github.com/dyluth/traitforge/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
	initDir   string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new traitforge project",
	Long: `Initialize a new traitforge project with a starter configuration.

Creates:
  • traitforge.yml - Project configuration file
  • config.json    - Trait catalog (categories, options and weights)
  • ruler.json     - Exclusion rules between trait values
  • traits/        - Placeholder layer images, one per option

Use --force to reinitialize an existing project (WARNING: destroys existing configuration).`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Force reinitialization (removes existing project files)")
	initCmd.Flags().StringVar(&initDir, "dir", ".", "Directory to initialize")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting(initDir); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(initDir, forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess()
	return nil
}
