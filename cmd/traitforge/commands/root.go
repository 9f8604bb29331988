package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/dyluth/traitforge/internal/config"
	"github.com/dyluth/traitforge/internal/logging"
	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/dyluth/traitforge/pkg/catalog"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string

	configPath string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "traitforge",
	Short: "traitforge - constrained trait composition for generative collections",
	Long: `traitforge generates collections of unique items from a weighted trait
catalog and a set of exclusion rules. Each item gets a composited PNG and
marketplace-style metadata; analysis commands inspect the finished collection.`,
	Version: version,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "f", "traitforge.yml", "Path to the project configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

// loadConfig reads the project configuration, reporting failures in the CLI's error format.
func loadConfig() (*config.Config, error) {
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		return nil, printer.ErrorWithContext(
			"configuration not found",
			"No project configuration exists at the given path.",
			map[string]string{"Path": configPath},
			[]string{
				"Run 'traitforge init' to create a starter project",
				"Pass --config with the path to an existing traitforge.yml",
			},
		)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, printer.ErrorWithContext(
			"invalid configuration",
			err.Error(),
			map[string]string{"Path": configPath},
			nil,
		)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// newLogger builds the structured logger configured for the project.
func newLogger(cfg *config.Config) (*logging.Logger, error) {
	log, err := logging.New(cfg.Log.Mode, cfg.Log.Level)
	if err != nil {
		return nil, printer.Error("invalid log configuration", err.Error(), nil)
	}
	return log, nil
}

// traitOrder returns the catalog's category order, or nil when the catalog
// cannot be read. Analysis still works without it.
func traitOrder(cfg *config.Config) []string {
	cat, err := catalog.LoadCatalog(cfg.CatalogPath())
	if err != nil {
		return nil
	}
	return cat.TraitOrder
}

// loadRecords reads collection records from input, or from the project's
// output directory when input is empty.
func loadRecords(cfg *config.Config, input string) ([]metadata.Record, error) {
	path := input
	if path == "" {
		found, err := metadata.FindRecordsFile(cfg.OutputDir())
		if err != nil {
			path = cfg.MetadataDir()
			if _, statErr := os.Stat(path); statErr != nil {
				return nil, printer.Error(
					"no collection found",
					err.Error(),
					[]string{"Run 'traitforge generate' first, or pass --input with a metadata file or directory"},
				)
			}
		} else {
			path = found
		}
	}

	records, err := metadata.LoadRecords(path, traitOrder(cfg))
	if err != nil {
		return nil, printer.ErrorWithContext("failed to load collection", err.Error(), map[string]string{"Path": path}, nil)
	}
	return records, nil
}
