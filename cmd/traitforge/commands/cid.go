package commands

import (
	"github.com/dyluth/traitforge/internal/metadata"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/spf13/cobra"
)

var cidCmd = &cobra.Command{
	Use:   "cid CID",
	Short: "Point every item's image URI at a new IPFS CID",
	Long: `Rewrite the image field of every per-item metadata file to
ipfs://<CID>/<id>.png. Run this after uploading the images.`,
	Args: cobra.ExactArgs(1),
	RunE: runCID,
}

func init() {
	rootCmd.AddCommand(cidCmd)
}

func runCID(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	n, err := metadata.RewriteCID(cfg.MetadataDir(), args[0])
	if err != nil {
		return printer.ErrorWithContext("failed to update image CID", err.Error(), map[string]string{"Directory": cfg.MetadataDir()}, nil)
	}

	printer.Success("Updated %d metadata files to ipfs://%s/\n", n, args[0])
	return nil
}
