package commands

import (
	"errors"
	"fmt"

	"github.com/dyluth/traitforge/internal/filter"
	"github.com/dyluth/traitforge/internal/items"
	"github.com/dyluth/traitforge/internal/printer"
	"github.com/dyluth/traitforge/internal/resolver"
	"github.com/spf13/cobra"
)

var (
	itemsOutputFormat string
	itemsTraits       []string
	itemsBackground   string
	itemsInput        string
)

var itemsCmd = &cobra.Command{
	Use:   "items [ID|HASH_PREFIX]",
	Short: "Inspect generated items with filtering",
	Long: `Inspect generated items in list or get mode.

List Mode (no argument):
  Displays items matching filters as a table or JSONL stream.

Get Mode (with ID or HASH_PREFIX):
  Displays one item as pretty-printed JSON. Accepts a numeric item id or
  a content hash prefix of at least 6 characters.

Output Formats (list mode only):
  default - Human-readable table with ID, hash, background and traits
  jsonl   - Line-delimited JSON, one item per line

Filters (list mode only):
  --trait       - Category=pattern, repeatable ("Head=DB*", "Eyes=None")
  --background  - Background colour pattern ("2e*")

Examples:
  # List every item
  traitforge items

  # Items wearing a helmet with no eyes, as JSONL for jq
  traitforge items --trait Head=Helmet --trait Eyes=None -o jsonl | jq .id

  # Get one item by hash prefix
  traitforge items 3fa9c1`,
	Args: cobra.MaximumNArgs(1),
	RunE: runItems,
}

func init() {
	itemsCmd.Flags().StringVarP(&itemsOutputFormat, "output", "o", "default", "Output format: default or jsonl (ignored in get mode)")
	itemsCmd.Flags().StringArrayVar(&itemsTraits, "trait", nil, "Filter by trait (Category=pattern, repeatable)")
	itemsCmd.Flags().StringVar(&itemsBackground, "background", "", "Filter by background colour (glob pattern)")
	itemsCmd.Flags().StringVar(&itemsInput, "input", "", "Metadata file or directory (defaults to the project output)")
	rootCmd.AddCommand(itemsCmd)
}

func runItems(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	records, err := loadRecords(cfg, itemsInput)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if len(args) == 1 {
		err := items.Get(out, records, args[0])
		var ambiguous *resolver.AmbiguousError
		switch {
		case err == nil:
			return nil
		case errors.As(err, &ambiguous):
			return printer.Error("ambiguous item reference", resolver.FormatAmbiguousError(ambiguous), nil)
		case resolver.IsNotFoundError(err):
			return printer.ErrorWithContext(
				"item not found",
				fmt.Sprintf("No item matches '%s'.", args[0]),
				map[string]string{"Collection": cfg.Collection.Name},
				[]string{"Run 'traitforge items' to list all items"},
			)
		default:
			return printer.Error("invalid item reference", err.Error(), nil)
		}
	}

	format, err := items.ParseFormat(itemsOutputFormat)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), []string{"Valid formats: default, jsonl"})
	}

	traits, err := filter.ParseTraits(itemsTraits)
	if err != nil {
		return printer.Error("invalid trait filter", err.Error(), nil)
	}
	criteria := &filter.Criteria{Traits: traits, Background: itemsBackground}

	_, err = items.List(out, records, format, criteria, cfg.Collection.Name)
	return err
}
