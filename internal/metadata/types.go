// Package metadata builds and persists the per-item and collection-level JSON
// files of a generated collection, and reads them back for post-processing.
package metadata

import (
	"fmt"

	"github.com/dyluth/traitforge/pkg/engine"
)

// NoneValue marks a category the item does not carry.
const NoneValue = "None"

// RequiredFields must be present in every per-item metadata file.
var RequiredFields = []string{"id", "name", "symbol", "description", "image", "background_color", "attributes"}

// Attribute is one (trait_type, value) entry of an item's metadata.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// ItemMetadata is the marketplace-facing record written to metadata/<id>.json.
type ItemMetadata struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Symbol          string      `json:"symbol"`
	Description     string      `json:"description"`
	Image           string      `json:"image"`
	ExternalURL     string      `json:"external_url,omitempty"`
	BackgroundColor string      `json:"background_color"`
	Attributes      []Attribute `json:"attributes"`
}

// CollectionRecord is one entry of collection_metadata.json.
type CollectionRecord struct {
	ID              int                `json:"id"`
	ImageName       string             `json:"image_name"`
	Traits          *engine.Assignment `json:"traits"`
	Hash            string             `json:"hash"`
	BackgroundColor string             `json:"background_color"`
}

// Stats is the content of collection_stats.json.
type Stats struct {
	RunID                  string         `json:"run_id"`
	Seed                   int64          `json:"seed"`
	Requested              int            `json:"requested"`
	TotalItems             int            `json:"total_items"`
	SuccessRate            float64        `json:"success_rate"`
	UniqueAnchorSignatures int            `json:"unique_anchor_signatures"`
	UniquePatterns         int            `json:"unique_patterns"`
	AttemptFailures        map[string]int `json:"generation_failures"`
	ItemFailures           map[string]int `json:"item_failures"`
	BackgroundDistribution map[string]int `json:"background_distribution"`
	DurationMs             int64          `json:"duration_ms"`
}

// Template holds the collection-wide fields copied into every item.
type Template struct {
	Name        string
	Symbol      string
	Description string
	ExternalURL string
	ImageCID    string
}

// ImageURI is the content-addressed image reference for an image stem.
func ImageURI(cid, stem string) string {
	return fmt.Sprintf("ipfs://%s/%s.png", cid, stem)
}

// BuildItemMetadata renders item as ItemMetadata. Attributes list every category
// of traitOrder in that order, with NoneValue for categories the item lacks.
func BuildItemMetadata(item *engine.Item, traitOrder []string, tmpl Template) ItemMetadata {
	stem := fmt.Sprintf("%d", item.ID)
	return ItemMetadata{
		ID:              stem,
		Name:            fmt.Sprintf("%s #%d", tmpl.Name, item.ID),
		Symbol:          tmpl.Symbol,
		Description:     tmpl.Description,
		Image:           ImageURI(tmpl.ImageCID, stem),
		ExternalURL:     tmpl.ExternalURL,
		BackgroundColor: item.BackgroundColor,
		Attributes:      Attributes(item.Traits, traitOrder),
	}
}

// Attributes lists a's value for every category in order, NoneValue when absent.
func Attributes(a *engine.Assignment, order []string) []Attribute {
	out := make([]Attribute, len(order))
	for i, category := range order {
		value, ok := a.Get(category)
		if !ok {
			value = NoneValue
		}
		out[i] = Attribute{TraitType: category, Value: value}
	}
	return out
}

// NewCollectionRecord converts an accepted item into its collection entry.
func NewCollectionRecord(item *engine.Item) CollectionRecord {
	return CollectionRecord{
		ID:              item.ID,
		ImageName:       fmt.Sprintf("%d.png", item.ID),
		Traits:          item.Traits,
		Hash:            item.Hash,
		BackgroundColor: item.BackgroundColor,
	}
}
