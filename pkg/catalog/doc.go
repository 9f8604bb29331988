// Package catalog defines the trait catalog and exclusion rule set that drive
// collection generation, and loads them from JSON or YAML files.
//
// # Catalog
//
// A catalog lists every trait category in its default layering order together
// with an inclusion probability (0-100) and an ordered set of options, each
// carrying a rarity weight:
//
//	{
//	  "trait_order": ["Base", "Suit", "Head", "Eyes"],
//	  "traits": {
//	    "Base": {"rarity": 100, "options": [{"name": "Blue", "rarity": 60}, {"name": "Gold", "rarity": 5}]}
//	  }
//	}
//
// # Rules
//
// A rule set holds conditional exclusions. The "then" side may list the wildcard
// value "all" to exclude every value of the target category:
//
//	{"rules": [{"if": {"trait_type": "Head", "value": ["Helmet"]},
//	            "then": {"trait_type": "Eyes", "excluded_values": ["all"]}}]}
//
// Both documents are immutable once loaded. Any malformed input is reported as a
// *ConfigError before generation starts.
package catalog
