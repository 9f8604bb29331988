package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// DefaultPalette is the background colour set used when traitforge.yml has none.
var DefaultPalette = []string{
	"2eebb1", "9bb5ff", "27e174", "74d9dc", "9175fd",
	"b281f6", "c4ffe3", "d2dfe7", "f0cb9f", "f6f87b",
	"fb3d69", "fe81c5", "fe9137", "fedc60", "ff9dcd",
	"ffd7d8", "fff6d7",
}

// EnvPrefix is prepended to upper-cased keys for environment overrides,
// e.g. TRAITFORGE_COLLECTION_SIZE.
const EnvPrefix = "TRAITFORGE"

var hexColour = regexp.MustCompile(`^[0-9a-fA-F]{6}$`)

// Config represents the top-level traitforge.yml configuration
type Config struct {
	Version     string            `mapstructure:"version"`
	Collection  CollectionConfig  `mapstructure:"collection"`
	Generation  GenerationConfig  `mapstructure:"generation"`
	Palette     []string          `mapstructure:"palette"`
	Paths       PathsConfig       `mapstructure:"paths"`
	Compositing CompositingConfig `mapstructure:"compositing"`
	Events      EventsConfig      `mapstructure:"events"`
	Log         LogConfig         `mapstructure:"log"`

	// Dir is the directory of the loaded file; relative paths resolve against it.
	Dir string `mapstructure:"-"`
}

// CollectionConfig describes the collection and the per-item metadata fields.
type CollectionConfig struct {
	Size        int    `mapstructure:"size"`
	Name        string `mapstructure:"name"`
	Symbol      string `mapstructure:"symbol"`
	Description string `mapstructure:"description"`
	ExternalURL string `mapstructure:"external_url"`
	ImageCID    string `mapstructure:"image_cid"` // Placeholder until the real CID is known
}

// GenerationConfig holds the engine budgets and uniqueness settings.
type GenerationConfig struct {
	Seed             *int64   `mapstructure:"seed"` // nil: seeded from the clock and logged
	MaxAttempts      int      `mapstructure:"max_attempts"`
	MaxTraitAttempts int      `mapstructure:"max_trait_attempts"`
	PatternCeiling   int      `mapstructure:"pattern_ceiling"`
	PatternSize      int      `mapstructure:"pattern_size"`
	Anchors          []string `mapstructure:"anchors"`
}

// PathsConfig locates inputs and outputs.
type PathsConfig struct {
	Catalog string `mapstructure:"catalog"`
	Rules   string `mapstructure:"rules"`
	Traits  string `mapstructure:"traits"`
	Output  string `mapstructure:"output"`
}

// CompositingConfig controls image output. When the item's RareCategory value is
// one of RareValues, layers are stacked in RareOrder instead of catalog order.
type CompositingConfig struct {
	Width        int      `mapstructure:"width"`
	Height       int      `mapstructure:"height"`
	RareCategory string   `mapstructure:"rare_category"`
	RareValues   []string `mapstructure:"rare_values"`
	RareOrder    []string `mapstructure:"rare_order"`
}

// EventsConfig enables Redis progress events. An empty RedisURL disables them.
type EventsConfig struct {
	RedisURL string `mapstructure:"redis_url"`
	RunName  string `mapstructure:"run_name"` // Defaults to the collection name
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("version", "1.0")
	v.SetDefault("collection.size", 100)
	v.SetDefault("collection.symbol", "")
	v.SetDefault("collection.description", "")
	v.SetDefault("collection.external_url", "")
	v.SetDefault("collection.image_cid", "<your-ipfs-cid>")

	v.SetDefault("generation.max_attempts", 1000)
	v.SetDefault("generation.max_trait_attempts", 100)
	v.SetDefault("generation.pattern_ceiling", 1)
	v.SetDefault("generation.pattern_size", 4)
	v.SetDefault("generation.anchors", []string{"Base", "Suit", "Head"})

	v.SetDefault("palette", DefaultPalette)

	v.SetDefault("paths.catalog", "config.json")
	v.SetDefault("paths.rules", "ruler.json")
	v.SetDefault("paths.traits", "traits")
	v.SetDefault("paths.output", "output")

	v.SetDefault("compositing.width", 960)
	v.SetDefault("compositing.height", 960)
	v.SetDefault("compositing.rare_category", "Head")
	v.SetDefault("compositing.rare_values", []string{"DB Saiyan"})
	v.SetDefault("compositing.rare_order", []string{"Base", "Suit", "Mouth", "Head", "Eyes"})

	v.SetDefault("events.redis_url", "")
	v.SetDefault("events.run_name", "")

	v.SetDefault("log.mode", "development")
	v.SetDefault("log.level", "info")
}

// Load reads traitforge.yml from path, applies defaults and TRAITFORGE_*
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// No default exists for the seed, so the env binding must be explicit.
	if err := v.BindEnv("generation.seed"); err != nil {
		return nil, fmt.Errorf("failed to bind seed env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	cfg.Dir = filepath.Dir(abs)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate performs strict validation and fills derived defaults.
func (c *Config) Validate() error {
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	if c.Collection.Name == "" {
		return fmt.Errorf("collection.name is required")
	}
	if c.Collection.Size < 1 {
		return fmt.Errorf("collection.size must be >= 1, got %d", c.Collection.Size)
	}

	g := c.Generation
	if g.MaxAttempts < 1 {
		return fmt.Errorf("generation.max_attempts must be >= 1, got %d", g.MaxAttempts)
	}
	if g.MaxTraitAttempts < 1 {
		return fmt.Errorf("generation.max_trait_attempts must be >= 1, got %d", g.MaxTraitAttempts)
	}
	if g.PatternCeiling < 1 {
		return fmt.Errorf("generation.pattern_ceiling must be >= 1, got %d", g.PatternCeiling)
	}
	if g.PatternSize < 1 {
		return fmt.Errorf("generation.pattern_size must be >= 1, got %d", g.PatternSize)
	}
	seen := make(map[string]bool)
	for _, a := range g.Anchors {
		if a == "" {
			return fmt.Errorf("generation.anchors contains an empty category")
		}
		if seen[a] {
			return fmt.Errorf("generation.anchors lists '%s' twice", a)
		}
		seen[a] = true
	}

	if len(c.Palette) == 0 {
		return fmt.Errorf("palette must contain at least one colour")
	}
	for i, colour := range c.Palette {
		c.Palette[i] = strings.TrimPrefix(colour, "#")
		if !hexColour.MatchString(c.Palette[i]) {
			return fmt.Errorf("palette entry '%s' is not a 6-digit hex colour", colour)
		}
	}

	if c.Compositing.Width < 1 || c.Compositing.Height < 1 {
		return fmt.Errorf("compositing size must be positive, got %dx%d", c.Compositing.Width, c.Compositing.Height)
	}
	if len(c.Compositing.RareValues) > 0 && c.Compositing.RareCategory == "" {
		return fmt.Errorf("compositing.rare_values requires compositing.rare_category")
	}

	switch strings.ToLower(c.Log.Mode) {
	case "", "dev", "development", "prod", "production":
	default:
		return fmt.Errorf("invalid log.mode: %s (must be 'development' or 'production')", c.Log.Mode)
	}
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %s", c.Log.Level)
	}

	if c.Events.RunName == "" {
		c.Events.RunName = c.Collection.Name
	}

	return nil
}

// Resolve returns p unchanged if absolute, otherwise joined to the config directory.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) || c.Dir == "" {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// CatalogPath is the resolved trait catalog path.
func (c *Config) CatalogPath() string { return c.Resolve(c.Paths.Catalog) }

// RulesPath is the resolved exclusion rule path.
func (c *Config) RulesPath() string { return c.Resolve(c.Paths.Rules) }

// TraitsDir is the resolved layer image root.
func (c *Config) TraitsDir() string { return c.Resolve(c.Paths.Traits) }

// OutputDir is the resolved output root.
func (c *Config) OutputDir() string { return c.Resolve(c.Paths.Output) }

// MetadataDir holds one JSON file per item.
func (c *Config) MetadataDir() string { return filepath.Join(c.OutputDir(), "metadata") }
