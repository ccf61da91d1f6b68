// Package config loads and validates the chromatag settings file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/chromatag/internal/colour"
	chromaimage "github.com/jmylchreest/chromatag/internal/image"
)

// EnvCatalogPath overrides the configured catalog path when set.
const EnvCatalogPath = "CHROMATAG_CATALOG"

// EnvMappingPath overrides the configured colour-mapping ledger path when set.
const EnvMappingPath = "CHROMATAG_MAPPING"

// Config is the full settings file. Categories and analysis parameters are
// loaded once per run and treated as read-only from then on; classification
// calls receive them as plain values, never through shared mutable state.
type Config struct {
	Analysis   Analysis   `yaml:"analysis"`
	Categories []Category `yaml:"categories"`
	Catalog    Catalog    `yaml:"catalog"`
}

// Analysis holds the tunable parameters of the extraction and matching
// pipeline.
type Analysis struct {
	// K is the number of colour clusters extracted per image.
	K int `yaml:"kmeans_k"`

	// MaxIterations bounds k-means iteration.
	MaxIterations int `yaml:"max_iterations"`

	// Convergence is the centroid-movement tolerance that stops k-means.
	Convergence float64 `yaml:"convergence"`

	// Seed drives centroid initialisation so runs are reproducible.
	Seed int64 `yaml:"seed"`

	// MaxDistance is the furthest a category reference may be from the
	// dominant colour and still match.
	MaxDistance float64 `yaml:"max_distance"`

	// MinWeight is the dominant-mass threshold below which clusters are
	// aggregated before matching.
	MinWeight float64 `yaml:"min_weight"`

	// ChannelWeights optionally scales R, G, B differences in the
	// distance metric. Empty means unweighted.
	ChannelWeights []float64 `yaml:"channel_weights"`

	// Sampling controls.
	MaxSamples int     `yaml:"max_samples"`
	CropMargin float64 `yaml:"crop_margin"`
	FilterMin  float64 `yaml:"pixel_filter_min"`
	FilterMax  float64 `yaml:"pixel_filter_max"`
	MinPixels  int     `yaml:"min_pixels"`

	// DownloadTimeoutSeconds bounds each image download, in seconds.
	DownloadTimeoutSeconds int `yaml:"image_download_timeout"`

	// CacheImages enables the on-disk download cache.
	CacheImages bool `yaml:"cache_images"`

	// CacheDir overrides the default download cache directory.
	CacheDir string `yaml:"cache_dir"`

	// Workers is the number of images classified concurrently.
	Workers int `yaml:"workers"`
}

// Category is one named colour category from the settings file.
type Category struct {
	Name       string   `yaml:"name"`
	ID         string   `yaml:"id"`
	Colour     string   `yaml:"colour"`
	AltColours []string `yaml:"alt_colours"`
	Synonyms   []string `yaml:"synonyms"`
}

// Catalog locates the product catalog and the colour-mapping ledger.
type Catalog struct {
	Path        string  `yaml:"path"`
	MappingPath string  `yaml:"mapping_path"`
	Columns     Columns `yaml:"columns"`
}

// Columns names the catalog header columns chromatag reads and writes.
type Columns struct {
	ProductName string `yaml:"product_name"`
	ImageURL    string `yaml:"image_url"`
	ColourID    string `yaml:"colour_id"`
}

// Default returns the built-in configuration. It has no categories; those
// always come from the settings file.
func Default() Config {
	return Config{
		Analysis: Analysis{
			K:                      3,
			MaxIterations:          20,
			Convergence:            1.0,
			Seed:                   1,
			MaxDistance:            120,
			MinWeight:              0.0,
			MaxSamples:             10000,
			CropMargin:             0.3,
			FilterMin:              20,
			FilterMax:              230,
			MinPixels:              10,
			DownloadTimeoutSeconds: 10,
			Workers:                4,
		},
		Catalog: Catalog{
			Columns: Columns{
				ProductName: "product_name",
				ImageURL:    "image_url",
				ColourID:    "colour_id",
			},
		},
	}
}

// Load reads the settings file at path, applies defaults for every unset
// analysis knob, applies environment overrides and validates the result.
// A .env file in the working directory is loaded first if present.
func Load(path string) (Config, error) {
	// Missing .env is fine; only the variables matter.
	_ = godotenv.Load()

	data, err := os.ReadFile(path) // #nosec G304 - User-specified config path, intended to be read
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if v := os.Getenv(EnvCatalogPath); v != "" {
		cfg.Catalog.Path = v
	}
	if v := os.Getenv(EnvMappingPath); v != "" {
		cfg.Catalog.MappingPath = v
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks category uniqueness, colour syntax and parameter ranges.
func (c Config) Validate() error {
	if len(c.Categories) == 0 {
		return fmt.Errorf("config must define at least one colour category")
	}

	seenNames := make(map[string]bool, len(c.Categories))
	for i, cat := range c.Categories {
		if cat.Name == "" {
			return fmt.Errorf("category %d has no name", i)
		}
		if cat.ID == "" {
			return fmt.Errorf("category %q has no id", cat.Name)
		}
		if cat.ID == colour.UnknownID {
			return fmt.Errorf("category %q uses the reserved id %q", cat.Name, colour.UnknownID)
		}
		if seenNames[cat.Name] {
			return fmt.Errorf("duplicate category name %q", cat.Name)
		}
		seenNames[cat.Name] = true

		if _, err := ParseHex(cat.Colour); err != nil {
			return fmt.Errorf("category %q: %w", cat.Name, err)
		}
		for _, alt := range cat.AltColours {
			if _, err := ParseHex(alt); err != nil {
				return fmt.Errorf("category %q alt colour: %w", cat.Name, err)
			}
		}
	}

	if n := len(c.Analysis.ChannelWeights); n != 0 && n != 3 {
		return fmt.Errorf("channel_weights must list exactly 3 values, got %d", n)
	}

	if _, err := c.ExtractOptions(); err != nil {
		return err
	}
	if _, err := c.MatchOptions(); err != nil {
		return err
	}
	return c.SampleOptions().Validate()
}

// ExtractOptions builds the extractor configuration.
func (c Config) ExtractOptions() (colour.ExtractOptions, error) {
	opts := colour.ExtractOptions{
		K:             c.Analysis.K,
		MaxIterations: c.Analysis.MaxIterations,
		Convergence:   c.Analysis.Convergence,
		Seed:          c.Analysis.Seed,
	}
	if err := opts.Validate(); err != nil {
		return colour.ExtractOptions{}, err
	}
	return opts, nil
}

// MatchOptions builds the matcher configuration.
func (c Config) MatchOptions() (colour.MatchOptions, error) {
	opts := colour.MatchOptions{
		MaxDistance: c.Analysis.MaxDistance,
		MinWeight:   c.Analysis.MinWeight,
	}
	if len(c.Analysis.ChannelWeights) == 3 {
		copy(opts.ChannelWeights[:], c.Analysis.ChannelWeights)
	}
	if err := opts.Validate(); err != nil {
		return colour.MatchOptions{}, err
	}
	return opts, nil
}

// SampleOptions builds the pixel sampling configuration.
func (c Config) SampleOptions() chromaimage.SampleOptions {
	return chromaimage.SampleOptions{
		MaxSamples: c.Analysis.MaxSamples,
		CropMargin: c.Analysis.CropMargin,
		FilterMin:  c.Analysis.FilterMin,
		FilterMax:  c.Analysis.FilterMax,
		MinPixels:  c.Analysis.MinPixels,
	}
}

// MatcherCategories converts the configured categories into the matcher's
// category set.
func (c Config) MatcherCategories() ([]colour.Category, error) {
	categories := make([]colour.Category, len(c.Categories))
	for i, cat := range c.Categories {
		ref, err := ParseHex(cat.Colour)
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", cat.Name, err)
		}

		alts := make([]colour.RGB, 0, len(cat.AltColours))
		for _, alt := range cat.AltColours {
			rgb, err := ParseHex(alt)
			if err != nil {
				return nil, fmt.Errorf("category %q alt colour: %w", cat.Name, err)
			}
			alts = append(alts, rgb)
		}

		categories[i] = colour.Category{
			Name:       cat.Name,
			ID:         cat.ID,
			Colour:     ref,
			AltColours: alts,
			Synonyms:   cat.Synonyms,
		}
	}
	return categories, nil
}

// DownloadTimeout returns the per-image download timeout.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.Analysis.DownloadTimeoutSeconds) * time.Second
}

// ParseHex parses a hex colour string (#RRGGBB or RRGGBB) to RGB.
func ParseHex(hex string) (colour.RGB, error) {
	s := hex
	if len(s) > 0 && s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return colour.RGB{}, fmt.Errorf("invalid hex colour %q", hex)
	}

	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return colour.RGB{}, fmt.Errorf("invalid hex colour %q: %w", hex, err)
	}

	return colour.RGB{R: r, G: g, B: b}, nil
}
