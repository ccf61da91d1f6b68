// Package pipeline wires image acquisition, colour extraction and category
// matching into per-image and whole-catalog classification runs.
package pipeline

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/chromatag/internal/colour"
	"github.com/jmylchreest/chromatag/internal/config"
	chromaimage "github.com/jmylchreest/chromatag/internal/image"
)

// Classifier runs the classification pipeline for one configuration.
// All fields are read-only after construction, so a single Classifier may
// serve many concurrent classification calls.
type Classifier struct {
	loader      chromaimage.Loader
	categories  []colour.Category
	extractOpts colour.ExtractOptions
	matchOpts   colour.MatchOptions
	sampleOpts  chromaimage.SampleOptions
	workers     int
	log         hclog.Logger
}

// New builds a Classifier from the loaded configuration.
func New(cfg config.Config, log hclog.Logger) (*Classifier, error) {
	categories, err := cfg.MatcherCategories()
	if err != nil {
		return nil, err
	}
	extractOpts, err := cfg.ExtractOptions()
	if err != nil {
		return nil, err
	}
	matchOpts, err := cfg.MatchOptions()
	if err != nil {
		return nil, err
	}

	loader := chromaimage.NewSmartLoader(cfg.DownloadTimeout())
	if cfg.Analysis.CacheImages {
		loader = loader.WithCache(cfg.Analysis.CacheDir)
	}

	workers := cfg.Analysis.Workers
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}

	return &Classifier{
		loader:      loader,
		categories:  categories,
		extractOpts: extractOpts,
		matchOpts:   matchOpts,
		sampleOpts:  cfg.SampleOptions(),
		workers:     workers,
		log:         log,
	}, nil
}

// WithLoader replaces the image loader. Used by tests and by callers that
// already hold decoded images elsewhere.
func (c *Classifier) WithLoader(loader chromaimage.Loader) *Classifier {
	c.loader = loader
	return c
}

// Categories returns the configured category set.
func (c *Classifier) Categories() []colour.Category {
	return c.categories
}

// ClassifyImage classifies a single image by path or URL: load, sample,
// extract the dominant colours, match against the category set.
func (c *Classifier) ClassifyImage(ctx context.Context, path string) (colour.Result, error) {
	result, _, err := c.Inspect(ctx, path)
	return result, err
}

// Inspect classifies a single image and also returns the extracted
// clusters, for callers that want to show what the decision was based on.
func (c *Classifier) Inspect(ctx context.Context, path string) (colour.Result, []colour.Cluster, error) {
	img, err := c.loader.Load(ctx, path)
	if err != nil {
		return colour.Result{}, nil, fmt.Errorf("load %s: %w", path, err)
	}

	pixels, err := chromaimage.SamplePixels(img, c.sampleOpts)
	if err != nil {
		return colour.Result{}, nil, fmt.Errorf("sample %s: %w", path, err)
	}

	clusters, err := colour.Extract(pixels, c.extractOpts)
	if err != nil {
		return colour.Result{}, nil, fmt.Errorf("extract %s: %w", path, err)
	}

	result, err := colour.Match(clusters, c.categories, c.matchOpts)
	if err != nil {
		return colour.Result{}, nil, fmt.Errorf("match %s: %w", path, err)
	}

	c.log.Debug("classified image",
		"path", path,
		"category", result.CategoryID,
		"distance", result.Distance,
		"weight", result.Weight,
		"unknown", result.Unknown,
	)
	return result, clusters, nil
}

// synonymID resolves a colour-name hint against the configured category
// synonyms. Hit means the product can be classified without its image.
func (c *Classifier) synonymID(hint string) (string, bool) {
	if hint == "" {
		return "", false
	}
	for _, cat := range c.categories {
		for _, syn := range cat.Synonyms {
			if syn == hint {
				return cat.ID, true
			}
		}
	}
	return "", false
}
