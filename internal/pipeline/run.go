package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/chromatag/internal/catalog"
	"github.com/jmylchreest/chromatag/internal/colour"
)

// Stats summarises a catalog run.
type Stats struct {
	// Kept rows already carried an identifier and were left alone.
	Kept int

	// FromName rows were classified from the colour hint in the product
	// name (category synonym or curated ledger entry).
	FromName int

	// FromImage rows were classified by image analysis.
	FromImage int

	// Unknown rows ended as the unknown sentinel: no image, analysis
	// failure, or no category within the distance threshold.
	Unknown int

	// NewNames is the number of colour-name spellings appended to the
	// ledger for curation.
	NewNames int
}

// rowDecision is what the sequential pass decided for one catalog row
// before any image is touched.
type rowDecision struct {
	row      int
	colourID string
	analyse  bool
	url      string
}

// Run classifies every unclassified catalog row. Rows whose product name
// resolves through category synonyms or the curated ledger never touch the
// network; the rest are classified from their image concurrently, each job
// owning its own pixel buffer while the category set is shared read-only.
// Individual download or analysis failures mark their row unknown and the
// run continues; only structural errors abort.
func (c *Classifier) Run(ctx context.Context, cat *catalog.Catalog, mapping *catalog.Mapping) (Stats, error) {
	var stats Stats

	decisions := make([]rowDecision, 0, cat.Len())
	for _, product := range cat.Products() {
		d := rowDecision{row: product.Row, colourID: colour.UnknownID}

		switch {
		case product.Missing:
			// Row too short to classify.

		case product.ColourID != "" && product.ColourID != colour.UnknownID:
			d.colourID = product.ColourID
			stats.Kept++

		default:
			hint := catalog.ColourHint(product.Name)

			if id, ok := c.synonymID(hint); ok {
				d.colourID = id
				stats.FromName++
				break
			}

			if hint != "" {
				if id, known := mapping.Lookup(hint); known && id != "" && id != colour.UnknownID {
					d.colourID = id
					stats.FromName++
					break
				} else if !known {
					mapping.Add(hint)
				}
			}

			// No usable hint: fall back to the image.
			if product.ImageURL != "" {
				d.analyse = true
				d.url = product.ImageURL
			}
		}

		decisions = append(decisions, d)
	}
	stats.NewNames = mapping.Pending()

	// Image analysis fan-out. Each goroutine writes only its own
	// decision slot, so no locking is needed.
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)

	for i := range decisions {
		if !decisions[i].analyse {
			continue
		}
		d := &decisions[i]
		group.Go(func() error {
			result, err := c.ClassifyImage(groupCtx, d.url)
			if err != nil {
				// Bad downloads and undecodable or washed-out images
				// are expected catalog noise, not run failures.
				c.log.Warn("image analysis failed", "row", d.row, "url", d.url, "error", err)
				d.colourID = colour.UnknownID
				return nil
			}
			d.colourID = result.CategoryID
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return stats, err
	}

	for _, d := range decisions {
		if d.analyse {
			if d.colourID == colour.UnknownID {
				stats.Unknown++
			} else {
				stats.FromImage++
			}
		} else if d.colourID == colour.UnknownID {
			stats.Unknown++
		}
		if err := cat.SetColourID(d.row, d.colourID); err != nil {
			return stats, err
		}
	}

	return stats, nil
}
