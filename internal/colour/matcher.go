package colour

import (
	"errors"
	"fmt"
	"math"
)

// UnknownID is the sentinel identifier reported when no category is within
// the configured distance threshold, or when there is nothing to match.
const UnknownID = "N/A"

// distanceEpsilon is the floating tolerance within which two category
// distances are considered equal for tie-breaking purposes.
const distanceEpsilon = 1e-9

// ErrNoCategories is returned by Match when the category set is empty.
var ErrNoCategories = errors.New("no categories to match against")

// Category is a named classification target: a reference colour plus the
// identifier written back for products classified under it. AltColours
// holds optional additional reference colours (shade variants of the same
// category); the distance to a category is the minimum over all of its
// references. Synonyms are colour-name spellings used by the catalog layer
// to classify a product from its name without touching the image.
type Category struct {
	Name       string
	ID         string
	Colour     RGB
	AltColours []RGB
	Synonyms   []string
}

// MatchOptions configures category matching.
type MatchOptions struct {
	// MaxDistance is the furthest a category reference may be from the
	// dominant colour and still win; beyond it the result is unknown.
	MaxDistance float64

	// MinWeight is the minimum fraction of the image the matched colour
	// mass must cover. When the dominant cluster alone is lighter than
	// this, clusters are aggregated in descending-weight order until the
	// cumulative weight reaches it, and their weighted mean is matched.
	MinWeight float64

	// ChannelWeights scales the R, G and B differences before the
	// Euclidean distance is taken. A zero value means unweighted (1,1,1).
	ChannelWeights [3]float64
}

// DefaultMatchOptions returns the default matching configuration.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{
		MaxDistance: 120,
		MinWeight:   0.0,
	}
}

// Validate validates the matching configuration.
func (o MatchOptions) Validate() error {
	if o.MaxDistance < 0 {
		return fmt.Errorf("max distance cannot be negative, got %g", o.MaxDistance)
	}
	if o.MinWeight < 0 || o.MinWeight > 1 {
		return fmt.Errorf("min weight must be in [0,1], got %g", o.MinWeight)
	}
	for _, w := range o.ChannelWeights {
		if w < 0 {
			return fmt.Errorf("channel weights cannot be negative, got %g", w)
		}
	}
	return nil
}

// weights returns the effective channel weights, treating the zero value
// as unweighted Euclidean distance.
func (o MatchOptions) weights() [3]float64 {
	if o.ChannelWeights == ([3]float64{}) {
		return [3]float64{1, 1, 1}
	}
	return o.ChannelWeights
}

// Result is the outcome of classifying one image. It is transient: produced
// per image and handed straight back to the caller.
type Result struct {
	// CategoryID is the identifier of the winning category, or UnknownID.
	CategoryID string

	// CategoryName is the display name of the winning category; empty
	// when the result is unknown.
	CategoryName string

	// Distance is the weighted Euclidean distance between the matched
	// colour and the winning category's nearest reference. +Inf when
	// there was nothing to match.
	Distance float64

	// Weight is the fraction of sampled pixels covered by the colour
	// mass that was matched.
	Weight float64

	// Unknown reports that no category was within MaxDistance. This is a
	// valid outcome, not an error; such products need manual review
	// rather than a silently wrong tag.
	Unknown bool
}

// Match classifies the dominant colour of a clustering result against a set
// of categories. Only the dominant cluster is considered unless its weight
// is below MinWeight, in which case clusters are aggregated per
// MatchOptions. Ties within floating tolerance go to the lexicographically
// smallest category identifier, so results are reproducible. Matching an
// empty cluster sequence is valid and yields an unknown result.
func Match(clusters []Cluster, categories []Category, opts MatchOptions) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if len(categories) == 0 {
		return Result{}, ErrNoCategories
	}
	if len(clusters) == 0 {
		return Result{
			CategoryID: UnknownID,
			Distance:   math.Inf(1),
			Unknown:    true,
		}, nil
	}

	probe, weight := dominantColour(clusters, opts.MinWeight)
	w := opts.weights()

	best := -1
	bestDist := math.Inf(1)
	for i, cat := range categories {
		dist := categoryDistance(probe, cat, w)
		if dist < bestDist-distanceEpsilon {
			best = i
			bestDist = dist
			continue
		}
		// Equidistant within tolerance: smaller identifier wins.
		if math.Abs(dist-bestDist) <= distanceEpsilon && cat.ID < categories[best].ID {
			best = i
		}
	}

	if bestDist > opts.MaxDistance {
		return Result{
			CategoryID: UnknownID,
			Distance:   bestDist,
			Weight:     weight,
			Unknown:    true,
		}, nil
	}

	return Result{
		CategoryID:   categories[best].ID,
		CategoryName: categories[best].Name,
		Distance:     bestDist,
		Weight:       weight,
	}, nil
}

// dominantColour returns the colour to match and the weight of the cluster
// mass it represents. Clusters are assumed sorted by descending weight.
func dominantColour(clusters []Cluster, minWeight float64) (point3D, float64) {
	if clusters[0].Weight >= minWeight {
		return point3D{R: clusters[0].R, G: clusters[0].G, B: clusters[0].B}, clusters[0].Weight
	}

	// The image is multi-toned: no single cluster is trustworthy on its
	// own, so blend the heaviest clusters until they cover MinWeight.
	var sum point3D
	cumulative := 0.0
	for _, c := range clusters {
		sum.R += c.R * c.Weight
		sum.G += c.G * c.Weight
		sum.B += c.B * c.Weight
		cumulative += c.Weight
		if cumulative >= minWeight {
			break
		}
	}

	return point3D{R: sum.R / cumulative, G: sum.G / cumulative, B: sum.B / cumulative}, cumulative
}

// categoryDistance is the minimum weighted Euclidean distance from the
// probe colour to any of the category's reference colours.
func categoryDistance(probe point3D, cat Category, w [3]float64) float64 {
	min := weightedDistance(probe, cat.Colour, w)
	for _, alt := range cat.AltColours {
		if d := weightedDistance(probe, alt, w); d < min {
			min = d
		}
	}
	return min
}

func weightedDistance(probe point3D, ref RGB, w [3]float64) float64 {
	dr := (probe.R - float64(ref.R)) * w[0]
	dg := (probe.G - float64(ref.G)) * w[1]
	db := (probe.B - float64(ref.B)) * w[2]
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
