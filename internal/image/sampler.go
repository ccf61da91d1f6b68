package image

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/jmylchreest/chromatag/internal/colour"
)

// ErrTooFewPixels is returned by SamplePixels when, after cropping and
// brightness filtering, fewer than MinPixels samples remain. Images like
// this carry too little signal to classify and should be recorded as
// unclassifiable rather than guessed at.
var ErrTooFewPixels = errors.New("too few usable pixels after filtering")

// SampleOptions configures how pixels are drawn from a product photo
// before clustering.
type SampleOptions struct {
	// MaxSamples caps the number of pixels sampled. Large images are
	// sampled on a uniform grid rather than exhaustively.
	MaxSamples int

	// CropMargin is the fraction of each edge to discard before
	// sampling. Product photos keep the subject centred, so trimming the
	// border removes most of the backdrop.
	CropMargin float64

	// FilterMin and FilterMax bound the mean channel brightness of
	// usable pixels. Pixels outside the band are treated as background
	// (white studio sweep, black drop) and skipped.
	FilterMin float64
	FilterMax float64

	// MinPixels is the minimum number of samples that must survive
	// filtering for the image to be classifiable.
	MinPixels int
}

// DefaultSampleOptions returns the default sampling configuration.
func DefaultSampleOptions() SampleOptions {
	return SampleOptions{
		MaxSamples: 10000,
		CropMargin: 0.3,
		FilterMin:  20,
		FilterMax:  230,
		MinPixels:  10,
	}
}

// Validate validates the sampling configuration.
func (o SampleOptions) Validate() error {
	if o.MaxSamples < 1 {
		return fmt.Errorf("max samples must be at least 1, got %d", o.MaxSamples)
	}
	if o.CropMargin < 0 || o.CropMargin >= 0.5 {
		return fmt.Errorf("crop margin must be in [0, 0.5), got %g", o.CropMargin)
	}
	if o.FilterMin > o.FilterMax {
		return fmt.Errorf("filter min %g exceeds filter max %g", o.FilterMin, o.FilterMax)
	}
	if o.MinPixels < 1 {
		return fmt.Errorf("min pixels must be at least 1, got %d", o.MinPixels)
	}
	return nil
}

// SamplePixels reduces a decoded image to a set of RGB samples suitable
// for clustering: centre-crop, grid-sample, then drop background-bright
// and background-dark pixels.
func SamplePixels(img image.Image, opts SampleOptions) ([]colour.RGB, error) {
	if img == nil {
		return nil, fmt.Errorf("image cannot be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	region := cropBounds(img.Bounds(), opts.CropMargin)
	width := region.Dx()
	height := region.Dy()
	total := width * height

	// Grid step chosen so roughly MaxSamples pixels get visited.
	step := 1
	if total > opts.MaxSamples {
		step = max(int(math.Sqrt(float64(total)/float64(opts.MaxSamples))), 1)
	}

	pixels := make([]colour.RGB, 0, min(total, opts.MaxSamples))
	for y := region.Min.Y; y < region.Max.Y; y += step {
		for x := region.Min.X; x < region.Max.X; x += step {
			rgb := colour.ToRGB(img.At(x, y))
			mean := (float64(rgb.R) + float64(rgb.G) + float64(rgb.B)) / 3.0
			if mean <= opts.FilterMin || mean >= opts.FilterMax {
				continue
			}
			pixels = append(pixels, rgb)
			if len(pixels) >= opts.MaxSamples {
				return pixels, nil
			}
		}
	}

	if len(pixels) < opts.MinPixels {
		return nil, fmt.Errorf("%w: %d of %d required", ErrTooFewPixels, len(pixels), opts.MinPixels)
	}

	return pixels, nil
}

// cropBounds shrinks bounds by margin on every edge. If the crop would
// leave nothing, the full bounds are used instead.
func cropBounds(bounds image.Rectangle, margin float64) image.Rectangle {
	dx := int(float64(bounds.Dx()) * margin)
	dy := int(float64(bounds.Dy()) * margin)

	cropped := image.Rect(
		bounds.Min.X+dx,
		bounds.Min.Y+dy,
		bounds.Max.X-dx,
		bounds.Max.Y-dy,
	)
	if cropped.Empty() {
		return bounds
	}
	return cropped
}
