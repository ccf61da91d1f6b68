package image

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/jmylchreest/chromatag/internal/colour"
)

// solidImage returns a w×h image filled with a single colour.
func solidImage(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// framedImage returns a white image with a coloured centre square, the
// shape of a product photo on a studio backdrop.
func framedImage(w, h, border int, centre color.RGBA) *image.RGBA {
	img := solidImage(w, h, color.RGBA{R: 255, G: 255, B: 255, A: 255})
	for y := border; y < h-border; y++ {
		for x := border; x < w-border; x++ {
			img.SetRGBA(x, y, centre)
		}
	}
	return img
}

func TestSamplePixelsSolidColour(t *testing.T) {
	img := solidImage(50, 50, color.RGBA{R: 200, G: 30, B: 30, A: 255})

	pixels, err := SamplePixels(img, DefaultSampleOptions())
	if err != nil {
		t.Fatalf("SamplePixels() unexpected error: %v", err)
	}
	if len(pixels) == 0 {
		t.Fatal("SamplePixels() returned no pixels")
	}
	for _, p := range pixels {
		if p != (colour.RGB{R: 200, G: 30, B: 30}) {
			t.Fatalf("sampled pixel = %v, want rgb(200, 30, 30)", p)
		}
	}
}

func TestSamplePixelsFiltersBackground(t *testing.T) {
	// White border, red centre: with no crop margin the brightness filter
	// alone must drop every white pixel.
	img := framedImage(60, 60, 10, color.RGBA{R: 200, G: 20, B: 20, A: 255})

	opts := DefaultSampleOptions()
	opts.CropMargin = 0

	pixels, err := SamplePixels(img, opts)
	if err != nil {
		t.Fatalf("SamplePixels() unexpected error: %v", err)
	}
	for _, p := range pixels {
		if p != (colour.RGB{R: 200, G: 20, B: 20}) {
			t.Fatalf("sampled pixel = %v, want only the red centre", p)
		}
	}
}

func TestSamplePixelsCropMargin(t *testing.T) {
	// A blue border occupying the outer 30% of each edge disappears
	// entirely under the default crop margin, even though blue would
	// survive the brightness filter.
	img := solidImage(100, 100, color.RGBA{B: 200, A: 255})
	for y := 35; y < 65; y++ {
		for x := 35; x < 65; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 180, G: 180, B: 40, A: 255})
		}
	}

	opts := DefaultSampleOptions()
	opts.CropMargin = 0.35

	pixels, err := SamplePixels(img, opts)
	if err != nil {
		t.Fatalf("SamplePixels() unexpected error: %v", err)
	}
	for _, p := range pixels {
		if p != (colour.RGB{R: 180, G: 180, B: 40}) {
			t.Fatalf("sampled pixel = %v, want only the centre colour", p)
		}
	}
}

func TestSamplePixelsTooFewPixels(t *testing.T) {
	// An all-white image has nothing inside the brightness band.
	img := solidImage(40, 40, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	_, err := SamplePixels(img, DefaultSampleOptions())
	if !errors.Is(err, ErrTooFewPixels) {
		t.Errorf("SamplePixels() error = %v, want ErrTooFewPixels", err)
	}
}

func TestSamplePixelsCapsSamples(t *testing.T) {
	img := solidImage(200, 200, color.RGBA{R: 100, G: 100, B: 100, A: 255})

	opts := DefaultSampleOptions()
	opts.MaxSamples = 500

	pixels, err := SamplePixels(img, opts)
	if err != nil {
		t.Fatalf("SamplePixels() unexpected error: %v", err)
	}
	if len(pixels) > 500 {
		t.Errorf("sampled %d pixels, want at most 500", len(pixels))
	}
}

func TestSampleOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*SampleOptions)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(o *SampleOptions) {},
			wantErr: false,
		},
		{
			name:    "zero max samples",
			mutate:  func(o *SampleOptions) { o.MaxSamples = 0 },
			wantErr: true,
		},
		{
			name:    "crop margin at half",
			mutate:  func(o *SampleOptions) { o.CropMargin = 0.5 },
			wantErr: true,
		},
		{
			name:    "inverted filter band",
			mutate:  func(o *SampleOptions) { o.FilterMin = 240; o.FilterMax = 20 },
			wantErr: true,
		},
		{
			name:    "zero min pixels",
			mutate:  func(o *SampleOptions) { o.MinPixels = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultSampleOptions()
			tt.mutate(&opts)
			err := opts.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
