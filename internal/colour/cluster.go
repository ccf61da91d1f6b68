// Package colour provides dominant colour extraction and category matching.
package colour

import (
	"fmt"
	"image/color"
	"math"
)

// RGB represents a colour in 8-bit RGB format.
type RGB struct {
	R uint8 `json:"r" yaml:"r"`
	G uint8 `json:"g" yaml:"g"`
	B uint8 `json:"b" yaml:"b"`
}

// String returns the RGB colour as a string in the format "rgb(r, g, b)".
func (rgb RGB) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", rgb.R, rgb.G, rgb.B)
}

// Hex returns the RGB colour as a hex string (e.g., "#1a2b3c").
func (rgb RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", rgb.R, rgb.G, rgb.B)
}

// ToRGB converts a color.Color to RGB.
func ToRGB(c color.Color) RGB {
	r, g, b, _ := c.RGBA()
	// RGBA returns values in the range [0, 65535], convert to [0, 255]
	return RGB{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
	}
}

// Cluster is a single result of clustering an image's pixels: a centroid
// colour in RGB space and the fraction of sampled pixels assigned to it.
// Centroid components are real-valued because a centroid is a mean of
// many 8-bit pixels.
type Cluster struct {
	R, G, B float64
	Weight  float64
}

// RGB returns the centroid rounded to 8-bit RGB.
func (c Cluster) RGB() RGB {
	return RGB{
		R: uint8(math.Round(clampChannel(c.R))),
		G: uint8(math.Round(clampChannel(c.G))),
		B: uint8(math.Round(clampChannel(c.B))),
	}
}

func clampChannel(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// point3D represents a point in 3D RGB colour space.
type point3D struct {
	R, G, B float64
}

// distance calculates the Euclidean distance between two points in RGB space.
func (p point3D) distance(other point3D) float64 {
	dr := p.R - other.R
	dg := p.G - other.G
	db := p.B - other.B
	return math.Sqrt(dr*dr + dg*dg + db*db)
}
