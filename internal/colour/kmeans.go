package colour

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ErrNoPixels is returned by Extract when the pixel set is empty.
var ErrNoPixels = errors.New("no pixels to cluster")

// ExtractOptions configures k-means colour extraction.
type ExtractOptions struct {
	// K is the number of clusters to extract. Fewer clusters may be
	// returned when the image has fewer distinct colours.
	K int

	// MaxIterations bounds the number of k-means iterations.
	MaxIterations int

	// Convergence stops iteration once the maximum centroid movement
	// between two iterations falls below this distance.
	Convergence float64

	// Seed drives centroid initialisation. Identical inputs and seed
	// produce identical output.
	Seed int64
}

// DefaultExtractOptions returns the default extraction configuration.
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		K:             3,
		MaxIterations: 20,
		Convergence:   1.0,
		Seed:          1,
	}
}

// Validate validates the extraction configuration.
func (o ExtractOptions) Validate() error {
	if o.K < 1 {
		return fmt.Errorf("cluster count must be at least 1, got %d", o.K)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("max iterations must be at least 1, got %d", o.MaxIterations)
	}
	if o.Convergence < 0 {
		return fmt.Errorf("convergence tolerance cannot be negative, got %g", o.Convergence)
	}
	return nil
}

// Extract clusters pixels in RGB space using k-means and returns the
// resulting clusters sorted by descending weight (index 0 is the dominant
// colour). Weights sum to 1.0. When the requested cluster count meets or
// exceeds the number of distinct pixel values the distinct values are
// returned directly, weighted by frequency, so degenerate images such as
// single-colour product photos never fail.
func Extract(pixels []RGB, opts ExtractOptions) ([]Cluster, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(pixels) == 0 {
		return nil, ErrNoPixels
	}

	// Count distinct colours in first-appearance order so the dedup path
	// stays deterministic.
	counts := make(map[RGB]int, len(pixels))
	distinct := make([]RGB, 0, 64)
	for _, p := range pixels {
		if counts[p] == 0 {
			distinct = append(distinct, p)
		}
		counts[p]++
	}

	if opts.K >= len(distinct) {
		clusters := make([]Cluster, len(distinct))
		total := float64(len(pixels))
		for i, c := range distinct {
			clusters[i] = Cluster{
				R:      float64(c.R),
				G:      float64(c.G),
				B:      float64(c.B),
				Weight: float64(counts[c]) / total,
			}
		}
		sortClusters(clusters)
		return clusters, nil
	}

	points := make([]point3D, len(pixels))
	for i, p := range pixels {
		points[i] = point3D{R: float64(p.R), G: float64(p.G), B: float64(p.B)}
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	centroids := initCentroids(points, opts.K, rng)

	assignments := make([]int, len(points))
	for iter := 0; iter < opts.MaxIterations; iter++ {
		for i, point := range points {
			assignments[i] = nearestCentroid(point, centroids)
		}

		newCentroids := recalculateCentroids(points, assignments, centroids)

		maxMovement := 0.0
		for i := range centroids {
			if d := centroids[i].distance(newCentroids[i]); d > maxMovement {
				maxMovement = d
			}
		}
		centroids = newCentroids

		if maxMovement < opts.Convergence {
			break
		}
	}

	// Final assignment pass so weights agree with the returned centroids.
	weights := make([]float64, len(centroids))
	for _, point := range points {
		weights[nearestCentroid(point, centroids)]++
	}
	total := float64(len(points))

	clusters := make([]Cluster, 0, len(centroids))
	for i, c := range centroids {
		if weights[i] == 0 {
			// Empty clusters are omitted rather than reported at weight 0.
			continue
		}
		clusters = append(clusters, Cluster{
			R:      c.R,
			G:      c.G,
			B:      c.B,
			Weight: weights[i] / total,
		})
	}
	sortClusters(clusters)

	return clusters, nil
}

// sortClusters orders clusters by descending weight. The sort is stable so
// equal weights keep their original centroid order.
func sortClusters(clusters []Cluster) {
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Weight > clusters[j].Weight
	})
}

// initCentroids initialises centroids using the k-means++ strategy: the
// first centroid is drawn uniformly, each subsequent one with probability
// proportional to its squared distance from the nearest chosen centroid.
func initCentroids(points []point3D, k int, rng *rand.Rand) []point3D {
	centroids := make([]point3D, 0, k)
	centroids = append(centroids, points[rng.Intn(len(points))])

	distances := make([]float64, len(points))
	for len(centroids) < k {
		totalDistance := 0.0
		for i, point := range points {
			minDist := math.MaxFloat64
			for _, centroid := range centroids {
				if d := point.distance(centroid); d < minDist {
					minDist = d
				}
			}
			distances[i] = minDist * minDist
			totalDistance += distances[i]
		}

		if totalDistance == 0 {
			// Every remaining point coincides with an existing centroid.
			// Extract deduplicates beforehand, so k is effectively
			// satisfied; nudge a copy to keep the centroid count aligned.
			last := centroids[len(centroids)-1]
			centroids = append(centroids, point3D{R: last.R + 0.1, G: last.G + 0.1, B: last.B + 0.1})
			continue
		}

		target := rng.Float64() * totalDistance
		cumulative := 0.0
		for i, dist := range distances {
			cumulative += dist
			if cumulative >= target {
				centroids = append(centroids, points[i])
				break
			}
		}
	}

	return centroids
}

// nearestCentroid finds the index of the nearest centroid to a point.
func nearestCentroid(point point3D, centroids []point3D) int {
	minDist := math.MaxFloat64
	nearest := 0

	for i, centroid := range centroids {
		if d := point.distance(centroid); d < minDist {
			minDist = d
			nearest = i
		}
	}

	return nearest
}

// recalculateCentroids recomputes each centroid as the mean of its assigned
// points. A centroid that lost every point keeps its previous position.
func recalculateCentroids(points []point3D, assignments []int, previous []point3D) []point3D {
	sums := make([]point3D, len(previous))
	counts := make([]int, len(previous))

	for i, point := range points {
		cluster := assignments[i]
		sums[cluster].R += point.R
		sums[cluster].G += point.G
		sums[cluster].B += point.B
		counts[cluster]++
	}

	centroids := make([]point3D, len(previous))
	for i := range previous {
		if counts[i] > 0 {
			centroids[i] = point3D{
				R: sums[i].R / float64(counts[i]),
				G: sums[i].G / float64(counts[i]),
				B: sums[i].B / float64(counts[i]),
			}
		} else {
			centroids[i] = previous[i]
		}
	}

	return centroids
}
