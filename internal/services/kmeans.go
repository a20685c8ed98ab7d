package services

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

const (
	DefaultKMeansIterations = 300
	DefaultKMeansRestarts   = 10
)

var (
	ErrNoAmounts           = errors.New("no amounts to cluster")
	ErrInvalidClusterCount = errors.New("cluster count must be between 1 and the number of amounts")
)

// KMeansClusterer is one-dimensional k-means with k-means++ seeding. All
// randomness comes from the seed passed to Cluster, so equal inputs always
// produce equal partitions.
type KMeansClusterer struct {
	maxIterations int
	restarts      int
}

func NewKMeansClusterer() AmountClustererInterface {
	return &KMeansClusterer{
		maxIterations: DefaultKMeansIterations,
		restarts:      DefaultKMeansRestarts,
	}
}

// Cluster runs the configured number of restarts and keeps the partition with
// the lowest inertia. Ties keep the earliest restart.
func (c *KMeansClusterer) Cluster(amounts []float64, k int, seed int64) ([]int, error) {
	if len(amounts) == 0 {
		return nil, ErrNoAmounts
	}
	if k < 1 || k > len(amounts) {
		return nil, fmt.Errorf("%w: k=%d n=%d", ErrInvalidClusterCount, k, len(amounts))
	}

	rng := rand.New(rand.NewSource(seed))

	var best []int
	bestInertia := math.Inf(1)
	for r := 0; r < c.restarts; r++ {
		centroids := c.seedCentroids(amounts, k, rng)
		labels, inertia := c.lloyd(amounts, centroids)
		if inertia < bestInertia {
			best = labels
			bestInertia = inertia
		}
	}

	return best, nil
}

// seedCentroids picks k initial centroids, each new one drawn with probability
// proportional to its squared distance from the nearest centroid so far.
func (c *KMeansClusterer) seedCentroids(amounts []float64, k int, rng *rand.Rand) []float64 {
	centroids := make([]float64, 0, k)
	centroids = append(centroids, amounts[rng.Intn(len(amounts))])

	weights := make([]float64, len(amounts))
	for len(centroids) < k {
		var sum float64
		for i, x := range amounts {
			weights[i] = sqDist(x, centroids[nearest(x, centroids)])
			sum += weights[i]
		}

		if sum == 0 {
			centroids = append(centroids, amounts[rng.Intn(len(amounts))])
			continue
		}

		target := rng.Float64() * sum
		pick := -1
		var cumulative float64
		for i, w := range weights {
			if w == 0 {
				continue
			}
			pick = i
			cumulative += w
			if cumulative > target {
				break
			}
		}
		centroids = append(centroids, amounts[pick])
	}

	return centroids
}

func (c *KMeansClusterer) lloyd(amounts []float64, centroids []float64) ([]int, float64) {
	labels := make([]int, len(amounts))
	for i := range labels {
		labels[i] = -1
	}

	sums := make([]float64, len(centroids))
	counts := make([]int, len(centroids))

	for iter := 0; iter < c.maxIterations; iter++ {
		changed := false
		for i, x := range amounts {
			j := nearest(x, centroids)
			if labels[i] != j {
				labels[i] = j
				changed = true
			}
		}
		if !changed {
			break
		}

		for j := range centroids {
			sums[j] = 0
			counts[j] = 0
		}
		for i, x := range amounts {
			sums[labels[i]] += x
			counts[labels[i]]++
		}
		// An emptied cluster keeps its previous centroid.
		for j := range centroids {
			if counts[j] > 0 {
				centroids[j] = sums[j] / float64(counts[j])
			}
		}
	}

	var inertia float64
	for i, x := range amounts {
		inertia += sqDist(x, centroids[labels[i]])
	}
	return labels, inertia
}

// nearest returns the index of the closest centroid, preferring the lowest index on ties.
func nearest(x float64, centroids []float64) int {
	best := 0
	bestDist := sqDist(x, centroids[0])
	for j := 1; j < len(centroids); j++ {
		if d := sqDist(x, centroids[j]); d < bestDist {
			best = j
			bestDist = d
		}
	}
	return best
}

func sqDist(a, b float64) float64 {
	d := a - b
	return d * d
}
