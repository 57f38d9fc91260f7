package index

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Float64Vector widens an embedding to the float64 form the distance math
// runs on.
func Float64Vector(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// NearestNeighbors returns the indexes of the k vectors closest to q by L2
// distance, nearest first. Exact distance ties keep slice order, and a k
// larger than the vector count returns every index.
func NearestNeighbors(q []float64, vectors [][]float64, k int) []int {
	if k <= 0 || len(vectors) == 0 {
		return nil
	}

	type scored struct {
		idx  int
		dist float64
	}
	distances := make([]scored, len(vectors))
	for i, v := range vectors {
		distances[i] = scored{idx: i, dist: floats.Distance(q, v, 2)}
	}
	sort.SliceStable(distances, func(i, j int) bool {
		return distances[i].dist < distances[j].dist
	})

	if k > len(distances) {
		k = len(distances)
	}
	out := make([]int, k)
	for i := 0; i < k; i++ {
		out[i] = distances[i].idx
	}
	return out
}
