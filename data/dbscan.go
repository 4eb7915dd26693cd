// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"sort"
)

const noise = -1

// dbscan1D labels each value with a cluster id (>0) or noise (-1) using
// density-based clustering on the real line. A point is a core point when at
// least minPts values, itself included, lie within eps of it.
func dbscan1D(values []float64, eps float64, minPts int) []int {
	n := len(values)
	labels := make([]int, n) // 0=unvisited, -1=noise, >0=cluster id
	if n == 0 {
		return labels
	}

	idx := newLineIndex(values)
	clusterID := 0
	for i := 0; i < n; i++ {
		if labels[i] != 0 {
			continue
		}

		neighbors := idx.regionQuery(i, eps)
		if len(neighbors) < minPts {
			labels[i] = noise
			continue
		}

		clusterID++
		expand(idx, labels, i, neighbors, clusterID, eps, minPts)
	}

	return labels
}

func expand(idx *lineIndex, labels []int, seed int, neighbors []int, clusterID int, eps float64, minPts int) {
	labels[seed] = clusterID

	for j := 0; j < len(neighbors); j++ {
		i := neighbors[j]

		if labels[i] == noise {
			// border point
			labels[i] = clusterID
		}
		if labels[i] != 0 {
			continue
		}

		labels[i] = clusterID
		more := idx.regionQuery(i, eps)
		if len(more) >= minPts {
			neighbors = append(neighbors, more...)
		}
	}
}

// lineIndex answers eps-neighbourhood queries with binary search over the
// values in sorted order.
type lineIndex struct {
	values []float64
	order  []int
	sorted []float64
}

func newLineIndex(values []float64) *lineIndex {
	order := make([]int, len(values))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return values[order[a]] < values[order[b]] })

	sorted := make([]float64, len(values))
	for i, o := range order {
		sorted[i] = values[o]
	}
	return &lineIndex{values: values, order: order, sorted: sorted}
}

func (idx *lineIndex) regionQuery(i int, eps float64) []int {
	v := idx.values[i]
	lo := sort.SearchFloat64s(idx.sorted, v-eps)
	hi := sort.Search(len(idx.sorted), func(k int) bool { return idx.sorted[k] > v+eps })

	neighbors := make([]int, 0, hi-lo)
	for k := lo; k < hi; k++ {
		neighbors = append(neighbors, idx.order[k])
	}
	return neighbors
}
