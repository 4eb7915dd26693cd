// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// GapSet holds the logical indices of frames the detector failed to record,
// in ascending order without duplicates.
type GapSet []int

// NewGapSet sorts a copy of indices. Negative or repeated indices are
// rejected: a position can only be missing once.
func NewGapSet(indices []int) (GapSet, error) {
	gaps := make(GapSet, len(indices))
	copy(gaps, indices)
	sort.Ints(gaps)
	for i, g := range gaps {
		if g < 0 {
			return nil, invalid("gap set", "negative index %d", g)
		}
		if i > 0 && gaps[i-1] == g {
			return nil, invalid("gap set", "index %d listed more than once", g)
		}
	}
	return gaps, nil
}

// Validate checks that every gap lies inside the intended logical range of a
// record holding recorded physical frames.
func (g GapSet) Validate(recorded int) error {
	intended := recorded + len(g)
	for i, idx := range g {
		if idx < 0 || idx >= intended {
			return invalid("gap set", "index %d outside logical range [0, %d)", idx, intended)
		}
		if i > 0 && g[i-1] >= idx {
			return invalid("gap set", "indices must be strictly increasing")
		}
	}
	return nil
}

// PerWindow counts the gaps that fall in each window of size k.
func (g GapSet) PerWindow(k int) map[int]int {
	counts := make(map[int]int)
	for _, idx := range g {
		counts[idx/k]++
	}
	return counts
}

type DetectorParams struct {
	// NImages is the number of frames per logical scan point.
	NImages    int
	Eps        float64
	MinSamples int
	Logger     *zap.Logger
}

func DefaultDetectorParams() DetectorParams {
	return DetectorParams{
		NImages:    10,
		Eps:        0.3,
		MinSamples: 5,
	}
}

func (p DetectorParams) Validate() error {
	if p.NImages < 1 {
		return invalid("n_images", "must be at least 1, got %d", p.NImages)
	}
	if !(p.Eps > 0) {
		return invalid("eps", "must be positive, got %v", p.Eps)
	}
	if p.MinSamples < 1 {
		return invalid("min_samples", "must be at least 1, got %d", p.MinSamples)
	}
	return nil
}

// Detection keeps the intermediate series of a gap search so that it can be
// inspected or plotted.
type Detection struct {
	Deltas       []float64
	Standardized []float64
	Labels       []int
	Outliers     []int
	Gaps         GapSet
	Expected     int
	Warnings     Warnings
}

// multiFrameRatio is the interval, relative to the median cadence, from
// which an outlier most likely hides more than one dropped frame.
const multiFrameRatio = 2.5

// DetectGaps infers dropped frames from the acquisition timestamps alone.
//
// The inter-frame intervals are standardised and clustered with DBSCAN; every
// interval left outside a dense cluster counts as exactly one missing frame.
// This is a heuristic: an interval that spans several dropped frames is still
// one outlier, so such gaps are undercounted. They are flagged with
// WarnMultiFrameGap but the count is not corrected.
//
// The number of outliers must equal the frames needed to complete the last
// scan point of NImages frames, otherwise an *InconsistentGapCountError is
// returned together with the Detection for inspection.
func DetectGaps(timestamps []float64, params DetectorParams) (*Detection, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	n := len(timestamps)
	if n < 2 {
		return nil, invalid("timestamps", "need at least 2 values, got %d", n)
	}
	logger := nopIfNil(params.Logger)

	det := &Detection{
		Deltas: make([]float64, n-1),
	}
	for i := 0; i < n-1; i++ {
		d := timestamps[i+1] - timestamps[i]
		if !(d > 0) {
			return nil, invalid("timestamps", "not strictly increasing at index %d", i+1)
		}
		det.Deltas[i] = d
	}

	det.Standardized = standardize(det.Deltas)
	det.Labels = dbscan1D(det.Standardized, params.Eps, params.MinSamples)

	median := medianOf(det.Deltas)
	for i, label := range det.Labels {
		if label != noise {
			continue
		}
		// logical position of the frame following interval i, shifted by
		// the frames already missing before it
		det.Gaps = append(det.Gaps, i+1+len(det.Outliers))
		det.Outliers = append(det.Outliers, i)

		if ratio := det.Deltas[i] / median; ratio >= multiFrameRatio {
			det.Warnings.Add(logger, WarnMultiFrameGap,
				fmt.Sprintf("interval after frame %d is %.1f times the median cadence and may hide several frames", i, ratio),
				zap.Int("frame", i), zap.Float64("ratio", ratio),
			)
		}
	}

	det.Expected = expectedMissing(n, params.NImages)
	logger.Debug("gap search",
		zap.Int("recorded", n),
		zap.Int("found", len(det.Gaps)),
		zap.Int("expected", det.Expected),
		zap.Ints("gaps", det.Gaps),
	)
	if len(det.Gaps) != det.Expected {
		return det, &InconsistentGapCountError{
			Expected: det.Expected,
			Found:    len(det.Gaps),
			Gaps:     append([]int(nil), det.Gaps...),
		}
	}

	return det, nil
}

func expectedMissing(recorded, nImages int) int {
	points := (recorded + nImages - 1) / nImages
	return points*nImages - recorded
}

// standardize scales values to zero mean and unit population variance. A
// constant series maps to all zeros.
func standardize(values []float64) []float64 {
	out := make([]float64, len(values))
	m := len(values)
	if m < 2 {
		return out
	}

	mean, variance := stat.MeanVariance(values, nil)
	std := math.Sqrt(variance * float64(m-1) / float64(m))
	if std == 0 || math.IsNaN(std) {
		return out
	}
	for i, v := range values {
		out[i] = (v - mean) / std
	}
	return out
}

func medianOf(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}
