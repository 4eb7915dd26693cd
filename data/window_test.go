// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// sliceSource serves constant frames: every pixel of physical frame i is
// values[i].
type sliceSource struct {
	values     []float64
	rows, cols int
	reads      int
	// short drops the last frame of the read starting at this index
	short int
}

func newSliceSource(n, rows, cols int) *sliceSource {
	s := &sliceSource{rows: rows, cols: cols, short: -1}
	for i := 0; i < n; i++ {
		s.values = append(s.values, float64(i))
	}
	return s
}

func (s *sliceSource) Len() int                { return len(s.values) }
func (s *sliceSource) Shape() (rows, cols int) { return s.rows, s.cols }

func (s *sliceSource) Frames(lo, hi int, roi ROI) ([]*mat.Dense, error) {
	s.reads++
	if lo == s.short {
		hi--
	}
	var out []*mat.Dense
	for i := lo; i < hi; i++ {
		m := mat.NewDense(roi.Rows(), roi.Cols(), nil)
		for r := 0; r < roi.Rows(); r++ {
			for c := 0; c < roi.Cols(); c++ {
				m.Set(r, c, s.values[i])
			}
		}
		out = append(out, m)
	}
	return out, nil
}

func fullROI(rows, cols int) ROI { return ROI{RowMax: rows, ColMax: cols} }

func firstPixels(st *Stack) []float64 {
	out := make([]float64, st.Len())
	for i, f := range st.Frames {
		out[i] = f.Data.At(0, 0)
	}
	return out
}

func TestReconstructAverageOneFillsZeros(t *testing.T) {
	src := newSliceSource(5, 2, 3)
	src.values = []float64{1, 2, 3, 4, 5}
	gaps, err := NewGapSet([]int{1, 4})
	require.NoError(t, err)

	st, err := Reconstruct(src, gaps, ReconstructOptions{Average: 1, ROI: fullROI(2, 3)})
	require.NoError(t, err)

	require.Equal(t, 7, st.Len())
	assert.Equal(t, []float64{1, 0, 2, 3, 0, 4, 5}, firstPixels(st))
	for i, f := range st.Frames {
		placeholder := i == 1 || i == 4
		assert.Equal(t, placeholder, f.Placeholder, "frame %d", i)
		r, c := f.Data.Dims()
		assert.Equal(t, 2, r)
		assert.Equal(t, 3, c)
	}
	assert.Equal(t, []float64{0, 0, 0, 0, 0, 0}, Flatten(st.Frames[4].Data))
	assert.Equal(t, 2, st.Skipped)
	assert.Equal(t, 5, st.Recorded)
}

func TestReconstructAverageWithoutGaps(t *testing.T) {
	src := newSliceSource(9, 1, 1)
	st, err := Reconstruct(src, nil, ReconstructOptions{Average: 3, ROI: fullROI(1, 1)})
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 4, 7}, firstPixels(st))
	for _, f := range st.Frames {
		assert.Equal(t, 3, f.Contributing)
		assert.False(t, f.Placeholder)
	}
	assert.Zero(t, st.Skipped)
}

func TestReconstructSkipsGapsInsideWindows(t *testing.T) {
	// 14 recorded frames with logical 2 and 3 missing span 16 logical
	// positions: windows of 5 hold 3, 5, 5 and 1 recorded frames.
	src := newSliceSource(14, 2, 2)
	gaps, err := NewGapSet([]int{2, 3})
	require.NoError(t, err)

	st, err := Reconstruct(src, gaps, ReconstructOptions{Average: 5, ROI: fullROI(2, 2)})
	require.NoError(t, err)

	require.Equal(t, 4, st.Len())
	assert.Equal(t, []float64{1, 5, 10, 13}, firstPixels(st))
	var contributing []int
	for _, f := range st.Frames {
		contributing = append(contributing, f.Contributing)
	}
	assert.Equal(t, []int{3, 5, 5, 1}, contributing)
	assert.Equal(t, 2, st.Skipped)
}

func TestPlanWindowsCursor(t *testing.T) {
	windows, cursor, err := planWindows(14, GapSet{2, 3}, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, cursor.replaced)

	var spans [][2]int
	for _, w := range windows {
		spans = append(spans, [2]int{w.physLo, w.physHi})
	}
	assert.Equal(t, [][2]int{{0, 3}, {3, 8}, {8, 13}, {13, 14}}, spans)
}

func TestReconstructRejectsAllGapWindow(t *testing.T) {
	src := newSliceSource(3, 1, 1)
	_, err := Reconstruct(src, GapSet{0, 1}, ReconstructOptions{Average: 2, ROI: fullROI(1, 1)})

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve), "got %v", err)
	assert.Zero(t, src.reads)
}

func TestReconstructInvalidAverage(t *testing.T) {
	for _, avg := range []int{0, -3} {
		src := newSliceSource(4, 1, 1)
		_, err := Reconstruct(src, nil, ReconstructOptions{Average: avg, ROI: fullROI(1, 1)})
		assert.ErrorIs(t, err, ErrInvalidAverage)
		assert.Zero(t, src.reads)
	}
}

func TestReconstructRejectsGapsOutOfRange(t *testing.T) {
	src := newSliceSource(4, 1, 1)
	_, err := Reconstruct(src, GapSet{6}, ReconstructOptions{Average: 1, ROI: fullROI(1, 1)})

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve), "got %v", err)
	assert.Zero(t, src.reads)
}

func TestReconstructShortReadIsMismatch(t *testing.T) {
	src := newSliceSource(10, 1, 1)
	src.short = 5
	_, err := Reconstruct(src, GapSet{5}, ReconstructOptions{Average: 5, ROI: fullROI(1, 1)})

	var mm *MissingFrameCountMismatchError
	require.True(t, errors.As(err, &mm), "got %v", err)
	assert.Equal(t, 1, mm.Gaps)
	assert.Equal(t, 1, mm.Replaced)
	assert.Equal(t, 10, mm.Recorded)
	assert.Equal(t, 9, mm.Consumed)
}

func TestReconstructClampsROI(t *testing.T) {
	cases := []struct {
		name     string
		roi      ROI
		warnings int
		want     ROI
	}{
		{"inside", ROI{1, 3, 0, 2}, 0, ROI{1, 3, 0, 2}},
		{"rows exceed", ROI{0, 10, 1, 3}, 1, ROI{0, 4, 1, 3}},
		{"cols exceed", ROI{1, 2, 2, 9}, 1, ROI{1, 2, 0, 5}},
		{"both exceed", ROI{-1, 10, 0, 20}, 2, ROI{0, 4, 0, 5}},
		{"default on small frames", DefaultROI, 2, ROI{0, 4, 0, 5}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			src := newSliceSource(2, 4, 5)
			st, err := Reconstruct(src, nil, ReconstructOptions{Average: 1, ROI: c.roi})
			require.NoError(t, err)
			assert.Equal(t, c.warnings, st.Warnings.Count(WarnROIClamped))
			assert.Equal(t, c.want, st.ROI)
			r, cols := st.Shape()
			assert.Equal(t, c.want.Rows(), r)
			assert.Equal(t, c.want.Cols(), cols)
		})
	}
}

func TestReconstructEmptyROI(t *testing.T) {
	src := newSliceSource(2, 4, 5)
	_, err := Reconstruct(src, nil, ReconstructOptions{Average: 1, ROI: ROI{2, 2, 0, 5}})

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve), "got %v", err)
}

func TestReconstructWarnsOnNonFinite(t *testing.T) {
	src := newSliceSource(4, 1, 1)
	src.values[2] = math.NaN()
	st, err := Reconstruct(src, nil, ReconstructOptions{Average: 2, ROI: fullROI(1, 1)})
	require.NoError(t, err)

	assert.Equal(t, 1, st.Warnings.Count(WarnNonFinite))
	assert.Equal(t, 0.5, st.Frames[0].Data.At(0, 0))
	assert.True(t, math.IsNaN(st.Frames[1].Data.At(0, 0)))
}

func TestROIFromSlice(t *testing.T) {
	roi, err := ROIFromSlice([]int{1, 2, 3, 4})
	require.NoError(t, err)
	assert.Equal(t, ROI{RowMin: 1, RowMax: 2, ColMin: 3, ColMax: 4}, roi)

	_, err = ROIFromSlice([]int{1, 2})
	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
}
