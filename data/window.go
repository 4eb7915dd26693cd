// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// FrameSource gives read access to a recorded frame stream. Frames returns
// the physical frames [lo, hi) cropped to roi.
type FrameSource interface {
	Len() int
	Shape() (rows, cols int)
	Frames(lo, hi int, roi ROI) ([]*mat.Dense, error)
}

type Frame struct {
	Data *mat.Dense
	// Placeholder marks an all-zero frame standing in for a dropped one.
	Placeholder bool
	// Contributing is the number of recorded frames averaged into Data.
	Contributing int
}

// Stack is a reconstructed frame stream, one frame per window.
type Stack struct {
	Frames   []Frame
	Average  int
	ROI      ROI
	Gaps     GapSet
	Recorded int
	Skipped  int
	Warnings Warnings
}

func (s *Stack) Len() int { return len(s.Frames) }

func (s *Stack) Shape() (rows, cols int) {
	if len(s.Frames) == 0 {
		return s.ROI.Rows(), s.ROI.Cols()
	}
	return s.Frames[0].Data.Dims()
}

type ReconstructOptions struct {
	// Average is the number of logical frames collapsed into one output
	// frame.
	Average int
	ROI     ROI
	Logger  *zap.Logger
}

// window is one span of logical frames and the physical frames backing it.
type window struct {
	index          int
	lo, hi         int
	gaps           int
	physLo, physHi int
}

func (w window) real() int { return w.physHi - w.physLo }

// windowCursor is the fold accumulator threaded through the window loop:
// the gap frames consumed by all earlier windows.
type windowCursor struct {
	replaced int
}

func (c windowCursor) next(index, k, intended int, perWindow map[int]int) (window, windowCursor) {
	w := window{
		index: index,
		lo:    index * k,
		hi:    (index + 1) * k,
		gaps:  perWindow[index],
	}
	if w.hi > intended {
		w.hi = intended
	}
	w.physLo = w.lo - c.replaced
	w.physHi = w.physLo + (w.hi - w.lo) - w.gaps
	return w, windowCursor{replaced: c.replaced + w.gaps}
}

// planWindows splits the intended logical range of a record into windows of
// k frames. The last window may be shorter.
func planWindows(recorded int, gaps GapSet, k int) ([]window, windowCursor, error) {
	intended := recorded + len(gaps)
	count := (intended + k - 1) / k
	perWindow := gaps.PerWindow(k)

	windows := make([]window, 0, count)
	cursor := windowCursor{}
	for i := 0; i < count; i++ {
		var w window
		w, cursor = cursor.next(i, k, intended, perWindow)
		if k > 1 && w.real() == 0 {
			return nil, cursor, invalid("gap set", "window %d [%d, %d) holds no recorded frame", i, w.lo, w.hi)
		}
		windows = append(windows, w)
	}
	return windows, cursor, nil
}

// Reconstruct rebuilds the intended, gap free frame sequence from a recorded
// stream and the logical positions of its dropped frames.
//
// With Average 1 every logical position yields one frame and dropped
// positions are filled with zeros. With Average k > 1 each window of k
// logical positions is averaged over the recorded frames it holds; dropped
// frames are skipped, never zero filled.
func Reconstruct(src FrameSource, gaps GapSet, opts ReconstructOptions) (*Stack, error) {
	if opts.Average < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAverage, opts.Average)
	}
	logger := nopIfNil(opts.Logger)

	recorded := src.Len()
	if err := gaps.Validate(recorded); err != nil {
		return nil, err
	}

	st := &Stack{
		Average:  opts.Average,
		Gaps:     gaps,
		Recorded: recorded,
	}

	rows, cols := src.Shape()
	roi, err := opts.ROI.clamp(rows, cols, logger, &st.Warnings)
	if err != nil {
		return nil, err
	}
	st.ROI = roi

	windows, cursor, err := planWindows(recorded, gaps, opts.Average)
	if err != nil {
		return nil, err
	}

	logger.Debug("reconstructing",
		zap.Int("recorded", recorded),
		zap.Int("missing", len(gaps)),
		zap.Int("average", opts.Average),
		zap.Int("windows", len(windows)),
		zap.Stringer("roi", roi),
	)

	consumed := 0
	st.Frames = make([]Frame, 0, len(windows))
	for _, w := range windows {
		if w.gaps > 0 {
			logger.Debug("corrections in window", zap.Int("window", w.index), zap.Int("gaps", w.gaps))
		}

		if w.real() == 0 {
			st.Frames = append(st.Frames, Frame{
				Data:        mat.NewDense(roi.Rows(), roi.Cols(), nil),
				Placeholder: true,
			})
			continue
		}

		frames, err := src.Frames(w.physLo, w.physHi, roi)
		if err != nil {
			return nil, fmt.Errorf("reading frames [%d, %d): %w", w.physLo, w.physHi, err)
		}
		consumed += len(frames)
		if len(frames) == 0 {
			continue
		}

		for i, f := range frames {
			if !allFinite(f) {
				st.Warnings.Add(logger, WarnNonFinite,
					fmt.Sprintf("frame %d contains non-finite values", w.physLo+i),
					zap.Int("frame", w.physLo+i),
				)
			}
		}
		st.Frames = append(st.Frames, Frame{
			Data:         mean(frames),
			Contributing: len(frames),
		})
	}

	st.Skipped = cursor.replaced
	if st.Skipped != len(gaps) || consumed != recorded || len(st.Frames) != len(windows) {
		return nil, &MissingFrameCountMismatchError{
			Gaps:     len(gaps),
			Replaced: st.Skipped,
			Recorded: recorded,
			Consumed: consumed,
		}
	}

	return st, nil
}

func mean(frames []*mat.Dense) *mat.Dense {
	if len(frames) == 1 {
		return mat.DenseCopyOf(frames[0])
	}
	r, c := frames[0].Dims()
	acc := mat.NewDense(r, c, nil)
	for _, f := range frames {
		acc.Add(acc, f)
	}
	acc.Scale(1/float64(len(frames)), acc)
	return acc
}

func allFinite(m *mat.Dense) bool {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		for _, v := range m.RawRowView(i) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
