// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package store

import (
	"fmt"

	"github.com/rditech/rdi-repair/data"
	"gonum.org/v1/gonum/mat"
)

// FrameSet adapts a rank 3 dataset of shape (frames, rows, cols) to
// data.FrameSource.
type FrameSet struct {
	s          *Store
	path       string
	n          int
	rows, cols int
}

// FrameSource opens the frame stack at path for reconstruction.
func (s *Store) FrameSource(path string) (*FrameSet, error) {
	n, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	if len(n.Shape) != 3 {
		return nil, fmt.Errorf("dataset %q has shape %v, want (frames, rows, cols)", n.Path, n.Shape)
	}
	return &FrameSet{
		s:    s,
		path: n.Path,
		n:    n.Shape[0],
		rows: n.Shape[1],
		cols: n.Shape[2],
	}, nil
}

func (f *FrameSet) Len() int { return f.n }

func (f *FrameSet) Shape() (rows, cols int) { return f.rows, f.cols }

func (f *FrameSet) Frames(lo, hi int, roi data.ROI) ([]*mat.Dense, error) {
	return f.s.ReadSlab(f.path, lo, hi, roi)
}

// ReadSlab reads frames [lo, hi) of a (frames, rows, cols) dataset, each
// cropped to roi.
func (s *Store) ReadSlab(path string, lo, hi int, roi data.ROI) ([]*mat.Dense, error) {
	n, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	if len(n.Shape) != 3 {
		return nil, fmt.Errorf("dataset %q has shape %v, want (frames, rows, cols)", n.Path, n.Shape)
	}
	rows, cols := n.Shape[1], n.Shape[2]
	if roi.RowMin < 0 || roi.RowMax > rows || roi.ColMin < 0 || roi.ColMax > cols ||
		roi.Rows() <= 0 || roi.Cols() <= 0 {
		return nil, fmt.Errorf("roi %v outside %dx%d frames", roi, rows, cols)
	}

	frames := make([]*mat.Dense, 0, hi-lo)
	err = s.ReadChunks(n.Path, lo, hi, func(i int, values []float64) error {
		full := mat.NewDense(rows, cols, values)
		crop := full.Slice(roi.RowMin, roi.RowMax, roi.ColMin, roi.ColMax)
		frames = append(frames, mat.DenseCopyOf(crop))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return frames, nil
}

// WriteStack writes a reconstructed stack as the (frames, rows, cols)
// dataset key of a new store at path, replacing any file already there.
// Nothing is left behind if writing fails.
func WriteStack(path, key string, st *data.Stack, opts ...Option) error {
	s, err := Create(path, opts...)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.WriteFrames(key, st, false); err != nil {
		return err
	}
	return s.Commit()
}

// WriteFrames stores the frames of st at key. With detectorAxis set the
// dataset gets a singleton second axis, (frames, 1, rows, cols).
func (s *Store) WriteFrames(key string, st *data.Stack, detectorAxis bool) error {
	rows, cols := st.Shape()
	shape := []int{st.Len(), rows, cols}
	if detectorAxis {
		shape = []int{st.Len(), 1, rows, cols}
	}
	return s.WriteChunks(key, shape, func(i int) []float64 {
		return data.Flatten(st.Frames[i].Data)
	})
}

// ReadStack loads the frames written by WriteStack. Only the frame data
// survives the round trip.
func ReadStack(path, key string, opts ...Option) (*data.Stack, error) {
	var st *data.Stack
	err := With(path, func(s *Store) error {
		n, err := s.dataset(key)
		if err != nil {
			return err
		}
		var rows, cols int
		switch len(n.Shape) {
		case 3:
			rows, cols = n.Shape[1], n.Shape[2]
		case 4:
			if n.Shape[1] != 1 {
				return fmt.Errorf("dataset %q has shape %v, want a singleton detector axis", n.Path, n.Shape)
			}
			rows, cols = n.Shape[2], n.Shape[3]
		default:
			return fmt.Errorf("dataset %q has shape %v, not a frame stack", n.Path, n.Shape)
		}

		st = &data.Stack{
			ROI:    data.ROI{RowMax: rows, ColMax: cols},
			Frames: make([]data.Frame, 0, n.Shape[0]),
		}
		return s.ReadChunks(key, 0, n.Shape[0], func(i int, values []float64) error {
			st.Frames = append(st.Frames, data.Frame{Data: mat.NewDense(rows, cols, values)})
			return nil
		})
	}, opts...)
	if err != nil {
		return nil, err
	}
	return st, nil
}
