// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package synth generates raw detector records with dropped frames and the
// matching metadata documents.
package synth

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/rditech/rdi-repair/store"
	"go.uber.org/zap"
)

type Spec struct {
	// Intended is the number of frames the detector should have recorded.
	Intended   int
	Rows, Cols int
	// Dropped lists the logical indices of the frames that never arrive.
	Dropped []int
	// Cadence is the frame period in seconds.
	Cadence float64
	Start   float64
	// Jitter is the timing noise of each frame as a fraction of Cadence.
	Jitter float64
}

func DefaultSpec() Spec {
	return Spec{
		Intended: 200,
		Rows:     16,
		Cols:     16,
		Dropped:  []int{37, 121},
		Cadence:  0.1,
		Start:    1.7e9,
		Jitter:   0.01,
	}
}

// Pixel is the value of pixel (r, c) in the frame at logical index l.
func Pixel(l, r, c int) float64 {
	return float64(1000*l + 10*r + c)
}

// Timestamp is the acquisition time of the frame at logical index l.
func (s Spec) Timestamp(l int) float64 {
	return s.Start + s.Cadence*(float64(l)+s.Jitter*math.Sin(float64(l)))
}

// Recorded returns the logical indices of the frames that were kept.
func (s Spec) Recorded() ([]int, error) {
	dropped := make(map[int]bool, len(s.Dropped))
	for _, d := range s.Dropped {
		if d < 0 || d >= s.Intended {
			return nil, fmt.Errorf("dropped frame %d outside [0, %d)", d, s.Intended)
		}
		if dropped[d] {
			return nil, fmt.Errorf("dropped frame %d listed twice", d)
		}
		dropped[d] = true
	}
	kept := make([]int, 0, s.Intended-len(dropped))
	for l := 0; l < s.Intended; l++ {
		if !dropped[l] {
			kept = append(kept, l)
		}
	}
	return kept, nil
}

// WriteRaw writes the recorded frames and their timestamps to a new store.
func WriteRaw(path, frameKey, timestampKey string, spec Spec, logger *zap.Logger) error {
	if spec.Rows < 1 || spec.Cols < 1 {
		return fmt.Errorf("frame shape %dx%d is empty", spec.Rows, spec.Cols)
	}
	kept, err := spec.Recorded()
	if err != nil {
		return err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s, err := store.Create(path, store.WithLogger(logger))
	if err != nil {
		return err
	}
	defer s.Close()

	err = s.WriteChunks(frameKey, []int{len(kept), spec.Rows, spec.Cols}, func(i int) []float64 {
		frame := make([]float64, 0, spec.Rows*spec.Cols)
		for r := 0; r < spec.Rows; r++ {
			for c := 0; c < spec.Cols; c++ {
				frame = append(frame, Pixel(kept[i], r, c))
			}
		}
		return frame
	})
	if err != nil {
		return err
	}

	ts := make([]float64, len(kept))
	for i, l := range kept {
		ts[i] = spec.Timestamp(l)
	}
	if err := s.WriteDataset(timestampKey, &store.Dataset{Shape: []int{len(ts)}, Data: ts}); err != nil {
		return err
	}

	logger.Info("wrote synthetic record",
		zap.String("path", path),
		zap.Int("recorded", len(kept)),
		zap.Ints("dropped", spec.Dropped),
	)
	return s.Commit()
}

// Position is the reading of a positioner at a scan point.
func Position(key string, point int) float64 {
	return float64(len(key)) + 0.5*float64(point)
}

// WriteDocuments writes a bluesky document list with one event per scan
// point carrying a reading for every key.
func WriteDocuments(w io.Writer, keys []string, points int) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	docs := []interface{}{
		[]interface{}{"start", map[string]interface{}{"plan_name": "synthetic", "num_points": points}},
		[]interface{}{"descriptor", map[string]interface{}{"name": "primary"}},
	}
	for p := 0; p < points; p++ {
		readings := make(map[string]interface{}, len(sorted))
		for _, k := range sorted {
			readings[k] = []float64{Position(k, p)}
		}
		docs = append(docs, []interface{}{"event", map[string]interface{}{"seq_num": p + 1, "data": readings}})
	}
	docs = append(docs, []interface{}{"stop", map[string]interface{}{"exit_status": "success"}})

	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	return enc.Encode(docs)
}
