// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package synth

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/rditech/rdi-repair/data"
	"github.com/rditech/rdi-repair/metadata"
	"github.com/rditech/rdi-repair/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRawDetectsDroppedFrames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan_0.db")
	spec := DefaultSpec()
	require.NoError(t, WriteRaw(path, "entry/data/data", "ts", spec, nil))

	err := store.With(path, func(s *store.Store) error {
		src, err := s.FrameSource("entry/data/data")
		require.NoError(t, err)
		assert.Equal(t, spec.Intended-len(spec.Dropped), src.Len())

		ts, err := s.ReadDataset("ts")
		require.NoError(t, err)
		det, err := data.DetectGaps(ts.Data, data.DefaultDetectorParams())
		require.NoError(t, err)
		assert.Equal(t, data.GapSet(spec.Dropped), det.Gaps)

		frames, err := src.Frames(37, 38, data.ROI{RowMax: 2, ColMax: 2})
		require.NoError(t, err)
		// physical 37 is logical 38, the first frame after the drop
		assert.Equal(t, []float64{Pixel(38, 0, 0), Pixel(38, 0, 1), Pixel(38, 1, 0), Pixel(38, 1, 1)}, data.Flatten(frames[0]))
		return nil
	})
	require.NoError(t, err)
}

func TestRecordedRejectsBadDrops(t *testing.T) {
	spec := DefaultSpec()
	spec.Dropped = []int{3, 3}
	_, err := spec.Recorded()
	assert.Error(t, err)

	spec.Dropped = []int{spec.Intended}
	_, err = spec.Recorded()
	assert.Error(t, err)
}

func TestWriteDocuments(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocuments(&buf, []string{"sample_lift", "beamline_energy"}, 4))

	rec, err := metadata.Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"beamline_energy", "sample_lift"}, rec.Names())
	require.Len(t, rec.Values("sample_lift"), 4)
	assert.Equal(t, Position("sample_lift", 3), rec.Values("sample_lift")[3])
}
