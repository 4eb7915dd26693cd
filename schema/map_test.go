// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	c := Canonical()
	require.Len(t, c, 68)
	assert.Equal(t, "entry1/end_time", c[0])
	assert.Equal(t, "entry1/start_time", c[len(c)-1])
	assert.Contains(t, c, DetectorDataPath)

	c[0] = "changed"
	assert.Equal(t, "entry1/end_time", Canonical()[0])
}

func TestMapPlacesAndOrphans(t *testing.T) {
	m, err := Map([]string{"beamline_energy", "sample_lift_user_setpoint", "name", "ring_current"}, Canonical())
	require.NoError(t, err)

	want := []Placement{
		{Key: "beamline_energy", Path: "entry1/instrument_1/labview_data/beamline_energy"},
		{Key: "sample_lift_user_setpoint", Path: "entry1/instrument_1/labview_data/sample_lift_user_setpoint"},
		{Key: "name", Path: "entry1/instrument_1/name"},
		{Key: "ring_current", Path: "ring_current", Orphan: true},
	}
	if diff := cmp.Diff(want, m.Placements); diff != "" {
		t.Errorf("placements mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, m.Staged(), 3)
	assert.Equal(t, []Placement{want[3]}, m.Orphans())
}

func TestMapEmpty(t *testing.T) {
	m, err := Map(nil, Canonical())
	require.NoError(t, err)
	assert.Empty(t, m.Placements)
}

func TestMapCollisions(t *testing.T) {
	cases := []struct {
		name  string
		names []string
		path  string
	}{
		{"frame stack", []string{"data"}, DetectorDataPath},
		{"orphan on group", []string{"beamline_energy", "entry1"}, "entry1"},
		{"orphan on frame group", []string{"entry1"}, "entry1"},
		{"staged on staged group", []string{"a", "c"}, "x/a"},
		{"repeated key", []string{"ring_current", "ring_current"}, "ring_current"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			canonical := Canonical()
			if c.name == "staged on staged group" {
				canonical = []string{"x/a", "x/a/c"}
			}
			_, err := Map(c.names, canonical)
			var ce *CollisionError
			require.True(t, errors.As(err, &ce), "got %v", err)
			assert.Equal(t, c.path, ce.Path)
		})
	}
}

func TestMapRejectsBadKeys(t *testing.T) {
	_, err := Map([]string{""}, Canonical())
	assert.ErrorIs(t, err, ErrInvalidKey)
	_, err = Map([]string{"a/b"}, Canonical())
	assert.ErrorIs(t, err, ErrInvalidKey)
}
