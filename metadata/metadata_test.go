// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eventDocs = `[
  ["start", {"uid": "abc", "plan_name": "scan"}],
  ["descriptor", {"data_keys": {"sample_lift": {}}}],
  ["event", {"data": {"sample_lift": [1.5, 1700000000.1], "sample_translate": [10, 0], "shutter": ["open"]}}],
  ["event", {"data": {"sample_lift": [2.5], "sample_translate": 11, "ring_current": [null]}}],
  ["event", {"data": {"sample_lift": [], "sample_translate": [12.0], "ring_current": null}}],
  "junk",
  ["stop", {"exit_status": "success"}]
]`

func TestParse(t *testing.T) {
	rec, err := Parse(strings.NewReader(eventDocs))
	require.NoError(t, err)

	assert.Equal(t, []string{"sample_lift", "sample_translate"}, rec.Names())
	assert.Equal(t, []float64{1.5, 2.5}, rec.Values("sample_lift"))
	assert.Equal(t, []float64{10, 11, 12}, rec.Values("sample_translate"))
	assert.Nil(t, rec.Values("shutter"))
	assert.Nil(t, rec.Values("ring_current"))
}

func TestParseMalformed(t *testing.T) {
	for _, doc := range []string{`{"data": {}}`, `null`, `[1, 2`, ``} {
		_, err := Parse(strings.NewReader(doc))
		assert.ErrorIs(t, err, ErrMalformed, doc)
	}

	rec, err := Parse(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Len())
}

func TestSelect(t *testing.T) {
	rec, err := Parse(strings.NewReader(eventDocs))
	require.NoError(t, err)

	sel, err := rec.Select([]string{"sample_translate", "sample_lift", "sample_translate"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sample_translate", "sample_lift"}, sel.Names())
	assert.Equal(t, []float64{1.5, 2.5}, sel.Values("sample_lift"))

	all, err := rec.Select(nil)
	require.NoError(t, err)
	assert.Equal(t, rec.Names(), all.Names())

	_, err = rec.Select([]string{"sample_lift", "false_motor"})
	var knf *KeyNotFoundError
	require.True(t, errors.As(err, &knf))
	assert.Equal(t, "false_motor", knf.Key)
	assert.Equal(t, []string{"sample_lift", "sample_translate"}, knf.Available)
	assert.Contains(t, err.Error(), "sample_translate")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scan_documents.json")
	require.NoError(t, os.WriteFile(path, []byte(eventDocs), 0644))

	rec, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Len())

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
