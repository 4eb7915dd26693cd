// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResource(t *testing.T) {
	cases := []struct {
		in   string
		want Resource
	}{
		{"scan_0.db", Resource{Scheme: "file", Name: "scan_0.db"}},
		{"/data/./scan_0.db", Resource{Scheme: "file", Name: "/data/scan_0.db"}},
		{"file:///data/scan_0.db", Resource{Scheme: "file", Name: "/data/scan_0.db"}},
		{"gs://bucket/run/scan_0.db", Resource{Scheme: "gs", Bucket: "bucket", Name: "run/scan_0.db"}},
	}
	for _, c := range cases {
		got, err := ParseResource(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, *got, c.in)
	}

	_, err := ParseResource("s3://bucket/key")
	assert.Error(t, err)

	res, err := ParseResource("gs://bucket/run/scan_0.db")
	require.NoError(t, err)
	assert.Equal(t, "gs://bucket/run/scan_0.db", res.String())
	assert.False(t, res.IsLocal())
}

func TestFetchLocal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "scan_0.db")

	_, _, err := Fetch(ctx, path, "")
	assert.ErrorIs(t, err, os.ErrNotExist)
	ok, err := Exists(ctx, path, "")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	local, cleanup, err := Fetch(ctx, "file://"+path, "")
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, path, local)

	ok, err = Exists(ctx, path, "")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Error(t, Publish(ctx, path, path, ""))
}
