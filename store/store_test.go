// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Create(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestCreateCommitOpen(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.CreateGroup("entry1/instrument_1"))
	require.NoError(t, s.Commit())

	_, err := os.Stat(path)
	require.NoError(t, err)

	err = With(path, func(r *Store) error {
		n, err := r.Node("entry1/instrument_1")
		require.NoError(t, err)
		assert.Equal(t, KindGroup, n.Kind)
		assert.Equal(t, "instrument_1", n.Name)
		return nil
	})
	require.NoError(t, err)
}

func TestCloseWithoutCommitLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.db")

	s, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateGroup("entry"))
	require.NoError(t, s.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	s, err := Create(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateGroup("fresh"))
	require.NoError(t, s.Commit())
	require.NoError(t, s.Close())

	err = With(path, func(r *Store) error {
		_, err := r.Node("fresh")
		return err
	})
	assert.NoError(t, err)
}

func TestOpenRejectsForeignFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0644))

	_, err := Open(path)
	assert.Error(t, err)

	_, err = Open(filepath.Join(t.TempDir(), "missing.db"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestOpenIsReadOnly(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.Commit())

	err := With(path, func(r *Store) error {
		assert.ErrorIs(t, r.CreateGroup("x"), ErrReadOnly)
		assert.ErrorIs(t, r.WriteDataset("x", &Dataset{Shape: []int{1}, Data: []float64{1}}), ErrReadOnly)
		assert.ErrorIs(t, r.Commit(), ErrReadOnly)
		return nil
	})
	require.NoError(t, err)
}

func TestGroupsAndWalk(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, s.CreateGroup("b/y"))
	require.NoError(t, s.CreateGroup("a"))
	require.NoError(t, s.WriteDataset("b/x", &Dataset{Shape: []int{2}, Data: []float64{1, 2}}))
	require.NoError(t, s.CreateGroup("b/y"))

	children, err := s.Children("b")
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, "x", children[0].Name)
	assert.Equal(t, KindDataset, children[0].Kind)
	assert.Equal(t, []int{2}, children[0].Shape)
	assert.Equal(t, "y", children[1].Name)

	type visit struct {
		depth int
		path  string
	}
	var visits []visit
	err = s.Walk(func(depth int, n Node) error {
		visits = append(visits, visit{depth, n.Path})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []visit{{0, "a"}, {0, "b"}, {1, "b/x"}, {1, "b/y"}}, visits)

	err = s.CreateGroup("b/x/z")
	assert.ErrorIs(t, err, ErrExists)

	_, err = s.Node("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Node("a/../b")
	assert.Error(t, err)
}
