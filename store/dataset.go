// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package store

import (
	"errors"
	"fmt"

	"github.com/rditech/rdi-repair/data"
)

const float64DType = "<f8"

// Dataset is an n-dimensional array of doubles in row-major order.
type Dataset struct {
	Shape []int
	Data  []float64
}

func size(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// chunkLayout splits a dataset of the given shape into rows of the chunks
// table. Datasets of rank 2 or more are chunked along their leading axis;
// scalars and vectors are kept whole.
func chunkLayout(shape []int) (count, chunkSize int) {
	if len(shape) < 2 {
		return 1, size(shape)
	}
	return shape[0], size(shape[1:])
}

// WriteDataset stores ds at path, creating parent groups as needed.
func (s *Store) WriteDataset(path string, ds *Dataset) error {
	if size(ds.Shape) != len(ds.Data) {
		return fmt.Errorf("dataset %q: shape %v does not hold %d values", path, ds.Shape, len(ds.Data))
	}
	_, chunkSize := chunkLayout(ds.Shape)
	return s.WriteChunks(path, ds.Shape, func(i int) []float64 {
		return ds.Data[i*chunkSize : (i+1)*chunkSize]
	})
}

// WriteChunks stores a dataset whose chunks are produced one at a time by
// chunk, so callers need not flatten large arrays first.
func (s *Store) WriteChunks(path string, shape []int, chunk func(i int) []float64) error {
	if s.readOnly {
		return ErrReadOnly
	}
	p, err := cleanPath(path)
	if err != nil {
		return err
	}
	if p == "" {
		return errors.New("cannot write a dataset at the root")
	}
	for _, d := range shape {
		if d < 0 {
			return fmt.Errorf("dataset %q: negative dimension in shape %v", p, shape)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	parent, name := splitPath(p)
	if err := ensureGroup(tx, parent); err != nil {
		return err
	}
	if _, err := getNode(tx, p); err == nil {
		return fmt.Errorf("%q: %w", p, ErrExists)
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	_, err = tx.Exec(
		"INSERT INTO nodes (path, parent, name, kind, shape, dtype) VALUES (?, ?, ?, ?, ?, ?)",
		p, parent, name, string(KindDataset), formatShape(shape), float64DType,
	)
	if err != nil {
		return err
	}

	count, chunkSize := chunkLayout(shape)
	stmt, err := tx.Prepare("INSERT INTO chunks (path, idx, data) VALUES (?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i := 0; i < count; i++ {
		values := chunk(i)
		if len(values) != chunkSize {
			return fmt.Errorf("dataset %q: chunk %d has %d values, want %d", p, i, len(values), chunkSize)
		}
		if _, err := stmt.Exec(p, i, data.EncodeFloats(values)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReadDataset loads a whole dataset.
func (s *Store) ReadDataset(path string) (*Dataset, error) {
	n, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	count, chunkSize := chunkLayout(n.Shape)

	ds := &Dataset{Shape: n.Shape, Data: make([]float64, 0, count*chunkSize)}
	err = s.scanChunks(n, 0, count, func(i int, values []float64) error {
		ds.Data = append(ds.Data, values...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(ds.Data) != size(n.Shape) {
		return nil, fmt.Errorf("dataset %q: read %d values, shape %v wants %d", n.Path, len(ds.Data), n.Shape, size(n.Shape))
	}
	return ds, nil
}

// ReadVector loads a rank 1 dataset such as a timestamp series.
func (s *Store) ReadVector(path string) ([]float64, error) {
	n, err := s.dataset(path)
	if err != nil {
		return nil, err
	}
	if len(n.Shape) != 1 {
		return nil, fmt.Errorf("dataset %q has shape %v, want a vector", n.Path, n.Shape)
	}
	ds, err := s.ReadDataset(n.Path)
	if err != nil {
		return nil, err
	}
	return ds.Data, nil
}

// ReadChunks calls fn for each chunk in [lo, hi) along the leading axis of a
// dataset of rank 2 or more.
func (s *Store) ReadChunks(path string, lo, hi int, fn func(i int, values []float64) error) error {
	n, err := s.dataset(path)
	if err != nil {
		return err
	}
	if len(n.Shape) < 2 {
		return fmt.Errorf("dataset %q of rank %d is not chunked", n.Path, len(n.Shape))
	}
	if lo < 0 || hi > n.Shape[0] || lo > hi {
		return fmt.Errorf("dataset %q: range [%d, %d) outside [0, %d)", n.Path, lo, hi, n.Shape[0])
	}
	return s.scanChunks(n, lo, hi, fn)
}

func (s *Store) dataset(path string) (*Node, error) {
	n, err := s.Node(path)
	if err != nil {
		return nil, err
	}
	if n.Kind != KindDataset {
		return nil, fmt.Errorf("%q is a %s, not a dataset", n.Path, n.Kind)
	}
	return n, nil
}

func (s *Store) scanChunks(n *Node, lo, hi int, fn func(int, []float64) error) error {
	rows, err := s.db.Query(
		"SELECT idx, data FROM chunks WHERE path = ? AND idx >= ? AND idx < ? ORDER BY idx",
		n.Path, lo, hi,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	_, chunkSize := chunkLayout(n.Shape)
	next := lo
	for rows.Next() {
		var idx int
		var blob []byte
		if err := rows.Scan(&idx, &blob); err != nil {
			return err
		}
		if idx != next {
			return fmt.Errorf("dataset %q: chunk %d missing", n.Path, next)
		}
		values, err := data.DecodeFloats(blob)
		if err != nil {
			return err
		}
		if len(values) != chunkSize {
			return fmt.Errorf("dataset %q: chunk %d has %d values, want %d", n.Path, idx, len(values), chunkSize)
		}
		if err := fn(idx, values); err != nil {
			return err
		}
		next++
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if next != hi {
		return fmt.Errorf("dataset %q: chunk %d missing", n.Path, next)
	}
	return nil
}
