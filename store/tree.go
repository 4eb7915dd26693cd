// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	KindGroup   Kind = "group"
	KindDataset Kind = "dataset"
)

// Node is a group or dataset in the tree. Paths are slash separated without
// a leading slash; the root group has the empty path.
type Node struct {
	Path  string
	Name  string
	Kind  Kind
	Shape []int
	DType string
}

type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

func cleanPath(p string) (string, error) {
	p = strings.Trim(p, "/")
	if p == "" {
		return "", nil
	}
	for _, part := range strings.Split(p, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid path %q", p)
		}
	}
	return p, nil
}

func splitPath(p string) (parent, name string) {
	i := strings.LastIndex(p, "/")
	if i < 0 {
		return "", p
	}
	return p[:i], p[i+1:]
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, d := range shape {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

func parseShape(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int, len(parts))
	for i, part := range parts {
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad shape %q: %w", s, err)
		}
		shape[i] = d
	}
	return shape, nil
}

func getNode(q querier, p string) (*Node, error) {
	n := &Node{Path: p}
	var kind, shape string
	err := q.QueryRow("SELECT name, kind, shape, dtype FROM nodes WHERE path = ?", p).
		Scan(&n.Name, &kind, &shape, &n.DType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%q: %w", p, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	n.Kind = Kind(kind)
	if n.Shape, err = parseShape(shape); err != nil {
		return nil, err
	}
	return n, nil
}

// Node looks up the group or dataset at path.
func (s *Store) Node(path string) (*Node, error) {
	p, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	return getNode(s.db, p)
}

// CreateGroup creates the group at path and any missing ancestors. Existing
// groups are left alone.
func (s *Store) CreateGroup(path string) error {
	if s.readOnly {
		return ErrReadOnly
	}
	p, err := cleanPath(path)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := ensureGroup(tx, p); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func ensureGroup(q querier, p string) error {
	if p == "" {
		return nil
	}
	n, err := getNode(q, p)
	if err == nil {
		if n.Kind != KindGroup {
			return fmt.Errorf("%q is a %s, not a group: %w", p, n.Kind, ErrExists)
		}
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}

	parent, name := splitPath(p)
	if err := ensureGroup(q, parent); err != nil {
		return err
	}
	_, err = q.Exec(
		"INSERT INTO nodes (path, parent, name, kind) VALUES (?, ?, ?, ?)",
		p, parent, name, string(KindGroup),
	)
	return err
}

// Children lists the direct members of a group ordered by name.
func (s *Store) Children(path string) ([]Node, error) {
	p, err := cleanPath(path)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(
		"SELECT path, name, kind, shape, dtype FROM nodes WHERE parent = ? AND path != '' ORDER BY name",
		p,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var nodes []Node
	for rows.Next() {
		var n Node
		var kind, shape string
		if err := rows.Scan(&n.Path, &n.Name, &kind, &shape, &n.DType); err != nil {
			return nil, err
		}
		n.Kind = Kind(kind)
		if n.Shape, err = parseShape(shape); err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, rows.Err()
}

// Walk visits every node below the root depth first, members in name order.
func (s *Store) Walk(fn func(depth int, n Node) error) error {
	return s.walk("", 0, fn)
}

func (s *Store) walk(p string, depth int, fn func(int, Node) error) error {
	children, err := s.Children(p)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := fn(depth, child); err != nil {
			return err
		}
		if child.Kind == KindGroup {
			if err := s.walk(child.Path, depth+1, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
