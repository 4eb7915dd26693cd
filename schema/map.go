// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package schema places metadata keys into the canonical record layout.
package schema

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrInvalidKey = errors.New("invalid metadata key")

// Placement is where one metadata key is written in the output tree.
type Placement struct {
	Key  string
	Path string
	// Orphan is set for keys with no canonical home; they are written at
	// the root under the bare key.
	Orphan bool
}

type Mapping struct {
	Placements []Placement
}

// Staged returns the placements that found a canonical path.
func (m *Mapping) Staged() []Placement {
	var out []Placement
	for _, p := range m.Placements {
		if !p.Orphan {
			out = append(out, p)
		}
	}
	return out
}

func (m *Mapping) Orphans() []Placement {
	var out []Placement
	for _, p := range m.Placements {
		if p.Orphan {
			out = append(out, p)
		}
	}
	return out
}

// CollisionError reports keys that would be written to the same node, or to
// a node the layout already uses as a group or for the frame stack.
type CollisionError struct {
	Path string
	Keys []string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("schema collision at %q: keys %s", e.Path, strings.Join(e.Keys, ", "))
}

// leafIndex maps the final segment of each path to the first path ending in
// it.
func leafIndex(paths []string) map[string]string {
	idx := make(map[string]string, len(paths))
	for _, p := range paths {
		leaf := p[strings.LastIndex(p, "/")+1:]
		if _, ok := idx[leaf]; !ok {
			idx[leaf] = p
		}
	}
	return idx
}

// Map places each name at the first canonical path whose final segment equals
// it. Names without a match become orphans at the root.
func Map(names []string, canonical []string) (*Mapping, error) {
	idx := leafIndex(canonical)

	m := &Mapping{Placements: make([]Placement, 0, len(names))}
	owners := map[string][]string{DetectorDataPath: {}}
	for _, name := range names {
		if name == "" || strings.Contains(name, "/") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKey, name)
		}
		p := Placement{Key: name, Path: idx[name]}
		if p.Path == "" {
			p.Path = name
			p.Orphan = true
		}
		m.Placements = append(m.Placements, p)
		owners[p.Path] = append(owners[p.Path], name)
	}

	groups := make(map[string]bool)
	for path := range owners {
		for i, c := range path {
			if c == '/' {
				groups[path[:i]] = true
			}
		}
	}

	paths := make([]string, 0, len(owners))
	for path := range owners {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	for _, path := range paths {
		keys := owners[path]
		if len(keys) == 0 {
			continue
		}
		if len(keys) > 1 || groups[path] || path == DetectorDataPath {
			return nil, &CollisionError{Path: path, Keys: keys}
		}
	}
	return m, nil
}
