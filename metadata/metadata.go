// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package metadata reads positioner readings from an exported bluesky
// document list.
//
// The document is a JSON list of [tag, body] pairs. Bodies of event documents
// carry a "data" object mapping each positioner name to a list whose first
// element is the reading. Every other document is skipped.
package metadata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

var ErrMalformed = errors.New("malformed metadata document")

// Record is the series of readings per positioner, in document order.
type Record struct {
	names  []string
	values map[string][]float64
}

// KeyNotFoundError is returned by Select when a requested positioner has no
// readings. Available lists the positioners that do.
type KeyNotFoundError struct {
	Key       string
	Available []string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("no readings for %q, choose from: %s", e.Key, strings.Join(e.Available, ", "))
}

type document struct {
	Data map[string]json.RawMessage `json:"data"`
}

func ParseFile(path string) (*Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rec, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rec, nil
}

func Parse(r io.Reader) (*Record, error) {
	var top json.RawMessage
	if err := json.NewDecoder(r).Decode(&top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(top, &entries); err != nil || entries == nil {
		return nil, fmt.Errorf("%w: top level is not a list", ErrMalformed)
	}

	rec := &Record{values: make(map[string][]float64)}
	for _, entry := range entries {
		var pair []json.RawMessage
		if err := json.Unmarshal(entry, &pair); err != nil || len(pair) < 2 {
			continue
		}
		var doc document
		if err := json.Unmarshal(pair[1], &doc); err != nil {
			continue
		}
		for name, raw := range doc.Data {
			v, ok := reading(raw)
			if !ok {
				continue
			}
			if _, seen := rec.values[name]; !seen {
				rec.names = append(rec.names, name)
			}
			rec.values[name] = append(rec.values[name], v)
		}
	}
	sort.Strings(rec.names)
	return rec, nil
}

// reading extracts the numeric value at position 0 of a data entry. A bare
// number is accepted as well.
func reading(raw json.RawMessage) (float64, bool) {
	// null decodes into a float64 without error
	if string(bytes.TrimSpace(raw)) == "null" {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		return v, true
	}
	var list []json.RawMessage
	if err := json.Unmarshal(raw, &list); err != nil || len(list) == 0 {
		return 0, false
	}
	if string(bytes.TrimSpace(list[0])) == "null" {
		return 0, false
	}
	if err := json.Unmarshal(list[0], &v); err != nil {
		return 0, false
	}
	return v, true
}

// Names returns the positioners with at least one reading: sorted for a
// parsed record, in request order for a selection.
func (r *Record) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

func (r *Record) Values(name string) []float64 {
	return r.values[name]
}

func (r *Record) Len() int { return len(r.names) }

// Select narrows the record to the given positioners, keeping their order.
// An empty selection keeps everything.
func (r *Record) Select(names []string) (*Record, error) {
	if len(names) == 0 {
		return r, nil
	}
	out := &Record{values: make(map[string][]float64, len(names))}
	for _, name := range names {
		values, ok := r.values[name]
		if !ok {
			return nil, &KeyNotFoundError{Key: name, Available: r.Names()}
		}
		if _, dup := out.values[name]; dup {
			continue
		}
		out.names = append(out.names, name)
		out.values[name] = values
	}
	return out, nil
}
