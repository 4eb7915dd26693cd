// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package store keeps a hierarchical tree of groups and numeric datasets in a
// single SQLite file.
//
// A store is either opened read-only or created fresh. Creation is exclusive:
// the tree is built in a temporary file next to the destination and only
// replaces it on Commit, so an aborted build never leaves partial output.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("no such node")
	ErrExists   = errors.New("node already exists")
	ErrReadOnly = errors.New("store is read-only")
	ErrNotStore = errors.New("not a store file")
)

// latestLayout is the newest migration in migrations/.
const latestLayout = 2

type Store struct {
	db        *sql.DB
	path      string
	tmp       string
	readOnly  bool
	committed bool
	logger    *zap.Logger
}

type Option func(*Store)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func newStore(path string, opts []Option) *Store {
	s := &Store{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Open opens an existing store for reading.
func Open(path string, opts ...Option) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	s := newStore(path, opts)
	s.readOnly = true

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	if err := checkLayout(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if _, err := db.Exec("PRAGMA query_only = ON"); err != nil {
		db.Close()
		return nil, err
	}
	s.db = db

	s.logger.Debug("opened store", zap.String("path", path))
	return s, nil
}

// With opens the store at path, hands it to fn and closes it on every exit
// path.
func With(path string, fn func(*Store) error, opts ...Option) (err error) {
	s, err := Open(path, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(s)
}

// Create starts building a new store that will replace whatever is at path
// once committed.
func Create(path string, opts ...Option) (*Store, error) {
	s := newStore(path, opts)

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, err
	}
	s.tmp = tmp.Name()
	tmp.Close()

	db, err := openDB(s.tmp)
	if err != nil {
		os.Remove(s.tmp)
		return nil, err
	}
	if err := migrateUp(db, s.logger); err != nil {
		db.Close()
		os.Remove(s.tmp)
		return nil, err
	}
	s.db = db

	s.logger.Debug("creating store", zap.String("path", path), zap.String("tmp", s.tmp))
	return s, nil
}

func (s *Store) Path() string { return s.path }

// Commit finishes a store started with Create and moves it into place,
// truncating any previous file at the destination.
func (s *Store) Commit() error {
	if s.readOnly {
		return ErrReadOnly
	}
	if s.committed {
		return errors.New("store already committed")
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	if err := os.Rename(s.tmp, s.path); err != nil {
		os.Remove(s.tmp)
		return err
	}
	s.committed = true

	s.logger.Debug("committed store", zap.String("path", s.path))
	return nil
}

// Close releases the store. An uncommitted build is discarded.
func (s *Store) Close() error {
	if s.committed {
		return nil
	}
	err := s.db.Close()
	if s.tmp != "" {
		os.Remove(s.tmp)
		os.Remove(s.tmp + "-journal")
		s.tmp = ""
	}
	return err
}

func checkLayout(db *sql.DB) error {
	var version int
	var dirty bool
	err := db.QueryRow("SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&version, &dirty)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotStore, err)
	}
	if dirty {
		return fmt.Errorf("%w: layout version %d is dirty", ErrNotStore, version)
	}
	if version < latestLayout {
		return fmt.Errorf("%w: layout version %d is older than %d", ErrNotStore, version, latestLayout)
	}
	return nil
}
