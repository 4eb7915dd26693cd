// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package lock serialises writers of the same output through redis.
package lock

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-redis/redis"
	"github.com/google/uuid"
)

var (
	ErrLocked   = errors.New("output is locked by another run")
	ErrNotOwner = errors.New("lock no longer held")
)

const keyPrefix = "rdi-repair:lock:"

// releaseScript deletes the key only if it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

type Lock struct {
	client *redis.Client
	key    string
	token  string
}

// KeyFor returns the lock key of an output location. Local paths are made
// absolute so that relative spellings of one file share a lock.
func KeyFor(output string) string {
	if !hasScheme(output) {
		if abs, err := filepath.Abs(output); err == nil {
			output = abs
		}
	}
	return keyPrefix + output
}

func hasScheme(s string) bool {
	for i, c := range s {
		switch {
		case c == ':':
			return i > 0 && len(s) > i+2 && s[i+1:i+3] == "//"
		case c == '/':
			return false
		}
	}
	return false
}

// Acquire takes the lock at key for at most ttl.
func Acquire(client *redis.Client, key string, ttl time.Duration) (*Lock, error) {
	token := uuid.New().String()
	ok, err := client.SetNX(key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring %s: %w", key, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", key, ErrLocked)
	}
	return &Lock{client: client, key: key, token: token}, nil
}

func (l *Lock) Key() string { return l.key }

// Release gives the lock up. It fails with ErrNotOwner if the lock expired
// and was taken by someone else in the meantime.
func (l *Lock) Release() error {
	res, err := releaseScript.Run(l.client, []string{l.key}, l.token).Result()
	if err != nil {
		return fmt.Errorf("releasing %s: %w", l.key, err)
	}
	if n, _ := res.(int64); n == 0 {
		return fmt.Errorf("%s: %w", l.key, ErrNotOwner)
	}
	return nil
}
