// Package store defines the key-value capability the indexer persists
// through, with Redis, Badger, and in-memory backends behind one interface.
package store

import (
	"context"
	"errors"
	"fmt"
)

// KeyType classifies what is stored under a key.
type KeyType string

const (
	KeyNone   KeyType = "none"
	KeyString KeyType = "string"
	KeySet    KeyType = "set"
)

// ErrUnavailable marks connection-level failures. Callers abort the current
// operation; per-key failures are reported separately in summaries.
var ErrUnavailable = errors.New("store unavailable")

// Client is the minimal key-value capability the index needs. All methods are
// safe for concurrent use. Keys hold either a string value or a set of
// members, never both.
type Client interface {
	// Get returns the string value at key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes a string value, replacing whatever was there.
	Set(ctx context.Context, key, value string) error
	// Del removes keys of any type. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
	// SAdd adds members to the set at key, creating it if needed.
	SAdd(ctx context.Context, key string, members ...string) error
	// SRem removes members from the set at key.
	SRem(ctx context.Context, key string, members ...string) error
	// SMembers returns the members of the set at key, sorted.
	SMembers(ctx context.Context, key string) ([]string, error)
	// TypeOf reports what kind of value lives at key.
	TypeOf(ctx context.Context, key string) (KeyType, error)
	// Scan returns all keys (of any type) starting with prefix, sorted.
	Scan(ctx context.Context, prefix string) ([]string, error)
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

// Backend identifiers accepted by Open.
const (
	BackendRedis  = "redis"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Options configures backend selection.
type Options struct {
	Backend    string
	RedisURL   string
	BadgerPath string
}

// Open creates the configured backend. Selection happens once at session
// setup; call sites only ever see the Client interface.
func Open(opts Options) (Client, error) {
	switch opts.Backend {
	case BackendRedis:
		return OpenRedis(opts.RedisURL)
	case BackendBadger:
		return OpenBadger(opts.BadgerPath)
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
