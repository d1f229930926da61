package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
)

// Value encoding: one tag byte ahead of the payload so TypeOf can answer
// without guessing. Sets are stored as a JSON array of members.
const (
	tagString byte = 's'
	tagSet    byte = 'S'
)

// Badger backs the Client interface with an embedded BadgerDB, for running
// without a Redis server. An empty path opens an in-memory database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a Badger database at path.
func OpenBadger(path string) (*Badger, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithLogger(nil) // badger's own logging is noise here

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %v", ErrUnavailable, err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, key string) (string, bool, error) {
	var value string
	var found bool
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) == 0 || val[0] != tagString {
				return nil // set key, not a string
			}
			value = string(val[1:])
			found = true
			return nil
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, found, nil
}

func (b *Badger) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), append([]byte{tagString}, value...))
	})
}

func (b *Badger) Del(_ context.Context, keys ...string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (b *Badger) SAdd(_ context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		set, err := readSet(txn, key)
		if err != nil {
			return err
		}
		for _, m := range members {
			set[m] = struct{}{}
		}
		return writeSet(txn, key, set)
	})
}

func (b *Badger) SRem(_ context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	return b.db.Update(func(txn *badger.Txn) error {
		set, err := readSet(txn, key)
		if err != nil {
			return err
		}
		for _, m := range members {
			delete(set, m)
		}
		if len(set) == 0 {
			err := txn.Delete([]byte(key))
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return writeSet(txn, key, set)
	})
}

func (b *Badger) SMembers(_ context.Context, key string) ([]string, error) {
	var members []string
	err := b.db.View(func(txn *badger.Txn) error {
		set, err := readSet(txn, key)
		if err != nil {
			return err
		}
		for m := range set {
			members = append(members, m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("smembers %s: %w", key, err)
	}
	sort.Strings(members)
	return members, nil
}

func (b *Badger) TypeOf(_ context.Context, key string) (KeyType, error) {
	keyType := KeyNone
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) > 0 && val[0] == tagSet {
				keyType = KeySet
			} else {
				keyType = KeyString
			}
			return nil
		})
	})
	if err != nil {
		return KeyNone, fmt.Errorf("type %s: %w", key, err)
	}
	return keyType, nil
}

func (b *Badger) Scan(_ context.Context, prefix string) ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			k := string(it.Item().KeyCopy(nil))
			if strings.HasPrefix(k, prefix) {
				keys = append(keys, k)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	sort.Strings(keys)
	return keys, nil
}

func (b *Badger) Ping(context.Context) error {
	if b.db.IsClosed() {
		return fmt.Errorf("%w: badger closed", ErrUnavailable)
	}
	return nil
}

func (b *Badger) Close() error {
	if err := b.db.Close(); err != nil {
		slog.Warn("closing badger", "error", err)
		return err
	}
	return nil
}

func readSet(txn *badger.Txn, key string) (map[string]struct{}, error) {
	set := make(map[string]struct{})
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return set, nil
	}
	if err != nil {
		return nil, err
	}
	err = item.Value(func(val []byte) error {
		if len(val) == 0 || val[0] != tagSet {
			return nil // overwrite string keys silently, like redis SADD after DEL
		}
		var members []string
		if err := json.Unmarshal(val[1:], &members); err != nil {
			return err
		}
		for _, m := range members {
			set[m] = struct{}{}
		}
		return nil
	})
	return set, err
}

func writeSet(txn *badger.Txn, key string, set map[string]struct{}) error {
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	sort.Strings(members)
	payload, err := json.Marshal(members)
	if err != nil {
		return err
	}
	return txn.Set([]byte(key), append([]byte{tagSet}, payload...))
}
