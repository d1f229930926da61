package store

import (
	"context"
	"encoding/json"
	"io"
	"sync"
)

// Mutation is the machine-parseable description of one store write, emitted
// by the descriptive output mode instead of performing the write.
type Mutation struct {
	Op      string   `json:"op"` // set | del | sadd | srem
	Key     string   `json:"key"`
	Value   string   `json:"value,omitempty"`
	Members []string `json:"members,omitempty"`
}

// Recorder wraps a Client for descriptive mode: reads pass through to the
// wrapped backend so callers still see real state, while every mutation is
// written as a JSON line to out and never applied.
type Recorder struct {
	inner Client
	mu    sync.Mutex
	enc   *json.Encoder
	count int
}

// NewRecorder creates a Recorder emitting mutations to out.
func NewRecorder(inner Client, out io.Writer) *Recorder {
	return &Recorder{inner: inner, enc: json.NewEncoder(out)}
}

// Recorded returns how many mutations have been emitted.
func (r *Recorder) Recorded() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func (r *Recorder) emit(m Mutation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	return r.enc.Encode(m)
}

func (r *Recorder) Set(_ context.Context, key, value string) error {
	return r.emit(Mutation{Op: "set", Key: key, Value: value})
}

func (r *Recorder) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := r.emit(Mutation{Op: "del", Key: k}); err != nil {
			return err
		}
	}
	return nil
}

func (r *Recorder) SAdd(_ context.Context, key string, members ...string) error {
	return r.emit(Mutation{Op: "sadd", Key: key, Members: members})
}

func (r *Recorder) SRem(_ context.Context, key string, members ...string) error {
	return r.emit(Mutation{Op: "srem", Key: key, Members: members})
}

func (r *Recorder) Get(ctx context.Context, key string) (string, bool, error) {
	return r.inner.Get(ctx, key)
}

func (r *Recorder) SMembers(ctx context.Context, key string) ([]string, error) {
	return r.inner.SMembers(ctx, key)
}

func (r *Recorder) TypeOf(ctx context.Context, key string) (KeyType, error) {
	return r.inner.TypeOf(ctx, key)
}

func (r *Recorder) Scan(ctx context.Context, prefix string) ([]string, error) {
	return r.inner.Scan(ctx, prefix)
}

func (r *Recorder) Ping(ctx context.Context) error { return r.inner.Ping(ctx) }

func (r *Recorder) Close() error { return r.inner.Close() }
