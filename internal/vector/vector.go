// Package vector stores entity embeddings and answers top-K cosine
// similarity queries over them.
package vector

import (
	"context"
	"strings"
)

// DefaultTopK is used when a search asks for zero or negative K.
const DefaultTopK = 10

// Record is one stored embedding: the entity key it belongs to plus the
// provider and model that produced the vector.
type Record struct {
	EntityKey string    `json:"entity_key"`
	Vector    []float32 `json:"vector"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	Dimension int       `json:"dimension"`
}

// SearchOptions narrows a similarity search. The zero value applies no
// narrowing at all: every stored record competes, whatever its score.
type SearchOptions struct {
	TopK        int
	MinScore    *float64 // nil means no minimum; negative scores pass
	EntityTypes []string // empty means all types
}

// belowMin reports whether a score falls under the optional minimum.
func belowMin(opts SearchOptions, score float64) bool {
	return opts.MinScore != nil && score < *opts.MinScore
}

// SearchResult is one similarity hit. Score is cosine similarity in
// [-1, 1]; higher is more similar.
type SearchResult struct {
	EntityKey string  `json:"entity_key"`
	Score     float64 `json:"score"`
}

// Index stores embeddings per project and searches them. Results are fully
// deterministic for a given index state: descending score, ties broken by
// ascending entity key, never more than K results.
type Index interface {
	Upsert(ctx context.Context, prefix string, records []Record) error
	Search(ctx context.Context, prefix string, query []float32, opts SearchOptions) ([]SearchResult, error)
	DeleteProject(ctx context.Context, prefix string) error
	Close() error
}

// entityTypeOf extracts the entity type from a canonical entity key,
// "code:proj:method:file.py:C.m" giving "method". Returns "" for keys that
// don't follow the scheme.
func entityTypeOf(prefix, entityKey string) string {
	tail := strings.TrimPrefix(entityKey, prefix+":")
	if i := strings.IndexByte(tail, ':'); i > 0 {
		return tail[:i]
	}
	return ""
}

// matchesType reports whether a key passes the entity-type filter.
func matchesType(prefix, entityKey string, types []string) bool {
	if len(types) == 0 {
		return true
	}
	t := entityTypeOf(prefix, entityKey)
	for _, want := range types {
		if t == want {
			return true
		}
	}
	return false
}
