package vector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"

	"github.com/viterin/vek/vek32"

	"cortex/internal/entity"
	"cortex/internal/store"
)

// KVIndex keeps embedding records in the same key-value store as the
// entities, under the project's embedding prefix. Search is a linear scan
// with SIMD cosine, which is fine at code-repository scale.
type KVIndex struct {
	store  store.Client
	logger *slog.Logger
}

// NewKVIndex creates an index over the given store.
func NewKVIndex(st store.Client, logger *slog.Logger) *KVIndex {
	if logger == nil {
		logger = slog.Default()
	}
	return &KVIndex{store: st, logger: logger}
}

func (x *KVIndex) Upsert(ctx context.Context, prefix string, records []Record) error {
	for _, rec := range records {
		if len(rec.Vector) == 0 {
			return fmt.Errorf("empty vector for %s", rec.EntityKey)
		}
		rec.Dimension = len(rec.Vector)
		payload, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal embedding for %s: %w", rec.EntityKey, err)
		}
		key := entity.EmbeddingKey(prefix, rec.EntityKey)
		if err := x.store.Set(ctx, key, string(payload)); err != nil {
			return fmt.Errorf("store embedding for %s: %w", rec.EntityKey, err)
		}
	}
	return nil
}

func (x *KVIndex) Search(ctx context.Context, prefix string, query []float32, opts SearchOptions) ([]SearchResult, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("empty query vector")
	}
	k := opts.TopK
	if k <= 0 {
		k = DefaultTopK
	}

	keys, err := x.store.Scan(ctx, entity.EmbeddingPrefix(prefix))
	if err != nil {
		return nil, err
	}

	var results []SearchResult
	for _, key := range keys {
		raw, ok, err := x.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			x.logger.Warn("undecodable embedding record", "key", key, "error", err)
			continue
		}
		if !matchesType(prefix, rec.EntityKey, opts.EntityTypes) {
			continue
		}
		// Records embedded under a different model may have a different
		// dimension; they can't be compared against this query.
		if len(rec.Vector) != len(query) {
			x.logger.Warn("dimension mismatch, skipping",
				"key", key, "have", len(rec.Vector), "want", len(query))
			continue
		}
		score := cosine(query, rec.Vector)
		if math.IsNaN(score) || belowMin(opts, score) {
			continue
		}
		results = append(results, SearchResult{EntityKey: rec.EntityKey, Score: score})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EntityKey < results[j].EntityKey
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

func (x *KVIndex) DeleteProject(ctx context.Context, prefix string) error {
	keys, err := x.store.Scan(ctx, entity.EmbeddingPrefix(prefix))
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return x.store.Del(ctx, keys...)
}

// Close is a no-op: the store handle is owned by the caller.
func (x *KVIndex) Close() error { return nil }

func cosine(a, b []float32) float64 {
	dot := float64(vek32.Dot(a, b))
	na := math.Sqrt(float64(vek32.Dot(a, a)))
	nb := math.Sqrt(float64(vek32.Dot(b, b)))
	if na == 0 || nb == 0 {
		return math.NaN()
	}
	return dot / (na * nb)
}
