package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cortex/internal/embedder"
	"cortex/internal/entity"
	"cortex/internal/store"
)

// DefaultBatchSize is how many entity texts go to the provider per request.
const DefaultBatchSize = 32

// Summary reports a vectorization run. A failed batch marks all its
// entities failed but never aborts the run.
type Summary struct {
	Indexed       int `json:"indexed"`
	Failed        int `json:"failed"`
	FailedBatches int `json:"failed_batches"`
}

// Vectorizer embeds every indexed entity of a project and upserts the
// vectors into an Index.
type Vectorizer struct {
	store     store.Client
	embedder  embedder.Embedder
	index     Index
	batchSize int
	logger    *slog.Logger
}

// NewVectorizer wires a vectorization pipeline.
func NewVectorizer(st store.Client, emb embedder.Embedder, idx Index, batchSize int, logger *slog.Logger) *Vectorizer {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Vectorizer{store: st, embedder: emb, index: idx, batchSize: batchSize, logger: logger}
}

// Vectorize loads all entities under the prefix in key order, embeds them in
// batches, and upserts the resulting vectors. A batch the provider rejects as
// invalid input is retried one entity at a time; entities of any other failed
// batch are counted and skipped, and the run continues with the next batch.
func (v *Vectorizer) Vectorize(ctx context.Context, prefix string) (*Summary, error) {
	records, keys, err := v.loadEntities(ctx, prefix)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	for start := 0; start < len(records); start += v.batchSize {
		end := start + v.batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[start:end]
		batchKeys := keys[start:end]

		if err := ctx.Err(); err != nil {
			return summary, err
		}

		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.EmbedText()
		}
		vectors, err := v.embedder.Embed(ctx, texts)
		if err != nil {
			if errors.Is(err, embedder.ErrInvalidInput) {
				// One bad text poisons the whole request. Retry each
				// entity alone so only the offenders are lost.
				if err := v.embedSingly(ctx, prefix, texts, batchKeys, summary); err != nil {
					return summary, err
				}
				continue
			}
			v.logger.Warn("embedding batch failed",
				"from", batchKeys[0], "size", len(batch), "error", err)
			summary.Failed += len(batch)
			summary.FailedBatches++
			continue
		}

		if err := v.upsert(ctx, prefix, batchKeys, vectors); err != nil {
			return summary, err
		}
		summary.Indexed += len(batch)
	}
	return summary, nil
}

// embedSingly re-embeds a rejected batch one text at a time, upserting the
// texts the provider accepts and counting the rest failed.
func (v *Vectorizer) embedSingly(ctx context.Context, prefix string, texts, keys []string, summary *Summary) error {
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return err
		}
		vectors, err := v.embedder.Embed(ctx, []string{text})
		if err != nil {
			v.logger.Warn("embedding entity failed", "key", keys[i], "error", err)
			summary.Failed++
			continue
		}
		if err := v.upsert(ctx, prefix, keys[i:i+1], vectors); err != nil {
			return err
		}
		summary.Indexed++
	}
	return nil
}

func (v *Vectorizer) upsert(ctx context.Context, prefix string, keys []string, vectors [][]float32) error {
	upserts := make([]Record, len(keys))
	for i := range keys {
		upserts[i] = Record{
			EntityKey: keys[i],
			Vector:    vectors[i],
			Provider:  v.embedder.Provider(),
			Model:     v.embedder.Model(),
			Dimension: len(vectors[i]),
		}
	}
	if err := v.index.Upsert(ctx, prefix, upserts); err != nil {
		return fmt.Errorf("upsert batch: %w", err)
	}
	return nil
}

// loadEntities returns all entity records under the prefix together with
// their keys, in deterministic key order across all types.
func (v *Vectorizer) loadEntities(ctx context.Context, prefix string) ([]entity.Record, []string, error) {
	var records []entity.Record
	var keys []string
	for _, t := range entity.Types {
		typeKeys, err := v.store.Scan(ctx, entity.TypePrefix(prefix, t))
		if err != nil {
			return nil, nil, err
		}
		for _, key := range typeKeys {
			raw, ok, err := v.store.Get(ctx, key)
			if err != nil {
				return nil, nil, err
			}
			if !ok {
				continue
			}
			var rec entity.Record
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				v.logger.Warn("undecodable entity record, skipping", "key", key, "error", err)
				continue
			}
			records = append(records, rec)
			keys = append(keys, key)
		}
	}
	return records, keys, nil
}

// Hit is a search result hydrated with its entity record. Entity is nil if
// the record has been deleted since vectorization.
type Hit struct {
	SearchResult
	Entity *entity.Record `json:"entity,omitempty"`
}

// SearchText embeds the query text and runs a similarity search, hydrating
// each hit with its entity record from the store.
func (v *Vectorizer) SearchText(ctx context.Context, prefix, query string, opts SearchOptions) ([]Hit, error) {
	vectors, err := v.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	results, err := v.index.Search(ctx, prefix, vectors[0], opts)
	if err != nil {
		return nil, err
	}

	hits := make([]Hit, 0, len(results))
	for _, res := range results {
		hit := Hit{SearchResult: res}
		raw, ok, err := v.store.Get(ctx, res.EntityKey)
		if err != nil {
			return nil, err
		}
		if ok {
			var rec entity.Record
			if err := json.Unmarshal([]byte(raw), &rec); err == nil {
				hit.Entity = &rec
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
