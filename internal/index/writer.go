// Package index persists extracted entities under the canonical key scheme
// and answers the classic (non-vector) recall and status queries.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cortex/internal/entity"
	"cortex/internal/extract"
	"cortex/internal/store"
)

// Version is recorded in project metadata.
const Version = "1.0.0"

// WriteSummary reports what an indexing run accomplished. Partial completion
// is normal: a run is only "clean" when both failure counts are zero.
type WriteSummary struct {
	FilesIndexed    int `json:"files_indexed"`
	FilesFailed     int `json:"files_failed"`
	EntitiesWritten int `json:"entities_written"`
	EntitiesFailed  int `json:"entities_failed"`
}

// Clean reports whether the run completed without any failure.
func (s WriteSummary) Clean() bool {
	return s.FilesFailed == 0 && s.EntitiesFailed == 0
}

// Metadata is the per-project record stored under the metadata key.
type Metadata struct {
	Name          string `json:"name"`
	Path          string `json:"path"`
	LastIndexedAt string `json:"last_indexed_at"`
	TotalFiles    int    `json:"total_files"`
	TotalEntities int    `json:"total_entities"`
	Version       string `json:"version"`
}

// Status is the answer to a status query.
type Status struct {
	Indexed     bool           `json:"indexed"`
	FileCount   int            `json:"file_count"`
	EntityCount int            `json:"entity_count"`
	ByType      map[string]int `json:"by_type"`
	Metadata    *Metadata      `json:"metadata,omitempty"`
}

// Writer orchestrates extraction output into store writes. The store handle
// is shared and goroutine-safe; Writer itself keeps no mutable state.
type Writer struct {
	store     store.Client
	extractor *extract.Extractor
	logger    *slog.Logger
	workers   int
}

// NewWriter creates a Writer processing up to workers files concurrently.
func NewWriter(st store.Client, ex *extract.Extractor, workers int, logger *slog.Logger) *Writer {
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{store: st, extractor: ex, logger: logger, workers: workers}
}

// Remember fully indexes a project: any existing data under the prefix is
// cleared first, then every enumerated file is extracted and written.
func (w *Writer) Remember(ctx context.Context, prefix, root string, files []SourceFile) (*WriteSummary, error) {
	if err := w.store.Ping(ctx); err != nil {
		return nil, err
	}
	if _, err := w.clearPrefix(ctx, prefix); err != nil {
		return nil, fmt.Errorf("clear existing index: %w", err)
	}
	summary, err := w.indexFiles(ctx, prefix, files)
	if err != nil {
		return summary, err
	}
	if err := w.writeMetadata(ctx, prefix, root, summary); err != nil {
		return summary, fmt.Errorf("write metadata: %w", err)
	}
	return summary, nil
}

// Refresh re-extracts only the listed files and re-upserts their entities.
// Entities of files not listed are left untouched. Each refreshed file's
// stale entities (and their embeddings) are removed before the new write, so
// renamed or deleted definitions don't linger.
func (w *Writer) Refresh(ctx context.Context, prefix, root string, files []SourceFile) (*WriteSummary, error) {
	if err := w.store.Ping(ctx); err != nil {
		return nil, err
	}
	summary, err := w.indexFiles(ctx, prefix, files)
	if err != nil {
		return summary, err
	}
	if err := w.writeMetadata(ctx, prefix, root, summary); err != nil {
		return summary, fmt.Errorf("write metadata: %w", err)
	}
	return summary, nil
}

// Forget removes every key under the project prefix (entities, file sets,
// metadata, and embedding records alike) and reports how many keys were
// removed. Other projects' prefixes are never touched.
func (w *Writer) Forget(ctx context.Context, prefix string) (int, error) {
	if err := w.store.Ping(ctx); err != nil {
		return 0, err
	}
	return w.clearPrefix(ctx, prefix)
}

func (w *Writer) clearPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := w.store.Scan(ctx, prefix+":")
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := w.store.Del(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Status reports file and entity counts plus stored metadata.
func (w *Writer) Status(ctx context.Context, prefix string) (*Status, error) {
	st := &Status{ByType: make(map[string]int)}

	files, err := w.store.SMembers(ctx, entity.FileIndexKey(prefix))
	if err != nil {
		return nil, err
	}
	st.FileCount = len(files)

	for _, t := range entity.Types {
		keys, err := w.store.Scan(ctx, entity.TypePrefix(prefix, t))
		if err != nil {
			return nil, err
		}
		st.ByType[t] = len(keys)
		st.EntityCount += len(keys)
	}

	raw, ok, err := w.store.Get(ctx, entity.MetadataKey(prefix))
	if err != nil {
		return nil, err
	}
	if ok {
		var meta Metadata
		if err := json.Unmarshal([]byte(raw), &meta); err == nil {
			st.Metadata = &meta
			st.Indexed = true
		}
	}
	return st, nil
}

// Recall returns entities of one type, optionally filtered by name. Results
// come back in key order, which is deterministic for a given index state.
func (w *Writer) Recall(ctx context.Context, prefix, entityType, name string) ([]entity.Record, error) {
	keys, err := w.store.Scan(ctx, entity.TypePrefix(prefix, entityType))
	if err != nil {
		return nil, err
	}
	var results []entity.Record
	for _, key := range keys {
		raw, ok, err := w.store.Get(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		var rec entity.Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			w.logger.Warn("undecodable entity record", "key", key, "error", err)
			continue
		}
		if name != "" && rec.Name != name {
			continue
		}
		results = append(results, rec)
	}
	return results, nil
}

func (w *Writer) writeMetadata(ctx context.Context, prefix, root string, summary *WriteSummary) error {
	name := strings.TrimPrefix(prefix, "code:")
	meta := Metadata{
		Name:          name,
		Path:          root,
		LastIndexedAt: time.Now().UTC().Format(time.RFC3339),
		TotalFiles:    summary.FilesIndexed,
		TotalEntities: summary.EntitiesWritten,
		Version:       Version,
	}
	// Refresh keeps the running totals from a previous full index.
	if raw, ok, err := w.store.Get(ctx, entity.MetadataKey(prefix)); err == nil && ok {
		var prev Metadata
		if json.Unmarshal([]byte(raw), &prev) == nil && prev.TotalFiles > meta.TotalFiles {
			meta.TotalFiles = prev.TotalFiles
			meta.TotalEntities = prev.TotalEntities
		}
	}
	payload, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return w.store.Set(ctx, entity.MetadataKey(prefix), string(payload))
}
