package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"cortex/internal/entity"
	"cortex/internal/extract"
)

// SourceFile is one enumerated source file. Path is used to read the bytes,
// RelPath (slash-separated, relative to the project root) goes into keys.
type SourceFile struct {
	Path    string
	RelPath string
}

// indexFiles extracts and writes every file, at most w.workers at a time.
// Per-file failures are tallied rather than aborting; only context
// cancellation or store unavailability stops the run.
func (w *Writer) indexFiles(ctx context.Context, prefix string, files []SourceFile) (*WriteSummary, error) {
	var filesIndexed, filesFailed, written, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for _, f := range files {
		f := f
		g.Go(func() error {
			ok, fw, ff, err := w.indexFile(gctx, prefix, f)
			if err != nil {
				return err
			}
			if ok {
				filesIndexed.Add(1)
			} else {
				filesFailed.Add(1)
			}
			written.Add(fw)
			failed.Add(ff)
			return nil
		})
	}
	err := g.Wait()

	summary := &WriteSummary{
		FilesIndexed:    int(filesIndexed.Load()),
		FilesFailed:     int(filesFailed.Load()),
		EntitiesWritten: int(written.Load()),
		EntitiesFailed:  int(failed.Load()),
	}
	return summary, err
}

// indexFile handles one file end to end. The write order matters: entity
// records land first, then the per-file entity set, and the file joins the
// file index only after its entities are visible. Readers that walk
// file_index never see a file without its entities.
func (w *Writer) indexFile(ctx context.Context, prefix string, f SourceFile) (ok bool, written, failed int64, err error) {
	if err := ctx.Err(); err != nil {
		return false, 0, 0, err
	}
	src, err := os.ReadFile(f.Path)
	if err != nil {
		w.logger.Warn("unreadable file, skipping", "file", f.RelPath, "error", err)
		return false, 0, 0, nil
	}

	records, err := w.extractor.Extract(ctx, src, f.RelPath)
	if err != nil {
		var pf *extract.ParseFailure
		if errors.As(err, &pf) {
			w.logger.Warn("parse failure, skipping file", "file", f.RelPath, "reason", pf.Reason)
			return false, 0, 0, nil
		}
		return false, 0, 0, err
	}

	if err := w.clearFileEntities(ctx, prefix, f.RelPath); err != nil {
		return false, 0, 0, fmt.Errorf("clear stale entities of %s: %w", f.RelPath, err)
	}

	keys := make([]string, 0, len(records))
	for _, rec := range records {
		key := rec.Key(prefix)
		payload, err := json.Marshal(rec)
		if err != nil {
			w.logger.Warn("unencodable entity, skipping", "key", key, "error", err)
			failed++
			continue
		}
		if err := w.store.Set(ctx, key, string(payload)); err != nil {
			if ctx.Err() != nil {
				return false, written, failed, ctx.Err()
			}
			w.logger.Warn("entity write failed", "key", key, "error", err)
			failed++
			continue
		}
		keys = append(keys, key)
		written++
	}

	if len(keys) > 0 {
		if err := w.store.SAdd(ctx, entity.FileEntitiesKey(prefix, f.RelPath), keys...); err != nil {
			return false, written, failed, fmt.Errorf("record entities of %s: %w", f.RelPath, err)
		}
	}
	if err := w.store.SAdd(ctx, entity.FileIndexKey(prefix), f.RelPath); err != nil {
		return false, written, failed, fmt.Errorf("record file %s: %w", f.RelPath, err)
	}
	return true, written, failed, nil
}

// clearFileEntities deletes the file's previously indexed entity records and
// their embedding records, using the per-file entity set as the manifest.
func (w *Writer) clearFileEntities(ctx context.Context, prefix, relPath string) error {
	setKey := entity.FileEntitiesKey(prefix, relPath)
	old, err := w.store.SMembers(ctx, setKey)
	if err != nil {
		return err
	}
	if len(old) == 0 {
		return nil
	}
	stale := make([]string, 0, 2*len(old)+1)
	for _, k := range old {
		stale = append(stale, k, entity.EmbeddingKey(prefix, k))
	}
	stale = append(stale, setKey)
	return w.store.Del(ctx, stale...)
}
