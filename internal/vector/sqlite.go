package vector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// SQLiteIndex backs Index with SQLite + sqlite-vec, for projects big enough
// that a linear KV scan hurts. The vec0 table is created with a fixed
// dimension, so one database serves one embedding model.
type SQLiteIndex struct {
	db        *sql.DB
	dimension int
}

// OpenSQLite opens (or creates) the index database at path with the given
// embedding dimension.
func OpenSQLite(path string, dimension int) (*SQLiteIndex, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dimension)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS embeddings (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    project     TEXT NOT NULL,
    entity_key  TEXT NOT NULL UNIQUE,
    entity_type TEXT NOT NULL DEFAULT '',
    provider    TEXT NOT NULL DEFAULT '',
    model       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_embeddings_project ON embeddings(project);

CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(
    embedding_id INTEGER PRIMARY KEY,
    embedding float[%d] distance_metric=cosine
);
`, dimension)
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteIndex{db: db, dimension: dimension}, nil
}

func (x *SQLiteIndex) Upsert(ctx context.Context, prefix string, records []Record) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		if len(rec.Vector) != x.dimension {
			return fmt.Errorf("embedding for %s has dimension %d, index expects %d",
				rec.EntityKey, len(rec.Vector), x.dimension)
		}

		var existingID int64
		err := tx.QueryRowContext(ctx,
			"SELECT id FROM embeddings WHERE entity_key = ?", rec.EntityKey).Scan(&existingID)
		if err == nil {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM vec_embeddings WHERE embedding_id = ?", existingID); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM embeddings WHERE id = ?", existingID); err != nil {
				return err
			}
		} else if err != sql.ErrNoRows {
			return err
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO embeddings (project, entity_key, entity_type, provider, model) VALUES (?, ?, ?, ?, ?)",
			prefix, rec.EntityKey, entityTypeOf(prefix, rec.EntityKey), rec.Provider, rec.Model,
		)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		blob, err := sqlite_vec.SerializeFloat32(rec.Vector)
		if err != nil {
			return fmt.Errorf("serialize embedding for %s: %w", rec.EntityKey, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO vec_embeddings (embedding_id, embedding) VALUES (?, ?)", id, blob); err != nil {
			return fmt.Errorf("insert embedding for %s: %w", rec.EntityKey, err)
		}
	}
	return tx.Commit()
}

func (x *SQLiteIndex) Search(ctx context.Context, prefix string, query []float32, opts SearchOptions) ([]SearchResult, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("query has dimension %d, index expects %d", len(query), x.dimension)
	}
	k := opts.TopK
	if k <= 0 {
		k = DefaultTopK
	}
	blob, err := sqlite_vec.SerializeFloat32(query)
	if err != nil {
		return nil, fmt.Errorf("serialize query embedding: %w", err)
	}

	// vec0 KNN can't pre-filter on the joined table, so overfetch and
	// filter in Go. Project and type filters usually pass most rows, so a
	// modest factor covers them.
	fetch := k * 8
	if fetch < 64 {
		fetch = 64
	}
	rows, err := x.db.QueryContext(ctx, `
		SELECT e.entity_key, v.distance
		FROM vec_embeddings v
		JOIN embeddings e ON e.id = v.embedding_id
		WHERE v.embedding MATCH ?
		ORDER BY v.distance
		LIMIT ?
	`, blob, fetch)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var entityKey string
		var distance float64
		if err := rows.Scan(&entityKey, &distance); err != nil {
			return nil, err
		}
		if !hasProjectPrefix(prefix, entityKey) {
			continue
		}
		if !matchesType(prefix, entityKey, opts.EntityTypes) {
			continue
		}
		score := 1 - distance
		if belowMin(opts, score) {
			continue
		}
		results = append(results, SearchResult{EntityKey: entityKey, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
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

func (x *SQLiteIndex) DeleteProject(ctx context.Context, prefix string) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM vec_embeddings WHERE embedding_id IN
		(SELECT id FROM embeddings WHERE project = ?)
	`, prefix); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM embeddings WHERE project = ?", prefix); err != nil {
		return err
	}
	return tx.Commit()
}

func (x *SQLiteIndex) Close() error { return x.db.Close() }

// PurgeSQLiteProject removes a project's embeddings from the database at
// path. Unlike OpenSQLite it needs no embedding dimension, so it can run
// without a reachable provider. A missing database or schema counts as
// nothing to purge.
func PurgeSQLiteProject(ctx context.Context, path, prefix string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	x := &SQLiteIndex{db: db}
	if err := x.DeleteProject(ctx, prefix); err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil
		}
		return err
	}
	return nil
}

func hasProjectPrefix(prefix, entityKey string) bool {
	return len(entityKey) > len(prefix) &&
		entityKey[:len(prefix)] == prefix && entityKey[len(prefix)] == ':'
}
