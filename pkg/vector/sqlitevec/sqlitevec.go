// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the number of dimensions for the embedding vectors.
	Dimensions uint
}

// NewDriver creates a new SQLite vector driver backed by sqlite-vec.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connection to have sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if c.Dimensions == 0 {
		return nil, fmt.Errorf("sqlite-vec embedding dimensions cannot be 0, must be configured")
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Verify sqlite-vec is loaded
	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite-vec not available: %w", err)
	}

	// Chunk text and metadata live in a plain table keyed by rowid.
	// vec0 virtual tables use integer rowids, so the string chunk IDs
	// need a mapping anyway.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_documents (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL DEFAULT '',
			state TEXT NOT NULL DEFAULT '',
			title TEXT NOT NULL DEFAULT '',
			source_file TEXT NOT NULL DEFAULT '',
			page INTEGER NOT NULL DEFAULT 0,
			chunk_index INTEGER NOT NULL DEFAULT 0,
			has_time_keywords INTEGER NOT NULL DEFAULT 0,
			matched_keywords TEXT NOT NULL DEFAULT '',
			char_count INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating documents table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS vec_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating meta table: %w", err)
	}

	// Create the vec0 virtual table for vector storage and KNN queries.
	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_embeddings USING vec0(embedding float[%d])`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:     db,
		logger: logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to a little-endian byte slice
// suitable for sqlite-vec BLOB format.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// Add upserts documents with their embeddings.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		embBlob := serializeFloat32(doc.Embedding)
		m := doc.Metadata
		keywords := strings.Join(m.MatchedKeywords, ",")

		// Check if document already exists
		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM vec_documents WHERE doc_id = ?`, doc.ID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx, `
				UPDATE vec_documents
				SET text = ?, state = ?, title = ?, source_file = ?, page = ?,
					chunk_index = ?, has_time_keywords = ?, matched_keywords = ?, char_count = ?
				WHERE rowid = ?`,
				doc.Text, m.State, m.Title, m.SourceFile, m.Page,
				m.ChunkIndex, m.HasTimeKeywords, keywords, m.CharCount,
				existingRowID,
			); err != nil {
				return fmt.Errorf("updating document %s: %w", doc.ID, err)
			}

			// Update embedding in vec0 table via DELETE + INSERT
			// (vec0 does not support UPDATE)
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM vec_embeddings WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for doc %s: %w", doc.ID, err)
			}
		case sql.ErrNoRows:
			// New document — insert into mapping table first to get the rowid
			result, err := tx.ExecContext(ctx, `
				INSERT INTO vec_documents(doc_id, text, state, title, source_file, page,
					chunk_index, has_time_keywords, matched_keywords, char_count)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				doc.ID, doc.Text, m.State, m.Title, m.SourceFile, m.Page,
				m.ChunkIndex, m.HasTimeKeywords, keywords, m.CharCount,
			)
			if err != nil {
				return fmt.Errorf("inserting document %s: %w", doc.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO vec_embeddings(rowid, embedding) VALUES (?, ?)`,
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec",
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding,
// honoring the filter. The KNN runs before the metadata filter, so it
// over-fetches and trims afterwards.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	queryBlob := serializeFloat32(embedding)

	conditions := []string{"1=1"}
	args := []any{queryBlob, topK * 10}

	if filter.State != "" {
		conditions = append(conditions, "d.state = ?")
		args = append(args, filter.State)
	}
	if filter.TimeTagged != nil {
		conditions = append(conditions, "d.has_time_keywords = ?")
		args = append(args, *filter.TimeTagged)
	}
	args = append(args, topK)

	query := fmt.Sprintf(`
		SELECT
			d.doc_id,
			d.text,
			d.state,
			d.title,
			d.source_file,
			d.page,
			d.chunk_index,
			d.has_time_keywords,
			d.matched_keywords,
			d.char_count,
			ve.distance
		FROM vec_embeddings ve
		INNER JOIN vec_documents d ON d.rowid = ve.rowid
		WHERE ve.embedding MATCH ?
			AND ve.k = ?
			AND %s
		ORDER BY ve.distance
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var (
			r        vector.QueryResult
			keywords string
			distance float64
		)
		if err := rows.Scan(
			&r.ID, &r.Text,
			&r.Metadata.State, &r.Metadata.Title, &r.Metadata.SourceFile,
			&r.Metadata.Page, &r.Metadata.ChunkIndex, &r.Metadata.HasTimeKeywords,
			&keywords, &r.Metadata.CharCount,
			&distance,
		); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		if keywords != "" {
			r.Metadata.MatchedKeywords = strings.Split(keywords, ",")
		}

		r.Distance = float32(distance)
		// Convert distance to similarity score: lower distance = higher similarity
		r.Score = float32(1.0 / (1.0 + distance))

		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.Int("results", len(results)),
		zap.String("state", filter.State),
	)

	return results, nil
}

// Count returns the total number of stored documents.
func (d *Driver) Count(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM vec_documents`,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return count, nil
}

// StateCounts returns the number of stored documents per state code.
func (d *Driver) StateCounts(ctx context.Context) (map[string]int, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT state, COUNT(*) FROM vec_documents GROUP BY state`,
	)
	if err != nil {
		return nil, fmt.Errorf("counting documents by state: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("scanning state count: %w", err)
		}
		if state != "" {
			counts[state] = count
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state counts: %w", err)
	}

	return counts, nil
}

// SetEmbeddingModel records the embedding model used at ingestion.
func (d *Driver) SetEmbeddingModel(ctx context.Context, model string) error {
	if _, err := d.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO vec_meta(key, value) VALUES ('embedding_model', ?)`,
		model,
	); err != nil {
		return fmt.Errorf("recording embedding model: %w", err)
	}
	return nil
}

// EmbeddingModel returns the recorded embedding model, or empty when no
// ingestion has recorded one.
func (d *Driver) EmbeddingModel(ctx context.Context) (string, error) {
	var model string
	err := d.db.QueryRowContext(ctx,
		`SELECT value FROM vec_meta WHERE key = 'embedding_model'`,
	).Scan(&model)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading embedding model: %w", err)
	}
	return model, nil
}

// Reset drops all stored documents and the recorded model.
func (d *Driver) Reset(ctx context.Context) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		`DELETE FROM vec_embeddings`,
		`DELETE FROM vec_documents`,
		`DELETE FROM vec_meta`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("resetting store: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Info("reset sqlite-vec store")

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

// Ensure Driver implements vector.Driver
var _ vector.Driver = (*Driver)(nil)
