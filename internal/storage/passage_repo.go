package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"

	"portfolio-rag/internal/corpus"
)

// PassageRepo persists indexed passages with their embeddings.
// It is the durable copy the query server loads into memory at startup.
type PassageRepo struct {
	db *sql.DB
}

// NewPassageRepo creates a new PassageRepo.
func NewPassageRepo(db *sql.DB) *PassageRepo {
	return &PassageRepo{db: db}
}

const insertPassageSQL = `INSERT INTO passages (id, file, chunk_index, text, metadata, embedding, source_hash, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)`

// ReplaceFile swaps every passage of file for passages atomically. hash
// identifies the source content so unchanged files can be skipped later.
func (r *PassageRepo) ReplaceFile(ctx context.Context, file, hash string, passages []corpus.Passage) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM passages WHERE file = ?", file); err != nil {
			return fmt.Errorf("failed to delete passages by file: %w", err)
		}
		return insertPassages(ctx, tx, hash, passages)
	})
}

// DeleteByFile removes every passage cut from file.
func (r *PassageRepo) DeleteByFile(ctx context.Context, file string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM passages WHERE file = ?", file)
	if err != nil {
		return fmt.Errorf("failed to delete passages by file: %w", err)
	}
	return nil
}

// Count returns the number of stored passages.
func (r *PassageRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM passages").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count passages: %w", err)
	}
	return n, nil
}

// FileHashes returns the source hash of every file that has passages.
func (r *PassageRepo) FileHashes(ctx context.Context) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT file, MAX(source_hash) FROM passages GROUP BY file")
	if err != nil {
		return nil, fmt.Errorf("failed to query passage files: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	hashes := make(map[string]string)
	for rows.Next() {
		var file, hash string
		if err := rows.Scan(&file, &hash); err != nil {
			return nil, fmt.Errorf("failed to scan passage file: %w", err)
		}
		hashes[file] = hash
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating passage files: %w", err)
	}
	return hashes, nil
}

// ListAll returns every passage ordered by file then chunk index.
func (r *PassageRepo) ListAll(ctx context.Context) ([]corpus.Passage, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, text, metadata, embedding FROM passages ORDER BY file, chunk_index",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query passages: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	passages := []corpus.Passage{}
	for rows.Next() {
		var (
			p        corpus.Passage
			metadata string
			blob     []byte
		)
		if err := rows.Scan(&p.ID, &p.Text, &metadata, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan passage: %w", err)
		}
		if err := json.Unmarshal([]byte(metadata), &p.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for passage %s: %w", p.ID, err)
		}
		p.Embedding, err = decodeEmbedding(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding for passage %s: %w", p.ID, err)
		}
		passages = append(passages, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating passages: %w", err)
	}
	return passages, nil
}

func (r *PassageRepo) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertPassages(ctx context.Context, tx *sql.Tx, hash string, passages []corpus.Passage) error {
	if len(passages) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, insertPassageSQL)
	if err != nil {
		return fmt.Errorf("failed to prepare passage insert: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, p := range passages {
		metadata, err := json.Marshal(p.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata for passage %s: %w", p.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			p.ID, p.Metadata.File, p.Metadata.ChunkIndex, p.Text, string(metadata), encodeEmbedding(p.Embedding), hash,
		); err != nil {
			return fmt.Errorf("failed to insert passage %s: %w", p.ID, err)
		}
	}
	return nil
}

// encodeEmbedding packs v as little-endian float32s.
func encodeEmbedding(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b) == 0 {
		return nil, nil
	}
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
