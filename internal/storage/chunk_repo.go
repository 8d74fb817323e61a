package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_chunk_store.go -package=mocks careerpath-ai/internal/storage ChunkStore

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"
)

// ErrNotFound is returned when a requested chunk does not exist.
var ErrNotFound = errors.New("not found")

// ChunkStore defines the interface for chunk storage operations.
type ChunkStore interface {
	// Insert inserts a single chunk into the database.
	// The chunk.ID must be set (UUID) before calling this method.
	Insert(ctx context.Context, chunk *ChunkRecord) error
	// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*ChunkRecord, error)
	// KeywordSearch runs a full-text query and returns up to limit hits with
	// normalized scores, best first. An empty result is not an error.
	KeywordSearch(ctx context.Context, query string, limit int) ([]KeywordHit, error)
}

// ChunkRepo provides methods for chunk operations.
// It implements the ChunkStore interface.
type ChunkRepo struct {
	db *sql.DB
}

// NewChunkRepo creates a new ChunkRepo.
func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Insert inserts a single chunk into the database.
// The chunk.ID must be set (UUID) before calling this method.
func (r *ChunkRepo) Insert(ctx context.Context, chunk *ChunkRecord) error {
	tags, err := json.Marshal(chunk.Tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		"INSERT INTO chunks (id, text, category, tags, source_type, source_id, embedding) VALUES (?, ?, ?, ?, ?, ?, ?)",
		chunk.ID, chunk.Text, chunk.Category, string(tags), chunk.SourceType, chunk.SourceID, encodeEmbedding(chunk.Embedding),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}
	return nil
}

// GetByID gets a chunk by its ID. Returns ErrNotFound if not found.
func (r *ChunkRepo) GetByID(ctx context.Context, id string) (*ChunkRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, text, category, tags, source_type, source_id, embedding FROM chunks WHERE id = ?",
		id,
	)

	chunk, err := scanChunk(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk: %w", err)
	}

	return chunk, nil
}

// KeywordSearch runs an FTS5 match over chunk text and returns up to limit
// hits ordered by relevance. The bm25 rank (lower is better) is normalized
// into [0, 1] so it can be blended with vector similarity scores.
func (r *ChunkRepo) KeywordSearch(ctx context.Context, query string, limit int) ([]KeywordHit, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be greater than 0")
	}

	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.text, c.category, c.tags, c.source_type, c.source_id, c.embedding, bm25(chunks_fts) AS rank
		 FROM chunks_fts
		 JOIN chunks c ON c.rowid = chunks_fts.rowid
		 WHERE chunks_fts MATCH ?
		 ORDER BY rank
		 LIMIT ?`,
		match, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to run keyword search: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var hits []KeywordHit
	for rows.Next() {
		var (
			chunk ChunkRecord
			tags  string
			blob  []byte
			rank  float64
		)
		if err := rows.Scan(&chunk.ID, &chunk.Text, &chunk.Category, &tags, &chunk.SourceType, &chunk.SourceID, &blob, &rank); err != nil {
			return nil, fmt.Errorf("failed to scan keyword hit: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &chunk.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
		chunk.Embedding = decodeEmbedding(blob)

		hits = append(hits, KeywordHit{
			Chunk: chunk,
			Score: normalizeRank(rank),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return hits, nil
}

// scanChunk scans a chunk row shared between GetByID and search queries.
func scanChunk(scan func(dest ...any) error) (*ChunkRecord, error) {
	var (
		chunk ChunkRecord
		tags  string
		blob  []byte
	)
	if err := scan(&chunk.ID, &chunk.Text, &chunk.Category, &tags, &chunk.SourceType, &chunk.SourceID, &blob); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(tags), &chunk.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	chunk.Embedding = decodeEmbedding(blob)
	return &chunk, nil
}

// ftsQuery sanitizes free text into an FTS5 OR-query.
// FTS5 treats many characters as syntax, so only alphanumeric terms survive.
func ftsQuery(query string) string {
	var builder strings.Builder
	builder.Grow(len(query))
	for _, r := range strings.ToLower(query) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	terms := strings.Fields(builder.String())
	if len(terms) == 0 {
		return ""
	}
	return strings.Join(terms, " OR ")
}

// normalizeRank maps an FTS5 bm25 rank (lower is better, typically negative)
// to a score in [0, 1], monotone in match quality.
func normalizeRank(rank float64) float64 {
	goodness := -rank
	if goodness <= 0 {
		return 0
	}
	return goodness / (goodness + 1)
}

// encodeEmbedding serializes a vector as little-endian float32 bytes.
func encodeEmbedding(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	buf := new(bytes.Buffer)
	buf.Grow(len(vec) * 4)
	for _, v := range vec {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
		buf.Write(b[:])
	}
	return buf.Bytes()
}

// decodeEmbedding deserializes little-endian float32 bytes into a vector.
func decodeEmbedding(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	vec := make([]float32, 0, len(blob)/4)
	for i := 0; i+4 <= len(blob); i += 4 {
		vec = append(vec, math.Float32frombits(binary.LittleEndian.Uint32(blob[i:i+4])))
	}
	return vec
}
