// Package sqlite provides a SQLite-backed vector index. Embeddings are
// stored as little-endian float32 blobs and scored with brute-force
// cosine similarity, which is adequate for support corpora of up to a
// few hundred thousand chunks.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/opentier/supportbot/internal/adapters/driven/vector/sqlite/migrations"
	"github.com/opentier/supportbot/internal/core/domain"
	"github.com/opentier/supportbot/internal/core/ports/driven"
)

// Index is a SQLite-backed vector index.
type Index struct {
	db         *sql.DB
	path       string
	dimensions int
}

var _ driven.VectorIndex = (*Index)(nil)

// NewIndex opens (or creates) a SQLite vector index at the given data
// directory. If dataDir is empty, defaults to ~/.supportbot/data.
func NewIndex(dataDir string) (*Index, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".supportbot", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	idx := &Index{db: db, path: dbPath}

	if err := idx.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return idx, nil
}

// Path returns the database file path.
func (idx *Index) Path() string {
	return idx.path
}

// Init records the embedding dimensionality. If the index already
// holds vectors of a different dimensionality, Init fails; the stored
// corpus would be unsearchable with the new model.
func (idx *Index) Init(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	var stored string
	err := idx.db.QueryRowContext(ctx,
		"SELECT value FROM index_meta WHERE key = 'dimensions'").Scan(&stored)
	switch {
	case err == sql.ErrNoRows:
		if _, err := idx.db.ExecContext(ctx,
			"INSERT INTO index_meta (key, value) VALUES ('dimensions', ?)",
			strconv.Itoa(dimensions)); err != nil {
			return fmt.Errorf("storing dimensions: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading dimensions: %w", err)
	default:
		prev, _ := strconv.Atoi(stored)
		if prev != dimensions {
			return &domain.ConfigurationError{
				Reason: fmt.Sprintf("index holds %d-dimensional vectors, embedding model produces %d", prev, dimensions),
			}
		}
	}

	idx.dimensions = dimensions
	return nil
}

// Upsert inserts or replaces chunks keyed by chunk ID, storing their
// parent documents alongside.
func (idx *Index) Upsert(ctx context.Context, chunks []domain.Chunk) error {
	if idx.dimensions == 0 {
		return fmt.Errorf("index not initialised")
	}
	for _, c := range chunks {
		if len(c.Embedding) != idx.dimensions {
			return fmt.Errorf("vector dimension mismatch for chunk %s: got %d, expected %d",
				c.ID, len(c.Embedding), idx.dimensions)
		}
	}

	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	seq := now.UnixNano()

	for _, c := range chunks {
		doc := c.Document
		if doc.CreatedAt.IsZero() {
			doc.CreatedAt = now
		}
		doc.UpdatedAt = now

		tagsJSON, err := json.Marshal(doc.Tags)
		if err != nil {
			return fmt.Errorf("marshalling tags: %w", err)
		}
		metadataJSON, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, title, source_type, product_version, tags, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title = excluded.title,
				source_type = excluded.source_type,
				product_version = excluded.product_version,
				tags = excluded.tags,
				metadata = excluded.metadata,
				updated_at = excluded.updated_at
		`, doc.ID, doc.Title, string(doc.SourceType), doc.ProductVersion,
			string(tagsJSON), string(metadataJSON), doc.CreatedAt, doc.UpdatedAt); err != nil {
			return fmt.Errorf("saving document: %w", err)
		}

		seq++
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO chunks (id, document_id, content, position, embedding, seq)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				document_id = excluded.document_id,
				content = excluded.content,
				position = excluded.position,
				embedding = excluded.embedding,
				seq = excluded.seq
		`, c.ID, c.DocumentID, c.Content, c.Index,
			float32SliceToBytes(c.Embedding), seq); err != nil {
			return fmt.Errorf("saving chunk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search finds at most limit chunks nearest to the query vector.
// Filters narrow the candidate set in SQL; scoring happens in Go.
func (idx *Index) Search(ctx context.Context, query []float32, limit int, filters driven.SearchFilters) ([]domain.RetrievalResult, error) {
	if idx.dimensions == 0 {
		return nil, fmt.Errorf("index not initialised")
	}
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), idx.dimensions)
	}
	if limit <= 0 {
		return []domain.RetrievalResult{}, nil
	}

	q := `
		SELECT c.id, c.document_id, c.content, c.position, c.embedding, c.seq,
		       d.title, d.source_type, d.product_version, d.tags, d.metadata, d.created_at, d.updated_at
		FROM chunks c
		JOIN documents d ON d.id = c.document_id
	`
	var conds []string
	var args []any
	if filters.ProductVersion != "" {
		conds = append(conds, "d.product_version = ?")
		args = append(args, filters.ProductVersion)
	}
	if filters.SourceType != "" {
		conds = append(conds, "d.source_type = ?")
		args = append(args, string(filters.SourceType))
	}
	if len(filters.DocumentIDs) > 0 {
		placeholders := strings.Repeat("?,", len(filters.DocumentIDs))
		conds = append(conds, "c.document_id IN ("+placeholders[:len(placeholders)-1]+")")
		for _, id := range filters.DocumentIDs {
			args = append(args, id)
		}
	}
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}

	rows, err := idx.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	type scored struct {
		result domain.RetrievalResult
		seq    int64
	}
	var candidates []scored
	for rows.Next() {
		var (
			chunk         domain.Chunk
			doc           domain.Document
			embeddingBlob []byte
			seq           int64
			sourceType    string
			tagsJSON      string
			metadataJSON  string
		)
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Content, &chunk.Index,
			&embeddingBlob, &seq,
			&doc.Title, &sourceType, &doc.ProductVersion, &tagsJSON, &metadataJSON,
			&doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}

		doc.ID = chunk.DocumentID
		doc.SourceType = domain.SourceType(sourceType)
		if err := json.Unmarshal([]byte(tagsJSON), &doc.Tags); err != nil {
			return nil, fmt.Errorf("unmarshalling tags: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &doc.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshalling metadata: %w", err)
		}

		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)
		chunk.Document = doc

		candidates = append(candidates, scored{
			result: domain.RetrievalResult{
				Chunk:      chunk,
				Similarity: cosineSimilarity(query, chunk.Embedding),
			},
			seq: seq,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].result.Similarity != candidates[j].result.Similarity {
			return candidates[i].result.Similarity > candidates[j].result.Similarity
		}
		return candidates[i].seq > candidates[j].seq
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}
	results := make([]domain.RetrievalResult, 0, limit)
	for _, c := range candidates[:limit] {
		results = append(results, c.result)
	}
	return results, nil
}

// DeleteByDocID removes a document and its chunks. Unknown documents
// are a no-op.
func (idx *Index) DeleteByDocID(ctx context.Context, docID string) error {
	if _, err := idx.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", docID); err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return nil
}

// ListDocuments returns a summary of every document in the index.
func (idx *Index) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT d.id, d.title, d.source_type, d.product_version, d.created_at, COUNT(c.id)
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DocumentSummary
	for rows.Next() {
		var s domain.DocumentSummary
		var sourceType string
		if err := rows.Scan(&s.ID, &s.Title, &sourceType, &s.ProductVersion, &s.CreatedAt, &s.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		s.SourceType = domain.SourceType(sourceType)
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// CountChunks reports the number of stored chunks.
func (idx *Index) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := idx.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// Ping verifies the database is reachable.
func (idx *Index) Ping(ctx context.Context) error {
	return idx.db.PingContext(ctx)
}

// Close closes the database connection.
func (idx *Index) Close() error {
	return idx.db.Close()
}

// migrate runs all pending migrations.
func (idx *Index) migrate(fsys embed.FS) error {
	_, err := idx.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := idx.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := idx.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := idx.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity returns the cosine of the angle between a and b,
// clamped to [0, 1]. Zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if cos < 0 {
		return 0
	}
	if cos > 1 {
		return 1
	}
	return cos
}
