package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"video-qa/internal/models"
	"video-qa/shared/logging"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var migrateMu sync.Mutex

var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// ChunkStore persists transcript passages with their embeddings and answers
// similarity queries scoped to one document.
type ChunkStore struct {
	db     *sql.DB
	driver string
}

// NewChunkStore opens the database, applies pending migrations and returns
// a ready store. driver is "sqlite" or "postgres".
func NewChunkStore(ctx context.Context, driver, dsn string) (*ChunkStore, error) {
	var (
		sqlDriver string
		dialect   string
	)
	switch driver {
	case "sqlite":
		sqlDriver, dialect = "sqlite", "sqlite3"
		if err := ensureSQLiteDir(dsn); err != nil {
			return nil, err
		}
	case "postgres":
		sqlDriver, dialect = "pgx", "postgres"
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}
	if driver == "sqlite" {
		// single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", driver, err)
	}

	if err := migrate(ctx, db, dialect); err != nil {
		db.Close()
		return nil, err
	}

	return &ChunkStore{db: db, driver: driver}, nil
}

func ensureSQLiteDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	path := dsn
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

func migrate(ctx context.Context, db *sql.DB, dialect string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(logging.FromContext(ctx).WithField("component", "migrations"))
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *ChunkStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *ChunkStore) rebind(query string) string {
	if s.driver != "postgres" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const upsertChunk = `INSERT INTO chunks (chunk_id, doc_id, video_id, title, content, chunk_index, embedding, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (chunk_id) DO UPDATE SET
	doc_id = excluded.doc_id,
	video_id = excluded.video_id,
	title = excluded.title,
	content = excluded.content,
	chunk_index = excluded.chunk_index,
	embedding = excluded.embedding,
	created_at = excluded.created_at`

// UpsertChunks writes chunks in a single transaction, replacing any chunk
// with the same id.
func (s *ChunkStore) UpsertChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(upsertChunk))
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		vec, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("failed to encode embedding for %s: %w", c.ChunkID, err)
		}
		createdAt := c.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		if _, err := stmt.ExecContext(ctx,
			c.ChunkID, c.DocID, c.VideoID, c.Title, c.Content, c.ChunkIndex, string(vec), createdAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", c.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chunks: %w", err)
	}
	return nil
}

// Query returns up to topK chunks of docID ranked by cosine similarity to
// vector, best first. Chunks whose embedding has a different dimension are
// skipped.
func (s *ChunkStore) Query(ctx context.Context, docID string, vector []float32, topK int) ([]models.ScoredChunk, error) {
	if topK <= 0 || len(vector) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT chunk_id, doc_id, video_id, title, content, chunk_index, embedding, created_at
		FROM chunks WHERE doc_id = ?`), docID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	log := logging.FromContext(ctx)
	var hits []models.ScoredChunk
	for rows.Next() {
		var (
			c         models.Chunk
			rawVec    string
			createdAt int64
		)
		if err := rows.Scan(&c.ChunkID, &c.DocID, &c.VideoID, &c.Title, &c.Content, &c.ChunkIndex, &rawVec, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		if err := json.Unmarshal([]byte(rawVec), &c.Embedding); err != nil {
			return nil, fmt.Errorf("failed to decode embedding for %s: %w", c.ChunkID, err)
		}
		c.CreatedAt = time.UnixMilli(createdAt)

		score, err := cosine(vector, c.Embedding)
		if err != nil {
			log.WithError(err).WithField("chunk_id", c.ChunkID).Warn("skipping chunk")
			continue
		}
		hits = append(hits, models.ScoredChunk{Chunk: c, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkIndex < hits[j].ChunkIndex
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteOlderThan removes every chunk created before cutoff and returns the
// number of rows deleted.
func (s *ChunkStore) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM chunks WHERE created_at < ?`), cutoff.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old chunks: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted chunks: %w", err)
	}
	return n, nil
}

// CountChunks returns the number of stored chunks for docID, or across all
// documents when docID is empty.
func (s *ChunkStore) CountChunks(ctx context.Context, docID string) (int, error) {
	query, args := `SELECT COUNT(*) FROM chunks`, []any{}
	if docID != "" {
		query, args = s.rebind(`SELECT COUNT(*) FROM chunks WHERE doc_id = ?`), []any{docID}
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count chunks: %w", err)
	}
	return n, nil
}

func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}
