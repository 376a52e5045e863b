package store

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/xhad/quickstart/internal/models"
)

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
	BatchSize  int
}

// VectorStore mirrors a corpus into a pgvector table so it can be searched
// server side.
type VectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.TableName == "" {
		config.TableName = "quickstart_samples"
	}
	if !tableNameRegex.MatchString(config.TableName) {
		return nil, fmt.Errorf("invalid table name %q", config.TableName)
	}
	if config.VectorDim == 0 {
		config.VectorDim = 1536 // Default for OpenAI embeddings
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			prompt TEXT NOT NULL,
			language TEXT NOT NULL,
			readme TEXT NOT NULL,
			code TEXT NOT NULL,
			codespaces TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	return nil
}

// BatchSize is the number of documents the caller should pass per Store call.
func (vs *VectorStore) BatchSize() int {
	return vs.config.BatchSize
}

// Store upserts docs by name in one transaction. position is the corpus index
// of docs[0]. Documents without an embedding of the configured dimension are
// skipped and counted in the first return value.
func (vs *VectorStore) Store(ctx context.Context, position int, docs []models.Document) (int, error) {
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (name, position, prompt, language, readme, code, codespaces, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (name) DO UPDATE SET
			position = EXCLUDED.position,
			prompt = EXCLUDED.prompt,
			language = EXCLUDED.language,
			readme = EXCLUDED.readme,
			code = EXCLUDED.code,
			codespaces = EXCLUDED.codespaces,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	skipped := 0
	batch := &pgx.Batch{}
	for i, doc := range docs {
		if len(doc.Embedding) != vs.config.VectorDim {
			skipped++
			continue
		}
		batch.Queue(stmt,
			sanitizeUTF8(doc.Name),
			position+i,
			sanitizeUTF8(doc.Prompt),
			sanitizeUTF8(doc.Language),
			sanitizeUTF8(doc.Readme),
			sanitizeUTF8(doc.Code),
			sanitizeUTF8(doc.Codespaces),
			pgvector.NewVector(doc.Embedding),
		)
	}

	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return skipped, fmt.Errorf("failed to insert documents: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return skipped, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return skipped, nil
}

// Query returns the limit documents closest to queryEmbedding by cosine
// distance. Ties keep corpus order.
func (vs *VectorStore) Query(ctx context.Context, queryEmbedding []float32, limit int) ([]models.SimilarityResult, error) {
	if limit <= 0 {
		return []models.SimilarityResult{}, nil
	}
	if len(queryEmbedding) != vs.config.VectorDim {
		return nil, fmt.Errorf("query has %d dimensions, table stores %d", len(queryEmbedding), vs.config.VectorDim)
	}

	query := fmt.Sprintf(`
		SELECT name, position, prompt, language, readme, code, codespaces, embedding,
		       1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1, position
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(queryEmbedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	results := []models.SimilarityResult{}
	for rows.Next() {
		var (
			res       models.SimilarityResult
			embedding pgvector.Vector
		)
		err := rows.Scan(
			&res.Document.Name,
			&res.Index,
			&res.Document.Prompt,
			&res.Document.Language,
			&res.Document.Readme,
			&res.Document.Code,
			&res.Document.Codespaces,
			&embedding,
			&res.Similarity,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		res.Document.Embedding = embedding.Slice()
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}

	return results, nil
}

// Prune deletes rows whose name is not in names.
func (vs *VectorStore) Prune(ctx context.Context, names []string) (int64, error) {
	tag, err := vs.pool.Exec(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE NOT (name = ANY($1))", vs.config.TableName),
		names)
	if err != nil {
		return 0, fmt.Errorf("failed to prune documents: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}

// sanitizeUTF8 drops invalid bytes and NULs, which Postgres text columns reject.
func sanitizeUTF8(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if !utf8.ValidString(s) {
		v := make([]rune, 0, len(s))
		for i, r := range s {
			if r == utf8.RuneError {
				_, size := utf8.DecodeRuneInString(s[i:])
				if size == 1 {
					continue
				}
			}
			v = append(v, r)
		}
		return string(v)
	}
	return s
}
