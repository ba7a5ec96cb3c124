package repository

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"pdf-ingest-server/internal/domain"
)

//go:embed schema.sql
var schemaFS embed.FS

// PostgresStore implements domain.DocumentStore on Postgres via the pgx
// stdlib driver. The connection pool is bounded; exhaustion surfaces as a
// timeout error, never as corruption.
type PostgresStore struct {
	db     *sql.DB
	logger domain.Logger
}

// NewPostgresStore opens the pool, verifies connectivity and applies the
// schema.
func NewPostgresStore(ctx context.Context, databaseURL string, logger domain.Logger) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("database URL is empty")
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := ensureSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	logger.Info("database connected")
	return &PostgresStore{db: db, logger: logger}, nil
}

// ensureSchema applies schema.sql in one transaction. Every statement is
// idempotent.
func ensureSchema(ctx context.Context, db *sql.DB) error {
	sqlBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema.sql: %w", err)
	}

	schemaCtx, cancel := context.WithTimeout(ctx, 3*time.Minute)
	defer cancel()

	tx, err := db.BeginTx(schemaCtx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if _, err := tx.ExecContext(schemaCtx, string(sqlBytes)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("exec schema: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Begin opens the transaction covering one ingestion invocation.
func (s *PostgresStore) Begin(ctx context.Context) (domain.IngestTx, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx}, nil
}

// RecordFailure upserts the document row in failed status on its own
// connection, so it survives the ingestion transaction's rollback.
func (s *PostgresStore) RecordFailure(ctx context.Context, doc *domain.Document) error {
	const q = `
		INSERT INTO documents
			(id, title, original_filename, file_size, mime_type, file_path,
			 page_count, status, error_message, user_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, NULL, NULL, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE
			SET status = EXCLUDED.status,
			    error_message = EXCLUDED.error_message,
			    file_path = NULL,
			    page_count = NULL
	`
	_, err := s.db.ExecContext(ctx, q,
		doc.ID, doc.Title, doc.OriginalFilename, doc.FileSize, doc.MimeType,
		domain.StatusFailed, doc.ErrorMessage, doc.UserID, doc.UploadedAt)
	return err
}

// GetDocumentByID fetches one document record.
func (s *PostgresStore) GetDocumentByID(ctx context.Context, id string) (*domain.Document, error) {
	const q = `
		SELECT id, title, original_filename, file_size, mime_type,
		       COALESCE(file_path, ''), page_count, status,
		       COALESCE(error_message, ''), user_id, uploaded_at
		FROM documents
		WHERE id = $1
	`
	var d domain.Document
	err := s.db.QueryRowContext(ctx, q, id).Scan(
		&d.ID, &d.Title, &d.OriginalFilename, &d.FileSize, &d.MimeType,
		&d.FilePath, &d.PageCount, &d.Status, &d.ErrorMessage, &d.UserID, &d.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetChunksByDocument returns a document's chunks in index order.
func (s *PostgresStore) GetChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	const q = `
		SELECT id, document_id, chunk_text, chunk_index, embedding,
		       token_count, chunk_metadata, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`
	rows, err := s.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Chunk
	for rows.Next() {
		var (
			ch       domain.Chunk
			emb      *pgvector.Vector
			tokens   sql.NullInt64
			metaJSON []byte
		)
		if err := rows.Scan(
			&ch.ID, &ch.DocumentID, &ch.Text, &ch.Index, &emb,
			&tokens, &metaJSON, &ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		if tokens.Valid {
			ch.TokenCount = int(tokens.Int64)
		}
		if len(metaJSON) > 0 {
			var meta chunkMetadata
			if err := json.Unmarshal(metaJSON, &meta); err == nil {
				ch.CharStart = meta.CharStart
				ch.CharEnd = meta.CharEnd
				ch.SentenceCount = meta.SentenceCount
			}
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// chunkMetadata is the JSON shape stored in the chunk_metadata column.
type chunkMetadata struct {
	CharStart     int `json:"char_start"`
	CharEnd       int `json:"char_end"`
	SentenceCount int `json:"sentence_count"`
}

// postgresTx implements domain.IngestTx over one sql.Tx.
type postgresTx struct {
	tx *sql.Tx
}

func (t *postgresTx) CreateDocument(ctx context.Context, doc *domain.Document) error {
	const q = `
		INSERT INTO documents
			(id, title, original_filename, file_size, mime_type, file_path,
			 page_count, status, error_message, user_id, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), $10, $11)
	`
	_, err := t.tx.ExecContext(ctx, q,
		doc.ID, doc.Title, doc.OriginalFilename, doc.FileSize, doc.MimeType,
		doc.FilePath, doc.PageCount, doc.Status, doc.ErrorMessage, doc.UserID, doc.UploadedAt)
	return err
}

func (t *postgresTx) SetStatus(ctx context.Context, documentID string, status domain.ProcessingStatus) error {
	const q = `UPDATE documents SET status = $2 WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, q, documentID, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (t *postgresTx) UpdateFileInfo(ctx context.Context, documentID string, filePath string, pageCount int) error {
	const q = `UPDATE documents SET file_path = $2, page_count = $3 WHERE id = $1`
	res, err := t.tx.ExecContext(ctx, q, documentID, filePath, pageCount)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// InsertChunks writes all chunks of a document with a prepared statement,
// preserving index order. Embeddings are optional; chunks without one are
// stored with a NULL vector for later backfill.
func (t *postgresTx) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	const q = `
		INSERT INTO document_chunks
			(id, document_id, chunk_text, chunk_index, embedding,
			 character_count, token_count, chunk_metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, COALESCE($9, now()))
	`
	stmt, err := t.tx.PrepareContext(ctx, q)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		if ch.ID == "" {
			ch.ID = uuid.NewString()
		}

		meta, err := json.Marshal(chunkMetadata{
			CharStart:     ch.CharStart,
			CharEnd:       ch.CharEnd,
			SentenceCount: ch.SentenceCount,
		})
		if err != nil {
			return fmt.Errorf("marshal chunk metadata: %w", err)
		}

		var emb any
		if len(ch.Embedding) > 0 {
			emb = pgvector.NewVector(ch.Embedding)
		}

		var createdAt any
		if !ch.CreatedAt.IsZero() {
			createdAt = ch.CreatedAt
		}

		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.Text, ch.Index, emb,
			ch.CharacterCount(), ch.TokenCount, meta, createdAt,
		); err != nil {
			return err
		}
	}
	return nil
}

func (t *postgresTx) Commit(ctx context.Context) error {
	return t.tx.Commit()
}

func (t *postgresTx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
