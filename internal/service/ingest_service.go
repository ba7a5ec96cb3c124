package service

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"pdf-ingest-server/internal/domain"
	apperrors "pdf-ingest-server/pkg/errors"
)

// Validator checks untrusted bytes and returns an owned decoded handle.
type Validator interface {
	Validate(content []byte, declaredSize int64) (domain.DecodedDocument, error)
}

// Extractor turns a decoded document into linear text.
type Extractor interface {
	Extract(doc domain.DecodedDocument) (string, error)
}

// Chunker splits cleaned text into ordered chunks.
type Chunker interface {
	ChunkText(text string, documentID string) ([]domain.Chunk, error)
}

// IngestService drives one document through the ingestion state machine:
// pending -> processing -> completed, or -> failed from either state.
// A failure leaves exactly one committed write behind (the failed document
// row with its error message); everything else is rolled back and the
// storage artifact, if written, is deleted.
type IngestService struct {
	store     domain.DocumentStore
	files     domain.FileStore
	validator Validator
	extractor Extractor
	chunker   Chunker
	logger    domain.Logger
}

// NewIngestService wires the pipeline components into an orchestrator.
func NewIngestService(
	store domain.DocumentStore,
	files domain.FileStore,
	validator Validator,
	extractor Extractor,
	chunker Chunker,
	logger domain.Logger,
) *IngestService {
	return &IngestService{
		store:     store,
		files:     files,
		validator: validator,
		extractor: extractor,
		chunker:   chunker,
		logger:    logger,
	}
}

// Ingest runs the full pipeline for one uploaded document and returns its
// identity and counts. All database writes commit atomically; a caller can
// never observe a completed document without its chunks.
func (s *IngestService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fileStem(req.Filename)
	}

	doc := &domain.Document{
		ID:               uuid.NewString(),
		Title:            title,
		OriginalFilename: req.Filename,
		FileSize:         int64(len(req.Content)),
		MimeType:         req.ContentType,
		FilePath:         "pending",
		Status:           domain.StatusPending,
		UserID:           req.UserID,
		UploadedAt:       time.Now().UTC(),
	}

	if err := doc.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid document", err.Error())
	}

	s.logger.Info("starting ingestion", "document_id", doc.ID, "filename", req.Filename)

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, apperrors.NewTransactionError("failed to start ingestion transaction", err)
	}

	var filePath string
	result, err := s.run(ctx, tx, doc, req, &filePath)
	if err != nil {
		s.fail(ctx, tx, doc, filePath, err)
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		err = apperrors.NewTransactionError("failed to commit ingestion", err)
		s.fail(ctx, tx, doc, filePath, err)
		return nil, err
	}

	s.logger.Info("ingestion completed", "document_id", doc.ID,
		"pages", result.PageCount, "chunks", result.ChunkCount)
	return result, nil
}

// run executes the pipeline steps inside the transaction. filePath is
// reported through an out parameter so the failure path can clean up an
// artifact written before the error.
func (s *IngestService) run(
	ctx context.Context,
	tx domain.IngestTx,
	doc *domain.Document,
	req domain.IngestRequest,
	filePath *string,
) (*domain.IngestResult, error) {
	if err := tx.CreateDocument(ctx, doc); err != nil {
		return nil, apperrors.NewTransactionError("failed to create document record", err)
	}

	if err := s.advance(ctx, tx, doc, domain.StatusProcessing); err != nil {
		return nil, err
	}

	decoded, err := s.validator.Validate(req.Content, doc.FileSize)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := decoded.Close(); cerr != nil {
			s.logger.Warn("failed to close decoded document", "document_id", doc.ID, "error", cerr)
		}
	}()
	pageCount := decoded.PageCount()

	rawText, err := s.extractor.Extract(decoded)
	if err != nil {
		return nil, err
	}

	path, err := s.files.Save(ctx, req.Content, req.Filename)
	if err != nil {
		return nil, err
	}
	*filePath = path
	doc.FilePath = path
	doc.PageCount = &pageCount

	if err := tx.UpdateFileInfo(ctx, doc.ID, path, pageCount); err != nil {
		return nil, apperrors.NewTransactionError("failed to update document metadata", err)
	}

	cleaned := CleanText(rawText)
	chunks, err := s.chunker.ChunkText(cleaned, doc.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.InsertChunks(ctx, chunks); err != nil {
		return nil, apperrors.NewTransactionError("failed to store chunks", err)
	}

	if err := s.advance(ctx, tx, doc, domain.StatusCompleted); err != nil {
		return nil, err
	}

	return &domain.IngestResult{
		DocumentID: doc.ID,
		PageCount:  pageCount,
		ChunkCount: len(chunks),
		FileSize:   doc.FileSize,
	}, nil
}

// advance moves the document to the next lifecycle status, enforcing the
// legal transitions.
func (s *IngestService) advance(ctx context.Context, tx domain.IngestTx, doc *domain.Document, next domain.ProcessingStatus) error {
	if !doc.Status.CanTransitionTo(next) {
		return apperrors.NewInternalError(
			"illegal status transition "+string(doc.Status)+" -> "+string(next), nil)
	}
	if err := tx.SetStatus(ctx, doc.ID, next); err != nil {
		return apperrors.NewTransactionError("failed to update document status", err)
	}
	doc.Status = next
	return nil
}

// fail rolls back the transaction, removes the storage artifact if one was
// written, and commits a failed document row so the caller can always see
// why ingestion failed.
func (s *IngestService) fail(ctx context.Context, tx domain.IngestTx, doc *domain.Document, filePath string, cause error) {
	s.logger.Error("ingestion failed", cause, "document_id", doc.ID)

	if err := tx.Rollback(ctx); err != nil {
		s.logger.Warn("rollback failed", "document_id", doc.ID, "error", err)
	}

	if filePath != "" {
		if err := s.files.Delete(ctx, filePath); err != nil {
			s.logger.Warn("failed to delete stored file after failure", "document_id", doc.ID, "error", err)
		}
	}

	doc.Status = domain.StatusFailed
	doc.ErrorMessage = userFacingMessage(cause)
	doc.FilePath = ""
	doc.PageCount = nil
	if err := s.store.RecordFailure(ctx, doc); err != nil {
		s.logger.Error("failed to record ingestion failure", err, "document_id", doc.ID)
	}
}

// userFacingMessage keeps the persisted error message descriptive but free
// of internal details such as filesystem paths.
func userFacingMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Details != "" {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return "unexpected error during ingestion"
}

// fileStem returns the filename without its extension, used as the default
// document title.
func fileStem(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
