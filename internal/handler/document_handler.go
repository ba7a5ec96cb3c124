package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"pdf-ingest-server/internal/domain"
	apperrors "pdf-ingest-server/pkg/errors"
)

// Ingestor is the boundary operation consumed by the HTTP layer.
type Ingestor interface {
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)
}

// DocumentReader exposes stored documents and their chunks for reads.
type DocumentReader interface {
	GetDocumentByID(ctx context.Context, id string) (*domain.Document, error)
	GetChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error)
}

// DocumentHandler serves the document upload and lookup endpoints.
type DocumentHandler struct {
	ingestor            Ingestor
	reader              DocumentReader
	maxFileSize         int64
	allowedContentTypes []string
	logger              domain.Logger
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(
	ingestor Ingestor,
	reader DocumentReader,
	cfg domain.Config,
	logger domain.Logger,
) *DocumentHandler {
	return &DocumentHandler{
		ingestor:            ingestor,
		reader:              reader,
		maxFileSize:         cfg.GetMaxFileSize(),
		allowedContentTypes: cfg.GetAllowedContentTypes(),
		logger:              logger,
	}
}

// UploadDocument handles POST /api/v1/documents. It enforces the declared
// content-type allow-list and the request size cap before handing the bytes
// to the ingestion pipeline.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	// Leave headroom for multipart framing beyond the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileSize+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !h.contentTypeAllowed(contentType) {
		writeError(w, http.StatusBadRequest, "unsupported content type: "+contentType)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if int64(len(content)) > h.maxFileSize {
		writeError(w, http.StatusBadRequest, "file exceeds maximum allowed size")
		return
	}

	req := domain.IngestRequest{
		Content:     content,
		Filename:    header.Filename,
		ContentType: contentType,
		Title:       r.FormValue("title"),
	}

	result, err := h.ingestor.Ingest(r.Context(), req)
	if err != nil {
		h.logger.Warn("ingestion rejected", "filename", header.Filename, "error", err)
		writeError(w, apperrors.GetStatusCode(err), errorMessage(err))
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// GetDocument handles GET /api/v1/documents/{id}.
func (h *DocumentHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	doc, err := h.reader.GetDocumentByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.logger.Error("failed to fetch document", err, "document_id", id)
		writeError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// GetDocumentChunks handles GET /api/v1/documents/{id}/chunks.
func (h *DocumentHandler) GetDocumentChunks(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.reader.GetDocumentByID(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.logger.Error("failed to fetch document", err, "document_id", id)
		writeError(w, http.StatusInternalServerError, "failed to fetch document")
		return
	}

	chunks, err := h.reader.GetChunksByDocument(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to fetch chunks", err, "document_id", id)
		writeError(w, http.StatusInternalServerError, "failed to fetch chunks")
		return
	}
	if chunks == nil {
		chunks = []domain.Chunk{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"document_id": id,
		"chunk_count": len(chunks),
		"chunks":      chunks,
	})
}

func (h *DocumentHandler) contentTypeAllowed(contentType string) bool {
	// Ignore any parameters such as charset.
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}
	contentType = strings.TrimSpace(strings.ToLower(contentType))
	for _, allowed := range h.allowedContentTypes {
		if contentType == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// errorMessage returns the user-facing message of a typed error without
// exposing internals.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Details != "" {
			return appErr.Message + ": " + appErr.Details
		}
		return appErr.Message
	}
	return "internal server error"
}
