package domain

import (
	"time"
)

// ProcessingStatus tracks a document through the ingestion lifecycle.
type ProcessingStatus string

const (
	StatusPending    ProcessingStatus = "pending"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// CanTransitionTo reports whether moving to next is a legal lifecycle step.
// Completed and failed are terminal.
func (s ProcessingStatus) CanTransitionTo(next ProcessingStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusProcessing || next == StatusFailed
	case StatusProcessing:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// Document represents an ingested document and its processing state.
type Document struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	OriginalFilename string           `json:"original_filename"`
	FileSize         int64            `json:"file_size"`
	MimeType         string           `json:"mime_type"`
	FilePath         string           `json:"file_path"`
	PageCount        *int             `json:"page_count,omitempty"`
	Status           ProcessingStatus `json:"status"`
	ErrorMessage     string           `json:"error_message,omitempty"`
	UserID           *string          `json:"user_id,omitempty"`
	UploadedAt       time.Time        `json:"uploaded_at"`
}

// Validate checks required fields on a document record.
func (d *Document) Validate() error {
	if d.ID == "" {
		return &ValidationError{Field: "id", Message: "document ID is required"}
	}
	if d.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if d.OriginalFilename == "" {
		return &ValidationError{Field: "original_filename", Message: "original filename is required"}
	}
	if d.FileSize < 0 {
		return &ValidationError{Field: "file_size", Message: "file size cannot be negative"}
	}
	switch d.Status {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
	default:
		return &ValidationError{Field: "status", Message: "unknown processing status"}
	}
	return nil
}

// IngestResult is returned to the caller after a successful ingestion.
type IngestResult struct {
	DocumentID string `json:"document_id"`
	PageCount  int    `json:"page_count"`
	ChunkCount int    `json:"chunk_count"`
	FileSize   int64  `json:"file_size"`
}

// IngestRequest carries an uploaded file and its declared attributes into
// the ingestion pipeline.
type IngestRequest struct {
	Content     []byte
	Filename    string
	ContentType string
	Title       string
	UserID      *string
}
