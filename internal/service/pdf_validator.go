package service

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"

	"pdf-ingest-server/internal/domain"
	apperrors "pdf-ingest-server/pkg/errors"
)

// PDF file signature. It must appear at offset 0.
var pdfMagicBytes = []byte("%PDF-")

// PDFValidator checks that an untrusted byte buffer is a well-formed,
// decodable, unencrypted, non-empty PDF within the configured size bounds.
type PDFValidator struct {
	maxFileSize int64
	minFileSize int64
	logger      domain.Logger
}

// NewPDFValidator creates a validator with the configured size bounds.
func NewPDFValidator(maxFileSize, minFileSize int64, logger domain.Logger) *PDFValidator {
	return &PDFValidator{
		maxFileSize: maxFileSize,
		minFileSize: minFileSize,
		logger:      logger,
	}
}

// Validate runs all checks in order, short-circuiting on the first failure.
// On success the caller owns the returned handle and must close it. On any
// failure after a successful decode the handle is released here before the
// error is returned.
func (v *PDFValidator) Validate(content []byte, declaredSize int64) (domain.DecodedDocument, error) {
	if err := v.validateSize(declaredSize); err != nil {
		return nil, err
	}
	if !bytes.HasPrefix(content, pdfMagicBytes) {
		return nil, apperrors.NewValidationError("file is not a valid PDF (magic bytes check failed)")
	}

	doc, err := openPDF(content)
	if err != nil {
		if errors.Is(err, fitz.ErrNeedsPassword) {
			return nil, apperrors.NewValidationError("PDF is password-protected or encrypted and cannot be processed")
		}
		return nil, apperrors.NewValidationError("PDF file is corrupted or malformed", err.Error())
	}

	if doc.PageCount() == 0 {
		_ = doc.Close()
		return nil, apperrors.NewValidationError("PDF is empty (contains no pages)")
	}

	// Corruption sometimes only surfaces when a page is loaded.
	if _, err := doc.PageText(0); err != nil {
		_ = doc.Close()
		return nil, apperrors.NewValidationError("PDF appears to be corrupted", err.Error())
	}

	v.logger.Info("PDF validation successful", "pages", doc.PageCount(), "size_bytes", declaredSize)
	return doc, nil
}

// validateSize rejects sizes outside [minFileSize, maxFileSize]. Both bounds
// are inclusive.
func (v *PDFValidator) validateSize(size int64) error {
	if size > v.maxFileSize {
		return apperrors.NewValidationError(fmt.Sprintf(
			"file size (%.2fMB) exceeds maximum allowed size (%dMB)",
			float64(size)/1024/1024, v.maxFileSize/1024/1024))
	}
	if size < v.minFileSize {
		return apperrors.NewValidationError(fmt.Sprintf(
			"file size (%d bytes) is too small to be a valid PDF", size))
	}
	return nil
}
