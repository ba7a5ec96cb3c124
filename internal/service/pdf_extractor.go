package service

import (
	"strings"

	"pdf-ingest-server/internal/domain"
	apperrors "pdf-ingest-server/pkg/errors"
)

// PageBreakMarker separates the text of consecutive pages in the extracted
// output. Downstream cleaning leaves it in place.
const PageBreakMarker = "\n\n--- Page Break ---\n\n"

// TextExtractor produces linear text from a decoded document, tolerating
// failures at page granularity.
type TextExtractor struct {
	logger domain.Logger
}

// NewTextExtractor creates a new text extractor.
func NewTextExtractor(logger domain.Logger) *TextExtractor {
	return &TextExtractor{logger: logger}
}

// Extract concatenates per-page text in page order. A page that fails to
// extract is logged and skipped; the extraction as a whole fails only when
// no page yields any text, which signals a scanned or image-only source.
func (e *TextExtractor) Extract(doc domain.DecodedDocument) (string, error) {
	pageCount := doc.PageCount()
	e.logger.Info("extracting text", "pages", pageCount)

	var sb strings.Builder
	for page := 0; page < pageCount; page++ {
		text, err := doc.PageText(page)
		if err != nil {
			e.logger.Warn("failed to extract text from page", "page", page+1, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		if page > 0 {
			sb.WriteString(PageBreakMarker)
		}
		sb.WriteString(text)
	}

	fullText := sb.String()
	if strings.TrimSpace(fullText) == "" {
		return "", apperrors.NewProcessingError(
			"no text could be extracted from PDF; this might be a scanned document or image-based PDF", nil)
	}

	e.logger.Info("text extraction successful", "characters", len(fullText))
	return fullText, nil
}
