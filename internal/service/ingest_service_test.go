package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-ingest-server/internal/chunker"
	"pdf-ingest-server/internal/domain"
	apperrors "pdf-ingest-server/pkg/errors"
)

type ingestFixture struct {
	store     *fakeStore
	tx        *fakeTx
	files     *fakeFiles
	validator *fakeValidator
	service   *IngestService
}

func newIngestFixture(t *testing.T, validator *fakeValidator) *ingestFixture {
	t.Helper()
	tx := &fakeTx{}
	store := &fakeStore{tx: tx}
	files := &fakeFiles{}
	logger := newMockLogger()

	ch, err := chunker.NewTextChunker(
		domain.ChunkConfig{TargetSize: 50, Overlap: 5, MinChunkSize: 5},
		chunker.NewSentenceSegmenter(), logger)
	require.NoError(t, err)

	return &ingestFixture{
		store:     store,
		tx:        tx,
		files:     files,
		validator: validator,
		service:   NewIngestService(store, files, validator, NewTextExtractor(logger), ch, logger),
	}
}

func pdfRequest() domain.IngestRequest {
	return domain.IngestRequest{
		Content:     []byte("%PDF-1.4 body"),
		Filename:    "quarterly-report.pdf",
		ContentType: "application/pdf",
	}
}

func TestIngest_HappyPath(t *testing.T) {
	decoded := &fakeDecodedDocument{pages: []string{
		"The first page has a sentence. It also has another one.",
		"The second page continues the document here.",
		"The third page wraps everything up nicely.",
	}}
	f := newIngestFixture(t, &fakeValidator{doc: decoded})

	result, err := f.service.Ingest(context.Background(), pdfRequest())
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.NotEmpty(t, result.DocumentID)
	assert.Equal(t, 3, result.PageCount)
	assert.Greater(t, result.ChunkCount, 0)
	assert.Equal(t, int64(len("%PDF-1.4 body")), result.FileSize)

	// One document row, created pending with a defaulted title.
	require.Len(t, f.tx.created, 1)
	created := f.tx.created[0]
	assert.Equal(t, "quarterly-report", created.Title)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Equal(t, result.DocumentID, created.ID)

	// The lifecycle ran pending -> processing -> completed inside the tx.
	assert.Equal(t, []domain.ProcessingStatus{domain.StatusProcessing, domain.StatusCompleted}, f.tx.statuses)
	assert.True(t, f.tx.committed)
	assert.False(t, f.tx.rolledBack)

	// Chunks carry the document ID and contiguous indexes.
	require.Len(t, f.tx.chunks, result.ChunkCount)
	for i, ch := range f.tx.chunks {
		assert.Equal(t, result.DocumentID, ch.DocumentID)
		assert.Equal(t, i, ch.Index)
		assert.NotEmpty(t, ch.Text)
	}

	// The upload was stored, the file path recorded, and the handle closed.
	require.Len(t, f.files.saved, 1)
	assert.Equal(t, f.files.saved, f.tx.fileInfo)
	assert.Empty(t, f.files.deleted)
	assert.True(t, decoded.closed)
	assert.Empty(t, f.store.failures)
}

func TestIngest_ExplicitTitleWins(t *testing.T) {
	decoded := &fakeDecodedDocument{pages: []string{"Some document text goes here."}}
	f := newIngestFixture(t, &fakeValidator{doc: decoded})

	req := pdfRequest()
	req.Title = "  Annual Review  "

	_, err := f.service.Ingest(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, f.tx.created, 1)
	assert.Equal(t, "Annual Review", f.tx.created[0].Title)
}

func TestIngest_RejectsEmptyFilename(t *testing.T) {
	f := newIngestFixture(t, &fakeValidator{doc: &fakeDecodedDocument{pages: []string{"text."}}})

	req := pdfRequest()
	req.Filename = ""

	_, err := f.service.Ingest(context.Background(), req)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	// Rejected before any transaction was opened.
	assert.False(t, f.tx.rolledBack)
	assert.Empty(t, f.tx.created)
	assert.Empty(t, f.store.failures)
}

func TestIngest_ValidationFailure(t *testing.T) {
	cause := apperrors.NewValidationError("PDF is password-protected or encrypted and cannot be processed")
	f := newIngestFixture(t, &fakeValidator{err: cause})

	result, err := f.service.Ingest(context.Background(), pdfRequest())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))

	// Rolled back, nothing stored, and a failed row committed with the
	// user-facing message.
	assert.True(t, f.tx.rolledBack)
	assert.False(t, f.tx.committed)
	assert.Empty(t, f.files.saved)
	require.Len(t, f.store.failures, 1)

	failure := f.store.failures[0]
	assert.Equal(t, domain.StatusFailed, failure.Status)
	assert.Equal(t, "PDF is password-protected or encrypted and cannot be processed", failure.ErrorMessage)
	assert.Empty(t, failure.FilePath)
	assert.Nil(t, failure.PageCount)
}

func TestIngest_ExtractionFailure(t *testing.T) {
	// Every page is blank, so extraction reports an image-only document.
	decoded := &fakeDecodedDocument{pages: []string{"", "  "}}
	f := newIngestFixture(t, &fakeValidator{doc: decoded})

	_, err := f.service.Ingest(context.Background(), pdfRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeProcessing))

	assert.True(t, f.tx.rolledBack)
	assert.True(t, decoded.closed)
	assert.Empty(t, f.files.saved)
	require.Len(t, f.store.failures, 1)
	assert.Contains(t, f.store.failures[0].ErrorMessage, "scanned document")
}

func TestIngest_FileSaveFailure(t *testing.T) {
	decoded := &fakeDecodedDocument{pages: []string{"Readable text on the page."}}
	f := newIngestFixture(t, &fakeValidator{doc: decoded})
	f.files.saveErr = apperrors.NewStorageError("failed to save document file", errors.New("disk full"))

	_, err := f.service.Ingest(context.Background(), pdfRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeStorage))

	assert.True(t, f.tx.rolledBack)
	// Nothing was saved, so nothing gets deleted.
	assert.Empty(t, f.files.deleted)
	require.Len(t, f.store.failures, 1)
}

func TestIngest_ChunkInsertFailureDeletesStoredFile(t *testing.T) {
	decoded := &fakeDecodedDocument{pages: []string{"Readable text on the page."}}
	f := newIngestFixture(t, &fakeValidator{doc: decoded})
	f.tx.insertErr = errors.New("unique constraint violated")

	_, err := f.service.Ingest(context.Background(), pdfRequest())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransaction))

	assert.True(t, f.tx.rolledBack)
	assert.False(t, f.tx.committed)

	// The file was written before the insert failed and must be cleaned up.
	require.Len(t, f.files.saved, 1)
	assert.Equal(t, f.files.saved, f.files.deleted)

	require.Len(t, f.store.failures, 1)
	assert.Equal(t, domain.StatusFailed, f.store.failures[0].Status)
	assert.NotEmpty(t, f.store.failures[0].ErrorMessage)
}

func TestIngest_CommitFailure(t *testing.T) {
	decoded := &fakeDecodedDocument{pages: []string{"Readable text on the page."}}
	f := newIngestFixture(t, &fakeValidator{doc: decoded})
	f.tx.commitErr = errors.New("connection reset")

	result, err := f.service.Ingest(context.Background(), pdfRequest())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransaction))

	assert.True(t, f.tx.rolledBack)
	assert.Equal(t, f.files.saved, f.files.deleted)
	require.Len(t, f.store.failures, 1)
}

func TestIngest_BeginFailure(t *testing.T) {
	f := newIngestFixture(t, &fakeValidator{doc: &fakeDecodedDocument{pages: []string{"text."}}})
	f.store.beginErr = errors.New("pool exhausted")

	result, err := f.service.Ingest(context.Background(), pdfRequest())
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeTransaction))

	// No transaction was opened, so there is nothing to roll back or record.
	assert.False(t, f.tx.rolledBack)
	assert.Empty(t, f.store.failures)
}

func TestIngest_NonAppErrorGetsGenericMessage(t *testing.T) {
	decoded := &fakeDecodedDocument{pages: []string{"Readable text on the page."}}
	f := newIngestFixture(t, &fakeValidator{doc: decoded})
	f.tx.setStatusErr = errors.New("driver: bad connection")

	_, err := f.service.Ingest(context.Background(), pdfRequest())
	require.Error(t, err)

	require.Len(t, f.store.failures, 1)
	// The raw driver error never leaks into the persisted message.
	assert.NotContains(t, f.store.failures[0].ErrorMessage, "driver")
}
