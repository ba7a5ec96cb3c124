package service

import (
	"context"
	"fmt"

	"pdf-ingest-server/internal/domain"
)

// mockLogger records log messages so tests can assert on what was reported.
type mockLogger struct {
	messages []string
}

func newMockLogger() *mockLogger {
	return &mockLogger{messages: []string{}}
}

func (m *mockLogger) Info(msg string, fields ...interface{}) {
	m.messages = append(m.messages, "INFO: "+msg)
}

func (m *mockLogger) Error(msg string, err error, fields ...interface{}) {
	m.messages = append(m.messages, "ERROR: "+msg)
}

func (m *mockLogger) Debug(msg string, fields ...interface{}) {
	m.messages = append(m.messages, "DEBUG: "+msg)
}

func (m *mockLogger) Warn(msg string, fields ...interface{}) {
	m.messages = append(m.messages, "WARN: "+msg)
}

// fakeDecodedDocument serves canned page text and records whether the handle
// was released.
type fakeDecodedDocument struct {
	pages    []string
	pageErrs map[int]error
	closed   bool
}

func (f *fakeDecodedDocument) PageCount() int { return len(f.pages) }

func (f *fakeDecodedDocument) PageText(page int) (string, error) {
	if err, ok := f.pageErrs[page]; ok {
		return "", err
	}
	if page < 0 || page >= len(f.pages) {
		return "", fmt.Errorf("page %d out of range", page)
	}
	return f.pages[page], nil
}

func (f *fakeDecodedDocument) Close() error {
	f.closed = true
	return nil
}

// fakeValidator returns a prepared handle or error without touching real
// decoder state.
type fakeValidator struct {
	doc *fakeDecodedDocument
	err error
}

func (f *fakeValidator) Validate(content []byte, declaredSize int64) (domain.DecodedDocument, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

// fakeFiles is an in-memory domain.FileStore that can be told to fail.
type fakeFiles struct {
	saveErr   error
	deleteErr error
	saved     []string
	deleted   []string
}

func (f *fakeFiles) Save(ctx context.Context, content []byte, originalFilename string) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	path := fmt.Sprintf("/uploads/stored-%d.pdf", len(f.saved))
	f.saved = append(f.saved, path)
	return path, nil
}

func (f *fakeFiles) Delete(ctx context.Context, path string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, path)
	return nil
}

// fakeTx records every write issued inside the transaction and whether it
// ended in a commit or a rollback.
type fakeTx struct {
	created      []domain.Document
	statuses     []domain.ProcessingStatus
	fileInfo     []string
	chunks       []domain.Chunk
	committed    bool
	rolledBack   bool
	createErr    error
	setStatusErr error
	updateErr    error
	insertErr    error
	commitErr    error
}

func (f *fakeTx) CreateDocument(ctx context.Context, doc *domain.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *doc)
	return nil
}

func (f *fakeTx) SetStatus(ctx context.Context, documentID string, status domain.ProcessingStatus) error {
	if f.setStatusErr != nil {
		return f.setStatusErr
	}
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeTx) UpdateFileInfo(ctx context.Context, documentID string, filePath string, pageCount int) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.fileInfo = append(f.fileInfo, filePath)
	return nil
}

func (f *fakeTx) InsertChunks(ctx context.Context, chunks []domain.Chunk) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.chunks = append(f.chunks, chunks...)
	return nil
}

func (f *fakeTx) Commit(ctx context.Context) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = true
	return nil
}

func (f *fakeTx) Rollback(ctx context.Context) error {
	f.rolledBack = true
	return nil
}

// fakeStore hands out a single fakeTx and records failure rows written
// outside of it.
type fakeStore struct {
	tx       *fakeTx
	beginErr error
	failures []domain.Document
}

func (f *fakeStore) Begin(ctx context.Context) (domain.IngestTx, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	return f.tx, nil
}

func (f *fakeStore) RecordFailure(ctx context.Context, doc *domain.Document) error {
	f.failures = append(f.failures, *doc)
	return nil
}

func (f *fakeStore) GetDocumentByID(ctx context.Context, id string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}

func (f *fakeStore) GetChunksByDocument(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	return nil, nil
}
