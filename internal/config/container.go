package config

import (
	"context"

	"pdf-ingest-server/internal/chunker"
	"pdf-ingest-server/internal/domain"
	"pdf-ingest-server/internal/repository"
	"pdf-ingest-server/internal/service"
	"pdf-ingest-server/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config        domain.Config
	Logger        domain.Logger
	Store         *repository.PostgresStore
	Segmenter     domain.Segmenter
	IngestService *service.IngestService
}

// NewContainer creates a new dependency injection container
func NewContainer(ctx context.Context) (*Container, error) {
	cfg := NewConfig()
	appLogger := logger.NewLogger(cfg.GetLogLevel())

	store, err := repository.NewPostgresStore(ctx, cfg.GetDatabaseURL(), appLogger)
	if err != nil {
		return nil, err
	}

	files, err := service.NewLocalFileStore(cfg.GetUploadPath(), appLogger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	// The segmenter is loaded once and shared; it is immutable and safe
	// for concurrent invocations.
	segmenter := chunker.NewSentenceSegmenter()

	textChunker, err := chunker.NewTextChunker(cfg.GetChunkConfig(), segmenter, appLogger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	validator := service.NewPDFValidator(cfg.GetMaxFileSize(), cfg.GetMinFileSize(), appLogger)
	extractor := service.NewTextExtractor(appLogger)

	ingestService := service.NewIngestService(store, files, validator, extractor, textChunker, appLogger)

	return &Container{
		Config:        cfg,
		Logger:        appLogger,
		Store:         store,
		Segmenter:     segmenter,
		IngestService: ingestService,
	}, nil
}

// Close releases long-lived resources held by the container.
func (c *Container) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
