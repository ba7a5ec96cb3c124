package config

import (
	"os"
	"strconv"
	"strings"

	"pdf-ingest-server/internal/domain"
)

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort          string
	UploadPath          string
	MaxFileSize         int64
	MinFileSize         int64
	DatabaseURL         string
	LogLevel            string
	ChunkTargetSize     int
	ChunkOverlap        int
	ChunkMinSize        int
	AllowedContentTypes []string
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	chunkDefaults := domain.DefaultChunkConfig()
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:          getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		UploadPath:          getEnvOrDefault("UPLOAD_PATH", "./uploads"),
		MaxFileSize:         getEnvInt64OrDefault("MAX_FILE_SIZE", 50*1024*1024), // 50MB default
		MinFileSize:         getEnvInt64OrDefault("MIN_FILE_SIZE", 100),
		DatabaseURL:         getEnvOrDefault("DATABASE_URL", ""),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		ChunkTargetSize:     getEnvIntOrDefault("CHUNK_TARGET_SIZE", chunkDefaults.TargetSize),
		ChunkOverlap:        getEnvIntOrDefault("CHUNK_OVERLAP", chunkDefaults.Overlap),
		ChunkMinSize:        getEnvIntOrDefault("CHUNK_MIN_SIZE", chunkDefaults.MinChunkSize),
		AllowedContentTypes: getEnvListOrDefault("ALLOWED_CONTENT_TYPES", []string{"application/pdf"}),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetUploadPath returns the upload directory path
func (c *AppConfig) GetUploadPath() string {
	return c.UploadPath
}

// GetMaxFileSize returns the maximum allowed file size
func (c *AppConfig) GetMaxFileSize() int64 {
	return c.MaxFileSize
}

// GetMinFileSize returns the minimum plausible file size
func (c *AppConfig) GetMinFileSize() int64 {
	return c.MinFileSize
}

// GetDatabaseURL returns the Postgres connection string
func (c *AppConfig) GetDatabaseURL() string {
	return c.DatabaseURL
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetChunkConfig returns the chunk sizing configuration
func (c *AppConfig) GetChunkConfig() domain.ChunkConfig {
	return domain.ChunkConfig{
		TargetSize:   c.ChunkTargetSize,
		Overlap:      c.ChunkOverlap,
		MinChunkSize: c.ChunkMinSize,
	}
}

// GetAllowedContentTypes returns the content-type allow-list for uploads
func (c *AppConfig) GetAllowedContentTypes() []string {
	return c.AllowedContentTypes
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
