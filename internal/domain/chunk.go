package domain

import "time"

// ChunkConfig controls how extracted text is split into chunks.
// All sizes are in tokens as counted by the configured Segmenter.
type ChunkConfig struct {
	TargetSize   int `json:"target_size"`
	Overlap      int `json:"overlap"`
	MinChunkSize int `json:"min_chunk_size"`
}

// DefaultChunkConfig matches the sizing used for embedding-oriented indexing.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		TargetSize:   512,
		Overlap:      50,
		MinChunkSize: 100,
	}
}

// Validate enforces the config invariants: positive sizes and overlap
// strictly below the target.
func (c ChunkConfig) Validate() error {
	if c.TargetSize <= 0 {
		return &ValidationError{Field: "target_size", Message: "target_size must be positive"}
	}
	if c.Overlap < 0 {
		return &ValidationError{Field: "overlap", Message: "overlap cannot be negative"}
	}
	if c.Overlap >= c.TargetSize {
		return &ValidationError{Field: "overlap", Message: "overlap must be less than target_size"}
	}
	if c.MinChunkSize <= 0 {
		return &ValidationError{Field: "min_chunk_size", Message: "min_chunk_size must be positive"}
	}
	return nil
}

// Chunk is one sentence-aligned segment of a document's cleaned text.
// Chunks of a document form a contiguous, index-ordered cover of the text;
// consecutive chunks may overlap but never leave a gap.
type Chunk struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"document_id"`
	Text          string    `json:"text"`
	Index         int       `json:"index"`
	CharStart     int       `json:"char_start"`
	CharEnd       int       `json:"char_end"`
	TokenCount    int       `json:"token_count"`
	SentenceCount int       `json:"sentence_count"`
	Embedding     []float32 `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
}

// CharacterCount returns the length of the chunk text in bytes, matching
// the persisted character_count column.
func (c *Chunk) CharacterCount() int {
	return len(c.Text)
}

// Sentence is one segment produced by a Segmenter, with byte offsets into
// the text it was segmented from.
type Sentence struct {
	Text  string
	Start int
	End   int
}
