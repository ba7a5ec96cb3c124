package chunker

import (
	"strings"

	"pdf-ingest-server/internal/domain"
	apperrors "pdf-ingest-server/pkg/errors"
)

// TextChunker groups sentences into token-bounded chunks with overlap.
// It is a pure function over its input text; all sizing decisions are
// delegated to the Segmenter's token definition.
type TextChunker struct {
	config    domain.ChunkConfig
	segmenter domain.Segmenter
	logger    domain.Logger
}

// NewTextChunker validates the config and returns a chunker bound to the
// given segmenter.
func NewTextChunker(config domain.ChunkConfig, segmenter domain.Segmenter, logger domain.Logger) (*TextChunker, error) {
	if err := config.Validate(); err != nil {
		return nil, apperrors.NewValidationError("invalid chunk configuration", err.Error())
	}
	return &TextChunker{
		config:    config,
		segmenter: segmenter,
		logger:    logger,
	}, nil
}

// ChunkText splits cleaned text into sentence-aligned chunks near the target
// token size. Consecutive chunks share an overlap of trailing sentences whose
// token sum stays within 1.5x the configured overlap; this soft cap is part
// of the chunk-boundary contract and must not be tightened.
func (c *TextChunker) ChunkText(text string, documentID string) ([]domain.Chunk, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewChunkingError("input text is empty or whitespace-only", nil)
	}

	sentences := c.segmenter.Sentences(text)
	if len(sentences) == 0 {
		return nil, apperrors.NewChunkingError("no sentences found in text", nil)
	}

	var chunks []domain.Chunk
	var window []domain.Sentence
	windowTokens := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunks = append(chunks, c.finalize(window, documentID, len(chunks)))
	}

	for _, sent := range sentences {
		sentTokens := c.segmenter.CountTokens(sent.Text)

		// A single sentence above the target size cannot be packed; flush
		// whatever accumulated and emit the sentence as token fragments.
		if sentTokens > c.config.TargetSize {
			flush()
			window = nil
			windowTokens = 0
			for _, frag := range c.splitOversized(text, sent) {
				frag.DocumentID = documentID
				frag.Index = len(chunks)
				chunks = append(chunks, frag)
			}
			continue
		}

		if len(window) > 0 && windowTokens+sentTokens > c.config.TargetSize {
			flush()
			window = c.overlapTail(window)
			windowTokens = 0
			for _, s := range window {
				windowTokens += c.segmenter.CountTokens(s.Text)
			}
		}

		window = append(window, sent)
		windowTokens += sentTokens
	}

	flush()

	// Sentence offsets are whitespace-trimmed, so when no overlap seeds the
	// next window the chunks are separated by the whitespace between
	// sentences. Extend each chunk across that separator so consecutive
	// chunks cover the source without a gap.
	for i := 1; i < len(chunks); i++ {
		if chunks[i].CharStart > chunks[i-1].CharEnd {
			chunks[i-1].CharEnd = chunks[i].CharStart
		}
	}

	if c.logger != nil {
		c.logger.Debug("text chunked", "chunks", len(chunks), "sentences", len(sentences))
	}
	return chunks, nil
}

// finalize joins a window of sentences into one chunk. The token count is
// recomputed over the joined text rather than summed, so joining artifacts
// are accounted for.
func (c *TextChunker) finalize(window []domain.Sentence, documentID string, index int) domain.Chunk {
	parts := make([]string, len(window))
	for i, s := range window {
		parts[i] = s.Text
	}
	text := strings.Join(parts, " ")
	return domain.Chunk{
		DocumentID:    documentID,
		Text:          text,
		Index:         index,
		CharStart:     window[0].Start,
		CharEnd:       window[len(window)-1].End,
		TokenCount:    c.segmenter.CountTokens(text),
		SentenceCount: len(window),
	}
}

// splitOversized cuts one sentence into fixed-size token fragments. Each
// fragment is its own single-sentence chunk; no overlap is applied within a
// split sentence. Fragment text is sliced from the source so offsets stay
// exact.
func (c *TextChunker) splitOversized(text string, sent domain.Sentence) []domain.Chunk {
	tokens := c.segmenter.Tokenize(sent.Text)
	var fragments []domain.Chunk
	for i := 0; i < len(tokens); i += c.config.TargetSize {
		j := i + c.config.TargetSize
		if j > len(tokens) {
			j = len(tokens)
		}
		start := sent.Start + tokens[i].Start
		end := sent.Start + tokens[j-1].End
		fragments = append(fragments, domain.Chunk{
			Text:          text[start:end],
			CharStart:     start,
			CharEnd:       end,
			TokenCount:    j - i,
			SentenceCount: 1,
		})
	}
	return fragments
}

// overlapTail selects trailing sentences of the flushed window to seed the
// next one. It accumulates backward and stops before the token sum would
// exceed overlap x 1.5, so the configured overlap is a lower target with a
// tolerance band, not an exact count.
func (c *TextChunker) overlapTail(window []domain.Sentence) []domain.Sentence {
	if c.config.Overlap == 0 {
		return nil
	}
	limit := float64(c.config.Overlap) * 1.5
	var tail []domain.Sentence
	tokens := 0
	for i := len(window) - 1; i >= 0; i-- {
		n := c.segmenter.CountTokens(window[i].Text)
		if float64(tokens+n) > limit {
			break
		}
		tail = append([]domain.Sentence{window[i]}, tail...)
		tokens += n
	}
	return tail
}
