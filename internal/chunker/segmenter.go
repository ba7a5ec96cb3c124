package chunker

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"pdf-ingest-server/internal/domain"
)

// SentenceSegmenter is the default sentence-boundary collaborator. It splits
// text on terminal punctuation with a compiled pattern and defines a token as
// a maximal run of non-whitespace characters. Construct it once and share it;
// it holds no mutable state and is safe for concurrent use.
type SentenceSegmenter struct {
	splitter *regexp.Regexp
}

// NewSentenceSegmenter compiles the sentence pattern and returns a segmenter
// ready for concurrent use.
func NewSentenceSegmenter() *SentenceSegmenter {
	return &SentenceSegmenter{
		// A sentence is text up to and including a run of terminal
		// punctuation plus any closing quotes/brackets; a trailing
		// remainder without a terminator still counts as a sentence.
		splitter: regexp.MustCompile(`[^.!?]+[.!?]+["')\]]*|[^.!?]+`),
	}
}

// Sentences splits text into non-empty sentences with byte offsets into text.
// Surrounding whitespace is trimmed from every sentence and its offsets.
func (s *SentenceSegmenter) Sentences(text string) []domain.Sentence {
	spans := s.splitter.FindAllStringIndex(text, -1)
	sentences := make([]domain.Sentence, 0, len(spans))
	for _, span := range spans {
		start, end := trimSpan(text, span[0], span[1])
		if start >= end {
			continue
		}
		sentences = append(sentences, domain.Sentence{
			Text:  text[start:end],
			Start: start,
			End:   end,
		})
	}
	return sentences
}

// Tokenize splits text into whitespace-delimited tokens with byte offsets.
func (s *SentenceSegmenter) Tokenize(text string) []domain.Sentence {
	var tokens []domain.Sentence
	start := -1
	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, domain.Sentence{Text: text[start:i], Start: start, End: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, domain.Sentence{Text: text[start:], Start: start, End: len(text)})
	}
	return tokens
}

// CountTokens returns the number of tokens in text.
func (s *SentenceSegmenter) CountTokens(text string) int {
	if strings.TrimSpace(text) == "" {
		return 0
	}
	return len(strings.Fields(text))
}

// trimSpan shrinks [start,end) to exclude leading and trailing whitespace,
// decoding whole runes so multi-byte characters are never cut mid-sequence.
func trimSpan(text string, start, end int) (int, int) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}
