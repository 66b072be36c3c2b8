package services

import (
	"regexp"
	"strings"
)

// ChunkerService splits extracted document text into retrieval-sized
// segments along paragraph boundaries.
type ChunkerService struct {
	maxChars       int
	paragraphRegex *regexp.Regexp
}

// NewChunkerService creates a chunker that caps chunks at maxChars.
func NewChunkerService(maxChars int) *ChunkerService {
	return &ChunkerService{
		maxChars:       maxChars,
		paragraphRegex: regexp.MustCompile(`\n\n+`),
	}
}

// Split breaks text into chunks. Paragraphs are accumulated greedily
// until adding the next one would exceed maxChars; a single paragraph
// longer than maxChars is emitted whole as its own chunk. Blank and
// whitespace-only paragraphs are dropped, so empty input yields no
// chunks.
func (cs *ChunkerService) Split(text string) []string {
	paragraphs := cs.paragraphRegex.Split(text, -1)

	var chunks []string
	var current strings.Builder
	currentLen := 0

	flush := func() {
		if currentLen > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
			currentLen = 0
		}
	}

	for _, paragraph := range paragraphs {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}

		if currentLen > 0 && currentLen+len(paragraph) > cs.maxChars {
			flush()
		}

		if currentLen > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(paragraph)
		currentLen += len(paragraph)
	}
	flush()

	return chunks
}
