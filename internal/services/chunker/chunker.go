package chunker

import (
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/quaestor-ai/quaestor/internal/interfaces"
)

// ChunkingError indicates pages with text produced no chunks
type ChunkingError struct {
	Err error
}

func (e *ChunkingError) Error() string {
	return fmt.Sprintf("chunking failed: %v", e.Err)
}

func (e *ChunkingError) Unwrap() error {
	return e.Err
}

// Chunk is one window of page text. Index is 0-based and contiguous across
// the whole document; PageNumber records which page the window came from.
type Chunk struct {
	Index      int
	PageNumber int
	Text       string
}

// Chunker splits page text into overlapping fixed-size windows
type Chunker struct {
	size    int
	overlap int
	logger  arbor.ILogger
}

// NewChunker creates a chunker. An overlap >= size is treated as no overlap
// so the window always moves forward.
func NewChunker(size, overlap int, logger arbor.ILogger) *Chunker {
	if size <= 0 {
		size = 1000
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &Chunker{size: size, overlap: overlap, logger: logger}
}

// ChunkPages windows every page, numbering chunks continuously across pages.
// Windows that trim to nothing are skipped without consuming an index.
func (c *Chunker) ChunkPages(pages []interfaces.PDFPageContent) ([]Chunk, error) {
	var chunks []Chunk
	index := 0

	hasText := false
	for _, page := range pages {
		if strings.TrimSpace(page.Text) == "" {
			continue
		}
		hasText = true

		for _, text := range c.windows(page.Text) {
			chunks = append(chunks, Chunk{
				Index:      index,
				PageNumber: page.PageNumber,
				Text:       text,
			})
			index++
		}
	}

	if hasText && len(chunks) == 0 {
		return nil, &ChunkingError{Err: fmt.Errorf("no chunks produced from %d pages with text", len(pages))}
	}

	c.logger.Debug().
		Int("pages", len(pages)).
		Int("chunks", len(chunks)).
		Msg("Chunked document text")

	return chunks, nil
}

// windows slides a window of size characters over the text, stepping by
// size - overlap each time. Empty trimmed windows are dropped.
func (c *Chunker) windows(text string) []string {
	runes := []rune(text)
	step := c.size - c.overlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		window := strings.TrimSpace(string(runes[start:end]))
		if window != "" {
			out = append(out, window)
		}

		if end == len(runes) {
			break
		}
	}
	return out
}
