// Package chunker cuts cleaned document text into overlapping fixed-size windows.
//
// Sizes are measured in characters (runes), so multi-byte text is never split
// in the middle of a code point.
package chunker

import (
	"fmt"

	"rag-chat-platform/models"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 100
)

// Chunker holds a validated size/overlap pair
type Chunker struct {
	size    int
	overlap int
}

// New validates the window configuration. An overlap equal to or larger than
// the size would never advance, so it is rejected up front.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", overlap)
	}
	if overlap >= size {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", overlap, size)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the window length
func (c *Chunker) Size() int { return c.size }

// Overlap returns the number of characters shared by consecutive windows
func (c *Chunker) Overlap() int { return c.overlap }

// Split returns consecutive windows of at most Size characters. Every window
// after the first starts Overlap characters before the end of the previous one.
// The last window may be shorter; empty text yields no windows.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}

	step := c.size - c.overlap
	chunks := make([]string, 0, n/step+1)
	for start := 0; ; start += step {
		end := start + c.size
		if end > n {
			end = n
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == n {
			break
		}
	}
	return chunks
}

// ChunkDocument splits the text of one source page into DocumentChunks
func (c *Chunker) ChunkDocument(sourceURL, text string) []models.DocumentChunk {
	windows := c.Split(text)
	chunks := make([]models.DocumentChunk, len(windows))
	for i, w := range windows {
		chunks[i] = models.DocumentChunk{
			Text:          w,
			SourceURL:     sourceURL,
			SequenceIndex: i,
		}
	}
	return chunks
}

// Split is a convenience wrapper around New(size, overlap).Split(text)
func Split(text string, size, overlap int) ([]string, error) {
	c, err := New(size, overlap)
	if err != nil {
		return nil, err
	}
	return c.Split(text), nil
}
