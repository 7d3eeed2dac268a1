// Package chunker cuts normalized page text into fixed-size overlapping
// windows and tags each window with the time-of-day keywords it mentions.
package chunker

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/manual/extract"
)

// Chunker splits manual text into windows of Size characters advancing by
// a stride derived from the overlap fraction. Windows are measured in
// runes so multi-byte characters are never split.
type Chunker struct {
	size     int
	stride   int
	keywords []string
}

// New validates the chunking parameters eagerly so a bad config fails the
// run before any PDF is touched. Size must be positive and overlap must be
// in [0, 1).
func New(size int, overlap float64, keywords []string) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= 1 {
		return nil, fmt.Errorf("chunk overlap must be in [0, 1), got %g", overlap)
	}

	stride := int(math.Round(float64(size) * (1 - overlap)))
	if stride < 1 {
		return nil, errors.New("chunk overlap leaves no forward progress")
	}

	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(strings.ToLower(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}

	return &Chunker{size: size, stride: stride, keywords: lowered}, nil
}

// Stride returns the window advance in runes.
func (c *Chunker) Stride() int {
	return c.stride
}

// Split cuts text into overlapping rune windows. The final window is
// shorter when the text doesn't divide evenly; whitespace-only windows are
// dropped.
func (c *Chunker) Split(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}

	var windows []string
	for start := 0; start < len(runes); start += c.stride {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		window := string(runes[start:end])
		if strings.TrimSpace(window) != "" {
			windows = append(windows, window)
		}

		// Once a window reaches the end of the text, any further window
		// would be a suffix of this one.
		if end == len(runes) {
			break
		}
	}

	return windows
}

// Tag reports whether text mentions any configured time keyword and which
// ones, matched case-insensitively as substrings. The returned list keeps
// the configured keyword order.
func (c *Chunker) Tag(text string) (bool, []string) {
	lowered := strings.ToLower(text)

	var matched []string
	for _, kw := range c.keywords {
		if strings.Contains(lowered, kw) {
			matched = append(matched, kw)
		}
	}

	return len(matched) > 0, matched
}

// ChunkDocument chunks every page of a document, assigning each chunk its
// page number and a file-global index that continues across page
// boundaries. The same input always yields the same chunks in the same
// order, which keeps vector store IDs stable across re-ingestion.
func (c *Chunker) ChunkDocument(state manual.State, title, sourceFile string, pages []extract.Page) []manual.Chunk {
	var chunks []manual.Chunk

	index := 0
	for _, page := range pages {
		for _, window := range c.Split(page.Text) {
			hasKeywords, matched := c.Tag(window)
			chunks = append(chunks, manual.Chunk{
				Text:            window,
				State:           state,
				Title:           title,
				SourceFile:      sourceFile,
				Page:            page.Number,
				Index:           index,
				HasTimeKeywords: hasKeywords,
				MatchedKeywords: matched,
			})
			index++
		}
	}

	return chunks
}
