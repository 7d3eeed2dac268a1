// Package manual defines the domain types for state DOT maintenance
// manuals: jurisdictions, text chunks, and the citations derived from them.
package manual

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/roadworksco/milepost/pkg/utils"
)

// State is a supported jurisdiction code.
type State string

const (
	StateCA State = "CA"
	StateTX State = "TX"
	StateWA State = "WA"
)

// States returns the supported jurisdictions in display order.
func States() []State {
	return []State{StateCA, StateTX, StateWA}
}

// Name returns the full jurisdiction name for display.
func (s State) Name() string {
	switch s {
	case StateCA:
		return "California"
	case StateTX:
		return "Texas"
	case StateWA:
		return "Washington"
	default:
		return string(s)
	}
}

// ParseState parses a jurisdiction code, case-insensitively.
func ParseState(s string) (State, bool) {
	switch State(strings.ToUpper(strings.TrimSpace(s))) {
	case StateCA:
		return StateCA, true
	case StateTX:
		return StateTX, true
	case StateWA:
		return StateWA, true
	default:
		return "", false
	}
}

// StateFromFilename extracts the jurisdiction from a manual filename.
// Expected format: {STATE}_*.pdf (e.g. CA_Caltrans_Maintenance_Manual.pdf).
// Returns false for files that don't carry a known prefix; callers skip
// those with a warning rather than failing the run.
func StateFromFilename(filename string) (State, bool) {
	base := filepath.Base(filename)
	prefix, _, found := strings.Cut(base, "_")
	if !found {
		return "", false
	}
	return ParseState(prefix)
}

// TitleFromFilename derives a friendly document title from a PDF filename:
// the extension is dropped and underscores become spaces.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.ReplaceAll(base, "_", " ")
}

// Chunk is a bounded span of extracted page text with attached metadata.
// Chunks are immutable once created; identity is (SourceFile, Index).
type Chunk struct {
	Text       string
	State      State
	Title      string
	SourceFile string

	// Page is the 1-based page the chunk was cut from. A chunk never
	// spans two pages.
	Page int

	// Index is the chunk's position within its source file, counted
	// across all pages.
	Index int

	HasTimeKeywords bool
	MatchedKeywords []string
}

// ID returns the stable identifier used to key the chunk in the vector
// store. Re-ingesting the same file produces the same IDs, which is what
// makes ingestion idempotent.
func (c Chunk) ID() string {
	return fmt.Sprintf("%s:%s:p%d:%d", c.State, c.SourceFile, c.Page, c.Index)
}

// ExcerptLength is the number of characters of chunk text carried into a
// citation snippet.
const ExcerptLength = 200

// Citation is the derived view of a chunk shown alongside a generated
// answer. It is produced for display, never persisted on its own.
type Citation struct {
	SourceFile      string   `json:"source_file"`
	Page            int      `json:"page"`
	Excerpt         string   `json:"excerpt"`
	HasTimeKeywords bool     `json:"has_time_keywords,omitempty"`
	MatchedKeywords []string `json:"matched_keywords,omitempty"`
}

// Cite derives the chunk's citation.
func (c Chunk) Cite() Citation {
	return Citation{
		SourceFile:      c.SourceFile,
		Page:            c.Page,
		Excerpt:         utils.Truncate(c.Text, ExcerptLength),
		HasTimeKeywords: c.HasTimeKeywords,
		MatchedKeywords: c.MatchedKeywords,
	}
}

// Ref formats the citation's source reference, e.g. "CA_Manual.pdf p.12".
func (ci Citation) Ref() string {
	return fmt.Sprintf("%s p.%d", ci.SourceFile, ci.Page)
}
