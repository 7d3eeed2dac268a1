// Package ingest runs the PDF-to-vector-store pipeline: discover manuals,
// extract page text, chunk, embed, and upsert.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/embeddings"
	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/manual/chunker"
	"github.com/roadworksco/milepost/pkg/manual/extract"
	"github.com/roadworksco/milepost/pkg/vector"
)

// addBatchSize bounds the number of documents upserted per driver call.
const addBatchSize = 100

// Summary reports what an ingestion run did.
type Summary struct {
	// Files is the number of PDFs ingested.
	Files int

	// Skipped lists files passed over for not carrying a known state
	// prefix.
	Skipped []string

	// Chunks is the total number of chunks stored.
	Chunks int

	// TimeChunks is how many of those carry time keywords.
	TimeChunks int

	// PerState tallies chunks by state code.
	PerState map[string]int
}

// FileProgress is invoked before each file is processed, for progress
// display.
type FileProgress func(filename string, index, total int)

// Pipeline ingests manual PDFs into a vector store.
type Pipeline struct {
	chunker  *chunker.Chunker
	embedder embeddings.Embedder
	driver   vector.Driver
	logger   *zap.Logger

	// OnFile, when set, is called as each file starts.
	OnFile FileProgress

	// Extractor pulls page text from a PDF path. Defaults to
	// extract.Extract; tests substitute their own.
	Extractor func(path string) ([]extract.Page, error)
}

// NewPipeline assembles an ingestion pipeline.
func NewPipeline(ck *chunker.Chunker, embedder embeddings.Embedder, driver vector.Driver, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		chunker:   ck,
		embedder:  embedder,
		driver:    driver,
		logger:    logger,
		Extractor: extract.Extract,
	}
}

// listPDFs returns the PDF filenames in dir, sorted for deterministic
// ingestion order.
func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading PDF directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			names = append(names, entry.Name())
		}
	}

	sort.Strings(names)
	return names, nil
}

// Run ingests every recognized PDF in dir. Files without a known state
// prefix are skipped with a warning rather than failing the run. Chunk IDs
// are stable, so re-running over the same files replaces rather than
// duplicates.
func (p *Pipeline) Run(ctx context.Context, dir string) (*Summary, error) {
	names, err := listPDFs(dir)
	if err != nil {
		return nil, err
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("no PDF files found in %s", dir)
	}

	summary := &Summary{PerState: make(map[string]int)}

	for i, name := range names {
		if p.OnFile != nil {
			p.OnFile(name, i+1, len(names))
		}

		state, ok := manual.StateFromFilename(name)
		if !ok {
			p.logger.Warn("skipping file without a recognized state prefix",
				zap.String("file", name),
			)
			summary.Skipped = append(summary.Skipped, name)
			continue
		}

		if err := p.ingestFile(ctx, dir, name, state, summary); err != nil {
			return nil, fmt.Errorf("ingesting %s: %w", name, err)
		}

		summary.Files++
	}

	if summary.Files == 0 {
		return nil, fmt.Errorf("no ingestable PDFs in %s: filenames must start with CA_, TX_ or WA_", dir)
	}

	// Record the model last so a crashed run never leaves a model claim
	// without its vectors.
	if err := p.driver.SetEmbeddingModel(ctx, p.embedder.Model()); err != nil {
		return nil, fmt.Errorf("recording embedding model: %w", err)
	}

	p.logger.Info("ingestion complete",
		zap.Int("files", summary.Files),
		zap.Int("chunks", summary.Chunks),
		zap.Int("time_chunks", summary.TimeChunks),
		zap.Int("skipped", len(summary.Skipped)),
	)

	return summary, nil
}

func (p *Pipeline) ingestFile(ctx context.Context, dir, name string, state manual.State, summary *Summary) error {
	pages, err := p.Extractor(filepath.Join(dir, name))
	if err != nil {
		return err
	}

	title := manual.TitleFromFilename(name)
	chunks := p.chunker.ChunkDocument(state, title, name, pages)

	p.logger.Debug("chunked file",
		zap.String("file", name),
		zap.Int("pages", len(pages)),
		zap.Int("chunks", len(chunks)),
	)

	batch := make([]vector.Document, 0, addBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := p.driver.Add(ctx, batch); err != nil {
			return err
		}
		batch = batch[:0]
		return nil
	}

	for _, chunk := range chunks {
		embedding, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embedding chunk %s: %w", chunk.ID(), err)
		}

		batch = append(batch, vector.Document{
			ID:        chunk.ID(),
			Text:      chunk.Text,
			Embedding: embedding,
			Metadata: vector.Metadata{
				State:           string(chunk.State),
				Title:           chunk.Title,
				SourceFile:      chunk.SourceFile,
				Page:            chunk.Page,
				ChunkIndex:      chunk.Index,
				HasTimeKeywords: chunk.HasTimeKeywords,
				MatchedKeywords: chunk.MatchedKeywords,
				CharCount:       len([]rune(chunk.Text)),
			},
		})

		if len(batch) == addBatchSize {
			if err := flush(); err != nil {
				return err
			}
		}

		summary.Chunks++
		summary.PerState[string(chunk.State)]++
		if chunk.HasTimeKeywords {
			summary.TimeChunks++
		}
	}

	return flush()
}
