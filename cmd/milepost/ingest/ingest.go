// Package ingestcmder provides the ingest command for loading manual PDFs
// into the vector store.
package ingestcmder

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/cmd/milepost/wiring"
	"github.com/roadworksco/milepost/pkg/cliui"
	"github.com/roadworksco/milepost/pkg/ingest"
	"github.com/roadworksco/milepost/pkg/manual/chunker"
)

const ingestLongDesc string = `Ingest state DOT maintenance manual PDFs into the vector store.

PDF filenames must carry a state prefix: CA_, TX_, or WA_. Files without a
recognized prefix are skipped with a warning. Each manual is split into
overlapping chunks, tagged for time-of-day language, embedded, and stored.

Chunk IDs are stable, so re-running ingestion over the same files replaces
stored chunks instead of duplicating them.

Examples:
  milepost ingest
  milepost ingest --pdf-dir ./data/pdfs
  milepost ingest --overwrite`

const ingestShortDesc string = "Ingest manual PDFs into the vector store"

type ingestCommander struct {
	dir       string
	overwrite bool

	logger *zap.Logger
}

func NewIngestCmd() *cobra.Command {
	cmder := &ingestCommander{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: ingestShortDesc,
		Long:  ingestLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.dir, "pdf-dir", "p", "", "Directory of manual PDFs (default from config)")
	cmd.Flags().BoolVarP(&cmder.overwrite, "overwrite", "f", false, "Clear the collection before ingesting")

	return cmd
}

func (c *ingestCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := wiring.LoadConfig(cmd)
	if err != nil {
		return err
	}

	c.logger = wiring.NewLogger(cmd)
	defer func() { _ = c.logger.Sync() }()

	dir := cfg.Ingest.PDFDir
	if cmd.Flags().Changed("pdf-dir") {
		dir = c.dir
	}

	driver, err := wiring.NewDriver(cmd, cfg, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	embedder, err := wiring.NewEmbedder(cfg)
	if err != nil {
		return err
	}
	defer embedder.Close()

	if c.overwrite {
		if err := cliui.Step(os.Stdout, "Clearing collection", func() error {
			return driver.Reset(ctx)
		}); err != nil {
			return err
		}
	}

	ck, err := chunker.New(cfg.Chunk.Size, cfg.Chunk.Overlap, cfg.Chunk.TimeKeywords)
	if err != nil {
		return fmt.Errorf("configuring chunker: %w", err)
	}

	pipeline := ingest.NewPipeline(ck, embedder, driver, c.logger)
	pipeline.OnFile = func(filename string, index, total int) {
		fmt.Printf("  %s %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("[%d/%d]", index, total)),
			cliui.NameStyle.Render(filename),
		)
	}

	fmt.Printf("\n  Ingesting manuals from %s\n\n", cliui.DimStyle.Render(dir))

	start := time.Now()
	summary, err := pipeline.Run(ctx, dir)
	if err != nil {
		fmt.Printf("\n  %s Ingestion failed\n\n", cliui.FailMark)
		return err
	}

	c.printSummary(summary, time.Since(start))
	return nil
}

func (c *ingestCommander) printSummary(summary *ingest.Summary, elapsed time.Duration) {
	fmt.Println()
	for _, skipped := range summary.Skipped {
		fmt.Printf("  %s Skipped %s %s\n",
			cliui.WarnMark,
			cliui.NameStyle.Render(skipped),
			cliui.DimStyle.Render("(no CA_, TX_, or WA_ prefix)"),
		)
	}

	fmt.Printf("  %s Ingested %s files %s in %s\n",
		cliui.SuccessMark,
		cliui.NameStyle.Render(strconv.Itoa(summary.Files)),
		cliui.DimStyle.Render(fmt.Sprintf("(%d chunks, %d time-tagged)", summary.Chunks, summary.TimeChunks)),
		cliui.DimStyle.Render(cliui.FormatDuration(elapsed)),
	)

	states := make([]string, 0, len(summary.PerState))
	for state := range summary.PerState {
		states = append(states, state)
	}
	sort.Strings(states)

	for _, state := range states {
		fmt.Printf("    %s %s chunks\n",
			cliui.KeyStyle.Render(state),
			cliui.ValueStyle.Render(strconv.Itoa(summary.PerState[state])),
		)
	}
	fmt.Println()
}
