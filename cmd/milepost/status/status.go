// Package statuscmder provides the status command for inspecting what the
// vector store currently holds.
package statuscmder

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/cmd/milepost/wiring"
	"github.com/roadworksco/milepost/pkg/cliui"
)

const statusLongDesc string = `Show what the vector store currently holds.

Reports chunk counts per state, the total, and the embedding model the
collection was ingested with. Queries refuse to run against a collection
ingested with a different embedding model than the one configured.

Examples:
  milepost status`

const statusShortDesc string = "Show vector store contents"

type statusCommander struct {
	logger *zap.Logger
}

func NewStatusCmd() *cobra.Command {
	cmder := &statusCommander{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: statusShortDesc,
		Long:  statusLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	return cmd
}

func (c *statusCommander) run(cmd *cobra.Command) error {
	ctx := cmd.Context()

	cfg, err := wiring.LoadConfig(cmd)
	if err != nil {
		return err
	}

	c.logger = wiring.NewLogger(cmd)
	defer func() { _ = c.logger.Sync() }()

	driver, err := wiring.NewDriver(cmd, cfg, c.logger)
	if err != nil {
		return err
	}
	defer driver.Close()

	total, err := driver.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}

	fmt.Println()
	fmt.Printf("  %s %s %s\n",
		cliui.KeyStyle.Render("Store:"),
		cliui.NameStyle.Render(cfg.VectorStore.Provider),
		cliui.DimStyle.Render(fmt.Sprintf("(collection %s)", cfg.VectorStore.Collection)),
	)

	if total == 0 {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Empty. Run `milepost ingest` to load manual PDFs."))
		return nil
	}

	perState, err := driver.StateCounts(ctx)
	if err != nil {
		return fmt.Errorf("counting chunks by state: %w", err)
	}

	model, err := driver.EmbeddingModel(ctx)
	if err != nil {
		return fmt.Errorf("reading embedding model: %w", err)
	}

	fmt.Printf("  %s %s\n",
		cliui.KeyStyle.Render("Chunks:"),
		cliui.ValueStyle.Render(strconv.Itoa(total)),
	)

	states := make([]string, 0, len(perState))
	for state := range perState {
		states = append(states, state)
	}
	sort.Strings(states)

	for _, state := range states {
		fmt.Printf("    %s %s\n",
			cliui.KeyStyle.Render(state),
			cliui.ValueStyle.Render(strconv.Itoa(perState[state])),
		)
	}

	if model != "" {
		fmt.Printf("  %s %s\n",
			cliui.KeyStyle.Render("Embedding model:"),
			cliui.NameStyle.Render(model),
		)
		if model != cfg.Embedding.Model {
			fmt.Printf("  %s Configured model is %s; queries will refuse until they match\n",
				cliui.WarnMark,
				cliui.NameStyle.Render(cfg.Embedding.Model),
			)
		}
	}

	fmt.Println()
	return nil
}
