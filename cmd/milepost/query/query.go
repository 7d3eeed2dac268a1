// Package querycmder provides the query command for one-shot questions
// against an ingested manual.
package querycmder

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/cmd/milepost/wiring"
	"github.com/roadworksco/milepost/pkg/cliui"
	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/rag"
	"github.com/roadworksco/milepost/pkg/vector"
)

const queryLongDesc string = `Ask a question against one state's maintenance manual.

Retrieves the most relevant manual chunks for the question, scoped to the
given state, and synthesizes a cited answer. Questions about work timing
(night work, lane closure hours, curfews) favor chunks carrying
time-of-day language.

Examples:
  milepost query -s CA "When can lane closures occur?"
  milepost query -s TX --top 15 "What are the mowing requirements?"
  milepost query -s WA --show-chunks "Are there nighttime noise limits?"`

const queryShortDesc string = "Ask a question against a state manual"

type queryCommander struct {
	state      string
	topK       int
	showChunks bool

	logger *zap.Logger
}

func NewQueryCmd() *cobra.Command {
	cmder := &queryCommander{}

	cmd := &cobra.Command{
		Use:   "query <question>",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.state, "state", "s", "", "State manual to query (CA, TX, or WA)")
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 0, "Number of chunks to retrieve (default from config)")
	cmd.Flags().BoolVar(&cmder.showChunks, "show-chunks", false, "Print the retrieved chunks under the answer")
	_ = cmd.MarkFlagRequired("state")

	return cmd
}

func (c *queryCommander) run(cmd *cobra.Command, question string) error {
	ctx := cmd.Context()

	state, ok := manual.ParseState(c.state)
	if !ok {
		return fmt.Errorf("unsupported state %q: must be one of CA, TX, WA", c.state)
	}

	cfg, err := wiring.LoadConfig(cmd)
	if err != nil {
		return err
	}

	c.logger = wiring.NewLogger(cmd)
	defer func() { _ = c.logger.Sync() }()

	service, _, cleanup, err := wiring.NewService(cmd, cfg, c.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	topK := cfg.Retrieval.TopK
	if cmd.Flags().Changed("top") {
		topK = c.topK
	}

	var resp *rag.AskResponse
	err = cliui.Step(os.Stdout, fmt.Sprintf("Querying %s manual", state), func() error {
		var askErr error
		resp, askErr = service.Ask(ctx, rag.AskRequest{
			Question:      question,
			State:         state,
			TopK:          topK,
			IncludeChunks: c.showChunks,
		})
		return askErr
	})
	if err != nil {
		if errors.Is(err, vector.ErrNoCollection) {
			fmt.Printf("\n  %s %s\n\n", cliui.FailMark, "Nothing ingested yet. Run `milepost ingest` first.")
		}
		return err
	}

	c.printAnswer(resp)
	return nil
}

func (c *queryCommander) printAnswer(resp *rag.AskResponse) {
	rendered, err := cliui.RenderMarkdown(resp.Text)
	if err != nil {
		// Fall back to the raw answer text.
		rendered = "\n" + resp.Text + "\n"
	}
	fmt.Print(rendered)

	if resp.TimeQuery {
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Time-of-day question: excerpts with timing language were favored."))
	}

	if len(resp.Citations) > 0 {
		fmt.Printf("  %s\n", cliui.KeyStyle.Render("Sources:"))
		for _, citation := range resp.Citations {
			marker := " "
			if citation.HasTimeKeywords {
				marker = cliui.WarnMark
			}
			fmt.Printf("  %s %s\n", marker, cliui.CitationStyle.Render(citation.Ref()))
		}
		fmt.Println()
	}

	if resp.Model != "" {
		usage := ""
		if resp.Usage != nil {
			usage = fmt.Sprintf(" (%d prompt + %d completion tokens)",
				resp.Usage.PromptTokens, resp.Usage.CompletionTokens)
		}
		fmt.Printf("  %s\n\n", cliui.DimStyle.Render("Answered by "+resp.Model+usage))
	}

	if c.showChunks && len(resp.Chunks) > 0 {
		fmt.Printf("  %s\n", cliui.KeyStyle.Render("Retrieved chunks:"))
		for i, chunk := range resp.Chunks {
			boost := ""
			if chunk.Boosted {
				boost = " boosted"
			}
			fmt.Printf("  %d. %s %s\n",
				i+1,
				cliui.NameStyle.Render(fmt.Sprintf("%s p.%d", chunk.Metadata.SourceFile, chunk.Metadata.Page)),
				cliui.DimStyle.Render(fmt.Sprintf("(score %.3f%s)", chunk.FinalScore, boost)),
			)
			fmt.Printf("     %s\n", cliui.DimStyle.Render(chunk.Cite().Excerpt))
		}
		fmt.Println()
	}
}
