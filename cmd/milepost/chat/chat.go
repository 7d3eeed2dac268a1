// Package chatcmder provides the chat command: an interactive TUI for
// asking questions against ingested state manuals.
package chatcmder

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/cmd/milepost/wiring"
	"github.com/roadworksco/milepost/pkg/manual"
)

const chatLongDesc string = `Start an interactive question session against ingested manuals.

Questions run through the same retrieval pipeline as "milepost query":
state-filtered vector search, time-aware re-ranking, and a cited answer.
Tab cycles the active state between CA, TX, and WA.

Examples:
  milepost chat
  milepost chat --state TX`

const chatShortDesc string = "Interactive manual Q&A session"

type chatCommander struct {
	state string
	topK  int

	logger *zap.Logger
}

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.state, "state", "s", "CA", "Initial state manual (CA, TX, or WA)")
	cmd.Flags().IntVarP(&cmder.topK, "top", "k", 0, "Number of chunks to retrieve (default from config)")

	return cmd
}

func (c *chatCommander) run(cmd *cobra.Command) error {
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

	return runChatTUI(cmd.Context(), service, state, topK)
}
