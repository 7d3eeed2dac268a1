// Package milepostcmder
package milepostcmder

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	chatcmder "github.com/roadworksco/milepost/cmd/milepost/chat"
	configcmder "github.com/roadworksco/milepost/cmd/milepost/config"
	ingestcmder "github.com/roadworksco/milepost/cmd/milepost/ingest"
	querycmder "github.com/roadworksco/milepost/cmd/milepost/query"
	servecmder "github.com/roadworksco/milepost/cmd/milepost/serve"
	statuscmder "github.com/roadworksco/milepost/cmd/milepost/status"
	versioncmder "github.com/roadworksco/milepost/cmd/version"
)

const milepostLongDesc string = `Milepost answers questions about state DOT maintenance manuals.

Ingest manual PDFs into a vector store, then ask questions scoped to one
state. Answers cite the manual excerpts they came from, and questions about
work timing favor excerpts carrying time-of-day language.

Typical flow:
  milepost ingest --dir ./data/pdfs    Ingest manual PDFs
  milepost query -s CA "When can lane closures occur?"
  milepost chat                        Interactive question session
  milepost serve                       Run the HTTP API`

const milepostShortDesc string = "Milepost - maintenance manual Q&A"

func NewMilepostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milepost",
		Short: milepostShortDesc,
		Long:  milepostLongDesc,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// Optional .env for provider API keys (e.g. GROQ_API_KEY).
			_ = godotenv.Load()
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .milepost/ config directory")

	// Add subcommands
	cmd.AddCommand(ingestcmder.NewIngestCmd())
	cmd.AddCommand(querycmder.NewQueryCmd())
	cmd.AddCommand(chatcmder.NewChatCmd())
	cmd.AddCommand(statuscmder.NewStatusCmd())
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
