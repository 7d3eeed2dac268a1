// Package configcmder provides the config command for managing persistent
// milepost configuration stored in the .milepost/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent milepost configuration.

Configuration is stored as config.toml in the .milepost/ directory and
provides default values for command flags. CLI flags always take precedence
over config file values, and MILEPOST_* environment variables sit between
the two.

Keys use dotted notation matching the TOML section structure:
  ingest.pdf_dir,
  chunk.size, chunk.overlap, chunk.time_keywords,
  vector_store.provider, vector_store.target, vector_store.collection,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  llm.provider, llm.target, llm.model, llm.api_key_env,
  llm.max_tokens, llm.temperature,
  retrieval.top_k, api.listen

Use subcommands to get, set, or list configuration values:
  milepost config set <key> <value>    Set a configuration value
  milepost config get <key>            Get a configuration value
  milepost config list                 List all configuration values

Examples:
  milepost config set llm.provider groq
  milepost config set embedding.model nomic-embed-text
  milepost config get vector_store.provider
  milepost config list`

const configShortDesc string = "Manage persistent milepost configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
