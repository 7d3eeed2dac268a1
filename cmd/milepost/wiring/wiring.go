// Package wiring builds the shared pipeline pieces (config, vector driver,
// embedder, generator) that milepost commands assemble in different
// combinations.
package wiring

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/config"
	"github.com/roadworksco/milepost/pkg/dotdir"
	"github.com/roadworksco/milepost/pkg/embeddings"
	embeddingutils "github.com/roadworksco/milepost/pkg/embeddings/utils"
	"github.com/roadworksco/milepost/pkg/llm"
	llmutils "github.com/roadworksco/milepost/pkg/llm/utils"
	"github.com/roadworksco/milepost/pkg/logger"
	"github.com/roadworksco/milepost/pkg/rag"
	"github.com/roadworksco/milepost/pkg/vector"
	vectorutils "github.com/roadworksco/milepost/pkg/vector/utils"
)

// sqliteDBFile is the default database filename used when the sqlitevec
// provider has no explicit target path configured.
const sqliteDBFile = "milepost.db"

// LoadConfig resolves the effective Config for a command: defaults, then
// config.toml from the resolved .milepost/ directory, then MILEPOST_* env
// vars. The --config-dir persistent flag overrides directory discovery.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}

	return config.FromViper(v), nil
}

// NewLogger builds the command logger from the persistent --debug flag.
func NewLogger(cmd *cobra.Command) *zap.Logger {
	debug, _ := cmd.Flags().GetBool("debug")
	return logger.NewLogger(debug)
}

// NewDriver creates the configured vector store driver. For the sqlitevec
// provider the target is a file path; an unset or URL-shaped target falls
// back to milepost.db inside the resolved .milepost/ directory.
func NewDriver(cmd *cobra.Command, cfg *config.Config, log *zap.Logger) (vector.Driver, error) {
	target := cfg.VectorStore.Target
	if cfg.VectorStore.Provider == "sqlitevec" {
		var err error
		target, err = resolveSQLitePath(cmd, target)
		if err != nil {
			return nil, err
		}
	}

	driver, err := vectorutils.NewDriver(&vectorutils.NewDriverOpts{
		ProviderType:   cfg.VectorStore.Provider,
		TargetURL:      target,
		CollectionName: cfg.VectorStore.Collection,
		Dimensions:     cfg.Embedding.Dimensions,
		Logger:         log,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector store driver: %w", err)
	}

	return driver, nil
}

// NewEmbedder creates the configured embedding provider.
func NewEmbedder(cfg *config.Config) (embeddings.Embedder, error) {
	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}

	return embedder, nil
}

// NewGenerator creates the configured LLM provider.
func NewGenerator(cfg *config.Config) (llm.Generator, error) {
	generator, err := llmutils.NewGenerator(&llmutils.NewGeneratorOpts{
		ProviderType: cfg.LLM.Provider,
		TargetURL:    cfg.LLM.Target,
		Model:        cfg.LLM.Model,
		APIKeyEnv:    cfg.LLM.APIKeyEnv,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm provider: %w", err)
	}

	return generator, nil
}

// NewService wires the full question-answering pipeline. The returned
// cleanup closes the driver, embedder, and generator.
func NewService(cmd *cobra.Command, cfg *config.Config, log *zap.Logger) (*rag.Service, vector.Driver, func(), error) {
	driver, err := NewDriver(cmd, cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}

	embedder, err := NewEmbedder(cfg)
	if err != nil {
		driver.Close()
		return nil, nil, nil, err
	}

	generator, err := NewGenerator(cfg)
	if err != nil {
		driver.Close()
		embedder.Close()
		return nil, nil, nil, err
	}

	service := rag.NewService(driver, embedder, generator, rag.SynthesizerOpts{
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	}, log)

	cleanup := func() {
		generator.Close()
		embedder.Close()
		driver.Close()
	}

	return service, driver, cleanup, nil
}

// resolveSQLitePath turns the configured vector store target into a
// database file path, defaulting into the .milepost/ directory when the
// target is unset or still holds a server URL from another provider.
func resolveSQLitePath(cmd *cobra.Command, target string) (string, error) {
	if target != "" && !isURL(target) {
		return target, nil
	}

	configDir, _ := cmd.Flags().GetString("config-dir")
	dir, err := dotdir.NewManager().Target(configDir)
	if err != nil {
		return "", fmt.Errorf("resolving database path: %w", err)
	}

	return filepath.Join(dir, sqliteDBFile), nil
}

func isURL(target string) bool {
	if !strings.Contains(target, "://") {
		return false
	}
	u, err := url.Parse(target)
	return err == nil && u.Scheme != ""
}
