// Package servecmder provides the serve command for running the HTTP API.
package servecmder

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/api"
	"github.com/roadworksco/milepost/cmd/milepost/wiring"
)

const serveLongDesc string = `Run the milepost HTTP API.

Serves the question-answering pipeline over HTTP:
  GET  /healthz          Health check
  GET  /api/v1/status    Chunk counts and the recorded embedding model
  POST /api/v1/query     Ask a question against one state's manual

Examples:
  milepost serve
  milepost serve --listen :9000`

const serveShortDesc string = "Run the HTTP API"

type serveCommander struct {
	listen string

	logger *zap.Logger
}

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.run(cmd)
		},
	}

	cmd.Flags().StringVarP(&cmder.listen, "listen", "l", "", "Address to listen on (default from config)")

	return cmd
}

func (c *serveCommander) run(cmd *cobra.Command) error {
	cfg, err := wiring.LoadConfig(cmd)
	if err != nil {
		return err
	}

	c.logger = wiring.NewLogger(cmd)
	defer func() { _ = c.logger.Sync() }()

	listen := cfg.API.Listen
	if cmd.Flags().Changed("listen") {
		listen = c.listen
	}

	service, driver, cleanup, err := wiring.NewService(cmd, cfg, c.logger)
	if err != nil {
		return err
	}
	defer cleanup()

	server := api.NewServer(api.Config{ListenAddr: listen}, service, driver, c.logger)

	c.logger.Info("starting api server",
		zap.String("listen", listen),
		zap.String("vector_store", cfg.VectorStore.Provider),
		zap.String("llm", cfg.LLM.Provider),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return server.Shutdown()
	}
}
