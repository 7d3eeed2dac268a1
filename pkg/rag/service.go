package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/embeddings"
	"github.com/roadworksco/milepost/pkg/llm"
	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/vector"
)

// AskRequest is a single question against one state's manual.
type AskRequest struct {
	Question string
	State    manual.State

	// TopK is the retrieval depth; zero uses the default and values are
	// clamped to the supported range.
	TopK int

	// IncludeChunks returns the retrieved chunks for debugging.
	IncludeChunks bool
}

// AskResponse is the answer plus retrieval diagnostics.
type AskResponse struct {
	Answer

	// TimeQuery reports whether the time-boosted retrieval path ran.
	TimeQuery bool `json:"time_query"`

	// Chunks carries the ranked retrieval results when requested.
	Chunks []Result `json:"chunks,omitempty"`
}

// Service is the question-answering facade shared by the CLI, the chat
// TUI, and the HTTP API.
type Service struct {
	retriever   *Retriever
	synthesizer *Synthesizer
	logger      *zap.Logger
}

// NewService assembles the pipeline from its parts.
func NewService(driver vector.Driver, embedder embeddings.Embedder, generator llm.Generator, opts SynthesizerOpts, logger *zap.Logger) *Service {
	return &Service{
		retriever:   NewRetriever(driver, embedder, logger),
		synthesizer: NewSynthesizer(generator, opts, logger),
		logger:      logger,
	}
}

// Ask retrieves relevant chunks and synthesizes a cited answer.
func (s *Service) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if req.Question == "" {
		return nil, fmt.Errorf("question is required")
	}
	if _, ok := manual.ParseState(string(req.State)); !ok {
		return nil, fmt.Errorf("unsupported state %q: must be one of CA, TX, WA", req.State)
	}

	results, err := s.retriever.Retrieve(ctx, req.Question, req.State, req.TopK)
	if err != nil {
		return nil, err
	}

	answer, err := s.synthesizer.Synthesize(ctx, req.Question, req.State, results)
	if err != nil {
		return nil, err
	}

	resp := &AskResponse{
		Answer:    *answer,
		TimeQuery: IsTimeQuery(req.Question),
	}
	if req.IncludeChunks {
		resp.Chunks = results
	}

	return resp, nil
}
