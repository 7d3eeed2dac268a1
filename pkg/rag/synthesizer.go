package rag

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/llm"
	"github.com/roadworksco/milepost/pkg/manual"
)

// Answer is a synthesized response with its supporting citations.
type Answer struct {
	// Text is the model's answer.
	Text string `json:"answer"`

	// Citations lists the retrieved chunks the answer was grounded on,
	// in ranking order.
	Citations []manual.Citation `json:"citations"`

	// Model is the model that produced the answer.
	Model string `json:"model,omitempty"`

	// Usage carries token counts when the provider reports them.
	Usage *llm.Usage `json:"usage,omitempty"`
}

// SynthesizerOpts tune generation.
type SynthesizerOpts struct {
	MaxTokens   int
	Temperature float64
}

// Synthesizer turns retrieved chunks into a cited answer via an LLM.
type Synthesizer struct {
	generator llm.Generator
	opts      SynthesizerOpts
	logger    *zap.Logger
}

// NewSynthesizer creates a synthesizer over the given generator.
func NewSynthesizer(generator llm.Generator, opts SynthesizerOpts, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		generator: generator,
		opts:      opts,
		logger:    logger,
	}
}

// Synthesize generates an answer to the question from the retrieved
// chunks. A single attempt is made; provider errors surface verbatim so
// the operator sees exactly what the backend reported.
func (s *Synthesizer) Synthesize(ctx context.Context, question string, state manual.State, results []Result) (*Answer, error) {
	if len(results) == 0 {
		return &Answer{
			Text: fmt.Sprintf("No relevant information found in the %s maintenance manual for this query.", state),
		}, nil
	}

	req := &llm.ChatRequest{
		System: systemPrompt,
		Messages: []llm.Message{
			llm.NewUserMessage(buildUserPrompt(string(state), results, question)),
		},
	}
	if s.opts.MaxTokens > 0 {
		req.MaxTokens = &s.opts.MaxTokens
	}
	if s.opts.Temperature > 0 {
		req.Temperature = &s.opts.Temperature
	}

	resp, err := s.generator.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generating answer: %w", err)
	}

	citations := make([]manual.Citation, 0, len(results))
	for _, r := range results {
		citations = append(citations, r.Cite())
	}

	s.logger.Debug("synthesized answer",
		zap.String("state", string(state)),
		zap.String("model", resp.Model),
		zap.Int("citations", len(citations)),
	)

	return &Answer{
		Text:      resp.Message.Content,
		Citations: citations,
		Model:     resp.Model,
		Usage:     resp.Usage,
	}, nil
}
