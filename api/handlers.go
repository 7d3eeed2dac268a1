package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/rag"
	"github.com/roadworksco/milepost/pkg/vector"
)

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}

// QueryRequest is the POST /api/v1/query body.
type QueryRequest struct {
	Question      string `json:"question"`
	State         string `json:"state"`
	TopK          int    `json:"top_k,omitempty"`
	IncludeChunks bool   `json:"include_chunks,omitempty"`
}

// StatusResponse reports what the store currently holds.
type StatusResponse struct {
	TotalChunks    int            `json:"total_chunks"`
	PerState       map[string]int `json:"per_state"`
	EmbeddingModel string         `json:"embedding_model,omitempty"`
}

// handleHealthz returns a simple health check response.
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON("ok")
}

// handleStatus returns chunk counts and the recorded embedding model.
func (s *Server) handleStatus(c *fiber.Ctx) error {
	ctx := c.Context()

	count, err := s.driver.Count(ctx)
	if err != nil {
		s.logger.Error("counting chunks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to count chunks"})
	}

	perState, err := s.driver.StateCounts(ctx)
	if err != nil {
		s.logger.Error("counting chunks by state", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to count chunks by state"})
	}

	model, err := s.driver.EmbeddingModel(ctx)
	if err != nil {
		s.logger.Error("reading embedding model", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to read embedding model"})
	}

	return c.JSON(StatusResponse{
		TotalChunks:    count,
		PerState:       perState,
		EmbeddingModel: model,
	})
}

// handleQuery answers a question against one state's manual.
func (s *Server) handleQuery(c *fiber.Ctx) error {
	var req QueryRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	if req.Question == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "question is required"})
	}

	state, ok := manual.ParseState(req.State)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "state must be one of CA, TX, WA"})
	}

	resp, err := s.service.Ask(c.Context(), rag.AskRequest{
		Question:      req.Question,
		State:         state,
		TopK:          req.TopK,
		IncludeChunks: req.IncludeChunks,
	})
	if err != nil {
		if errors.Is(err, vector.ErrNoCollection) {
			return c.Status(fiber.StatusConflict).JSON(ErrorResponse{Error: err.Error()})
		}

		s.logger.Error("answering query",
			zap.String("state", string(state)),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: err.Error()})
	}

	return c.JSON(resp)
}
