package testutils

import (
	"context"

	"github.com/roadworksco/milepost/pkg/llm"
)

// MockGenerator is a test llm.Generator returning a canned response.
type MockGenerator struct {
	// Response is returned by every Generate call.
	Response string

	// Err, when set, is returned instead.
	Err error

	// Requests records every request in order.
	Requests []*llm.ChatRequest
}

func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response}
}

func (m *MockGenerator) Generate(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.Requests = append(m.Requests, req)

	if m.Err != nil {
		return nil, m.Err
	}

	return &llm.ChatResponse{
		Model:      "mock-llm",
		Message:    llm.NewAssistantMessage(m.Response),
		StopReason: "stop",
	}, nil
}

func (m *MockGenerator) Model() string {
	return "mock-llm"
}

func (m *MockGenerator) Close() error {
	return nil
}

// Ensure MockGenerator implements llm.Generator
var _ llm.Generator = (*MockGenerator)(nil)
