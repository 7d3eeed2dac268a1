package testutils

import (
	"context"

	"github.com/roadworksco/milepost/pkg/vector"
)

// MockVectorDriver is an in-memory vector.Driver for tests. Documents are
// keyed by ID so re-adding replaces, and Query honors the filter against
// canned results.
type MockVectorDriver struct {
	Documents map[string]vector.Document

	// Results are returned by Query, filter-matched and trimmed to topK.
	Results []vector.QueryResult

	// RecordedModel is the embedding model stored by SetEmbeddingModel.
	RecordedModel string

	// QueryErr, when set, is returned by every Query call.
	QueryErr error

	// Queries records the filters passed to Query in order.
	Queries []vector.Filter
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make(map[string]vector.Document),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, docs []vector.Document) error {
	for _, doc := range docs {
		m.Documents[doc.ID] = doc
	}
	return nil
}

func matches(qr vector.QueryResult, f vector.Filter) bool {
	if f.State != "" && qr.Metadata.State != f.State {
		return false
	}
	if f.TimeTagged != nil && qr.Metadata.HasTimeKeywords != *f.TimeTagged {
		return false
	}
	return true
}

func (m *MockVectorDriver) Query(_ context.Context, _ []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	m.Queries = append(m.Queries, filter)

	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	var out []vector.QueryResult
	for _, qr := range m.Results {
		if matches(qr, filter) {
			out = append(out, qr)
		}
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Count(_ context.Context) (int, error) {
	return len(m.Documents), nil
}

func (m *MockVectorDriver) StateCounts(_ context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	for _, doc := range m.Documents {
		if doc.Metadata.State != "" {
			counts[doc.Metadata.State]++
		}
	}
	return counts, nil
}

func (m *MockVectorDriver) SetEmbeddingModel(_ context.Context, model string) error {
	m.RecordedModel = model
	return nil
}

func (m *MockVectorDriver) EmbeddingModel(_ context.Context) (string, error) {
	return m.RecordedModel, nil
}

func (m *MockVectorDriver) Reset(_ context.Context) error {
	m.Documents = make(map[string]vector.Document)
	m.Results = nil
	m.RecordedModel = ""
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Ensure MockVectorDriver implements vector.Driver
var _ vector.Driver = (*MockVectorDriver)(nil)
