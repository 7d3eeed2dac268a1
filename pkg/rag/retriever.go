// Package rag wires retrieval and synthesis into the question-answering
// pipeline: state-filtered vector search, time-aware re-ranking, and
// cited LLM answers.
package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/config"
	"github.com/roadworksco/milepost/pkg/embeddings"
	"github.com/roadworksco/milepost/pkg/manual"
	"github.com/roadworksco/milepost/pkg/vector"
)

// timeBoost is added to the similarity score of time-tagged chunks when
// the query itself asks about time. It breaks ties between comparable
// chunks without letting a weak match outrank a materially better one.
const timeBoost = 0.05

// timeIndicators mark a query as asking about time-of-day constraints.
var timeIndicators = []string{
	"night", "day", "time", "hours", "off-peak",
	"curfew", "lane closure", "when", "schedule",
}

// Result is a retrieved chunk with its final ranking score.
type Result struct {
	vector.QueryResult

	// Boosted is set when the time-keyword boost applied to this chunk.
	Boosted bool

	// FinalScore is Score plus any boost; results are ordered by it.
	FinalScore float32
}

// Cite derives the result's citation for display alongside an answer.
func (r Result) Cite() manual.Citation {
	return manual.Chunk{
		Text:            r.Text,
		SourceFile:      r.Metadata.SourceFile,
		Page:            r.Metadata.Page,
		HasTimeKeywords: r.Metadata.HasTimeKeywords,
		MatchedKeywords: r.Metadata.MatchedKeywords,
	}.Cite()
}

// Retriever performs state-filtered, time-boosted chunk retrieval.
type Retriever struct {
	driver   vector.Driver
	embedder embeddings.Embedder
	logger   *zap.Logger
}

// NewRetriever creates a retriever over the given store and embedder.
func NewRetriever(driver vector.Driver, embedder embeddings.Embedder, logger *zap.Logger) *Retriever {
	return &Retriever{
		driver:   driver,
		embedder: embedder,
		logger:   logger,
	}
}

// IsTimeQuery reports whether the query appears to ask about time-of-day
// constraints, matched case-insensitively as substrings.
func IsTimeQuery(query string) bool {
	lowered := strings.ToLower(query)
	for _, indicator := range timeIndicators {
		if strings.Contains(lowered, indicator) {
			return true
		}
	}
	return false
}

// clampTopK bounds the retrieval depth to [MinTopK, MaxTopK], defaulting
// non-positive values.
func clampTopK(topK int) int {
	if topK <= 0 {
		topK = config.DefaultTopK
	}
	if topK < config.MinTopK {
		return config.MinTopK
	}
	if topK > config.MaxTopK {
		return config.MaxTopK
	}
	return topK
}

// checkModel refuses to retrieve when nothing was ingested or when the
// query-time embedder differs from the model recorded at ingestion.
// Comparing vectors from different models is meaningless, so a mismatch
// is fatal rather than a warning.
func (r *Retriever) checkModel(ctx context.Context) error {
	recorded, err := r.driver.EmbeddingModel(ctx)
	if err != nil {
		return fmt.Errorf("reading recorded embedding model: %w", err)
	}

	if recorded == "" {
		return vector.ErrNoCollection
	}

	if current := r.embedder.Model(); recorded != current {
		return fmt.Errorf("%w: ingested with %q, querying with %q",
			vector.ErrModelMismatch, recorded, current)
	}

	return nil
}

// Retrieve returns the topK most relevant chunks for the query within one
// state. Time-related queries merge a time-tagged retrieval pass with the
// general pass and boost tagged chunks before re-ranking.
func (r *Retriever) Retrieve(ctx context.Context, query string, state manual.State, topK int) ([]Result, error) {
	if err := r.checkModel(ctx); err != nil {
		return nil, err
	}

	topK = clampTopK(topK)

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	stateFilter := vector.Filter{State: string(state)}
	timeQuery := IsTimeQuery(query)

	var merged []Result
	seen := make(map[string]bool)

	if timeQuery {
		// First pass: chunks tagged with time keywords.
		tagged := true
		timeResults, err := r.driver.Query(ctx, embedding, topK, vector.Filter{
			State:      string(state),
			TimeTagged: &tagged,
		})
		if err != nil {
			return nil, fmt.Errorf("querying time-tagged chunks: %w", err)
		}

		for _, qr := range timeResults {
			seen[qr.ID] = true
			merged = append(merged, Result{
				QueryResult: qr,
				Boosted:     true,
				FinalScore:  qr.Score + timeBoost,
			})
		}
	}

	general, err := r.driver.Query(ctx, embedding, topK, stateFilter)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}

	for _, qr := range general {
		if seen[qr.ID] {
			continue
		}
		merged = append(merged, Result{
			QueryResult: qr,
			FinalScore:  qr.Score,
		})
	}

	// Stable sort keeps the store's distance order among equal scores.
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].FinalScore > merged[j].FinalScore
	})

	if len(merged) > topK {
		merged = merged[:topK]
	}

	r.logger.Debug("retrieved chunks",
		zap.String("state", string(state)),
		zap.Int("top_k", topK),
		zap.Bool("time_query", timeQuery),
		zap.Int("results", len(merged)),
	)

	return merged, nil
}
