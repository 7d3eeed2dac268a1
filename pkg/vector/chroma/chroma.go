// Package chroma provides a Chroma vector database driver implementation.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for manual chunks.
	DefaultCollectionName = "road_maintenance_manuals"

	// embeddingModelKey is the collection metadata key recording the model
	// used at ingestion.
	embeddingModelKey = "embedding_model"
)

// Driver implements vector.Driver using Chroma's REST API.
type Driver struct {
	baseURL        string
	collectionName string
	collectionID   string
	httpClient     *http.Client
	logger         *zap.Logger
}

// Config holds configuration for the Chroma driver.
type Config struct {
	// URL is the Chroma server URL (e.g., "http://localhost:8000").
	URL string

	// CollectionName is the name of the collection to use.
	// Defaults to DefaultCollectionName if empty.
	CollectionName string
}

// NewDriver creates a new Chroma vector driver, connecting to the server
// and creating the collection if it doesn't exist yet.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("chroma URL is required")
	}

	collectionName := c.CollectionName
	if collectionName == "" {
		collectionName = DefaultCollectionName
	}

	d := &Driver{
		baseURL:        strings.TrimRight(c.URL, "/"),
		collectionName: collectionName,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}

	collectionID, err := d.getOrCreateCollection(context.Background())
	if err != nil {
		return nil, fmt.Errorf("%w: getting or creating collection %q: %v", vector.ErrConnection, collectionName, err)
	}
	d.collectionID = collectionID

	logger.Info("connected to Chroma",
		zap.String("url", c.URL),
		zap.String("collection", collectionName),
		zap.String("collection_id", collectionID),
	)

	return d, nil
}

func (d *Driver) collectionsURL() string {
	return fmt.Sprintf("%s/api/v2/tenants/default_tenant/databases/default_database/collections", d.baseURL)
}

// do sends a JSON request and decodes the JSON response into out when out
// is non-nil.
func (d *Driver) do(ctx context.Context, method, url string, body, out any) error {
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", vector.ErrConnection, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}

	return nil
}

// getOrCreateCollection gets an existing collection or creates a new one.
func (d *Driver) getOrCreateCollection(ctx context.Context) (string, error) {
	var collection chromaCollection

	err := d.do(ctx, "GET", d.collectionsURL()+"/"+d.collectionName, nil, &collection)
	if err == nil {
		return collection.ID, nil
	}

	createReq := chromaCreateRequest{Name: d.collectionName}
	if err := d.do(ctx, "POST", d.collectionsURL(), createReq, &collection); err != nil {
		return "", fmt.Errorf("creating collection: %w", err)
	}

	return collection.ID, nil
}

// metadataToMap flattens chunk metadata into Chroma's scalar-valued
// metadata map. The keyword list is comma-joined since Chroma metadata
// values must be scalars.
func metadataToMap(m vector.Metadata) map[string]any {
	return map[string]any{
		"state":             m.State,
		"title":             m.Title,
		"source_file":       m.SourceFile,
		"page":              m.Page,
		"chunk_index":       m.ChunkIndex,
		"has_time_keywords": m.HasTimeKeywords,
		"matched_keywords":  strings.Join(m.MatchedKeywords, ","),
		"char_count":        m.CharCount,
	}
}

func metadataFromMap(raw map[string]any) vector.Metadata {
	m := vector.Metadata{}
	if raw == nil {
		return m
	}

	if v, ok := raw["state"].(string); ok {
		m.State = v
	}
	if v, ok := raw["title"].(string); ok {
		m.Title = v
	}
	if v, ok := raw["source_file"].(string); ok {
		m.SourceFile = v
	}
	if v, ok := raw["page"].(float64); ok {
		m.Page = int(v)
	}
	if v, ok := raw["chunk_index"].(float64); ok {
		m.ChunkIndex = int(v)
	}
	if v, ok := raw["has_time_keywords"].(bool); ok {
		m.HasTimeKeywords = v
	}
	if v, ok := raw["matched_keywords"].(string); ok && v != "" {
		m.MatchedKeywords = strings.Split(v, ",")
	}
	if v, ok := raw["char_count"].(float64); ok {
		m.CharCount = int(v)
	}

	return m
}

// whereClause builds Chroma's where filter from a vector.Filter.
func whereClause(f vector.Filter) map[string]any {
	var clauses []map[string]any

	if f.State != "" {
		clauses = append(clauses, map[string]any{"state": f.State})
	}
	if f.TimeTagged != nil {
		clauses = append(clauses, map[string]any{"has_time_keywords": *f.TimeTagged})
	}

	switch len(clauses) {
	case 0:
		return nil
	case 1:
		return clauses[0]
	default:
		return map[string]any{"$and": clauses}
	}
}

// Add upserts documents with their embeddings. Existing IDs are replaced.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	ids := make([]string, len(docs))
	embeddings := make([][]float32, len(docs))
	metadatas := make([]map[string]any, len(docs))
	texts := make([]string, len(docs))

	for i, doc := range docs {
		ids[i] = doc.ID
		embeddings[i] = doc.Embedding
		metadatas[i] = metadataToMap(doc.Metadata)
		texts[i] = doc.Text
	}

	reqBody := chromaUpsertRequest{
		IDs:        ids,
		Embeddings: embeddings,
		Metadatas:  metadatas,
		Documents:  texts,
	}

	url := fmt.Sprintf("%s/%s/upsert", d.collectionsURL(), d.collectionID)
	if err := d.do(ctx, "POST", url, reqBody, nil); err != nil {
		return fmt.Errorf("upserting documents: %w", err)
	}

	d.logger.Debug("upserted documents to chroma",
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding,
// honoring the filter.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	reqBody := chromaQueryRequest{
		QueryEmbeddings: [][]float32{embedding},
		NResults:        topK,
		Where:           whereClause(filter),
		Include:         []string{"metadatas", "distances", "documents"},
	}

	url := fmt.Sprintf("%s/%s/query", d.collectionsURL(), d.collectionID)

	var queryResp chromaQueryResponse
	if err := d.do(ctx, "POST", url, reqBody, &queryResp); err != nil {
		return nil, fmt.Errorf("querying: %w", err)
	}

	var results []vector.QueryResult

	// Process first group (we only query with one embedding)
	if len(queryResp.IDs) == 0 || len(queryResp.IDs[0]) == 0 {
		return results, nil
	}

	ids := queryResp.IDs[0]

	var distances []float32
	if len(queryResp.Distances) > 0 {
		distances = queryResp.Distances[0]
	}

	var metadatas []map[string]any
	if len(queryResp.Metadatas) > 0 {
		metadatas = queryResp.Metadatas[0]
	}

	var texts []string
	if len(queryResp.Documents) > 0 {
		texts = queryResp.Documents[0]
	}

	for i, id := range ids {
		result := vector.QueryResult{
			Document: vector.Document{ID: id},
		}

		if i < len(metadatas) {
			result.Metadata = metadataFromMap(metadatas[i])
		}
		if i < len(texts) {
			result.Text = texts[i]
		}
		if i < len(distances) {
			result.Distance = distances[i]
			// Lower distance = higher similarity
			result.Score = 1.0 / (1.0 + distances[i])
		}

		results = append(results, result)
	}

	d.logger.Debug("queried chroma",
		zap.Int("results", len(results)),
		zap.String("state", filter.State),
	)

	return results, nil
}

// Count returns the total number of stored documents.
func (d *Driver) Count(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/%s/count", d.collectionsURL(), d.collectionID)

	var count int
	if err := d.do(ctx, "GET", url, nil, &count); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}

	return count, nil
}

// StateCounts returns the number of stored documents per state code.
func (d *Driver) StateCounts(ctx context.Context) (map[string]int, error) {
	reqBody := chromaGetRequest{
		Include: []string{"metadatas"},
	}

	url := fmt.Sprintf("%s/%s/get", d.collectionsURL(), d.collectionID)

	var getResp chromaGetResponse
	if err := d.do(ctx, "POST", url, reqBody, &getResp); err != nil {
		return nil, fmt.Errorf("getting documents: %w", err)
	}

	counts := make(map[string]int)
	for _, raw := range getResp.Metadatas {
		m := metadataFromMap(raw)
		if m.State != "" {
			counts[m.State]++
		}
	}

	return counts, nil
}

// SetEmbeddingModel records the embedding model in collection metadata.
func (d *Driver) SetEmbeddingModel(ctx context.Context, model string) error {
	reqBody := chromaUpdateRequest{
		NewMetadata: map[string]any{embeddingModelKey: model},
	}

	url := fmt.Sprintf("%s/%s", d.collectionsURL(), d.collectionID)
	if err := d.do(ctx, "PUT", url, reqBody, nil); err != nil {
		return fmt.Errorf("updating collection metadata: %w", err)
	}

	return nil
}

// EmbeddingModel returns the recorded embedding model, or empty when no
// ingestion has recorded one.
func (d *Driver) EmbeddingModel(ctx context.Context) (string, error) {
	var collection chromaCollection
	if err := d.do(ctx, "GET", d.collectionsURL()+"/"+d.collectionName, nil, &collection); err != nil {
		return "", fmt.Errorf("getting collection: %w", err)
	}

	if model, ok := collection.Metadata[embeddingModelKey].(string); ok {
		return model, nil
	}

	return "", nil
}

// Reset drops the collection and recreates it empty.
func (d *Driver) Reset(ctx context.Context) error {
	url := d.collectionsURL() + "/" + d.collectionName
	if err := d.do(ctx, "DELETE", url, nil, nil); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}

	collectionID, err := d.getOrCreateCollection(ctx)
	if err != nil {
		return fmt.Errorf("recreating collection: %w", err)
	}
	d.collectionID = collectionID

	d.logger.Info("reset chroma collection",
		zap.String("collection", d.collectionName),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure Driver implements vector.Driver
var _ vector.Driver = (*Driver)(nil)
