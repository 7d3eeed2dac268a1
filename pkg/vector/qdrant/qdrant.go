// Package qdrant provides a Qdrant vector database driver over gRPC.
package qdrant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"

	"github.com/roadworksco/milepost/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for manual chunks.
	DefaultCollectionName = "road_maintenance_manuals"

	defaultPort = 6334
)

// idNamespace derives deterministic point UUIDs from chunk IDs. Qdrant
// point IDs must be UUIDs or integers, so the string chunk ID moves into
// the payload and the UUID is a hash of it.
var idNamespace = uuid.MustParse("a1f2b3c4-5d6e-4f70-8192-a3b4c5d6e7f8")

// metaPointID is the reserved point recording the embedding model. It
// carries no "state" payload key, so the mandatory state filter on every
// retrieval query keeps it out of results.
var metaPointID = uuid.NewSHA1(idNamespace, []byte("__meta__"))

// Driver implements vector.Driver using the Qdrant gRPC API.
type Driver struct {
	client     *qdrant.Client
	collection string
	dimensions uint
	logger     *zap.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the Qdrant gRPC address, e.g. "localhost:6334".
	Target string

	// CollectionName defaults to DefaultCollectionName if empty.
	CollectionName string

	// Dimensions is the embedding vector size, required to create the
	// collection.
	Dimensions uint
}

// NewDriver connects to Qdrant and ensures the collection exists.
func NewDriver(c Config, logger *zap.Logger) (*Driver, error) {
	if c.Target == "" {
		return nil, fmt.Errorf("qdrant target is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.CollectionName
	if collection == "" {
		collection = DefaultCollectionName
	}

	host, port, err := parseTarget(c.Target)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	d := &Driver{
		client:     client,
		collection: collection,
		dimensions: c.Dimensions,
		logger:     logger,
	}

	if err := d.ensureCollection(context.Background()); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ensuring collection %q: %v", vector.ErrConnection, collection, err)
	}

	logger.Info("connected to Qdrant",
		zap.String("target", c.Target),
		zap.String("collection", collection),
	)

	return d, nil
}

// parseTarget splits "host:port", tolerating a scheme prefix and
// defaulting the port.
func parseTarget(target string) (string, int, error) {
	if i := strings.Index(target, "://"); i >= 0 {
		target = target[i+3:]
	}

	host, portStr, found := strings.Cut(target, ":")
	if host == "" {
		return "", 0, fmt.Errorf("invalid qdrant target %q", target)
	}
	if !found {
		return host, defaultPort, nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant port in %q: %w", target, err)
	}

	return host, port, nil
}

func (d *Driver) ensureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("checking collection: %w", err)
	}
	if exists {
		return nil
	}

	return d.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: d.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(d.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

func pointID(docID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(idNamespace, []byte(docID)).String())
}

func payloadFromDocument(doc vector.Document) map[string]any {
	m := doc.Metadata
	return map[string]any{
		"doc_id":            doc.ID,
		"text":              doc.Text,
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

func documentFromPayload(payload map[string]*qdrant.Value) vector.Document {
	var doc vector.Document

	str := func(key string) string {
		if v, ok := payload[key]; ok {
			return v.GetStringValue()
		}
		return ""
	}
	num := func(key string) int {
		if v, ok := payload[key]; ok {
			return int(v.GetIntegerValue())
		}
		return 0
	}

	doc.ID = str("doc_id")
	doc.Text = str("text")
	doc.Metadata = vector.Metadata{
		State:      str("state"),
		Title:      str("title"),
		SourceFile: str("source_file"),
		Page:       num("page"),
		ChunkIndex: num("chunk_index"),
		CharCount:  num("char_count"),
	}
	if v, ok := payload["has_time_keywords"]; ok {
		doc.Metadata.HasTimeKeywords = v.GetBoolValue()
	}
	if kw := str("matched_keywords"); kw != "" {
		doc.Metadata.MatchedKeywords = strings.Split(kw, ",")
	}

	return doc
}

// Add upserts documents with their embeddings. Point IDs are derived
// deterministically from chunk IDs, so re-adding replaces.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, len(docs))
	for i, doc := range docs {
		points[i] = &qdrant.PointStruct{
			Id:      pointID(doc.ID),
			Vectors: qdrant.NewVectors(doc.Embedding...),
			Payload: qdrant.NewValueMap(payloadFromDocument(doc)),
		}
	}

	wait := true
	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points:         points,
		Wait:           &wait,
	})
	if err != nil {
		return fmt.Errorf("upserting points: %w", err)
	}

	d.logger.Debug("upserted points to qdrant",
		zap.Int("count", len(docs)),
	)

	return nil
}

func filterConditions(f vector.Filter) *qdrant.Filter {
	var must []*qdrant.Condition

	if f.State != "" {
		must = append(must, qdrant.NewMatch("state", f.State))
	}
	if f.TimeTagged != nil {
		must = append(must, qdrant.NewMatchBool("has_time_keywords", *f.TimeTagged))
	}

	// Always exclude the reserved metadata point, which has no state key.
	return &qdrant.Filter{
		Must:    must,
		MustNot: []*qdrant.Condition{qdrant.NewIsEmpty("state")},
	}
}

// Query finds the topK most similar documents to the given embedding,
// honoring the filter.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int, filter vector.Filter) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}

	limit := uint64(topK)
	points, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          &limit,
		Filter:         filterConditions(filter),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}

	results := make([]vector.QueryResult, 0, len(points))
	for _, p := range points {
		// Cosine similarity s maps to distance 1-s, keeping the
		// 1/(1+distance) score convention across drivers.
		distance := 1.0 - p.Score

		results = append(results, vector.QueryResult{
			Document: documentFromPayload(p.Payload),
			Distance: distance,
			Score:    1.0 / (1.0 + distance),
		})
	}

	d.logger.Debug("queried qdrant",
		zap.Int("results", len(results)),
		zap.String("state", filter.State),
	)

	return results, nil
}

// Count returns the total number of stored documents, excluding the
// reserved metadata point.
func (d *Driver) Count(ctx context.Context) (int, error) {
	exact := true
	count, err := d.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: d.collection,
		Filter: &qdrant.Filter{
			MustNot: []*qdrant.Condition{qdrant.NewIsEmpty("state")},
		},
		Exact: &exact,
	})
	if err != nil {
		return 0, fmt.Errorf("counting points: %w", err)
	}

	return int(count), nil
}

// StateCounts returns the number of stored documents per state code.
func (d *Driver) StateCounts(ctx context.Context) (map[string]int, error) {
	hits, err := d.client.Facet(ctx, &qdrant.FacetCounts{
		CollectionName: d.collection,
		Key:            "state",
	})
	if err != nil {
		return nil, fmt.Errorf("faceting by state: %w", err)
	}

	counts := make(map[string]int, len(hits))
	for _, hit := range hits {
		if state := hit.GetValue().GetStringValue(); state != "" {
			counts[state] = int(hit.GetCount())
		}
	}

	return counts, nil
}

// SetEmbeddingModel records the embedding model on the reserved metadata
// point.
func (d *Driver) SetEmbeddingModel(ctx context.Context, model string) error {
	wait := true
	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Points: []*qdrant.PointStruct{{
			Id:      qdrant.NewIDUUID(metaPointID.String()),
			Vectors: qdrant.NewVectors(make([]float32, d.dimensions)...),
			Payload: qdrant.NewValueMap(map[string]any{
				"embedding_model": model,
			}),
		}},
		Wait: &wait,
	})
	if err != nil {
		return fmt.Errorf("recording embedding model: %w", err)
	}

	return nil
}

// EmbeddingModel returns the recorded embedding model, or empty when no
// ingestion has recorded one.
func (d *Driver) EmbeddingModel(ctx context.Context) (string, error) {
	points, err := d.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: d.collection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(metaPointID.String())},
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return "", fmt.Errorf("reading embedding model: %w", err)
	}

	if len(points) == 0 {
		return "", nil
	}

	if v, ok := points[0].Payload["embedding_model"]; ok {
		return v.GetStringValue(), nil
	}

	return "", nil
}

// Reset drops the collection and recreates it empty.
func (d *Driver) Reset(ctx context.Context) error {
	if err := d.client.DeleteCollection(ctx, d.collection); err != nil {
		return fmt.Errorf("deleting collection: %w", err)
	}

	if err := d.ensureCollection(ctx); err != nil {
		return fmt.Errorf("recreating collection: %w", err)
	}

	d.logger.Info("reset qdrant collection",
		zap.String("collection", d.collection),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.client.Close()
}

// Ensure Driver implements vector.Driver
var _ vector.Driver = (*Driver)(nil)
