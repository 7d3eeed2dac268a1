package chroma_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roadworksco/milepost/pkg/logger"
	"github.com/roadworksco/milepost/pkg/vector"
	"github.com/roadworksco/milepost/pkg/vector/chroma"
)

func TestChromaDriver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Chroma Driver Suite")
}

const collectionsPath = "/api/v2/tenants/default_tenant/databases/default_database/collections"

// fakeChroma is a minimal in-memory stand-in for the Chroma REST API.
type fakeChroma struct {
	collectionID string
	metadata     map[string]any

	upserts []map[string]any
	queries []map[string]any

	queryResponse map[string]any
}

func (f *fakeChroma) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(collectionsPath+"/road_maintenance_manuals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{
				"id":       f.collectionID,
				"name":     "road_maintenance_manuals",
				"metadata": f.metadata,
			})
		case http.MethodDelete:
			f.upserts = nil
			f.metadata = nil
			w.WriteHeader(http.StatusOK)
		}
	})

	mux.HandleFunc(collectionsPath, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": f.collectionID, "name": "road_maintenance_manuals"})
	})

	mux.HandleFunc(collectionsPath+"/col-1/upsert", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.upserts = append(f.upserts, body)
		w.WriteHeader(http.StatusCreated)
	})

	mux.HandleFunc(collectionsPath+"/col-1/query", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		f.queries = append(f.queries, body)
		json.NewEncoder(w).Encode(f.queryResponse)
	})

	mux.HandleFunc(collectionsPath+"/col-1/count", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(len(f.upserts))
	})

	mux.HandleFunc(collectionsPath+"/col-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			var body map[string]any
			json.NewDecoder(r.Body).Decode(&body)
			if nm, ok := body["new_metadata"].(map[string]any); ok {
				f.metadata = nm
			}
			w.WriteHeader(http.StatusOK)
		}
	})

	return mux
}

var _ = Describe("Driver", func() {
	var (
		fake   *fakeChroma
		server *httptest.Server
		driver *chroma.Driver
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		fake = &fakeChroma{
			collectionID: "col-1",
			queryResponse: map[string]any{
				"ids":       [][]string{},
				"distances": [][]float32{},
				"metadatas": [][]map[string]any{},
				"documents": [][]string{},
			},
		}
		server = httptest.NewServer(fake.handler())

		var err error
		driver, err = chroma.NewDriver(chroma.Config{URL: server.URL}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		driver.Close()
		server.Close()
	})

	Describe("Add", func() {
		It("upserts ids, embeddings, metadata and text", func() {
			docs := []vector.Document{
				{
					ID:        "CA:CA_Manual.pdf:p1:0",
					Text:      "night work only",
					Embedding: []float32{0.1, 0.2},
					Metadata: vector.Metadata{
						State:           "CA",
						SourceFile:      "CA_Manual.pdf",
						Page:            1,
						HasTimeKeywords: true,
						MatchedKeywords: []string{"night"},
					},
				},
			}

			Expect(driver.Add(ctx, docs)).To(Succeed())
			Expect(fake.upserts).To(HaveLen(1))

			body := fake.upserts[0]
			Expect(body["ids"]).To(ConsistOf("CA:CA_Manual.pdf:p1:0"))
			Expect(body["documents"]).To(ConsistOf("night work only"))

			metadatas := body["metadatas"].([]any)
			meta := metadatas[0].(map[string]any)
			Expect(meta["state"]).To(Equal("CA"))
			Expect(meta["has_time_keywords"]).To(Equal(true))
			Expect(meta["matched_keywords"]).To(Equal("night"))
		})

		It("is a no-op for an empty batch", func() {
			Expect(driver.Add(ctx, nil)).To(Succeed())
			Expect(fake.upserts).To(BeEmpty())
		})
	})

	Describe("Query", func() {
		It("sends the state filter and maps distances to scores", func() {
			fake.queryResponse = map[string]any{
				"ids":       [][]string{{"a", "b"}},
				"distances": [][]float32{{0.0, 1.0}},
				"metadatas": [][]map[string]any{{
					{"state": "WA", "page": float64(3), "matched_keywords": "night,curfew"},
					{"state": "WA", "page": float64(7), "matched_keywords": ""},
				}},
				"documents": [][]string{{"text a", "text b"}},
			}

			results, err := driver.Query(ctx, []float32{0.5}, 5, vector.Filter{State: "WA"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			Expect(results[0].Score).To(BeNumerically("~", 1.0, 0.001))
			Expect(results[1].Score).To(BeNumerically("~", 0.5, 0.001))
			Expect(results[0].Metadata.MatchedKeywords).To(Equal([]string{"night", "curfew"}))
			Expect(results[1].Metadata.MatchedKeywords).To(BeEmpty())
			Expect(results[0].Text).To(Equal("text a"))

			Expect(fake.queries).To(HaveLen(1))
			where := fake.queries[0]["where"].(map[string]any)
			Expect(where["state"]).To(Equal("WA"))
		})

		It("combines state and time filters with $and", func() {
			tagged := true
			_, err := driver.Query(ctx, []float32{0.5}, 5, vector.Filter{State: "TX", TimeTagged: &tagged})
			Expect(err).NotTo(HaveOccurred())

			where := fake.queries[0]["where"].(map[string]any)
			Expect(where).To(HaveKey("$and"))
		})

		It("returns empty results for an empty collection", func() {
			results, err := driver.Query(ctx, []float32{0.5}, 5, vector.Filter{State: "CA"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})
	})

	Describe("embedding model metadata", func() {
		It("records and reads back the model", func() {
			Expect(driver.SetEmbeddingModel(ctx, "nomic-embed-text")).To(Succeed())

			model, err := driver.EmbeddingModel(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(model).To(Equal("nomic-embed-text"))
		})

		It("returns empty before any ingestion", func() {
			model, err := driver.EmbeddingModel(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(model).To(BeEmpty())
		})
	})

	Describe("Count", func() {
		It("reports the collection count", func() {
			Expect(driver.Add(ctx, []vector.Document{{ID: "x", Embedding: []float32{1}}})).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Describe("Reset", func() {
		It("drops recorded state", func() {
			Expect(driver.SetEmbeddingModel(ctx, "nomic-embed-text")).To(Succeed())
			Expect(driver.Reset(ctx)).To(Succeed())

			model, err := driver.EmbeddingModel(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(model).To(BeEmpty())
		})
	})
})
