package sqlitevec_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roadworksco/milepost/pkg/logger"
	"github.com/roadworksco/milepost/pkg/vector"
	"github.com/roadworksco/milepost/pkg/vector/sqlitevec"
)

func TestSQLiteVecDriver(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLiteVec Driver Suite")
}

var _ = Describe("Driver", func() {
	var (
		driver *sqlitevec.Driver
		ctx    context.Context
	)

	doc := func(id, state string, tagged bool, embedding []float32) vector.Document {
		return vector.Document{
			ID:        id,
			Text:      "chunk text for " + id,
			Embedding: embedding,
			Metadata: vector.Metadata{
				State:           state,
				SourceFile:      state + "_Manual.pdf",
				Page:            1,
				HasTimeKeywords: tagged,
			},
		}
	}

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		driver, err = sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     ":memory:",
			Dimensions: 3,
		}, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	It("requires dimensions", func() {
		_, err := sqlitevec.NewDriver(sqlitevec.Config{DBPath: ":memory:"}, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	Describe("Add and Query", func() {
		It("returns the nearest documents with metadata", func() {
			docs := []vector.Document{
				doc("CA:CA_Manual.pdf:p1:0", "CA", true, []float32{1, 0, 0}),
				doc("CA:CA_Manual.pdf:p1:1", "CA", false, []float32{0, 1, 0}),
			}
			Expect(driver.Add(ctx, docs)).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0, 0}, 2, vector.Filter{State: "CA"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			Expect(results[0].ID).To(Equal("CA:CA_Manual.pdf:p1:0"))
			Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
			Expect(results[0].Metadata.State).To(Equal("CA"))
			Expect(results[0].Metadata.HasTimeKeywords).To(BeTrue())
			Expect(results[0].Text).To(ContainSubstring("CA:CA_Manual.pdf:p1:0"))
		})

		It("filters by state", func() {
			docs := []vector.Document{
				doc("CA:CA_Manual.pdf:p1:0", "CA", false, []float32{1, 0, 0}),
				doc("TX:TX_Manual.pdf:p1:0", "TX", false, []float32{1, 0, 0}),
			}
			Expect(driver.Add(ctx, docs)).To(Succeed())

			results, err := driver.Query(ctx, []float32{1, 0, 0}, 5, vector.Filter{State: "TX"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Metadata.State).To(Equal("TX"))
		})

		It("filters by time tag", func() {
			docs := []vector.Document{
				doc("WA:WA_Manual.pdf:p1:0", "WA", true, []float32{1, 0, 0}),
				doc("WA:WA_Manual.pdf:p1:1", "WA", false, []float32{1, 0, 0.01}),
			}
			Expect(driver.Add(ctx, docs)).To(Succeed())

			tagged := true
			results, err := driver.Query(ctx, []float32{1, 0, 0}, 5, vector.Filter{State: "WA", TimeTagged: &tagged})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Metadata.HasTimeKeywords).To(BeTrue())
		})

		It("replaces documents on re-add", func() {
			first := doc("CA:CA_Manual.pdf:p1:0", "CA", false, []float32{1, 0, 0})
			Expect(driver.Add(ctx, []vector.Document{first})).To(Succeed())

			updated := first
			updated.Text = "updated text"
			updated.Embedding = []float32{0, 0, 1}
			Expect(driver.Add(ctx, []vector.Document{updated})).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))

			results, err := driver.Query(ctx, []float32{0, 0, 1}, 1, vector.Filter{State: "CA"})
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Text).To(Equal("updated text"))
		})
	})

	Describe("StateCounts", func() {
		It("tallies documents per state", func() {
			docs := []vector.Document{
				doc("CA:CA_Manual.pdf:p1:0", "CA", false, []float32{1, 0, 0}),
				doc("CA:CA_Manual.pdf:p1:1", "CA", false, []float32{0, 1, 0}),
				doc("WA:WA_Manual.pdf:p1:0", "WA", false, []float32{0, 0, 1}),
			}
			Expect(driver.Add(ctx, docs)).To(Succeed())

			counts, err := driver.StateCounts(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(Equal(map[string]int{"CA": 2, "WA": 1}))
		})
	})

	Describe("embedding model metadata", func() {
		It("records and reads back the model", func() {
			model, err := driver.EmbeddingModel(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(model).To(BeEmpty())

			Expect(driver.SetEmbeddingModel(ctx, "nomic-embed-text")).To(Succeed())

			model, err = driver.EmbeddingModel(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(model).To(Equal("nomic-embed-text"))
		})
	})

	Describe("Reset", func() {
		It("drops documents and the recorded model", func() {
			Expect(driver.Add(ctx, []vector.Document{
				doc("CA:CA_Manual.pdf:p1:0", "CA", false, []float32{1, 0, 0}),
			})).To(Succeed())
			Expect(driver.SetEmbeddingModel(ctx, "nomic-embed-text")).To(Succeed())

			Expect(driver.Reset(ctx)).To(Succeed())

			count, err := driver.Count(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())

			model, err := driver.EmbeddingModel(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(model).To(BeEmpty())
		})
	})
})
