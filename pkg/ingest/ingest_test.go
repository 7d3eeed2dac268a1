package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roadworksco/milepost/pkg/ingest"
	"github.com/roadworksco/milepost/pkg/logger"
	"github.com/roadworksco/milepost/pkg/manual/chunker"
	"github.com/roadworksco/milepost/pkg/manual/extract"
	testutils "github.com/roadworksco/milepost/pkg/utils/test"
)

func TestIngest(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ingest Suite")
}

var _ = Describe("Pipeline", func() {
	var (
		dir      string
		driver   *testutils.MockVectorDriver
		embedder *testutils.MockEmbedder
		pipeline *ingest.Pipeline
		ctx      context.Context
	)

	touch := func(name string) {
		Expect(os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.4"), 0o600)).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()

		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()

		ck, err := chunker.New(50, 0.2, []string{"night", "curfew"})
		Expect(err).NotTo(HaveOccurred())

		pipeline = ingest.NewPipeline(ck, embedder, driver, logger.Nop())
		pipeline.Extractor = func(path string) ([]extract.Page, error) {
			return []extract.Page{
				{Number: 1, Text: "General maintenance procedures for state highways."},
				{Number: 2, Text: "Lane work shall occur at night when a curfew applies."},
			}, nil
		}
	})

	It("errors on an empty directory", func() {
		_, err := pipeline.Run(ctx, dir)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no PDF files"))
	})

	It("ingests recognized files and tallies the summary", func() {
		touch("CA_Caltrans_Manual.pdf")
		touch("WA_WSDOT_Manual.pdf")

		summary, err := pipeline.Run(ctx, dir)
		Expect(err).NotTo(HaveOccurred())

		Expect(summary.Files).To(Equal(2))
		Expect(summary.Skipped).To(BeEmpty())
		Expect(summary.Chunks).To(BeNumerically(">", 0))
		Expect(summary.TimeChunks).To(BeNumerically(">", 0))
		Expect(summary.PerState).To(HaveKey("CA"))
		Expect(summary.PerState).To(HaveKey("WA"))

		Expect(driver.Documents).To(HaveLen(summary.Chunks))
		Expect(driver.RecordedModel).To(Equal("mock-embed"))

		for id, doc := range driver.Documents {
			Expect(doc.ID).To(Equal(id))
			Expect(doc.Embedding).NotTo(BeEmpty())
			Expect(doc.Metadata.State).To(BeElementOf("CA", "WA"))
			Expect(doc.Metadata.Page).To(BeNumerically(">=", 1))
		}
	})

	It("skips files without a known state prefix, with a warning", func() {
		touch("CA_Caltrans_Manual.pdf")
		touch("NY_Unknown_Manual.pdf")
		touch("notes.pdf")

		summary, err := pipeline.Run(ctx, dir)
		Expect(err).NotTo(HaveOccurred())

		Expect(summary.Files).To(Equal(1))
		Expect(summary.Skipped).To(ConsistOf("NY_Unknown_Manual.pdf", "notes.pdf"))
	})

	It("fails when nothing is ingestable", func() {
		touch("notes.pdf")

		_, err := pipeline.Run(ctx, dir)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("CA_, TX_ or WA_"))
	})

	It("is idempotent across re-runs", func() {
		touch("TX_TxDOT_Manual.pdf")

		first, err := pipeline.Run(ctx, dir)
		Expect(err).NotTo(HaveOccurred())

		second, err := pipeline.Run(ctx, dir)
		Expect(err).NotTo(HaveOccurred())

		Expect(second.Chunks).To(Equal(first.Chunks))
		// Same IDs, so the store holds one copy of each chunk.
		Expect(driver.Documents).To(HaveLen(first.Chunks))
	})

	It("reports per-file progress", func() {
		touch("CA_Caltrans_Manual.pdf")
		touch("TX_TxDOT_Manual.pdf")

		var seen []string
		pipeline.OnFile = func(name string, index, total int) {
			seen = append(seen, name)
			Expect(total).To(Equal(2))
		}

		_, err := pipeline.Run(ctx, dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(seen).To(Equal([]string{"CA_Caltrans_Manual.pdf", "TX_TxDOT_Manual.pdf"}))
	})
})
