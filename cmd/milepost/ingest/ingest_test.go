package ingestcmder_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	ingestcmder "github.com/roadworksco/milepost/cmd/milepost/ingest"
)

func TestIngestCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ingest Command Suite")
}

var _ = Describe("NewIngestCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := ingestcmder.NewIngestCmd()
		Expect(cmd.Use).To(Equal("ingest"))
	})

	It("rejects positional arguments", func() {
		cmd := ingestcmder.NewIngestCmd()
		Expect(cmd.Args(cmd, []string{})).NotTo(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"extra"})).To(HaveOccurred())
	})

	It("registers the pdf-dir and overwrite flags", func() {
		cmd := ingestcmder.NewIngestCmd()
		Expect(cmd.Flags().Lookup("pdf-dir")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("overwrite")).NotTo(BeNil())
	})
})
