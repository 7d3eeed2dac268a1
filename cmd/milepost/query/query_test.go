package querycmder_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	querycmder "github.com/roadworksco/milepost/cmd/milepost/query"
)

func TestQueryCmd(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Query Command Suite")
}

var _ = Describe("NewQueryCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := querycmder.NewQueryCmd()
		Expect(cmd.Use).To(Equal("query <question>"))
	})

	It("requires at least one argument", func() {
		cmd := querycmder.NewQueryCmd()
		Expect(cmd.Args(cmd, []string{})).To(HaveOccurred())
		Expect(cmd.Args(cmd, []string{"when", "can", "work", "occur"})).NotTo(HaveOccurred())
	})

	It("registers the state, top, and show-chunks flags", func() {
		cmd := querycmder.NewQueryCmd()
		Expect(cmd.Flags().Lookup("state")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("top")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("show-chunks")).NotTo(BeNil())
	})
})
