package wiring

import (
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
)

func TestWiring(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Wiring Suite")
}

func newTestCmd(configDir string) *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().String("config-dir", configDir, "")
	cmd.Flags().Bool("debug", false, "")
	return cmd
}

var _ = Describe("isURL", func() {
	It("recognizes server URLs", func() {
		Expect(isURL("http://localhost:8000")).To(BeTrue())
		Expect(isURL("grpc://qdrant:6334")).To(BeTrue())
	})

	It("treats file paths as non-URLs", func() {
		Expect(isURL("milepost.db")).To(BeFalse())
		Expect(isURL("/var/lib/milepost/milepost.db")).To(BeFalse())
		Expect(isURL("./data/store.db")).To(BeFalse())
	})
})

var _ = Describe("resolveSQLitePath", func() {
	It("keeps an explicit file path", func() {
		cmd := newTestCmd("")
		path, err := resolveSQLitePath(cmd, "/tmp/custom.db")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal("/tmp/custom.db"))
	})

	It("defaults into the config directory when the target is a URL", func() {
		dir := GinkgoT().TempDir()
		cmd := newTestCmd(dir)

		path, err := resolveSQLitePath(cmd, "http://localhost:8000")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, sqliteDBFile)))
	})

	It("defaults into the config directory when the target is unset", func() {
		dir := GinkgoT().TempDir()
		cmd := newTestCmd(dir)

		path, err := resolveSQLitePath(cmd, "")
		Expect(err).NotTo(HaveOccurred())
		Expect(path).To(Equal(filepath.Join(dir, sqliteDBFile)))
	})
})
