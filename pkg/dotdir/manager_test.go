package dotdir_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roadworksco/milepost/pkg/dotdir"
)

func TestDotdir(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dotdir Suite")
}

var _ = Describe("Manager", func() {
	var manager *dotdir.Manager

	BeforeEach(func() {
		manager = dotdir.NewManager()
	})

	Describe("Target", func() {
		It("uses the override directory when provided", func() {
			tmp := GinkgoT().TempDir()
			override := filepath.Join(tmp, "custom")

			target, err := manager.Target(override)
			Expect(err).NotTo(HaveOccurred())
			Expect(target).To(Equal(override))

			info, err := os.Stat(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("creates the override directory if missing", func() {
			tmp := GinkgoT().TempDir()
			override := filepath.Join(tmp, "a", "b", ".milepost")

			target, err := manager.Target(override)
			Expect(err).NotTo(HaveOccurred())

			info, err := os.Stat(target)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("prefers a local .milepost directory over home", func() {
			tmp := GinkgoT().TempDir()
			Expect(os.MkdirAll(filepath.Join(tmp, ".milepost"), 0o755)).To(Succeed())

			cwd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(tmp)).To(Succeed())
			DeferCleanup(func() { _ = os.Chdir(cwd) })

			target, err := manager.Target("")
			Expect(err).NotTo(HaveOccurred())
			// Resolve symlinks: macOS TempDir lives under /private
			resolved, err := filepath.EvalSymlinks(target)
			Expect(err).NotTo(HaveOccurred())
			expected, err := filepath.EvalSymlinks(filepath.Join(tmp, ".milepost"))
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved).To(Equal(expected))
		})
	})
})
