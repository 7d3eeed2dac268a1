package config_test

import (
	"os"
	"path/filepath"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roadworksco/milepost/pkg/config"
)

func TestConfig(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Config Suite")
}

var _ = Describe("Config", func() {
	var (
		tmpDir string
		cfger  *config.Configer
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()

		var err error
		cfger, err = config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("LoadConfig", func() {
		It("returns defaults when no config file exists", func() {
			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Chunk.Size).To(Equal(5000))
			Expect(cfg.Chunk.Overlap).To(Equal(0.125))
			Expect(cfg.VectorStore.Provider).To(Equal("chroma"))
			Expect(cfg.VectorStore.Collection).To(Equal("road_maintenance_manuals"))
			Expect(cfg.Embedding.Model).To(Equal("nomic-embed-text"))
			Expect(cfg.Retrieval.TopK).To(Equal(config.DefaultTopK))
		})

		It("overrides defaults with file values and keeps the rest", func() {
			content := []byte("[chunk]\nsize = 1200\n\n[vector_store]\nprovider = \"sqlitevec\"\n")
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0o600)).To(Succeed())

			cfg, err := cfger.LoadConfig()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Chunk.Size).To(Equal(1200))
			Expect(cfg.Chunk.Overlap).To(Equal(0.125))
			Expect(cfg.VectorStore.Provider).To(Equal("sqlitevec"))
			Expect(cfg.VectorStore.Collection).To(Equal("road_maintenance_manuals"))
		})

		It("rejects unsupported config versions", func() {
			content := []byte("version = 99\n")
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0o600)).To(Succeed())

			_, err := cfger.LoadConfig()
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unsupported config version"))
		})
	})

	Describe("SetConfigValue / GetConfigValue", func() {
		It("round-trips string keys", func() {
			Expect(cfger.SetConfigValue("embedding.model", "all-minilm")).To(Succeed())

			got, err := cfger.GetConfigValue("embedding.model")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("all-minilm"))
		})

		It("round-trips numeric keys", func() {
			Expect(cfger.SetConfigValue("chunk.size", "2500")).To(Succeed())
			Expect(cfger.SetConfigValue("chunk.overlap", "0.2")).To(Succeed())

			size, err := cfger.GetConfigValue("chunk.size")
			Expect(err).NotTo(HaveOccurred())
			Expect(size).To(Equal("2500"))

			overlap, err := cfger.GetConfigValue("chunk.overlap")
			Expect(err).NotTo(HaveOccurred())
			Expect(overlap).To(Equal("0.2"))
		})

		It("round-trips the keyword list as comma-separated values", func() {
			Expect(cfger.SetConfigValue("chunk.time_keywords", "night, curfew ,off-peak")).To(Succeed())

			got, err := cfger.GetConfigValue("chunk.time_keywords")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(Equal("night,curfew,off-peak"))
		})

		It("rejects unknown keys", func() {
			err := cfger.SetConfigValue("nope.nothing", "x")
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("unknown config key"))
		})

		It("rejects malformed numeric values", func() {
			err := cfger.SetConfigValue("retrieval.top_k", "many")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ValidConfigKeys", func() {
		It("covers every supported key exactly once", func() {
			keys := config.ValidConfigKeys()
			seen := map[string]bool{}
			for _, k := range keys {
				Expect(seen[k]).To(BeFalse(), "duplicate key %s", k)
				seen[k] = true
				Expect(config.IsValidConfigKey(k)).To(BeTrue())
			}
			Expect(keys).To(ContainElements(
				"chunk.size", "chunk.overlap", "chunk.time_keywords",
				"vector_store.provider", "embedding.model", "llm.provider",
				"retrieval.top_k", "api.listen",
			))
		})
	})

	Describe("InitViper", func() {
		It("applies defaults, file values, and env overrides in order", func() {
			content := []byte("[embedding]\nmodel = \"from-file\"\n")
			Expect(os.WriteFile(filepath.Join(tmpDir, "config.toml"), content, 0o600)).To(Succeed())

			GinkgoT().Setenv("MILEPOST_EMBEDDING_TARGET", "http://env-host:11434")

			v, err := config.InitViper(tmpDir)
			Expect(err).NotTo(HaveOccurred())

			cfg := config.FromViper(v)
			Expect(cfg.Embedding.Model).To(Equal("from-file"))
			Expect(cfg.Embedding.Target).To(Equal("http://env-host:11434"))
			Expect(cfg.Chunk.Size).To(Equal(5000))
		})
	})
})
