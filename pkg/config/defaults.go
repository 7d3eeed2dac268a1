package config

const (
	defaultPDFDir = "data/pdfs"

	defaultChunkSize    = 5000
	defaultChunkOverlap = 0.125

	defaultVectorProvider   = "chroma"
	defaultVectorTarget     = "http://localhost:8000"
	defaultVectorCollection = "road_maintenance_manuals"

	defaultEmbeddingProvider   = "ollama"
	defaultEmbeddingTarget     = "http://localhost:11434"
	defaultEmbeddingModel      = "nomic-embed-text"
	defaultEmbeddingDimensions = 768

	defaultLLMProvider = "ollama"

	// Empty target means each provider uses its own default endpoint.
	defaultLLMTarget = ""

	defaultLLMModel       = "llama3.1"
	defaultLLMAPIKeyEnv   = "GROQ_API_KEY"
	defaultLLMMaxTokens   = 1024
	defaultLLMTemperature = 0.1

	defaultAPIListen = ":8090"
)

// Retrieval depth bounds. TopK values outside [MinTopK, MaxTopK] are
// clamped by the retriever.
const (
	MinTopK     = 5
	MaxTopK     = 20
	DefaultTopK = 10
)

// DefaultTimeKeywords is the keyword list chunks are tagged against when
// the config does not supply its own. Matches are case-insensitive
// substring hits.
func DefaultTimeKeywords() []string {
	return []string{
		"night",
		"nighttime",
		"daytime",
		"off-peak",
		"peak",
		"curfew",
		"hours of work",
		"work hours",
		"lane closure",
		"closure window",
	}
}

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Ingest: IngestConfig{
			PDFDir: defaultPDFDir,
		},
		Chunk: ChunkConfig{
			Size:         defaultChunkSize,
			Overlap:      defaultChunkOverlap,
			TimeKeywords: DefaultTimeKeywords(),
		},
		VectorStore: VectorStoreConfig{
			Provider:   defaultVectorProvider,
			Target:     defaultVectorTarget,
			Collection: defaultVectorCollection,
		},
		Embedding: EmbeddingConfig{
			Provider:   defaultEmbeddingProvider,
			Target:     defaultEmbeddingTarget,
			Model:      defaultEmbeddingModel,
			Dimensions: defaultEmbeddingDimensions,
		},
		LLM: LLMConfig{
			Provider:    defaultLLMProvider,
			Target:      defaultLLMTarget,
			Model:       defaultLLMModel,
			APIKeyEnv:   defaultLLMAPIKeyEnv,
			MaxTokens:   defaultLLMMaxTokens,
			Temperature: defaultLLMTemperature,
		},
		Retrieval: RetrievalConfig{
			TopK: DefaultTopK,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
	}
}
