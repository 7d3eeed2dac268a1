// Package llmutils is the llm utility package
package llmutils

import (
	"fmt"
	"os"

	"github.com/roadworksco/milepost/pkg/llm"
	"github.com/roadworksco/milepost/pkg/llm/groq"
	"github.com/roadworksco/milepost/pkg/llm/ollama"
)

type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
	Model        string

	// APIKeyEnv names the environment variable holding the provider API
	// key, for providers that need one.
	APIKeyEnv string
}

func NewGenerator(o *NewGeneratorOpts) (llm.Generator, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewGenerator(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "groq":
		apiKey := os.Getenv(o.APIKeyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("groq API key not set: export %s or add it to .env", o.APIKeyEnv)
		}
		return groq.NewGenerator(groq.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
			APIKey:  apiKey,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", o.ProviderType)
	}
}
