package groq_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/roadworksco/milepost/pkg/llm"
	"github.com/roadworksco/milepost/pkg/llm/groq"
)

func TestGroqGenerator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Groq Generator Suite")
}

var _ = Describe("Generator", func() {
	var (
		server *httptest.Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if server != nil {
			server.Close()
		}
	})

	It("requires an API key", func() {
		_, err := groq.NewGenerator(groq.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("authenticates and maps the OpenAI-compatible response", func() {
		var gotAuth string
		var gotBody map[string]any

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/openai/v1/chat/completions"))
			gotAuth = r.Header.Get("Authorization")
			Expect(json.NewDecoder(r.Body).Decode(&gotBody)).To(Succeed())

			json.NewEncoder(w).Encode(map[string]any{
				"model": "llama-3.3-70b-versatile",
				"choices": []map[string]any{{
					"message":       map[string]string{"role": "assistant", "content": "Curfew is 6-9 AM."},
					"finish_reason": "stop",
				}},
				"usage": map[string]int{"prompt_tokens": 80, "completion_tokens": 12, "total_tokens": 92},
			})
		}))

		g, err := groq.NewGenerator(groq.Config{BaseURL: server.URL, APIKey: "gsk_test"})
		Expect(err).NotTo(HaveOccurred())
		defer g.Close()

		resp, err := g.Generate(ctx, &llm.ChatRequest{
			System:   "You answer from manual excerpts.",
			Messages: []llm.Message{llm.NewUserMessage("When is the curfew?")},
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(resp.Message.Content).To(Equal("Curfew is 6-9 AM."))
		Expect(resp.StopReason).To(Equal("stop"))
		Expect(resp.Usage.TotalTokens).To(Equal(92))

		Expect(gotAuth).To(Equal("Bearer gsk_test"))
		Expect(gotBody["stream"]).To(Equal(false))

		messages := gotBody["messages"].([]any)
		Expect(messages[0].(map[string]any)["role"]).To(Equal("system"))
	})

	It("extracts API error messages", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]string{"message": "Invalid API Key", "type": "invalid_request_error"},
			})
		}))

		g, err := groq.NewGenerator(groq.Config{BaseURL: server.URL, APIKey: "bad"})
		Expect(err).NotTo(HaveOccurred())
		defer g.Close()

		_, err = g.Generate(ctx, &llm.ChatRequest{Messages: []llm.Message{llm.NewUserMessage("hi")}})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("Invalid API Key"))
	})

	It("errors when no choices come back", func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
		}))

		g, err := groq.NewGenerator(groq.Config{BaseURL: server.URL, APIKey: "gsk_test"})
		Expect(err).NotTo(HaveOccurred())
		defer g.Close()

		_, err = g.Generate(ctx, &llm.ChatRequest{Messages: []llm.Message{llm.NewUserMessage("hi")}})
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("no choices"))
	})
})
