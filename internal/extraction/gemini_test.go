package extraction

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"google.golang.org/api/googleapi"
)

var _ = Describe("Gemini", func() {
	When("the API key is missing", func() {
		It("returns a ConfigurationError", func() {
			_, err := NewGemini(context.Background(), Config{})
			Expect(err).To(MatchError(ErrConfiguration))
		})
	})

	Describe("geminiParts", func() {
		It("puts the image first and strips the MIME prefix", func() {
			p, _ := BuildPrompt(ImageInput([]byte("x"), "image/png"))
			parts := geminiParts(p)
			Expect(parts).To(HaveLen(2))
			Expect(parts[0]).To(Equal(genai.ImageData("png", []byte("x"))))
			Expect(parts[1]).To(Equal(genai.Text(p.User)))
		})

		It("sends only the user message for text input", func() {
			p, _ := BuildPrompt(TextInput("Steep tea."))
			parts := geminiParts(p)
			Expect(parts).To(Equal([]genai.Part{genai.Text("Steep tea.")}))
		})
	})

	Describe("modelFor", func() {
		var g *Gemini

		BeforeEach(func() {
			var err error
			g, err = NewGemini(context.Background(), Config{APIKey: "test-key", Model: "gemini-test"})
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(g.Close)
		})

		It("sets the system prompt as the system instruction", func() {
			p, _ := BuildPrompt(TextInput("Steep tea."))
			model := g.modelFor(p)
			Expect(model.SystemInstruction).NotTo(BeNil())
			Expect(model.SystemInstruction.Parts).To(Equal([]genai.Part{genai.Text(p.System)}))
			Expect(model.GenerationConfig.MaxOutputTokens).To(HaveValue(BeEquivalentTo(DefaultMaxOutputTokens)))
		})

		It("builds a fresh model for every call", func() {
			text, _ := BuildPrompt(TextInput("Steep tea."))
			image, _ := BuildPrompt(ImageInput([]byte("x"), "image/png"))
			first := g.modelFor(text)
			second := g.modelFor(image)
			Expect(first).NotTo(BeIdenticalTo(second))
			Expect(first.SystemInstruction.Parts).To(Equal([]genai.Part{genai.Text(text.System)}))
		})
	})

	Describe("classifyGeminiError", func() {
		It("maps API errors to ProviderError", func() {
			err := classifyGeminiError(&googleapi.Error{Code: http.StatusBadRequest, Message: "bad image"})
			Expect(err).To(MatchError(ErrProvider))
			var e *Error
			Expect(errors.As(err, &e)).To(BeTrue())
			Expect(e.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("maps everything else to TransportError", func() {
			Expect(classifyGeminiError(context.DeadlineExceeded)).To(MatchError(ErrTransport))
		})
	})
})
