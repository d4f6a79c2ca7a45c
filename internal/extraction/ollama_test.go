package extraction

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

var _ = Describe("Ollama", func() {
	var (
		server *ghttp.Server
		client *Ollama
		req    ExtractionRequest
		sent   ollamaChatRequest
		text   string
		err    error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		client = NewOllamaWithClient(Config{BaseURL: server.URL() + "/", Model: "llava"}, server.HTTPTestServer.Client())
		in := ImageInput([]byte("img"), "image/png")
		p, _ := BuildPrompt(in)
		req = ExtractionRequest{Input: in, Prompt: p}
	})

	AfterEach(func() {
		server.Close()
	})

	JustBeforeEach(func() {
		text, err = client.Complete(context.Background(), req)
	})

	When("Ollama answers", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.CombineHandlers(
				ghttp.VerifyRequest("POST", "/api/chat"),
				func(w http.ResponseWriter, r *http.Request) {
					defer GinkgoRecover()
					body, _ := io.ReadAll(r.Body)
					Expect(json.Unmarshal(body, &sent)).To(Succeed())
				},
				ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
					"message": map[string]any{"role": "assistant", "content": `{"title":"Card"}`},
					"done":    true,
				}),
			))
		})

		It("returns the message content", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal(`{"title":"Card"}`))
		})

		It("attaches the image to the user message", func() {
			Expect(sent.Stream).To(BeFalse())
			Expect(sent.Messages).To(HaveLen(1))
			Expect(sent.Messages[0].Images).To(Equal([]string{"aW1n"}))
			Expect(sent.Options.NumPredict).To(Equal(DefaultMaxOutputTokens))
		})
	})

	When("Ollama returns an error status", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusNotFound, `{"error":"model \"llava\" not found"}`))
		})

		It("returns a ProviderError", func() {
			Expect(err).To(MatchError(ErrProvider))
			Expect(err.Error()).To(ContainSubstring("404"))
		})
	})
})
