package recipe_test

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zombor/recipe-box/internal/extraction"
	"github.com/zombor/recipe-box/internal/recipe"
)

// modelReply answers a chat completion with the given assistant text
func modelReply(content string) http.HandlerFunc {
	return ghttp.CombineHandlers(
		ghttp.VerifyRequest("POST", "/v1/chat/completions"),
		ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": content}},
			},
		}),
	)
}

func pngBytes() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	Expect(png.Encode(&buf, img)).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("Integration", func() {
	var (
		db          *recipe.BoltDB
		store       *recipe.LocalStorage
		modelServer *ghttp.Server
		appServer   *ghttp.Server
	)

	BeforeEach(func() {
		tempDir := GinkgoT().TempDir()

		var err error
		db, err = recipe.NewBoltDB(filepath.Join(tempDir, "test.db"))
		Expect(err).NotTo(HaveOccurred())

		store, err = recipe.NewLocalStorage(filepath.Join(tempDir, "uploads"))
		Expect(err).NotTo(HaveOccurred())

		modelServer = ghttp.NewServer()
		client := extraction.NewOpenAIWithClient(extraction.Config{
			APIKey:  "test-key",
			BaseURL: modelServer.URL() + "/v1",
			Style:   extraction.StyleChat,
		}, modelServer.HTTPTestServer.Client())

		registry := prometheus.NewRegistry()
		extractor := extraction.NewExtractor(client, extraction.NewMetrics(registry))

		service := recipe.NewService(db, extractor, store)
		server := recipe.NewServer(service, recipe.BasicAuth{}, registry)

		appServer = ghttp.NewServer()
		appServer.RouteToHandler("POST", "/api/recipes/import/text", server.ServeHTTP)
		appServer.RouteToHandler("POST", "/api/recipes/import/image", server.ServeHTTP)
		appServer.RouteToHandler("POST", "/api/extract/text", server.ServeHTTP)
		appServer.RouteToHandler("GET", "/api/recipes", server.ServeHTTP)
		appServer.RouteToHandler("GET", "/metrics", server.ServeHTTP)
	})

	AfterEach(func() {
		appServer.Close()
		modelServer.Close()
		db.Close()
	})

	It("imports a recipe from a fenced, smart-quoted model reply", func() {
		modelServer.AppendHandlers(modelReply("Here you go:\n```json\n" +
			`{“title”: “Pasta”, “description”: “Quick dinner”, “cookTime”: 10.4, ` +
			`“ingredients”: [{“amount”: 200, “unit”: “g”, “name”: “pasta”},], ` +
			`“steps”: [“Boil”, “Drain”,], “categories”: [“Dinner”, “dinner”, “Italian”]}` +
			"\n```"))

		resp, err := http.Post(appServer.URL()+"/api/recipes/import/text", "application/json",
			strings.NewReader(`{"text":"Boil pasta for 10 minutes."}`))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var created recipe.Recipe
		Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
		Expect(created.Title).To(Equal("Pasta"))
		Expect(created.CookTime).To(Equal(10))
		Expect(created.Ingredients).To(Equal([]extraction.Ingredient{{Amount: "200", Unit: "g", Name: "pasta"}}))
		Expect(created.Categories).To(Equal([]string{"dinner", "italian"}))

		saved, err := db.GetRecipe(created.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(saved.Steps).To(Equal([]string{"Boil", "Drain"}))

		metricsResp, err := http.Get(appServer.URL() + "/metrics")
		Expect(err).NotTo(HaveOccurred())
		defer metricsResp.Body.Close()
		exposition, err := io.ReadAll(metricsResp.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(exposition)).To(ContainSubstring(`recipe_box_extractions_total{input="text",outcome="success"} 1`))
	})

	It("tells the client to fall back to manual entry when the model refuses", func() {
		modelServer.AppendHandlers(modelReply("Sorry, I can't help with that."))

		resp, err := http.Post(appServer.URL()+"/api/extract/text", "application/json",
			strings.NewReader(`{"text":"not a recipe"}`))
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusUnprocessableEntity))

		var body map[string]string
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		Expect(body["kind"]).To(Equal(string(extraction.KindNoJSONFound)))
		Expect(body["fallback"]).To(Equal("manual"))

		recipes, err := db.ListRecipes()
		Expect(err).NotTo(HaveOccurred())
		Expect(recipes).To(BeEmpty())
	})

	It("imports a photo and keeps the original upload", func() {
		modelServer.AppendHandlers(modelReply(
			`{"title":"Card","description":"","cookTime":"5","ingredients":[],"steps":["Read the card"],"categories":[]}`))

		var b bytes.Buffer
		writer := multipart.NewWriter(&b)
		part, err := writer.CreateFormFile("file", "grandma's card.png")
		Expect(err).NotTo(HaveOccurred())
		photo := pngBytes()
		part.Write(photo)
		writer.Close()

		resp, err := http.Post(appServer.URL()+"/api/recipes/import/image", writer.FormDataContentType(), &b)
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))

		var created recipe.Recipe
		Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
		Expect(created.Source).To(Equal(recipe.SourceImage))
		Expect(created.Filename).To(HaveSuffix("_grandmas card.png"))

		stored, err := store.Get(context.Background(), created.Filename)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(Equal(photo))
	})

	It("removes the upload when the provider fails", func() {
		modelServer.AppendHandlers(ghttp.RespondWith(http.StatusInternalServerError, `{"error":"overloaded"}`))

		var b bytes.Buffer
		writer := multipart.NewWriter(&b)
		part, err := writer.CreateFormFile("file", "card.png")
		Expect(err).NotTo(HaveOccurred())
		part.Write(pngBytes())
		writer.Close()

		resp, err := http.Post(appServer.URL()+"/api/recipes/import/image", writer.FormDataContentType(), &b)
		Expect(err).NotTo(HaveOccurred())
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusBadGateway), string(body))

		listResp, err := http.Get(appServer.URL() + "/api/recipes")
		Expect(err).NotTo(HaveOccurred())
		defer listResp.Body.Close()
		var recipes []recipe.Recipe
		Expect(json.NewDecoder(listResp.Body).Decode(&recipes)).To(Succeed())
		Expect(recipes).To(BeEmpty())
	})
})
