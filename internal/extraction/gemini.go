package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gemini implements ModelClient using Google Gemini
type Gemini struct {
	cfg    Config
	client *genai.Client
}

// NewGemini creates a new Gemini ModelClient
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	cfg = cfg.withDefaults()
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, configurationError("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-pro"
	}

	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Gemini{
		cfg:    cfg,
		client: client,
	}, nil
}

// Complete sends the prompt to Gemini and returns the concatenated text parts
func (g *Gemini) Complete(ctx context.Context, req ExtractionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.timeoutFor(req.Input.Kind))
	defer cancel()

	resp, err := g.modelFor(req.Prompt).GenerateContent(ctx, geminiParts(req.Prompt)...)
	if err != nil {
		slog.Warn("Gemini request failed", "model", g.cfg.Model, "timeout", isTimeout(err), "error", err)
		return "", classifyGeminiError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", &Error{Kind: KindProvider, Message: "no response from gemini"}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}
	return responseText.String(), nil
}

// modelFor builds a fresh model handle for one call. Handles are never shared between calls.
func (g *Gemini) modelFor(p Prompt) *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.cfg.Model)
	model.SetMaxOutputTokens(int32(g.cfg.MaxOutputTokens))
	if p.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(p.System)}}
	}
	return model
}

// geminiParts maps the user side of a Prompt onto genai parts
func geminiParts(p Prompt) []genai.Part {
	var parts []genai.Part
	if p.Image != nil {
		// genai.ImageData expects the format suffix ("png"), not the full MIME type
		format := strings.TrimPrefix(p.Image.MimeType, "image/")
		parts = append(parts, genai.ImageData(format, p.Image.Data))
	}
	parts = append(parts, genai.Text(p.User))
	return parts
}

// classifyGeminiError separates API rejections from network failures
func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return &Error{Kind: KindProvider, StatusCode: apiErr.Code, Body: apiErr.Message, Err: err}
	}
	return transportError(err)
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
