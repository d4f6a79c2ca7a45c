// Package extraction turns free recipe text, or a photo of a recipe, into a validated ParsedRecipe
// by asking a generative model for JSON and repairing what comes back.
package extraction

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Extractor runs the extraction pipeline:
// prompt -> model call -> locate JSON -> sanitize -> strict parse -> validate.
// It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	client  ModelClient
	metrics *Metrics
}

// NewExtractor creates a new Extractor. metrics may be nil.
func NewExtractor(client ModelClient, metrics *Metrics) *Extractor {
	return &Extractor{
		client:  client,
		metrics: metrics,
	}
}

// ExtractFromText extracts a recipe from pasted or typed text
func (e *Extractor) ExtractFromText(ctx context.Context, text string) (*ParsedRecipe, error) {
	start := time.Now()
	if strings.TrimSpace(text) == "" {
		err := inputError("recipe text is empty", nil)
		e.metrics.observe(InputText, err, time.Since(start))
		return nil, err
	}
	return e.run(ctx, TextInput(text), start)
}

// ExtractFromImage extracts a recipe from a photographed or scanned recipe
func (e *Extractor) ExtractFromImage(ctx context.Context, data []byte, mimeType string) (*ParsedRecipe, error) {
	start := time.Now()
	prepared, preparedType, err := prepareImage(data, mimeType)
	if err != nil {
		e.metrics.observe(InputImage, err, time.Since(start))
		return nil, err
	}
	return e.run(ctx, ImageInput(prepared, preparedType), start)
}

func (e *Extractor) run(ctx context.Context, in RawInput, start time.Time) (*ParsedRecipe, error) {
	recipe, err := e.extract(ctx, in)
	elapsed := time.Since(start)
	e.metrics.observe(in.Kind, err, elapsed)

	if err != nil {
		slog.Warn("Recipe extraction failed",
			"input", in.Kind,
			"kind", KindOf(err),
			"duration", elapsed,
			"error", err,
		)
		return nil, err
	}

	slog.Info("Recipe extracted",
		"input", in.Kind,
		"title", recipe.Title,
		"ingredients", len(recipe.Ingredients),
		"steps", len(recipe.Steps),
		"duration", elapsed,
	)
	return recipe, nil
}

func (e *Extractor) extract(ctx context.Context, in RawInput) (*ParsedRecipe, error) {
	if e.client == nil {
		return nil, configurationError("no model client configured")
	}

	prompt, err := BuildPrompt(in)
	if err != nil {
		return nil, err
	}

	output, err := e.client.Complete(ctx, ExtractionRequest{Input: in, Prompt: prompt})
	if err != nil {
		if KindOf(err) == "" {
			return nil, transportError(err)
		}
		return nil, err
	}

	candidate, err := locateJSON(output)
	if err != nil {
		return nil, err
	}

	return ParseRecipeJSON([]byte(Sanitize(candidate)))
}
