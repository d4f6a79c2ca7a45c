package recipe

import (
	"time"

	"github.com/zombor/recipe-box/internal/extraction"
)

// Source records how a recipe entered the box
type Source string

const (
	SourceManual Source = "manual"
	SourceText   Source = "text"
	SourceImage  Source = "image"
)

// Recipe is a stored recipe
type Recipe struct {
	ID          string                  `json:"id"`
	Title       string                  `json:"title"`
	Description string                  `json:"description"`
	CookTime    int                     `json:"cookTime"` // minutes, named as in extraction.ParsedRecipe
	Ingredients []extraction.Ingredient `json:"ingredients"`
	Steps       []string                `json:"steps"`
	Categories  []string                `json:"categories"`
	Source      Source                  `json:"source"`
	Filename    string                  `json:"filename,omitempty"` // original upload for image imports
	ContentType string                  `json:"content_type,omitempty"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// fromParsed copies a validated extraction result into a new Recipe
func fromParsed(id string, parsed *extraction.ParsedRecipe, source Source, now time.Time) *Recipe {
	return &Recipe{
		ID:          id,
		Title:       parsed.Title,
		Description: parsed.Description,
		CookTime:    parsed.CookTime,
		Ingredients: parsed.Ingredients,
		Steps:       parsed.Steps,
		Categories:  parsed.Categories,
		Source:      source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
