package recipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/recipe-box/internal/extraction"
)

// Extractor turns raw recipe input into a validated recipe
type Extractor interface {
	ExtractFromText(ctx context.Context, text string) (*extraction.ParsedRecipe, error)
	ExtractFromImage(ctx context.Context, data []byte, mimeType string) (*extraction.ParsedRecipe, error)
}

// IDGenerator generates unique IDs for recipes
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles recipe operations
type Service struct {
	db          DB
	extractor   Extractor
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with a UUID generator and the wall clock
func NewService(db DB, extractor Extractor, storage Storage) *Service {
	return NewServiceWithDeps(db, extractor, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, extractor Extractor, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		extractor:   extractor,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

const maxFilenameBase = 50

// ErrNoFile is returned when a recipe has no stored source file
var ErrNoFile = errors.New("recipe has no source file")

// sanitizeFilename strips special characters from an uploaded filename and truncates it
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > maxFilenameBase {
		base = base[:maxFilenameBase]
	}
	if base == "" {
		base = "recipe"
	}

	return base + ext
}

// ExtractText runs the extraction pipeline on pasted text without saving anything
func (s *Service) ExtractText(ctx context.Context, text string) (*extraction.ParsedRecipe, error) {
	parsed, err := s.extractor.ExtractFromText(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("extracting recipe from text: %w", err)
	}
	return parsed, nil
}

// ExtractImage runs the extraction pipeline on a photo without saving anything
func (s *Service) ExtractImage(ctx context.Context, data []byte, contentType string) (*extraction.ParsedRecipe, error) {
	parsed, err := s.extractor.ExtractFromImage(ctx, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("extracting recipe from image: %w", err)
	}
	return parsed, nil
}

// CreateRecipe validates a user-edited recipe draft and saves it
func (s *Service) CreateRecipe(draft []byte) (*Recipe, error) {
	parsed, err := extraction.ParseRecipeJSON(draft)
	if err != nil {
		return nil, fmt.Errorf("validating recipe: %w", err)
	}

	recipe := fromParsed(s.idGenerator.Generate(), parsed, SourceManual, s.timeSource.Now())
	if err := s.db.SaveRecipe(recipe); err != nil {
		return nil, fmt.Errorf("saving recipe to database: %w", err)
	}
	return recipe, nil
}

// ImportText extracts a recipe from pasted text and saves it
func (s *Service) ImportText(ctx context.Context, text string) (*Recipe, error) {
	parsed, err := s.ExtractText(ctx, text)
	if err != nil {
		return nil, err
	}

	recipe := fromParsed(s.idGenerator.Generate(), parsed, SourceText, s.timeSource.Now())
	if err := s.db.SaveRecipe(recipe); err != nil {
		return nil, fmt.Errorf("saving recipe to database: %w", err)
	}
	return recipe, nil
}

// ImportImage stores the uploaded photo, extracts a recipe from it and saves it
func (s *Service) ImportImage(ctx context.Context, filename string, data []byte, contentType string) (*Recipe, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	savedPath, err := s.storage.Save(ctx, fmt.Sprintf("%s_%s", id, sanitizeFilename(filename)), data)
	if err != nil {
		return nil, fmt.Errorf("saving file: %w", err)
	}

	parsed, err := s.ExtractImage(ctx, data, contentType)
	if err != nil {
		slog.Error("Failed to extract recipe",
			"filename", filename,
			"content_type", contentType,
			"file_size", len(data),
			"kind", extraction.KindOf(err),
			"error", err,
		)
		s.removeFile(ctx, savedPath)
		return nil, err
	}

	recipe := fromParsed(id, parsed, SourceImage, now)
	recipe.Filename = savedPath
	recipe.ContentType = contentType

	if err := s.db.SaveRecipe(recipe); err != nil {
		s.removeFile(ctx, savedPath)
		return nil, fmt.Errorf("saving recipe to database: %w", err)
	}
	return recipe, nil
}

// removeFile deletes a stored upload, logging rather than failing
func (s *Service) removeFile(ctx context.Context, path string) {
	if err := s.storage.Delete(ctx, path); err != nil {
		slog.Warn("Failed to delete file", "filename", path, "error", err)
	}
}

// GetRecipe retrieves a recipe by ID
func (s *Service) GetRecipe(id string) (*Recipe, error) {
	recipe, err := s.db.GetRecipe(id)
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	return recipe, nil
}

// ListRecipes returns all recipes, newest first
func (s *Service) ListRecipes() ([]*Recipe, error) {
	recipes, err := s.db.ListRecipes()
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	return recipes, nil
}

// DeleteRecipe removes a recipe and its source file, if any
func (s *Service) DeleteRecipe(ctx context.Context, id string) error {
	recipe, err := s.db.GetRecipe(id)
	if err != nil {
		return fmt.Errorf("getting recipe for deletion: %w", err)
	}

	if recipe.Filename != "" {
		s.removeFile(ctx, recipe.Filename)
	}

	if err := s.db.DeleteRecipe(id); err != nil {
		return fmt.Errorf("deleting recipe from database: %w", err)
	}
	return nil
}

// GetRecipeFile retrieves the original upload for an image import
func (s *Service) GetRecipeFile(ctx context.Context, id string) ([]byte, string, error) {
	recipe, err := s.db.GetRecipe(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting recipe: %w", err)
	}
	if recipe.Filename == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrNoFile, id)
	}

	data, err := s.storage.Get(ctx, recipe.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting recipe file: %w", err)
	}
	return data, recipe.ContentType, nil
}
