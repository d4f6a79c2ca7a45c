package extraction

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParseRecipeJSON strictly parses a sanitized JSON object and validates it
func ParseRecipeJSON(data []byte) (*ParsedRecipe, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, &Error{Kind: KindMalformedJSON, Fragment: string(data), Err: err}
	}
	// anything but whitespace after the object, stray closing brackets included, is malformed
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &Error{Kind: KindMalformedJSON, Fragment: string(data), Message: "trailing data after JSON object", Err: err}
	}

	return Validate(raw)
}

// Validate checks a decoded JSON object against the recipe shape and coerces the variations
// models commonly produce. It returns either a complete recipe or a SchemaError.
func Validate(raw map[string]any) (*ParsedRecipe, error) {
	if raw == nil {
		return nil, schemaError("", "expected a JSON object")
	}

	title, ok := raw["title"].(string)
	if !ok {
		return nil, schemaError("title", "must be a string")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, schemaError("title", "must not be empty")
	}

	description, ok := raw["description"].(string)
	if !ok {
		return nil, schemaError("description", "must be a string")
	}

	cookTime, err := coerceMinutes(raw["cookTime"])
	if err != nil {
		return nil, err
	}

	ingredients, err := validateIngredients(raw["ingredients"])
	if err != nil {
		return nil, err
	}

	steps, err := validateSteps(raw["steps"])
	if err != nil {
		return nil, err
	}

	categories, err := normalizeCategories(raw["categories"])
	if err != nil {
		return nil, err
	}

	return &ParsedRecipe{
		Title:       title,
		Description: strings.TrimSpace(description),
		CookTime:    cookTime,
		Ingredients: ingredients,
		Steps:       steps,
		Categories:  categories,
	}, nil
}

// coerceMinutes accepts a JSON number or a numeric string and rounds it to whole minutes
func coerceMinutes(v any) (int, error) {
	var f float64
	switch t := v.(type) {
	case json.Number:
		parsed, err := t.Float64()
		if err != nil {
			return 0, schemaError("cookTime", fmt.Sprintf("not a number: %s", t))
		}
		f = parsed
	case float64:
		f = t
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, schemaError("cookTime", fmt.Sprintf("not a number: %q", t))
		}
		f = parsed
	case nil:
		return 0, schemaError("cookTime", "is required")
	default:
		return 0, schemaError("cookTime", fmt.Sprintf("unsupported type %T", v))
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, schemaError("cookTime", "not a finite number")
	}
	if f < 0 {
		return 0, schemaError("cookTime", "must not be negative")
	}
	if f > math.MaxInt32 {
		return 0, schemaError("cookTime", "out of range")
	}
	return int(math.Round(f)), nil
}

func validateIngredients(v any) ([]Ingredient, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, schemaError("ingredients", "must be an array")
	}

	ingredients := make([]Ingredient, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("ingredients[%d]", i)
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, schemaError(field, "must be an object")
		}

		amount, ok := textValue(obj["amount"])
		if !ok {
			return nil, schemaError(field+".amount", "must be a string")
		}

		// "to taste" items often come back without a unit
		unit := ""
		if obj["unit"] != nil {
			if unit, ok = textValue(obj["unit"]); !ok {
				return nil, schemaError(field+".unit", "must be a string")
			}
		}

		name, ok := obj["name"].(string)
		if !ok {
			return nil, schemaError(field+".name", "must be a string")
		}

		ingredients = append(ingredients, Ingredient{
			Amount: strings.TrimSpace(amount),
			Unit:   strings.TrimSpace(unit),
			Name:   strings.TrimSpace(name),
		})
	}
	return ingredients, nil
}

// textValue accepts a string, or a number rendered the way it was written
func textValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

func validateSteps(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, schemaError("steps", "must be an array")
	}
	if len(items) == 0 {
		return nil, schemaError("steps", "must not be empty")
	}

	steps := make([]string, 0, len(items))
	for i, item := range items {
		step, ok := item.(string)
		if !ok {
			return nil, schemaError(fmt.Sprintf("steps[%d]", i), "must be a string")
		}
		steps = append(steps, step)
	}
	return steps, nil
}

// normalizeCategories trims and lower-cases tags, dropping empties and duplicates.
// First occurrence order is kept.
func normalizeCategories(v any) ([]string, error) {
	categories := []string{}
	if v == nil {
		return categories, nil
	}

	items, ok := v.([]any)
	if !ok {
		return nil, schemaError("categories", "must be an array")
	}

	lower := cases.Lower(language.Und)
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, schemaError(fmt.Sprintf("categories[%d]", i), "must be a string")
		}
		s = lower.String(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		categories = append(categories, s)
	}
	return categories, nil
}
