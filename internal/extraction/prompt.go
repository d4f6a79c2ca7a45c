package extraction

import "fmt"

// recipeSchema is the output contract every prompt fixes
const recipeSchema = `{
  "title": "string",
  "description": "string",
  "cookTime": 0,
  "ingredients": [
    {"amount": "string", "unit": "string", "name": "string"}
  ],
  "steps": ["string"],
  "categories": ["string"]
}`

// recipeSystemPrompt is the system instruction used for text extraction
const recipeSystemPrompt = `You convert recipes written in free text into structured JSON.

Return ONLY valid JSON in this exact format:
` + recipeSchema + `

Rules:
- title is the recipe name and must not be empty
- description is a one or two sentence summary, or "" if there is nothing to summarise
- cookTime is the total cooking time in whole minutes, as a number
- amount is kept exactly as written ("1/2", "2-3", "a pinch"); use "" for unit when there is none
- steps are the instructions in the order they must be performed, one action per entry
- categories are short lowercase tags such as "dinner", "vegetarian", "dessert"
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

// recipeImagePrompt accompanies an image of a recipe
const recipeImagePrompt = `The image contains a recipe (a photo of a cookbook page, a recipe card or a screenshot). Read all of the text and extract the recipe.

Respond with minified JSON only, no markdown and no commentary, in this exact format:
` + recipeSchema + `

cookTime is the total cooking time in whole minutes as a number. Keep ingredient amounts exactly as written and use "" for a missing unit. Keep the steps in the order they appear.`

// ImagePart is an inline image reference
type ImagePart struct {
	MimeType string
	Data     []byte
}

// Prompt is the provider-neutral instruction payload for one extraction
type Prompt struct {
	// System is empty for image prompts, which carry everything in a single user message
	System string
	User   string
	Image  *ImagePart
}

// BuildPrompt constructs the prompt for the given input kind
func BuildPrompt(in RawInput) (Prompt, error) {
	switch in.Kind {
	case InputText:
		return Prompt{
			System: recipeSystemPrompt,
			User:   in.Content,
		}, nil
	case InputImage:
		return Prompt{
			User: recipeImagePrompt,
			Image: &ImagePart{
				MimeType: in.MimeType,
				Data:     in.Bytes,
			},
		}, nil
	default:
		return Prompt{}, inputError(fmt.Sprintf("unknown input kind %q", in.Kind), nil)
	}
}
