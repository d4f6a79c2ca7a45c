package extraction

// InputKind distinguishes the two entry points of the pipeline
type InputKind string

const (
	InputText  InputKind = "text"
	InputImage InputKind = "image"
)

// RawInput is what the caller handed in: either text, or image bytes with a MIME type
type RawInput struct {
	Kind     InputKind
	Content  string
	Bytes    []byte
	MimeType string
}

// TextInput builds a RawInput for pasted or typed recipe text
func TextInput(text string) RawInput {
	return RawInput{Kind: InputText, Content: text}
}

// ImageInput builds a RawInput for a photographed or scanned recipe
func ImageInput(data []byte, mimeType string) RawInput {
	return RawInput{Kind: InputImage, Bytes: data, MimeType: mimeType}
}

// ExtractionRequest is the immutable unit of work handed to a ModelClient
type ExtractionRequest struct {
	Input  RawInput
	Prompt Prompt
}

// Ingredient is one line of a recipe's ingredient list
type Ingredient struct {
	Amount string `json:"amount"` // kept as text: "1/2", "a pinch"
	Unit   string `json:"unit"`
	Name   string `json:"name"`
}

// ParsedRecipe is the validated output of the pipeline
type ParsedRecipe struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CookTime    int          `json:"cookTime"` // minutes
	Ingredients []Ingredient `json:"ingredients"`
	Steps       []string     `json:"steps"`
	Categories  []string     `json:"categories"`
}
