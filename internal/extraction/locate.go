package extraction

import "strings"

// locateJSON isolates the JSON object in a model reply. The reply may carry prose or markdown
// fences around the object; the candidate runs from the first '{' to the last '}' inclusive.
// Braces in the surrounding prose will corrupt the slice, so the model must emit exactly one
// top-level object.
func locateJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	if start == -1 {
		return "", &Error{Kind: KindNoJSONFound, Message: "no opening brace in model output"}
	}

	end := strings.LastIndex(text, "}")
	if end == -1 || end < start {
		return "", &Error{Kind: KindNoJSONFound, Message: "no closing brace in model output"}
	}

	return text[start : end+1], nil
}
