package recipe

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/zombor/recipe-box/internal/extraction"
)

const (
	maxUploadSize = int64(50 << 20) // high-resolution phone photos
	maxJSONBody   = int64(1 << 20)
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	setCORSHeaders(w)
	writeJSON(w, status, map[string]string{"error": message})
}

// extractionStatus maps an extraction failure kind to an HTTP status
func extractionStatus(kind extraction.Kind) int {
	switch kind {
	case extraction.KindInput, extraction.KindNoJSONFound, extraction.KindMalformedJSON, extraction.KindSchema:
		return http.StatusUnprocessableEntity
	case extraction.KindProvider:
		return http.StatusBadGateway
	case extraction.KindTransport:
		return http.StatusGatewayTimeout
	case extraction.KindConfiguration:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeExtractionError reports a pipeline failure. Parse failures tell the client to fall back to manual entry.
func writeExtractionError(w http.ResponseWriter, err error) {
	kind := extraction.KindOf(err)
	status := extractionStatus(kind)
	if status == http.StatusInternalServerError {
		slog.Error("Unexpected extraction failure", "error", err)
		writeError(w, status, "Internal server error")
		return
	}

	body := map[string]string{
		"error": err.Error(),
		"kind":  string(kind),
	}
	if extraction.IsParseFailure(err) {
		body["fallback"] = "manual"
	}
	setCORSHeaders(w)
	writeJSON(w, status, body)
}

type textRequest struct {
	Text string `json:"text"`
}

// readText decodes a {"text": "..."} request body
func readText(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req textRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return "", false
	}
	return req.Text, true
}

type upload struct {
	filename    string
	data        []byte
	contentType string
}

// readUpload reads the multipart "file" field, writing an error response when it fails
func readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return nil, false
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		writeError(w, http.StatusBadRequest, errorMsg)
		return nil, false
	}
	defer f.Close()

	if header.Size > maxUploadSize {
		writeError(w, http.StatusBadRequest, "File is too large. Maximum size is 50MB. Please compress or resize your image.")
		return nil, false
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFromExt(header.Filename)
	}

	return &upload{
		filename:    header.Filename,
		data:        data,
		contentType: strings.ToLower(strings.TrimSpace(contentType)),
	}, true
}

func contentTypeFromExt(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	}
	return "application/octet-stream"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtractText previews the recipe extracted from pasted text
func (s *Server) handleExtractText(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	parsed, err := s.service.ExtractText(r.Context(), text)
	if err != nil {
		writeExtractionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

// handleExtractImage previews the recipe extracted from a photo
func (s *Server) handleExtractImage(w http.ResponseWriter, r *http.Request) {
	up, ok := readUpload(w, r)
	if !ok {
		return
	}

	parsed, err := s.service.ExtractImage(r.Context(), up.data, up.contentType)
	if err != nil {
		writeExtractionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, parsed)
}

// handleCreateRecipe saves a recipe the user entered or corrected by hand
func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	recipe, err := s.service.CreateRecipe(body)
	if err != nil {
		if extraction.KindOf(err) != "" {
			writeExtractionError(w, err)
			return
		}
		slog.Error("Error creating recipe", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// handleImportText extracts a recipe from pasted text and saves it
func (s *Server) handleImportText(w http.ResponseWriter, r *http.Request) {
	text, ok := readText(w, r)
	if !ok {
		return
	}

	recipe, err := s.service.ImportText(r.Context(), text)
	if err != nil {
		if extraction.KindOf(err) != "" {
			writeExtractionError(w, err)
			return
		}
		slog.Error("Error importing recipe", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// handleImportImage extracts a recipe from a photo and saves both
func (s *Server) handleImportImage(w http.ResponseWriter, r *http.Request) {
	up, ok := readUpload(w, r)
	if !ok {
		return
	}

	recipe, err := s.service.ImportImage(r.Context(), up.filename, up.data, up.contentType)
	if err != nil {
		if extraction.KindOf(err) != "" {
			writeExtractionError(w, err)
			return
		}
		slog.Error("Error importing recipe", "filename", up.filename, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusCreated, recipe)
}

// handleListRecipes returns a list of all recipes
func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.service.ListRecipes()
	if err != nil {
		slog.Error("Error listing recipes", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if recipes == nil {
		recipes = []*Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

// handleGetRecipe returns a single recipe
func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.service.GetRecipe(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recipe not found")
			return
		}
		slog.Error("Error getting recipe", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

// handleGetRecipeFile returns the original photo of an image import
func (s *Server) handleGetRecipeFile(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetRecipeFile(r.Context(), r.PathValue("id"))
	if err != nil {
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrNoFile) {
			slog.Error("Error getting recipe file", "error", err)
		}
		writeError(w, http.StatusNotFound, "File not found")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteRecipe deletes a recipe
func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteRecipe(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Recipe not found")
			return
		}
		slog.Error("Error deleting recipe", "error", err)
		writeError(w, http.StatusInternalServerError, "Error deleting recipe")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
