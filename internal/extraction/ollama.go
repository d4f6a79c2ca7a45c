package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Ollama implements ModelClient using a local Ollama server. Ollama needs no credential.
type Ollama struct {
	cfg    Config
	client *http.Client
}

// NewOllama creates a new Ollama ModelClient
// Recommended models for recipe extraction:
//   - llava:1.6 (photos of cookbook pages)
//   - qwen2-vl:7b (good OCR on handwritten cards)
//   - llama3.1 (text only)
func NewOllama(cfg Config) *Ollama {
	return NewOllamaWithClient(cfg, &http.Client{})
}

// NewOllamaWithClient creates a new Ollama client with a custom http.Client for testing
func NewOllamaWithClient(cfg Config, client *http.Client) *Ollama {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llava"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &Ollama{
		cfg:    cfg,
		client: client,
	}
}

// ollamaChatRequest represents the request body for Ollama's chat API
type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  ollamaOptions   `json:"options"`
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict"`
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ollamaChatResponse represents the response from Ollama's chat API
type ollamaChatResponse struct {
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

// Complete sends the prompt to Ollama and returns the raw reply
func (o *Ollama) Complete(ctx context.Context, req ExtractionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.cfg.timeoutFor(req.Input.Kind))
	defer cancel()

	p := req.Prompt
	var messages []ollamaMessage
	if p.System != "" {
		messages = append(messages, ollamaMessage{Role: "system", Content: p.System})
	}
	user := ollamaMessage{Role: "user", Content: p.User}
	if p.Image != nil {
		user.Images = []string{base64.StdEncoding.EncodeToString(p.Image.Data)}
	}
	messages = append(messages, user)

	reqBody := ollamaChatRequest{
		Model:    o.cfg.Model,
		Stream:   false,
		Messages: messages,
		Options:  ollamaOptions{NumPredict: o.cfg.MaxOutputTokens},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", o.cfg.BaseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.client.Do(httpReq)
	if err != nil {
		slog.Warn("Ollama request failed",
			"url", url,
			"model", o.cfg.Model,
			"duration", time.Since(start),
			"timeout", isTimeout(err),
			"error", err,
		)
		return "", transportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Warn("Ollama returned an error", "status", resp.StatusCode, "body", string(body))
		return "", providerError(resp.StatusCode, string(body))
	}

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", transportError(fmt.Errorf("decoding response: %w", err))
	}

	return chatResp.Message.Content, nil
}

// Close closes the Ollama client (no-op for HTTP client)
func (o *Ollama) Close() error {
	return nil
}
