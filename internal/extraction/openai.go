package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"

	// maxErrorBody bounds how much of a provider error payload is kept
	maxErrorBody = 4 << 10
)

// OpenAI implements ModelClient against OpenAI-compatible chat completions or responses endpoints
type OpenAI struct {
	cfg    Config
	client *http.Client
}

// NewOpenAI creates a new OpenAI-compatible ModelClient. A missing API key is reported on the
// first Complete call so that the failure surfaces as a ConfigurationError to the caller.
func NewOpenAI(cfg Config) *OpenAI {
	return NewOpenAIWithClient(cfg, &http.Client{})
}

// NewOpenAIWithClient creates a new OpenAI client with a custom http.Client for testing
func NewOpenAIWithClient(cfg Config, client *http.Client) *OpenAI {
	cfg = cfg.withDefaults()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultOpenAIModel
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &OpenAI{
		cfg:    cfg,
		client: client,
	}
}

// chatContentPart is one element of a multi-part chat message
type chatContentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *chatImageURL `json:"image_url,omitempty"`
}

type chatImageURL struct {
	URL string `json:"url"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type responsesContentPart struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

type responsesInputMessage struct {
	Role    string                 `json:"role"`
	Content []responsesContentPart `json:"content"`
}

type responsesRequest struct {
	Model           string `json:"model"`
	Instructions    string `json:"instructions,omitempty"`
	Input           any    `json:"input"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

type responsesResponse struct {
	OutputText string `json:"output_text"`
	Output     []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
}

// Complete sends the request and returns the model's raw text
func (o *OpenAI) Complete(ctx context.Context, req ExtractionRequest) (string, error) {
	if strings.TrimSpace(o.cfg.APIKey) == "" {
		return "", configurationError("model provider API key is not set")
	}

	body, endpoint, err := o.buildRequest(req.Prompt)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.timeoutFor(req.Input.Kind))
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	start := time.Now()
	resp, err := o.client.Do(httpReq)
	if err != nil {
		slog.Warn("Model provider request failed",
			"provider", "openai",
			"style", o.cfg.Style,
			"input", req.Input.Kind,
			"duration", time.Since(start),
			"timeout", isTimeout(err),
			"error", err,
		)
		return "", transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", transportError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		payload := truncate(string(raw), maxErrorBody)
		slog.Warn("Model provider returned an error",
			"provider", "openai",
			"style", o.cfg.Style,
			"status", resp.StatusCode,
			"body", payload,
		)
		return "", providerError(resp.StatusCode, payload)
	}

	text, err := o.readText(raw)
	if err != nil {
		return "", err
	}
	return text, nil
}

// buildRequest encodes the prompt for the configured endpoint style
func (o *OpenAI) buildRequest(p Prompt) ([]byte, string, error) {
	var payload any
	var endpoint string

	switch o.cfg.Style {
	case StyleChat:
		endpoint = o.cfg.BaseURL + "/chat/completions"
		payload = chatRequest{
			Model:     o.cfg.Model,
			Messages:  chatMessages(p),
			MaxTokens: o.cfg.MaxOutputTokens,
		}
	case StyleResponses:
		endpoint = o.cfg.BaseURL + "/responses"
		payload = responsesRequest{
			Model:           o.cfg.Model,
			Instructions:    p.System,
			Input:           responsesInput(p),
			MaxOutputTokens: o.cfg.MaxOutputTokens,
		}
	default:
		return nil, "", configurationError(fmt.Sprintf("unknown endpoint style %q", o.cfg.Style))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("marshaling request: %w", err)
	}
	return body, endpoint, nil
}

func chatMessages(p Prompt) []chatMessage {
	var messages []chatMessage
	if p.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: p.System})
	}
	if p.Image == nil {
		return append(messages, chatMessage{Role: "user", Content: p.User})
	}
	return append(messages, chatMessage{
		Role: "user",
		Content: []chatContentPart{
			{Type: "text", Text: p.User},
			{Type: "image_url", ImageURL: &chatImageURL{URL: dataURL(p.Image)}},
		},
	})
}

func responsesInput(p Prompt) any {
	if p.Image == nil {
		return p.User
	}
	return []responsesInputMessage{
		{
			Role: "user",
			Content: []responsesContentPart{
				{Type: "input_text", Text: p.User},
				{Type: "input_image", ImageURL: dataURL(p.Image)},
			},
		},
	}
}

// dataURL inlines image bytes as a base64 data reference
func dataURL(img *ImagePart) string {
	return fmt.Sprintf("data:%s;base64,%s", img.MimeType, base64.StdEncoding.EncodeToString(img.Data))
}

// readText pulls the generated text out of a successful response body
func (o *OpenAI) readText(raw []byte) (string, error) {
	switch o.cfg.Style {
	case StyleResponses:
		var resp responsesResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", providerError(http.StatusOK, truncate(string(raw), maxErrorBody))
		}
		if resp.OutputText != "" {
			return resp.OutputText, nil
		}
		var sb strings.Builder
		for _, item := range resp.Output {
			for _, c := range item.Content {
				if c.Type == "output_text" || c.Type == "text" {
					sb.WriteString(c.Text)
				}
			}
		}
		if sb.Len() == 0 {
			return "", &Error{Kind: KindProvider, StatusCode: http.StatusOK, Message: "response has no output text"}
		}
		return sb.String(), nil
	default:
		var resp chatResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return "", providerError(http.StatusOK, truncate(string(raw), maxErrorBody))
		}
		if len(resp.Choices) == 0 {
			return "", &Error{Kind: KindProvider, StatusCode: http.StatusOK, Message: "response has no choices"}
		}
		return resp.Choices[0].Message.Content, nil
	}
}

// Close is a no-op for the HTTP client
func (o *OpenAI) Close() error {
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// isTimeout reports whether err came from a deadline rather than a refused or reset connection
func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
