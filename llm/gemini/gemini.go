// Package gemini implements the llm.Client interface against the Google
// Gemini REST API.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/carecost/carecost/llm"
	"github.com/carecost/carecost/message"
)

const geminiAPIURL = "https://generativelanguage.googleapis.com/v1/models"

// Config holds Gemini provider configuration
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
}

// DefaultConfig returns default Gemini configuration
func DefaultConfig(apiKey string) *Config {
	return &Config{
		APIKey:    apiKey,
		Model:     "gemini-2.0-flash",
		MaxTokens: 2048,
	}
}

// Provider implements the llm.Client interface for Google Gemini
type Provider struct {
	config *Config
	client *http.Client
}

// New creates a new Gemini provider
func New(config *Config) *Provider {
	if config == nil {
		config = DefaultConfig("")
	}
	if config.Model == "" {
		config.Model = "gemini-2.0-flash"
	}
	if config.BaseURL == "" {
		config.BaseURL = geminiAPIURL
	}

	return &Provider{
		config: config,
		client: &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiMessage struct {
	Role  string       `json:"role"`
	Parts []geminiPart `json:"parts"`
}

// geminiGenerationConfig carries the sampling knobs. The generateContent
// endpoint only accepts them nested here, not at the top level. Temperature
// has no omitempty: zero must reach the API explicitly so estimation output
// stays deterministic.
type geminiGenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float32 `json:"temperature"`
}

type geminiRequest struct {
	Contents         []geminiMessage        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Generate implements llm.Client
func (p *Provider) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	if p.config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key not configured")
	}
	if req == nil {
		return nil, fmt.Errorf("generate request cannot be nil")
	}

	// Gemini has no separate system role on this endpoint; system messages
	// are folded into the user turn stream.
	contents := make([]geminiMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		role := "user"
		if msg.Role == message.RoleAssistant {
			role = "model"
		}
		contents = append(contents, geminiMessage{
			Role:  role,
			Parts: []geminiPart{{Text: msg.Text()}},
		})
	}

	payload := geminiRequest{
		Contents: contents,
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: p.config.MaxTokens,
			Temperature:     p.config.Temperature,
		},
	}
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", p.config.BaseURL, p.config.Model, p.config.APIKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Gemini API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	var resp geminiResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("Gemini API error (code %d): %s", resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	msg := message.NewMessage(message.RoleAssistant, resp.Candidates[0].Content.Parts[0].Text)
	return &llm.GenerateResponse{Message: msg}, nil
}
