package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"memchat/internal/config"
	"memchat/internal/logger"

	"github.com/sirupsen/logrus"
)

const (
	openRouterChatURL      = "https://openrouter.ai/api/v1/chat/completions"
	openRouterEmbeddingURL = "https://openrouter.ai/api/v1/embeddings"
	openRouterModelsURL    = "https://openrouter.ai/api/v1/models"
)

// Ensure OpenRouterProvider implements Provider
var _ Provider = (*OpenRouterProvider)(nil)

// OpenRouterProvider implements Provider using direct OpenRouter API calls
type OpenRouterProvider struct {
	config *config.LLMConfig
	client *http.Client
}

// NewOpenRouterProvider creates a new OpenRouter provider with config
func NewOpenRouterProvider(llmConfig *config.LLMConfig) *OpenRouterProvider {
	return &OpenRouterProvider{
		config: llmConfig,
		client: &http.Client{Timeout: llmConfig.RequestTimeout},
	}
}

// --- wire types ---

type chatRequest struct {
	Model     string           `json:"model"`
	Messages  []Message        `json:"messages"`
	Stream    bool             `json:"stream"`
	Plugins   []Plugin         `json:"plugins,omitempty"`
	Reasoning *ReasoningConfig `json:"reasoning,omitempty"`
	Usage     *usageRequest    `json:"usage,omitempty"`
}

type usageRequest struct {
	Include bool `json:"include"`
}

type annotation struct {
	Type        string `json:"type"`
	URLCitation struct {
		URL   string `json:"url"`
		Title string `json:"title"`
		ID    string `json:"id"`
	} `json:"url_citation"`
}

type chatDelta struct {
	Content     string       `json:"content"`
	Reasoning   string       `json:"reasoning"`
	Annotations []annotation `json:"annotations"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta chatDelta `json:"delta"`
	} `json:"choices"`
	Usage *wireUsage `json:"usage,omitempty"`
}

type wireUsage struct {
	PromptTokens            int     `json:"prompt_tokens"`
	CompletionTokens        int     `json:"completion_tokens"`
	TotalTokens             int     `json:"total_tokens"`
	Cost                    float64 `json:"cost"`
	CompletionTokensDetails struct {
		ReasoningTokens int `json:"reasoning_tokens"`
	} `json:"completion_tokens_details"`
}

func (u *wireUsage) toUsage() Usage {
	return Usage{
		PromptTokens:     u.PromptTokens,
		CompletionTokens: u.CompletionTokens,
		ReasoningTokens:  u.CompletionTokensDetails.ReasoningTokens,
		TotalTokens:      u.TotalTokens,
		Cost:             u.Cost,
	}
}

// GetDefaultModel returns the configured default model
func (p *OpenRouterProvider) GetDefaultModel() string {
	return p.config.DefaultModel
}

func (p *OpenRouterProvider) newRequest(ctx context.Context, method, url string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.config.OpenRouterAPIKey)
	req.Header.Set("X-Title", "memchat")
	return req, nil
}

// StreamChat submits a chat completion and streams the response decomposed
// into the closed stream-part set. The returned channel is closed once the
// provider stream ends; a UsagePart is the final part when usage data was
// reported.
func (p *OpenRouterProvider) StreamChat(ctx context.Context, messages []Message, settings ChatSettings) (<-chan StreamPart, error) {
	if p.config.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not configured")
	}

	model := settings.Model
	if model == "" {
		model = p.config.DefaultModel
	}

	logger.Log.WithFields(logrus.Fields{
		"model":         model,
		"message_count": len(messages),
		"web_search":    len(settings.Plugins) > 0,
		"reasoning":     settings.Reasoning != nil,
	}).Info("Calling OpenRouter API (streaming)")

	reqBody := chatRequest{
		Model:     model,
		Messages:  messages,
		Stream:    true,
		Plugins:   settings.Plugins,
		Reasoning: settings.Reasoning,
		Usage:     &usageRequest{Include: true},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := p.newRequest(ctx, http.MethodPost, openRouterChatURL, jsonData)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	parts := make(chan StreamPart)

	go func() {
		defer resp.Body.Close()
		defer close(parts)

		var usage *wireUsage
		started := false

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || line == "data: [DONE]" {
				continue
			}
			if !strings.HasPrefix(line, "data: ") {
				continue
			}

			var streamResp chatResponse
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &streamResp); err != nil {
				logger.Log.WithError(err).Warn("Error parsing stream chunk")
				continue
			}

			if streamResp.Usage != nil {
				usage = streamResp.Usage
			}

			if len(streamResp.Choices) == 0 {
				continue
			}
			delta := streamResp.Choices[0].Delta

			if !started && (delta.Content != "" || delta.Reasoning != "") {
				started = true
				parts <- StepStartPart{}
			}
			if delta.Reasoning != "" {
				parts <- ReasoningPart{Text: delta.Reasoning}
			}
			if delta.Content != "" {
				parts <- TextPart{Text: delta.Content}
			}
			for _, a := range delta.Annotations {
				if a.Type != "url_citation" {
					continue
				}
				parts <- SourceURLPart{
					Title:    a.URLCitation.Title,
					URL:      a.URLCitation.URL,
					SourceID: a.URLCitation.ID,
				}
			}
		}

		if err := scanner.Err(); err != nil {
			logger.Log.WithError(err).Error("Scanner error during streaming")
		}

		if usage != nil {
			parts <- UsagePart{Usage: usage.toUsage()}
		}
	}()

	return parts, nil
}

// Complete performs a non-streaming chat completion and returns the full
// response text.
func (p *OpenRouterProvider) Complete(ctx context.Context, messages []Message, systemPrompt, model string) (string, error) {
	if p.config.OpenRouterAPIKey == "" {
		return "", fmt.Errorf("OPENROUTER_API_KEY not configured")
	}

	if model == "" {
		model = p.config.DefaultModel
	}

	full := append([]Message{{Role: "system", Content: systemPrompt}}, messages...)

	reqBody := chatRequest{
		Model:    model,
		Messages: full,
		Stream:   false,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := p.newRequest(ctx, http.MethodPost, openRouterChatURL, jsonData)
	if err != nil {
		return "", err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("error decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// --- embeddings ---

type embeddingRequest struct {
	Input string `json:"input"`
	Model string `json:"model"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed computes an embedding vector for the given text using the
// configured embedding model.
func (p *OpenRouterProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.config.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY not configured")
	}

	jsonData, err := json.Marshal(embeddingRequest{
		Input: text,
		Model: p.config.EmbeddingModel,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling embedding request: %w", err)
	}

	req, err := p.newRequest(ctx, http.MethodPost, openRouterEmbeddingURL, jsonData)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending embedding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading embedding response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("error decoding embedding response: %w", err)
	}

	if len(embResp.Data) == 0 {
		return nil, fmt.Errorf("no embedding data returned")
	}

	return embResp.Data[0].Embedding, nil
}
