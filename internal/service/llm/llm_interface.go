package llm

import "context"

// Message is one turn of model-visible conversation history
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Plugin is a provider-side augmentation directive, passed through opaquely
type Plugin struct {
	ID         string `json:"id"`
	MaxResults int    `json:"max_results,omitempty"`
}

// ReasoningConfig asks the provider for a reasoning trace at a given effort
type ReasoningConfig struct {
	Effort string `json:"effort"` // low, medium or high
}

// ChatSettings are the per-request provider settings built by the orchestrator
type ChatSettings struct {
	Model     string
	Plugins   []Plugin
	Reasoning *ReasoningConfig
}

// Usage is the provider-reported token accounting for a completed response
type Usage struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	ReasoningTokens  int     `json:"reasoning_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

// StreamPart is the closed set of events a chat stream can emit. The
// provider maps its wire format into exactly these variants so downstream
// code can switch exhaustively instead of inspecting loose type tags.
type StreamPart interface {
	isStreamPart()
}

// TextPart is a chunk of the visible answer
type TextPart struct {
	Text string
}

// ReasoningPart is a chunk of the model's intermediate thinking trace
type ReasoningPart struct {
	Text string
}

// SourceURLPart is a citation emitted by a web-search-augmented response
type SourceURLPart struct {
	Title    string
	URL      string
	SourceID string
}

// StepStartPart marks the provider starting a new generation step
type StepStartPart struct{}

// UsagePart carries the final usage accounting, emitted at most once,
// after the last content part
type UsagePart struct {
	Usage Usage
}

func (TextPart) isStreamPart()      {}
func (ReasoningPart) isStreamPart() {}
func (SourceURLPart) isStreamPart() {}
func (StepStartPart) isStreamPart() {}
func (UsagePart) isStreamPart()     {}

// Provider defines the model gateway consumed by the orchestration services
type Provider interface {
	// StreamChat submits the message list and streams the decomposed
	// response. The returned channel is closed after the final part.
	StreamChat(ctx context.Context, messages []Message, settings ChatSettings) (<-chan StreamPart, error)

	// Complete performs a non-streaming chat completion and returns the
	// full response text. Used for auxiliary calls like fact extraction.
	Complete(ctx context.Context, messages []Message, systemPrompt, model string) (string, error)

	// Embed computes a fixed-dimension embedding vector for the given text
	Embed(ctx context.Context, text string) ([]float32, error)

	// FetchModels retrieves the provider's model catalog, filtered and
	// sorted for presentation
	FetchModels(ctx context.Context) ([]CatalogModel, error)

	// GetDefaultModel returns the model used when a request names none
	GetDefaultModel() string
}
