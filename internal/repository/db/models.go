package db

import "time"

// Message roles. Messages are immutable once written.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// User represents an account in the database
type User struct {
	ID                  string
	Email               string
	PasswordHash        string
	IsPremium           bool
	MemoryEnabled       bool
	NormalMessageCount  int
	PremiumMessageCount int
	CreatedAt           time.Time
}

// Conversation represents a conversation owned by exactly one user
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Source is a citation attached to an assistant message
type Source struct {
	Title    string `json:"title"`
	URL      string `json:"url"`
	SourceID string `json:"source_id,omitempty"`
}

// MessageDetails holds provider-reported usage for an assistant message
type MessageDetails struct {
	Model            string  `json:"model"`
	Provider         string  `json:"provider"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	ReasoningTokens  int     `json:"reasoning_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	Cost             float64 `json:"cost"`
}

// Message represents a message in a conversation. Reasoning, Sources and
// Details are only ever set on assistant messages.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	Reasoning      string
	Sources        []Source
	Details        *MessageDetails
	CreatedAt      time.Time
}

// MemoryChunk is an embedding-indexed fragment of past conversation content
type MemoryChunk struct {
	ID        string
	UserID    string
	Content   string
	Embedding []float32
	CreatedAt time.Time
}

// ScoredChunk is a memory chunk paired with its cosine similarity to a query
type ScoredChunk struct {
	MemoryChunk
	Similarity float64
}
