package db

// Usage accounting tiers. Every completed model turn increments exactly one
// of the two counters on the owning user.
const (
	TierNormal  = "normal"
	TierPremium = "premium"
)

// AssistantMessageParams carries the decomposed response persisted with an
// assistant message.
type AssistantMessageParams struct {
	Content   string
	Reasoning string
	Sources   []Source
	Details   *MessageDetails
}

// Database defines the interface for data persistence operations
type Database interface {
	// User operations
	CreateUser(email, password string) (*User, error)
	GetUserByEmail(email string) (*User, error)
	GetUserByID(id string) (*User, error)
	// IncrementMessageCount atomically increments the counter for the given
	// tier (TierNormal or TierPremium). The increment happens store-side so
	// concurrent turns never lose updates.
	IncrementMessageCount(userID, tier string) error

	// Conversation operations
	CreateConversation(userID, title string) (*Conversation, error)
	// FindOrCreateConversation returns the conversation with the given id,
	// creating it with exactly that id (owned by userID, titled title) when
	// it does not exist. First write wins under concurrent creation.
	FindOrCreateConversation(id, userID, title string) (*Conversation, error)
	GetConversation(id string) (*Conversation, error)
	GetConversationsByUser(userID string, limit int) ([]Conversation, error)
	DeleteConversation(id string) error

	// Message operations
	AddUserMessage(conversationID, content string) (*Message, error)
	AddAssistantMessage(conversationID string, params AssistantMessageParams) (*Message, error)
	GetConversationMessages(conversationID string) ([]Message, error)

	// Memory chunk operations
	InsertMemoryChunk(userID, content string, embedding []float32) (*MemoryChunk, error)
	// SearchMemoryChunks returns up to k chunks owned by userID ranked by
	// descending cosine similarity to the query embedding. No similarity
	// threshold is applied here; callers filter.
	SearchMemoryChunks(userID string, embedding []float32, k int) ([]ScoredChunk, error)

	// Close closes the database connection
	Close() error
}
