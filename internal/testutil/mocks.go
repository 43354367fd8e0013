package testutil

import (
	"context"
	"errors"

	"memchat/internal/repository/db"
	"memchat/internal/service/llm"
)

// MockDatabase is a mock implementation of db.Database for testing
type MockDatabase struct {
	// User mocks
	CreateUserFunc            func(email, password string) (*db.User, error)
	GetUserByEmailFunc        func(email string) (*db.User, error)
	GetUserByIDFunc           func(id string) (*db.User, error)
	IncrementMessageCountFunc func(userID, tier string) error

	// Conversation mocks
	CreateConversationFunc       func(userID, title string) (*db.Conversation, error)
	FindOrCreateConversationFunc func(id, userID, title string) (*db.Conversation, error)
	GetConversationFunc          func(id string) (*db.Conversation, error)
	GetConversationsByUserFunc   func(userID string, limit int) ([]db.Conversation, error)
	DeleteConversationFunc       func(id string) error

	// Message mocks
	AddUserMessageFunc          func(conversationID, content string) (*db.Message, error)
	AddAssistantMessageFunc     func(conversationID string, params db.AssistantMessageParams) (*db.Message, error)
	GetConversationMessagesFunc func(conversationID string) ([]db.Message, error)

	// Memory mocks
	InsertMemoryChunkFunc  func(userID, content string, embedding []float32) (*db.MemoryChunk, error)
	SearchMemoryChunksFunc func(userID string, embedding []float32, k int) ([]db.ScoredChunk, error)
}

// User methods
func (m *MockDatabase) CreateUser(email, password string) (*db.User, error) {
	if m.CreateUserFunc != nil {
		return m.CreateUserFunc(email, password)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetUserByEmail(email string) (*db.User, error) {
	if m.GetUserByEmailFunc != nil {
		return m.GetUserByEmailFunc(email)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetUserByID(id string) (*db.User, error) {
	if m.GetUserByIDFunc != nil {
		return m.GetUserByIDFunc(id)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) IncrementMessageCount(userID, tier string) error {
	if m.IncrementMessageCountFunc != nil {
		return m.IncrementMessageCountFunc(userID, tier)
	}
	return errors.New("not implemented")
}

// Conversation methods
func (m *MockDatabase) CreateConversation(userID, title string) (*db.Conversation, error) {
	if m.CreateConversationFunc != nil {
		return m.CreateConversationFunc(userID, title)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) FindOrCreateConversation(id, userID, title string) (*db.Conversation, error) {
	if m.FindOrCreateConversationFunc != nil {
		return m.FindOrCreateConversationFunc(id, userID, title)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetConversation(id string) (*db.Conversation, error) {
	if m.GetConversationFunc != nil {
		return m.GetConversationFunc(id)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetConversationsByUser(userID string, limit int) ([]db.Conversation, error) {
	if m.GetConversationsByUserFunc != nil {
		return m.GetConversationsByUserFunc(userID, limit)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) DeleteConversation(id string) error {
	if m.DeleteConversationFunc != nil {
		return m.DeleteConversationFunc(id)
	}
	return errors.New("not implemented")
}

// Message methods
func (m *MockDatabase) AddUserMessage(conversationID, content string) (*db.Message, error) {
	if m.AddUserMessageFunc != nil {
		return m.AddUserMessageFunc(conversationID, content)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) AddAssistantMessage(conversationID string, params db.AssistantMessageParams) (*db.Message, error) {
	if m.AddAssistantMessageFunc != nil {
		return m.AddAssistantMessageFunc(conversationID, params)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) GetConversationMessages(conversationID string) ([]db.Message, error) {
	if m.GetConversationMessagesFunc != nil {
		return m.GetConversationMessagesFunc(conversationID)
	}
	return nil, errors.New("not implemented")
}

// Memory methods
func (m *MockDatabase) InsertMemoryChunk(userID, content string, embedding []float32) (*db.MemoryChunk, error) {
	if m.InsertMemoryChunkFunc != nil {
		return m.InsertMemoryChunkFunc(userID, content, embedding)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) SearchMemoryChunks(userID string, embedding []float32, k int) ([]db.ScoredChunk, error) {
	if m.SearchMemoryChunksFunc != nil {
		return m.SearchMemoryChunksFunc(userID, embedding, k)
	}
	return nil, errors.New("not implemented")
}

func (m *MockDatabase) Close() error {
	return nil
}

// MockLLMProvider is a mock implementation of llm.Provider for testing
type MockLLMProvider struct {
	StreamChatFunc      func(ctx context.Context, messages []llm.Message, settings llm.ChatSettings) (<-chan llm.StreamPart, error)
	CompleteFunc        func(ctx context.Context, messages []llm.Message, systemPrompt, model string) (string, error)
	EmbedFunc           func(ctx context.Context, text string) ([]float32, error)
	FetchModelsFunc     func(ctx context.Context) ([]llm.CatalogModel, error)
	GetDefaultModelFunc func() string
}

func (m *MockLLMProvider) StreamChat(ctx context.Context, messages []llm.Message, settings llm.ChatSettings) (<-chan llm.StreamPart, error) {
	if m.StreamChatFunc != nil {
		return m.StreamChatFunc(ctx, messages, settings)
	}
	return nil, errors.New("not implemented")
}

func (m *MockLLMProvider) Complete(ctx context.Context, messages []llm.Message, systemPrompt, model string) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages, systemPrompt, model)
	}
	return "", errors.New("not implemented")
}

func (m *MockLLMProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if m.EmbedFunc != nil {
		return m.EmbedFunc(ctx, text)
	}
	return nil, errors.New("not implemented")
}

func (m *MockLLMProvider) FetchModels(ctx context.Context) ([]llm.CatalogModel, error) {
	if m.FetchModelsFunc != nil {
		return m.FetchModelsFunc(ctx)
	}
	return nil, errors.New("not implemented")
}

func (m *MockLLMProvider) GetDefaultModel() string {
	if m.GetDefaultModelFunc != nil {
		return m.GetDefaultModelFunc()
	}
	return "openai/gpt-4o-mini"
}

// StreamOf builds a closed part channel from a fixed sequence, for tests
func StreamOf(parts ...llm.StreamPart) <-chan llm.StreamPart {
	ch := make(chan llm.StreamPart, len(parts))
	for _, p := range parts {
		ch <- p
	}
	close(ch)
	return ch
}
