package conversation

import (
	"database/sql"
	"errors"
	"testing"

	"memchat/internal/repository/db"
	"memchat/internal/testutil"
)

func TestService_ListConversations(t *testing.T) {
	var gotLimit int
	mockDB := &testutil.MockDatabase{
		GetConversationsByUserFunc: func(userID string, limit int) ([]db.Conversation, error) {
			gotLimit = limit
			return []db.Conversation{
				{ID: "c1", UserID: userID, Title: "First..."},
				{ID: "c2", UserID: userID, Title: "Second..."},
			}, nil
		},
	}

	service := NewService(mockDB)
	conversations, err := service.ListConversations("user-1")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if gotLimit != 50 {
		t.Errorf("list limit = %d, want 50", gotLimit)
	}
	if len(conversations) != 2 {
		t.Errorf("conversations = %d, want 2", len(conversations))
	}
}

func TestService_ListConversations_EmptyNotNil(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		GetConversationsByUserFunc: func(userID string, limit int) ([]db.Conversation, error) {
			return nil, nil
		},
	}

	service := NewService(mockDB)
	conversations, err := service.ListConversations("user-1")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if conversations == nil {
		t.Error("ListConversations() = nil, want empty slice")
	}
}

func TestService_ListConversations_NoSession(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		GetConversationsByUserFunc: func(userID string, limit int) ([]db.Conversation, error) {
			t.Error("store queried without a session")
			return nil, nil
		},
	}

	service := NewService(mockDB)
	conversations, err := service.ListConversations("")
	if err != nil {
		t.Fatalf("ListConversations() error = %v", err)
	}
	if conversations == nil || len(conversations) != 0 {
		t.Errorf("ListConversations() = %v, want empty slice", conversations)
	}
}

func TestService_GetMessages_NoSession(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			t.Error("store queried without a session")
			return nil, nil
		},
	}

	service := NewService(mockDB)
	messages, err := service.GetMessages("", "conv-1")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if messages == nil || len(messages) != 0 {
		t.Errorf("GetMessages() = %v, want empty slice", messages)
	}
}

func TestService_GetMessages(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			return &db.Conversation{ID: id, UserID: "user-1"}, nil
		},
		GetConversationMessagesFunc: func(conversationID string) ([]db.Message, error) {
			return []db.Message{
				{ID: "m1", Role: db.RoleUser, Content: "hi"},
				{ID: "m2", Role: db.RoleAssistant, Content: "hello"},
			}, nil
		},
	}

	service := NewService(mockDB)
	messages, err := service.GetMessages("user-1", "conv-1")
	if err != nil {
		t.Fatalf("GetMessages() error = %v", err)
	}
	if len(messages) != 2 {
		t.Errorf("messages = %d, want 2", len(messages))
	}
}

func TestService_GetMessages_UnknownConversation(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			return nil, sql.ErrNoRows
		},
	}

	service := NewService(mockDB)
	messages, err := service.GetMessages("user-1", "missing")
	if err != nil {
		t.Fatalf("GetMessages() error = %v, want fail-open empty result", err)
	}
	if messages == nil || len(messages) != 0 {
		t.Errorf("messages = %v, want empty slice", messages)
	}
}

func TestService_GetMessages_ForeignConversation(t *testing.T) {
	loaded := false
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			return &db.Conversation{ID: id, UserID: "someone-else"}, nil
		},
		GetConversationMessagesFunc: func(conversationID string) ([]db.Message, error) {
			loaded = true
			return nil, nil
		},
	}

	service := NewService(mockDB)
	messages, err := service.GetMessages("user-1", "conv-1")
	if err != nil {
		t.Fatalf("GetMessages() error = %v, want fail-open empty result", err)
	}
	if len(messages) != 0 {
		t.Errorf("messages = %d, want 0 for foreign conversation", len(messages))
	}
	if loaded {
		t.Error("messages were loaded for a foreign conversation")
	}
}

func TestService_GetMessages_LookupFailure(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			return nil, errors.New("connection lost")
		},
	}

	service := NewService(mockDB)
	messages, err := service.GetMessages("user-1", "conv-1")
	if err != nil {
		t.Fatalf("GetMessages() error = %v, want fail-open empty result", err)
	}
	if len(messages) != 0 {
		t.Errorf("messages = %d, want 0", len(messages))
	}
}

func TestService_DeleteConversation(t *testing.T) {
	deleted := false
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			return &db.Conversation{ID: id, UserID: "user-1"}, nil
		},
		DeleteConversationFunc: func(id string) error {
			deleted = true
			return nil
		},
	}

	service := NewService(mockDB)
	if err := service.DeleteConversation("user-1", "conv-1"); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if !deleted {
		t.Error("conversation was not deleted")
	}
}

func TestService_DeleteConversation_ForeignConversation(t *testing.T) {
	deleted := false
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			return &db.Conversation{ID: id, UserID: "someone-else"}, nil
		},
		DeleteConversationFunc: func(id string) error {
			deleted = true
			return nil
		},
	}

	service := NewService(mockDB)
	if err := service.DeleteConversation("user-1", "conv-1"); err != nil {
		t.Fatalf("DeleteConversation() error = %v", err)
	}
	if deleted {
		t.Error("foreign conversation was deleted")
	}
}

func TestService_DeleteConversation_Unknown(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		GetConversationFunc: func(id string) (*db.Conversation, error) {
			return nil, sql.ErrNoRows
		},
	}

	service := NewService(mockDB)
	if err := service.DeleteConversation("user-1", "missing"); err != nil {
		t.Errorf("DeleteConversation() error = %v, want nil for unknown conversation", err)
	}
}
