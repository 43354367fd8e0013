package conversation

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"memchat/internal/logger"
	"memchat/internal/repository/db"
)

// conversationListLimit caps the sidebar listing
const conversationListLimit = 50

// Service exposes the conversation read and delete operations. Reads fail
// open: when the caller has no session or the conversation is missing or not
// theirs, the result is empty, never an error, so the client treats every
// case the same as "nothing here".
type Service struct {
	database db.Database
}

func NewService(database db.Database) *Service {
	return &Service{database: database}
}

// ListConversations returns the user's most recently updated conversations,
// newest first, capped at 50.
func (s *Service) ListConversations(userID string) ([]db.Conversation, error) {
	if userID == "" {
		return []db.Conversation{}, nil
	}
	conversations, err := s.database.GetConversationsByUser(userID, conversationListLimit)
	if err != nil {
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}
	if conversations == nil {
		conversations = []db.Conversation{}
	}
	return conversations, nil
}

// GetMessages returns a conversation's messages oldest first. Unknown
// conversations and ones the user does not own both return an empty slice.
func (s *Service) GetMessages(userID, conversationID string) ([]db.Message, error) {
	if userID == "" {
		return []db.Message{}, nil
	}
	conversation, err := s.database.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []db.Message{}, nil
		}
		logger.Log.WithError(err).WithField("conversation_id", conversationID).Warn("Conversation lookup failed, returning empty history")
		return []db.Message{}, nil
	}
	if conversation.UserID != userID {
		return []db.Message{}, nil
	}

	messages, err := s.database.GetConversationMessages(conversationID)
	if err != nil {
		logger.Log.WithError(err).WithField("conversation_id", conversationID).Warn("Message load failed, returning empty history")
		return []db.Message{}, nil
	}
	if messages == nil {
		messages = []db.Message{}
	}
	return messages, nil
}

// DeleteConversation removes a conversation the user owns. Deleting an
// unknown conversation succeeds; deleting someone else's does nothing.
func (s *Service) DeleteConversation(userID, conversationID string) error {
	conversation, err := s.database.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return fmt.Errorf("error loading conversation: %w", err)
	}
	if conversation.UserID != userID {
		logger.Log.WithFields(logrus.Fields{"conversation_id": conversationID, "user_id": userID}).Warn("Delete refused for conversation owned by another user")
		return nil
	}

	if err := s.database.DeleteConversation(conversationID); err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}
	return nil
}
