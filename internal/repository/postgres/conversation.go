package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"memchat/internal/logger"
	"memchat/internal/repository/db"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateConversation creates a new conversation for a user
func (p *PostgresDB) CreateConversation(userID, title string) (*db.Conversation, error) {
	return p.insertConversation(uuid.New().String(), userID, title)
}

// FindOrCreateConversation returns the conversation with the given id, or
// creates it with exactly that id when unknown, so client-generated
// identifiers are honored. ON CONFLICT DO NOTHING plus a re-read gives
// first-write-wins semantics under concurrent creation.
func (p *PostgresDB) FindOrCreateConversation(id, userID, title string) (*db.Conversation, error) {
	existing, err := p.GetConversation(id)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return nil, fmt.Errorf("error looking up conversation: %w", err)
	}

	query := `
	INSERT INTO conversations (id, user_id, title)
	VALUES ($1, $2, $3)
	ON CONFLICT (id) DO NOTHING
	`
	if _, err := p.conn.Exec(query, id, userID, title); err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	conv, err := p.GetConversation(id)
	if err != nil {
		return nil, fmt.Errorf("error re-reading conversation after create: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"conversation_id": id, "user_id": userID}).Info("Adopted client-supplied conversation id")
	return conv, nil
}

func (p *PostgresDB) insertConversation(id, userID, title string) (*db.Conversation, error) {
	conv := &db.Conversation{
		ID:     id,
		UserID: userID,
		Title:  title,
	}

	query := `
	INSERT INTO conversations (id, user_id, title)
	VALUES ($1, $2, $3)
	RETURNING created_at, updated_at
	`

	err := p.conn.QueryRow(query, id, userID, title).Scan(&conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("error creating conversation: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"conversation_id": id, "user_id": userID}).Info("Created new conversation")
	return conv, nil
}

// GetConversation retrieves a specific conversation. Returns sql.ErrNoRows
// unchanged when the conversation does not exist so callers can distinguish
// absence from failure.
func (p *PostgresDB) GetConversation(id string) (*db.Conversation, error) {
	var conv db.Conversation
	query := `
	SELECT id, user_id, title, created_at, updated_at
	FROM conversations
	WHERE id = $1
	`

	err := p.conn.QueryRow(query, id).Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &conv, nil
}

// GetConversationsByUser retrieves a user's conversations ordered by most
// recent activity, capped at limit.
func (p *PostgresDB) GetConversationsByUser(userID string, limit int) ([]db.Conversation, error) {
	query := `
	SELECT id, user_id, title, created_at, updated_at
	FROM conversations
	WHERE user_id = $1
	ORDER BY updated_at DESC
	LIMIT $2
	`

	rows, err := p.conn.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying conversations: %w", err)
	}
	defer rows.Close()

	var conversations []db.Conversation
	for rows.Next() {
		var conv db.Conversation
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt); err != nil {
			return nil, fmt.Errorf("error scanning conversation: %w", err)
		}
		conversations = append(conversations, conv)
	}

	return conversations, rows.Err()
}

// DeleteConversation deletes a conversation and all its messages
func (p *PostgresDB) DeleteConversation(id string) error {
	if _, err := p.conn.Exec(`DELETE FROM conversations WHERE id = $1`, id); err != nil {
		return fmt.Errorf("error deleting conversation: %w", err)
	}

	logger.Log.WithField("conversation_id", id).Info("Deleted conversation")
	return nil
}

// AddUserMessage appends a user turn to a conversation
func (p *PostgresDB) AddUserMessage(conversationID, content string) (*db.Message, error) {
	msg := &db.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           db.RoleUser,
		Content:        content,
	}

	query := `
	INSERT INTO messages (id, conversation_id, role, content)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
	`

	err := p.conn.QueryRow(query, msg.ID, conversationID, msg.Role, content).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error adding user message: %w", err)
	}

	p.touchConversation(conversationID)
	return msg, nil
}

// AddAssistantMessage appends an assistant turn with its decomposed
// reasoning, sources and usage details.
func (p *PostgresDB) AddAssistantMessage(conversationID string, params db.AssistantMessageParams) (*db.Message, error) {
	msg := &db.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           db.RoleAssistant,
		Content:        params.Content,
		Reasoning:      params.Reasoning,
		Sources:        params.Sources,
		Details:        params.Details,
	}

	var sourcesJSON, detailsJSON []byte
	var err error
	if len(params.Sources) > 0 {
		if sourcesJSON, err = json.Marshal(params.Sources); err != nil {
			return nil, fmt.Errorf("error encoding sources: %w", err)
		}
	}
	if params.Details != nil {
		if detailsJSON, err = json.Marshal(params.Details); err != nil {
			return nil, fmt.Errorf("error encoding details: %w", err)
		}
	}

	query := `
	INSERT INTO messages (id, conversation_id, role, content, reasoning, sources, details)
	VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
	RETURNING created_at
	`

	err = p.conn.QueryRow(query, msg.ID, conversationID, msg.Role, params.Content,
		params.Reasoning, nullableJSON(sourcesJSON), nullableJSON(detailsJSON)).Scan(&msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error adding assistant message: %w", err)
	}

	p.touchConversation(conversationID)

	logger.Log.WithFields(logrus.Fields{
		"conversation_id": conversationID,
		"content_chars":   len(params.Content),
		"source_count":    len(params.Sources),
		"has_reasoning":   params.Reasoning != "",
	}).Debug("Added assistant message")

	return msg, nil
}

// GetConversationMessages retrieves all messages of a conversation ordered
// oldest first.
func (p *PostgresDB) GetConversationMessages(conversationID string) ([]db.Message, error) {
	query := `
	SELECT id, conversation_id, role, content, COALESCE(reasoning, ''), sources, details, created_at
	FROM messages
	WHERE conversation_id = $1
	ORDER BY created_at ASC
	`

	rows, err := p.conn.Query(query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("error querying messages: %w", err)
	}
	defer rows.Close()

	var messages []db.Message
	for rows.Next() {
		var msg db.Message
		var sourcesJSON, detailsJSON []byte
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.Reasoning,
			&sourcesJSON, &detailsJSON, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning message: %w", err)
		}
		if len(sourcesJSON) > 0 {
			if err := json.Unmarshal(sourcesJSON, &msg.Sources); err != nil {
				return nil, fmt.Errorf("error decoding sources: %w", err)
			}
		}
		if len(detailsJSON) > 0 {
			msg.Details = &db.MessageDetails{}
			if err := json.Unmarshal(detailsJSON, msg.Details); err != nil {
				return nil, fmt.Errorf("error decoding details: %w", err)
			}
		}
		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

// touchConversation bumps updated_at so recency ordering tracks the latest
// message. Failures are logged, not surfaced; ordering drift is tolerable.
func (p *PostgresDB) touchConversation(conversationID string) {
	query := `UPDATE conversations SET updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := p.conn.Exec(query, conversationID); err != nil {
		logger.Log.WithError(err).Warn("Error updating conversation timestamp")
	}
}

func nullableJSON(data []byte) interface{} {
	if len(data) == 0 {
		return nil
	}
	return data
}
