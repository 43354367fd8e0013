package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"memchat/internal/auth"
	"memchat/internal/logger"
	"memchat/internal/repository/db"
	chatService "memchat/internal/service/chat"
	conversationService "memchat/internal/service/conversation"
	"memchat/internal/service/llm"
	usageService "memchat/internal/service/usage"
	"memchat/pkg/validation"
)

// Request/Response types

// MessagePart is one sub-part of a structured client message. Only
// text-typed parts contribute to the assembled content.
type MessagePart struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ClientMessage is one history entry as sent by the client. Content may be
// supplied directly or as a list of parts.
type ClientMessage struct {
	Role    string        `json:"role"`
	Content string        `json:"content,omitempty"`
	Parts   []MessagePart `json:"parts,omitempty"`
}

type ChatStreamRequest struct {
	Messages          []ClientMessage `json:"messages"`
	ModelID           string          `json:"modelId,omitempty"`
	ConversationID    string          `json:"conversationId,omitempty"`
	SearchEnabled     bool            `json:"searchEnabled,omitempty"`
	SearchResultCount int             `json:"searchResultCount,omitempty"`
	ThinkEnabled      bool            `json:"thinkEnabled,omitempty"`
	ReasoningLevel    string          `json:"reasoningLevel,omitempty"`
	MemoryEnabled     bool            `json:"memoryEnabled,omitempty"`
}

type ConversationInfo struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ConversationsResponse struct {
	Conversations []ConversationInfo `json:"conversations"`
}

type MessageData struct {
	ID        string             `json:"id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	Reasoning string             `json:"reasoning,omitempty"`
	Sources   []db.Source        `json:"sources,omitempty"`
	Details   *db.MessageDetails `json:"details,omitempty"`
	CreatedAt string             `json:"created_at"`
}

type MessagesResponse struct {
	Messages []MessageData `json:"messages"`
}

type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ModelsResponse struct {
	Models []llm.CatalogModel `json:"models"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ChatHandlers serves the chat, conversation, catalog and usage endpoints
type ChatHandlers struct {
	validator           *validation.ChatRequestValidator
	chatService         *chatService.Service
	conversationService *conversationService.Service
	ledger              *usageService.Ledger
	provider            llm.Provider
}

// NewChatHandlers creates a new ChatHandlers with the service layer injected
func NewChatHandlers(
	chat *chatService.Service,
	conversations *conversationService.Service,
	ledger *usageService.Ledger,
	provider llm.Provider,
) *ChatHandlers {
	return &ChatHandlers{
		validator:           validation.NewChatRequestValidator(),
		chatService:         chat,
		conversationService: conversations,
		ledger:              ledger,
		provider:            provider,
	}
}

func (ch *ChatHandlers) sendError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		errResp.Error = err.Error()
	}
	json.NewEncoder(w).Encode(errResp)
}

// assembleContent flattens a client message into plain text: direct content
// wins, otherwise text parts are concatenated in order.
func assembleContent(msg ClientMessage) string {
	if msg.Content != "" {
		return msg.Content
	}
	var b strings.Builder
	for _, part := range msg.Parts {
		if part.Type == "text" {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

// ChatStreamHandler is the SSE endpoint for streaming chat responses. The
// resolved conversation id travels both as the X-Conversation-Id response
// header and as the first stream frame, so clients that started without an
// id can adopt it.
func (ch *ChatHandlers) ChatStreamHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	logger.Log.WithField("user_id", userID).Info("Chat stream request received")

	var req ChatStreamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		ch.sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := ch.validator.ValidateChatRequest(len(req.Messages), req.ReasoningLevel, req.SearchResultCount); err != nil {
		ch.sendError(w, http.StatusBadRequest, "Validation failed", err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		ch.sendError(w, http.StatusInternalServerError, "Streaming not supported", nil)
		return
	}

	messages := make([]llm.Message, 0, len(req.Messages))
	for _, msg := range req.Messages {
		messages = append(messages, llm.Message{Role: msg.Role, Content: assembleContent(msg)})
	}

	serviceReq := chatService.TurnRequest{
		UserID:         userID,
		ConversationID: req.ConversationID,
		Messages:       messages,
		ModelID:        req.ModelID,
		Options: chatService.TurnOptions{
			SearchEnabled:     req.SearchEnabled,
			SearchResultCount: req.SearchResultCount,
			ThinkEnabled:      req.ThinkEnabled,
			ReasoningLevel:    req.ReasoningLevel,
			MemoryEnabled:     req.MemoryEnabled,
		},
	}

	stream, err := ch.chatService.StreamTurn(r.Context(), serviceReq)
	if err != nil {
		logger.Log.WithError(err).Error("Error from chat service")
		if errors.Is(err, chatService.ErrUnauthenticated) {
			ch.sendError(w, http.StatusUnauthorized, "Authentication required", nil)
			return
		}
		ch.sendError(w, http.StatusInternalServerError, "Error processing message", err)
		return
	}

	// Headers must be in place before the first write
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Conversation-Id", stream.ConversationID)
	w.Header().Set("Access-Control-Expose-Headers", "X-Conversation-Id")

	fmt.Fprintf(w, "data: CONV_ID:%s\n\n", stream.ConversationID)
	flusher.Flush()

	for part := range stream.Parts {
		switch p := part.(type) {
		case llm.TextPart:
			fmt.Fprintf(w, "data: %s\n\n", escapeFrame(p.Text))
		case llm.ReasoningPart:
			fmt.Fprintf(w, "data: REASONING:%s\n\n", escapeFrame(p.Text))
		case llm.SourceURLPart:
			sourceJSON, _ := json.Marshal(db.Source{Title: p.Title, URL: p.URL, SourceID: p.SourceID})
			fmt.Fprintf(w, "data: SOURCE:%s\n\n", sourceJSON)
		case llm.StepStartPart:
			fmt.Fprintf(w, "data: STEP_START\n\n")
		case llm.UsagePart:
			usageJSON, _ := json.Marshal(p.Usage)
			fmt.Fprintf(w, "data: USAGE:%s\n\n", usageJSON)
		}
		flusher.Flush()
	}

	fmt.Fprintf(w, "data: [DONE]\n\n")
	flusher.Flush()
}

// escapeFrame keeps multi-line content inside a single SSE data frame
func escapeFrame(s string) string {
	return strings.ReplaceAll(s, "\n", "\\n")
}

// GetConversationsHandler returns the user's conversations, newest first
func (ch *ChatHandlers) GetConversationsHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	conversations, err := ch.conversationService.ListConversations(userID)
	if err != nil {
		logger.Log.WithError(err).Error("Error listing conversations")
		ch.sendError(w, http.StatusInternalServerError, "Error listing conversations", err)
		return
	}

	infos := make([]ConversationInfo, 0, len(conversations))
	for _, c := range conversations {
		infos = append(infos, ConversationInfo{
			ID:        c.ID,
			Title:     c.Title,
			CreatedAt: c.CreatedAt.Format(timeFormat),
			UpdatedAt: c.UpdatedAt.Format(timeFormat),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ConversationsResponse{Conversations: infos})
}

const timeFormat = "2006-01-02T15:04:05Z07:00"

// GetConversationMessagesHandler returns a conversation's messages oldest
// first. Unknown or foreign conversations produce an empty list, not an
// error.
func (ch *ChatHandlers) GetConversationMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	conversationID := r.PathValue("id")

	messages, err := ch.conversationService.GetMessages(userID, conversationID)
	if err != nil {
		logger.Log.WithError(err).Error("Error loading messages")
		ch.sendError(w, http.StatusInternalServerError, "Error loading messages", err)
		return
	}

	data := make([]MessageData, 0, len(messages))
	for _, m := range messages {
		data = append(data, MessageData{
			ID:        m.ID,
			Role:      m.Role,
			Content:   m.Content,
			Reasoning: m.Reasoning,
			Sources:   m.Sources,
			Details:   m.Details,
			CreatedAt: m.CreatedAt.Format(timeFormat),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(MessagesResponse{Messages: data})
}

// DeleteConversationHandler deletes a conversation the user owns
func (ch *ChatHandlers) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	conversationID := r.PathValue("id")

	if err := ch.conversationService.DeleteConversation(userID, conversationID); err != nil {
		logger.Log.WithError(err).Error("Error deleting conversation")
		ch.sendError(w, http.StatusInternalServerError, "Error deleting conversation", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(DeleteResponse{
		Success: true,
		Message: "Conversation deleted",
	})
}

// GetModelsHandler returns the filtered, classified model catalog
func (ch *ChatHandlers) GetModelsHandler(w http.ResponseWriter, r *http.Request) {
	models, err := ch.provider.FetchModels(r.Context())
	if err != nil {
		logger.Log.WithError(err).Error("Error fetching model catalog")
		ch.sendError(w, http.StatusInternalServerError, "Error fetching models", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ModelsResponse{Models: models})
}

// GetUsageHandler returns the user's message counters
func (ch *ChatHandlers) GetUsageHandler(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	summary, err := ch.ledger.GetSummary(userID)
	if err != nil {
		logger.Log.WithError(err).Error("Error loading usage")
		ch.sendError(w, http.StatusInternalServerError, "Error loading usage", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(summary)
}

// HealthHandler reports service liveness
func (ch *ChatHandlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
