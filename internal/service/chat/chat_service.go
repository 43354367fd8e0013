package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"memchat/internal/config"
	"memchat/internal/logger"
	"memchat/internal/repository/db"
	"memchat/internal/service/llm"
	"memchat/internal/service/memory"
	"memchat/internal/service/usage"
	"memchat/internal/worker"
)

// ErrUnauthenticated is returned before any side effect when the caller
// carries no authenticated user.
var ErrUnauthenticated = errors.New("unauthenticated")

const (
	titleMaxChars = 50
	// memoryContextHeading delimits retrieved memory inside the system prompt
	memoryContextHeading = "Relevant past memories/context:"

	defaultSearchResultCount = 3
	defaultReasoningLevel    = "medium"
)

// TurnOptions is the per-turn options bag supplied by the client
type TurnOptions struct {
	SearchEnabled     bool
	SearchResultCount int
	ThinkEnabled      bool
	ReasoningLevel    string
	MemoryEnabled     bool
}

// TurnRequest is one chat turn: the full prior history plus the new user
// message as its last entry.
type TurnRequest struct {
	UserID         string
	ConversationID string
	Messages       []llm.Message
	ModelID        string
	Options        TurnOptions
}

// TurnStream is a live model response. ConversationID is resolved before
// streaming starts so the caller can surface it out of band. Done is closed
// after the completion side effects (persistence and usage accounting) have
// run; the memory write keeps running on the background pool.
type TurnStream struct {
	ConversationID string
	Parts          <-chan llm.StreamPart
	Done           <-chan struct{}
}

// Service orchestrates a chat turn end to end: conversation resolution,
// persistence, memory-augmented prompting, streaming and completion side
// effects.
type Service struct {
	database  db.Database
	provider  llm.Provider
	memories  *memory.Store
	extractor *memory.Extractor
	ledger    *usage.Ledger
	pool      *worker.Pool
	config    *config.AppConfig
}

func NewService(
	database db.Database,
	provider llm.Provider,
	memories *memory.Store,
	extractor *memory.Extractor,
	ledger *usage.Ledger,
	pool *worker.Pool,
	appConfig *config.AppConfig,
) *Service {
	return &Service{
		database:  database,
		provider:  provider,
		memories:  memories,
		extractor: extractor,
		ledger:    ledger,
		pool:      pool,
		config:    appConfig,
	}
}

// StreamTurn runs one chat turn. It persists the user message before calling
// the model, so a turn that reaches the provider always has its user side on
// record. Errors after streaming begins never surface here; they degrade to
// logged side-effect failures.
func (s *Service) StreamTurn(ctx context.Context, req TurnRequest) (*TurnStream, error) {
	if req.UserID == "" {
		return nil, ErrUnauthenticated
	}
	if len(req.Messages) == 0 {
		return nil, fmt.Errorf("no messages provided")
	}

	userText := latestUserText(req.Messages)

	conversation, err := s.resolveConversation(req.ConversationID, req.UserID, userText)
	if err != nil {
		return nil, fmt.Errorf("error resolving conversation: %w", err)
	}

	if _, err := s.database.AddUserMessage(conversation.ID, userText); err != nil {
		return nil, fmt.Errorf("error saving user message: %w", err)
	}

	systemPrompt := s.buildSystemPrompt(ctx, req.UserID, userText, req.Options.MemoryEnabled)

	modelID := req.ModelID
	if modelID == "" {
		modelID = s.provider.GetDefaultModel()
	}
	settings := buildSettings(modelID, req.Options)

	messages := make([]llm.Message, 0, len(req.Messages)+1)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, req.Messages...)

	parts, err := s.provider.StreamChat(ctx, messages, settings)
	if err != nil {
		return nil, fmt.Errorf("error starting model stream: %w", err)
	}

	out := make(chan llm.StreamPart)
	done := make(chan struct{})
	go s.forwardAndComplete(parts, out, done, conversation.ID, req.UserID, userText, modelID, req.Options.MemoryEnabled)

	return &TurnStream{
		ConversationID: conversation.ID,
		Parts:          out,
		Done:           done,
	}, nil
}

// resolveConversation honors a client-supplied identifier, creating the
// conversation under that exact id when it is unknown, so creation is
// idempotent under identifier reuse.
func (s *Service) resolveConversation(conversationID, userID, userText string) (*db.Conversation, error) {
	title := makeTitle(userText)
	if conversationID == "" {
		return s.database.CreateConversation(userID, title)
	}

	conversation, err := s.database.FindOrCreateConversation(conversationID, userID, title)
	if err != nil {
		return nil, err
	}
	if conversation.UserID != userID {
		return nil, fmt.Errorf("conversation %s belongs to another user", conversationID)
	}
	return conversation, nil
}

// buildSystemPrompt starts from the configured base instruction and, when
// memory is enabled, appends relevant retrieved chunks. Retrieval is best
// effort: any failure is logged and the base prompt used unchanged.
func (s *Service) buildSystemPrompt(ctx context.Context, userID, userText string, memoryEnabled bool) string {
	prompt := s.config.LLM.BaseSystemPrompt

	if !memoryEnabled || len(userText) <= s.config.Memory.MinQueryChars {
		return prompt
	}

	chunks, err := s.memories.RetrieveTopK(ctx, userID, userText, s.config.Memory.TopK)
	if err != nil {
		logger.Log.WithError(err).WithField("user_id", userID).Warn("Memory retrieval failed, continuing without context")
		return prompt
	}

	var relevant []string
	for _, chunk := range chunks {
		if chunk.Similarity > s.config.Memory.MinSimilarity {
			relevant = append(relevant, chunk.Content)
		}
	}
	if len(relevant) == 0 {
		return prompt
	}

	return fmt.Sprintf("%s\n\n%s\n%s", prompt, memoryContextHeading, strings.Join(relevant, "\n"))
}

func buildSettings(modelID string, opts TurnOptions) llm.ChatSettings {
	settings := llm.ChatSettings{Model: modelID}

	if opts.SearchEnabled {
		count := opts.SearchResultCount
		if count <= 0 {
			count = defaultSearchResultCount
		}
		settings.Plugins = append(settings.Plugins, llm.Plugin{ID: "web", MaxResults: count})
	}

	if opts.ThinkEnabled {
		level := opts.ReasoningLevel
		if level == "" {
			level = defaultReasoningLevel
		}
		settings.Reasoning = &llm.ReasoningConfig{Effort: level}
	}

	return settings
}

// forwardAndComplete relays provider parts to the caller while accumulating
// the finished response, then runs the completion side effects exactly once.
func (s *Service) forwardAndComplete(
	parts <-chan llm.StreamPart,
	out chan<- llm.StreamPart,
	done chan<- struct{},
	conversationID, userID, userText, modelID string,
	memoryEnabled bool,
) {
	var (
		text       strings.Builder
		reasoning  strings.Builder
		sources    []db.Source
		finalUsage llm.Usage
	)

	for part := range parts {
		switch p := part.(type) {
		case llm.TextPart:
			text.WriteString(p.Text)
		case llm.ReasoningPart:
			reasoning.WriteString(p.Text)
		case llm.SourceURLPart:
			sources = append(sources, db.Source{Title: p.Title, URL: p.URL, SourceID: p.SourceID})
		case llm.UsagePart:
			finalUsage = p.Usage
		}
		out <- part
	}
	close(out)

	s.completeTurn(conversationID, userID, userText, modelID, text.String(), reasoning.String(), sources, finalUsage, memoryEnabled)
	close(done)
}

// completeTurn persists the assistant message, records usage and, when the
// user has memory enabled, queues the memory write. Each step fails
// independently and is only logged; the stream has already been delivered.
func (s *Service) completeTurn(
	conversationID, userID, userText, modelID, text, reasoning string,
	sources []db.Source,
	finalUsage llm.Usage,
	memoryEnabled bool,
) {
	fields := logrus.Fields{"conversation_id": conversationID, "user_id": userID}

	params := db.AssistantMessageParams{
		Content:   text,
		Reasoning: reasoning,
		Sources:   sources,
		Details: &db.MessageDetails{
			Model:            modelID,
			Provider:         "openrouter",
			PromptTokens:     finalUsage.PromptTokens,
			CompletionTokens: finalUsage.CompletionTokens,
			ReasoningTokens:  finalUsage.ReasoningTokens,
			TotalTokens:      finalUsage.TotalTokens,
			Cost:             finalUsage.Cost,
		},
	}
	if _, err := s.database.AddAssistantMessage(conversationID, params); err != nil {
		logger.Log.WithError(err).WithFields(fields).Error("Failed to save assistant message")
	}

	if err := s.ledger.RecordTurn(userID, modelID); err != nil {
		logger.Log.WithError(err).WithFields(fields).Error("Failed to record usage")
	}

	if memoryEnabled {
		assistantText := text
		s.pool.Enqueue("memory-write", func(ctx context.Context) error {
			return s.writeMemory(ctx, userID, userText, assistantText)
		})
	}
}

// writeMemory runs on the background pool after a turn completes. It asks
// the extractor for a durable fact and stores it when one came back.
func (s *Service) writeMemory(ctx context.Context, userID, userText, assistantText string) error {
	fact, ok, err := s.extractor.Extract(ctx, userText, assistantText)
	if err != nil {
		return fmt.Errorf("error extracting memory: %w", err)
	}
	if !ok {
		return nil
	}
	return s.memories.EmbedAndStore(ctx, userID, fact)
}

// latestUserText returns the text of the most recent user message, falling
// back to the last message of any role.
func latestUserText(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return messages[i].Content
		}
	}
	return messages[len(messages)-1].Content
}

func makeTitle(userText string) string {
	runes := []rune(userText)
	if len(runes) > titleMaxChars {
		runes = runes[:titleMaxChars]
	}
	return string(runes) + "..."
}
