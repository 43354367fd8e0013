package memory

import (
	"context"
	"fmt"

	"memchat/internal/logger"
	"memchat/internal/repository/db"
	"memchat/internal/service/llm"
)

// Store mediates between the LLM embedding endpoint and the vector storage.
// It does no threshold filtering; callers apply their own similarity cutoff.
type Store struct {
	database db.Database
	provider llm.Provider
}

func NewStore(database db.Database, provider llm.Provider) *Store {
	return &Store{
		database: database,
		provider: provider,
	}
}

// EmbedAndStore computes an embedding for text and appends it as a new
// memory chunk for the user.
func (s *Store) EmbedAndStore(ctx context.Context, userID, text string) error {
	embedding, err := s.provider.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("error embedding memory text: %w", err)
	}

	if _, err := s.database.InsertMemoryChunk(userID, text, embedding); err != nil {
		return fmt.Errorf("error storing memory chunk: %w", err)
	}

	logger.Log.WithField("user_id", userID).Debug("Stored memory chunk")
	return nil
}

// RetrieveTopK embeds the query and returns up to k of the user's chunks
// ranked by descending cosine similarity, each with its score.
func (s *Store) RetrieveTopK(ctx context.Context, userID, query string, k int) ([]db.ScoredChunk, error) {
	embedding, err := s.provider.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error embedding memory query: %w", err)
	}

	chunks, err := s.database.SearchMemoryChunks(userID, embedding, k)
	if err != nil {
		return nil, fmt.Errorf("error searching memory chunks: %w", err)
	}

	return chunks, nil
}
