package postgres

import (
	"fmt"

	"memchat/internal/logger"
	"memchat/internal/repository/db"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"github.com/sirupsen/logrus"
)

// InsertMemoryChunk appends an embedding-indexed chunk for a user
func (p *PostgresDB) InsertMemoryChunk(userID, content string, embedding []float32) (*db.MemoryChunk, error) {
	chunk := &db.MemoryChunk{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   content,
		Embedding: embedding,
	}

	query := `
	INSERT INTO memory_chunks (id, user_id, content, embedding)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at
	`

	err := p.conn.QueryRow(query, chunk.ID, userID, content, pgvector.NewVector(embedding)).Scan(&chunk.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error inserting memory chunk: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{"user_id": userID, "content_chars": len(content)}).Debug("Inserted memory chunk")
	return chunk, nil
}

// SearchMemoryChunks returns up to k chunks owned by userID ranked by
// descending cosine similarity to the query embedding. Similarity is
// computed by pgvector as 1 - cosine distance; no threshold is applied.
func (p *PostgresDB) SearchMemoryChunks(userID string, embedding []float32, k int) ([]db.ScoredChunk, error) {
	query := `
	SELECT id, user_id, content, created_at, 1 - (embedding <=> $2) AS similarity
	FROM memory_chunks
	WHERE user_id = $1
	ORDER BY embedding <=> $2
	LIMIT $3
	`

	rows, err := p.conn.Query(query, userID, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("error searching memory chunks: %w", err)
	}
	defer rows.Close()

	var chunks []db.ScoredChunk
	for rows.Next() {
		var chunk db.ScoredChunk
		if err := rows.Scan(&chunk.ID, &chunk.UserID, &chunk.Content, &chunk.CreatedAt, &chunk.Similarity); err != nil {
			return nil, fmt.Errorf("error scanning memory chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}
