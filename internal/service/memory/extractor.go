package memory

import (
	"context"
	"fmt"
	"strings"

	"memchat/internal/service/llm"
)

// emptySentinel is the exact reply the extraction prompt instructs the model
// to produce when an exchange contains nothing worth remembering. Compared
// case-sensitively after trimming surrounding whitespace.
const emptySentinel = "EMPTY"

// Extractor distills a finished exchange into a durable fact, or nothing.
type Extractor struct {
	provider         llm.Provider
	extractionPrompt string
}

func NewExtractor(provider llm.Provider, extractionPrompt string) *Extractor {
	return &Extractor{
		provider:         provider,
		extractionPrompt: extractionPrompt,
	}
}

// Extract asks the model for a memorable fact from the exchange. It returns
// ("", false) when the model signals there is nothing to remember.
func (e *Extractor) Extract(ctx context.Context, userText, assistantText string) (string, bool, error) {
	messages := []llm.Message{
		{Role: "user", Content: fmt.Sprintf("User: %s\n\nAssistant: %s", userText, assistantText)},
	}

	result, err := e.provider.Complete(ctx, messages, e.extractionPrompt, e.provider.GetDefaultModel())
	if err != nil {
		return "", false, fmt.Errorf("error extracting facts: %w", err)
	}

	fact := strings.TrimSpace(result)
	if fact == "" || fact == emptySentinel {
		return "", false, nil
	}
	return fact, true, nil
}
