package validation

import (
	"errors"
	"fmt"
)

// ChatRequestValidator validates chat-related requests
type ChatRequestValidator struct{}

// NewChatRequestValidator creates a new ChatRequestValidator
func NewChatRequestValidator() *ChatRequestValidator {
	return &ChatRequestValidator{}
}

// ValidateMessageCount validates that a chat request carries at least one message
func (v *ChatRequestValidator) ValidateMessageCount(count int) error {
	if count == 0 {
		return errors.New("messages cannot be empty")
	}
	return nil
}

// ValidateReasoningLevel validates the reasoning effort level
func (v *ChatRequestValidator) ValidateReasoningLevel(level string) error {
	if level == "" {
		return nil // Optional, defaults to "medium"
	}

	validLevels := map[string]bool{
		"low":    true,
		"medium": true,
		"high":   true,
	}

	if !validLevels[level] {
		return fmt.Errorf("reasoningLevel must be one of: low, medium, high; got %s", level)
	}
	return nil
}

// ValidateSearchResultCount validates the web search result count
func (v *ChatRequestValidator) ValidateSearchResultCount(count int) error {
	if count == 0 {
		return nil // Optional, defaults to 3
	}

	if count < 1 || count > 10 {
		return fmt.Errorf("searchResultCount must be between 1 and 10, got %d", count)
	}
	return nil
}

// ValidateChatRequest validates a complete chat stream request
func (v *ChatRequestValidator) ValidateChatRequest(messageCount int, reasoningLevel string, searchResultCount int) error {
	if err := v.ValidateMessageCount(messageCount); err != nil {
		return err
	}

	if err := v.ValidateReasoningLevel(reasoningLevel); err != nil {
		return err
	}

	if err := v.ValidateSearchResultCount(searchResultCount); err != nil {
		return err
	}

	return nil
}
