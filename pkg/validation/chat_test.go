package validation

import (
	"strings"
	"testing"
)

func TestChatRequestValidator_ValidateMessageCount(t *testing.T) {
	validator := NewChatRequestValidator()

	if err := validator.ValidateMessageCount(1); err != nil {
		t.Errorf("ValidateMessageCount(1) error = %v, want nil", err)
	}
	if err := validator.ValidateMessageCount(0); err == nil {
		t.Error("ValidateMessageCount(0) error = nil, want error")
	}
}

func TestChatRequestValidator_ValidateReasoningLevel(t *testing.T) {
	validator := NewChatRequestValidator()

	tests := []struct {
		name    string
		level   string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid level - low",
			level:   "low",
			wantErr: false,
		},
		{
			name:    "valid level - medium",
			level:   "medium",
			wantErr: false,
		},
		{
			name:    "valid level - high",
			level:   "high",
			wantErr: false,
		},
		{
			name:    "empty level (optional, defaults to medium)",
			level:   "",
			wantErr: false,
		},
		{
			name:    "invalid level",
			level:   "extreme",
			wantErr: true,
			errMsg:  "reasoningLevel must be one of: low, medium, high",
		},
		{
			name:    "invalid level - wrong case",
			level:   "Medium",
			wantErr: true,
			errMsg:  "reasoningLevel must be one of: low, medium, high",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateReasoningLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateReasoningLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && tt.errMsg != "" {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateReasoningLevel() error message = %v, want to contain %v", err.Error(), tt.errMsg)
				}
			}
		})
	}
}

func TestChatRequestValidator_ValidateSearchResultCount(t *testing.T) {
	validator := NewChatRequestValidator()

	tests := []struct {
		name    string
		count   int
		wantErr bool
	}{
		{
			name:    "zero (optional, defaults to 3)",
			count:   0,
			wantErr: false,
		},
		{
			name:    "minimum valid count",
			count:   1,
			wantErr: false,
		},
		{
			name:    "maximum valid count",
			count:   10,
			wantErr: false,
		},
		{
			name:    "negative count",
			count:   -1,
			wantErr: true,
		},
		{
			name:    "count too high",
			count:   11,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateSearchResultCount(tt.count)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSearchResultCount() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestChatRequestValidator_ValidateChatRequest(t *testing.T) {
	validator := NewChatRequestValidator()

	tests := []struct {
		name              string
		messageCount      int
		reasoningLevel    string
		searchResultCount int
		wantErr           bool
		errMsg            string
	}{
		{
			name:              "valid chat request",
			messageCount:      2,
			reasoningLevel:    "medium",
			searchResultCount: 3,
			wantErr:           false,
		},
		{
			name:              "valid request with defaults",
			messageCount:      1,
			reasoningLevel:    "",
			searchResultCount: 0,
			wantErr:           false,
		},
		{
			name:              "no messages",
			messageCount:      0,
			reasoningLevel:    "medium",
			searchResultCount: 3,
			wantErr:           true,
			errMsg:            "messages cannot be empty",
		},
		{
			name:              "invalid reasoning level",
			messageCount:      1,
			reasoningLevel:    "maximum",
			searchResultCount: 3,
			wantErr:           true,
			errMsg:            "reasoningLevel must be one of: low, medium, high",
		},
		{
			name:              "invalid search result count",
			messageCount:      1,
			reasoningLevel:    "low",
			searchResultCount: 50,
			wantErr:           true,
			errMsg:            "searchResultCount must be between 1 and 10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateChatRequest(tt.messageCount, tt.reasoningLevel, tt.searchResultCount)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChatRequest() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && tt.errMsg != "" {
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("ValidateChatRequest() error message = %v, want to contain %v", err.Error(), tt.errMsg)
				}
			}
		})
	}
}
