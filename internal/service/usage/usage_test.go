package usage

import (
	"errors"
	"testing"

	"memchat/internal/repository/db"
	"memchat/internal/testutil"
)

func TestLedger_RecordTurn(t *testing.T) {
	tests := []struct {
		name     string
		modelID  string
		wantTier string
	}{
		{
			name:     "free model counts as normal",
			modelID:  "deepseek/deepseek-chat:free",
			wantTier: db.TierNormal,
		},
		{
			name:     "liquid model counts as normal",
			modelID:  "liquid/lfm-40b",
			wantTier: db.TierNormal,
		},
		{
			name:     "named gemma free model counts as normal",
			modelID:  "google/gemma-7b-it:free",
			wantTier: db.TierNormal,
		},
		{
			name:     "paid model counts as premium",
			modelID:  "openai/gpt-4o-mini",
			wantTier: db.TierPremium,
		},
		{
			name:     "paid anthropic model counts as premium",
			modelID:  "anthropic/claude-sonnet-4",
			wantTier: db.TierPremium,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID, gotTier string
			calls := 0
			mockDB := &testutil.MockDatabase{
				IncrementMessageCountFunc: func(userID, tier string) error {
					calls++
					gotUserID = userID
					gotTier = tier
					return nil
				},
			}

			ledger := NewLedger(mockDB)
			if err := ledger.RecordTurn("user-1", tt.modelID); err != nil {
				t.Fatalf("RecordTurn() error = %v", err)
			}
			if calls != 1 {
				t.Errorf("IncrementMessageCount calls = %d, want 1", calls)
			}
			if gotUserID != "user-1" {
				t.Errorf("IncrementMessageCount userID = %s, want user-1", gotUserID)
			}
			if gotTier != tt.wantTier {
				t.Errorf("IncrementMessageCount tier = %s, want %s", gotTier, tt.wantTier)
			}
		})
	}
}

func TestLedger_RecordTurn_Failure(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		IncrementMessageCountFunc: func(userID, tier string) error {
			return errors.New("connection lost")
		},
	}

	ledger := NewLedger(mockDB)
	if err := ledger.RecordTurn("user-1", "openai/gpt-4o-mini"); err == nil {
		t.Error("RecordTurn() error = nil, want error")
	}
}

func TestLedger_GetSummary(t *testing.T) {
	mockDB := &testutil.MockDatabase{
		GetUserByIDFunc: func(id string) (*db.User, error) {
			return &db.User{
				ID:                  id,
				Email:               "test@example.com",
				NormalMessageCount:  7,
				PremiumMessageCount: 3,
			}, nil
		},
	}

	ledger := NewLedger(mockDB)
	summary, err := ledger.GetSummary("user-1")
	if err != nil {
		t.Fatalf("GetSummary() error = %v", err)
	}
	if summary.NormalMessageCount != 7 {
		t.Errorf("NormalMessageCount = %d, want 7", summary.NormalMessageCount)
	}
	if summary.PremiumMessageCount != 3 {
		t.Errorf("PremiumMessageCount = %d, want 3", summary.PremiumMessageCount)
	}
}
