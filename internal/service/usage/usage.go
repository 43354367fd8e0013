package usage

import (
	"fmt"

	"memchat/internal/repository/db"
	"memchat/internal/service/llm"
)

// Ledger records per-user message counters split by model tier.
type Ledger struct {
	database db.Database
}

func NewLedger(database db.Database) *Ledger {
	return &Ledger{database: database}
}

// RecordTurn increments exactly one of the user's tier counters based on the
// model identifier. Free-tier models count as normal messages, everything
// else as premium.
func (l *Ledger) RecordTurn(userID, modelID string) error {
	tier := db.TierPremium
	if llm.IsFreeTierModel(modelID) {
		tier = db.TierNormal
	}

	if err := l.database.IncrementMessageCount(userID, tier); err != nil {
		return fmt.Errorf("error recording usage for user %s: %w", userID, err)
	}
	return nil
}

// Summary is the usage counters for one user.
type Summary struct {
	NormalMessageCount  int `json:"normalMessageCount"`
	PremiumMessageCount int `json:"premiumMessageCount"`
}

// GetSummary returns the current counters for a user.
func (l *Ledger) GetSummary(userID string) (*Summary, error) {
	user, err := l.database.GetUserByID(userID)
	if err != nil {
		return nil, fmt.Errorf("error loading usage for user %s: %w", userID, err)
	}
	return &Summary{
		NormalMessageCount:  user.NormalMessageCount,
		PremiumMessageCount: user.PremiumMessageCount,
	}, nil
}
