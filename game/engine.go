package game

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"
)

// Engine runs the repeating rounds for every configured tier: opening and
// closing rounds on a schedule, admitting joins, and settling payouts. Its
// collaborators (round store, ledger, event sink) are injected so the whole
// thing runs against fakes in tests.
type Engine struct {
	tiers  *TierRegistry
	rounds RoundStore
	ledger LedgerStore
	events EventPublisher

	// Joins and settlement serialize on these. The lock order is fixed:
	// round first, then user.
	roundLocks *keyedMutex
	userLocks  *keyedMutex

	now func() time.Time
}

func NewEngine(tiers *TierRegistry, rounds RoundStore, ledger LedgerStore, events EventPublisher) *Engine {
	return &Engine{
		tiers:      tiers,
		rounds:     rounds,
		ledger:     ledger,
		events:     events,
		roundLocks: newKeyedMutex(),
		userLocks:  newKeyedMutex(),
		now:        time.Now,
	}
}

// Tiers exposes the registry for the HTTP layer.
func (e *Engine) Tiers() *TierRegistry {
	return e.tiers
}

// generateRoundID builds a display id like RND-100-20260831-9F2C41AB.
func generateRoundID(gameType string, now time.Time) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate round id: %w", err)
	}
	return fmt.Sprintf("RND-%s-%s-%X", gameType, now.UTC().Format("20060102"), buf), nil
}

// newWinningSeed draws the 32 bytes of entropy that decide a round.
func newWinningSeed() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate winning seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

func tierTopic(gameType string) string {
	return fmt.Sprintf("round:%s:update", gameType)
}
