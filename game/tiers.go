package game

import (
	"time"
)

// Tier is the immutable configuration for one repeating game. The set of
// tiers is fixed at process start.
type Tier struct {
	Type        string        `json:"gameType"`
	EntryFee    int64         `json:"entryFee"`
	MinPlayers  int           `json:"minPlayers"`
	MaxPlayers  int           `json:"maxPlayers"`
	EntryWindow time.Duration `json:"entryWindow"`
}

// DefaultTiers returns the reference deployment's five stake levels.
func DefaultTiers() []Tier {
	return []Tier{
		{Type: "50", EntryFee: 50, MinPlayers: 5, MaxPlayers: 10, EntryWindow: 120 * time.Second},
		{Type: "100", EntryFee: 100, MinPlayers: 5, MaxPlayers: 10, EntryWindow: 180 * time.Second},
		{Type: "200", EntryFee: 200, MinPlayers: 5, MaxPlayers: 10, EntryWindow: 180 * time.Second},
		{Type: "500", EntryFee: 500, MinPlayers: 5, MaxPlayers: 10, EntryWindow: 240 * time.Second},
		{Type: "1000", EntryFee: 1000, MinPlayers: 5, MaxPlayers: 10, EntryWindow: 300 * time.Second},
	}
}

type TierRegistry struct {
	tiers  []Tier
	byType map[string]Tier
}

func NewTierRegistry(tiers ...Tier) *TierRegistry {
	byType := make(map[string]Tier, len(tiers))
	for _, t := range tiers {
		byType[t.Type] = t
	}
	return &TierRegistry{tiers: tiers, byType: byType}
}

// Lookup returns the tier for a game type, if configured.
func (r *TierRegistry) Lookup(gameType string) (Tier, bool) {
	t, ok := r.byType[gameType]
	return t, ok
}

// All returns the tiers in their configured order.
func (r *TierRegistry) All() []Tier {
	return r.tiers
}
