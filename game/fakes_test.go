package game

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"pooldraw/models"
)

// In-memory collaborators with the same conditional-write semantics as the
// mongo store, so lifecycle and join tests exercise the real race handling.

type fakeRoundStore struct {
	mu     sync.Mutex
	rounds map[string]*models.Round

	// appendFail, when set, fails the next AppendParticipant with it
	appendFail error
}

func newFakeRoundStore() *fakeRoundStore {
	return &fakeRoundStore{rounds: make(map[string]*models.Round)}
}

func cloneRound(r *models.Round) *models.Round {
	c := *r
	c.Participants = append([]models.Participant(nil), r.Participants...)
	c.Winners = append([]string(nil), r.Winners...)
	if r.ResultsProcessedAt != nil {
		t := *r.ResultsProcessedAt
		c.ResultsProcessedAt = &t
	}
	return &c
}

func (s *fakeRoundStore) put(r *models.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds[r.RoundID] = cloneRound(r)
}

func (s *fakeRoundStore) FindActiveRound(ctx context.Context, gameType string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds {
		if r.GameType == gameType && !r.Status.Terminal() {
			return cloneRound(r), nil
		}
	}
	return nil, nil
}

func (s *fakeRoundStore) FindExpiredRound(ctx context.Context, gameType string, now time.Time) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds {
		if r.GameType == gameType && !r.Status.Terminal() && !r.EndTime.After(now) {
			return cloneRound(r), nil
		}
	}
	return nil, nil
}

func (s *fakeRoundStore) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok {
		return nil, &NotFoundError{Msg: fmt.Sprintf("round %s not found", roundID)}
	}
	return cloneRound(r), nil
}

func (s *fakeRoundStore) CreateRound(ctx context.Context, round *models.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rounds {
		if r.GameType == round.GameType && !r.Status.Terminal() {
			return ErrDuplicateRound
		}
	}
	s.rounds[round.RoundID] = cloneRound(round)
	return nil
}

func (s *fakeRoundStore) ClaimRound(ctx context.Context, roundID, seed string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok || r.Status != models.RoundRunning {
		return ErrStale
	}
	r.Status = models.RoundProcessing
	r.WinningSeed = seed
	return nil
}

func (s *fakeRoundStore) AppendParticipant(ctx context.Context, roundID string, p models.Participant, expectedCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.appendFail != nil {
		err := s.appendFail
		s.appendFail = nil
		return err
	}
	r, ok := s.rounds[roundID]
	if !ok {
		return &NotFoundError{Msg: fmt.Sprintf("round %s not found", roundID)}
	}
	if r.Status != models.RoundRunning {
		return ErrStale
	}
	if len(r.Participants) >= r.MaxPlayers {
		return ErrRoundFull
	}
	if len(r.Participants) != expectedCount {
		return ErrStale
	}
	r.Participants = append(r.Participants, p)
	return nil
}

func (s *fakeRoundStore) CompleteRound(ctx context.Context, roundID string, settlement Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok || r.Status != models.RoundProcessing {
		return ErrStale
	}
	r.Status = models.RoundCompleted
	r.TotalPool = settlement.TotalPool
	r.PlatformFee = settlement.PlatformFee
	r.WinningsDistributed = settlement.WinningsDistributed
	r.Winners = append([]string(nil), settlement.Winners...)
	t := settlement.ProcessedAt
	r.ResultsProcessedAt = &t
	winnerSet := make(map[string]bool)
	for _, w := range settlement.Winners {
		winnerSet[w] = true
	}
	for i := range r.Participants {
		if winnerSet[r.Participants[i].UserID] {
			r.Participants[i].IsWinner = true
		}
	}
	return nil
}

func (s *fakeRoundStore) CancelRound(ctx context.Context, roundID string, processedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rounds[roundID]
	if !ok || r.Status != models.RoundProcessing {
		return ErrStale
	}
	r.Status = models.RoundCancelled
	t := processedAt
	r.ResultsProcessedAt = &t
	return nil
}

func (s *fakeRoundStore) FindUserRounds(ctx context.Context, userID string, limit int64) ([]models.Round, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Round
	for _, r := range s.rounds {
		if r.Status != models.RoundCompleted {
			continue
		}
		if r.HasParticipant(userID) {
			out = append(out, *cloneRound(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ResultsProcessedAt.After(*out[j].ResultsProcessedAt)
	})
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	txs      []models.Transaction

	// adjustErr and appendErr, when set, intercept the respective calls
	adjustErr func(userID string, delta int64) error
	appendErr func(tx models.Transaction) error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: make(map[string]int64)}
}

func (l *fakeLedger) GetBalance(ctx context.Context, userID string) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	balance, ok := l.balances[userID]
	if !ok {
		return 0, &NotFoundError{Msg: fmt.Sprintf("user %s not found", userID)}
	}
	return balance, nil
}

func (l *fakeLedger) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.adjustErr != nil {
		if err := l.adjustErr(userID, delta); err != nil {
			return 0, err
		}
	}
	balance := l.balances[userID]
	if delta < 0 && balance+delta < 0 {
		return 0, &InsufficientFundsError{Balance: balance, Required: -delta}
	}
	l.balances[userID] = balance + delta
	return balance + delta, nil
}

func (l *fakeLedger) AppendTransaction(ctx context.Context, tx models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		if err := l.appendErr(tx); err != nil {
			return err
		}
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	l.txs = append(l.txs, tx)
	return nil
}

func (l *fakeLedger) HasTransaction(ctx context.Context, userID, referenceID string, txType models.TransactionType) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, tx := range l.txs {
		if tx.UserID == userID && tx.ReferenceID == referenceID && tx.Type == txType {
			return true, nil
		}
	}
	return false, nil
}

func (l *fakeLedger) balance(userID string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

func (l *fakeLedger) countTx(userID, referenceID string, txType models.TransactionType) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, tx := range l.txs {
		if tx.UserID == userID && tx.ReferenceID == referenceID && tx.Type == txType {
			count++
		}
	}
	return count
}

type publishedEvent struct {
	Topic   string
	Payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) Publish(topic string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Payload: payload})
}

func (p *fakePublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

func newTestEngine(tiers ...Tier) (*Engine, *fakeRoundStore, *fakeLedger, *fakePublisher) {
	if len(tiers) == 0 {
		tiers = []Tier{{Type: "50", EntryFee: 50, MinPlayers: 5, MaxPlayers: 10, EntryWindow: 120 * time.Second}}
	}
	rounds := newFakeRoundStore()
	ledger := newFakeLedger()
	events := &fakePublisher{}
	engine := NewEngine(NewTierRegistry(tiers...), rounds, ledger, events)
	return engine, rounds, ledger, events
}

func testRound(gameType string, fee int64, n int, endTime time.Time) *models.Round {
	round := &models.Round{
		RoundID:    fmt.Sprintf("RND-%s-20260831-TEST0001", gameType),
		GameType:   gameType,
		EntryFee:   fee,
		MinPlayers: 5,
		MaxPlayers: 10,
		StartTime:  endTime.Add(-2 * time.Minute),
		EndTime:    endTime,
		Status:     models.RoundRunning,
	}
	for i := 0; i < n; i++ {
		round.Participants = append(round.Participants, models.Participant{
			UserID:     fmt.Sprintf("user-%d", i+1),
			JoinTime:   round.StartTime,
			UniqueCode: fmt.Sprintf("%d", i+1),
		})
	}
	return round
}
