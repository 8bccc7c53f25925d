package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"

	"pooldraw/models"
)

// DefaultTickInterval is how often each tier is inspected for expired
// rounds. Entry windows are honored to within one tick, not to the
// millisecond.
const DefaultTickInterval = 5 * time.Second

const tickTimeout = 30 * time.Second

// Scheduler runs one periodic job per tier. Jobs are independent: a failing
// or slow tick in one tier never blocks another, and errors are logged and
// retried on the next interval.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	sched    gocron.Scheduler
}

func NewScheduler(engine *Engine, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Scheduler{engine: engine, interval: interval, sched: sched}, nil
}

// Start registers a job per tier and begins ticking.
func (s *Scheduler) Start() error {
	for _, tier := range s.engine.tiers.All() {
		tier := tier
		_, err := s.sched.NewJob(
			gocron.DurationJob(s.interval),
			gocron.NewTask(func() {
				ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
				defer cancel()
				if err := s.engine.Tick(ctx, tier); err != nil {
					log.Printf("[engine] tier %s tick: %v", tier.Type, err)
				}
			}),
		)
		if err != nil {
			return fmt.Errorf("schedule tier %s: %w", tier.Type, err)
		}
	}
	s.sched.Start()
	log.Printf("round engine started: %d tiers, tick every %s", len(s.engine.tiers.All()), s.interval)
	return nil
}

func (s *Scheduler) Stop() error {
	return s.sched.Shutdown()
}

// Tick performs one pass for a tier: close an expired round, open a new one
// if the tier has none, and broadcast a liveness snapshot. Each step is safe
// to run concurrently with another tick of the same tier: closing is a
// conditional claim and creation is guarded by the store's one-active-round
// constraint.
func (e *Engine) Tick(ctx context.Context, tier Tier) error {
	expired, err := e.rounds.FindExpiredRound(ctx, tier.Type, e.now())
	if err != nil {
		return fmt.Errorf("expiry check: %w", err)
	}
	if expired != nil {
		if err := e.CloseRound(ctx, expired.RoundID); err != nil {
			return fmt.Errorf("close round %s: %w", expired.RoundID, err)
		}
	}

	active, err := e.rounds.FindActiveRound(ctx, tier.Type)
	if err != nil {
		return fmt.Errorf("replenish check: %w", err)
	}
	if active == nil {
		active, err = e.openRound(ctx, tier)
		if err != nil {
			if errors.Is(err, ErrDuplicateRound) {
				// a concurrent tick filled the gap first
				return nil
			}
			return fmt.Errorf("open round: %w", err)
		}
	}

	if active != nil && active.Status == models.RoundRunning {
		e.events.Publish(tierTopic(tier.Type), map[string]interface{}{
			"roundId":           active.RoundID,
			"participantsCount": len(active.Participants),
			"remainingTimeMs":   active.Remaining(e.now()).Milliseconds(),
			"status":            active.Status,
		})
	}
	return nil
}

// openRound creates the tier's next round, open for entries immediately.
func (e *Engine) openRound(ctx context.Context, tier Tier) (*models.Round, error) {
	now := e.now()
	roundID, err := generateRoundID(tier.Type, now)
	if err != nil {
		return nil, err
	}
	round := &models.Round{
		RoundID:            roundID,
		GameType:           tier.Type,
		EntryFee:           tier.EntryFee,
		MinPlayers:         tier.MinPlayers,
		MaxPlayers:         tier.MaxPlayers,
		EntryWindowSeconds: int(tier.EntryWindow.Seconds()),
		Participants:       []models.Participant{},
		StartTime:          now,
		EndTime:            now.Add(tier.EntryWindow),
		Status:             models.RoundRunning,
	}
	if err := e.rounds.CreateRound(ctx, round); err != nil {
		return nil, err
	}
	log.Printf("new round %s (%s), entries close %s", round.RoundID, tier.Type, round.EndTime.UTC().Format(time.RFC3339))

	e.events.Publish("new_round", map[string]interface{}{
		"roundId":  round.RoundID,
		"gameType": round.GameType,
		"entryFee": round.EntryFee,
		"endTime":  round.EndTime,
	})
	return round, nil
}
