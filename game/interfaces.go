package game

import (
	"context"
	"time"

	"pooldraw/models"
)

// Settlement carries the terminal fields written atomically with the
// processing→completed status flip.
type Settlement struct {
	TotalPool           int64
	PlatformFee         int64
	WinningsDistributed int64
	Winners             []string
	ProcessedAt         time.Time
}

// RoundStore is the durable home of round documents. All status changes go
// through conditional writes: the store must only apply them when the
// document is still in the expected state, and report ErrStale otherwise.
type RoundStore interface {
	// FindActiveRound returns the tier's non-terminal round, or nil.
	FindActiveRound(ctx context.Context, gameType string) (*models.Round, error)

	// FindExpiredRound returns a running or processing round whose entry
	// window closed at or before now, or nil.
	FindExpiredRound(ctx context.Context, gameType string, now time.Time) (*models.Round, error)

	// GetRound fetches a round by id; NotFoundError if absent.
	GetRound(ctx context.Context, roundID string) (*models.Round, error)

	// CreateRound inserts a new round; ErrDuplicateRound if the tier already
	// has a non-terminal one.
	CreateRound(ctx context.Context, round *models.Round) error

	// ClaimRound moves running→processing and records the winning seed in
	// the same write. The caller that succeeds owns settlement; all others
	// get ErrStale.
	ClaimRound(ctx context.Context, roundID, seed string) error

	// AppendParticipant adds a participant only if the round is still
	// running and currently holds exactly expectedCount participants.
	// Returns ErrRoundFull or ErrStale when the condition fails.
	AppendParticipant(ctx context.Context, roundID string, p models.Participant, expectedCount int) error

	// CompleteRound moves processing→completed, writing all terminal fields
	// and flagging winning participants in one conditional update.
	CompleteRound(ctx context.Context, roundID string, s Settlement) error

	// CancelRound moves processing→cancelled.
	CancelRound(ctx context.Context, roundID string, processedAt time.Time) error

	// FindUserRounds returns completed rounds the user participated in,
	// newest first.
	FindUserRounds(ctx context.Context, userID string, limit int64) ([]models.Round, error)
}

// LedgerStore owns balances and the append-only transaction log. Balances
// move only through AdjustBalance, never read-modify-write.
type LedgerStore interface {
	// GetBalance returns the user's balance; NotFoundError if unknown.
	GetBalance(ctx context.Context, userID string) (int64, error)

	// AdjustBalance atomically applies delta and returns the new balance.
	// A debit that would go negative fails with InsufficientFundsError and
	// leaves the balance untouched.
	AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error)

	// AppendTransaction records one entry in the transaction log.
	AppendTransaction(ctx context.Context, tx models.Transaction) error

	// HasTransaction reports whether a log entry of the given type already
	// references referenceID for this user. Settlement retries use this to
	// avoid crediting twice.
	HasTransaction(ctx context.Context, userID, referenceID string, txType models.TransactionType) (bool, error)
}

// EventPublisher is a fire-and-forget broadcast. Delivery is at most once;
// nothing in the engine depends on an event arriving.
type EventPublisher interface {
	Publish(topic string, payload interface{})
}
