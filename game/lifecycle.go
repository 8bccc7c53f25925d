package game

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	"math"

	"pooldraw/models"
)

const (
	platformFeePercent = 10 // percent of the pool kept by the platform
	winnerPercent      = 50 // percent of participants that win
)

// CloseRound drives an expired round to its terminal state. The first caller
// to win the running-to-processing claim owns settlement; everyone else backs
// off. A settlement interrupted by a store failure leaves the round in
// processing, and the next call re-derives the same winners from the seed
// stored at claim time, skipping any credit already present in the ledger.
func (e *Engine) CloseRound(ctx context.Context, roundID string) error {
	mu := e.roundLocks.get(roundID)
	mu.Lock()
	defer mu.Unlock()

	round, err := e.rounds.GetRound(ctx, roundID)
	if err != nil {
		return err
	}

	switch round.Status {
	case models.RoundRunning:
		if round.EndTime.After(e.now()) {
			// entry window still open, nothing to close
			return nil
		}
		seed, err := newWinningSeed()
		if err != nil {
			return err
		}
		if err := e.rounds.ClaimRound(ctx, round.RoundID, seed); err != nil {
			if errors.Is(err, ErrStale) {
				// someone else claimed it first
				return nil
			}
			return err
		}
		round.Status = models.RoundProcessing
		round.WinningSeed = seed
	case models.RoundProcessing:
		// retry of an interrupted settlement; seed is already on the round
	default:
		return nil
	}

	if len(round.Participants) < round.MinPlayers {
		return e.cancelRound(ctx, round)
	}
	return e.settleRound(ctx, round)
}

// cancelRound refunds every participant's entry fee and marks the round
// cancelled. Refunds already in the ledger are not repeated.
func (e *Engine) cancelRound(ctx context.Context, round *models.Round) error {
	for _, p := range round.Participants {
		refunded, err := e.ledger.HasTransaction(ctx, p.UserID, round.RoundID, models.TxRefund)
		if err != nil {
			return fmt.Errorf("refund check for %s: %w", p.UserID, err)
		}
		if refunded {
			continue
		}
		if _, err := e.ledger.AdjustBalance(ctx, p.UserID, round.EntryFee); err != nil {
			return fmt.Errorf("refund %s: %w", p.UserID, err)
		}
		err = e.ledger.AppendTransaction(ctx, models.Transaction{
			UserID:      p.UserID,
			Type:        models.TxRefund,
			Amount:      round.EntryFee,
			Status:      models.TxSuccess,
			ReferenceID: round.RoundID,
			Description: fmt.Sprintf("Refund: round %s cancelled due to low participation", round.RoundID),
		})
		if err != nil {
			return fmt.Errorf("refund record for %s: %w", p.UserID, err)
		}
	}

	if err := e.rounds.CancelRound(ctx, round.RoundID, e.now()); err != nil {
		if errors.Is(err, ErrStale) {
			return nil
		}
		return err
	}
	log.Printf("round %s cancelled: only %d/%d players joined", round.RoundID, len(round.Participants), round.MinPlayers)

	e.events.Publish("round_cancelled", map[string]interface{}{
		"roundId":  round.RoundID,
		"gameType": round.GameType,
		"refunded": len(round.Participants),
	})
	return nil
}

// settleRound computes the pool split, derives winners from the stored seed
// and pays them out. Credits are keyed to the ledger log so a retry after a
// partial failure never pays twice.
func (e *Engine) settleRound(ctx context.Context, round *models.Round) error {
	n := len(round.Participants)
	totalPool := int64(n) * round.EntryFee
	platformFee := totalPool * platformFeePercent / 100
	winningsPool := totalPool - platformFee
	numWinners := (n*winnerPercent + 99) / 100
	perWinner := winningsPool / int64(numWinners)
	// the integer remainder of the split stays with the platform

	winners := drawWinners(round.WinningSeed, round.Participants, numWinners)
	winnerSet := make(map[string]bool, len(winners))
	for _, userID := range winners {
		winnerSet[userID] = true
	}

	for _, userID := range winners {
		paid, err := e.ledger.HasTransaction(ctx, userID, round.RoundID, models.TxWin)
		if err != nil {
			return fmt.Errorf("payout check for %s: %w", userID, err)
		}
		if paid {
			continue
		}
		if _, err := e.ledger.AdjustBalance(ctx, userID, perWinner); err != nil {
			return fmt.Errorf("credit winner %s: %w", userID, err)
		}
		err = e.ledger.AppendTransaction(ctx, models.Transaction{
			UserID:      userID,
			Type:        models.TxWin,
			Amount:      perWinner,
			Status:      models.TxSuccess,
			ReferenceID: round.RoundID,
			Description: fmt.Sprintf("Winnings from round %s", round.RoundID),
		})
		if err != nil {
			return fmt.Errorf("payout record for %s: %w", userID, err)
		}
	}

	// entry fees were taken at join time; losses are informational records
	for _, p := range round.Participants {
		if winnerSet[p.UserID] {
			continue
		}
		recorded, err := e.ledger.HasTransaction(ctx, p.UserID, round.RoundID, models.TxLoss)
		if err != nil {
			return fmt.Errorf("loss check for %s: %w", p.UserID, err)
		}
		if recorded {
			continue
		}
		err = e.ledger.AppendTransaction(ctx, models.Transaction{
			UserID:      p.UserID,
			Type:        models.TxLoss,
			Amount:      round.EntryFee,
			Status:      models.TxSuccess,
			ReferenceID: round.RoundID,
			Description: fmt.Sprintf("Entry lost in round %s", round.RoundID),
		})
		if err != nil {
			return fmt.Errorf("loss record for %s: %w", p.UserID, err)
		}
	}

	settlement := Settlement{
		TotalPool:           totalPool,
		PlatformFee:         platformFee,
		WinningsDistributed: perWinner * int64(numWinners),
		Winners:             winners,
		ProcessedAt:         e.now(),
	}
	if err := e.rounds.CompleteRound(ctx, round.RoundID, settlement); err != nil {
		if errors.Is(err, ErrStale) {
			return nil
		}
		return err
	}
	log.Printf("round %s completed: %d winners, %d each, platform fee %d", round.RoundID, numWinners, perWinner, platformFee)

	e.events.Publish("round_result", map[string]interface{}{
		"roundId":     round.RoundID,
		"gameType":    round.GameType,
		"status":      models.RoundCompleted,
		"winners":     winners,
		"winningSeed": round.WinningSeed,
		"payout":      perWinner,
	})
	return nil
}

// drawWinners picks the first numWinners entries of the seed-derived
// permutation of the participant list. Given the seed and the join order,
// anyone can recompute the winner set.
func drawWinners(seed string, participants []models.Participant, numWinners int) []string {
	perm := seededPerm(seed, len(participants))
	winners := make([]string, 0, numWinners)
	for _, idx := range perm[:numWinners] {
		winners = append(winners, participants[idx].UserID)
	}
	return winners
}

// seededPerm produces a uniform permutation of [0,n) fully determined by the
// seed: a Fisher-Yates shuffle whose draws come from a SHA-256 counter
// stream over the seed, with rejection sampling to keep each draw unbiased.
func seededPerm(seed string, n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	stream := &seedStream{seed: []byte(seed)}
	for i := n - 1; i > 0; i-- {
		j := stream.intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

type seedStream struct {
	seed    []byte
	counter uint64
	buf     []byte
	off     int
}

func (s *seedStream) next() uint64 {
	if s.off+8 > len(s.buf) {
		h := sha256.New()
		h.Write(s.seed)
		var ctr [8]byte
		binary.BigEndian.PutUint64(ctr[:], s.counter)
		h.Write(ctr[:])
		s.buf = h.Sum(nil)
		s.off = 0
		s.counter++
	}
	v := binary.BigEndian.Uint64(s.buf[s.off : s.off+8])
	s.off += 8
	return v
}

// intn draws an unbiased value in [0,n) by rejecting the uneven tail of the
// uint64 range.
func (s *seedStream) intn(n int) int {
	limit := math.MaxUint64 - math.MaxUint64%uint64(n)
	for {
		v := s.next()
		if v < limit {
			return int(v % uint64(n))
		}
	}
}
