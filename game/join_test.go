package game

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pooldraw/models"
)

func TestJoinAssignsSequentialCodes(t *testing.T) {
	engine, rounds, ledger, events := newTestEngine()
	round := testRound("50", 50, 0, time.Now().Add(time.Minute))
	rounds.put(round)

	for i := 1; i <= 3; i++ {
		userID := fmt.Sprintf("player-%d", i)
		ledger.balances[userID] = 100

		result, err := engine.Join(context.Background(), userID, "50")
		require.NoError(t, err)
		assert.Equal(t, round.RoundID, result.RoundID)
		assert.Equal(t, fmt.Sprintf("%d", i), result.UniqueCode)
		assert.Equal(t, int64(50), result.NewBalance)
		assert.Equal(t, 1, ledger.countTx(userID, round.RoundID, models.TxEntry))
	}

	joined, err := rounds.GetRound(context.Background(), round.RoundID)
	require.NoError(t, err)
	require.Len(t, joined.Participants, 3)
	for i, p := range joined.Participants {
		assert.Equal(t, fmt.Sprintf("%d", i+1), p.UniqueCode)
	}
	assert.Contains(t, events.topics(), "round:50:update")
}

func TestJoinUnknownGameType(t *testing.T) {
	engine, _, _, _ := newTestEngine()

	_, err := engine.Join(context.Background(), "player-1", "999")
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
}

func TestJoinNoActiveRound(t *testing.T) {
	engine, _, ledger, _ := newTestEngine()
	ledger.balances["player-1"] = 100

	_, err := engine.Join(context.Background(), "player-1", "50")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
}

func TestJoinRejectedWhileProcessing(t *testing.T) {
	engine, rounds, ledger, _ := newTestEngine()
	round := testRound("50", 50, 5, time.Now().Add(time.Minute))
	round.Status = models.RoundProcessing
	rounds.put(round)
	ledger.balances["player-1"] = 100

	_, err := engine.Join(context.Background(), "player-1", "50")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(100), ledger.balance("player-1"))
}

func TestJoinInsufficientFunds(t *testing.T) {
	// balance 40 against a 50 entry fee: typed error, nothing changes
	engine, rounds, ledger, _ := newTestEngine()
	round := testRound("50", 50, 0, time.Now().Add(time.Minute))
	rounds.put(round)
	ledger.balances["player-1"] = 40

	_, err := engine.Join(context.Background(), "player-1", "50")
	var insufficient *InsufficientFundsError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, int64(40), insufficient.Balance)
	assert.Equal(t, int64(50), insufficient.Required)

	assert.Equal(t, int64(40), ledger.balance("player-1"))
	unchanged, gerr := rounds.GetRound(context.Background(), round.RoundID)
	require.NoError(t, gerr)
	assert.Empty(t, unchanged.Participants)
}

func TestJoinTwiceSameRound(t *testing.T) {
	engine, rounds, ledger, _ := newTestEngine()
	round := testRound("50", 50, 0, time.Now().Add(time.Minute))
	rounds.put(round)
	ledger.balances["player-1"] = 200

	_, err := engine.Join(context.Background(), "player-1", "50")
	require.NoError(t, err)

	_, err = engine.Join(context.Background(), "player-1", "50")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)

	// charged exactly once
	assert.Equal(t, int64(150), ledger.balance("player-1"))
	assert.Equal(t, 1, ledger.countTx("player-1", round.RoundID, models.TxEntry))
}

func TestJoinLastSlotRace(t *testing.T) {
	// two concurrent joins against one remaining slot: exactly one wins
	engine, rounds, ledger, _ := newTestEngine()
	round := testRound("50", 50, 9, time.Now().Add(time.Minute))
	rounds.put(round)
	ledger.balances["late-a"] = 100
	ledger.balances["late-b"] = 100

	var wg sync.WaitGroup
	results := make(map[string]*JoinResult)
	errs := make(map[string]error)
	var mu sync.Mutex
	for _, userID := range []string{"late-a", "late-b"} {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			result, err := engine.Join(context.Background(), userID, "50")
			mu.Lock()
			results[userID] = result
			errs[userID] = err
			mu.Unlock()
		}(userID)
	}
	wg.Wait()

	var winner, loser string
	if errs["late-a"] == nil {
		winner, loser = "late-a", "late-b"
	} else {
		winner, loser = "late-b", "late-a"
	}

	require.NoError(t, errs[winner])
	assert.Equal(t, "10", results[winner].UniqueCode)
	assert.Equal(t, int64(50), ledger.balance(winner))

	var conflict *ConflictError
	require.ErrorAs(t, errs[loser], &conflict)
	assert.Equal(t, int64(100), ledger.balance(loser), "loser keeps their balance")

	full, err := rounds.GetRound(context.Background(), round.RoundID)
	require.NoError(t, err)
	assert.Len(t, full.Participants, 10)
}

func TestJoinRetriableWhenRoundChanges(t *testing.T) {
	// a lost append race reads as "try again", and the debit is reversed
	engine, rounds, ledger, _ := newTestEngine()
	round := testRound("50", 50, 0, time.Now().Add(time.Minute))
	rounds.put(round)
	rounds.appendFail = ErrStale
	ledger.balances["player-1"] = 100

	_, err := engine.Join(context.Background(), "player-1", "50")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Msg, "try again")

	assert.Equal(t, int64(100), ledger.balance("player-1"))
	assert.Equal(t, 1, ledger.countTx("player-1", round.RoundID, models.TxReversal))
}

func TestJoinFullRound(t *testing.T) {
	engine, rounds, ledger, _ := newTestEngine()
	round := testRound("50", 50, 10, time.Now().Add(time.Minute))
	rounds.put(round)
	ledger.balances["player-x"] = 100

	_, err := engine.Join(context.Background(), "player-x", "50")
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, int64(100), ledger.balance("player-x"))
}
