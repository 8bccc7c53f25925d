package game

import (
	"errors"
	"fmt"
)

// Callers need to tell "try another tier" from "add funds" from "already in",
// so each failure mode gets its own type rather than a generic error.

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

type ConflictError struct {
	Msg string
}

func (e *ConflictError) Error() string { return e.Msg }

type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

type InsufficientFundsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient balance: have %d, need %d", e.Balance, e.Required)
}

// Sentinels returned by store implementations when a conditional write loses.
var (
	// ErrStale means the document changed between read and conditional write.
	ErrStale = errors.New("conditional update lost: document changed since read")

	// ErrRoundFull means a participant append hit the round's player limit.
	ErrRoundFull = errors.New("participant limit reached")

	// ErrDuplicateRound means the tier already has a non-terminal round.
	ErrDuplicateRound = errors.New("active round already exists for game type")
)
