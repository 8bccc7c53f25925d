package models

import (
	"time"
)

type TransactionType string

const (
	TxDeposit  TransactionType = "deposit"
	TxWithdraw TransactionType = "withdraw"
	TxEntry    TransactionType = "entry"
	TxWin      TransactionType = "win"
	TxLoss     TransactionType = "loss"
	TxRefund   TransactionType = "refund"

	// TxReversal undoes a failed entry, distinct from TxRefund so a
	// cancellation refund for the same round is never mistaken as done.
	TxReversal TransactionType = "reversal"
)

type TransactionStatus string

const (
	TxPending TransactionStatus = "pending"
	TxSuccess TransactionStatus = "success"
	TxFailed  TransactionStatus = "failed"
)

// Transaction is one entry in the append-only money log. ReferenceID carries
// the round id for entry/win/loss/refund records so a round's money movement
// can be reconstructed from the log alone.
type Transaction struct {
	TxID        string            `json:"txId" bson:"txId"`
	UserID      string            `json:"userId" bson:"userId"`
	Type        TransactionType   `json:"type" bson:"type"`
	Amount      int64             `json:"amount" bson:"amount"`
	Status      TransactionStatus `json:"status" bson:"status"`
	ReferenceID string            `json:"referenceId,omitempty" bson:"referenceId,omitempty"`
	Description string            `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time         `json:"createdAt" bson:"createdAt"`
}
