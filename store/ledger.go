/* ledger.go
 * LedgerStore implementation. Balances only ever move through a guarded
 * $inc: a debit filters on balance >= amount so the update simply matches
 * nothing when funds are short, and no read-modify-write window exists.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pooldraw/game"
	"pooldraw/models"
)

func (s *Store) GetBalance(ctx context.Context, userID string) (int64, error) {
	var user models.User
	err := s.Users.FindOne(ctx, bson.M{"userId": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, &game.NotFoundError{Msg: fmt.Sprintf("user %s not found", userID)}
	}
	if err != nil {
		return 0, fmt.Errorf("get balance for %s: %w", userID, err)
	}
	return user.Balance, nil
}

func (s *Store) AdjustBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	now := time.Now()
	filter := bson.M{"userId": userID}
	update := bson.M{
		"$inc": bson.M{"balance": delta},
		"$set": bson.M{"updatedAt": now},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	if delta >= 0 {
		// credits may create the wallet on first touch
		update["$setOnInsert"] = bson.M{"createdAt": now}
		opts.SetUpsert(true)
	} else {
		// a debit only matches when the balance covers it
		filter["balance"] = bson.M{"$gte": -delta}
	}

	var user models.User
	err := s.Users.FindOneAndUpdate(ctx, filter, update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		balance, berr := s.GetBalance(ctx, userID)
		if berr != nil {
			return 0, berr
		}
		return 0, &game.InsufficientFundsError{Balance: balance, Required: -delta}
	}
	if err != nil {
		return 0, fmt.Errorf("adjust balance for %s by %d: %w", userID, delta, err)
	}
	return user.Balance, nil
}

func (s *Store) AppendTransaction(ctx context.Context, tx models.Transaction) error {
	if tx.TxID == "" {
		tx.TxID = uuid.NewString()
	}
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now()
	}
	if _, err := s.Transactions.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("append transaction for %s: %w", tx.UserID, err)
	}
	return nil
}

func (s *Store) HasTransaction(ctx context.Context, userID, referenceID string, txType models.TransactionType) (bool, error) {
	filter := bson.M{"userId": userID, "referenceId": referenceID, "type": txType}
	count, err := s.Transactions.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("transaction lookup for %s: %w", userID, err)
	}
	return count > 0, nil
}

// UserTransactions returns the user's transaction log, newest first.
func (s *Store) UserTransactions(ctx context.Context, userID string, limit int64) ([]models.Transaction, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(limit)
	cursor, err := s.Transactions.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find transactions for %s: %w", userID, err)
	}
	var txs []models.Transaction
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("decode transactions for %s: %w", userID, err)
	}
	return txs, nil
}
