/* store.go
 * Mongo-backed implementations of the engine's RoundStore and LedgerStore
 * contracts. Round methods live in rounds.go, balance/transaction methods in
 * ledger.go.
 */

package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pooldraw/models"
)

var activeStatuses = []models.RoundStatus{models.RoundRunning, models.RoundProcessing}

type Store struct {
	Client   *mongo.Client
	Database *mongo.Database

	Rounds       *mongo.Collection
	Users        *mongo.Collection
	Transactions *mongo.Collection
}

func New(database *mongo.Database) *Store {
	return &Store{
		Client:       database.Client(),
		Database:     database,
		Rounds:       database.Collection("rounds"),
		Users:        database.Collection("users"),
		Transactions: database.Collection("transactions"),
	}
}

// EnsureIndexes creates the constraints the engine's correctness leans on,
// in particular the partial unique index that admits at most one
// non-terminal round per game type.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.Rounds.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "roundId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "gameType", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": bson.M{"$in": activeStatuses}}),
		},
		{
			Keys: bson.D{{Key: "participants.userId", Value: 1}, {Key: "resultsProcessedAt", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create round indexes: %w", err)
	}

	_, err = s.Users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create user index: %w", err)
	}

	_, err = s.Transactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "referenceId", Value: 1}, {Key: "type", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create transaction index: %w", err)
	}
	return nil
}
