/* rounds.go
 * RoundStore implementation. Every status change is a conditional update
 * filtered on the status the caller read, so a lost race surfaces as
 * game.ErrStale instead of clobbering another writer.
 */

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pooldraw/game"
	"pooldraw/models"
)

func (s *Store) FindActiveRound(ctx context.Context, gameType string) (*models.Round, error) {
	filter := bson.M{"gameType": gameType, "status": bson.M{"$in": activeStatuses}}
	var round models.Round
	err := s.Rounds.FindOne(ctx, filter).Decode(&round)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active round for %s: %w", gameType, err)
	}
	return &round, nil
}

func (s *Store) FindExpiredRound(ctx context.Context, gameType string, now time.Time) (*models.Round, error) {
	filter := bson.M{
		"gameType": gameType,
		"status":   bson.M{"$in": activeStatuses},
		"endTime":  bson.M{"$lte": now},
	}
	var round models.Round
	err := s.Rounds.FindOne(ctx, filter).Decode(&round)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find expired round for %s: %w", gameType, err)
	}
	return &round, nil
}

func (s *Store) GetRound(ctx context.Context, roundID string) (*models.Round, error) {
	var round models.Round
	err := s.Rounds.FindOne(ctx, bson.M{"roundId": roundID}).Decode(&round)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, &game.NotFoundError{Msg: fmt.Sprintf("round %s not found", roundID)}
	}
	if err != nil {
		return nil, fmt.Errorf("get round %s: %w", roundID, err)
	}
	return &round, nil
}

func (s *Store) CreateRound(ctx context.Context, round *models.Round) error {
	_, err := s.Rounds.InsertOne(ctx, round)
	if mongo.IsDuplicateKeyError(err) {
		return game.ErrDuplicateRound
	}
	if err != nil {
		return fmt.Errorf("create round %s: %w", round.RoundID, err)
	}
	return nil
}

func (s *Store) ClaimRound(ctx context.Context, roundID, seed string) error {
	res, err := s.Rounds.UpdateOne(ctx,
		bson.M{"roundId": roundID, "status": models.RoundRunning},
		bson.M{"$set": bson.M{"status": models.RoundProcessing, "winningSeed": seed}},
	)
	if err != nil {
		return fmt.Errorf("claim round %s: %w", roundID, err)
	}
	if res.ModifiedCount == 0 {
		return game.ErrStale
	}
	return nil
}

func (s *Store) AppendParticipant(ctx context.Context, roundID string, p models.Participant, expectedCount int) error {
	filter := bson.M{
		"roundId":      roundID,
		"status":       models.RoundRunning,
		"participants": bson.M{"$size": expectedCount},
	}
	res, err := s.Rounds.UpdateOne(ctx, filter, bson.M{"$push": bson.M{"participants": p}})
	if err != nil {
		return fmt.Errorf("append participant to %s: %w", roundID, err)
	}
	if res.ModifiedCount == 1 {
		return nil
	}

	// condition failed; re-read once to say why
	round, err := s.GetRound(ctx, roundID)
	if err != nil {
		return err
	}
	if round.Status == models.RoundRunning && len(round.Participants) >= round.MaxPlayers {
		return game.ErrRoundFull
	}
	return game.ErrStale
}

func (s *Store) CompleteRound(ctx context.Context, roundID string, settlement game.Settlement) error {
	update := bson.M{"$set": bson.M{
		"status":                     models.RoundCompleted,
		"totalPool":                  settlement.TotalPool,
		"platformFee":                settlement.PlatformFee,
		"winningsDistributed":        settlement.WinningsDistributed,
		"winners":                    settlement.Winners,
		"resultsProcessedAt":         settlement.ProcessedAt,
		"participants.$[w].isWinner": true,
	}}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"w.userId": bson.M{"$in": settlement.Winners}}},
	})
	res, err := s.Rounds.UpdateOne(ctx,
		bson.M{"roundId": roundID, "status": models.RoundProcessing},
		update, opts,
	)
	if err != nil {
		return fmt.Errorf("complete round %s: %w", roundID, err)
	}
	if res.ModifiedCount == 0 {
		return game.ErrStale
	}
	return nil
}

func (s *Store) CancelRound(ctx context.Context, roundID string, processedAt time.Time) error {
	res, err := s.Rounds.UpdateOne(ctx,
		bson.M{"roundId": roundID, "status": models.RoundProcessing},
		bson.M{"$set": bson.M{"status": models.RoundCancelled, "resultsProcessedAt": processedAt}},
	)
	if err != nil {
		return fmt.Errorf("cancel round %s: %w", roundID, err)
	}
	if res.ModifiedCount == 0 {
		return game.ErrStale
	}
	return nil
}

func (s *Store) FindUserRounds(ctx context.Context, userID string, limit int64) ([]models.Round, error) {
	filter := bson.M{
		"participants.userId": userID,
		"status":              models.RoundCompleted,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "resultsProcessedAt", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.Rounds.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find rounds for user %s: %w", userID, err)
	}

	var rounds []models.Round
	if err := cursor.All(ctx, &rounds); err != nil {
		return nil, fmt.Errorf("decode rounds for user %s: %w", userID, err)
	}
	return rounds, nil
}
