package store

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pastprep-server/catalog"
	"pastprep-server/models"
)

// AddGoal inserts a goal if no goal with the same normalized path exists
// for the user. The duplicate check is read-then-insert: two concurrent
// adds for the same path can both land, which is a documented benign race.
func (s *MongoStore) AddGoal(ctx context.Context, goal models.Goal) (*models.Goal, error) {
	goal.Path = catalog.NormalizePath(goal.Path)

	count, err := s.goals.CountDocuments(ctx, bson.M{"userEmail": goal.UserEmail, "path": goal.Path})
	if err != nil {
		return nil, fmt.Errorf("checking for existing goal: %w", err)
	}
	if count > 0 {
		return nil, ErrAlreadyExists
	}

	goal.ID = primitive.NewObjectID().Hex()
	goal.Added = time.Now().UTC()
	goal.Completed = false
	goal.CompletedDate = nil
	goal.CompletedAsMock = false
	goal.MockScore = nil

	if _, err := s.goals.InsertOne(ctx, goal); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("inserting goal: %w", err)
	}
	return &goal, nil
}

// ListGoals returns all of a user's goals, most recently added first.
func (s *MongoStore) ListGoals(ctx context.Context, userEmail string) ([]models.Goal, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added", Value: -1}})
	cur, err := s.goals.Find(ctx, bson.M{"userEmail": userEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying goals: %w", err)
	}
	defer cur.Close(ctx)

	var goals []models.Goal
	if err := cur.All(ctx, &goals); err != nil {
		return nil, fmt.Errorf("decoding goals: %w", err)
	}
	return goals, nil
}

// SetGoalCompletion flips the completed flag. Un-completing clears the
// completed date but leaves any mock bookkeeping (completedAsMock,
// mockScore) and the underlying mock record untouched.
func (s *MongoStore) SetGoalCompletion(ctx context.Context, userEmail, goalID string, completed bool) error {
	set := bson.M{"completed": completed}
	if completed {
		set["completedDate"] = time.Now().UTC()
	} else {
		set["completedDate"] = nil
	}
	res, err := s.goals.UpdateOne(ctx,
		bson.M{"_id": goalID, "userEmail": userEmail},
		bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("updating goal completion: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteGoal removes a goal. Deleting a goal that does not exist is a
// failure result, not an exception.
func (s *MongoStore) DeleteGoal(ctx context.Context, userEmail, goalID string) error {
	res, err := s.goals.DeleteOne(ctx, bson.M{"_id": goalID, "userEmail": userEmail})
	if err != nil {
		return fmt.Errorf("deleting goal: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AutoCompleteOnMock marks every goal whose normalized path equals the
// given path as completed via a mock with the given score. Score 0 is a
// real score and is stored, not skipped. Returns how many goals matched;
// zero is not an error.
func (s *MongoStore) AutoCompleteOnMock(ctx context.Context, userEmail, path string, score float64) (int64, error) {
	res, err := s.goals.UpdateMany(ctx,
		bson.M{"userEmail": userEmail, "path": catalog.NormalizePath(path)},
		bson.M{"$set": bson.M{
			"completed":       true,
			"completedDate":   time.Now().UTC(),
			"completedAsMock": true,
			"mockScore":       score,
		}})
	if err != nil {
		return 0, fmt.Errorf("auto-completing goals: %w", err)
	}
	return res.MatchedCount, nil
}
