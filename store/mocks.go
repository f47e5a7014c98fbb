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

	"pastprep-server/catalog"
	"pastprep-server/models"
)

// RecordMockExam inserts a completed-mock record and returns its generated
// id. The score may be nil at this phase; a follow-up AttachMockScore call
// adds it after the user checks against the mark scheme.
func (s *MongoStore) RecordMockExam(ctx context.Context, exam models.MockExam) (string, error) {
	exam.ID = uuid.NewString()
	exam.RawPath = catalog.NormalizePath(exam.RawPath)
	if exam.CompletedAt.IsZero() {
		exam.CompletedAt = time.Now().UTC()
	}
	if _, err := s.mocks.InsertOne(ctx, exam); err != nil {
		return "", fmt.Errorf("inserting mock exam: %w", err)
	}
	return exam.ID, nil
}

// GetMockExam fetches one mock record by its generated id.
func (s *MongoStore) GetMockExam(ctx context.Context, examID string) (*models.MockExam, error) {
	var exam models.MockExam
	err := s.mocks.FindOne(ctx, bson.M{"_id": examID}).Decode(&exam)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching mock exam %s: %w", examID, err)
	}
	return &exam, nil
}

// AttachMockScore sets the score on an existing mock record. Idempotent:
// attaching the same score twice succeeds, a different score overwrites.
func (s *MongoStore) AttachMockScore(ctx context.Context, examID string, score float64) error {
	res, err := s.mocks.UpdateOne(ctx,
		bson.M{"_id": examID},
		bson.M{"$set": bson.M{"score": score}})
	if err != nil {
		return fmt.Errorf("attaching mock score: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListMockExams returns a user's completed mocks, most recent first.
func (s *MongoStore) ListMockExams(ctx context.Context, userEmail string) ([]models.MockExam, error) {
	opts := options.Find().SetSort(bson.D{{Key: "completedAt", Value: -1}})
	cur, err := s.mocks.Find(ctx, bson.M{"userEmail": userEmail}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying mock exams: %w", err)
	}
	defer cur.Close(ctx)

	var exams []models.MockExam
	if err := cur.All(ctx, &exams); err != nil {
		return nil, fmt.Errorf("decoding mock exams: %w", err)
	}
	return exams, nil
}
