package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pastprep-server/models"
)

var (
	// ErrAlreadyExists reports a duplicate goal for the same normalized path.
	ErrAlreadyExists = errors.New("store: already exists")
	// ErrNotFound reports a missing document for the given owner and id.
	ErrNotFound = errors.New("store: not found")
)

// Store is the persistence contract for goals, mocks, users and subject
// preferences. All operations are asynchronous remote calls; any failure
// other than the sentinel errors above is a store error, surfaced once to
// the caller and never retried.
type Store interface {
	AddGoal(ctx context.Context, goal models.Goal) (*models.Goal, error)
	ListGoals(ctx context.Context, userEmail string) ([]models.Goal, error)
	SetGoalCompletion(ctx context.Context, userEmail, goalID string, completed bool) error
	DeleteGoal(ctx context.Context, userEmail, goalID string) error
	AutoCompleteOnMock(ctx context.Context, userEmail, path string, score float64) (int64, error)

	RecordMockExam(ctx context.Context, exam models.MockExam) (string, error)
	GetMockExam(ctx context.Context, examID string) (*models.MockExam, error)
	AttachMockScore(ctx context.Context, examID string, score float64) error
	ListMockExams(ctx context.Context, userEmail string) ([]models.MockExam, error)

	UpsertUser(ctx context.Context, user models.User) (*models.User, error)
	GetUser(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserBanned(ctx context.Context, email string, banned bool) error
	DeleteUser(ctx context.Context, email string) error

	GetSubjectPreferences(ctx context.Context, email string) ([]string, error)
	SetSubjectPreferences(ctx context.Context, email string, subjects []string) error
}

// MongoStore implements Store against a remote MongoDB database.
type MongoStore struct {
	goals *mongo.Collection
	mocks *mongo.Collection
	users *mongo.Collection
	prefs *mongo.Collection
}

// Connect dials MongoDB, verifies the connection and returns the store.
func Connect(ctx context.Context, uri, database string) (*MongoStore, *mongo.Client, error) {
	log.Println("Attempting to connect to MongoDB...")

	dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dialCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to MongoDB: %w", err)
	}
	if err := client.Ping(dialCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("MongoDB is not reachable: %w", err)
	}
	log.Println("Successfully connected to MongoDB!")

	db := client.Database(database)
	return &MongoStore{
		goals: db.Collection("goals"),
		mocks: db.Collection("mock_exams"),
		users: db.Collection("users"),
		prefs: db.Collection("subject_preferences"),
	}, client, nil
}

// EnsureIndexes creates the indexes the queries rely on. The unique goal
// index on (userEmail, path) backs duplicate detection, but AddGoal keeps
// its read-then-insert check so behavior is the same with or without it.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.goals.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userEmail", Value: 1}, {Key: "path", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating goal index: %w", err)
	}
	_, err = s.mocks.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userEmail", Value: 1}, {Key: "completedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating mock exam index: %w", err)
	}
	return nil
}
