package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"pastprep-server/models"
)

// UpsertUser creates the profile on first login and refreshes name,
// picture, role and lastLogin on every login. Status and ban state are
// preserved across logins; only an admin action changes them.
func (s *MongoStore) UpsertUser(ctx context.Context, user models.User) (*models.User, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":      user.Name,
			"picture":   user.Picture,
			"role":      user.Role,
			"lastLogin": now,
		},
		"$setOnInsert": bson.M{
			"status":    models.StatusActive,
			"isBanned":  false,
			"createdAt": now,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var stored models.User
	err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": user.Email}, update, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("upserting user %s: %w", user.Email, err)
	}
	return &stored, nil
}

// GetUser fetches a profile by email.
func (s *MongoStore) GetUser(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": email}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching user %s: %w", email, err)
	}
	return &user, nil
}

// ListUsers returns every profile, newest first.
func (s *MongoStore) ListUsers(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := s.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	return users, nil
}

// SetUserBanned flips the ban state and mirrors it into status.
func (s *MongoStore) SetUserBanned(ctx context.Context, email string, banned bool) error {
	status := models.StatusActive
	if banned {
		status = models.StatusBanned
	}
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": email},
		bson.M{"$set": bson.M{"isBanned": banned, "status": status}})
	if err != nil {
		return fmt.Errorf("updating ban state for %s: %w", email, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteUser hard-deletes a profile. Only reachable through an explicit
// admin action.
func (s *MongoStore) DeleteUser(ctx context.Context, email string) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": email})
	if err != nil {
		return fmt.Errorf("deleting user %s: %w", email, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
