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

// GetSubjectPreferences returns the user's ordered preference identifiers.
// A user without a preference document has an empty set, which disables
// catalog filtering.
func (s *MongoStore) GetSubjectPreferences(ctx context.Context, email string) ([]string, error) {
	var prefs models.SubjectPreferences
	err := s.prefs.FindOne(ctx, bson.M{"_id": email}).Decode(&prefs)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching subject preferences for %s: %w", email, err)
	}
	return prefs.Subjects, nil
}

// SetSubjectPreferences replaces the user's preference list.
func (s *MongoStore) SetSubjectPreferences(ctx context.Context, email string, subjects []string) error {
	_, err := s.prefs.UpdateOne(ctx,
		bson.M{"_id": email},
		bson.M{"$set": bson.M{"subjects": subjects, "updatedAt": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving subject preferences for %s: %w", email, err)
	}
	return nil
}
