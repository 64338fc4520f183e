package mongo

import (
	"context"
	"errors"
	"time"

	"peakform/training-engine/internal/domain"
	"peakform/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const profileCollectionName = "fitness_profiles"

// mongoProfileRepository implements repository.ProfileRepository as a simple
// keyed document store: one document per user, last write wins.
type mongoProfileRepository struct {
	collection *mongo.Collection
}

// NewMongoProfileRepository creates a new profile repository.
func NewMongoProfileRepository(db *mongo.Database) repository.ProfileRepository {
	return &mongoProfileRepository{
		collection: db.Collection(profileCollectionName),
	}
}

// Load retrieves the profile for a user, or repository.ErrNotFound if the
// user has never been profiled.
func (r *mongoProfileRepository) Load(ctx context.Context, userID primitive.ObjectID) (*domain.UserFitnessProfile, error) {
	var profile domain.UserFitnessProfile
	err := r.collection.FindOne(ctx, bson.M{"_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &profile, nil
}

// Save upserts the full profile document.
func (r *mongoProfileRepository) Save(ctx context.Context, profile *domain.UserFitnessProfile) error {
	if profile.UserID == primitive.NilObjectID {
		return errors.New("profile requires a user ID")
	}
	profile.UpdatedAt = time.Now().UTC()

	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": profile.UserID}, profile, opts)
	return err
}
