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

const progressCollectionName = "progress_records"

// mongoProgressRecordRepository implements repository.ProgressRecordRepository.
// The collection is append-only: no Update or Delete exists on purpose.
type mongoProgressRecordRepository struct {
	collection *mongo.Collection
}

// NewMongoProgressRecordRepository creates a new progress-record repository.
func NewMongoProgressRecordRepository(db *mongo.Database) repository.ProgressRecordRepository {
	return &mongoProgressRecordRepository{
		collection: db.Collection(progressCollectionName),
	}
}

// Append inserts one completed-workout fact.
func (r *mongoProgressRecordRepository) Append(ctx context.Context, record *domain.ProgressRecord) (primitive.ObjectID, error) {
	if record.UserID == primitive.NilObjectID || record.ProgramID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("progress record requires userId and programId")
	}
	record.ID = primitive.NewObjectID()
	record.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted record ID")
	}
	return insertedID, nil
}

// GetByUserID retrieves all progress records for a user in workout-date order.
func (r *mongoProgressRecordRepository) GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgressRecord, error) {
	return r.find(ctx, bson.M{"userId": userID})
}

// GetByUserAndProgram retrieves a user's records for one program in
// workout-date order.
func (r *mongoProgressRecordRepository) GetByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) ([]domain.ProgressRecord, error) {
	return r.find(ctx, bson.M{"userId": userID, "programId": programID})
}

func (r *mongoProgressRecordRepository) find(ctx context.Context, filter bson.M) ([]domain.ProgressRecord, error) {
	var records []domain.ProgressRecord
	findOptions := options.Find().SetSort(bson.D{{Key: "workoutDate", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// EnsureProgressRecordIndexes creates necessary indexes. Call during startup.
func EnsureProgressRecordIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "programId", Value: 1}, {Key: "workoutDate", Value: 1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
