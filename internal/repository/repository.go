package repository

import (
	"context"
	"time"

	"peakform/training-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors from domain errors.
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// ProgramRepository is the catalog read (and coach-side write) interface.
// Programs are immutable once published; the engine only lists and reads them.
type ProgramRepository interface {
	Create(ctx context.Context, program *domain.Program) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Program, error)
	List(ctx context.Context) ([]domain.Program, error)
	SetMediaKey(ctx context.Context, id primitive.ObjectID, mediaKey string) error
}

// EnrollmentRepository persists the durable user-to-program rows of the
// progress store. Create/MarkComplete are atomic from the engine's view:
// either the row is durably visible on the next read, or the call failed
// and no partial row exists.
type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *domain.Enrollment) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Enrollment, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.Enrollment, error)
	Update(ctx context.Context, enrollment *domain.Enrollment) error
	MarkComplete(ctx context.Context, id primitive.ObjectID, completedAt time.Time) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProgressRecordRepository appends and lists the immutable per-workout facts.
// Records are never updated or deleted.
type ProgressRecordRepository interface {
	Append(ctx context.Context, record *domain.ProgressRecord) (primitive.ObjectID, error)
	GetByUserID(ctx context.Context, userID primitive.ObjectID) ([]domain.ProgressRecord, error)
	GetByUserAndProgram(ctx context.Context, userID, programID primitive.ObjectID) ([]domain.ProgressRecord, error)
}

// ProfileRepository is the fitness-profile key-value store. Last write wins;
// the engine is the only writer.
type ProfileRepository interface {
	Load(ctx context.Context, userID primitive.ObjectID) (*domain.UserFitnessProfile, error)
	Save(ctx context.Context, profile *domain.UserFitnessProfile) error
}

// UserRepository stores accounts for the API surface.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
}
