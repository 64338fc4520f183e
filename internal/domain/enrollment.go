package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Enrollment is the durable record linking a user to a program they follow.
// One live row per active program per user; mutated on every recorded workout,
// pause and resume; terminal once CompletedAt is set, or deleted on cancel.
type Enrollment struct {
	ID                   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ProgramID            primitive.ObjectID `bson:"programId" json:"programId"`
	UserID               primitive.ObjectID `bson:"userId" json:"userId"`
	StartDate            time.Time          `bson:"startDate" json:"startDate"`
	CurrentWeek          int                `bson:"currentWeek" json:"currentWeek"` // 1..Program.DurationWeeks
	StartingWeight       float64            `bson:"startingWeight" json:"startingWeight"`
	CurrentWeight        float64            `bson:"currentWeight" json:"currentWeight"`
	CompletionPercentage float64            `bson:"completionPercentage" json:"completionPercentage"`
	NextWorkoutDate      time.Time          `bson:"nextWorkoutDate" json:"nextWorkoutDate"`
	IsActive             bool               `bson:"isActive" json:"isActive"`
	IsPaused             bool               `bson:"isPaused" json:"isPaused"`
	PausedReason         string             `bson:"pausedReason,omitempty" json:"pausedReason,omitempty"`
	PausedAt             *time.Time         `bson:"pausedAt,omitempty" json:"pausedAt,omitempty"`
	CompletedAt          *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt            time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt            time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// IsCompleted reports whether the enrollment reached its terminal state.
func (e *Enrollment) IsCompleted() bool {
	return e.CompletedAt != nil
}
