package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgressRecord is one append-only fact per completed workout. Immutable once
// written; the sole input to completion percentage and consistency math.
type ProgressRecord struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID        primitive.ObjectID `bson:"userId" json:"userId"`
	ProgramID     primitive.ObjectID `bson:"programId" json:"programId"`
	WorkoutDate   time.Time          `bson:"workoutDate" json:"workoutDate"`
	WeekNumber    int                `bson:"weekNumber" json:"weekNumber"`
	WorkoutNumber int                `bson:"workoutNumber" json:"workoutNumber"`
	Weight        float64            `bson:"weight" json:"weight"`     // lbs carried
	Distance      float64            `bson:"distance" json:"distance"` // miles
	Duration      time.Duration      `bson:"duration" json:"duration"`
	Completed     bool               `bson:"completed" json:"completed"`
	Notes         string             `bson:"notes,omitempty" json:"notes,omitempty"`
	AvgHeartRate  *int               `bson:"avgHeartRate,omitempty" json:"avgHeartRate,omitempty"`
	AvgPace       *float64           `bson:"avgPace,omitempty" json:"avgPace,omitempty"` // min/mile
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// CompletedWorkout is the engine-facing payload for a workout the user just
// finished. The session manager turns it into a ProgressRecord.
type CompletedWorkout struct {
	WorkoutDate   time.Time     `json:"workoutDate"`
	WeekNumber    int           `json:"weekNumber"`
	WorkoutNumber int           `json:"workoutNumber"`
	Weight        float64       `json:"weight"`
	Distance      float64       `json:"distance"`
	Duration      time.Duration `json:"duration"`
	Notes         string        `json:"notes,omitempty"`
	AvgHeartRate  *int          `json:"avgHeartRate,omitempty"`
	AvgPace       *float64      `json:"avgPace,omitempty"`
}
