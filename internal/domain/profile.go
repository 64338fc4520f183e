package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FitnessGoal is one of the goals a user trains toward. A user can hold
// several at once.
type FitnessGoal string

const (
	GoalWeightLoss           FitnessGoal = "weight_loss"
	GoalStrengthBuilding     FitnessGoal = "strength_building"
	GoalEnduranceImprovement FitnessGoal = "endurance_improvement"
	GoalMilitaryPreparation  FitnessGoal = "military_preparation"
	GoalGeneralFitness       FitnessGoal = "general_fitness"
)

// EnrollmentHistoryEntry records one enrollment in the profile, with its
// completion time once the program is finished. Drives the recommendation
// cooldown.
type EnrollmentHistoryEntry struct {
	ProgramID   primitive.ObjectID `bson:"programId" json:"programId"`
	EnrolledAt  time.Time          `bson:"enrolledAt" json:"enrolledAt"`
	CompletedAt *time.Time         `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// UserFitnessProfile is the durable summary of a user's level, goals and
// history. Mutated only by the engine on enroll/complete events; the sole
// input to recommendation scoring.
type UserFitnessProfile struct {
	UserID                 primitive.ObjectID       `bson:"_id" json:"userId"`
	CurrentLevel           Difficulty               `bson:"currentLevel" json:"currentLevel"`
	AspirationalLevel      *Difficulty              `bson:"aspirationalLevel,omitempty" json:"aspirationalLevel,omitempty"`
	Goals                  []FitnessGoal            `bson:"goals" json:"goals"`
	AverageWorkoutsPerWeek float64                  `bson:"averageWorkoutsPerWeek" json:"averageWorkoutsPerWeek"`
	CompletedPrograms      int                      `bson:"completedPrograms" json:"completedPrograms"`
	CompletedCategories    []Category               `bson:"completedCategories" json:"completedCategories"`
	PreferredCategories    []Category               `bson:"preferredCategories" json:"preferredCategories"`
	PreferredDurations     []int                    `bson:"preferredDurations" json:"preferredDurations"` // weeks
	EnrollmentHistory      []EnrollmentHistoryEntry `bson:"enrollmentHistory" json:"enrollmentHistory"`
	PreferredWorkoutTimes  []string                 `bson:"preferredWorkoutTimes,omitempty" json:"preferredWorkoutTimes,omitempty"`
	InjuryHistory          []string                 `bson:"injuryHistory,omitempty" json:"injuryHistory,omitempty"`
	EquipmentAccess        []string                 `bson:"equipmentAccess,omitempty" json:"equipmentAccess,omitempty"`
	UpdatedAt              time.Time                `bson:"updatedAt" json:"updatedAt"`
}

// HasCompletedCategory reports whether the user already finished a program in
// the given category.
func (p *UserFitnessProfile) HasCompletedCategory(c Category) bool {
	for _, done := range p.CompletedCategories {
		if done == c {
			return true
		}
	}
	return false
}

// HasGoal reports whether the profile carries the given goal.
func (p *UserFitnessProfile) HasGoal(g FitnessGoal) bool {
	for _, goal := range p.Goals {
		if goal == g {
			return true
		}
	}
	return false
}

// DefaultProfile builds the bootstrap profile used before any onboarding
// signal exists for the user.
func DefaultProfile(userID primitive.ObjectID) *UserFitnessProfile {
	return &UserFitnessProfile{
		UserID:                 userID,
		CurrentLevel:           DifficultyBeginner,
		Goals:                  []FitnessGoal{GoalGeneralFitness},
		AverageWorkoutsPerWeek: 3,
		UpdatedAt:              time.Now().UTC(),
	}
}
