package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramPhase describes roughly where within the program a session sits,
// derived from currentWeek / durationWeeks.
type ProgramPhase string

const (
	PhaseFoundation ProgramPhase = "foundation" // [0, 0.3)
	PhaseBuilding   ProgramPhase = "building"   // [0.3, 0.7)
	PhasePeak       ProgramPhase = "peak"       // [0.7, 0.9)
	PhaseTaper      ProgramPhase = "taper"      // [0.9, 1]
)

// PhaseForProgress maps a progress ratio (currentWeek/durationWeeks) to a phase.
func PhaseForProgress(ratio float64) ProgramPhase {
	switch {
	case ratio < 0.3:
		return PhaseFoundation
	case ratio < 0.7:
		return PhaseBuilding
	case ratio < 0.9:
		return PhasePeak
	default:
		return PhaseTaper
	}
}

// WorkoutType classifies a scheduled workout.
type WorkoutType string

const (
	WorkoutRest       WorkoutType = "rest"
	WorkoutFoundation WorkoutType = "foundation"
	WorkoutEndurance  WorkoutType = "endurance"
	WorkoutStrength   WorkoutType = "strength"
	WorkoutSpeed      WorkoutType = "speed"
	WorkoutRecovery   WorkoutType = "recovery"
	WorkoutTest       WorkoutType = "test"
)

// Customization captures per-session user preferences applied on enrollment.
type Customization struct {
	WorkoutsPerWeek   int            `json:"workoutsPerWeek"` // default 3, or 4 for advanced+ programs
	RestDays          []time.Weekday `json:"restDays"`        // default: Sunday only
	IntensityModifier float64        `json:"intensityModifier"`
	FocusAreas        []string       `json:"focusAreas,omitempty"`
	Equipment         []string       `json:"equipment,omitempty"`
}

// WeeklySchedule is the derived split of the week into workout and rest days.
type WeeklySchedule struct {
	WorkoutDays []time.Weekday `json:"workoutDays"`
	RestDays    []time.Weekday `json:"restDays"`
}

// ProgressMetrics holds the running totals for one session.
type ProgressMetrics struct {
	TotalWorkouts    int           `json:"totalWorkouts"`
	TotalDistance    float64       `json:"totalDistance"` // miles
	TotalTime        time.Duration `json:"totalTime"`
	AverageWeight    float64       `json:"averageWeight"`
	ConsistencyScore float64       `json:"consistencyScore"` // (0,1)
}

// UpcomingWorkout is one derived entry of the rolling schedule window. Never
// persisted; always recomputable from Enrollment + Program + Customization.
type UpcomingWorkout struct {
	SessionID      string        `json:"sessionId"`
	WeekNumber     int           `json:"weekNumber"`
	WorkoutNumber  int           `json:"workoutNumber"`
	ScheduledDate  time.Time     `json:"scheduledDate"`
	Type           WorkoutType   `json:"type"`
	TargetWeight   float64       `json:"targetWeight"`
	TargetDistance float64       `json:"targetDistance"`
	TargetDuration time.Duration `json:"targetDuration"`
	Instructions   string        `json:"instructions,omitempty"`
}

// AdaptationType enumerates the kinds of advisory adjustments the analyzer
// can suggest.
type AdaptationType string

const (
	AdaptIncreaseIntensity AdaptationType = "increase_intensity"
	AdaptDecreaseIntensity AdaptationType = "decrease_intensity"
	AdaptAdjustVolume      AdaptationType = "adjust_volume"
	AdaptModifySchedule    AdaptationType = "modify_schedule"
	AdaptRestRecommended   AdaptationType = "rest_recommended"
)

// ProgramAdaptation is an advisory suggestion attached to a session. Never
// auto-applied; the user accepts or ignores it.
type ProgramAdaptation struct {
	Type            AdaptationType `json:"type"`
	Reason          string         `json:"reason"`
	SuggestedChange string         `json:"suggestedChange"`
	Confidence      float64        `json:"confidence"` // 0..1
	CreatedAt       time.Time      `json:"createdAt"`
}

// ActiveProgramSession is the in-memory projection for one live enrollment.
// Owned exclusively by the session manager.
type ActiveProgramSession struct {
	ID            string              `json:"id"`
	Enrollment    Enrollment          `json:"enrollment"`
	Program       Program             `json:"program"`
	Customization Customization       `json:"customization"`
	Schedule      WeeklySchedule      `json:"schedule"`
	Phase         ProgramPhase        `json:"phase"`
	Metrics       ProgressMetrics     `json:"metrics"`
	Adaptations   []ProgramAdaptation `json:"adaptations"`
	Upcoming      []UpcomingWorkout   `json:"upcoming"`
	IsPaused      bool                `json:"isPaused"`
	PausedReason  string              `json:"pausedReason,omitempty"`
	PausedDate    *time.Time          `json:"pausedDate,omitempty"`
}

// CompletedProgramSession is the snapshot taken when a program is finished.
type CompletedProgramSession struct {
	SessionID    string             `json:"sessionId"`
	ProgramID    primitive.ObjectID `json:"programId"`
	ProgramTitle string             `json:"programTitle"`
	CompletedAt  time.Time          `json:"completedAt"`
	FinalMetrics ProgressMetrics    `json:"finalMetrics"`
	Achievements []string           `json:"achievements"`
}
