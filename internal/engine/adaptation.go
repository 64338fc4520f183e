package engine

import (
	"fmt"
	"time"

	"peakform/training-engine/internal/domain"
)

const (
	fastFinishRatio = 0.8
	slowFinishRatio = 1.3
	weightStepLbs   = 2.5
)

// AnalyzeWorkout compares a just-completed workout against its target
// duration and returns advisory adaptations: at most one for a fast finish
// and one for a slow finish. A missing or malformed target means no
// adaptation is computed at all — never a false positive. The analyzer
// mutates nothing; suggestions are annotations for the user to accept.
func AnalyzeWorkout(completed domain.CompletedWorkout, targetDuration time.Duration, now time.Time) []domain.ProgramAdaptation {
	if targetDuration <= 0 {
		return nil
	}

	var adaptations []domain.ProgramAdaptation

	if float64(completed.Duration) < fastFinishRatio*float64(targetDuration) {
		adaptations = append(adaptations, domain.ProgramAdaptation{
			Type:            domain.AdaptIncreaseIntensity,
			Reason:          "significantly faster than target",
			SuggestedChange: fmt.Sprintf("add %.1f lbs next workout", weightStepLbs),
			Confidence:      0.8,
			CreatedAt:       now,
		})
	}

	if float64(completed.Duration) > slowFinishRatio*float64(targetDuration) {
		adaptations = append(adaptations, domain.ProgramAdaptation{
			Type:            domain.AdaptDecreaseIntensity,
			Reason:          "significantly slower than target",
			SuggestedChange: fmt.Sprintf("remove %.1f lbs next workout", weightStepLbs),
			Confidence:      0.7,
			CreatedAt:       now,
		})
	}

	return adaptations
}
