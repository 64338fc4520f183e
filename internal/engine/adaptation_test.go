package engine

import (
	"testing"
	"time"

	"peakform/training-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeWorkout_FastFinish(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	completed := domain.CompletedWorkout{Duration: 2800 * time.Second}

	adaptations := AnalyzeWorkout(completed, 3600*time.Second, now)

	require.Len(t, adaptations, 1)
	assert.Equal(t, domain.AdaptIncreaseIntensity, adaptations[0].Type)
	assert.Equal(t, "significantly faster than target", adaptations[0].Reason)
	assert.InDelta(t, 0.8, adaptations[0].Confidence, 1e-9)
}

func TestAnalyzeWorkout_SlowFinish(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	completed := domain.CompletedWorkout{Duration: 5000 * time.Second}

	adaptations := AnalyzeWorkout(completed, 3600*time.Second, now)

	require.Len(t, adaptations, 1)
	assert.Equal(t, domain.AdaptDecreaseIntensity, adaptations[0].Type)
	assert.InDelta(t, 0.7, adaptations[0].Confidence, 1e-9)
}

func TestAnalyzeWorkout_OnTarget(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	completed := domain.CompletedWorkout{Duration: 3500 * time.Second}

	assert.Empty(t, AnalyzeWorkout(completed, 3600*time.Second, now))
}

func TestAnalyzeWorkout_BoundariesDoNotFire(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	target := 1000 * time.Second

	// Exactly 0.8x and exactly 1.3x are within tolerance.
	assert.Empty(t, AnalyzeWorkout(domain.CompletedWorkout{Duration: 800 * time.Second}, target, now))
	assert.Empty(t, AnalyzeWorkout(domain.CompletedWorkout{Duration: 1300 * time.Second}, target, now))
}

func TestAnalyzeWorkout_MissingTarget(t *testing.T) {
	now := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	completed := domain.CompletedWorkout{Duration: 100 * time.Second}

	// No target means no adaptation, never a false positive.
	assert.Empty(t, AnalyzeWorkout(completed, 0, now))
	assert.Empty(t, AnalyzeWorkout(completed, -time.Second, now))
}
