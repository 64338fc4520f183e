package engine

import (
	"context"
	"fmt"
	"time"

	"peakform/training-engine/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionAnalytics is the per-session slice of the analytics summary.
type SessionAnalytics struct {
	SessionID            string                 `json:"sessionId"`
	ProgramTitle         string                 `json:"programTitle"`
	Phase                domain.ProgramPhase    `json:"phase"`
	CompletionPercentage float64                `json:"completionPercentage"`
	Metrics              domain.ProgressMetrics `json:"metrics"`
	AdaptationCount      int                    `json:"adaptationCount"`
}

// ProgressAnalytics summarizes a user's training across sessions and the
// durable record history.
type ProgressAnalytics struct {
	Sessions          []SessionAnalytics `json:"sessions"`
	TotalWorkouts     int                `json:"totalWorkouts"`
	TotalDistance     float64            `json:"totalDistance"`
	TotalTime         time.Duration      `json:"totalTime"`
	CompletedPrograms int                `json:"completedPrograms"`
	CurrentLevel      domain.Difficulty  `json:"currentLevel"`
}

// GetProgressAnalytics aggregates the user's live sessions with the
// append-only record history and profile.
func (e *Engine) GetProgressAnalytics(ctx context.Context, userID primitive.ObjectID) (*ProgressAnalytics, error) {
	if err := e.ensureRestored(ctx, userID); err != nil {
		return nil, err
	}

	records, err := e.records.GetByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress records: %w", err)
	}

	profile, err := e.loadProfileOrDefault(ctx, userID)
	if err != nil {
		return nil, err
	}

	analytics := &ProgressAnalytics{
		CompletedPrograms: profile.CompletedPrograms,
		CurrentLevel:      profile.CurrentLevel,
	}
	for _, r := range records {
		if !r.Completed {
			continue
		}
		analytics.TotalWorkouts++
		analytics.TotalDistance += r.Distance
		analytics.TotalTime += r.Duration
	}

	e.mu.Lock()
	for _, s := range e.sessions {
		if s.Enrollment.UserID != userID {
			continue
		}
		analytics.Sessions = append(analytics.Sessions, SessionAnalytics{
			SessionID:            s.ID,
			ProgramTitle:         s.Program.Title,
			Phase:                s.Phase,
			CompletionPercentage: s.Enrollment.CompletionPercentage,
			Metrics:              s.Metrics,
			AdaptationCount:      len(s.Adaptations),
		})
	}
	e.mu.Unlock()

	return analytics, nil
}
