package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"peakform/training-engine/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	minStartingWeight = 10.0
	maxStartingWeight = 200.0
)

func newSessionID() string {
	return uuid.NewString()
}

// Enroll starts a user on a program. Preconditions are checked in order:
// starting weight bounds, duplicate enrollment, active-program cap. On
// success the enrollment row is created through the progress store, the
// session projection is built, the fitness profile is updated and the
// two-week schedule window is populated. Purely additive: no other session
// is touched.
func (e *Engine) Enroll(ctx context.Context, userID, programID primitive.ObjectID, startingWeight float64, cust *domain.Customization, startDate time.Time) (*domain.ActiveProgramSession, error) {
	if startingWeight < minStartingWeight || startingWeight > maxStartingWeight {
		return nil, ErrInvalidWeight
	}
	// Durable enrollments must be visible before the duplicate and cap
	// checks, or a restart would let a second live row through.
	if err := e.ensureRestored(ctx, userID); err != nil {
		return nil, err
	}

	program, err := e.programs.GetByID(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("load program: %w", err)
	}

	e.mu.Lock()
	for _, s := range e.sessions {
		if s.Enrollment.UserID != userID {
			continue
		}
		if s.Program.ID == programID {
			e.mu.Unlock()
			return nil, ErrAlreadyEnrolled
		}
	}
	active := 0
	for _, s := range e.sessions {
		if s.Enrollment.UserID == userID && !s.IsPaused {
			active++
		}
	}
	e.mu.Unlock()
	if active >= e.policy.MaxActivePrograms {
		return nil, ErrTooManyActivePrograms
	}

	customization := DefaultCustomization(program.Difficulty)
	if cust != nil {
		customization = NormalizeCustomization(*cust, program.Difficulty)
	}
	schedule := BuildWeeklySchedule(customization)

	if startDate.IsZero() {
		startDate = e.now()
	}
	enrollment := &domain.Enrollment{
		ProgramID:       programID,
		UserID:          userID,
		StartDate:       startDate,
		CurrentWeek:     1,
		StartingWeight:  startingWeight,
		CurrentWeight:   startingWeight,
		NextWorkoutDate: firstWorkoutDate(schedule, startDate),
		IsActive:        true,
	}
	if _, err := e.enrollments.Create(ctx, enrollment); err != nil {
		return nil, fmt.Errorf("create enrollment: %w", err)
	}

	now := e.now()
	session := e.buildSession(*enrollment, *program, customization, now)
	session.Upcoming = GenerateWindow(session.ID, session.Enrollment, session.Program, customization, now, e.policy.WindowWeeks)

	if err := e.recordEnrollmentInProfile(ctx, userID, program, now); err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sessions[session.ID] = session
	e.mu.Unlock()

	return snapshot(session), nil
}

// recordEnrollmentInProfile raises the aspirational level when the chosen
// program sits above the user's current one and appends to enrollment
// history.
func (e *Engine) recordEnrollmentInProfile(ctx context.Context, userID primitive.ObjectID, program *domain.Program, now time.Time) error {
	profile, err := e.loadProfileOrDefault(ctx, userID)
	if err != nil {
		return err
	}
	if program.Difficulty.LevelIndex() > profile.CurrentLevel.LevelIndex() {
		level := program.Difficulty
		profile.AspirationalLevel = &level
	}
	profile.EnrollmentHistory = append(profile.EnrollmentHistory, domain.EnrollmentHistoryEntry{
		ProgramID:  program.ID,
		EnrolledAt: now,
	})
	if err := e.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// sessionFor resolves a session the given user owns. A session belonging to
// someone else is indistinguishable from a missing one, so session IDs cannot
// be probed. Caller holds the lock.
func (e *Engine) sessionFor(sessionID string, userID primitive.ObjectID) (*domain.ActiveProgramSession, error) {
	session, ok := e.sessions[sessionID]
	if !ok || session.Enrollment.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// Pause suspends a session. The upcoming window is dropped immediately so a
// paused program never surfaces "due" workouts; it is regenerated on resume.
// The pause state is written through to the enrollment row so it survives a
// restart.
func (e *Engine) Pause(ctx context.Context, sessionID string, userID primitive.ObjectID, reason string) error {
	e.mu.Lock()
	session, err := e.sessionFor(sessionID, userID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	now := e.now()
	session.IsPaused = true
	session.PausedReason = reason
	session.PausedDate = &now
	session.Upcoming = nil
	session.Enrollment.IsPaused = true
	session.Enrollment.PausedReason = reason
	session.Enrollment.PausedAt = &now
	enr := session.Enrollment
	e.mu.Unlock()

	if err := e.enrollments.Update(ctx, &enr); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// Resume clears the pause state, recomputes the next workout date from "now"
// and regenerates the rolling window.
func (e *Engine) Resume(ctx context.Context, sessionID string, userID primitive.ObjectID) error {
	e.mu.Lock()
	session, err := e.sessionFor(sessionID, userID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	now := e.now()
	session.IsPaused = false
	session.PausedReason = ""
	session.PausedDate = nil
	session.Enrollment.IsPaused = false
	session.Enrollment.PausedReason = ""
	session.Enrollment.PausedAt = nil
	session.Enrollment.NextWorkoutDate = firstWorkoutDate(session.Schedule, now)
	session.Upcoming = GenerateWindow(session.ID, session.Enrollment, session.Program, session.Customization, now, e.policy.WindowWeeks)
	enr := session.Enrollment
	e.mu.Unlock()

	if err := e.enrollments.Update(ctx, &enr); err != nil {
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// CompleteProgram marks the enrollment completed through the store,
// snapshots the session with its achievements into history, updates the
// fitness profile (level raise, category completion, cooldown timestamp) and
// refreshes recommendations.
func (e *Engine) CompleteProgram(ctx context.Context, sessionID string, userID primitive.ObjectID) (*domain.CompletedProgramSession, error) {
	e.mu.Lock()
	session, err := e.sessionFor(sessionID, userID)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	now := e.now()
	if err := e.enrollments.MarkComplete(ctx, session.Enrollment.ID, now); err != nil {
		return nil, fmt.Errorf("mark enrollment complete: %w", err)
	}

	completed := domain.CompletedProgramSession{
		SessionID:    session.ID,
		ProgramID:    session.Program.ID,
		ProgramTitle: session.Program.Title,
		CompletedAt:  now,
		FinalMetrics: session.Metrics,
		Achievements: achievementsFor(session),
	}

	if err := e.recordCompletionInProfile(ctx, session, now); err != nil {
		return nil, err
	}

	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.history = append(e.history, completed)
	e.mu.Unlock()

	// Recommendations are recomputed eagerly so the next read reflects the
	// cooldown; the error is the caller's to see, not to roll back on.
	if _, err := e.GenerateRecommendations(ctx, session.Enrollment.UserID); err != nil {
		return &completed, err
	}
	return &completed, nil
}

func (e *Engine) recordCompletionInProfile(ctx context.Context, session *domain.ActiveProgramSession, now time.Time) error {
	profile, err := e.loadProfileOrDefault(ctx, session.Enrollment.UserID)
	if err != nil {
		return err
	}
	if session.Program.Difficulty.AtLeast(profile.CurrentLevel) {
		profile.CurrentLevel = session.Program.Difficulty
	}
	if !profile.HasCompletedCategory(session.Program.Category) {
		profile.CompletedCategories = append(profile.CompletedCategories, session.Program.Category)
	}
	profile.CompletedPrograms++
	for i := range profile.EnrollmentHistory {
		entry := &profile.EnrollmentHistory[i]
		if entry.ProgramID == session.Program.ID && entry.CompletedAt == nil {
			completedAt := now
			entry.CompletedAt = &completedAt
		}
	}
	if err := e.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// CancelEnrollment deletes the enrollment row and drops the session with no
// completion side effects on the profile.
func (e *Engine) CancelEnrollment(ctx context.Context, sessionID string, userID primitive.ObjectID) error {
	e.mu.Lock()
	session, err := e.sessionFor(sessionID, userID)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	if err := e.enrollments.Delete(ctx, session.Enrollment.ID); err != nil {
		return fmt.Errorf("delete enrollment: %w", err)
	}

	e.mu.Lock()
	delete(e.sessions, sessionID)
	e.mu.Unlock()
	return nil
}

// RecordWorkout appends the progress record, folds the workout into the
// session's running metrics, runs the adaptation analyzer, advances the next
// workout date past the completed day and regenerates the schedule window.
func (e *Engine) RecordWorkout(ctx context.Context, sessionID string, userID primitive.ObjectID, completed domain.CompletedWorkout) (*domain.ActiveProgramSession, error) {
	e.mu.Lock()
	session, err := e.sessionFor(sessionID, userID)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	record := &domain.ProgressRecord{
		UserID:        session.Enrollment.UserID,
		ProgramID:     session.Program.ID,
		WorkoutDate:   completed.WorkoutDate,
		WeekNumber:    completed.WeekNumber,
		WorkoutNumber: completed.WorkoutNumber,
		Weight:        completed.Weight,
		Distance:      completed.Distance,
		Duration:      completed.Duration,
		Completed:     true,
		Notes:         completed.Notes,
		AvgHeartRate:  completed.AvgHeartRate,
		AvgPace:       completed.AvgPace,
	}
	if _, err := e.records.Append(ctx, record); err != nil {
		return nil, fmt.Errorf("append progress record: %w", err)
	}

	e.mu.Lock()

	// Target lookup must precede regeneration: the completed entry is about
	// to leave the window.
	targetDuration := time.Duration(0)
	for _, w := range session.Upcoming {
		if w.WeekNumber == completed.WeekNumber && w.WorkoutNumber == completed.WorkoutNumber {
			targetDuration = w.TargetDuration
			break
		}
	}

	m := &session.Metrics
	m.TotalWorkouts++
	m.TotalDistance += completed.Distance
	m.TotalTime += completed.Duration
	m.AverageWeight = (m.AverageWeight*float64(m.TotalWorkouts-1) + completed.Weight) / float64(m.TotalWorkouts)
	m.ConsistencyScore = consistencyScore(m.TotalWorkouts)

	enr := &session.Enrollment
	totalPlanned := session.Program.DurationWeeks * session.Customization.WorkoutsPerWeek
	enr.CompletionPercentage = completionPercentage(m.TotalWorkouts, totalPlanned)
	enr.CurrentWeight = completed.Weight
	enr.CurrentWeek = weekForCompleted(m.TotalWorkouts, session.Customization.WorkoutsPerWeek, session.Program.DurationWeeks)
	enr.NextWorkoutDate = NextWorkoutDay(session.Schedule, completed.WorkoutDate)
	session.Phase = domain.PhaseForProgress(float64(enr.CurrentWeek) / float64(session.Program.DurationWeeks))

	now := e.now()
	session.Adaptations = append(session.Adaptations, AnalyzeWorkout(completed, targetDuration, now)...)

	session.Upcoming = GenerateWindow(session.ID, session.Enrollment, session.Program, session.Customization, now, e.policy.WindowWeeks)
	session.Upcoming = withoutWorkout(session.Upcoming, completed.WeekNumber, completed.WorkoutNumber)

	updated := snapshot(session)
	e.mu.Unlock()

	if err := e.enrollments.Update(ctx, &updated.Enrollment); err != nil {
		return nil, fmt.Errorf("update enrollment: %w", err)
	}
	return updated, nil
}

// GetSession returns a copy of one live session the user owns.
func (e *Engine) GetSession(sessionID string, userID primitive.ObjectID) (*domain.ActiveProgramSession, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	session, err := e.sessionFor(sessionID, userID)
	if err != nil {
		return nil, err
	}
	return snapshot(session), nil
}

// ActiveSessions lists the user's live sessions, stable by start date.
func (e *Engine) ActiveSessions(ctx context.Context, userID primitive.ObjectID) ([]domain.ActiveProgramSession, error) {
	if err := e.ensureRestored(ctx, userID); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var out []domain.ActiveProgramSession
	for _, s := range e.sessions {
		if s.Enrollment.UserID == userID {
			out = append(out, *snapshot(s))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Enrollment.StartDate.Before(out[j].Enrollment.StartDate)
	})
	return out, nil
}

// CompletedSessions lists the completion snapshots taken this process.
func (e *Engine) CompletedSessions() []domain.CompletedProgramSession {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.CompletedProgramSession(nil), e.history...)
}

// GetNextWorkout returns the earliest upcoming workout of a session, or
// ErrNoUpcomingWorkout when the window is empty (paused, or past the program
// end).
func (e *Engine) GetNextWorkout(sessionID string, userID primitive.ObjectID) (*domain.UpcomingWorkout, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	session, err := e.sessionFor(sessionID, userID)
	if err != nil {
		return nil, err
	}
	var next *domain.UpcomingWorkout
	for i := range session.Upcoming {
		w := session.Upcoming[i]
		if next == nil || w.ScheduledDate.Before(next.ScheduledDate) {
			next = &w
		}
	}
	if next == nil {
		return nil, ErrNoUpcomingWorkout
	}
	out := *next
	return &out, nil
}

// GetTodaysWorkouts returns every workout scheduled today across the user's
// non-paused sessions.
func (e *Engine) GetTodaysWorkouts(ctx context.Context, userID primitive.ObjectID) ([]domain.UpcomingWorkout, error) {
	if err := e.ensureRestored(ctx, userID); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	today := e.now()
	var out []domain.UpcomingWorkout
	for _, s := range e.sessions {
		if s.Enrollment.UserID != userID || s.IsPaused {
			continue
		}
		for _, w := range s.Upcoming {
			if sameDay(w.ScheduledDate, today) {
				out = append(out, w)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SessionID < out[j].SessionID })
	return out, nil
}

func consistencyScore(completedWorkouts int) float64 {
	// Placeholder formula carried from the product: strictly increasing in
	// the completed-workout count, asymptotic to 1.
	return float64(completedWorkouts) / float64(completedWorkouts+2)
}

func completionPercentage(completed, planned int) float64 {
	if planned <= 0 {
		return 0
	}
	pct := float64(completed) / float64(planned) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}

func weekForCompleted(completedWorkouts, perWeek, durationWeeks int) int {
	if perWeek <= 0 {
		return 1
	}
	week := completedWorkouts/perWeek + 1
	if week > durationWeeks {
		week = durationWeeks
	}
	return week
}

func firstWorkoutDate(schedule domain.WeeklySchedule, from time.Time) time.Time {
	day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	for i := 0; i <= 7; i++ {
		candidate := day.AddDate(0, 0, i)
		for _, wd := range schedule.WorkoutDays {
			if candidate.Weekday() == wd {
				return candidate
			}
		}
	}
	return day
}

func withoutWorkout(window []domain.UpcomingWorkout, week, number int) []domain.UpcomingWorkout {
	out := window[:0]
	for _, w := range window {
		if w.WeekNumber == week && w.WorkoutNumber == number {
			continue
		}
		out = append(out, w)
	}
	return out
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func achievementsFor(session *domain.ActiveProgramSession) []string {
	achievements := []string{fmt.Sprintf("Completed %s", session.Program.Title)}
	if session.Metrics.ConsistencyScore >= 0.8 {
		achievements = append(achievements, "Consistency streak")
	}
	if session.Metrics.TotalDistance >= 100 {
		achievements = append(achievements, "100-mile club")
	}
	if session.Program.Difficulty == domain.DifficultyElite {
		achievements = append(achievements, "Elite finisher")
	}
	return achievements
}

func metricsFromRecords(records []domain.ProgressRecord) domain.ProgressMetrics {
	var m domain.ProgressMetrics
	var weightSum float64
	for _, r := range records {
		if !r.Completed {
			continue
		}
		m.TotalWorkouts++
		m.TotalDistance += r.Distance
		m.TotalTime += r.Duration
		weightSum += r.Weight
	}
	if m.TotalWorkouts > 0 {
		m.AverageWeight = weightSum / float64(m.TotalWorkouts)
	}
	m.ConsistencyScore = consistencyScore(m.TotalWorkouts)
	return m
}

func snapshot(s *domain.ActiveProgramSession) *domain.ActiveProgramSession {
	out := *s
	out.Adaptations = append([]domain.ProgramAdaptation(nil), s.Adaptations...)
	out.Upcoming = append([]domain.UpcomingWorkout(nil), s.Upcoming...)
	return &out
}
