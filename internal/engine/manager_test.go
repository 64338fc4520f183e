package engine

import (
	"context"
	"testing"
	"time"

	"peakform/training-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func mustEnroll(t *testing.T, te *testEngine, userID primitive.ObjectID, programID primitive.ObjectID, weight float64) *domain.ActiveProgramSession {
	t.Helper()
	session, err := te.Enroll(context.Background(), userID, programID, weight, nil, te.now)
	require.NoError(t, err)
	return session
}

func TestEnroll_WeightBounds(t *testing.T) {
	prog := testProgram(domain.DifficultyIntermediate, 8)
	te := newTestEngine(prog)
	userID := primitive.NewObjectID()
	programID := te.programs.programs[0].ID

	_, err := te.Enroll(context.Background(), userID, programID, 9.99, nil, te.now)
	assert.ErrorIs(t, err, ErrInvalidWeight)

	_, err = te.Enroll(context.Background(), userID, programID, 200.01, nil, te.now)
	assert.ErrorIs(t, err, ErrInvalidWeight)

	// Both bounds are inclusive.
	s, err := te.Enroll(context.Background(), userID, programID, 10, nil, te.now)
	require.NoError(t, err)
	require.NoError(t, te.CancelEnrollment(context.Background(), s.ID, userID))

	_, err = te.Enroll(context.Background(), userID, programID, 200, nil, te.now)
	assert.NoError(t, err)
}

func TestEnroll_DuplicateProgram(t *testing.T) {
	prog := testProgram(domain.DifficultyIntermediate, 8)
	te := newTestEngine(prog)
	userID := primitive.NewObjectID()
	programID := te.programs.programs[0].ID

	mustEnroll(t, te, userID, programID, 40)

	_, err := te.Enroll(context.Background(), userID, programID, 40, nil, te.now)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestEnroll_DuplicateRejectedAfterRestart(t *testing.T) {
	prog := testProgram(domain.DifficultyIntermediate, 8)
	te := newTestEngine(prog)
	userID := primitive.NewObjectID()
	programID := te.programs.programs[0].ID

	mustEnroll(t, te, userID, programID, 40)

	// A fresh process sees the durable row before the duplicate check runs.
	fresh := restartEngine(te)
	_, err := fresh.Enroll(context.Background(), userID, programID, 40, nil, fresh.now)
	assert.ErrorIs(t, err, ErrAlreadyEnrolled)

	rows, err := te.enrollments.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "one live row per active program per user")
}

func TestEnroll_ActiveProgramCap(t *testing.T) {
	te := newTestEngine(
		testProgram(domain.DifficultyBeginner, 8),
		testProgram(domain.DifficultyIntermediate, 8),
		testProgram(domain.DifficultyAdvanced, 8),
	)
	userID := primitive.NewObjectID()

	first := mustEnroll(t, te, userID, te.programs.programs[0].ID, 30)
	mustEnroll(t, te, userID, te.programs.programs[1].ID, 30)

	_, err := te.Enroll(context.Background(), userID, te.programs.programs[2].ID, 30, nil, te.now)
	assert.ErrorIs(t, err, ErrTooManyActivePrograms)

	// Paused sessions do not count toward the cap.
	require.NoError(t, te.Pause(context.Background(), first.ID, userID, "travel"))
	_, err = te.Enroll(context.Background(), userID, te.programs.programs[2].ID, 30, nil, te.now)
	assert.NoError(t, err)
}

func TestSessionInvariants_AfterLifecycleSequence(t *testing.T) {
	te := newTestEngine(
		testProgram(domain.DifficultyBeginner, 8),
		testProgram(domain.DifficultyIntermediate, 8),
		testProgram(domain.DifficultyAdvanced, 8),
	)
	userID := primitive.NewObjectID()

	a := mustEnroll(t, te, userID, te.programs.programs[0].ID, 30)
	mustEnroll(t, te, userID, te.programs.programs[1].ID, 30)
	require.NoError(t, te.Pause(context.Background(), a.ID, userID, "rest"))
	c := mustEnroll(t, te, userID, te.programs.programs[2].ID, 30)
	require.NoError(t, te.Resume(context.Background(), a.ID, userID))
	_, err := te.CompleteProgram(context.Background(), c.ID, userID)
	require.NoError(t, err)

	sessions, err := te.ActiveSessions(context.Background(), userID)
	require.NoError(t, err)
	seen := make(map[primitive.ObjectID]bool)
	activeCount := 0
	for _, s := range sessions {
		assert.False(t, seen[s.Program.ID], "no two sessions may share a program")
		seen[s.Program.ID] = true
		if !s.IsPaused {
			activeCount++
		}
	}
	assert.LessOrEqual(t, activeCount, te.policy.MaxActivePrograms)
}

func TestEnroll_BuildsSessionAndProfile(t *testing.T) {
	prog := testProgram(domain.DifficultyAdvanced, 8)
	te := newTestEngine(prog)
	userID := primitive.NewObjectID()

	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	assert.Equal(t, domain.PhaseFoundation, session.Phase)
	assert.Equal(t, 4, session.Customization.WorkoutsPerWeek)
	assert.Len(t, session.Upcoming, 8)
	for _, w := range session.Upcoming {
		assert.NotEqual(t, time.Sunday, w.ScheduledDate.Weekday())
	}

	// Advanced program above a beginner's level raises the aspirational bar.
	profile, err := te.profiles.Load(context.Background(), userID)
	require.NoError(t, err)
	require.NotNil(t, profile.AspirationalLevel)
	assert.Equal(t, domain.DifficultyAdvanced, *profile.AspirationalLevel)
	require.Len(t, profile.EnrollmentHistory, 1)
	assert.Nil(t, profile.EnrollmentHistory[0].CompletedAt)
}

func TestPause_DropsUpcomingWindow(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)
	require.NotEmpty(t, session.Upcoming)

	require.NoError(t, te.Pause(context.Background(), session.ID, userID, "injury"))

	paused, err := te.GetSession(session.ID, userID)
	require.NoError(t, err)
	assert.True(t, paused.IsPaused)
	assert.Equal(t, "injury", paused.PausedReason)
	assert.Empty(t, paused.Upcoming, "a paused program must not surface due workouts")

	today, err := te.GetTodaysWorkouts(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, today)
}

func TestPause_SurvivesRestart(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	require.NoError(t, te.Pause(context.Background(), session.ID, userID, "injury"))

	fresh := restartEngine(te)
	restored, err := fresh.ActiveSessions(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.True(t, restored[0].IsPaused)
	assert.Equal(t, "injury", restored[0].PausedReason)
	assert.NotNil(t, restored[0].PausedDate)
	assert.Empty(t, restored[0].Upcoming)
}

func TestResume_RegeneratesWindow(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	require.NoError(t, te.Pause(context.Background(), session.ID, userID, "travel"))
	require.NoError(t, te.Resume(context.Background(), session.ID, userID))

	resumed, err := te.GetSession(session.ID, userID)
	require.NoError(t, err)
	assert.False(t, resumed.IsPaused)
	assert.Empty(t, resumed.PausedReason)
	assert.Nil(t, resumed.PausedDate)
	assert.NotEmpty(t, resumed.Upcoming)
	assert.False(t, resumed.Enrollment.IsPaused, "pause flag must clear on the durable row too")
	assert.False(t, resumed.Enrollment.NextWorkoutDate.Before(startOfWeek(te.now)))
}

func TestSessionOperations_RequireOwnership(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	owner := primitive.NewObjectID()
	intruder := primitive.NewObjectID()
	session := mustEnroll(t, te, owner, te.programs.programs[0].ID, 40)

	ctx := context.Background()
	workout := domain.CompletedWorkout{
		WorkoutDate: te.now, WeekNumber: 1, WorkoutNumber: 1,
		Weight: 40, Distance: 2, Duration: 30 * time.Minute,
	}

	assert.ErrorIs(t, te.Pause(ctx, session.ID, intruder, "hijack"), ErrSessionNotFound)
	assert.ErrorIs(t, te.Resume(ctx, session.ID, intruder), ErrSessionNotFound)
	_, err := te.CompleteProgram(ctx, session.ID, intruder)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, te.CancelEnrollment(ctx, session.ID, intruder), ErrSessionNotFound)
	_, err = te.RecordWorkout(ctx, session.ID, intruder, workout)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = te.GetSession(session.ID, intruder)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = te.GetNextWorkout(session.ID, intruder)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// No record was attributed to the owner, and the session is untouched.
	records, err := te.records.GetByUserID(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, records)
	got, err := te.GetSession(session.ID, owner)
	require.NoError(t, err)
	assert.False(t, got.IsPaused)
}

func TestRecordWorkout_MetricsAndMonotonicCompletion(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	lastPct := 0.0
	for i := 0; i < 5; i++ {
		updated, err := te.RecordWorkout(context.Background(), session.ID, userID, domain.CompletedWorkout{
			WorkoutDate:   te.now.AddDate(0, 0, i),
			WeekNumber:    i/3 + 1,
			WorkoutNumber: i%3 + 1,
			Weight:        40 + float64(i),
			Distance:      2,
			Duration:      28 * time.Minute,
		})
		require.NoError(t, err)
		assert.GreaterOrEqual(t, updated.Enrollment.CompletionPercentage, lastPct,
			"completion percentage must never decrease")
		lastPct = updated.Enrollment.CompletionPercentage
		assert.Equal(t, i+1, updated.Metrics.TotalWorkouts)
	}

	final, err := te.GetSession(session.ID, userID)
	require.NoError(t, err)
	assert.InDelta(t, 42.0, final.Metrics.AverageWeight, 1e-9) // mean of 40..44
	assert.InDelta(t, 10.0, final.Metrics.TotalDistance, 1e-9)
	assert.InDelta(t, 5.0/7.0, final.Metrics.ConsistencyScore, 1e-9)
}

func TestRecordWorkout_RoundTripThroughStore(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	completed := domain.CompletedWorkout{
		WorkoutDate:   te.now,
		WeekNumber:    1,
		WorkoutNumber: 2,
		Weight:        41.5,
		Distance:      2.2,
		Duration:      31 * time.Minute,
	}
	_, err := te.RecordWorkout(context.Background(), session.ID, userID, completed)
	require.NoError(t, err)

	records, err := te.records.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, completed.WeekNumber, records[0].WeekNumber)
	assert.Equal(t, completed.WorkoutNumber, records[0].WorkoutNumber)
	assert.Equal(t, completed.Weight, records[0].Weight)
	assert.Equal(t, completed.Distance, records[0].Distance)
	assert.Equal(t, completed.Duration, records[0].Duration)
	assert.True(t, records[0].Completed)
}

func TestRecordWorkout_FastFinishAppendsAdaptation(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	// Week 1 target is 30 minutes; finishing in 20 is below the 0.8x line.
	updated, err := te.RecordWorkout(context.Background(), session.ID, userID, domain.CompletedWorkout{
		WorkoutDate:   te.now,
		WeekNumber:    1,
		WorkoutNumber: 1,
		Weight:        40,
		Distance:      2,
		Duration:      20 * time.Minute,
	})
	require.NoError(t, err)

	require.Len(t, updated.Adaptations, 1)
	assert.Equal(t, domain.AdaptIncreaseIntensity, updated.Adaptations[0].Type)
	assert.InDelta(t, 0.8, updated.Adaptations[0].Confidence, 1e-9)

	// The completed slot left the window.
	for _, w := range updated.Upcoming {
		assert.False(t, w.WeekNumber == 1 && w.WorkoutNumber == 1)
	}
}

func TestRecordWorkout_AdvancesNextWorkoutDate(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	updated, err := te.RecordWorkout(context.Background(), session.ID, userID, domain.CompletedWorkout{
		WorkoutDate:   te.now, // Monday
		WeekNumber:    1,
		WorkoutNumber: 1,
		Weight:        40,
		Distance:      2,
		Duration:      30 * time.Minute,
	})
	require.NoError(t, err)
	assert.True(t, updated.Enrollment.NextWorkoutDate.After(
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)),
		"next workout date must be strictly after the completed day")
}

func TestRecordWorkout_UnknownSession(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	_, err := te.RecordWorkout(context.Background(), "nope", primitive.NewObjectID(), domain.CompletedWorkout{})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCompleteProgram_UpdatesProfileAndCooldown(t *testing.T) {
	military := testProgram(domain.DifficultyIntermediate, 8)
	military.Category = domain.CategoryMilitary
	rival := testProgram(domain.DifficultyIntermediate, 8)
	rival.Category = domain.CategoryFitness
	te := newTestEngine(military, rival)
	userID := primitive.NewObjectID()
	militaryID := te.programs.programs[0].ID

	session := mustEnroll(t, te, userID, militaryID, 40)
	completed, err := te.CompleteProgram(context.Background(), session.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, militaryID, completed.ProgramID)
	assert.NotEmpty(t, completed.Achievements)

	profile, err := te.profiles.Load(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, domain.DifficultyIntermediate, profile.CurrentLevel)
	assert.Contains(t, profile.CompletedCategories, domain.CategoryMilitary)
	assert.Equal(t, 1, profile.CompletedPrograms)

	// Within the 30-day cooldown the finished program never reappears, even
	// though it would outscore the alternative.
	profile.Goals = []domain.FitnessGoal{domain.GoalMilitaryPreparation}
	require.NoError(t, te.profiles.Save(context.Background(), profile))

	te.now = te.now.Add(10 * 24 * time.Hour)
	recs, err := te.GenerateRecommendations(context.Background(), userID)
	require.NoError(t, err)
	for _, r := range recs {
		assert.NotEqual(t, militaryID, r.Program.ID)
	}

	// After the cooldown it is eligible again.
	te.now = te.now.Add(25 * 24 * time.Hour)
	recs, err = te.GenerateRecommendations(context.Background(), userID)
	require.NoError(t, err)
	found := false
	for _, r := range recs {
		if r.Program.ID == militaryID {
			found = true
		}
	}
	assert.True(t, found)
}

func TestCompleteProgram_UnknownSession(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	_, err := te.CompleteProgram(context.Background(), "missing", primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestGenerateRecommendations_FeaturedFallbackWithoutProfile(t *testing.T) {
	featured := testProgram(domain.DifficultyBeginner, 6)
	featured.IsFeatured = true
	plain := testProgram(domain.DifficultyBeginner, 6)
	te := newTestEngine(featured, plain)

	recs, err := te.GenerateRecommendations(context.Background(), primitive.NewObjectID())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Program.IsFeatured)
}

func TestGenerateRecommendations_ExcludesEnrolled(t *testing.T) {
	te := newTestEngine(
		testProgram(domain.DifficultyIntermediate, 8),
		testProgram(domain.DifficultyIntermediate, 6),
	)
	userID := primitive.NewObjectID()
	enrolledID := te.programs.programs[0].ID
	mustEnroll(t, te, userID, enrolledID, 40)

	recs, err := te.GenerateRecommendations(context.Background(), userID)
	require.NoError(t, err)
	for _, r := range recs {
		assert.NotEqual(t, enrolledID, r.Program.ID)
	}
}

func TestCancelEnrollment_RemovesRow(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	require.NoError(t, te.CancelEnrollment(context.Background(), session.ID, userID))

	sessions, err := te.ActiveSessions(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	rows, err := te.enrollments.GetByUserID(context.Background(), userID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestGetNextWorkout(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	next, err := te.GetNextWorkout(session.ID, userID)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 1, next.WeekNumber)
	assert.Equal(t, 1, next.WorkoutNumber)
}

func TestGetNextWorkout_EmptyWindow(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	// Pausing drops the window; the empty state is an explicit error, not a
	// silent nil.
	require.NoError(t, te.Pause(context.Background(), session.ID, userID, "rest"))
	_, err := te.GetNextWorkout(session.ID, userID)
	assert.ErrorIs(t, err, ErrNoUpcomingWorkout)
}

func TestGetTodaysWorkouts(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	// Frozen "now" is Monday, a default workout day.
	today, err := te.GetTodaysWorkouts(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, today, 1)
	assert.Equal(t, time.Monday, today[0].ScheduledDate.Weekday())
}

func TestActiveSessions_RestoreAfterRestart(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	session := mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	_, err := te.RecordWorkout(context.Background(), session.ID, userID, domain.CompletedWorkout{
		WorkoutDate:   te.now,
		WeekNumber:    1,
		WorkoutNumber: 1,
		Weight:        40,
		Distance:      2,
		Duration:      30 * time.Minute,
	})
	require.NoError(t, err)

	// A fresh process lazily restores from the stores on first contact.
	fresh := restartEngine(te)
	restored, err := fresh.ActiveSessions(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, restored, 1)
	assert.Equal(t, 1, restored[0].Metrics.TotalWorkouts)
	assert.NotEmpty(t, restored[0].Upcoming)
}

func TestNotifyChange_FansOutAfterRecompute(t *testing.T) {
	te := newTestEngine(testProgram(domain.DifficultyIntermediate, 8))
	userID := primitive.NewObjectID()
	mustEnroll(t, te, userID, te.programs.programs[0].ID, 40)

	var got []ChangeKind
	te.Subscribe(func(kind ChangeKind) { got = append(got, kind) })

	require.NoError(t, te.NotifyChange(context.Background(), ChangeProgress))
	assert.Equal(t, []ChangeKind{ChangeProgress}, got)
	sessions, err := te.ActiveSessions(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
}
