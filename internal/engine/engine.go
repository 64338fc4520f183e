// Package engine implements the adaptive training-program engine: session
// lifecycle, rolling schedule generation, performance adaptations and
// catalog recommendations. It is a library component; persistence and the
// HTTP surface are collaborators injected at construction.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"peakform/training-engine/internal/domain"
	"peakform/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Policy carries the tunable engine parameters. The defaults mirror the
// product rules (two concurrent programs, 30-day re-recommendation cooldown,
// two-week schedule window).
type Policy struct {
	MaxActivePrograms      int
	RecommendationCooldown time.Duration
	WindowWeeks            int
	RecommendationLimit    int
	FeaturedFallbackLimit  int
}

// DefaultPolicy returns the standard policy values.
func DefaultPolicy() Policy {
	return Policy{
		MaxActivePrograms:      2,
		RecommendationCooldown: 30 * 24 * time.Hour,
		WindowWeeks:            2,
		RecommendationLimit:    5,
		FeaturedFallbackLimit:  3,
	}
}

// ChangeKind identifies which external collection changed.
type ChangeKind string

const (
	ChangeCatalog     ChangeKind = "catalog"
	ChangeEnrollments ChangeKind = "enrollments"
	ChangeProgress    ChangeKind = "progress"
)

// Engine is the single-owner state machine over active program sessions.
// Construct one per process with New and pass it by reference; all mutations
// of in-memory state serialize through one mutex so there is exactly one
// logical writer.
type Engine struct {
	programs    repository.ProgramRepository
	enrollments repository.EnrollmentRepository
	records     repository.ProgressRecordRepository
	profiles    repository.ProfileRepository
	policy      Policy

	mu          sync.Mutex
	sessions    map[string]*domain.ActiveProgramSession
	restored    map[primitive.ObjectID]struct{}
	history     []domain.CompletedProgramSession
	subscribers []func(ChangeKind)

	now func() time.Time // overridable in tests
}

// New constructs the engine around its store collaborators.
func New(
	programs repository.ProgramRepository,
	enrollments repository.EnrollmentRepository,
	records repository.ProgressRecordRepository,
	profiles repository.ProfileRepository,
	policy Policy,
) *Engine {
	if policy.MaxActivePrograms <= 0 {
		policy = DefaultPolicy()
	}
	return &Engine{
		programs:    programs,
		enrollments: enrollments,
		records:     records,
		profiles:    profiles,
		policy:      policy,
		sessions:    make(map[string]*domain.ActiveProgramSession),
		restored:    make(map[primitive.ObjectID]struct{}),
		now:         time.Now,
	}
}

// Subscribe registers a callback invoked after the engine has reacted to an
// external change notification. Registration is not concurrency-safe after
// the engine starts serving; register during wiring.
func (e *Engine) Subscribe(fn func(ChangeKind)) {
	e.subscribers = append(e.subscribers, fn)
}

// NotifyChange tells the engine one of the three external collections
// changed. The engine recomputes every live session projection from the
// stores rather than patching incrementally, then fans the notification out
// to subscribers.
func (e *Engine) NotifyChange(ctx context.Context, kind ChangeKind) error {
	e.mu.Lock()
	users := make(map[primitive.ObjectID]bool)
	for _, s := range e.sessions {
		users[s.Enrollment.UserID] = true
	}
	e.mu.Unlock()

	for userID := range users {
		if err := e.RestoreSessions(ctx, userID); err != nil {
			return err
		}
	}

	for _, fn := range e.subscribers {
		fn(kind)
	}
	return nil
}

// RestoreSessions rebuilds the in-memory projections for a user from the
// durable stores: active enrollments plus their progress records. Used at
// first contact with a user after process start and on external-change
// notifications.
func (e *Engine) RestoreSessions(ctx context.Context, userID primitive.ObjectID) error {
	enrollments, err := e.enrollments.GetByUserID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load enrollments: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Drop this user's stale projections; completed/cancelled rows must not
	// resurface as sessions.
	for id, s := range e.sessions {
		if s.Enrollment.UserID == userID {
			delete(e.sessions, id)
		}
	}

	now := e.now()
	for _, enr := range enrollments {
		if !enr.IsActive || enr.IsCompleted() {
			continue
		}
		program, err := e.programs.GetByID(ctx, enr.ProgramID)
		if err != nil {
			return fmt.Errorf("load program %s: %w", enr.ProgramID.Hex(), err)
		}

		records, err := e.records.GetByUserAndProgram(ctx, userID, enr.ProgramID)
		if err != nil {
			return fmt.Errorf("load progress records: %w", err)
		}

		session := e.buildSession(enr, *program, DefaultCustomization(program.Difficulty), now)
		session.Metrics = metricsFromRecords(records)
		if enr.IsPaused {
			session.IsPaused = true
			session.PausedReason = enr.PausedReason
			session.PausedDate = enr.PausedAt
		} else {
			session.Upcoming = GenerateWindow(session.ID, session.Enrollment, session.Program, session.Customization, now, e.policy.WindowWeeks)
		}
		e.sessions[session.ID] = session
	}
	e.restored[userID] = struct{}{}
	return nil
}

// ensureRestored lazily rebuilds a user's projections from the stores the
// first time the process touches that user. Every session operation calls it
// before evaluating preconditions, so durable enrollments survive restarts.
func (e *Engine) ensureRestored(ctx context.Context, userID primitive.ObjectID) error {
	e.mu.Lock()
	_, done := e.restored[userID]
	e.mu.Unlock()
	if done {
		return nil
	}
	return e.RestoreSessions(ctx, userID)
}

// buildSession assembles the projection for one enrollment. Caller holds the
// lock (or the session is not yet published).
func (e *Engine) buildSession(enr domain.Enrollment, program domain.Program, cust domain.Customization, now time.Time) *domain.ActiveProgramSession {
	ratio := float64(enr.CurrentWeek) / float64(program.DurationWeeks)
	return &domain.ActiveProgramSession{
		ID:            newSessionID(),
		Enrollment:    enr,
		Program:       program,
		Customization: cust,
		Schedule:      BuildWeeklySchedule(cust),
		Phase:         domain.PhaseForProgress(ratio),
		Metrics:       domain.ProgressMetrics{},
	}
}

// loadProfileOrDefault fetches the user's profile, falling back to the
// bootstrap default when none exists yet. Only genuine store failures
// propagate.
func (e *Engine) loadProfileOrDefault(ctx context.Context, userID primitive.ObjectID) (*domain.UserFitnessProfile, error) {
	profile, err := e.profiles.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.DefaultProfile(userID), nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}
	return profile, nil
}

// GenerateRecommendations scores the catalog against the user's fitness
// profile and returns the ranked shortlist. Actively-enrolled programs and
// programs completed within the cooldown are excluded. Without a profile it
// falls back to up to three featured programs, unscored.
func (e *Engine) GenerateRecommendations(ctx context.Context, userID primitive.ObjectID) ([]ScoredProgram, error) {
	if err := e.ensureRestored(ctx, userID); err != nil {
		return nil, err
	}

	catalog, err := e.programs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}

	profile, err := e.profiles.Load(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return FeaturedFallback(catalog, e.policy.FeaturedFallbackLimit), nil
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	now := e.now()

	e.mu.Lock()
	enrolled := make(map[primitive.ObjectID]bool)
	for _, s := range e.sessions {
		if s.Enrollment.UserID == userID {
			enrolled[s.Program.ID] = true
		}
	}
	e.mu.Unlock()

	cooled := make(map[primitive.ObjectID]bool)
	for _, entry := range profile.EnrollmentHistory {
		if entry.CompletedAt != nil && now.Sub(*entry.CompletedAt) < e.policy.RecommendationCooldown {
			cooled[entry.ProgramID] = true
		}
	}

	excluded := func(p domain.Program) bool {
		return enrolled[p.ID] || cooled[p.ID]
	}
	return RankPrograms(catalog, profile, excluded, e.policy.RecommendationLimit), nil
}
