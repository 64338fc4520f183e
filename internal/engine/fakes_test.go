package engine

import (
	"context"
	"time"

	"peakform/training-engine/internal/domain"
	"peakform/training-engine/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory store fakes. They honor the repository contracts the engine
// relies on: enrollment rows are durably visible after Create, progress
// records are append-only, profile saves are last-write-wins.

type fakeProgramRepo struct {
	programs []domain.Program
}

func (f *fakeProgramRepo) Create(_ context.Context, p *domain.Program) (primitive.ObjectID, error) {
	p.ID = primitive.NewObjectID()
	f.programs = append(f.programs, *p)
	return p.ID, nil
}

func (f *fakeProgramRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Program, error) {
	for i := range f.programs {
		if f.programs[i].ID == id {
			p := f.programs[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProgramRepo) List(_ context.Context) ([]domain.Program, error) {
	return append([]domain.Program(nil), f.programs...), nil
}

func (f *fakeProgramRepo) SetMediaKey(_ context.Context, id primitive.ObjectID, key string) error {
	for i := range f.programs {
		if f.programs[i].ID == id {
			f.programs[i].MediaKey = key
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeEnrollmentRepo struct {
	rows map[primitive.ObjectID]domain.Enrollment
}

func newFakeEnrollmentRepo() *fakeEnrollmentRepo {
	return &fakeEnrollmentRepo{rows: make(map[primitive.ObjectID]domain.Enrollment)}
}

func (f *fakeEnrollmentRepo) Create(_ context.Context, e *domain.Enrollment) (primitive.ObjectID, error) {
	e.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	f.rows[e.ID] = *e
	return e.ID, nil
}

func (f *fakeEnrollmentRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Enrollment, error) {
	row, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (f *fakeEnrollmentRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.Enrollment, error) {
	var out []domain.Enrollment
	for _, row := range f.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeEnrollmentRepo) Update(_ context.Context, e *domain.Enrollment) error {
	if _, ok := f.rows[e.ID]; !ok {
		return repository.ErrNotFound
	}
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeEnrollmentRepo) MarkComplete(_ context.Context, id primitive.ObjectID, completedAt time.Time) error {
	row, ok := f.rows[id]
	if !ok {
		return repository.ErrNotFound
	}
	row.CompletedAt = &completedAt
	row.IsActive = false
	row.CompletionPercentage = 100
	f.rows[id] = row
	return nil
}

func (f *fakeEnrollmentRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	if _, ok := f.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.rows, id)
	return nil
}

type fakeProgressRepo struct {
	records []domain.ProgressRecord
}

func (f *fakeProgressRepo) Append(_ context.Context, r *domain.ProgressRecord) (primitive.ObjectID, error) {
	r.ID = primitive.NewObjectID()
	r.CreatedAt = time.Now().UTC()
	f.records = append(f.records, *r)
	return r.ID, nil
}

func (f *fakeProgressRepo) GetByUserID(_ context.Context, userID primitive.ObjectID) ([]domain.ProgressRecord, error) {
	var out []domain.ProgressRecord
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeProgressRepo) GetByUserAndProgram(_ context.Context, userID, programID primitive.ObjectID) ([]domain.ProgressRecord, error) {
	var out []domain.ProgressRecord
	for _, r := range f.records {
		if r.UserID == userID && r.ProgramID == programID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeProfileRepo struct {
	profiles map[primitive.ObjectID]domain.UserFitnessProfile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[primitive.ObjectID]domain.UserFitnessProfile)}
}

func (f *fakeProfileRepo) Load(_ context.Context, userID primitive.ObjectID) (*domain.UserFitnessProfile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProfileRepo) Save(_ context.Context, p *domain.UserFitnessProfile) error {
	f.profiles[p.UserID] = *p
	return nil
}

// testEngine bundles the engine with its fakes and a frozen clock.
type testEngine struct {
	*Engine
	programs    *fakeProgramRepo
	enrollments *fakeEnrollmentRepo
	records     *fakeProgressRepo
	profiles    *fakeProfileRepo
	now         time.Time
}

// newTestEngine builds an engine over fakes with "now" frozen at Monday,
// June 2, 2025 (the week's Sunday anchor is June 1).
func newTestEngine(programs ...domain.Program) *testEngine {
	programRepo := &fakeProgramRepo{}
	for i := range programs {
		if programs[i].ID == primitive.NilObjectID {
			programs[i].ID = primitive.NewObjectID()
		}
		programRepo.programs = append(programRepo.programs, programs[i])
	}

	te := &testEngine{
		programs:    programRepo,
		enrollments: newFakeEnrollmentRepo(),
		records:     &fakeProgressRepo{},
		profiles:    newFakeProfileRepo(),
		now:         time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC),
	}
	te.Engine = New(te.programs, te.enrollments, te.records, te.profiles, DefaultPolicy())
	te.Engine.now = func() time.Time { return te.now }
	return te
}

// restartEngine builds a fresh engine over the same stores, as after a
// process restart: all in-memory session state is gone, the durable rows
// remain.
func restartEngine(te *testEngine) *testEngine {
	fresh := &testEngine{
		programs:    te.programs,
		enrollments: te.enrollments,
		records:     te.records,
		profiles:    te.profiles,
		now:         te.now,
	}
	fresh.Engine = New(te.programs, te.enrollments, te.records, te.profiles, DefaultPolicy())
	fresh.Engine.now = func() time.Time { return fresh.now }
	return fresh
}
