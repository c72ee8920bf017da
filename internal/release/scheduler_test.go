package release

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/lshigami/pblagro/internal/testutil"
	"gorm.io/gorm"
)

type recordingNotifier struct {
	cohorts []string
}

func (n *recordingNotifier) ContentReleased(cohort string, _ *model.ScheduleEntry) {
	n.cohorts = append(n.cohorts, cohort)
}

type fixture struct {
	db         *gorm.DB
	scheduler  *Scheduler
	schedules  repository.ScheduleRepository
	challenges repository.ChallengeRepository
	notifier   *recordingNotifier
	module     model.ContentUnit
	lesson     model.ContentUnit
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	f := &fixture{
		db:         db,
		schedules:  repository.NewScheduleRepository(db),
		challenges: repository.NewChallengeRepository(db),
		notifier:   &recordingNotifier{},
	}
	f.scheduler = NewScheduler(f.schedules, repository.NewLearnerRepository(db), f.challenges, time.UTC, f.notifier)

	f.module = testutil.SeedContent(t, db, model.ContentUnit{Module: "Gestão", Active: true})
	f.lesson = testutil.SeedContent(t, db, model.ContentUnit{Module: "Gestão", Lesson: "Aula 1", Active: true, Position: 1})

	testutil.SeedLearner(t, db, model.Learner{NationalID: "111", Cohort: "A"})
	testutil.SeedLearner(t, db, model.Learner{NationalID: "222", Cohort: "A"})
	testutil.SeedLearner(t, db, model.Learner{NationalID: "333", Cohort: "B"})

	for _, id := range []string{"111", "222", "333"} {
		f.seedChallenge(t, id, f.module.ID, model.KindModule)
		f.seedChallenge(t, id, f.lesson.ID, model.KindLesson)
	}
	return f
}

func (f *fixture) seedChallenge(t *testing.T, learnerID string, unitID uint, kind model.ChallengeKind) {
	t.Helper()
	c := &model.Challenge{LearnerID: learnerID, ContentUnitID: unitID, Kind: kind, Text: "narrativa"}
	if err := f.challenges.Create(context.Background(), c); err != nil {
		t.Fatalf("seed challenge: %v", err)
	}
}

func (f *fixture) released(t *testing.T, learnerID string, unitID uint, kind model.ChallengeKind) bool {
	t.Helper()
	c, err := f.challenges.FindOne(context.Background(), learnerID, unitID, kind)
	if err != nil {
		t.Fatalf("find challenge: %v", err)
	}
	return c.ReleasedToLearner
}

func (f *fixture) snapshot(t *testing.T) map[string]bool {
	t.Helper()
	var rows []model.Challenge
	if err := f.db.Order("learner_id").Order("kind").Find(&rows).Error; err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	out := make(map[string]bool, len(rows))
	for _, r := range rows {
		out[r.LearnerID+"/"+string(r.Kind)] = r.ReleasedToLearner
	}
	return out
}

func TestForceRelease_ModuleEntryLeavesLessonsUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := &model.ScheduleEntry{
		ContentUnitID: f.module.ID, Module: "Gestão", Kind: model.KindModule,
		Cohorts: []string{"A"}, ReleaseDate: "2099-01-01", ReleaseTime: "08:00",
	}
	if err := f.schedules.Create(ctx, entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	got, err := f.scheduler.ForceRelease(ctx, entry.ID)
	if err != nil {
		t.Fatalf("force release: %v", err)
	}
	if !got.Released {
		t.Fatal("entry must be marked released")
	}

	for _, id := range []string{"111", "222"} {
		if !f.released(t, id, f.module.ID, model.KindModule) {
			t.Fatalf("module challenge of %s must be released", id)
		}
		if f.released(t, id, f.lesson.ID, model.KindLesson) {
			t.Fatalf("lesson challenge of %s must stay hidden", id)
		}
	}
	if f.released(t, "333", f.module.ID, model.KindModule) {
		t.Fatal("learner outside targeted cohorts must not be touched")
	}
	if len(f.notifier.cohorts) != 1 || f.notifier.cohorts[0] != "A" {
		t.Fatalf("expected one notification for cohort A, got %v", f.notifier.cohorts)
	}

	stored, _ := f.schedules.FindByID(ctx, entry.ID)
	if !stored.Released {
		t.Fatal("stored entry must be released")
	}
}

func TestApply_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entry := &model.ScheduleEntry{
		ContentUnitID: f.lesson.ID, Kind: model.KindLesson,
		Cohorts: []string{"A", "B"}, ReleaseDate: "2025-01-10", ReleaseTime: "08:00",
	}
	if err := f.schedules.Create(ctx, entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	if _, err := f.scheduler.Apply(ctx, entry); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	once := f.snapshot(t)

	if _, err := f.scheduler.Apply(ctx, entry); err != nil {
		t.Fatalf("second apply: %v", err)
	}
	twice := f.snapshot(t)

	if len(once) != len(twice) {
		t.Fatalf("row count changed: %d vs %d", len(once), len(twice))
	}
	for k, v := range once {
		if twice[k] != v {
			t.Fatalf("state of %s changed on reapply", k)
		}
	}
	if len(f.notifier.cohorts) != 2 {
		t.Fatalf("reapply must not notify again, got %v", f.notifier.cohorts)
	}
}

func TestSweep_ReleasesDueAndSkipsMalformed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	due := &model.ScheduleEntry{ContentUnitID: f.module.ID, Kind: model.KindModule, Cohorts: []string{"A"}, ReleaseDate: "2025-01-10", ReleaseTime: "08:00"}
	future := &model.ScheduleEntry{ContentUnitID: f.lesson.ID, Kind: model.KindLesson, Cohorts: []string{"A"}, ReleaseDate: "2025-01-10", ReleaseTime: "08:00:01"}
	broken := &model.ScheduleEntry{ContentUnitID: f.lesson.ID, Kind: model.KindLesson, Cohorts: []string{"B"}, ReleaseDate: "amanhã", ReleaseTime: "08:00"}
	for _, e := range []*model.ScheduleEntry{due, future, broken} {
		if err := f.schedules.Create(ctx, e); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	report, err := f.scheduler.Sweep(ctx, time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Evaluated != 3 || report.Released != 1 || report.Skipped != 1 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !f.released(t, "111", f.module.ID, model.KindModule) {
		t.Fatal("due entry must be applied")
	}
	if f.released(t, "111", f.lesson.ID, model.KindLesson) {
		t.Fatal("future entry must not be applied")
	}

	pending, _ := f.schedules.FindPending(ctx)
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending entries, got %d", len(pending))
	}
}

func TestSweep_RejectsConcurrentRun(t *testing.T) {
	f := newFixture(t)
	f.scheduler.sweeping.Lock()
	defer f.scheduler.sweeping.Unlock()

	if _, err := f.scheduler.Sweep(context.Background(), time.Now()); !errors.Is(err, ErrSweepInProgress) {
		t.Fatalf("expected ErrSweepInProgress, got %v", err)
	}
}

func TestVisibleForAndAlreadyReleased(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	entries := []*model.ScheduleEntry{
		{ContentUnitID: f.module.ID, Kind: model.KindModule, Cohorts: []string{"A"}, ReleaseDate: "2025-01-01", ReleaseTime: "00:00"},
		{ContentUnitID: f.lesson.ID, Kind: model.KindLesson, Cohorts: []string{"A"}, ReleaseDate: "2025-02-01", ReleaseTime: "00:00"},
		{ContentUnitID: f.lesson.ID, Kind: model.KindLesson, Cohorts: []string{"B"}, ReleaseDate: "2025-01-01", ReleaseTime: "00:00"},
	}
	for _, e := range entries {
		if err := f.schedules.Create(ctx, e); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	ids, err := f.scheduler.VisibleFor(ctx, "A", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("visible for: %v", err)
	}
	if len(ids) != 1 || ids[0] != f.module.ID {
		t.Fatalf("unexpected visible ids %v", ids)
	}

	if ok, _ := f.scheduler.AlreadyReleased(ctx, f.module.ID, model.KindModule, "A"); ok {
		t.Fatal("entry not yet applied must not count as released")
	}
	if _, err := f.scheduler.Apply(ctx, entries[0]); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if ok, _ := f.scheduler.AlreadyReleased(ctx, f.module.ID, model.KindModule, "A"); !ok {
		t.Fatal("applied entry must count as released for cohort A")
	}
	if ok, _ := f.scheduler.AlreadyReleased(ctx, f.module.ID, model.KindModule, "B"); ok {
		t.Fatal("cohort B is not targeted")
	}
}

// insertingSchedules stores a challenge right before the entry is marked released, as a
// generation job finishing between the two steps of Apply would.
type insertingSchedules struct {
	repository.ScheduleRepository
	insert func()
}

func (r *insertingSchedules) MarkReleased(ctx context.Context, id uint) error {
	if r.insert != nil {
		r.insert()
		r.insert = nil
	}
	return r.ScheduleRepository.MarkReleased(ctx, id)
}

func TestApply_ReleasesChallengeInsertedMidway(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	testutil.SeedLearner(t, f.db, model.Learner{NationalID: "444", Cohort: "A"})

	schedules := &insertingSchedules{ScheduleRepository: f.schedules}
	schedules.insert = func() { f.seedChallenge(t, "444", f.module.ID, model.KindModule) }
	scheduler := NewScheduler(schedules, repository.NewLearnerRepository(f.db), f.challenges, time.UTC, nil)

	entry := &model.ScheduleEntry{ContentUnitID: f.module.ID, Kind: model.KindModule, Cohorts: []string{"A"}, ReleaseDate: "2025-01-10", ReleaseTime: "08:00"}
	if err := f.schedules.Create(ctx, entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	flipped, err := scheduler.Apply(ctx, entry)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if flipped != 3 {
		t.Fatalf("expected 3 challenges released, got %d", flipped)
	}
	if !f.released(t, "444", f.module.ID, model.KindModule) {
		t.Fatal("challenge inserted during apply must be released")
	}
}

// failingChallenges fails MarkReleased for one content unit.
type failingChallenges struct {
	repository.ChallengeRepository
	failUnit uint
}

func (r *failingChallenges) MarkReleased(ctx context.Context, learnerIDs []string, contentUnitID uint, kind model.ChallengeKind) (int64, error) {
	if contentUnitID == r.failUnit {
		return 0, errors.New("connection reset")
	}
	return r.ChallengeRepository.MarkReleased(ctx, learnerIDs, contentUnitID, kind)
}

func TestSweep_FailedEntryDoesNotBlockOthers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	challenges := &failingChallenges{ChallengeRepository: f.challenges, failUnit: f.lesson.ID}
	scheduler := NewScheduler(f.schedules, repository.NewLearnerRepository(f.db), challenges, time.UTC, f.notifier)

	failing := &model.ScheduleEntry{ContentUnitID: f.lesson.ID, Kind: model.KindLesson, Cohorts: []string{"A"}, ReleaseDate: "2025-01-10", ReleaseTime: "07:00"}
	healthy := &model.ScheduleEntry{ContentUnitID: f.module.ID, Kind: model.KindModule, Cohorts: []string{"A"}, ReleaseDate: "2025-01-10", ReleaseTime: "08:00"}
	for _, e := range []*model.ScheduleEntry{failing, healthy} {
		if err := f.schedules.Create(ctx, e); err != nil {
			t.Fatalf("create entry: %v", err)
		}
	}

	report, err := scheduler.Sweep(ctx, time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if report.Evaluated != 2 || report.Released != 1 || report.Failed != 1 || report.Skipped != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if !f.released(t, "111", f.module.ID, model.KindModule) {
		t.Fatal("healthy entry must be applied")
	}
	if f.released(t, "111", f.lesson.ID, model.KindLesson) {
		t.Fatal("failed entry must not release anything")
	}

	pending, _ := f.schedules.FindPending(ctx)
	if len(pending) != 1 || pending[0].ID != failing.ID {
		t.Fatalf("failed entry must stay pending, got %+v", pending)
	}
	if len(f.notifier.cohorts) != 1 {
		t.Fatalf("only the healthy entry notifies, got %v", f.notifier.cohorts)
	}
}
