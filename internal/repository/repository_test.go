package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/testutil"
)

func TestChallengeRepository_CreateRejectsDuplicateOwner(t *testing.T) {
	db := testutil.NewDB(t)
	unit := testutil.SeedContent(t, db, model.ContentUnit{Module: "Gestão", Active: true})
	repo := NewChallengeRepository(db)
	ctx := context.Background()

	first := &model.Challenge{LearnerID: "111", ContentUnitID: unit.ID, Kind: model.KindModule, Text: "a"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if first.ID == "" {
		t.Fatal("expected generated id")
	}

	second := &model.Challenge{LearnerID: "111", ContentUnitID: unit.ID, Kind: model.KindModule, Text: "b"}
	if err := repo.Create(ctx, second); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	other := &model.Challenge{LearnerID: "222", ContentUnitID: unit.ID, Kind: model.KindModule, Text: "c"}
	if err := repo.Create(ctx, other); err != nil {
		t.Fatalf("other learner create: %v", err)
	}
}

func TestChallengeRepository_MarkReleasedOnlyTouchesMatchingKind(t *testing.T) {
	db := testutil.NewDB(t)
	unit := testutil.SeedContent(t, db, model.ContentUnit{Module: "Gestão", Active: true})
	repo := NewChallengeRepository(db)
	ctx := context.Background()

	for _, c := range []*model.Challenge{
		{LearnerID: "111", ContentUnitID: unit.ID, Kind: model.KindModule, Text: "x"},
		{LearnerID: "111", ContentUnitID: unit.ID, Kind: model.KindLesson, Text: "y"},
		{LearnerID: "222", ContentUnitID: unit.ID, Kind: model.KindModule, Text: "z"},
	} {
		if err := repo.Create(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	n, err := repo.MarkReleased(ctx, []string{"111"}, unit.ID, model.KindModule)
	if err != nil {
		t.Fatalf("mark released: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 row, got %d", n)
	}

	lesson, err := repo.FindOne(ctx, "111", unit.ID, model.KindLesson)
	if err != nil {
		t.Fatalf("find lesson row: %v", err)
	}
	if lesson.ReleasedToLearner {
		t.Fatal("lesson-kind row must stay unreleased")
	}
	released, _ := repo.CountReleased(ctx, "111")
	if released != 1 {
		t.Fatalf("expected 1 released challenge, got %d", released)
	}
	if got, _ := repo.CountReleased(ctx, "222"); got != 0 {
		t.Fatalf("learner 222 should have nothing released, got %d", got)
	}
	if again, _ := repo.MarkReleased(ctx, []string{"111"}, unit.ID, model.KindModule); again != 0 {
		t.Fatalf("already released rows must not be counted again, got %d", again)
	}
}

func TestChallengeRepository_FindOneMissing(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewChallengeRepository(db)
	if _, err := repo.FindOne(context.Background(), "nobody", 1, model.KindModule); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLearnerRepository_CohortQueries(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedLearner(t, db, model.Learner{NationalID: "111", Cohort: "T1"})
	testutil.SeedLearner(t, db, model.Learner{NationalID: "222", Cohort: "T2"})
	testutil.SeedLearner(t, db, model.Learner{NationalID: "333", Cohort: "T1"})
	testutil.SeedLearner(t, db, model.Learner{NationalID: "444"})
	repo := NewLearnerRepository(db)
	ctx := context.Background()

	ids, err := repo.FindNationalIDsByCohorts(ctx, []string{"T1"})
	if err != nil {
		t.Fatalf("find by cohorts: %v", err)
	}
	if len(ids) != 2 || ids[0] != "111" || ids[1] != "333" {
		t.Fatalf("unexpected ids %v", ids)
	}

	cohorts, err := repo.ListCohorts(ctx)
	if err != nil {
		t.Fatalf("list cohorts: %v", err)
	}
	if len(cohorts) != 2 || cohorts[0] != "T1" || cohorts[1] != "T2" {
		t.Fatalf("unexpected cohorts %v", cohorts)
	}

	total, _ := repo.Count(ctx)
	if total != 4 {
		t.Fatalf("expected 4 learners, got %d", total)
	}
}

func TestLearnerRepository_UpdateFields(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedLearner(t, db, model.Learner{NationalID: "111", Name: "Ana", Region: "Sul"})
	repo := NewLearnerRepository(db)
	ctx := context.Background()

	updated, err := repo.UpdateFields(ctx, "111", map[string]any{"job_role": "Gerente"})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.JobRole != "Gerente" || updated.Region != "Sul" {
		t.Fatalf("partial update lost data: %+v", updated)
	}

	if _, err := repo.UpdateFields(ctx, "999", map[string]any{"region": "Norte"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAnswerRepository_FindLatest(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewAnswerRepository(db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		a := &model.Answer{LearnerID: "111", ChallengeID: "c1", ContentUnitID: 1, Attempt: i, Text: "r"}
		if err := repo.Create(ctx, a); err != nil {
			t.Fatalf("create attempt %d: %v", i, err)
		}
	}
	dup := &model.Answer{LearnerID: "111", ChallengeID: "c1", ContentUnitID: 1, Attempt: 2, Text: "r"}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	latest, err := repo.FindLatest(ctx, "111", "c1")
	if err != nil {
		t.Fatalf("find latest: %v", err)
	}
	if latest.Attempt != 3 {
		t.Fatalf("expected attempt 3, got %d", latest.Attempt)
	}

	all, _ := repo.FindByChallenge(ctx, "111", "c1")
	if len(all) != 3 || all[0].Attempt != 1 {
		t.Fatalf("unexpected history %+v", all)
	}

	if _, err := repo.FindLatest(ctx, "111", "c2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleRepository_PendingAndRelease(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewScheduleRepository(db)
	ctx := context.Background()

	entry := &model.ScheduleEntry{ContentUnitID: 7, Module: "Gestão", Kind: model.KindModule, Cohorts: []string{"T1"}, ReleaseDate: "2025-01-10", ReleaseTime: "08:00"}
	if err := repo.Create(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	pending, _ := repo.FindPending(ctx)
	if len(pending) != 1 || pending[0].Cohorts[0] != "T1" {
		t.Fatalf("unexpected pending %+v", pending)
	}

	if err := repo.MarkReleased(ctx, entry.ID); err != nil {
		t.Fatalf("mark released: %v", err)
	}
	pending, _ = repo.FindPending(ctx)
	if len(pending) != 0 {
		t.Fatalf("expected no pending entries, got %d", len(pending))
	}
	released, _ := repo.FindByContent(ctx, 7, model.KindModule)
	if len(released) != 1 || !released[0].Released {
		t.Fatalf("unexpected entries for content %+v", released)
	}

	if err := repo.MarkReleased(ctx, 9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCurriculumRepository_OrderAndActiveOnly(t *testing.T) {
	db := testutil.NewDB(t)
	module := testutil.SeedContent(t, db, model.ContentUnit{Module: "Gestão", Active: true})
	lesson := testutil.SeedContent(t, db, model.ContentUnit{Module: "Gestão", Lesson: "Aula 1", Active: true, Position: 1})
	retired := testutil.SeedContent(t, db, model.ContentUnit{Module: "Gestão", Lesson: "Aula 2", Active: true, Position: 2})
	if err := db.Model(&retired).Update("active", false).Error; err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	repo := NewCurriculumRepository(db)
	ctx := context.Background()

	if err := repo.Replace(ctx, "A", []uint{lesson.ID, retired.ID, module.ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	units, err := repo.FindByCohort(ctx, "A")
	if err != nil {
		t.Fatalf("find by cohort: %v", err)
	}
	if len(units) != 2 || units[0].ID != lesson.ID || units[1].ID != module.ID {
		t.Fatalf("expected lesson then module, got %+v", units)
	}

	if other, _ := repo.FindByCohort(ctx, "B"); len(other) != 0 {
		t.Fatalf("cohort B has no curriculum, got %+v", other)
	}

	if err := repo.Replace(ctx, "A", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if units, _ := repo.FindByCohort(ctx, "A"); len(units) != 0 {
		t.Fatalf("cleared curriculum must be empty, got %+v", units)
	}
}
