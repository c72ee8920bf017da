package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lshigami/pblagro/internal/llm"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/release"
	"github.com/lshigami/pblagro/internal/testutil"
)

const moduleText = "MACRO: a Fazenda Boa Vista enfrenta queda de preços."

func TestPlan_ModuleFirstThenLessons(t *testing.T) {
	svc := &generationService{}
	contents := []model.ContentUnit{
		{ID: 1, Module: "A", Lesson: "a1", Position: 1},
		{ID: 2, Module: "A", Position: 0},
		{ID: 3, Module: "A", Lesson: "a2", Position: 2},
		{ID: 4, Module: "B", Lesson: "b1", Position: 1},
		{ID: 5, Module: "B", Position: 0},
	}

	tasks := svc.Plan(contents)
	var got []uint
	for _, task := range tasks {
		got = append(got, task.Unit.ID)
	}
	want := []uint{2, 1, 3, 5, 4}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
	if tasks[0].Kind != model.KindModule || tasks[1].Kind != model.KindLesson {
		t.Fatalf("unexpected kinds %+v", tasks[:2])
	}
}

func TestGenerate_ModuleRowExistsBeforeAnyLesson(t *testing.T) {
	e := newEnv(t)
	module, lesson1, lesson2 := e.seedCurriculum(t)
	ctx := context.Background()

	var lessonCalls int
	client := &stubLLM{}
	client.reply = func(req llm.ChatRequest) (string, error) {
		if isTitleRequest(req) {
			return "\"Hedge na safra\"", nil
		}
		if contains(userPrompt(req), moduleText) {
			lessonCalls++
			stored, err := e.challenges.FindOne(ctx, "X", module.ID, model.KindModule)
			if err != nil || stored.Text == "" {
				t.Errorf("lesson prompt issued before module row was stored: %v", err)
			}
			var lessons int64
			e.db.Model(&model.Challenge{}).Where("kind = ?", model.KindLesson).Count(&lessons)
			if int(lessons) != lessonCalls-1 {
				t.Errorf("expected %d lesson rows before call %d, got %d", lessonCalls-1, lessonCalls, lessons)
			}
			return "MICRO: tarefa da semana.", nil
		}
		return moduleText, nil
	}

	report, err := e.generation(client).Generate(ctx, "X")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Created != 3 || report.Failed != 0 || report.Skipped != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if lessonCalls != 2 {
		t.Fatalf("expected 2 lesson prompts, got %d", lessonCalls)
	}

	for _, unit := range []model.ContentUnit{lesson1, lesson2} {
		c, err := e.challenges.FindOne(ctx, "X", unit.ID, model.KindLesson)
		if err != nil {
			t.Fatalf("lesson challenge missing: %v", err)
		}
		if c.Title != "Hedge na safra" {
			t.Errorf("title = %q", c.Title)
		}
		if c.ReleasedToLearner {
			t.Error("new challenges start hidden")
		}
		if c.GenerationStatus != model.GenerationStatusOK {
			t.Errorf("status = %q", c.GenerationStatus)
		}
	}
}

func TestGenerate_SecondRunCreatesNothing(t *testing.T) {
	e := newEnv(t)
	e.seedCurriculum(t)
	client := &stubLLM{reply: func(req llm.ChatRequest) (string, error) { return moduleText, nil }}
	svc := e.generation(client)

	if _, err := svc.Generate(context.Background(), "X"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	calls := client.callCount()

	report, err := svc.Generate(context.Background(), "X")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if report.Created != 0 || report.Existing != 3 {
		t.Fatalf("unexpected report %+v", report)
	}
	if client.callCount() != calls {
		t.Fatal("second run must not call the model")
	}
}

func TestGenerate_LessonsSkippedWhenModuleFails(t *testing.T) {
	e := newEnv(t)
	e.seedCurriculum(t)
	client := &stubLLM{reply: func(req llm.ChatRequest) (string, error) {
		return "", errors.New("upstream 500")
	}}

	report, err := e.generation(client).Generate(context.Background(), "X")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Failed != 1 || report.Skipped != 2 || report.Created != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	var rows int64
	e.db.Model(&model.Challenge{}).Count(&rows)
	if rows != 0 {
		t.Fatalf("expected no rows, got %d", rows)
	}
}

func TestGenerate_LessonFailureKeepsEarlierRows(t *testing.T) {
	e := newEnv(t)
	_, lesson1, lesson2 := e.seedCurriculum(t)
	client := &stubLLM{}
	client.reply = func(req llm.ChatRequest) (string, error) {
		switch {
		case isTitleRequest(req):
			return "", errors.New("timeout")
		case contains(userPrompt(req), "Hedge"):
			return "", errors.New("timeout")
		default:
			return moduleText, nil
		}
	}

	report, err := e.generation(client).Generate(context.Background(), "X")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if report.Created != 2 || report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := e.challenges.FindOne(context.Background(), "X", lesson1.ID, model.KindLesson); err == nil {
		t.Fatal("failed lesson must not be stored")
	}
	c, err := e.challenges.FindOne(context.Background(), "X", lesson2.ID, model.KindLesson)
	if err != nil {
		t.Fatalf("second lesson missing: %v", err)
	}
	if c.Title != untitledLesson {
		t.Fatalf("expected fallback title, got %q", c.Title)
	}
}

func TestGenerate_InheritsEarlierRelease(t *testing.T) {
	e := newEnv(t)
	module, _, _ := e.seedCurriculum(t)
	ctx := context.Background()

	entry := &model.ScheduleEntry{
		ContentUnitID: module.ID, Kind: model.KindModule, Cohorts: []string{"A"},
		ReleaseDate: "2025-01-01", ReleaseTime: "08:00",
	}
	if err := e.schedules.Create(ctx, entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := e.scheduler.Apply(ctx, entry); err != nil {
		t.Fatalf("apply: %v", err)
	}

	client := &stubLLM{reply: func(req llm.ChatRequest) (string, error) { return moduleText, nil }}
	if _, err := e.generation(client).Generate(ctx, "X"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	c, err := e.challenges.FindOne(ctx, "X", module.ID, model.KindModule)
	if err != nil {
		t.Fatalf("module challenge missing: %v", err)
	}
	if !c.ReleasedToLearner {
		t.Fatal("module challenge generated after its release must be visible")
	}
}

// sweepingChecker runs a release sweep right after its first answer, as a scheduler tick
// landing between the release check and the insert would.
type sweepingChecker struct {
	*release.Scheduler
	t     *testing.T
	at    time.Time
	swept bool
}

func (c *sweepingChecker) AlreadyReleased(ctx context.Context, contentUnitID uint, kind model.ChallengeKind, cohort string) (bool, error) {
	released, err := c.Scheduler.AlreadyReleased(ctx, contentUnitID, kind, cohort)
	if !c.swept {
		c.swept = true
		if _, sweepErr := c.Sweep(ctx, c.at); sweepErr != nil {
			c.t.Errorf("sweep: %v", sweepErr)
		}
	}
	return released, err
}

func TestGenerate_ReleaseAppliedDuringGenerationIsNotLost(t *testing.T) {
	e := newEnv(t)
	module, _, _ := e.seedCurriculum(t)
	ctx := context.Background()

	entry := &model.ScheduleEntry{
		ContentUnitID: module.ID, Kind: model.KindModule, Cohorts: []string{"A"},
		ReleaseDate: "2025-01-10", ReleaseTime: "08:00",
	}
	if err := e.schedules.Create(ctx, entry); err != nil {
		t.Fatalf("create entry: %v", err)
	}

	checker := &sweepingChecker{Scheduler: e.scheduler, t: t, at: time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)}
	client := &stubLLM{reply: func(req llm.ChatRequest) (string, error) { return moduleText, nil }}
	svc := NewGenerationService(e.learners, e.contents, e.curricula, e.challenges, checker, client, e.prompts)
	if _, err := svc.Generate(ctx, "X"); err != nil {
		t.Fatalf("generate: %v", err)
	}

	stored, err := e.schedules.FindByID(ctx, entry.ID)
	if err != nil || !stored.Released {
		t.Fatalf("sweep must have released the entry: %v", err)
	}
	c, err := e.challenges.FindOne(ctx, "X", module.ID, model.KindModule)
	if err != nil {
		t.Fatalf("module challenge missing: %v", err)
	}
	if !c.ReleasedToLearner {
		t.Fatal("challenge stored after a concurrent release must be visible")
	}
}

func TestGenerate_UnknownLearner(t *testing.T) {
	e := newEnv(t)
	client := &stubLLM{reply: func(req llm.ChatRequest) (string, error) { return "", nil }}
	if _, err := e.generation(client).Generate(context.Background(), "nobody"); !errors.Is(err, ErrLearnerNotFound) {
		t.Fatalf("expected ErrLearnerNotFound, got %v", err)
	}
}

func TestGenerate_FollowsCohortCurriculum(t *testing.T) {
	e := newEnv(t)
	module, lesson1, lesson2 := e.seedCurriculum(t)
	testutil.SeedLearner(t, e.db, model.Learner{
		NationalID: "Y", Cohort: "B", JobRole: "Técnica", Region: "GO", ValueChain: "Milho", ProfileCompleted: true,
	})
	ctx := context.Background()

	if err := e.curricula.Replace(ctx, "A", []uint{module.ID, lesson2.ID}); err != nil {
		t.Fatalf("curriculum A: %v", err)
	}
	if err := e.curricula.Replace(ctx, "B", []uint{module.ID, lesson1.ID}); err != nil {
		t.Fatalf("curriculum B: %v", err)
	}

	client := &stubLLM{reply: func(req llm.ChatRequest) (string, error) { return moduleText, nil }}
	svc := e.generation(client)
	for _, id := range []string{"X", "Y"} {
		report, err := svc.Generate(ctx, id)
		if err != nil {
			t.Fatalf("generate %s: %v", id, err)
		}
		if report.Created != 2 {
			t.Fatalf("learner %s: expected 2 challenges, got %+v", id, report)
		}
	}

	cases := []struct {
		learner string
		unit    model.ContentUnit
		want    bool
	}{
		{"X", module, true},
		{"X", lesson1, false},
		{"X", lesson2, true},
		{"Y", module, true},
		{"Y", lesson1, true},
		{"Y", lesson2, false},
	}
	for _, tc := range cases {
		_, err := e.challenges.FindOne(ctx, tc.learner, tc.unit.ID, tc.unit.Kind())
		if got := err == nil; got != tc.want {
			t.Errorf("learner %s unit %d: has challenge = %v, want %v", tc.learner, tc.unit.ID, got, tc.want)
		}
	}
}
