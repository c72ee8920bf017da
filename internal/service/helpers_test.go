package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lshigami/pblagro/internal/llm"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/release"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/lshigami/pblagro/internal/testutil"
	"gorm.io/gorm"
)

type stubLLM struct {
	mu    sync.Mutex
	calls []llm.ChatRequest
	reply func(req llm.ChatRequest) (string, error)
}

func (s *stubLLM) Complete(_ context.Context, req llm.ChatRequest) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	s.mu.Unlock()
	return s.reply(req)
}

func (s *stubLLM) Provider() string { return "stub" }

func (s *stubLLM) Close() error { return nil }

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func userPrompt(req llm.ChatRequest) string {
	return req.Messages[len(req.Messages)-1].Content
}

func isTitleRequest(req llm.ChatRequest) bool {
	return req.MaxTokens == 20
}

type env struct {
	db         *gorm.DB
	learners   repository.LearnerRepository
	contents   repository.ContentRepository
	curricula  repository.CurriculumRepository
	challenges repository.ChallengeRepository
	answers    repository.AnswerRepository
	schedules  repository.ScheduleRepository
	scheduler  *release.Scheduler
	prompts    *llm.Prompts
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewDB(t)
	prompts, err := llm.LoadPrompts()
	if err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	e := &env{
		db:         db,
		learners:   repository.NewLearnerRepository(db),
		contents:   repository.NewContentRepository(db),
		curricula:  repository.NewCurriculumRepository(db),
		challenges: repository.NewChallengeRepository(db),
		answers:    repository.NewAnswerRepository(db),
		schedules:  repository.NewScheduleRepository(db),
		prompts:    prompts,
	}
	e.scheduler = release.NewScheduler(e.schedules, e.learners, e.challenges, time.UTC, nil)
	return e
}

func (e *env) generation(client llm.Client) GenerationService {
	return NewGenerationService(e.learners, e.contents, e.curricula, e.challenges, e.scheduler, client, e.prompts)
}

// seedCurriculum creates one module with two lessons and a completed learner in cohort A.
func (e *env) seedCurriculum(t *testing.T) (module, lesson1, lesson2 model.ContentUnit) {
	t.Helper()
	testutil.SeedLearner(t, e.db, model.Learner{
		NationalID: "X", Cohort: "A", JobRole: "Gerente", Region: "MT", ValueChain: "Soja", ProfileCompleted: true,
	})
	module = testutil.SeedContent(t, e.db, model.ContentUnit{Module: "Gestão de Riscos", Syllabus: "riscos", Active: true})
	lesson1 = testutil.SeedContent(t, e.db, model.ContentUnit{Module: "Gestão de Riscos", Lesson: "Hedge", Active: true, Position: 1})
	lesson2 = testutil.SeedContent(t, e.db, model.ContentUnit{Module: "Gestão de Riscos", Lesson: "Seguro rural", Active: true, Position: 2})
	return
}

func (e *env) releasedChallenge(t *testing.T, learnerID string, unit model.ContentUnit) *model.Challenge {
	t.Helper()
	c := &model.Challenge{
		LearnerID: learnerID, ContentUnitID: unit.ID, Kind: unit.Kind(),
		Text: "Microdesafio sobre hedge", ReleasedToLearner: true,
	}
	if err := e.challenges.Create(context.Background(), c); err != nil {
		t.Fatalf("seed challenge: %v", err)
	}
	return c
}

func contains(s, sub string) bool {
	return strings.Contains(s, sub)
}
