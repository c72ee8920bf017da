package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lshigami/pblagro/internal/llm"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/rs/zerolog/log"
)

const untitledLesson = "Título não gerado"

// ReleaseChecker tells whether a released schedule entry already covers a (content unit, kind) for a cohort.
type ReleaseChecker interface {
	AlreadyReleased(ctx context.Context, contentUnitID uint, kind model.ChallengeKind, cohort string) (bool, error)
}

// Task is one challenge to write. Lesson tasks depend on the module task of the same module.
type Task struct {
	Module string
	Kind   model.ChallengeKind
	Unit   model.ContentUnit
}

type GenerationReport struct {
	Created  int
	Existing int
	Skipped  int
	Failed   int
}

type GenerationService interface {
	Plan(contents []model.ContentUnit) []Task
	Generate(ctx context.Context, nationalID string) (*GenerationReport, error)
}

type generationService struct {
	learnerRepo    repository.LearnerRepository
	contentRepo    repository.ContentRepository
	curriculumRepo repository.CurriculumRepository
	challengeRepo  repository.ChallengeRepository
	releases       ReleaseChecker
	llmClient      llm.Client
	prompts        *llm.Prompts
}

func NewGenerationService(
	learnerRepo repository.LearnerRepository,
	contentRepo repository.ContentRepository,
	curriculumRepo repository.CurriculumRepository,
	challengeRepo repository.ChallengeRepository,
	releases ReleaseChecker,
	llmClient llm.Client,
	prompts *llm.Prompts,
) GenerationService {
	return &generationService{
		learnerRepo:    learnerRepo,
		contentRepo:    contentRepo,
		curriculumRepo: curriculumRepo,
		challengeRepo:  challengeRepo,
		releases:       releases,
		llmClient:      llmClient,
		prompts:        prompts,
	}
}

// Plan orders the work per module: the module task first, then its lessons in curriculum order.
// Modules keep the order in which they first appear in contents.
func (s *generationService) Plan(contents []model.ContentUnit) []Task {
	var order []string
	seen := make(map[string]bool)
	moduleTask := make(map[string]*Task)
	lessons := make(map[string][]Task)

	for _, unit := range contents {
		if !seen[unit.Module] {
			seen[unit.Module] = true
			order = append(order, unit.Module)
		}
		if unit.IsModuleLevel() {
			if moduleTask[unit.Module] == nil {
				moduleTask[unit.Module] = &Task{Module: unit.Module, Kind: model.KindModule, Unit: unit}
			}
			continue
		}
		lessons[unit.Module] = append(lessons[unit.Module], Task{Module: unit.Module, Kind: model.KindLesson, Unit: unit})
	}

	var tasks []Task
	for _, module := range order {
		if t := moduleTask[module]; t != nil {
			tasks = append(tasks, *t)
		}
		tasks = append(tasks, lessons[module]...)
	}
	return tasks
}

// Generate writes the learner's missing challenges one at a time. A failed item is logged and
// skipped; rows already written stay. Lessons whose module narrative is unavailable are skipped.
func (s *generationService) Generate(ctx context.Context, nationalID string) (*GenerationReport, error) {
	learner, err := s.learnerRepo.FindByNationalID(ctx, nationalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load learner %s: %w", nationalID, err)
	}

	contents, err := s.curriculum(ctx, learner.Cohort)
	if err != nil {
		return nil, err
	}

	report := &GenerationReport{}
	narratives := make(map[string]string)
	profile := llm.Profile{
		JobRole:          learner.JobRole,
		Region:           learner.Region,
		ValueChain:       learner.ValueChain,
		StatedChallenges: learner.StatedChallenges,
		Notes:            learner.Notes,
	}

	for _, task := range s.Plan(contents) {
		logger := log.With().
			Str("nationalID", nationalID).
			Uint("contentUnitID", task.Unit.ID).
			Str("kind", string(task.Kind)).
			Logger()

		existing, err := s.challengeRepo.FindOne(ctx, nationalID, task.Unit.ID, task.Kind)
		if err == nil {
			report.Existing++
			if task.Kind == model.KindModule {
				narratives[task.Module] = existing.Text
			}
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			report.Failed++
			logger.Error().Err(err).Msg("Failed to check existing challenge")
			continue
		}

		input := llm.NarrativeInput{
			Profile:  profile,
			Module:   task.Module,
			Lesson:   task.Unit.Lesson,
			Syllabus: task.Unit.Syllabus,
		}
		tmpl := &s.prompts.ModuleNarrative
		if task.Kind == model.KindLesson {
			narrative, ok := narratives[task.Module]
			if !ok {
				report.Skipped++
				logger.Warn().Str("module", task.Module).Msg("Module narrative unavailable, skipping lesson")
				continue
			}
			input.ModuleNarrative = narrative
			tmpl = &s.prompts.LessonNarrative
		}

		text, err := s.complete(ctx, tmpl, input)
		if err != nil {
			report.Failed++
			logger.Error().Err(err).Msg("Challenge generation failed")
			continue
		}

		challenge := &model.Challenge{
			LearnerID:        nationalID,
			ContentUnitID:    task.Unit.ID,
			Kind:             task.Kind,
			Text:             text,
			GenerationStatus: model.GenerationStatusOK,
		}
		if task.Kind == model.KindLesson {
			challenge.Title = s.lessonTitle(ctx, task.Unit.Lesson, text)
		}
		challenge.ReleasedToLearner, err = s.releases.AlreadyReleased(ctx, task.Unit.ID, task.Kind, learner.Cohort)
		if err != nil {
			logger.Warn().Err(err).Msg("Could not check release state, storing as not released")
			challenge.ReleasedToLearner = false
		}

		if err := s.challengeRepo.Create(ctx, challenge); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				report.Existing++
				if task.Kind == model.KindModule {
					if stored, err := s.challengeRepo.FindOne(ctx, nationalID, task.Unit.ID, task.Kind); err == nil {
						narratives[task.Module] = stored.Text
					}
				}
				continue
			}
			report.Failed++
			logger.Error().Err(err).Msg("Failed to store challenge")
			continue
		}

		if !challenge.ReleasedToLearner {
			s.catchUpRelease(ctx, learner.Cohort, challenge)
		}

		report.Created++
		if task.Kind == model.KindModule {
			narratives[task.Module] = text
		}
		logger.Info().Str("challengeID", challenge.ID).Msg("Challenge generated")
	}

	log.Info().
		Str("nationalID", nationalID).
		Int("created", report.Created).
		Int("existing", report.Existing).
		Int("skipped", report.Skipped).
		Int("failed", report.Failed).
		Msg("Challenge generation finished")
	return report, nil
}

// curriculum returns the units the cohort studies. Cohorts without a curriculum of their own
// follow every active unit.
func (s *generationService) curriculum(ctx context.Context, cohort string) ([]model.ContentUnit, error) {
	if cohort != "" {
		units, err := s.curriculumRepo.FindByCohort(ctx, cohort)
		if err != nil {
			return nil, fmt.Errorf("load curriculum of cohort %s: %w", cohort, err)
		}
		if len(units) > 0 {
			return units, nil
		}
	}
	units, err := s.contentRepo.FindActive(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("load active contents: %w", err)
	}
	return units, nil
}

// catchUpRelease flips a challenge stored as hidden when its schedule entry was applied
// between the release check and the insert.
func (s *generationService) catchUpRelease(ctx context.Context, cohort string, c *model.Challenge) {
	released, err := s.releases.AlreadyReleased(ctx, c.ContentUnitID, c.Kind, cohort)
	if err != nil {
		log.Warn().Err(err).Str("challengeID", c.ID).Msg("Could not recheck release state")
		return
	}
	if !released {
		return
	}
	if _, err := s.challengeRepo.MarkReleased(ctx, []string{c.LearnerID}, c.ContentUnitID, c.Kind); err != nil {
		log.Error().Err(err).Str("challengeID", c.ID).Msg("Failed to release late challenge")
		return
	}
	c.ReleasedToLearner = true
}

func (s *generationService) complete(ctx context.Context, tmpl *llm.PromptTemplate, data any) (string, error) {
	req, err := tmpl.Request(data)
	if err != nil {
		return "", err
	}
	return s.llmClient.Complete(ctx, req)
}

func (s *generationService) lessonTitle(ctx context.Context, lesson, text string) string {
	title, err := s.complete(ctx, &s.prompts.LessonTitle, llm.TitleInput{Lesson: lesson, Text: text})
	if err != nil || title == "" {
		log.Warn().Err(err).Str("lesson", lesson).Msg("Lesson title generation failed")
		return untitledLesson
	}
	return trimTitle(title)
}

func trimTitle(title string) string {
	return strings.Trim(title, "\"'*#“” \t\n")
}
