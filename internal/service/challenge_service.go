package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/rs/zerolog/log"
)

// GenerationLauncher starts background generation for a learner unless one is already running.
type GenerationLauncher interface {
	Launch(ctx context.Context, learnerID string) (bool, error)
}

type ChallengeService interface {
	ListForLearner(ctx context.Context, nationalID string) (*dto.ChallengeListResponse, error)
	Status(ctx context.Context, nationalID string) (*dto.ChallengeStatusResponse, error)
	TriggerGeneration(ctx context.Context, nationalID string) (bool, error)
}

type challengeService struct {
	learnerRepo   repository.LearnerRepository
	challengeRepo repository.ChallengeRepository
	jobs          GenerationLauncher
}

func NewChallengeService(
	learnerRepo repository.LearnerRepository,
	challengeRepo repository.ChallengeRepository,
	jobs GenerationLauncher,
) ChallengeService {
	return &challengeService{learnerRepo: learnerRepo, challengeRepo: challengeRepo, jobs: jobs}
}

// ListForLearner returns the challenges released to the learner. When the learner has no
// challenge rows at all and a completed profile, a background job is launched and the
// response reports Generating; a job that is already running reports the same.
func (s *challengeService) ListForLearner(ctx context.Context, nationalID string) (*dto.ChallengeListResponse, error) {
	learner, err := s.learner(ctx, nationalID)
	if err != nil {
		return nil, err
	}

	challenges, err := s.challengeRepo.FindByLearner(ctx, nationalID)
	if err != nil {
		log.Error().Err(err).Str("nationalID", nationalID).Msg("Failed to list challenges")
		return nil, fmt.Errorf("list challenges for %s: %w", nationalID, err)
	}

	resp := &dto.ChallengeListResponse{Challenges: []dto.ChallengeResponse{}}
	for i := range challenges {
		if challenges[i].ReleasedToLearner {
			resp.Challenges = append(resp.Challenges, toChallengeResponse(&challenges[i]))
		}
	}

	if len(challenges) == 0 && learner.ProfileCompleted {
		resp.Generating = s.launch(ctx, nationalID)
	}
	return resp, nil
}

func (s *challengeService) Status(ctx context.Context, nationalID string) (*dto.ChallengeStatusResponse, error) {
	if _, err := s.learner(ctx, nationalID); err != nil {
		return nil, err
	}
	challenges, err := s.challengeRepo.FindByLearner(ctx, nationalID)
	if err != nil {
		return nil, fmt.Errorf("list challenges for %s: %w", nationalID, err)
	}
	released, err := s.challengeRepo.CountReleased(ctx, nationalID)
	if err != nil {
		return nil, fmt.Errorf("count released challenges for %s: %w", nationalID, err)
	}
	return &dto.ChallengeStatusResponse{
		Total:      len(challenges),
		Released:   released > 0,
		Generating: len(challenges) == 0 && s.inFlight(ctx, nationalID),
	}, nil
}

// TriggerGeneration is the admin path: it launches a job even when challenges already exist,
// filling in whatever is missing. The profile must be completed.
func (s *challengeService) TriggerGeneration(ctx context.Context, nationalID string) (bool, error) {
	learner, err := s.learner(ctx, nationalID)
	if err != nil {
		return false, err
	}
	if !learner.ProfileCompleted {
		return false, ErrProfileIncomplete
	}
	return s.jobs.Launch(ctx, nationalID)
}

func (s *challengeService) learner(ctx context.Context, nationalID string) (*model.Learner, error) {
	learner, err := s.learnerRepo.FindByNationalID(ctx, nationalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLearnerNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("nationalID", nationalID).Msg("Failed to load learner")
		return nil, fmt.Errorf("load learner %s: %w", nationalID, err)
	}
	return learner, nil
}

// launch reports whether a job is running for the learner after the call. A rejected
// admission means one already is.
func (s *challengeService) launch(ctx context.Context, nationalID string) bool {
	admitted, err := s.jobs.Launch(ctx, nationalID)
	if errors.Is(err, ErrRunnerClosed) {
		log.Warn().Str("nationalID", nationalID).Msg("Generation not started; shutting down")
		return false
	}
	if err != nil {
		log.Error().Err(err).Str("nationalID", nationalID).Msg("Could not start challenge generation")
		return false
	}
	if !admitted {
		log.Debug().Str("nationalID", nationalID).Msg("Generation admission rejected; job already running")
	}
	return true
}

// inFlight is best effort: only guards that expose their state can answer.
func (s *challengeService) inFlight(_ context.Context, nationalID string) bool {
	type inFlighter interface{ InFlight(string) bool }
	if f, ok := s.jobs.(inFlighter); ok {
		return f.InFlight(nationalID)
	}
	return false
}

func toChallengeResponse(c *model.Challenge) dto.ChallengeResponse {
	return dto.ChallengeResponse{
		ID:                c.ID,
		ContentUnitID:     c.ContentUnitID,
		Module:            c.ContentUnit.Module,
		Lesson:            c.ContentUnit.Lesson,
		Kind:              string(c.Kind),
		Title:             c.Title,
		Text:              c.Text,
		ReleasedToLearner: c.ReleasedToLearner,
		CreatedAt:         c.CreatedAt,
	}
}
