package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jinzhu/copier"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/rs/zerolog/log"
)

type LearnerService interface {
	GetProfile(ctx context.Context, nationalID string) (*dto.LearnerResponse, error)
	UpsertProfile(ctx context.Context, nationalID string, req dto.ProfileRequest) (*dto.LearnerResponse, error)
	Authenticate(ctx context.Context, nationalID string) (*model.Learner, error)
}

type learnerService struct {
	learnerRepo repository.LearnerRepository
}

func NewLearnerService(learnerRepo repository.LearnerRepository) LearnerService {
	return &learnerService{learnerRepo: learnerRepo}
}

func (s *learnerService) GetProfile(ctx context.Context, nationalID string) (*dto.LearnerResponse, error) {
	learner, err := s.learnerRepo.FindByNationalID(ctx, nationalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLearnerNotFound
	}
	if err != nil {
		log.Error().Err(err).Str("nationalID", nationalID).Msg("Failed to load learner profile")
		return nil, fmt.Errorf("load learner %s: %w", nationalID, err)
	}
	return toLearnerResponse(learner), nil
}

// UpsertProfile applies only the fields present in req. The learner row is created on the first submission.
func (s *learnerService) UpsertProfile(ctx context.Context, nationalID string, req dto.ProfileRequest) (*dto.LearnerResponse, error) {
	fields := profileFields(req)
	if len(fields) == 0 {
		return nil, ErrEmptyProfile
	}

	learner, err := s.learnerRepo.UpdateFields(ctx, nationalID, fields)
	if err == nil {
		log.Info().Str("nationalID", nationalID).Int("fields", len(fields)).Msg("Learner profile updated")
		return toLearnerResponse(learner), nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Error().Err(err).Str("nationalID", nationalID).Msg("Failed to update learner profile")
		return nil, fmt.Errorf("update learner %s: %w", nationalID, err)
	}

	created := &model.Learner{NationalID: nationalID, Role: model.RoleStudent}
	applyProfile(created, req)
	if err := s.learnerRepo.Create(ctx, created); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a race with a concurrent first submission; the row exists now.
			learner, err = s.learnerRepo.UpdateFields(ctx, nationalID, fields)
			if err == nil {
				return toLearnerResponse(learner), nil
			}
		}
		log.Error().Err(err).Str("nationalID", nationalID).Msg("Failed to create learner profile")
		return nil, fmt.Errorf("create learner %s: %w", nationalID, err)
	}
	log.Info().Str("nationalID", nationalID).Msg("Learner profile created")
	return toLearnerResponse(created), nil
}

func (s *learnerService) Authenticate(ctx context.Context, nationalID string) (*model.Learner, error) {
	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, ErrLearnerNotFound
	}
	learner, err := s.learnerRepo.FindByNationalID(ctx, nationalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrLearnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load learner %s: %w", nationalID, err)
	}
	return learner, nil
}

func profileFields(req dto.ProfileRequest) map[string]any {
	fields := make(map[string]any)
	set := func(column string, v *string) {
		if v != nil {
			fields[column] = strings.TrimSpace(*v)
		}
	}
	set("name", req.Name)
	set("course", req.Course)
	set("cohort", req.Cohort)
	set("job_role", req.JobRole)
	set("region", req.Region)
	set("value_chain", req.ValueChain)
	set("stated_challenges", req.StatedChallenges)
	set("notes", req.Notes)
	if req.ProfileCompleted != nil {
		fields["profile_completed"] = *req.ProfileCompleted
	}
	return fields
}

func applyProfile(l *model.Learner, req dto.ProfileRequest) {
	assign := func(dst *string, v *string) {
		if v != nil {
			*dst = strings.TrimSpace(*v)
		}
	}
	assign(&l.Name, req.Name)
	assign(&l.Course, req.Course)
	assign(&l.Cohort, req.Cohort)
	assign(&l.JobRole, req.JobRole)
	assign(&l.Region, req.Region)
	assign(&l.ValueChain, req.ValueChain)
	assign(&l.StatedChallenges, req.StatedChallenges)
	assign(&l.Notes, req.Notes)
	if req.ProfileCompleted != nil {
		l.ProfileCompleted = *req.ProfileCompleted
	}
}

func toLearnerResponse(l *model.Learner) *dto.LearnerResponse {
	var resp dto.LearnerResponse
	copier.Copy(&resp, l)
	return &resp
}
