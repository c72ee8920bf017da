package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/llm"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/rs/zerolog/log"
)

// PassingScore is the lowest approved grade.
const PassingScore = 7.0

type AnswerService interface {
	Evaluate(ctx context.Context, nationalID string, req dto.EvaluateRequest) (*dto.EvaluationResponse, error)
	Submit(ctx context.Context, nationalID string, req dto.SubmitAnswerRequest) (*dto.AnswerResponse, error)
	Finalize(ctx context.Context, nationalID, challengeID string) (*dto.AnswerResponse, error)
	ListAttempts(ctx context.Context, nationalID, challengeID string) ([]dto.AnswerResponse, error)
}

type answerService struct {
	challengeRepo repository.ChallengeRepository
	answerRepo    repository.AnswerRepository
	llmClient     llm.Client
	prompts       *llm.Prompts
	maxAttempts   int
}

func NewAnswerService(
	challengeRepo repository.ChallengeRepository,
	answerRepo repository.AnswerRepository,
	llmClient llm.Client,
	prompts *llm.Prompts,
	maxAttempts int,
) AnswerService {
	if maxAttempts < 1 {
		maxAttempts = 3
	}
	return &answerService{
		challengeRepo: challengeRepo,
		answerRepo:    answerRepo,
		llmClient:     llmClient,
		prompts:       prompts,
		maxAttempts:   maxAttempts,
	}
}

// Evaluate grades an answer without storing it.
func (s *answerService) Evaluate(ctx context.Context, nationalID string, req dto.EvaluateRequest) (*dto.EvaluationResponse, error) {
	challenge, err := s.challenge(ctx, nationalID, req.ChallengeID)
	if err != nil {
		return nil, err
	}
	latest, err := s.latest(ctx, nationalID, challenge.ID)
	if err != nil {
		return nil, err
	}
	next := 1
	if latest != nil {
		next = latest.Attempt + 1
	}

	eval, err := s.evaluate(ctx, challenge.Text, req.Answer, next >= s.maxAttempts)
	if err != nil {
		return nil, err
	}
	return &dto.EvaluationResponse{
		Score:       eval.Score,
		Approved:    eval.Score >= PassingScore,
		Feedback:    eval.Feedback,
		ModelAnswer: eval.ModelAnswer,
	}, nil
}

// Submit grades and stores the next attempt. The attempt that reaches the limit is final
// and carries the model answer. Nothing is stored when grading fails.
func (s *answerService) Submit(ctx context.Context, nationalID string, req dto.SubmitAnswerRequest) (*dto.AnswerResponse, error) {
	challenge, err := s.challenge(ctx, nationalID, req.ChallengeID)
	if err != nil {
		return nil, err
	}
	latest, err := s.latest(ctx, nationalID, challenge.ID)
	if err != nil {
		return nil, err
	}
	attempt := 1
	if latest != nil {
		if latest.Finalized {
			return nil, ErrAnswerFinalized
		}
		attempt = latest.Attempt + 1
	}
	final := attempt >= s.maxAttempts

	eval, err := s.evaluate(ctx, challenge.Text, req.Answer, final)
	if err != nil {
		return nil, err
	}

	answer := &model.Answer{
		LearnerID:     nationalID,
		ChallengeID:   challenge.ID,
		ContentUnitID: challenge.ContentUnitID,
		Attempt:       attempt,
		Text:          req.Answer,
		Score:         eval.Score,
		Feedback:      eval.Feedback,
		Finalized:     final,
	}
	if final {
		answer.ModelAnswer = eval.ModelAnswer
	}
	if err := s.answerRepo.Create(ctx, answer); err != nil {
		log.Error().Err(err).Str("nationalID", nationalID).Str("challengeID", challenge.ID).Int("attempt", attempt).Msg("Failed to store answer")
		return nil, fmt.Errorf("store attempt %d: %w", attempt, err)
	}

	log.Info().
		Str("nationalID", nationalID).
		Str("challengeID", challenge.ID).
		Int("attempt", attempt).
		Float64("score", eval.Score).
		Bool("finalized", final).
		Msg("Answer submitted")
	resp := s.toResponse(answer)
	return &resp, nil
}

// Finalize grades the latest attempt as definitive and attaches the model answer.
// An already finalized attempt is returned as it is.
func (s *answerService) Finalize(ctx context.Context, nationalID, challengeID string) (*dto.AnswerResponse, error) {
	challenge, err := s.challenge(ctx, nationalID, challengeID)
	if err != nil {
		return nil, err
	}
	latest, err := s.latest(ctx, nationalID, challenge.ID)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		return nil, ErrNoAnswer
	}
	if latest.Finalized {
		resp := s.toResponse(latest)
		return &resp, nil
	}

	eval, err := s.evaluate(ctx, challenge.Text, latest.Text, true)
	if err != nil {
		return nil, err
	}
	latest.Score = eval.Score
	latest.Feedback = eval.Feedback
	latest.ModelAnswer = eval.ModelAnswer
	latest.Finalized = true
	if err := s.answerRepo.Update(ctx, latest); err != nil {
		log.Error().Err(err).Str("answerID", latest.ID).Msg("Failed to finalize answer")
		return nil, fmt.Errorf("finalize answer %s: %w", latest.ID, err)
	}

	log.Info().Str("nationalID", nationalID).Str("challengeID", challenge.ID).Int("attempt", latest.Attempt).Msg("Answer finalized")
	resp := s.toResponse(latest)
	return &resp, nil
}

func (s *answerService) ListAttempts(ctx context.Context, nationalID, challengeID string) ([]dto.AnswerResponse, error) {
	if _, err := s.challenge(ctx, nationalID, challengeID); err != nil {
		return nil, err
	}
	answers, err := s.answerRepo.FindByChallenge(ctx, nationalID, challengeID)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]dto.AnswerResponse, 0, len(answers))
	for i := range answers {
		out = append(out, s.toResponse(&answers[i]))
	}
	return out, nil
}

// challenge loads a challenge the learner can see. Other learners' and unreleased challenges read as missing.
func (s *answerService) challenge(ctx context.Context, nationalID, challengeID string) (*model.Challenge, error) {
	c, err := s.challengeRepo.FindByID(ctx, challengeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrChallengeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load challenge %s: %w", challengeID, err)
	}
	if c.LearnerID != nationalID || !c.ReleasedToLearner {
		return nil, ErrChallengeNotFound
	}
	return c, nil
}

func (s *answerService) latest(ctx context.Context, nationalID, challengeID string) (*model.Answer, error) {
	a, err := s.answerRepo.FindLatest(ctx, nationalID, challengeID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load latest attempt: %w", err)
	}
	return a, nil
}

func (s *answerService) evaluate(ctx context.Context, challengeText, answer string, final bool) (llm.Evaluation, error) {
	req, err := s.prompts.Evaluation.Request(llm.EvaluationInput{Challenge: challengeText, Answer: answer, Final: final})
	if err != nil {
		return llm.Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}
	raw, err := s.llmClient.Complete(ctx, req)
	if err != nil {
		log.Error().Err(err).Msg("Answer evaluation call failed")
		return llm.Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}
	eval, err := llm.ParseEvaluation(raw)
	if err != nil {
		log.Error().Err(err).Str("raw", raw).Msg("Could not parse evaluation")
		return llm.Evaluation{}, fmt.Errorf("%w: %v", ErrEvaluationFailed, err)
	}
	return eval, nil
}

func (s *answerService) toResponse(a *model.Answer) dto.AnswerResponse {
	left := s.maxAttempts - a.Attempt
	if left < 0 || a.Finalized {
		left = 0
	}
	return dto.AnswerResponse{
		ID:           a.ID,
		ChallengeID:  a.ChallengeID,
		Attempt:      a.Attempt,
		Text:         a.Text,
		Score:        a.Score,
		Approved:     a.Score >= PassingScore,
		Feedback:     a.Feedback,
		ModelAnswer:  a.ModelAnswer,
		Finalized:    a.Finalized,
		AttemptsLeft: left,
		SubmittedAt:  a.SubmittedAt,
	}
}
