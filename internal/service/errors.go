package service

import "errors"

var (
	ErrLearnerNotFound    = errors.New("learner not found")
	ErrEmptyProfile       = errors.New("no profile fields to update")
	ErrProfileIncomplete  = errors.New("learner profile is not completed")
	ErrChallengeNotFound  = errors.New("challenge not found")
	ErrContentNotFound    = errors.New("content unit not found")
	ErrScheduleNotFound   = errors.New("schedule entry not found")
	ErrAnswerFinalized    = errors.New("challenge already has a finalized answer")
	ErrNoAnswer           = errors.New("no answer submitted for this challenge")
	ErrEvaluationFailed   = errors.New("answer evaluation failed")
	ErrInvalidReleaseTime = errors.New("invalid release timestamp")
	ErrEmptyCohort        = errors.New("cohort must not be empty")
	ErrRunnerClosed       = errors.New("job runner is shutting down")
)
