package dto

import "time"

type EvaluateRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
}

type EvaluationResponse struct {
	Score       float64 `json:"score"`
	Approved    bool    `json:"approved"`
	Feedback    string  `json:"feedback"`
	ModelAnswer string  `json:"model_answer,omitempty"`
}

type SubmitAnswerRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
	Answer      string `json:"answer" binding:"required"`
}

type FinalizeAnswerRequest struct {
	ChallengeID string `json:"challenge_id" binding:"required"`
}

type AnswerResponse struct {
	ID           string    `json:"id"`
	ChallengeID  string    `json:"challenge_id"`
	Attempt      int       `json:"attempt"`
	Text         string    `json:"text"`
	Score        float64   `json:"score"`
	Approved     bool      `json:"approved"`
	Feedback     string    `json:"feedback"`
	ModelAnswer  string    `json:"model_answer,omitempty"`
	Finalized    bool      `json:"finalized"`
	AttemptsLeft int       `json:"attempts_left"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
