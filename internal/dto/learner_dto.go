package dto

import "time"

type LoginRequest struct {
	NationalID string `json:"national_id" binding:"required"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Learner   LearnerResponse `json:"learner"`
}

// ProfileRequest is a partial update: nil fields are left untouched.
type ProfileRequest struct {
	Name             *string `json:"name"`
	Course           *string `json:"course"`
	Cohort           *string `json:"cohort"`
	JobRole          *string `json:"job_role"`
	Region           *string `json:"region"`
	ValueChain       *string `json:"value_chain"`
	StatedChallenges *string `json:"stated_challenges"`
	Notes            *string `json:"notes"`
	ProfileCompleted *bool   `json:"profile_completed"`
}

type LearnerResponse struct {
	NationalID       string    `json:"national_id"`
	Name             string    `json:"name"`
	Course           string    `json:"course"`
	Cohort           string    `json:"cohort"`
	Role             string    `json:"role"`
	JobRole          string    `json:"job_role"`
	Region           string    `json:"region"`
	ValueChain       string    `json:"value_chain"`
	StatedChallenges string    `json:"stated_challenges"`
	Notes            string    `json:"notes"`
	ProfileCompleted bool      `json:"profile_completed"`
	UpdatedAt        time.Time `json:"updated_at"`
}
