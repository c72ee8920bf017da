package dto

import "time"

type ChallengeResponse struct {
	ID                string    `json:"id"`
	ContentUnitID     uint      `json:"content_unit_id"`
	Module            string    `json:"module"`
	Lesson            string    `json:"lesson,omitempty"`
	Kind              string    `json:"kind"`
	Title             string    `json:"title,omitempty"`
	Text              string    `json:"text"`
	ReleasedToLearner bool      `json:"released_to_learner"`
	CreatedAt         time.Time `json:"created_at"`
}

// ChallengeListResponse carries Generating=true while a background job is writing the learner's challenges.
type ChallengeListResponse struct {
	Challenges []ChallengeResponse `json:"challenges"`
	Generating bool                `json:"generating"`
}

type ChallengeStatusResponse struct {
	Total      int  `json:"total"`
	Released   bool `json:"released"`
	Generating bool `json:"generating"`
}

type ContentUnitResponse struct {
	ID       uint   `json:"id"`
	Module   string `json:"module"`
	Lesson   string `json:"lesson,omitempty"`
	Active   bool   `json:"active"`
	Position int    `json:"position"`
}

// CurriculumRequest lists a cohort's content units in the order they are studied.
type CurriculumRequest struct {
	ContentUnitIDs []uint `json:"content_unit_ids" binding:"omitempty,dive,required"`
}

type ReleasedContentResponse struct {
	ContentUnitID uint `json:"content_unit_id"`
}

type GenerationTriggerResponse struct {
	Admitted bool `json:"admitted"`
}
