package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Answer is one attempt of a learner at a challenge.
type Answer struct {
	ID            string    `gorm:"primaryKey;size:36" json:"id"`
	LearnerID     string    `json:"learner_id" gorm:"size:20;not null;uniqueIndex:idx_answer_attempt"`
	ChallengeID   string    `json:"challenge_id" gorm:"size:36;not null;uniqueIndex:idx_answer_attempt"`
	ContentUnitID uint      `json:"content_unit_id" gorm:"not null"`
	Attempt       int       `json:"attempt" gorm:"not null;uniqueIndex:idx_answer_attempt"`
	Text          string    `json:"text" gorm:"type:text;not null"`
	Score         float64   `json:"score"`
	Feedback      string    `json:"feedback" gorm:"type:text"`
	ModelAnswer   string    `json:"model_answer,omitempty" gorm:"type:text"`
	Finalized     bool      `json:"finalized" gorm:"not null;default:false"`
	SubmittedAt   time.Time `json:"submitted_at" gorm:"autoCreateTime"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
