package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChallengeKind string

const (
	KindModule ChallengeKind = "macro" // module-level narrative
	KindLesson ChallengeKind = "micro" // weekly lesson continuation
)

func (k ChallengeKind) Valid() bool {
	return k == KindModule || k == KindLesson
}

const (
	GenerationStatusOK = "ok"
)

// Challenge is a generated narrative for one learner and one content unit.
// At most one row exists per (learner, content unit, kind); the unique index enforces it.
type Challenge struct {
	ID                string        `gorm:"primaryKey;size:36" json:"id"`
	LearnerID         string        `json:"learner_id" gorm:"size:20;not null;uniqueIndex:idx_challenge_owner"`
	ContentUnitID     uint          `json:"content_unit_id" gorm:"not null;uniqueIndex:idx_challenge_owner"`
	ContentUnit       ContentUnit   `json:"content_unit,omitempty" gorm:"foreignKey:ContentUnitID"`
	Kind              ChallengeKind `json:"kind" gorm:"size:8;not null;uniqueIndex:idx_challenge_owner"`
	Text              string        `json:"text" gorm:"type:text;not null"`
	Title             string        `json:"title,omitempty"`
	ReleasedToLearner bool          `json:"released_to_learner" gorm:"not null;default:false;index"`
	GenerationStatus  string        `json:"generation_status" gorm:"size:16"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
