package model

import (
	"time"

	"gorm.io/gorm"
)

const (
	RoleStudent = "student"
	RoleAdmin   = "admin"
)

// Learner is one MBA student, keyed by national id (CPF).
type Learner struct {
	ID               uint           `gorm:"primarykey" json:"id"`
	NationalID       string         `json:"national_id" gorm:"size:20;not null;uniqueIndex"`
	Name             string         `json:"name"`
	Course           string         `json:"course"`
	Cohort           string         `json:"cohort" gorm:"index"`
	Role             string         `json:"role" gorm:"not null;default:'student'"`
	JobRole          string         `json:"job_role"`
	Region           string         `json:"region"`
	ValueChain       string         `json:"value_chain"`
	StatedChallenges string         `json:"stated_challenges" gorm:"type:text"`
	Notes            string         `json:"notes" gorm:"type:text"`
	ProfileCompleted bool           `json:"profile_completed" gorm:"not null;default:false"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (l *Learner) IsAdmin() bool {
	return l.Role == RoleAdmin
}
