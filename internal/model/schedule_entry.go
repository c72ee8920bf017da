package model

import (
	"time"

	"gorm.io/datatypes"
)

// ScheduleEntry gates when a content unit becomes visible to a set of cohorts.
// Date and time are kept as text, exactly as the admin panel writes them; parsing happens in the release package.
type ScheduleEntry struct {
	ID            uint                        `gorm:"primarykey" json:"id"`
	ContentUnitID uint                        `json:"content_unit_id" gorm:"not null;index"`
	Module        string                      `json:"module"`
	Lesson        string                      `json:"lesson,omitempty"`
	Kind          ChallengeKind               `json:"kind" gorm:"size:8;not null"`
	Cohorts       datatypes.JSONSlice[string] `json:"cohorts"`
	ReleaseDate   string                      `json:"release_date" gorm:"size:32"`
	ReleaseTime   string                      `json:"release_time" gorm:"size:16"`
	Released      bool                        `json:"released" gorm:"not null;default:false;index"`
	CreatedAt     time.Time                   `json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
}

func (e *ScheduleEntry) Targets(cohort string) bool {
	for _, c := range e.Cohorts {
		if c == cohort {
			return true
		}
	}
	return false
}
