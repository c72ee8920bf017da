package model

import "time"

// CohortCurriculum places a content unit in a cohort's curriculum. A cohort without rows
// follows every active unit.
type CohortCurriculum struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Cohort        string    `json:"cohort" gorm:"not null;uniqueIndex:idx_cohort_unit"`
	ContentUnitID uint      `json:"content_unit_id" gorm:"not null;uniqueIndex:idx_cohort_unit;index"`
	Position      int       `json:"position" gorm:"not null;default:0"`
	CreatedAt     time.Time `json:"created_at"`
}

func (CohortCurriculum) TableName() string {
	return "cohort_curricula"
}
