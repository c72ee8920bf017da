package model

import (
	"time"

	"gorm.io/gorm"
)

// ContentUnit is one curriculum node. Module-level units have no lesson name.
type ContentUnit struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	Module    string         `json:"module" gorm:"not null;index"`
	Lesson    string         `json:"lesson,omitempty"`
	Syllabus  string         `json:"syllabus,omitempty" gorm:"type:text"`
	Active    bool           `json:"active" gorm:"not null;default:true;index"`
	Position  int            `json:"position" gorm:"not null;default:0"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *ContentUnit) IsModuleLevel() bool {
	return c.Lesson == ""
}

func (c *ContentUnit) Kind() ChallengeKind {
	if c.IsModuleLevel() {
		return KindModule
	}
	return KindLesson
}
