package dto

import "time"

type CreateScheduleRequest struct {
	ContentUnitID uint     `json:"content_unit_id" binding:"required"`
	Cohorts       []string `json:"cohorts" binding:"required,min=1,dive,required"`
	// ReleaseAt is an ISO 8601 timestamp; it is stored as a date and a time of day.
	ReleaseAt  string `json:"release_at" binding:"required"`
	ReleaseNow bool   `json:"release_now"`
}

type ScheduleResponse struct {
	ID            uint      `json:"id"`
	ContentUnitID uint      `json:"content_unit_id"`
	Module        string    `json:"module"`
	Lesson        string    `json:"lesson,omitempty"`
	Kind          string    `json:"kind"`
	Cohorts       []string  `json:"cohorts"`
	ReleaseDate   string    `json:"release_date"`
	ReleaseTime   string    `json:"release_time"`
	Released      bool      `json:"released"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

type SweepResponse struct {
	Evaluated int `json:"evaluated"`
	Released  int `json:"released"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type GenerationReportResponse struct {
	Created  int `json:"created"`
	Existing int `json:"existing"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}
