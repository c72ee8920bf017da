// Package release decides when scheduled content becomes visible to a cohort
// and propagates that decision onto the learners' generated challenges.
package release

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lshigami/pblagro/internal/model"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusDue      Status = "due"
	StatusReleased Status = "released"
)

var ErrMalformedSchedule = errors.New("malformed schedule date or time")

var timeLayouts = []string{"15:04:05", "15:04"}

// Instant combines the entry's date and time text into one point in time, read in loc.
// The date may carry a trailing ISO time part ("2025-01-10T00:00:00"), which is ignored.
func Instant(entry *model.ScheduleEntry, loc *time.Location) (time.Time, error) {
	datePart, _, _ := strings.Cut(strings.TrimSpace(entry.ReleaseDate), "T")
	if datePart == "" {
		return time.Time{}, fmt.Errorf("%w: entry %d has no release date", ErrMalformedSchedule, entry.ID)
	}
	day, err := time.ParseInLocation("2006-01-02", datePart, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: entry %d date %q", ErrMalformedSchedule, entry.ID, entry.ReleaseDate)
	}

	clock := strings.TrimSpace(entry.ReleaseTime)
	if clock == "" {
		return time.Time{}, fmt.Errorf("%w: entry %d has no release time", ErrMalformedSchedule, entry.ID)
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, clock)
		if err != nil {
			continue
		}
		return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	return time.Time{}, fmt.Errorf("%w: entry %d time %q", ErrMalformedSchedule, entry.ID, entry.ReleaseTime)
}

// IsDue reports whether the entry is visible at now. The threshold is inclusive:
// an entry is due at exactly its release second.
func IsDue(entry *model.ScheduleEntry, now time.Time, loc *time.Location) (bool, error) {
	if entry.Released {
		return true, nil
	}
	at, err := Instant(entry, loc)
	if err != nil {
		return false, err
	}
	return !now.Before(at), nil
}

func StatusOf(entry *model.ScheduleEntry, now time.Time, loc *time.Location) (Status, error) {
	if entry.Released {
		return StatusReleased, nil
	}
	due, err := IsDue(entry, now, loc)
	if err != nil {
		return StatusPending, err
	}
	if due {
		return StatusDue, nil
	}
	return StatusPending, nil
}
