package release

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/rs/zerolog/log"
)

var ErrSweepInProgress = errors.New("release sweep already in progress")

// Notifier is told about cohorts that just gained access to a content unit.
type Notifier interface {
	ContentReleased(cohort string, entry *model.ScheduleEntry)
}

type SweepReport struct {
	Evaluated int `json:"evaluated"`
	Released  int `json:"released"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type Scheduler struct {
	schedules  repository.ScheduleRepository
	learners   repository.LearnerRepository
	challenges repository.ChallengeRepository
	loc        *time.Location
	notifier   Notifier

	sweeping sync.Mutex
}

func NewScheduler(
	schedules repository.ScheduleRepository,
	learners repository.LearnerRepository,
	challenges repository.ChallengeRepository,
	loc *time.Location,
	notifier Notifier,
) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		schedules:  schedules,
		learners:   learners,
		challenges: challenges,
		loc:        loc,
		notifier:   notifier,
	}
}

func (s *Scheduler) Location() *time.Location {
	return s.loc
}

// Apply flips released_to_learner on every challenge of the entry's (content unit, kind)
// owned by a learner of a targeted cohort, then marks the entry released. Reapplying is a no-op.
// Challenges inserted while the entry was still pending are flipped by a second pass once the
// entry is marked; generation rechecks the entry after its insert, so no row stays hidden.
func (s *Scheduler) Apply(ctx context.Context, entry *model.ScheduleEntry) (int64, error) {
	ids, err := s.learners.FindNationalIDsByCohorts(ctx, entry.Cohorts)
	if err != nil {
		return 0, fmt.Errorf("find learners for entry %d: %w", entry.ID, err)
	}
	if len(ids) == 0 {
		log.Warn().Uint("entryID", entry.ID).Strs("cohorts", entry.Cohorts).Msg("No learners in targeted cohorts")
	}

	flipped, err := s.challenges.MarkReleased(ctx, ids, entry.ContentUnitID, entry.Kind)
	if err != nil {
		return 0, fmt.Errorf("release challenges for entry %d: %w", entry.ID, err)
	}

	wasReleased := entry.Released
	if !wasReleased {
		if err := s.schedules.MarkReleased(ctx, entry.ID); err != nil {
			return flipped, fmt.Errorf("mark entry %d released: %w", entry.ID, err)
		}
		entry.Released = true

		late, err := s.challenges.MarkReleased(ctx, ids, entry.ContentUnitID, entry.Kind)
		if err != nil {
			return flipped, fmt.Errorf("release late challenges for entry %d: %w", entry.ID, err)
		}
		flipped += late
	}

	log.Info().
		Uint("entryID", entry.ID).
		Uint("contentUnitID", entry.ContentUnitID).
		Str("kind", string(entry.Kind)).
		Int("learners", len(ids)).
		Int64("challenges", flipped).
		Msg("Schedule entry applied")

	if s.notifier != nil && !wasReleased {
		for _, cohort := range entry.Cohorts {
			s.notifier.ContentReleased(cohort, entry)
		}
	}
	return flipped, nil
}

// Sweep evaluates every pending entry once. Each entry succeeds or fails on its own.
// A call made while another sweep is running returns ErrSweepInProgress immediately.
func (s *Scheduler) Sweep(ctx context.Context, now time.Time) (SweepReport, error) {
	var report SweepReport
	if !s.sweeping.TryLock() {
		return report, ErrSweepInProgress
	}
	defer s.sweeping.Unlock()

	pending, err := s.schedules.FindPending(ctx)
	if err != nil {
		return report, fmt.Errorf("load pending schedule entries: %w", err)
	}

	for i := range pending {
		entry := &pending[i]
		report.Evaluated++

		due, err := IsDue(entry, now, s.loc)
		if err != nil {
			report.Skipped++
			log.Warn().Err(err).Uint("entryID", entry.ID).Msg("Skipping schedule entry")
			continue
		}
		if !due {
			continue
		}
		if _, err := s.Apply(ctx, entry); err != nil {
			report.Failed++
			log.Error().Err(err).Uint("entryID", entry.ID).Msg("Failed to apply schedule entry")
			continue
		}
		report.Released++
	}

	if report.Released > 0 || report.Skipped > 0 || report.Failed > 0 {
		log.Info().
			Int("evaluated", report.Evaluated).
			Int("released", report.Released).
			Int("skipped", report.Skipped).
			Int("failed", report.Failed).
			Msg("Release sweep finished")
	}
	return report, nil
}

// ForceRelease applies an entry regardless of its date and time.
func (s *Scheduler) ForceRelease(ctx context.Context, entryID uint) (*model.ScheduleEntry, error) {
	entry, err := s.schedules.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.Apply(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Str("timezone", s.loc.String()).Msg("Release scheduler started")
	for {
		if _, err := s.Sweep(ctx, time.Now().In(s.loc)); err != nil && !errors.Is(err, ErrSweepInProgress) {
			log.Error().Err(err).Msg("Release sweep failed")
		}
		select {
		case <-ctx.Done():
			log.Info().Msg("Release scheduler stopped")
			return
		case <-ticker.C:
		}
	}
}

// VisibleFor returns the content unit ids a cohort can see at now, in schedule order without repeats.
func (s *Scheduler) VisibleFor(ctx context.Context, cohort string, now time.Time) ([]uint, error) {
	entries, err := s.schedules.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load schedule entries: %w", err)
	}

	seen := make(map[uint]struct{})
	var ids []uint
	for i := range entries {
		entry := &entries[i]
		if !entry.Targets(cohort) {
			continue
		}
		due, err := IsDue(entry, now, s.loc)
		if err != nil {
			log.Debug().Err(err).Uint("entryID", entry.ID).Msg("Ignoring malformed schedule entry")
			continue
		}
		if !due {
			continue
		}
		if _, ok := seen[entry.ContentUnitID]; ok {
			continue
		}
		seen[entry.ContentUnitID] = struct{}{}
		ids = append(ids, entry.ContentUnitID)
	}
	return ids, nil
}

// AlreadyReleased reports whether a released entry already covers (content unit, kind) for the cohort.
func (s *Scheduler) AlreadyReleased(ctx context.Context, contentUnitID uint, kind model.ChallengeKind, cohort string) (bool, error) {
	if cohort == "" {
		return false, nil
	}
	entries, err := s.schedules.FindByContent(ctx, contentUnitID, kind)
	if err != nil {
		return false, err
	}
	for i := range entries {
		if entries[i].Released && entries[i].Targets(cohort) {
			return true, nil
		}
	}
	return false, nil
}
