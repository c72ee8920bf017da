package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/lshigami/pblagro/internal/dto"
	"github.com/lshigami/pblagro/internal/model"
	"github.com/lshigami/pblagro/internal/release"
	"github.com/lshigami/pblagro/internal/repository"
	"github.com/rs/zerolog/log"
)

const recentSchedulesLimit = 100

// Releaser is the part of the release scheduler the admin surface drives.
type Releaser interface {
	Apply(ctx context.Context, entry *model.ScheduleEntry) (int64, error)
	Sweep(ctx context.Context, now time.Time) (release.SweepReport, error)
	ForceRelease(ctx context.Context, entryID uint) (*model.ScheduleEntry, error)
	VisibleFor(ctx context.Context, cohort string, now time.Time) ([]uint, error)
	Location() *time.Location
}

type ScheduleService interface {
	List(ctx context.Context) ([]dto.ScheduleResponse, error)
	Create(ctx context.Context, req dto.CreateScheduleRequest) (*dto.ScheduleResponse, error)
	ForceRelease(ctx context.Context, id uint) (*dto.ScheduleResponse, error)
	Sweep(ctx context.Context) (*dto.SweepResponse, error)
	VisibleContents(ctx context.Context, cohort string) ([]dto.ReleasedContentResponse, error)
	ListContents(ctx context.Context, module string) ([]dto.ContentUnitResponse, error)
	Curriculum(ctx context.Context, cohort string) ([]dto.ContentUnitResponse, error)
	SetCurriculum(ctx context.Context, cohort string, req dto.CurriculumRequest) ([]dto.ContentUnitResponse, error)
	ListCohorts(ctx context.Context) ([]string, error)
	LearnerTotal(ctx context.Context) (int64, error)
}

type scheduleService struct {
	scheduleRepo   repository.ScheduleRepository
	contentRepo    repository.ContentRepository
	curriculumRepo repository.CurriculumRepository
	learnerRepo    repository.LearnerRepository
	releaser       Releaser
	now            func() time.Time
}

func NewScheduleService(
	scheduleRepo repository.ScheduleRepository,
	contentRepo repository.ContentRepository,
	curriculumRepo repository.CurriculumRepository,
	learnerRepo repository.LearnerRepository,
	releaser Releaser,
) ScheduleService {
	return &scheduleService{
		scheduleRepo:   scheduleRepo,
		contentRepo:    contentRepo,
		curriculumRepo: curriculumRepo,
		learnerRepo:    learnerRepo,
		releaser:       releaser,
		now:            time.Now,
	}
}

func (s *scheduleService) List(ctx context.Context) ([]dto.ScheduleResponse, error) {
	entries, err := s.scheduleRepo.FindRecent(ctx, recentSchedulesLimit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list schedule entries")
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	out := make([]dto.ScheduleResponse, 0, len(entries))
	for i := range entries {
		out = append(out, s.toResponse(&entries[i]))
	}
	return out, nil
}

// Create stores a schedule entry for a content unit. ReleaseNow applies it immediately.
func (s *scheduleService) Create(ctx context.Context, req dto.CreateScheduleRequest) (*dto.ScheduleResponse, error) {
	unit, err := s.contentRepo.FindByID(ctx, req.ContentUnitID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrContentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load content unit %d: %w", req.ContentUnitID, err)
	}

	at, err := parseReleaseAt(req.ReleaseAt, s.releaser.Location())
	if err != nil {
		return nil, err
	}

	entry := &model.ScheduleEntry{
		ContentUnitID: unit.ID,
		Module:        unit.Module,
		Lesson:        unit.Lesson,
		Kind:          unit.Kind(),
		Cohorts:       normalizeCohorts(req.Cohorts),
		ReleaseDate:   at.Format("2006-01-02"),
		ReleaseTime:   at.Format("15:04:05"),
	}
	if err := s.scheduleRepo.Create(ctx, entry); err != nil {
		log.Error().Err(err).Uint("contentUnitID", unit.ID).Msg("Failed to create schedule entry")
		return nil, fmt.Errorf("create schedule entry: %w", err)
	}
	log.Info().
		Uint("entryID", entry.ID).
		Uint("contentUnitID", unit.ID).
		Strs("cohorts", entry.Cohorts).
		Str("releaseAt", entry.ReleaseDate+" "+entry.ReleaseTime).
		Bool("releaseNow", req.ReleaseNow).
		Msg("Schedule entry created")

	if req.ReleaseNow {
		if _, err := s.releaser.Apply(ctx, entry); err != nil {
			return nil, fmt.Errorf("entry %d created but immediate release failed: %w", entry.ID, err)
		}
	}
	resp := s.toResponse(entry)
	return &resp, nil
}

func (s *scheduleService) ForceRelease(ctx context.Context, id uint) (*dto.ScheduleResponse, error) {
	entry, err := s.releaser.ForceRelease(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrScheduleNotFound
	}
	if err != nil {
		log.Error().Err(err).Uint("entryID", id).Msg("Forced release failed")
		return nil, err
	}
	resp := s.toResponse(entry)
	return &resp, nil
}

func (s *scheduleService) Sweep(ctx context.Context) (*dto.SweepResponse, error) {
	report, err := s.releaser.Sweep(ctx, s.now().In(s.releaser.Location()))
	if err != nil {
		return nil, err
	}
	var resp dto.SweepResponse
	copier.Copy(&resp, &report)
	return &resp, nil
}

func (s *scheduleService) VisibleContents(ctx context.Context, cohort string) ([]dto.ReleasedContentResponse, error) {
	ids, err := s.releaser.VisibleFor(ctx, strings.TrimSpace(cohort), s.now().In(s.releaser.Location()))
	if err != nil {
		return nil, err
	}
	out := make([]dto.ReleasedContentResponse, 0, len(ids))
	for _, id := range ids {
		out = append(out, dto.ReleasedContentResponse{ContentUnitID: id})
	}
	return out, nil
}

func (s *scheduleService) ListContents(ctx context.Context, module string) ([]dto.ContentUnitResponse, error) {
	units, err := s.contentRepo.FindActive(ctx, module)
	if err != nil {
		return nil, fmt.Errorf("list contents: %w", err)
	}
	out := make([]dto.ContentUnitResponse, 0, len(units))
	copier.Copy(&out, &units)
	return out, nil
}

func (s *scheduleService) Curriculum(ctx context.Context, cohort string) ([]dto.ContentUnitResponse, error) {
	units, err := s.curriculumRepo.FindByCohort(ctx, strings.TrimSpace(cohort))
	if err != nil {
		return nil, fmt.Errorf("load curriculum: %w", err)
	}
	out := make([]dto.ContentUnitResponse, 0, len(units))
	copier.Copy(&out, &units)
	return out, nil
}

// SetCurriculum replaces the cohort's curriculum. Every unit must exist; an empty list clears the
// curriculum so the cohort follows every active unit again.
func (s *scheduleService) SetCurriculum(ctx context.Context, cohort string, req dto.CurriculumRequest) ([]dto.ContentUnitResponse, error) {
	cohort = strings.TrimSpace(cohort)
	if cohort == "" {
		return nil, ErrEmptyCohort
	}

	seen := make(map[uint]bool, len(req.ContentUnitIDs))
	ids := make([]uint, 0, len(req.ContentUnitIDs))
	for _, id := range req.ContentUnitIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := s.contentRepo.FindByID(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, fmt.Errorf("%w: %d", ErrContentNotFound, id)
			}
			return nil, fmt.Errorf("load content unit %d: %w", id, err)
		}
		ids = append(ids, id)
	}

	if err := s.curriculumRepo.Replace(ctx, cohort, ids); err != nil {
		log.Error().Err(err).Str("cohort", cohort).Msg("Failed to store curriculum")
		return nil, fmt.Errorf("store curriculum: %w", err)
	}
	log.Info().Str("cohort", cohort).Int("units", len(ids)).Msg("Cohort curriculum replaced")
	return s.Curriculum(ctx, cohort)
}

func (s *scheduleService) ListCohorts(ctx context.Context) ([]string, error) {
	cohorts, err := s.learnerRepo.ListCohorts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	if cohorts == nil {
		cohorts = []string{}
	}
	return cohorts, nil
}

func (s *scheduleService) LearnerTotal(ctx context.Context) (int64, error) {
	return s.learnerRepo.Count(ctx)
}

func (s *scheduleService) toResponse(e *model.ScheduleEntry) dto.ScheduleResponse {
	status, err := release.StatusOf(e, s.now(), s.releaser.Location())
	if err != nil {
		status = release.StatusPending
	}
	return dto.ScheduleResponse{
		ID:            e.ID,
		ContentUnitID: e.ContentUnitID,
		Module:        e.Module,
		Lesson:        e.Lesson,
		Kind:          string(e.Kind),
		Cohorts:       []string(e.Cohorts),
		ReleaseDate:   e.ReleaseDate,
		ReleaseTime:   e.ReleaseTime,
		Released:      e.Released,
		Status:        string(status),
		CreatedAt:     e.CreatedAt,
	}
}

var releaseLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseReleaseAt reads an ISO 8601 timestamp. Timestamps with an offset are converted to loc;
// timestamps without one are read as wall-clock time in loc.
func parseReleaseAt(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.In(loc).Truncate(time.Second), nil
	}
	for _, layout := range releaseLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidReleaseTime, raw)
}

func normalizeCohorts(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
