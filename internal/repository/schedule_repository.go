package repository

import (
	"context"

	"github.com/lshigami/pblagro/internal/model"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	Create(ctx context.Context, entry *model.ScheduleEntry) error
	FindByID(ctx context.Context, id uint) (*model.ScheduleEntry, error)
	FindPending(ctx context.Context) ([]model.ScheduleEntry, error)
	FindReleased(ctx context.Context) ([]model.ScheduleEntry, error)
	FindAll(ctx context.Context) ([]model.ScheduleEntry, error)
	FindRecent(ctx context.Context, limit int) ([]model.ScheduleEntry, error)
	FindByContent(ctx context.Context, contentUnitID uint, kind model.ChallengeKind) ([]model.ScheduleEntry, error)
	MarkReleased(ctx context.Context, id uint) error
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, entry *model.ScheduleEntry) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *scheduleRepository) FindByID(ctx context.Context, id uint) (*model.ScheduleEntry, error) {
	var entry model.ScheduleEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, translate(err)
	}
	return &entry, nil
}

func (r *scheduleRepository) FindPending(ctx context.Context) ([]model.ScheduleEntry, error) {
	return r.findWhere(ctx, "released = ?", false)
}

func (r *scheduleRepository) FindReleased(ctx context.Context) ([]model.ScheduleEntry, error) {
	return r.findWhere(ctx, "released = ?", true)
}

func (r *scheduleRepository) FindAll(ctx context.Context) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).Order("id ASC").Find(&entries).Error
	return entries, translate(err)
}

func (r *scheduleRepository) FindRecent(ctx context.Context, limit int) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC").Limit(limit).Find(&entries).Error
	return entries, translate(err)
}

func (r *scheduleRepository) FindByContent(ctx context.Context, contentUnitID uint, kind model.ChallengeKind) ([]model.ScheduleEntry, error) {
	return r.findWhere(ctx, "content_unit_id = ? AND kind = ?", contentUnitID, kind)
}

func (r *scheduleRepository) MarkReleased(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.ScheduleEntry{}).Where("id = ?", id).Update("released", true)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *scheduleRepository) findWhere(ctx context.Context, query string, args ...any) ([]model.ScheduleEntry, error) {
	var entries []model.ScheduleEntry
	err := r.db.WithContext(ctx).Where(query, args...).Order("id ASC").Find(&entries).Error
	return entries, translate(err)
}
