package repository

import (
	"context"

	"github.com/lshigami/pblagro/internal/model"
	"gorm.io/gorm"
)

type LearnerRepository interface {
	FindByNationalID(ctx context.Context, nationalID string) (*model.Learner, error)
	Create(ctx context.Context, learner *model.Learner) error
	UpdateFields(ctx context.Context, nationalID string, fields map[string]any) (*model.Learner, error)
	FindNationalIDsByCohorts(ctx context.Context, cohorts []string) ([]string, error)
	ListCohorts(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int64, error)
}

type learnerRepository struct {
	db *gorm.DB
}

func NewLearnerRepository(db *gorm.DB) LearnerRepository {
	return &learnerRepository{db: db}
}

func (r *learnerRepository) FindByNationalID(ctx context.Context, nationalID string) (*model.Learner, error) {
	var learner model.Learner
	if err := r.db.WithContext(ctx).Where("national_id = ?", nationalID).First(&learner).Error; err != nil {
		return nil, translate(err)
	}
	return &learner, nil
}

func (r *learnerRepository) Create(ctx context.Context, learner *model.Learner) error {
	return translate(r.db.WithContext(ctx).Create(learner).Error)
}

// UpdateFields applies a partial update (only the given columns) and returns the fresh row.
func (r *learnerRepository) UpdateFields(ctx context.Context, nationalID string, fields map[string]any) (*model.Learner, error) {
	res := r.db.WithContext(ctx).Model(&model.Learner{}).Where("national_id = ?", nationalID).Updates(fields)
	if res.Error != nil {
		return nil, translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByNationalID(ctx, nationalID)
}

func (r *learnerRepository) FindNationalIDsByCohorts(ctx context.Context, cohorts []string) ([]string, error) {
	if len(cohorts) == 0 {
		return nil, nil
	}
	var ids []string
	err := r.db.WithContext(ctx).Model(&model.Learner{}).
		Where("cohort IN ?", cohorts).
		Order("national_id").
		Pluck("national_id", &ids).Error
	return ids, translate(err)
}

func (r *learnerRepository) ListCohorts(ctx context.Context) ([]string, error) {
	var cohorts []string
	err := r.db.WithContext(ctx).Model(&model.Learner{}).
		Where("cohort <> ''").
		Distinct("cohort").
		Order("cohort").
		Pluck("cohort", &cohorts).Error
	return cohorts, translate(err)
}

func (r *learnerRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Learner{}).Count(&total).Error
	return total, translate(err)
}
