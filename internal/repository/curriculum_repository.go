package repository

import (
	"context"

	"github.com/lshigami/pblagro/internal/model"
	"gorm.io/gorm"
)

type CurriculumRepository interface {
	// FindByCohort returns the cohort's active units in curriculum order. A cohort without a
	// curriculum gets an empty slice.
	FindByCohort(ctx context.Context, cohort string) ([]model.ContentUnit, error)
	// Replace swaps the cohort's curriculum for unitIDs, positioned in the given order.
	Replace(ctx context.Context, cohort string, unitIDs []uint) error
}

type curriculumRepository struct {
	db *gorm.DB
}

func NewCurriculumRepository(db *gorm.DB) CurriculumRepository {
	return &curriculumRepository{db: db}
}

func (r *curriculumRepository) FindByCohort(ctx context.Context, cohort string) ([]model.ContentUnit, error) {
	var units []model.ContentUnit
	err := r.db.WithContext(ctx).
		Joins("JOIN cohort_curricula ON cohort_curricula.content_unit_id = content_units.id").
		Where("cohort_curricula.cohort = ? AND content_units.active = ?", cohort, true).
		Order("cohort_curricula.position ASC").
		Order("content_units.id ASC").
		Find(&units).Error
	return units, translate(err)
}

func (r *curriculumRepository) Replace(ctx context.Context, cohort string, unitIDs []uint) error {
	return translate(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cohort = ?", cohort).Delete(&model.CohortCurriculum{}).Error; err != nil {
			return err
		}
		if len(unitIDs) == 0 {
			return nil
		}
		rows := make([]model.CohortCurriculum, 0, len(unitIDs))
		for i, id := range unitIDs {
			rows = append(rows, model.CohortCurriculum{Cohort: cohort, ContentUnitID: id, Position: i})
		}
		return tx.Create(&rows).Error
	}))
}
