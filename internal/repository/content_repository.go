package repository

import (
	"context"

	"github.com/lshigami/pblagro/internal/model"
	"gorm.io/gorm"
)

type ContentRepository interface {
	FindByID(ctx context.Context, id uint) (*model.ContentUnit, error)
	// FindActive returns active units ordered by module, then position. An empty module means all modules.
	FindActive(ctx context.Context, module string) ([]model.ContentUnit, error)
}

type contentRepository struct {
	db *gorm.DB
}

func NewContentRepository(db *gorm.DB) ContentRepository {
	return &contentRepository{db: db}
}

func (r *contentRepository) FindByID(ctx context.Context, id uint) (*model.ContentUnit, error) {
	var unit model.ContentUnit
	if err := r.db.WithContext(ctx).First(&unit, id).Error; err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *contentRepository) FindActive(ctx context.Context, module string) ([]model.ContentUnit, error) {
	var units []model.ContentUnit
	query := r.db.WithContext(ctx).Where("active = ?", true)
	if module != "" {
		query = query.Where("module = ?", module)
	}
	err := query.Order("module ASC").Order("position ASC").Order("id ASC").Find(&units).Error
	return units, translate(err)
}
