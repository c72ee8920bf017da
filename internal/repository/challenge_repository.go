package repository

import (
	"context"

	"github.com/lshigami/pblagro/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeRepository interface {
	// Create inserts a new challenge. A second row for the same (learner, content unit, kind) yields ErrDuplicate.
	Create(ctx context.Context, challenge *model.Challenge) error
	FindByID(ctx context.Context, id string) (*model.Challenge, error)
	FindByLearner(ctx context.Context, learnerID string) ([]model.Challenge, error)
	FindOne(ctx context.Context, learnerID string, contentUnitID uint, kind model.ChallengeKind) (*model.Challenge, error)
	// MarkReleased flips released_to_learner for the matching hidden rows and reports how many it flipped.
	MarkReleased(ctx context.Context, learnerIDs []string, contentUnitID uint, kind model.ChallengeKind) (int64, error)
	CountReleased(ctx context.Context, learnerID string) (int64, error)
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *model.Challenge) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(challenge).Error)
}

func (r *challengeRepository) FindByID(ctx context.Context, id string) (*model.Challenge, error) {
	var challenge model.Challenge
	if err := r.db.WithContext(ctx).Preload("ContentUnit").First(&challenge, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &challenge, nil
}

func (r *challengeRepository) FindByLearner(ctx context.Context, learnerID string) ([]model.Challenge, error) {
	var challenges []model.Challenge
	err := r.db.WithContext(ctx).
		Preload("ContentUnit").
		Where("learner_id = ?", learnerID).
		Order("created_at ASC").
		Find(&challenges).Error
	return challenges, translate(err)
}

func (r *challengeRepository) FindOne(ctx context.Context, learnerID string, contentUnitID uint, kind model.ChallengeKind) (*model.Challenge, error) {
	var challenge model.Challenge
	err := r.db.WithContext(ctx).
		Where("learner_id = ? AND content_unit_id = ? AND kind = ?", learnerID, contentUnitID, kind).
		First(&challenge).Error
	if err != nil {
		return nil, translate(err)
	}
	return &challenge, nil
}

func (r *challengeRepository) MarkReleased(ctx context.Context, learnerIDs []string, contentUnitID uint, kind model.ChallengeKind) (int64, error) {
	if len(learnerIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Model(&model.Challenge{}).
		Where("learner_id IN ? AND content_unit_id = ? AND kind = ?", learnerIDs, contentUnitID, kind).
		Where("released_to_learner = ?", false).
		Update("released_to_learner", true)
	return res.RowsAffected, translate(res.Error)
}

func (r *challengeRepository) CountReleased(ctx context.Context, learnerID string) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Challenge{}).
		Where("learner_id = ? AND released_to_learner = ?", learnerID, true).
		Count(&total).Error
	return total, translate(err)
}
