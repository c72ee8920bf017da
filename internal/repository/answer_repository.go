package repository

import (
	"context"

	"github.com/lshigami/pblagro/internal/model"
	"gorm.io/gorm"
)

type AnswerRepository interface {
	Create(ctx context.Context, answer *model.Answer) error
	Update(ctx context.Context, answer *model.Answer) error
	FindLatest(ctx context.Context, learnerID, challengeID string) (*model.Answer, error)
	FindByChallenge(ctx context.Context, learnerID, challengeID string) ([]model.Answer, error)
}

type answerRepository struct {
	db *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

func (r *answerRepository) Create(ctx context.Context, answer *model.Answer) error {
	return translate(r.db.WithContext(ctx).Create(answer).Error)
}

func (r *answerRepository) Update(ctx context.Context, answer *model.Answer) error {
	return translate(r.db.WithContext(ctx).Save(answer).Error)
}

func (r *answerRepository) FindLatest(ctx context.Context, learnerID, challengeID string) (*model.Answer, error) {
	var answer model.Answer
	err := r.db.WithContext(ctx).
		Where("learner_id = ? AND challenge_id = ?", learnerID, challengeID).
		Order("attempt DESC").
		First(&answer).Error
	if err != nil {
		return nil, translate(err)
	}
	return &answer, nil
}

func (r *answerRepository) FindByChallenge(ctx context.Context, learnerID, challengeID string) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.db.WithContext(ctx).
		Where("learner_id = ? AND challenge_id = ?", learnerID, challengeID).
		Order("attempt ASC").
		Find(&answers).Error
	return answers, translate(err)
}
