package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/types"
)

type LearnerRepo interface {
	Create(ctx context.Context, tx *gorm.DB, learner *types.Learner) (*types.Learner, error)
	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Learner, error)
	GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Learner, error)
}

type learnerRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearnerRepo(db *gorm.DB, baseLog *logger.Logger) LearnerRepo {
	return &learnerRepo{db: db, log: baseLog.With("repo", "LearnerRepo")}
}

func (r *learnerRepo) Create(ctx context.Context, tx *gorm.DB, learner *types.Learner) (*types.Learner, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if learner.ID == uuid.Nil {
		learner.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(learner).Error; err != nil {
		return nil, err
	}
	return learner, nil
}

func (r *learnerRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.Learner, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Learner
	err := transaction.WithContext(ctx).Where("id = ?", id).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *learnerRepo) GetByEmail(ctx context.Context, tx *gorm.DB, email string) (*types.Learner, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.Learner
	err := transaction.WithContext(ctx).Where("email = ?", email).First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}
