package repos

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/types"
)

type ProfileSnapshotRepo interface {
	Create(ctx context.Context, tx *gorm.DB, snapshot *types.ProfileSnapshot) (*types.ProfileSnapshot, error)
	GetLatest(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, source types.ProfileSource) (*types.ProfileSnapshot, error)
	GetRecent(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, limit int) ([]*types.ProfileSnapshot, error)
}

type profileSnapshotRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileSnapshotRepo(db *gorm.DB, baseLog *logger.Logger) ProfileSnapshotRepo {
	return &profileSnapshotRepo{db: db, log: baseLog.With("repo", "ProfileSnapshotRepo")}
}

func (r *profileSnapshotRepo) Create(ctx context.Context, tx *gorm.DB, snapshot *types.ProfileSnapshot) (*types.ProfileSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if snapshot.ID == uuid.Nil {
		snapshot.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (r *profileSnapshotRepo) GetLatest(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, source types.ProfileSource) (*types.ProfileSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var result types.ProfileSnapshot
	err := transaction.WithContext(ctx).
		Where("learner_id = ? AND source = ?", learnerID, source).
		Order("created_at DESC").
		First(&result).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *profileSnapshotRepo) GetRecent(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, limit int) ([]*types.ProfileSnapshot, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ProfileSnapshot
	if err := transaction.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
