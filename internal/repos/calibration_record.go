package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/types"
)

type CalibrationRecordRepo interface {
	Create(ctx context.Context, tx *gorm.DB, records []*types.CalibrationRecord) ([]*types.CalibrationRecord, error)
	GetByLearner(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, limit int) ([]*types.CalibrationRecord, error)
}

type calibrationRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCalibrationRecordRepo(db *gorm.DB, baseLog *logger.Logger) CalibrationRecordRepo {
	return &calibrationRecordRepo{db: db, log: baseLog.With("repo", "CalibrationRecordRepo")}
}

func (r *calibrationRecordRepo) Create(ctx context.Context, tx *gorm.DB, records []*types.CalibrationRecord) ([]*types.CalibrationRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(records) == 0 {
		return []*types.CalibrationRecord{}, nil
	}
	for _, rec := range records {
		if rec.ID == uuid.Nil {
			rec.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(ctx).Create(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *calibrationRecordRepo) GetByLearner(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, limit int) ([]*types.CalibrationRecord, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.CalibrationRecord
	if err := transaction.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
