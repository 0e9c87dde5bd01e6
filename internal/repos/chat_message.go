package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cognisync-backend/internal/platform/logger"
	"github.com/yungbote/cognisync-backend/internal/types"
)

type ChatMessageRepo interface {
	Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error)
	GetRecent(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, limit int) ([]*types.ChatMessage, error)
}

type chatMessageRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewChatMessageRepo(db *gorm.DB, baseLog *logger.Logger) ChatMessageRepo {
	return &chatMessageRepo{db: db, log: baseLog.With("repo", "ChatMessageRepo")}
}

func (r *chatMessageRepo) Create(ctx context.Context, tx *gorm.DB, message *types.ChatMessage) (*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	if err := transaction.WithContext(ctx).Create(message).Error; err != nil {
		return nil, err
	}
	return message, nil
}

// GetRecent returns the last `limit` messages in chronological order
// (oldest first), ready to be used as analyzer context.
func (r *chatMessageRepo) GetRecent(ctx context.Context, tx *gorm.DB, learnerID uuid.UUID, limit int) ([]*types.ChatMessage, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.ChatMessage
	if err := transaction.WithContext(ctx).
		Where("learner_id = ?", learnerID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}
