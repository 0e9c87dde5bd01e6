package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatMessage is one dialogue turn. Assistant messages carry the full
// analysis payload for audit; user messages do not.
type ChatMessage struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID uuid.UUID      `gorm:"type:uuid;not null;index" json:"learner_id"`
	Role      MessageRole    `gorm:"not null" json:"role"`
	Text      string         `gorm:"not null" json:"text"`
	Timestamp time.Time      `gorm:"not null;index" json:"timestamp"`
	Analysis  datatypes.JSON `gorm:"type:jsonb" json:"analysis,omitempty"`
}

func (ChatMessage) TableName() string { return "chat_message" }
