package types

import (
	"time"

	"github.com/google/uuid"
)

type Dimension string

const (
	DimensionCognition Dimension = "cognition"
	DimensionAffect    Dimension = "affect"
	DimensionBehavior  Dimension = "behavior"
)

type ConflictLevel string

const (
	ConflictLow    ConflictLevel = "low"
	ConflictMedium ConflictLevel = "medium"
	ConflictHigh   ConflictLevel = "high"
)

// CalibrationRecord captures one dimension of disagreement between the
// system-computed profile and a user-asserted override.
type CalibrationRecord struct {
	ID            uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID     uuid.UUID     `gorm:"type:uuid;not null;index" json:"learner_id"`
	Dimension     Dimension     `gorm:"not null" json:"dimension"`
	SystemValue   int           `gorm:"not null" json:"system_value"`
	UserValue     int           `gorm:"not null" json:"user_value"`
	ConflictLevel ConflictLevel `gorm:"not null" json:"conflict_level"`
	Comment       *string       `gorm:"column:comment" json:"comment,omitempty"`
	TrustRating   *int          `gorm:"column:trust_rating" json:"trust_rating,omitempty"`
	Timestamp     time.Time     `gorm:"not null" json:"timestamp"`
}

func (CalibrationRecord) TableName() string { return "calibration_record" }
