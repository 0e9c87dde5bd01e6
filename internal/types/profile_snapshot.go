package types

import (
	"time"

	"github.com/google/uuid"
)

type ProfileSource string

const (
	ProfileSourceSystem ProfileSource = "system"
	ProfileSourceUser   ProfileSource = "user"
)

// ProfileSnapshot is one immutable three-axis record. The snapshot table is
// append-only: the current profile is the most recent row per
// (learner, source), and the full history doubles as the audit trail.
type ProfileSnapshot struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	LearnerID uuid.UUID     `gorm:"type:uuid;not null;index:idx_snapshot_latest,priority:1" json:"learner_id"`
	Cognition int           `gorm:"not null" json:"cognition"`
	Affect    int           `gorm:"not null" json:"affect"`
	Behavior  int           `gorm:"not null" json:"behavior"`
	Source    ProfileSource `gorm:"not null;index:idx_snapshot_latest,priority:2" json:"source"`
	CreatedAt time.Time     `gorm:"not null;index:idx_snapshot_latest,priority:3,sort:desc" json:"created_at"`
}

func (ProfileSnapshot) TableName() string { return "profile_snapshot" }
