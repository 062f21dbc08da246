package practice

import (
	"time"

	"github.com/google/uuid"
)

// UserProgress is a per-user snapshot recomputed whenever a session ends.
type UserProgress struct {
	UserID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	TotalSessions        int       `gorm:"not null;default:0" json:"total_sessions"`
	TotalSpeakingSeconds int       `gorm:"not null;default:0" json:"total_speaking_seconds"`
	MeanAdoption         float64   `gorm:"not null;default:0" json:"mean_adoption"`
	MedianAdoption       float64   `gorm:"not null;default:0" json:"median_adoption"`
	MasteredTargets      int       `gorm:"not null;default:0" json:"mastered_targets"`
	UpdatedAt            time.Time `gorm:"not null" json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }
