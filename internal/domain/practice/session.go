package practice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Session is one practice conversation. Counters are bumped while the
// conversation runs; EndedAt, AdoptionScore and Summary are set when it ends.
type Session struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;not null;index:idx_sessions_user_started,priority:1" json:"user_id"`
	StartedAt       time.Time      `gorm:"not null;index:idx_sessions_user_started,priority:2" json:"started_at"`
	EndedAt         *time.Time     `json:"ended_at,omitempty"`
	UserTurns       int            `gorm:"not null;default:0" json:"user_turns"`
	AssistantTurns  int            `gorm:"not null;default:0" json:"assistant_turns"`
	SpeakingSeconds int            `gorm:"not null;default:0" json:"speaking_seconds"`
	AdoptionScore   *float64       `json:"adoption_score,omitempty"`
	Summary         datatypes.JSON `json:"summary,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = time.Now().UTC()
	}
	return nil
}

// SessionSummary is the blob stored on Session.Summary.
type SessionSummary struct {
	ActiveTargets []string `json:"active_targets"`
	UsedTargets   []string `json:"used_targets"`
	Notes         string   `json:"notes,omitempty"`
}
