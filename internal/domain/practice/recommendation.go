package practice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecommendedAction is a suggested follow-up task for a learner.
type RecommendedAction struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Kind        string     `gorm:"not null;default:'practice'" json:"kind"`
	Completed   bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (RecommendedAction) TableName() string { return "recommended_actions" }

func (r *RecommendedAction) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Kind == "" {
		r.Kind = "practice"
	}
	return nil
}
