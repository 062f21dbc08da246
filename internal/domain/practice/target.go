package practice

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TargetPlanned   = "planned"
	TargetAttempted = "attempted"
	TargetMastered  = "mastered"
)

// Target is a phrase the learner is practicing. (UserID, PhraseKey) is unique.
// PlannedAt orders the active list and moves when a session re-plans the phrase.
type Target struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_targets_user_phrase,priority:1" json:"user_id"`
	Phrase      string     `gorm:"not null" json:"phrase"`
	PhraseKey   string     `gorm:"column:phrase_key;not null;uniqueIndex:idx_targets_user_phrase,priority:2" json:"-"`
	CEFR        string     `gorm:"column:cefr" json:"cefr,omitempty"`
	Status      string     `gorm:"not null;default:'planned';index" json:"status"`
	SessionID   *uuid.UUID `gorm:"type:uuid;index" json:"session_id,omitempty"`
	PlannedAt   time.Time  `gorm:"not null;index" json:"planned_at"`
	FirstUsedAt *time.Time `json:"first_used_at,omitempty"`
	MasteredAt  *time.Time `json:"mastered_at,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Target) TableName() string { return "targets" }

func (t *Target) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TargetPlanned
	}
	t.PhraseKey = PhraseKey(t.Phrase)
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	if t.PlannedAt.IsZero() {
		t.PlannedAt = t.CreatedAt
	}
	return nil
}

// PhraseKey normalizes a phrase for uniqueness: trimmed, lower-cased, inner
// whitespace collapsed.
func PhraseKey(phrase string) string {
	return strings.ToLower(strings.Join(strings.Fields(phrase), " "))
}

// NextStatus is the forward-only step applied when a target is used in
// conversation.
func NextStatus(current string) string {
	switch current {
	case TargetPlanned:
		return TargetAttempted
	case TargetAttempted, TargetMastered:
		return TargetMastered
	default:
		return TargetAttempted
	}
}

func ValidTargetStatus(s string) bool {
	switch s {
	case TargetPlanned, TargetAttempted, TargetMastered:
		return true
	}
	return false
}
