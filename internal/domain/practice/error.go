package practice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ErrorGrammar       = "grammar"
	ErrorVocab         = "vocab"
	ErrorPronunciation = "pron"
)

// UserError aggregates one recurring mistake. (UserID, Type, CorrectionKey) is
// unique; Count and LastSeenAt move on every repeat.
type UserError struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_errors_user_type_key,priority:1" json:"user_id"`
	Type          string    `gorm:"not null;uniqueIndex:idx_errors_user_type_key,priority:2" json:"type"`
	Example       string    `gorm:"not null" json:"example"`
	Correction    string    `gorm:"not null" json:"correction"`
	CorrectionKey string    `gorm:"column:correction_key;not null;uniqueIndex:idx_errors_user_type_key,priority:3" json:"-"`
	Count         int       `gorm:"column:occurrence_count;not null;default:1" json:"count"`
	LastSeenAt    time.Time `gorm:"not null" json:"last_seen_at"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (UserError) TableName() string { return "errors" }

func (e *UserError) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.Count <= 0 {
		e.Count = 1
	}
	if e.LastSeenAt.IsZero() {
		e.LastSeenAt = time.Now().UTC()
	}
	e.CorrectionKey = PhraseKey(e.Correction)
	return nil
}

func ValidErrorType(s string) bool {
	switch s {
	case ErrorGrammar, ErrorVocab, ErrorPronunciation:
		return true
	}
	return false
}
