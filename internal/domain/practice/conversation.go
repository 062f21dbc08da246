package practice

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Utterance is one role-tagged line of a transcript.
type Utterance struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// ConversationSession is a saved transcript plus generated feedback. Rows are
// written once and never updated.
type ConversationSession struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index:idx_conv_user_created,priority:1" json:"user_id"`
	WeekID         int            `gorm:"not null" json:"week_id"`
	FocusAreas     datatypes.JSON `json:"focus_areas"`
	Transcript     datatypes.JSON `gorm:"not null" json:"transcript"`
	InsightSummary string         `json:"insight_summary,omitempty"`
	Feedback       string         `json:"feedback"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_conv_user_created,priority:2" json:"created_at"`
}

func (ConversationSession) TableName() string { return "conversation_sessions" }

func (c *ConversationSession) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Utterances decodes the stored transcript.
func (c *ConversationSession) Utterances() ([]Utterance, error) {
	var out []Utterance
	if len(c.Transcript) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(c.Transcript, &out); err != nil {
		return nil, err
	}
	return out, nil
}
