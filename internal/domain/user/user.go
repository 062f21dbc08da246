package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CorrectionImmediate = "immediate"
	CorrectionDeferred  = "deferred"
	CorrectionOff       = "off"

	DefaultCEFRLevel = "B1"
)

// CEFRLevels lists the accepted proficiency levels, lowest first.
var CEFRLevels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

// User is the learner profile. AuthID is the stable subject issued by the
// external identity provider; rows are created at signup outside this service.
type User struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AuthID         string    `gorm:"column:auth_id;uniqueIndex;not null" json:"auth_id"`
	DisplayName    string    `gorm:"column:display_name" json:"display_name"`
	CEFRLevel      string    `gorm:"column:cefr_level;not null;default:'B1'" json:"cefr_level"`
	CorrectionMode string    `gorm:"column:correction_mode;not null;default:'immediate'" json:"correction_mode"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string { return "users" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CEFRLevel == "" {
		u.CEFRLevel = DefaultCEFRLevel
	}
	if u.CorrectionMode == "" {
		u.CorrectionMode = CorrectionImmediate
	}
	return nil
}
