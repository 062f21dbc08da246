package domain

import (
	"github.com/yungbote/parla-backend/internal/domain/practice"
	"github.com/yungbote/parla-backend/internal/domain/user"
)

type User = user.User

type Session = practice.Session
type SessionSummary = practice.SessionSummary
type Target = practice.Target
type UserError = practice.UserError
type ConversationSession = practice.ConversationSession
type Utterance = practice.Utterance
type RecommendedAction = practice.RecommendedAction
type UserProgress = practice.UserProgress

const (
	TargetPlanned   = practice.TargetPlanned
	TargetAttempted = practice.TargetAttempted
	TargetMastered  = practice.TargetMastered

	ErrorGrammar       = practice.ErrorGrammar
	ErrorVocab         = practice.ErrorVocab
	ErrorPronunciation = practice.ErrorPronunciation

	RoleUser      = practice.RoleUser
	RoleAssistant = practice.RoleAssistant

	DefaultCEFRLevel    = user.DefaultCEFRLevel
	CorrectionImmediate = user.CorrectionImmediate
	CorrectionDeferred  = user.CorrectionDeferred
	CorrectionOff       = user.CorrectionOff
)

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Session{},
		&Target{},
		&UserError{},
		&ConversationSession{},
		&RecommendedAction{},
		&UserProgress{},
	}
}
