package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/parla-backend/internal/data/repos/practice"
	"github.com/yungbote/parla-backend/internal/data/repos/user"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type SessionRepo = practice.SessionRepo
type TargetRepo = practice.TargetRepo
type UserErrorRepo = practice.UserErrorRepo
type ConversationSessionRepo = practice.ConversationSessionRepo
type RecommendedActionRepo = practice.RecommendedActionRepo
type UserProgressRepo = practice.UserProgressRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return practice.NewSessionRepo(db, baseLog)
}
func NewTargetRepo(db *gorm.DB, baseLog *logger.Logger) TargetRepo {
	return practice.NewTargetRepo(db, baseLog)
}
func NewUserErrorRepo(db *gorm.DB, baseLog *logger.Logger) UserErrorRepo {
	return practice.NewUserErrorRepo(db, baseLog)
}
func NewConversationSessionRepo(db *gorm.DB, baseLog *logger.Logger) ConversationSessionRepo {
	return practice.NewConversationSessionRepo(db, baseLog)
}
func NewRecommendedActionRepo(db *gorm.DB, baseLog *logger.Logger) RecommendedActionRepo {
	return practice.NewRecommendedActionRepo(db, baseLog)
}
func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	return practice.NewUserProgressRepo(db, baseLog)
}

// Set bundles every repo the services need.
type Set struct {
	Users           UserRepo
	Sessions        SessionRepo
	Targets         TargetRepo
	Errors          UserErrorRepo
	Conversations   ConversationSessionRepo
	Recommendations RecommendedActionRepo
	Progress        UserProgressRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Users:           NewUserRepo(db, baseLog),
		Sessions:        NewSessionRepo(db, baseLog),
		Targets:         NewTargetRepo(db, baseLog),
		Errors:          NewUserErrorRepo(db, baseLog),
		Conversations:   NewConversationSessionRepo(db, baseLog),
		Recommendations: NewRecommendedActionRepo(db, baseLog),
		Progress:        NewUserProgressRepo(db, baseLog),
	}
}
