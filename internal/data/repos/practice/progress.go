package practice

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type UserProgressRepo interface {
	Upsert(dbc dbctx.Context, p *types.UserProgress) error
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error)
}

type userProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	return &userProgressRepo{db: db, log: baseLog.With("repo", "UserProgressRepo")}
}

func (r *userProgressRepo) Upsert(dbc dbctx.Context, p *types.UserProgress) error {
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}},
			UpdateAll: true,
		}).
		Create(p).Error
}

func (r *userProgressRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error) {
	var rows []*types.UserProgress
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}
