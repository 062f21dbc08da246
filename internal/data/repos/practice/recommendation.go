package practice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type RecommendedActionRepo interface {
	Create(dbc dbctx.Context, actions []*types.RecommendedAction) ([]*types.RecommendedAction, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.RecommendedAction, error)
	MarkComplete(dbc dbctx.Context, userID, id uuid.UUID, now time.Time) (*types.RecommendedAction, error)
	DeleteAllByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error)
}

type recommendedActionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRecommendedActionRepo(db *gorm.DB, baseLog *logger.Logger) RecommendedActionRepo {
	return &recommendedActionRepo{db: db, log: baseLog.With("repo", "RecommendedActionRepo")}
}

func (r *recommendedActionRepo) Create(dbc dbctx.Context, actions []*types.RecommendedAction) ([]*types.RecommendedAction, error) {
	if len(actions) == 0 {
		return []*types.RecommendedAction{}, nil
	}
	if err := dbc.DB(r.db).Create(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

func (r *recommendedActionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.RecommendedAction, error) {
	out := []*types.RecommendedAction{}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("completed ASC").
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkComplete returns nil, nil when the action does not exist or belongs to
// someone else.
func (r *recommendedActionRepo) MarkComplete(dbc dbctx.Context, userID, id uuid.UUID, now time.Time) (*types.RecommendedAction, error) {
	res := dbc.DB(r.db).
		Model(&types.RecommendedAction{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{
			"completed":    true,
			"completed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	var row types.RecommendedAction
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *recommendedActionRepo) DeleteAllByUser(dbc dbctx.Context, userID uuid.UUID) (int64, error) {
	res := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Delete(&types.RecommendedAction{})
	return res.RowsAffected, res.Error
}
