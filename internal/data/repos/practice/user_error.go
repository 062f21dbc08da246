package practice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/domain/practice"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type UserErrorRepo interface {
	// Record inserts a new aggregate or bumps count/last_seen_at on the
	// existing (user, type, correction) row in one statement.
	Record(dbc dbctx.Context, e *types.UserError) (*types.UserError, error)
	ListTop(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserError, error)
}

type userErrorRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserErrorRepo(db *gorm.DB, baseLog *logger.Logger) UserErrorRepo {
	return &userErrorRepo{db: db, log: baseLog.With("repo", "UserErrorRepo")}
}

func (r *userErrorRepo) Record(dbc dbctx.Context, e *types.UserError) (*types.UserError, error) {
	now := time.Now().UTC()
	e.LastSeenAt = now
	e.CorrectionKey = practice.PhraseKey(e.Correction)
	if err := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "type"}, {Name: "correction_key"}},
			DoUpdates: clause.Assignments(map[string]any{
				"occurrence_count": gorm.Expr("errors.occurrence_count + 1"),
				"last_seen_at":     now,
				"example":          e.Example,
			}),
		}).
		Create(e).Error; err != nil {
		return nil, err
	}

	var row types.UserError
	if err := dbc.DB(r.db).
		Where("user_id = ? AND type = ? AND correction_key = ?", e.UserID, e.Type, e.CorrectionKey).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListTop orders by occurrence count, then recency.
func (r *userErrorRepo) ListTop(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.UserError, error) {
	out := []*types.UserError{}
	q := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("occurrence_count DESC").
		Order("last_seen_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
