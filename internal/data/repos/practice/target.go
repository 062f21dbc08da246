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

type TargetRepo interface {
	// Upsert inserts the target unless (user, phrase key) already exists, in
	// which case the stored row is returned with created=false.
	Upsert(dbc dbctx.Context, t *types.Target) (row *types.Target, created bool, err error)
	// Replan puts an existing target back into planned for a new session,
	// clearing any mastery.
	Replan(dbc dbctx.Context, userID, targetID uuid.UUID, sessionID *uuid.UUID, plannedAt time.Time) error
	GetByID(dbc dbctx.Context, userID, targetID uuid.UUID) (*types.Target, error)
	GetByPhrase(dbc dbctx.Context, userID uuid.UUID, phrase string) (*types.Target, error)
	ListActive(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Target, error)
	ListByStatus(dbc dbctx.Context, userID uuid.UUID, status string, limit int) ([]*types.Target, error)
	ListBySession(dbc dbctx.Context, userID, sessionID uuid.UUID) ([]*types.Target, error)
	UpdateStatus(dbc dbctx.Context, userID, targetID uuid.UUID, status string, now time.Time) (int64, error)
	CountByStatus(dbc dbctx.Context, userID uuid.UUID, status string) (int64, error)
}

type targetRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTargetRepo(db *gorm.DB, baseLog *logger.Logger) TargetRepo {
	return &targetRepo{db: db, log: baseLog.With("repo", "TargetRepo")}
}

func (r *targetRepo) Upsert(dbc dbctx.Context, t *types.Target) (*types.Target, bool, error) {
	t.PhraseKey = practice.PhraseKey(t.Phrase)
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "phrase_key"}},
			DoNothing: true,
		}).
		Create(t)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return t, true, nil
	}
	existing, err := r.GetByPhrase(dbc, t.UserID, t.Phrase)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, gorm.ErrRecordNotFound
	}
	return existing, false, nil
}

func (r *targetRepo) Replan(dbc dbctx.Context, userID, targetID uuid.UUID, sessionID *uuid.UUID, plannedAt time.Time) error {
	updates := map[string]any{
		"status":      types.TargetPlanned,
		"mastered_at": nil,
		"planned_at":  plannedAt,
		"updated_at":  time.Now().UTC(),
	}
	if sessionID != nil {
		updates["session_id"] = *sessionID
	}
	return dbc.DB(r.db).
		Model(&types.Target{}).
		Where("id = ? AND user_id = ?", targetID, userID).
		Updates(updates).Error
}

func (r *targetRepo) GetByID(dbc dbctx.Context, userID, targetID uuid.UUID) (*types.Target, error) {
	var rows []*types.Target
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", targetID, userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *targetRepo) GetByPhrase(dbc dbctx.Context, userID uuid.UUID, phrase string) (*types.Target, error) {
	key := practice.PhraseKey(phrase)
	if userID == uuid.Nil || key == "" {
		return nil, nil
	}
	var rows []*types.Target
	if err := dbc.DB(r.db).
		Where("user_id = ? AND phrase_key = ?", userID, key).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ListActive returns planned and attempted targets, most recently planned first.
func (r *targetRepo) ListActive(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Target, error) {
	out := []*types.Target{}
	q := dbc.DB(r.db).
		Where("user_id = ? AND status <> ?", userID, types.TargetMastered).
		Order("planned_at DESC").
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStatus lists every status when status is empty.
func (r *targetRepo) ListByStatus(dbc dbctx.Context, userID uuid.UUID, status string, limit int) ([]*types.Target, error) {
	out := []*types.Target{}
	q := dbc.DB(r.db).Where("user_id = ?", userID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	q = q.Order("planned_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *targetRepo) ListBySession(dbc dbctx.Context, userID, sessionID uuid.UUID) ([]*types.Target, error) {
	out := []*types.Target{}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("planned_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus stamps first_used_at on the first move out of planned and
// mastered_at when the target is mastered.
func (r *targetRepo) UpdateStatus(dbc dbctx.Context, userID, targetID uuid.UUID, status string, now time.Time) (int64, error) {
	updates := map[string]any{
		"status":     status,
		"updated_at": now,
	}
	if status != types.TargetPlanned {
		updates["first_used_at"] = gorm.Expr("COALESCE(first_used_at, ?)", now)
	}
	if status == types.TargetMastered {
		updates["mastered_at"] = now
	} else {
		updates["mastered_at"] = nil
	}
	res := dbc.DB(r.db).
		Model(&types.Target{}).
		Where("id = ? AND user_id = ?", targetID, userID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *targetRepo) CountByStatus(dbc dbctx.Context, userID uuid.UUID, status string) (int64, error) {
	var n int64
	if err := dbc.DB(r.db).
		Model(&types.Target{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
