package practice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, s *types.Session) (*types.Session, error)
	GetByID(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.Session, error)
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Session, error)
	ListEnded(dbc dbctx.Context, userID uuid.UUID) ([]*types.Session, error)
	UpdateProgress(dbc dbctx.Context, userID, sessionID uuid.UUID, userTurns, assistantTurns, speakingSeconds int) (int64, error)
	Finish(dbc dbctx.Context, userID, sessionID uuid.UUID, endedAt time.Time, adoption *float64, summary datatypes.JSON) (int64, error)
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	return &sessionRepo{db: db, log: baseLog.With("repo", "SessionRepo")}
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *types.Session) (*types.Session, error) {
	if err := dbc.DB(r.db).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *sessionRepo) GetByID(dbc dbctx.Context, userID, sessionID uuid.UUID) (*types.Session, error) {
	if userID == uuid.Nil || sessionID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.Session
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *sessionRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.Session, error) {
	out := []*types.Session{}
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *sessionRepo) ListEnded(dbc dbctx.Context, userID uuid.UUID) ([]*types.Session, error) {
	out := []*types.Session{}
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ? AND ended_at IS NOT NULL", userID).
		Order("started_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProgress overwrites the running counters. The user_id predicate keeps
// one learner from touching another's session; zero rows means not found.
func (r *sessionRepo) UpdateProgress(dbc dbctx.Context, userID, sessionID uuid.UUID, userTurns, assistantTurns, speakingSeconds int) (int64, error) {
	res := dbc.DB(r.db).
		Model(&types.Session{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Updates(map[string]any{
			"user_turns":       userTurns,
			"assistant_turns":  assistantTurns,
			"speaking_seconds": speakingSeconds,
			"updated_at":       time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}

func (r *sessionRepo) Finish(dbc dbctx.Context, userID, sessionID uuid.UUID, endedAt time.Time, adoption *float64, summary datatypes.JSON) (int64, error) {
	updates := map[string]any{
		"ended_at":   endedAt,
		"updated_at": time.Now().UTC(),
	}
	if adoption != nil {
		updates["adoption_score"] = *adoption
	}
	if len(summary) > 0 {
		updates["summary"] = summary
	}
	res := dbc.DB(r.db).
		Model(&types.Session{}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Updates(updates)
	return res.RowsAffected, res.Error
}
