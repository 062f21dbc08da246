package practice

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type ConversationSessionRepo interface {
	Create(dbc dbctx.Context, c *types.ConversationSession) (*types.ConversationSession, error)
	GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.ConversationSession, error)
	ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ConversationSession, error)
}

type conversationSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationSessionRepo(db *gorm.DB, baseLog *logger.Logger) ConversationSessionRepo {
	return &conversationSessionRepo{db: db, log: baseLog.With("repo", "ConversationSessionRepo")}
}

func (r *conversationSessionRepo) Create(dbc dbctx.Context, c *types.ConversationSession) (*types.ConversationSession, error) {
	if err := dbc.DB(r.db).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

func (r *conversationSessionRepo) GetByID(dbc dbctx.Context, userID, id uuid.UUID) (*types.ConversationSession, error) {
	var rows []*types.ConversationSession
	if err := dbc.DB(r.db).
		Where("id = ? AND user_id = ?", id, userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *conversationSessionRepo) ListRecent(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ConversationSession, error) {
	out := []*types.ConversationSession{}
	q := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
