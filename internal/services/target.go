package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/domain/practice"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

// ActiveTargetLimit is how many active targets the tutor is shown.
const ActiveTargetLimit = 3

type AddTargetInput struct {
	// UserID is the id the client claims to act for; it must match the caller.
	UserID uuid.UUID
	Phrase string
	CEFR   string
	// Strict turns an existing phrase into a Conflict instead of a no-op.
	Strict bool
}

type AddTargetResult struct {
	Target        *types.Target
	AlreadyExists bool
}

type TargetService interface {
	Add(ctx context.Context, in AddTargetInput) (*AddTargetResult, error)
	List(ctx context.Context, status string) ([]*types.Target, error)
	Active(ctx context.Context, limit int) ([]*types.Target, error)
	UpdateStatus(ctx context.Context, targetID uuid.UUID, status string) (*types.Target, error)
	// MarkUsed moves the caller's target for phrase one step forward.
	MarkUsed(ctx context.Context, phrase string) (*types.Target, error)
}

type targetService struct {
	db         *gorm.DB
	log        *logger.Logger
	targetRepo repos.TargetRepo
}

func NewTargetService(db *gorm.DB, log *logger.Logger, targetRepo repos.TargetRepo) TargetService {
	return &targetService{
		db:         db,
		log:        log.With("service", "TargetService"),
		targetRepo: targetRepo,
	}
}

func (ts *targetService) Add(ctx context.Context, in AddTargetInput) (*AddTargetResult, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if in.UserID != userID {
		return nil, apierr.Forbidden("userId does not match the authenticated user")
	}
	phrase := strings.TrimSpace(in.Phrase)
	if phrase == "" {
		return nil, apierr.BadRequest("invalid request body").WithDetails("phrase: required")
	}

	row, created, err := ts.targetRepo.Upsert(dbctx.Of(ctx), &types.Target{
		UserID: userID,
		Phrase: phrase,
		CEFR:   in.CEFR,
		Status: types.TargetPlanned,
	})
	if err != nil {
		return nil, apierr.Internal("failed to add target", err)
	}
	if !created && in.Strict {
		return nil, apierr.Conflict("target already exists").WithDetails(row.ID.String())
	}
	if created {
		ts.log.Info("Target added", "user_id", userID, "target_id", row.ID)
	}
	return &AddTargetResult{Target: row, AlreadyExists: !created}, nil
}

func (ts *targetService) List(ctx context.Context, status string) ([]*types.Target, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if status != "" && !practice.ValidTargetStatus(status) {
		return nil, apierr.BadRequest("invalid status").WithDetails("status: tstatus")
	}
	rows, err := ts.targetRepo.ListByStatus(dbctx.Of(ctx), userID, status, 0)
	if err != nil {
		return nil, apierr.Internal("failed to list targets", err)
	}
	return rows, nil
}

func (ts *targetService) Active(ctx context.Context, limit int) ([]*types.Target, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = ActiveTargetLimit
	}
	rows, err := ts.targetRepo.ListActive(dbctx.Of(ctx), userID, limit)
	if err != nil {
		return nil, apierr.Internal("failed to load active targets", err)
	}
	return rows, nil
}

func (ts *targetService) UpdateStatus(ctx context.Context, targetID uuid.UUID, status string) (*types.Target, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if !practice.ValidTargetStatus(status) {
		return nil, apierr.BadRequest("invalid status").WithDetails("status: tstatus")
	}
	dbc := dbctx.Of(ctx)
	n, err := ts.targetRepo.UpdateStatus(dbc, userID, targetID, status, time.Now().UTC())
	if err != nil {
		return nil, apierr.Internal("failed to update target", err)
	}
	if n == 0 {
		return nil, apierr.NotFound("target not found")
	}
	row, err := ts.targetRepo.GetByID(dbc, userID, targetID)
	if err != nil {
		return nil, apierr.Internal("failed to load target", err)
	}
	if row == nil {
		return nil, apierr.NotFound("target not found")
	}
	return row, nil
}

func (ts *targetService) MarkUsed(ctx context.Context, phrase string) (*types.Target, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	var out *types.Target
	err = ts.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		row, err := ts.targetRepo.GetByPhrase(dbc, userID, phrase)
		if err != nil {
			return apierr.Internal("failed to load target", err)
		}
		if row == nil {
			return apierr.NotFound("target not found")
		}
		next := practice.NextStatus(row.Status)
		if next != row.Status {
			if _, err := ts.targetRepo.UpdateStatus(dbc, userID, row.ID, next, time.Now().UTC()); err != nil {
				return apierr.Internal("failed to update target", err)
			}
		}
		fresh, err := ts.targetRepo.GetByID(dbc, userID, row.ID)
		if err != nil {
			return apierr.Internal("failed to load target", err)
		}
		out = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
