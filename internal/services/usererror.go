package services

import (
	"context"
	"strings"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/domain/practice"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

const (
	DefaultErrorLimit = 10
	MaxErrorLimit     = 50
)

type CorrectionInput struct {
	Type       string `json:"type" validate:"required,errtype"`
	Example    string `json:"example" validate:"required,notblank,max=1000"`
	Correction string `json:"correction" validate:"required,notblank,max=1000"`
}

type UserErrorService interface {
	List(ctx context.Context, limit int) ([]*types.UserError, error)
	Record(ctx context.Context, in CorrectionInput) (*types.UserError, error)
}

type userErrorService struct {
	log       *logger.Logger
	userRepo  repos.UserRepo
	errorRepo repos.UserErrorRepo
}

func NewUserErrorService(log *logger.Logger, userRepo repos.UserRepo, errorRepo repos.UserErrorRepo) UserErrorService {
	return &userErrorService{
		log:       log.With("service", "UserErrorService"),
		userRepo:  userRepo,
		errorRepo: errorRepo,
	}
}

// List returns the caller's most frequent mistakes, ties broken by recency.
func (es *userErrorService) List(ctx context.Context, limit int) ([]*types.UserError, error) {
	u, err := currentUser(ctx, es.userRepo)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultErrorLimit
	}
	if limit > MaxErrorLimit {
		limit = MaxErrorLimit
	}
	rows, err := es.errorRepo.ListTop(dbctx.Of(ctx), u.ID, limit)
	if err != nil {
		return nil, apierr.Internal("failed to load errors", err)
	}
	return rows, nil
}

func (es *userErrorService) Record(ctx context.Context, in CorrectionInput) (*types.UserError, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if !practice.ValidErrorType(in.Type) {
		return nil, apierr.BadRequest("invalid correction").WithDetails("type: errtype")
	}
	row, err := es.errorRepo.Record(dbctx.Of(ctx), &types.UserError{
		UserID:     userID,
		Type:       in.Type,
		Example:    strings.TrimSpace(in.Example),
		Correction: strings.TrimSpace(in.Correction),
	})
	if err != nil {
		return nil, apierr.Internal("failed to record correction", err)
	}
	return row, nil
}
