package services

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/ctxutil"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
	"github.com/yungbote/parla-backend/internal/platform/validate"
)

// PreferencesUpdate is a partial profile update; nil fields are left alone.
type PreferencesUpdate struct {
	DisplayName    *string `json:"displayName" binding:"omitempty,max=100" validate:"omitempty,max=100"`
	CEFRLevel      *string `json:"cefrLevel" binding:"omitempty,cefr" validate:"omitempty,cefr"`
	CorrectionMode *string `json:"correctionMode" binding:"omitempty,correction_mode" validate:"omitempty,correction_mode"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	UpdatePreferences(ctx context.Context, in PreferencesUpdate) (*types.User, error)
}

type userService struct {
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(log *logger.Logger, userRepo repos.UserRepo) UserService {
	return &userService{
		log:      log.With("service", "UserService"),
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(ctx context.Context) (*types.User, error) {
	return currentUser(ctx, us.userRepo)
}

func (us *userService) UpdatePreferences(ctx context.Context, in PreferencesUpdate) (*types.User, error) {
	u, err := currentUser(ctx, us.userRepo)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(in); err != nil {
		return nil, apierr.BadRequest("invalid preferences").WithDetails(validate.Describe(err))
	}
	updates := map[string]any{}
	if in.DisplayName != nil {
		updates["display_name"] = strings.TrimSpace(*in.DisplayName)
	}
	if in.CEFRLevel != nil {
		updates["cefr_level"] = *in.CEFRLevel
	}
	if in.CorrectionMode != nil {
		updates["correction_mode"] = *in.CorrectionMode
	}
	if len(updates) == 0 {
		return u, nil
	}
	dbc := dbctx.Of(ctx)
	if err := us.userRepo.UpdateFields(dbc, u.ID, updates); err != nil {
		return nil, apierr.Internal("failed to update preferences", err)
	}
	fresh, err := us.userRepo.GetByID(dbc, u.ID)
	if err != nil {
		return nil, apierr.Internal("failed to load profile", err)
	}
	if fresh == nil {
		return nil, apierr.NotFound("profile not found")
	}
	us.log.Info("Preferences updated", "user_id", u.ID, "fields", len(updates))
	return fresh, nil
}

// currentUser loads the caller's profile from the request context.
func currentUser(ctx context.Context, userRepo repos.UserRepo) (*types.User, error) {
	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		return nil, apierr.Unauthorized("not authenticated")
	}
	u, err := userRepo.GetByID(dbctx.Of(ctx), userID)
	if err != nil {
		return nil, apierr.Internal("failed to load profile", err)
	}
	if u == nil {
		return nil, apierr.NotFound("profile not found")
	}
	return u, nil
}

// requireUserID returns the caller id without a database read.
func requireUserID(ctx context.Context) (uuid.UUID, error) {
	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		return uuid.Nil, apierr.Unauthorized("not authenticated")
	}
	return userID, nil
}
