package services

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/domain/practice"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

const RecentSessionLimit = 20

type CreateSessionInput struct {
	UserID  uuid.UUID
	Targets []string
}

type SessionProgressInput struct {
	UserTurns       int `json:"userTurns" binding:"min=0,max=10000"`
	AssistantTurns  int `json:"assistantTurns" binding:"min=0,max=10000"`
	SpeakingSeconds int `json:"speakingSeconds" binding:"min=0,max=86400"`
}

type SessionSummaryInput struct {
	UsedTargets []string
	Notes       string
}

type SessionService interface {
	// Create writes the session and plans its targets in one transaction.
	Create(ctx context.Context, in CreateSessionInput) (*types.Session, error)
	UpdateProgress(ctx context.Context, sessionID uuid.UUID, in SessionProgressInput) error
	Summarize(ctx context.Context, sessionID uuid.UUID, in SessionSummaryInput) (*types.Session, error)
	End(ctx context.Context, sessionID uuid.UUID) (*types.Session, error)
	List(ctx context.Context) ([]*types.Session, error)
}

type sessionService struct {
	db          *gorm.DB
	log         *logger.Logger
	sessionRepo repos.SessionRepo
	targetRepo  repos.TargetRepo
	progress    ProgressService
}

func NewSessionService(
	db *gorm.DB,
	log *logger.Logger,
	sessionRepo repos.SessionRepo,
	targetRepo repos.TargetRepo,
	progress ProgressService,
) SessionService {
	return &sessionService{
		db:          db,
		log:         log.With("service", "SessionService"),
		sessionRepo: sessionRepo,
		targetRepo:  targetRepo,
		progress:    progress,
	}
}

func (ss *sessionService) Create(ctx context.Context, in CreateSessionInput) (*types.Session, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	if in.UserID != userID {
		return nil, apierr.Forbidden("userId does not match the authenticated user")
	}

	now := time.Now().UTC().Truncate(time.Microsecond)
	var created *types.Session
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		s, err := ss.sessionRepo.Create(dbc, &types.Session{UserID: userID, StartedAt: now})
		if err != nil {
			return apierr.Internal("failed to create session", err)
		}
		// Later entries get later planned_at so the last listed phrase reads as newest.
		for i, phrase := range in.Targets {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			plannedAt := now.Add(time.Duration(i) * time.Microsecond)
			row, wasCreated, err := ss.targetRepo.Upsert(dbc, &types.Target{
				UserID:    userID,
				Phrase:    phrase,
				Status:    types.TargetPlanned,
				SessionID: &s.ID,
				PlannedAt: plannedAt,
			})
			if err != nil {
				return apierr.Internal("failed to plan targets", err)
			}
			if !wasCreated {
				if err := ss.targetRepo.Replan(dbc, userID, row.ID, &s.ID, plannedAt); err != nil {
					return apierr.Internal("failed to plan targets", err)
				}
			}
		}
		created = s
		return nil
	})
	if err != nil {
		ss.log.Error("Session create failed", "user_id", userID, "error", err)
		return nil, err
	}
	ss.log.Info("Session created", "user_id", userID, "session_id", created.ID, "targets", len(in.Targets))
	return created, nil
}

func (ss *sessionService) UpdateProgress(ctx context.Context, sessionID uuid.UUID, in SessionProgressInput) error {
	userID, err := requireUserID(ctx)
	if err != nil {
		return err
	}
	n, err := ss.sessionRepo.UpdateProgress(dbctx.Of(ctx), userID, sessionID, in.UserTurns, in.AssistantTurns, in.SpeakingSeconds)
	if err != nil {
		return apierr.Internal("failed to update session", err)
	}
	if n == 0 {
		return apierr.NotFound("session not found")
	}
	return nil
}

// Summarize scores target adoption, stores the summary and ends the session.
// A target counts as used when listed in UsedTargets or when it was first used
// after the session started.
func (ss *sessionService) Summarize(ctx context.Context, sessionID uuid.UUID, in SessionSummaryInput) (*types.Session, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}

	var out *types.Session
	err = ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		s, err := ss.sessionRepo.GetByID(dbc, userID, sessionID)
		if err != nil {
			return apierr.Internal("failed to load session", err)
		}
		if s == nil {
			return apierr.NotFound("session not found")
		}
		targets, err := ss.targetRepo.ListBySession(dbc, userID, sessionID)
		if err != nil {
			return apierr.Internal("failed to load session targets", err)
		}

		used := map[string]bool{}
		for _, p := range in.UsedTargets {
			if k := practice.PhraseKey(p); k != "" {
				used[k] = true
			}
		}
		now := time.Now().UTC()
		summary := types.SessionSummary{
			ActiveTargets: []string{},
			UsedTargets:   []string{},
			Notes:         strings.TrimSpace(in.Notes),
		}
		for _, t := range targets {
			summary.ActiveTargets = append(summary.ActiveTargets, t.Phrase)
			usedInSession := t.FirstUsedAt != nil && !t.FirstUsedAt.Before(s.StartedAt)
			if used[t.PhraseKey] {
				usedInSession = true
				if t.Status == types.TargetPlanned {
					if _, err := ss.targetRepo.UpdateStatus(dbc, userID, t.ID, types.TargetAttempted, now); err != nil {
						return apierr.Internal("failed to update target", err)
					}
				}
			}
			if usedInSession {
				summary.UsedTargets = append(summary.UsedTargets, t.Phrase)
			}
		}
		score := AdoptionScore(len(summary.UsedTargets), len(summary.ActiveTargets))

		blob, err := json.Marshal(summary)
		if err != nil {
			return apierr.Internal("failed to encode summary", err)
		}
		endedAt := now
		if s.EndedAt != nil {
			endedAt = *s.EndedAt
		}
		if _, err := ss.sessionRepo.Finish(dbc, userID, sessionID, endedAt, score, datatypes.JSON(blob)); err != nil {
			return apierr.Internal("failed to store summary", err)
		}
		out, err = ss.sessionRepo.GetByID(dbc, userID, sessionID)
		if err != nil {
			return apierr.Internal("failed to load session", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	ss.refreshProgress(ctx, userID)
	return out, nil
}

func (ss *sessionService) End(ctx context.Context, sessionID uuid.UUID) (*types.Session, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.Of(ctx)
	s, err := ss.sessionRepo.GetByID(dbc, userID, sessionID)
	if err != nil {
		return nil, apierr.Internal("failed to load session", err)
	}
	if s == nil {
		return nil, apierr.NotFound("session not found")
	}
	if s.EndedAt != nil {
		return s, nil
	}
	if _, err := ss.sessionRepo.Finish(dbc, userID, sessionID, time.Now().UTC(), nil, nil); err != nil {
		return nil, apierr.Internal("failed to end session", err)
	}
	ss.refreshProgress(ctx, userID)
	return ss.sessionRepo.GetByID(dbc, userID, sessionID)
}

func (ss *sessionService) List(ctx context.Context) ([]*types.Session, error) {
	userID, err := requireUserID(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := ss.sessionRepo.ListRecent(dbctx.Of(ctx), userID, RecentSessionLimit)
	if err != nil {
		return nil, apierr.Internal("failed to list sessions", err)
	}
	return rows, nil
}

func (ss *sessionService) refreshProgress(ctx context.Context, userID uuid.UUID) {
	if ss.progress == nil {
		return
	}
	if _, err := ss.progress.Recompute(ctx, userID); err != nil {
		ss.log.Warn("Progress recompute failed", "user_id", userID, "error", err)
	}
}

// AdoptionScore is used/active, or nil when the session planned nothing.
func AdoptionScore(used, active int) *float64 {
	if active <= 0 {
		return nil
	}
	if used > active {
		used = active
	}
	v := float64(used) / float64(active)
	return &v
}
