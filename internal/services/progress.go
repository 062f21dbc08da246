package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/parla-backend/internal/data/repos"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type ProgressService interface {
	Get(ctx context.Context) (*types.UserProgress, error)
	Recompute(ctx context.Context, userID uuid.UUID) (*types.UserProgress, error)
}

type progressService struct {
	log          *logger.Logger
	userRepo     repos.UserRepo
	sessionRepo  repos.SessionRepo
	targetRepo   repos.TargetRepo
	progressRepo repos.UserProgressRepo
}

func NewProgressService(
	log *logger.Logger,
	userRepo repos.UserRepo,
	sessionRepo repos.SessionRepo,
	targetRepo repos.TargetRepo,
	progressRepo repos.UserProgressRepo,
) ProgressService {
	return &progressService{
		log:          log.With("service", "ProgressService"),
		userRepo:     userRepo,
		sessionRepo:  sessionRepo,
		targetRepo:   targetRepo,
		progressRepo: progressRepo,
	}
}

// Get returns the stored snapshot, or an empty one if no session has ended yet.
func (ps *progressService) Get(ctx context.Context) (*types.UserProgress, error) {
	u, err := currentUser(ctx, ps.userRepo)
	if err != nil {
		return nil, err
	}
	row, err := ps.progressRepo.Get(dbctx.Of(ctx), u.ID)
	if err != nil {
		return nil, apierr.Internal("failed to load progress", err)
	}
	if row == nil {
		return &types.UserProgress{UserID: u.ID, UpdatedAt: u.CreatedAt}, nil
	}
	return row, nil
}

func (ps *progressService) Recompute(ctx context.Context, userID uuid.UUID) (*types.UserProgress, error) {
	dbc := dbctx.Of(ctx)

	var (
		ended    []*types.Session
		mastered int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := ps.sessionRepo.ListEnded(dbctx.Of(gctx), userID)
		ended = rows
		return err
	})
	g.Go(func() error {
		n, err := ps.targetRepo.CountByStatus(dbctx.Of(gctx), userID, types.TargetMastered)
		mastered = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, apierr.Internal("failed to load progress inputs", err)
	}

	snap := SummarizeProgress(userID, ended, int(mastered))
	if err := ps.progressRepo.Upsert(dbc, snap); err != nil {
		return nil, apierr.Internal("failed to store progress", err)
	}
	ps.log.Debug("Progress recomputed", "user_id", userID, "sessions", snap.TotalSessions)
	return snap, nil
}

// SummarizeProgress folds ended sessions into a snapshot. Sessions without an
// adoption score are counted but left out of the adoption statistics.
func SummarizeProgress(userID uuid.UUID, ended []*types.Session, mastered int) *types.UserProgress {
	snap := &types.UserProgress{
		UserID:          userID,
		TotalSessions:   len(ended),
		MasteredTargets: mastered,
		UpdatedAt:       time.Now().UTC(),
	}
	var scores stats.Float64Data
	for _, s := range ended {
		snap.TotalSpeakingSeconds += s.SpeakingSeconds
		if s.AdoptionScore != nil {
			scores = append(scores, *s.AdoptionScore)
		}
	}
	if len(scores) > 0 {
		if mean, err := stats.Mean(scores); err == nil {
			snap.MeanAdoption = mean
		}
		if median, err := stats.Median(scores); err == nil {
			snap.MedianAdoption = median
		}
	}
	return snap
}
