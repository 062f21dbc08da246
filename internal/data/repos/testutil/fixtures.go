package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/parla-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, authID string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:          uuid.New(),
		AuthID:      authID,
		DisplayName: "Learner",
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, startedAt time.Time) *types.Session {
	tb.Helper()
	s := &types.Session{
		ID:        uuid.New(),
		UserID:    userID,
		StartedAt: startedAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}

func SeedTarget(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, phrase, status string, plannedAt time.Time) *types.Target {
	tb.Helper()
	t := &types.Target{
		ID:        uuid.New(),
		UserID:    userID,
		Phrase:    phrase,
		Status:    status,
		PlannedAt: plannedAt.UTC(),
	}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed target: %v", err)
	}
	return t
}

func SeedUserError(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, typ, example, correction string, count int, lastSeen time.Time) *types.UserError {
	tb.Helper()
	e := &types.UserError{
		ID:         uuid.New(),
		UserID:     userID,
		Type:       typ,
		Example:    example,
		Correction: correction,
		Count:      count,
		LastSeenAt: lastSeen.UTC(),
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed user error: %v", err)
	}
	return e
}

func SeedRecommendedAction(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, title string) *types.RecommendedAction {
	tb.Helper()
	a := &types.RecommendedAction{
		ID:     uuid.New(),
		UserID: userID,
		Title:  title,
	}
	if err := tx.WithContext(ctx).Create(a).Error; err != nil {
		tb.Fatalf("seed recommended action: %v", err)
	}
	return a
}
