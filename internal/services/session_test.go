package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
)

func TestSessionCreatePlansTargetsNewestLast(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|sess")

	s, err := env.sessions.Create(ctx, CreateSessionInput{UserID: u.ID, Targets: []string{"a", "b", "c", " "}})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, s.ID)

	active, err := env.targets.Active(ctx, ActiveTargetLimit)
	require.NoError(t, err)
	var got []string
	for _, tg := range active {
		got = append(got, tg.Phrase)
		require.NotNil(t, tg.SessionID)
		require.Equal(t, s.ID, *tg.SessionID)
	}
	if diff := cmp.Diff([]string{"c", "b", "a"}, got); diff != "" {
		t.Fatalf("active order mismatch (-want +got):\n%s", diff)
	}

	// Re-planning an existing phrase moves it to the front without a duplicate.
	s2, err := env.sessions.Create(ctx, CreateSessionInput{UserID: u.ID, Targets: []string{"A"}})
	require.NoError(t, err)
	active, err = env.targets.Active(ctx, 10)
	require.NoError(t, err)
	require.Len(t, active, 3)
	require.Equal(t, "a", active[0].Phrase)
	require.Equal(t, s2.ID, *active[0].SessionID)
}

func TestSessionCreateRejectsForeignUser(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.seedCaller(t, "auth|owner")

	_, err := env.sessions.Create(ctx, CreateSessionInput{UserID: uuid.New(), Targets: []string{"x"}})
	require.Equal(t, http.StatusForbidden, apierr.StatusOf(err))

	all, err := env.targets.List(ctx, "")
	require.NoError(t, err)
	require.Empty(t, all)
	sessions, err := env.sessions.List(ctx)
	require.NoError(t, err)
	require.Empty(t, sessions)
}

func TestSessionSummarizeScoresAdoption(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|sum")

	s, err := env.sessions.Create(ctx, CreateSessionInput{UserID: u.ID, Targets: []string{"break the ice", "in the long run", "by and large", "on the fence"}})
	require.NoError(t, err)

	// Used through the tool path during the session.
	_, err = env.targets.MarkUsed(ctx, "on the fence")
	require.NoError(t, err)

	require.NoError(t, env.sessions.UpdateProgress(ctx, s.ID, SessionProgressInput{UserTurns: 4, AssistantTurns: 5, SpeakingSeconds: 90}))

	out, err := env.sessions.Summarize(ctx, s.ID, SessionSummaryInput{UsedTargets: []string{"Break  the ICE"}, Notes: "good"})
	require.NoError(t, err)
	require.NotNil(t, out.EndedAt)
	require.NotNil(t, out.AdoptionScore)
	require.InDelta(t, 0.5, *out.AdoptionScore, 1e-9)

	var summary types.SessionSummary
	require.NoError(t, json.Unmarshal(out.Summary, &summary))
	require.ElementsMatch(t, []string{"break the ice", "on the fence"}, summary.UsedTargets)
	require.Len(t, summary.ActiveTargets, 4)

	tg, err := env.repos.Targets.GetByPhrase(dbctx.Of(ctx), u.ID, "break the ice")
	require.NoError(t, err)
	require.Equal(t, types.TargetAttempted, tg.Status)

	progress, err := env.progress.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, progress.TotalSessions)
	require.Equal(t, 90, progress.TotalSpeakingSeconds)
	require.InDelta(t, 0.5, progress.MeanAdoption, 1e-9)
}

func TestSessionOwnershipOnUpdates(t *testing.T) {
	env := newTestEnv(t)
	ownerCtx, owner := env.seedCaller(t, "auth|a")
	otherCtx, _ := env.seedCaller(t, "auth|b")

	s, err := env.sessions.Create(ownerCtx, CreateSessionInput{UserID: owner.ID})
	require.NoError(t, err)

	err = env.sessions.UpdateProgress(otherCtx, s.ID, SessionProgressInput{UserTurns: 1})
	require.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
	_, err = env.sessions.Summarize(otherCtx, s.ID, SessionSummaryInput{})
	require.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
	_, err = env.sessions.End(otherCtx, s.ID)
	require.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestSessionEndIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|end")
	s, err := env.sessions.Create(ctx, CreateSessionInput{UserID: u.ID})
	require.NoError(t, err)

	first, err := env.sessions.End(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, first.EndedAt)
	require.Nil(t, first.AdoptionScore)

	second, err := env.sessions.End(ctx, s.ID)
	require.NoError(t, err)
	require.True(t, first.EndedAt.Equal(*second.EndedAt))
}

func TestAdoptionScore(t *testing.T) {
	if AdoptionScore(0, 0) != nil {
		t.Fatal("expected nil score with no active targets")
	}
	if got := *AdoptionScore(3, 2); got != 1 {
		t.Fatalf("score=%v want capped at 1", got)
	}
	if got := *AdoptionScore(1, 4); got != 0.25 {
		t.Fatalf("score=%v want 0.25", got)
	}
}

func TestSessionRequiresCaller(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.sessions.List(context.Background())
	if apierr.StatusOf(err) != http.StatusUnauthorized {
		t.Fatalf("status=%d want 401", apierr.StatusOf(err))
	}
}
