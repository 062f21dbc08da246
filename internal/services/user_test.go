package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/yungbote/parla-backend/internal/data/repos/testutil"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
)

func TestUpdatePreferencesPartial(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|prefs")

	level := "C1"
	got, err := env.users.UpdatePreferences(ctx, PreferencesUpdate{CEFRLevel: &level})
	if err != nil {
		t.Fatalf("UpdatePreferences: %v", err)
	}
	if got.CEFRLevel != "C1" || got.CorrectionMode != u.CorrectionMode || got.DisplayName != u.DisplayName {
		t.Fatalf("unexpected profile: %+v", got)
	}

	bad := "Z9"
	if _, err := env.users.UpdatePreferences(ctx, PreferencesUpdate{CEFRLevel: &bad}); apierr.StatusOf(err) != http.StatusBadRequest {
		t.Fatalf("status=%d want 400", apierr.StatusOf(err))
	}
}

func TestUserErrorsLimitAndOrder(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|errs")
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 7; i++ {
		testutil.SeedUserError(t, ctx, env.db, u.ID, types.ErrorVocab, "ex", string(rune('a'+i)), i%3+1, base.Add(time.Duration(i)*time.Minute))
	}

	rows, err := env.errors.List(ctx, 5)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("len=%d want 5", len(rows))
	}
	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if prev.Count < cur.Count || (prev.Count == cur.Count && prev.LastSeenAt.Before(cur.LastSeenAt)) {
			t.Fatalf("rows out of order at %d: %+v then %+v", i, prev, cur)
		}
	}
	if all, _ := env.errors.List(ctx, 500); len(all) != 7 {
		t.Fatalf("clamped list len=%d want 7", len(all))
	}
}

func TestSummarizeProgress(t *testing.T) {
	score := func(v float64) *float64 { return &v }
	ended := []*types.Session{
		{SpeakingSeconds: 30, AdoptionScore: score(0.2)},
		{SpeakingSeconds: 60, AdoptionScore: score(1)},
		{SpeakingSeconds: 10, AdoptionScore: score(0.3)},
		{SpeakingSeconds: 5},
	}
	snap := SummarizeProgress(ended[0].UserID, ended, 2)
	if snap.TotalSessions != 4 || snap.TotalSpeakingSeconds != 105 || snap.MasteredTargets != 2 {
		t.Fatalf("unexpected totals: %+v", snap)
	}
	if snap.MeanAdoption < 0.49 || snap.MeanAdoption > 0.51 {
		t.Fatalf("mean=%v want 0.5", snap.MeanAdoption)
	}
	if snap.MedianAdoption != 0.3 {
		t.Fatalf("median=%v want 0.3", snap.MedianAdoption)
	}
}
