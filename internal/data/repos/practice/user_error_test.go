package practice

import (
	"context"
	"testing"
	"time"

	"github.com/yungbote/parla-backend/internal/data/repos/testutil"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/dbctx"
)

func TestUserErrorRepoRecordAggregates(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewUserErrorRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}
	u := testutil.SeedUser(t, ctx, db, "auth|errors")

	for i := 0; i < 3; i++ {
		row, err := repo.Record(dbc, &types.UserError{
			UserID:     u.ID,
			Type:       types.ErrorGrammar,
			Example:    "I goed home",
			Correction: "I went home",
		})
		if err != nil {
			t.Fatalf("Record #%d: %v", i, err)
		}
		if row.Count != i+1 {
			t.Fatalf("Record #%d count=%d want %d", i, row.Count, i+1)
		}
	}
	if _, err := repo.Record(dbc, &types.UserError{
		UserID: u.ID, Type: types.ErrorVocab, Example: "make a photo", Correction: "take a photo",
	}); err != nil {
		t.Fatalf("Record vocab: %v", err)
	}

	rows, err := repo.ListTop(dbc, u.ID, 10)
	if err != nil {
		t.Fatalf("ListTop: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len=%d want 2", len(rows))
	}
	if rows[0].Type != types.ErrorGrammar || rows[0].Count != 3 {
		t.Fatalf("top row: %+v", rows[0])
	}
}

func TestUserErrorRepoListTopTiesBreakOnRecency(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewUserErrorRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: ctx}
	u := testutil.SeedUser(t, ctx, db, "auth|ties")

	now := time.Now().UTC()
	testutil.SeedUserError(t, ctx, db, u.ID, types.ErrorGrammar, "a", "older", 2, now.Add(-time.Hour))
	testutil.SeedUserError(t, ctx, db, u.ID, types.ErrorGrammar, "b", "newer", 2, now)
	testutil.SeedUserError(t, ctx, db, u.ID, types.ErrorVocab, "c", "rare", 1, now)

	rows, err := repo.ListTop(dbc, u.ID, 2)
	if err != nil {
		t.Fatalf("ListTop: %v", err)
	}
	if len(rows) != 2 || rows[0].Correction != "newer" || rows[1].Correction != "older" {
		t.Fatalf("unexpected order: %+v", rows)
	}
}
