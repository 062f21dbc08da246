package services

import (
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
)

func TestAddTargetIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|t")

	first, err := env.targets.Add(ctx, AddTargetInput{UserID: u.ID, Phrase: "Break the ice"})
	require.NoError(t, err)
	require.False(t, first.AlreadyExists)
	require.Equal(t, types.TargetPlanned, first.Target.Status)

	second, err := env.targets.Add(ctx, AddTargetInput{UserID: u.ID, Phrase: "  break   the ice "})
	require.NoError(t, err)
	require.True(t, second.AlreadyExists)
	require.Equal(t, first.Target.ID, second.Target.ID)

	_, err = env.targets.Add(ctx, AddTargetInput{UserID: u.ID, Phrase: "break the ice", Strict: true})
	var ae *apierr.Error
	require.ErrorAs(t, err, &ae)
	require.Equal(t, http.StatusConflict, ae.Status)
	require.Equal(t, first.Target.ID.String(), ae.Details)

	all, err := env.targets.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestAddTargetConcurrentDuplicates(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|race")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.targets.Add(ctx, AddTargetInput{UserID: u.ID, Phrase: "in the long run"})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	all, err := env.targets.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestAddTargetForbiddenAndInvalid(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|f")

	_, err := env.targets.Add(ctx, AddTargetInput{UserID: uuid.New(), Phrase: "x"})
	require.Equal(t, http.StatusForbidden, apierr.StatusOf(err))
	_, err = env.targets.Add(ctx, AddTargetInput{UserID: u.ID, Phrase: "   "})
	require.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
	_, err = env.targets.List(ctx, "forgotten")
	require.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
}

func TestMarkUsedMovesForwardOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|m")
	_, err := env.targets.Add(ctx, AddTargetInput{UserID: u.ID, Phrase: "by and large"})
	require.NoError(t, err)

	want := []string{types.TargetAttempted, types.TargetMastered, types.TargetMastered}
	for _, status := range want {
		tg, err := env.targets.MarkUsed(ctx, "By and large")
		require.NoError(t, err)
		require.Equal(t, status, tg.Status)
		require.NotNil(t, tg.FirstUsedAt)
	}
	tg, err := env.targets.MarkUsed(ctx, "by and large")
	require.NoError(t, err)
	require.NotNil(t, tg.MasteredAt)

	_, err = env.targets.MarkUsed(ctx, "never planned")
	require.Equal(t, http.StatusNotFound, apierr.StatusOf(err))
}

func TestUpdateStatusOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|o1")
	otherCtx, _ := env.seedCaller(t, "auth|o2")
	res, err := env.targets.Add(ctx, AddTargetInput{UserID: u.ID, Phrase: "on the fence"})
	require.NoError(t, err)

	_, err = env.targets.UpdateStatus(otherCtx, res.Target.ID, types.TargetMastered)
	require.Equal(t, http.StatusNotFound, apierr.StatusOf(err))

	tg, err := env.targets.UpdateStatus(ctx, res.Target.ID, types.TargetMastered)
	require.NoError(t, err)
	require.Equal(t, types.TargetMastered, tg.Status)
	require.NotNil(t, tg.MasteredAt)

	active, err := env.targets.Active(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, active)
}
