package services

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/parla-backend/internal/data/repos/testutil"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/apierr"
)

func TestRealtimeSessionConfigReflectsPlannedTargets(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|rt")
	testutil.SeedUserError(t, ctx, env.db, u.ID, types.ErrorGrammar, "ho andato", "sono andato", 2, time.Now())

	_, err := env.sessions.Create(ctx, CreateSessionInput{UserID: u.ID, Targets: []string{"p1", "p2", "p3", "p4"}})
	require.NoError(t, err)

	cfg, err := env.realtime.SessionConfig(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"p4", "p3", "p2"}, cfg.ActiveTargets)
	require.Len(t, cfg.Functions, 4)
	require.True(t, strings.Contains(cfg.Instructions, "p4"))
	require.True(t, strings.Contains(cfg.Instructions, "sono andato"))
}

func TestRealtimeReplyDefaultsLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.seedCaller(t, "auth|rl")
	env.chat.replies = []string{"Ciao!"}

	out, err := env.realtime.Reply(ctx, RealtimeReplyInput{Input: "ciao"})
	require.NoError(t, err)
	require.Equal(t, "Ciao!", out.Text)
	require.Contains(t, env.chat.lastCall(t).Messages[0].Content, types.DefaultCEFRLevel)
}

func TestExecuteTool(t *testing.T) {
	env := newTestEnv(t)
	ctx, u := env.seedCaller(t, "auth|tool")
	s, err := env.sessions.Create(ctx, CreateSessionInput{UserID: u.ID, Targets: []string{"break the ice"}})
	require.NoError(t, err)

	res, err := env.realtime.ExecuteTool(ctx, ToolCall{Name: ToolMarkTargetUsed, Arguments: json.RawMessage(`"{\"phrase\":\"break the ice\"}"`)})
	require.NoError(t, err)
	require.Equal(t, types.TargetAttempted, res.Result.(*types.Target).Status)

	for i := 0; i < 2; i++ {
		_, err = env.realtime.ExecuteTool(ctx, ToolCall{Name: ToolAddCorrection, Arguments: json.RawMessage(`{"type":"grammar","example":"ho andato","correction":"sono andato"}`)})
		require.NoError(t, err)
	}
	top, err := env.errors.List(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	require.Equal(t, 2, top[0].Count)

	_, err = env.realtime.ExecuteTool(ctx, ToolCall{Name: ToolAddCorrection, Arguments: json.RawMessage(`{"type":"spelling","example":"a","correction":"b"}`)})
	require.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))

	res, err = env.realtime.ExecuteTool(ctx, ToolCall{Name: ToolNavigate, Arguments: json.RawMessage(`{"destination":"/profile"}`)})
	require.NoError(t, err)
	require.True(t, res.OK)
	_, err = env.realtime.ExecuteTool(ctx, ToolCall{Name: ToolNavigate, Arguments: json.RawMessage(`{"destination":"/admin"}`)})
	require.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))

	_, err = env.realtime.ExecuteTool(ctx, ToolCall{Name: ToolEndSession})
	require.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
	res, err = env.realtime.ExecuteTool(ctx, ToolCall{Name: ToolEndSession, SessionID: &s.ID})
	require.NoError(t, err)
	require.NotNil(t, res.Result.(*types.Session).EndedAt)

	_, err = env.realtime.ExecuteTool(ctx, ToolCall{Name: "launch_rockets"})
	require.Equal(t, http.StatusBadRequest, apierr.StatusOf(err))
}

func TestAddCorrectionSkippedWhenCorrectionsOff(t *testing.T) {
	env := newTestEnv(t)
	ctx, _ := env.seedCaller(t, "auth|off")
	off := types.CorrectionOff
	_, err := env.users.UpdatePreferences(ctx, PreferencesUpdate{CorrectionMode: &off})
	require.NoError(t, err)

	res, err := env.realtime.ExecuteTool(ctx, ToolCall{Name: ToolAddCorrection, Arguments: json.RawMessage(`{"type":"vocab","example":"a","correction":"b"}`)})
	require.NoError(t, err)
	require.True(t, res.OK)
	top, err := env.errors.List(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, top)
}
