package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/parla-backend/internal/data/repos"
	"github.com/yungbote/parla-backend/internal/data/repos/testutil"
	types "github.com/yungbote/parla-backend/internal/domain"
	httpH "github.com/yungbote/parla-backend/internal/http/handlers"
	httpMW "github.com/yungbote/parla-backend/internal/http/middleware"
	"github.com/yungbote/parla-backend/internal/http/validation"
	"github.com/yungbote/parla-backend/internal/observability"
	"github.com/yungbote/parla-backend/internal/platform/openai"
	"github.com/yungbote/parla-backend/internal/prompts"
	"github.com/yungbote/parla-backend/internal/services"
)

const e2eSecret = "e2e-secret"

type scriptedChat struct {
	mu      sync.Mutex
	replies []string
	err     error
}

func (s *scriptedChat) Chat(ctx context.Context, req openai.ChatRequest) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if len(s.replies) == 0 {
		return "", nil
	}
	out := s.replies[0]
	s.replies = s.replies[1:]
	return out, nil
}

func (s *scriptedChat) DefaultModel() string { return "scripted" }

type denyAfter struct {
	mu    sync.Mutex
	n     int
	limit int
}

func (d *denyAfter) Allow(ctx context.Context, key string) (bool, time.Duration, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.n++
	return d.n <= d.limit, 42 * time.Second, nil
}

func (d *denyAfter) Close() error { return nil }

type apiHarness struct {
	t      *testing.T
	db     *gorm.DB
	router *gin.Engine
	chat   *scriptedChat
}

func newHarness(t *testing.T, limiter *denyAfter) *apiHarness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	require.NoError(t, validation.RegisterBinding())

	db := testutil.DB(t)
	log := testutil.Logger(t)
	r := repos.NewSet(db, log)
	chat := &scriptedChat{}
	gw := services.NewCompletionGateway(log, chat, prompts.Default(), "")

	authSvc := services.NewAuthService(log, r.Users, services.AuthConfig{Secret: e2eSecret})
	userSvc := services.NewUserService(log, r.Users)
	targetSvc := services.NewTargetService(db, log, r.Targets)
	errorSvc := services.NewUserErrorService(log, r.Users, r.Errors)
	progressSvc := services.NewProgressService(log, r.Users, r.Sessions, r.Targets, r.Progress)
	sessionSvc := services.NewSessionService(db, log, r.Sessions, r.Targets, progressSvc)
	convSvc := services.NewConversationService(log, r.Users, r.Conversations, r.Errors, gw)
	recSvc := services.NewRecommendationService(log, r.Users, r.Recommendations, r.Errors, r.Targets, gw)
	rtSvc := services.NewRealtimeService(log, services.RealtimeConfig{Model: "rt-model", Voice: "alloy"},
		r.Users, r.Targets, r.Errors, targetSvc, errorSvc, sessionSvc, gw)

	cfg := RouterConfig{
		Log:                   log,
		AuthMiddleware:        httpMW.NewAuthMiddleware(log, authSvc),
		HealthHandler:         httpH.NewHealthHandler(db),
		UserHandler:           httpH.NewUserHandler(userSvc, progressSvc),
		RealtimeHandler:       httpH.NewRealtimeHandler(rtSvc),
		SessionHandler:        httpH.NewSessionHandler(sessionSvc, convSvc),
		TargetHandler:         httpH.NewTargetHandler(targetSvc, errorSvc),
		RecommendationHandler: httpH.NewRecommendationHandler(recSvc),
	}
	if limiter != nil {
		cfg.Limiter = limiter
	}
	return &apiHarness{t: t, db: db, router: NewRouter(cfg), chat: chat}
}

func (h *apiHarness) user(authID string) (*types.User, string) {
	h.t.Helper()
	u := testutil.SeedUser(h.t, context.Background(), h.db, authID)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   authID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte(e2eSecret))
	require.NoError(h.t, err)
	return u, signed
}

func (h *apiHarness) do(method, path, token string, body any) (int, map[string]any) {
	h.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(h.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	out := map[string]any{}
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		require.NoError(h.t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec.Code, out
}

func (h *apiHarness) count(model any) int64 {
	h.t.Helper()
	var n int64
	require.NoError(h.t, h.db.Model(model).Count(&n).Error)
	return n
}

func TestUnauthenticatedRequestsWriteNothing(t *testing.T) {
	h := newHarness(t, nil)
	u, _ := h.user("auth|victim")

	bodies := map[string]any{
		"/api/session/create": map[string]any{"userId": u.ID, "targets": []string{"x"}},
		"/api/targets/add":    map[string]any{"userId": u.ID, "phrase": "x"},
		"/api/session/live":   map[string]any{"weekId": 1, "transcript": []map[string]string{{"role": "user", "text": "hi"}}},
		"/api/realtime/tools": map[string]any{"name": "add_correction", "arguments": map[string]string{"type": "grammar", "example": "a", "correction": "b"}},
	}
	routes := 0
	for _, rt := range h.router.Routes() {
		if !strings.HasPrefix(rt.Path, "/api/") {
			continue
		}
		routes++
		path := strings.ReplaceAll(rt.Path, ":id", u.ID.String())
		for _, tok := range []string{"", "garbage.token.value"} {
			code, body := h.do(rt.Method, path, tok, bodies[rt.Path])
			require.Equal(t, http.StatusUnauthorized, code, "%s %s token=%q", rt.Method, rt.Path, tok)
			require.Equal(t, "unauthorized", body["code"])
			require.NotEmpty(t, body["error"])
		}
	}
	require.GreaterOrEqual(t, routes, 20)
	require.Zero(t, h.count(&types.Session{}))
	require.Zero(t, h.count(&types.Target{}))
	require.Zero(t, h.count(&types.ConversationSession{}))
	require.Zero(t, h.count(&types.RecommendedAction{}))
	require.Zero(t, h.count(&types.UserError{}))
	require.Zero(t, h.count(&types.UserProgress{}))
}

func TestTokenWithoutProfileIs404(t *testing.T) {
	h := newHarness(t, nil)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "auth|ghost",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	signed, err := tok.SignedString([]byte(e2eSecret))
	require.NoError(t, err)
	code, _ := h.do(http.MethodGet, "/api/me", signed, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestUserIDMismatchIsForbidden(t *testing.T) {
	h := newHarness(t, nil)
	_, tok := h.user("auth|me")
	other, _ := h.user("auth|other")

	code, _ := h.do(http.MethodPost, "/api/session/create", tok, map[string]any{"userId": other.ID, "targets": []string{"a"}})
	require.Equal(t, http.StatusForbidden, code)
	code, _ = h.do(http.MethodPost, "/api/targets/add", tok, map[string]any{"userId": other.ID, "phrase": "a"})
	require.Equal(t, http.StatusForbidden, code)
	require.Zero(t, h.count(&types.Session{}))
	require.Zero(t, h.count(&types.Target{}))
}

func TestAddTargetTwice(t *testing.T) {
	h := newHarness(t, nil)
	u, tok := h.user("auth|dup")
	body := map[string]any{"userId": u.ID, "phrase": "break the ice", "cefr": "B1"}

	code, first := h.do(http.MethodPost, "/api/targets/add", tok, body)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, false, first["alreadyExists"])
	require.Equal(t, "planned", first["status"])

	code, second := h.do(http.MethodPost, "/api/targets/add", tok, body)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, second["alreadyExists"])
	require.Equal(t, first["targetId"], second["targetId"])

	for _, flag := range []string{"true", "1", "TRUE"} {
		code, strict := h.do(http.MethodPost, "/api/targets/add?strict="+flag, tok, body)
		require.Equal(t, http.StatusConflict, code, "strict=%s", flag)
		require.Equal(t, "conflict", strict["code"])
	}
	code, _ = h.do(http.MethodPost, "/api/targets/add?strict=maybe", tok, body)
	require.Equal(t, http.StatusBadRequest, code)

	require.EqualValues(t, 1, h.count(&types.Target{}))
}

func TestAddTargetValidation(t *testing.T) {
	h := newHarness(t, nil)
	u, tok := h.user("auth|val")
	cases := []map[string]any{
		{"userId": u.ID},
		{"userId": u.ID, "phrase": "   "},
		{"userId": "not-a-uuid", "phrase": "x"},
		{"userId": u.ID, "phrase": "x", "cefr": "Z9"},
	}
	for _, body := range cases {
		code, out := h.do(http.MethodPost, "/api/targets/add", tok, body)
		require.Equal(t, http.StatusBadRequest, code, "%v", body)
		require.NotEmpty(t, out["details"])
	}
	require.Zero(t, h.count(&types.Target{}))
}

func TestUserErrorsLimitAndOrder(t *testing.T) {
	h := newHarness(t, nil)
	u, tok := h.user("auth|errors")
	now := time.Now().UTC()
	for i := 0; i < 8; i++ {
		testutil.SeedUserError(t, context.Background(), h.db, u.ID, types.ErrorGrammar,
			fmt.Sprintf("ex%d", i), fmt.Sprintf("fix%d", i), 1+i%3, now.Add(time.Duration(i)*time.Second))
	}

	code, body := h.do(http.MethodGet, "/api/user-errors?limit=5", tok, nil)
	require.Equal(t, http.StatusOK, code)
	rows := body["errors"].([]any)
	require.Len(t, rows, 5)
	require.EqualValues(t, 5, body["count"])

	var got []string
	for _, r := range rows {
		got = append(got, r.(map[string]any)["correction"].(string))
	}
	// counts: fix2,fix5 = 3; fix1,fix4,fix7 = 2; newest first within a count.
	if diff := cmp.Diff([]string{"fix5", "fix2", "fix7", "fix4", "fix1"}, got); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}

	code, _ = h.do(http.MethodGet, "/api/user-errors?limit=500", tok, nil)
	require.Equal(t, http.StatusBadRequest, code)
}

func TestSessionLiveEmptyTranscript(t *testing.T) {
	h := newHarness(t, nil)
	_, tok := h.user("auth|live")

	code, _ := h.do(http.MethodPost, "/api/session/live", tok, map[string]any{"weekId": 1, "focusAreas": []string{}, "transcript": []any{}})
	require.Equal(t, http.StatusBadRequest, code)
	require.Zero(t, h.count(&types.ConversationSession{}))

	h.chat.replies = []string{"Nice job."}
	code, body := h.do(http.MethodPost, "/api/session/live", tok, map[string]any{
		"weekId":     1,
		"focusAreas": []string{"travel"},
		"transcript": []map[string]string{{"role": "user", "text": "Vado a Roma"}},
	})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "Nice job.", body["feedback"])
	require.EqualValues(t, 1, h.count(&types.ConversationSession{}))
}

func TestRecommendationsClear(t *testing.T) {
	h := newHarness(t, nil)
	u, tok := h.user("auth|clear")
	other, _ := h.user("auth|bystander")
	for i := 0; i < 3; i++ {
		testutil.SeedRecommendedAction(t, context.Background(), h.db, u.ID, fmt.Sprintf("a%d", i))
	}
	testutil.SeedRecommendedAction(t, context.Background(), h.db, other.ID, "theirs")

	code, body := h.do(http.MethodDelete, "/api/recommendations/clear", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 3, body["deleted_count"])

	code, body = h.do(http.MethodDelete, "/api/recommendations/clear", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.EqualValues(t, 0, body["deleted_count"])
	require.EqualValues(t, 1, h.count(&types.RecommendedAction{}))
}

func TestRecommendationComplete(t *testing.T) {
	h := newHarness(t, nil)
	u, tok := h.user("auth|complete")
	a := testutil.SeedRecommendedAction(t, context.Background(), h.db, u.ID, "do it")

	code, _ := h.do(http.MethodPost, "/api/recommendations/complete", tok, map[string]any{"id": "nope"})
	require.Equal(t, http.StatusBadRequest, code)
	code, _ = h.do(http.MethodPost, "/api/recommendations/complete", tok, map[string]any{"id": uuid.New()})
	require.Equal(t, http.StatusNotFound, code)
	code, body := h.do(http.MethodPost, "/api/recommendations/complete", tok, map[string]any{"id": a.ID})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["success"])
	require.Equal(t, true, body["action"].(map[string]any)["completed"])
}

func TestRealtimeSessionRoundTrip(t *testing.T) {
	h := newHarness(t, nil)
	u, tok := h.user("auth|rt")

	code, created := h.do(http.MethodPost, "/api/session/create", tok, map[string]any{
		"userId":  u.ID,
		"targets": []string{"in the long run", "by and large", "on the fence"},
	})
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, created["sessionId"])

	code, cfg := h.do(http.MethodPost, "/api/realtime-session", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, []any{"on the fence", "by and large", "in the long run"}, cfg["activeTargets"])
	require.Equal(t, "rt-model", cfg["model"])
	require.Len(t, cfg["functions"], 4)
	require.Contains(t, cfg["instructions"], "on the fence")
}

func TestRealtimeSessionSurfacesReplannedMasteredPhrase(t *testing.T) {
	h := newHarness(t, nil)
	u, tok := h.user("auth|replan")

	code, added := h.do(http.MethodPost, "/api/targets/add", tok, map[string]any{"userId": u.ID, "phrase": "on the fence"})
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodPatch, "/api/targets/"+added["targetId"].(string), tok, map[string]any{"status": "mastered"})
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodPost, "/api/targets/add", tok, map[string]any{"userId": u.ID, "phrase": "older phrase"})
	require.Equal(t, http.StatusOK, code)

	code, _ = h.do(http.MethodPost, "/api/session/create", tok, map[string]any{
		"userId":  u.ID,
		"targets": []string{"in the long run", "by and large", "on the fence"},
	})
	require.Equal(t, http.StatusOK, code)

	code, cfg := h.do(http.MethodPost, "/api/realtime-session", tok, nil)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, []any{"on the fence", "by and large", "in the long run"}, cfg["activeTargets"])
	require.EqualValues(t, 4, h.count(&types.Target{}))
}

func TestRealtimeReplyFallbackIs200(t *testing.T) {
	h := newHarness(t, nil)
	_, tok := h.user("auth|reply")
	h.chat.err = fmt.Errorf("upstream 503")

	code, body := h.do(http.MethodPost, "/api/realtime", tok, map[string]any{"input": "ciao", "level": "A2"})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, prompts.Default().Fallback(prompts.FallbackReplyError), body["reply"])

	code, _ = h.do(http.MethodPost, "/api/realtime", tok, map[string]any{"input": ""})
	require.Equal(t, http.StatusBadRequest, code)
}

func TestSessionSummaryFlow(t *testing.T) {
	h := newHarness(t, nil)
	u, tok := h.user("auth|summary")

	_, created := h.do(http.MethodPost, "/api/session/create", tok, map[string]any{"userId": u.ID, "targets": []string{"a", "b"}})
	sid := created["sessionId"].(string)

	code, _ := h.do(http.MethodPost, "/api/realtime/tools", tok, map[string]any{"name": "mark_target_used", "arguments": map[string]string{"phrase": "a"}})
	require.Equal(t, http.StatusOK, code)
	code, _ = h.do(http.MethodPatch, "/api/session/"+sid+"/progress", tok, map[string]any{"userTurns": 3, "assistantTurns": 3, "speakingSeconds": 40})
	require.Equal(t, http.StatusOK, code)

	code, body := h.do(http.MethodPost, "/api/session/"+sid+"/summary", tok, map[string]any{"usedTargets": []string{}})
	require.Equal(t, http.StatusOK, code)
	require.InDelta(t, 0.5, body["adoptionScore"].(float64), 1e-9)

	code, body = h.do(http.MethodGet, "/api/progress", tok, nil)
	require.Equal(t, http.StatusOK, code)
	progress := body["progress"].(map[string]any)
	require.EqualValues(t, 1, progress["total_sessions"])
	require.EqualValues(t, 40, progress["total_speaking_seconds"])

	code, _ = h.do(http.MethodPatch, "/api/session/not-a-uuid/progress", tok, map[string]any{})
	require.Equal(t, http.StatusBadRequest, code)
}

func TestCompletionRoutesRateLimited(t *testing.T) {
	h := newHarness(t, &denyAfter{limit: 1})
	_, tok := h.user("auth|limited")
	h.chat.replies = []string{"uno"}

	code, _ := h.do(http.MethodPost, "/api/realtime", tok, map[string]any{"input": "ciao"})
	require.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodPost, "/api/realtime", bytes.NewBufferString(`{"input":"ancora"}`))
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "42", rec.Header().Get("Retry-After"))

	// Non-completion routes are not throttled.
	code, _ = h.do(http.MethodGet, "/api/me", tok, nil)
	require.Equal(t, http.StatusOK, code)
}

func TestHealthcheckIsPublic(t *testing.T) {
	h := newHarness(t, nil)
	code, _ := h.do(http.MethodGet, "/healthcheck", "", nil)
	require.Equal(t, http.StatusOK, code)
}

func TestMetricsEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	m := observability.NewMetrics()
	r := NewRouter(RouterConfig{
		Log:           testutil.Logger(t),
		Metrics:       m,
		HealthHandler: httpH.NewHealthHandler(db),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `parla_api_requests_total{method="GET",route="/healthcheck",status="200"} 1.000000`)
}
