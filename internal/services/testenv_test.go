package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/yungbote/parla-backend/internal/data/repos"
	"github.com/yungbote/parla-backend/internal/data/repos/testutil"
	types "github.com/yungbote/parla-backend/internal/domain"
	"github.com/yungbote/parla-backend/internal/platform/ctxutil"
	"github.com/yungbote/parla-backend/internal/platform/logger"
	"github.com/yungbote/parla-backend/internal/platform/openai"
	"github.com/yungbote/parla-backend/internal/prompts"
)

const testSecret = "test-secret"

type fakeChat struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   []openai.ChatRequest
}

func (f *fakeChat) Chat(ctx context.Context, req openai.ChatRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.replies) == 0 {
		return "", nil
	}
	out := f.replies[0]
	f.replies = f.replies[1:]
	return out, nil
}

func (f *fakeChat) DefaultModel() string { return "fake-model" }

func (f *fakeChat) lastCall(t *testing.T) openai.ChatRequest {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatalf("no completion calls recorded")
	}
	return f.calls[len(f.calls)-1]
}

type testEnv struct {
	db      *gorm.DB
	log     *logger.Logger
	repos   repos.Set
	chat    *fakeChat
	gateway CompletionGateway

	auth            AuthService
	users           UserService
	targets         TargetService
	errors          UserErrorService
	progress        ProgressService
	sessions        SessionService
	conversations   ConversationService
	recommendations RecommendationService
	realtime        RealtimeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	set := repos.NewSet(db, log)
	chat := &fakeChat{}
	gw := NewCompletionGateway(log, chat, prompts.Default(), "")

	env := &testEnv{db: db, log: log, repos: set, chat: chat, gateway: gw}
	env.auth = NewAuthService(log, set.Users, AuthConfig{Secret: testSecret, Issuer: "https://auth.test"})
	env.users = NewUserService(log, set.Users)
	env.targets = NewTargetService(db, log, set.Targets)
	env.errors = NewUserErrorService(log, set.Users, set.Errors)
	env.progress = NewProgressService(log, set.Users, set.Sessions, set.Targets, set.Progress)
	env.sessions = NewSessionService(db, log, set.Sessions, set.Targets, env.progress)
	env.conversations = NewConversationService(log, set.Users, set.Conversations, set.Errors, gw)
	env.recommendations = NewRecommendationService(log, set.Users, set.Recommendations, set.Errors, set.Targets, gw)
	env.realtime = NewRealtimeService(log, RealtimeConfig{}, set.Users, set.Targets, set.Errors, env.targets, env.errors, env.sessions, gw)
	return env
}

// seedCaller creates a profile and returns a context authenticated as it.
func (env *testEnv) seedCaller(t *testing.T, authID string) (context.Context, *types.User) {
	t.Helper()
	u := testutil.SeedUser(t, context.Background(), env.db, authID)
	ctx := ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{AuthID: authID, UserID: u.ID})
	return ctx, u
}

func signToken(t *testing.T, secret, sub, iss string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    iss,
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	})
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}
