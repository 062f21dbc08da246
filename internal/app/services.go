package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/parla-backend/internal/data/repos"
	"github.com/yungbote/parla-backend/internal/platform/logger"
	"github.com/yungbote/parla-backend/internal/services"
)

type Services struct {
	Auth           services.AuthService
	User           services.UserService
	Target         services.TargetService
	UserError      services.UserErrorService
	Progress       services.ProgressService
	Session        services.SessionService
	Conversation   services.ConversationService
	Recommendation services.RecommendationService
	Realtime       services.RealtimeService
	Completion     services.CompletionGateway
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r repos.Set, clients Clients) Services {
	log.Info("Wiring services...")
	gateway := services.NewCompletionGateway(log, clients.OpenAI, clients.Prompts, cfg.OpenAIModel)

	out := Services{Completion: gateway}
	out.Auth = services.NewAuthService(log, r.Users, services.AuthConfig{
		Secret:   cfg.AuthSecret,
		Issuer:   cfg.AuthIssuer,
		Audience: cfg.AuthAudience,
	})
	out.User = services.NewUserService(log, r.Users)
	out.Target = services.NewTargetService(db, log, r.Targets)
	out.UserError = services.NewUserErrorService(log, r.Users, r.Errors)
	out.Progress = services.NewProgressService(log, r.Users, r.Sessions, r.Targets, r.Progress)
	out.Session = services.NewSessionService(db, log, r.Sessions, r.Targets, out.Progress)
	out.Conversation = services.NewConversationService(log, r.Users, r.Conversations, r.Errors, gateway)
	out.Recommendation = services.NewRecommendationService(log, r.Users, r.Recommendations, r.Errors, r.Targets, gateway)
	out.Realtime = services.NewRealtimeService(log, services.RealtimeConfig{
		Model: cfg.OpenAIRealtimeModel,
		Voice: cfg.OpenAIRealtimeVoice,
	}, r.Users, r.Targets, r.Errors, out.Target, out.UserError, out.Session, gateway)
	return out
}
