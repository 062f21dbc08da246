package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/parla-backend/internal/http"
	httpH "github.com/yungbote/parla-backend/internal/http/handlers"
	httpMW "github.com/yungbote/parla-backend/internal/http/middleware"
	"github.com/yungbote/parla-backend/internal/observability"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health         *httpH.HealthHandler
	User           *httpH.UserHandler
	Realtime       *httpH.RealtimeHandler
	Session        *httpH.SessionHandler
	Target         *httpH.TargetHandler
	Recommendation *httpH.RecommendationHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:         httpH.NewHealthHandler(db),
		User:           httpH.NewUserHandler(services.User, services.Progress),
		Realtime:       httpH.NewRealtimeHandler(services.Realtime),
		Session:        httpH.NewSessionHandler(services.Session, services.Conversation),
		Target:         httpH.NewTargetHandler(services.Target, services.UserError),
		Recommendation: httpH.NewRecommendationHandler(services.Recommendation),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, clients Clients, handlers Handlers, middleware Middleware) *gin.Engine {
	serviceName := ""
	if cfg.OtelEnabled {
		serviceName = serviceNameDefault
	}
	return http.NewRouter(http.RouterConfig{
		Log:                   log,
		ServiceName:           serviceName,
		AllowOrigins:          cfg.AllowOrigins,
		AuthMiddleware:        middleware.Auth,
		Limiter:               clients.Limiter,
		Metrics:               observability.Init(log),
		HealthHandler:         handlers.Health,
		UserHandler:           handlers.User,
		RealtimeHandler:       handlers.Realtime,
		SessionHandler:        handlers.Session,
		TargetHandler:         handlers.Target,
		RecommendationHandler: handlers.Recommendation,
	})
}
