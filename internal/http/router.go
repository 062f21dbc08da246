package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/parla-backend/internal/clients/redis"
	httpH "github.com/yungbote/parla-backend/internal/http/handlers"
	httpMW "github.com/yungbote/parla-backend/internal/http/middleware"
	"github.com/yungbote/parla-backend/internal/observability"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowOrigins   []string
	AuthMiddleware *httpMW.AuthMiddleware
	// Limiter throttles completion routes; nil disables throttling.
	Limiter redis.Limiter
	// Metrics enables request instrumentation and GET /metrics when non-nil.
	Metrics *observability.Metrics

	HealthHandler         *httpH.HealthHandler
	UserHandler           *httpH.UserHandler
	RealtimeHandler       *httpH.RealtimeHandler
	SessionHandler        *httpH.SessionHandler
	TargetHandler         *httpH.TargetHandler
	RecommendationHandler *httpH.RecommendationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.Recovery(cfg.Log))
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.AllowOrigins))
	r.Use(httpMW.Metrics(cfg.Metrics))

	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}
	limit := func(scope string) gin.HandlerFunc {
		return httpMW.RateLimit(cfg.Log, cfg.Limiter, scope)
	}

	// Profile
	if cfg.UserHandler != nil {
		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.PATCH("/me/preferences", cfg.UserHandler.UpdatePreferences)
		protected.GET("/progress", cfg.UserHandler.GetProgress)
	}

	// Realtime tutor
	if cfg.RealtimeHandler != nil {
		protected.POST("/realtime-session", cfg.RealtimeHandler.SessionConfig)
		protected.POST("/realtime", limit("realtime"), cfg.RealtimeHandler.Reply)
		protected.POST("/realtime/tools", cfg.RealtimeHandler.ExecuteTool)
	}

	// Sessions and saved conversations
	if cfg.SessionHandler != nil {
		protected.POST("/session/create", cfg.SessionHandler.Create)
		protected.PATCH("/session/:id/progress", cfg.SessionHandler.UpdateProgress)
		protected.POST("/session/:id/summary", cfg.SessionHandler.Summarize)
		protected.POST("/session/live", limit("session_live"), cfg.SessionHandler.SaveLive)
		protected.GET("/sessions", cfg.SessionHandler.List)
		protected.GET("/conversation-sessions", cfg.SessionHandler.ListConversations)
		protected.GET("/conversation-sessions/:id", cfg.SessionHandler.GetConversation)
	}

	// Targets and errors
	if cfg.TargetHandler != nil {
		protected.POST("/targets/add", cfg.TargetHandler.Add)
		protected.GET("/targets", cfg.TargetHandler.List)
		protected.PATCH("/targets/:id", cfg.TargetHandler.UpdateStatus)
		protected.GET("/user-errors", cfg.TargetHandler.ListErrors)
	}

	// Recommendations
	if cfg.RecommendationHandler != nil {
		protected.GET("/recommendations", cfg.RecommendationHandler.List)
		protected.POST("/recommendations/generate", limit("recommendations"), cfg.RecommendationHandler.Generate)
		protected.POST("/recommendations/complete", cfg.RecommendationHandler.Complete)
		protected.DELETE("/recommendations/clear", cfg.RecommendationHandler.Clear)
	}

	return r
}
