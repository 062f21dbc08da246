package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/parla-backend/internal/data/db"
	"github.com/yungbote/parla-backend/internal/data/repos"
	"github.com/yungbote/parla-backend/internal/http/validation"
	"github.com/yungbote/parla-backend/internal/observability"
	"github.com/yungbote/parla-backend/internal/platform/logger"
)

const serviceNameDefault = "parla-backend"

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Router   *gin.Engine
	Cfg      Config
	Repos    repos.Set
	Services Services
	Clients  Clients

	dbService    *db.Service
	otelShutdown func(context.Context) error
}

// New wires the full HTTP application: tracing, database (migrated), clients,
// repos, services, handlers and router.
func New(ctx context.Context, cfg Config) (*App, error) {
	if err := cfg.ValidateServe(); err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if isProd(cfg.LogMode) {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := validation.RegisterBinding(); err != nil {
		return nil, fmt.Errorf("register validators: %w", err)
	}

	shutdown := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: serviceNameDefault,
		Environment: cfg.Environment,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     observability.ParseHeaders(cfg.OtelHeaders),
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})

	dbs, err := openAndMigrate(log, cfg)
	if err != nil {
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}
	theDB := dbs.DB()

	clients, err := wireClients(log, cfg)
	if err != nil {
		_ = dbs.Close()
		_ = shutdown(ctx)
		log.Sync()
		return nil, err
	}

	log.Info("Wiring repos...")
	reposet := repos.NewSet(theDB, log)
	serviceset := wireServices(theDB, log, cfg, reposet, clients)
	handlerset := wireHandlers(log, theDB, serviceset)
	middleware := wireMiddleware(log, serviceset)
	router := wireRouter(log, cfg, clients, handlerset, middleware)

	return &App{
		Log:          log,
		DB:           theDB,
		Router:       router,
		Cfg:          cfg,
		Repos:        reposet,
		Services:     serviceset,
		Clients:      clients,
		dbService:    dbs,
		otelShutdown: shutdown,
	}, nil
}

// Migrate opens the database, applies the schema and closes it again.
func Migrate(cfg Config) error {
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()
	dbs, err := openAndMigrate(log, cfg)
	if err != nil {
		return err
	}
	return dbs.Close()
}

func openAndMigrate(log *logger.Logger, cfg Config) (*db.Service, error) {
	dbs, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := dbs.AutoMigrateAll(); err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	return dbs, nil
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("OTel shutdown failed", "error", err)
		}
	}
	if a.dbService != nil {
		if err := a.dbService.Close(); err != nil {
			a.Log.Warn("Database close failed", "error", err)
		}
	}
	a.Log.Sync()
}

func isProd(mode string) bool {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		return true
	}
	return false
}
