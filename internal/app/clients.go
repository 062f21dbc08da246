package app

import (
	"fmt"

	"github.com/yungbote/parla-backend/internal/clients/redis"
	"github.com/yungbote/parla-backend/internal/platform/logger"
	"github.com/yungbote/parla-backend/internal/platform/openai"
	"github.com/yungbote/parla-backend/internal/prompts"
)

type Clients struct {
	// OpenAI is nil when no API key is configured; completions then use
	// fallback text.
	OpenAI  openai.Client
	Prompts *prompts.Set
	// Limiter is nil when REDIS_ADDR is unset.
	Limiter redis.Limiter
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")
	var out Clients

	set, err := prompts.Load(log)
	if err != nil {
		return Clients{}, fmt.Errorf("load prompts: %w", err)
	}
	out.Prompts = set

	if cfg.OpenAIAPIKey != "" {
		c, err := openai.NewClient(log, openai.Config{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
			Timeout: cfg.OpenAITimeout,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init openai client: %w", err)
		}
		out.OpenAI = c
	} else {
		log.Warn("OPENAI_API_KEY not set; completions will return fallback text")
	}

	if cfg.RedisAddr != "" {
		l, err := redis.NewLimiter(log, redis.LimiterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Limit:    cfg.CompletionLimit,
		})
		if err != nil {
			return Clients{}, fmt.Errorf("init redis limiter: %w", err)
		}
		out.Limiter = l
	}
	return out, nil
}

func (c Clients) Close() {
	if c.Limiter != nil {
		_ = c.Limiter.Close()
	}
}
