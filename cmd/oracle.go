package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/cv-matcher/internal/ai"
	"github.com/spigell/cv-matcher/internal/ai/gemini"
	"github.com/spigell/cv-matcher/internal/ai/openrouter"
	"github.com/spigell/cv-matcher/internal/aspects"
	"github.com/spigell/cv-matcher/internal/cache"
	"github.com/spigell/cv-matcher/internal/logger"
	"github.com/spigell/cv-matcher/internal/matching"
	"github.com/spigell/cv-matcher/internal/secrets"
)

const providerNone = "none"

// newMatcher wires the configured oracle, the optional Redis cache and the
// comparators. The returned func releases the cache connection.
func newMatcher(ctx context.Context, config *Config, log *zap.Logger) (*matching.Matcher, func(), error) {
	oracle, closer, err := newOracle(ctx, config, log)
	if err != nil {
		return nil, nil, err
	}

	comparators := aspects.New(oracle,
		aspects.WithTimeout(config.AI.Timeout),
		aspects.WithLogger(log),
	)

	return matching.New(comparators, log), closer, nil
}

func newOracle(ctx context.Context, config *Config, log *zap.Logger) (ai.Oracle, func(), error) {
	noop := func() {}

	generator, err := newGenerator(ctx, config.AI, log)
	if err != nil {
		return nil, nil, err
	}
	if generator == nil {
		log.Warn("no judgment provider configured, every aspect is scored heuristically")
		return ai.Unavailable{}, noop, nil
	}

	provider := strings.ToLower(strings.TrimSpace(config.AI.Provider))
	log = logger.WithProvider(log, provider, generator.Model())

	var oracle ai.Oracle = ai.NewGeneratorOracle(generator, log, config.AI.MaxLogLength)

	if config.Cache == nil || config.Cache.Redis == nil || !config.Cache.Redis.Enabled {
		return oracle, noop, nil
	}

	redisCfg := config.Cache.Redis
	store := cache.NewRedis(ctx, cache.RedisOptions{
		Addr:     redisCfg.Addr,
		Password: redisCfg.Password,
		DB:       redisCfg.DB,
		TTL:      redisCfg.TTL,
	}, log)

	namespace := provider + ":" + generator.Model()
	closer := func() {
		if err := store.Close(); err != nil {
			log.Debug("closing redis", zap.Error(err))
		}
	}

	return cache.NewOracle(oracle, store, redisCfg.TTL, namespace, log,
		cache.WithValidator(aspects.ValidReply),
	), closer, nil
}

// newGenerator returns nil without an error when no provider is configured.
func newGenerator(ctx context.Context, config *AIConfig, log *zap.Logger) (ai.Generator, error) {
	if config == nil {
		return nil, nil
	}

	switch provider := strings.ToLower(strings.TrimSpace(config.Provider)); provider {
	case "", providerNone:
		return nil, nil

	case gemini.Provider:
		cfg := config.Gemini
		if cfg == nil {
			cfg = &GeminiConfig{}
		}
		key, err := secrets.Load(secrets.Source{
			Name:  "gemini api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   "GEMINI_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		return gemini.NewGenerator(ctx, key, cfg.Model, cfg.MaxRetries, log)

	case openrouter.Provider:
		cfg := config.OpenRouter
		if cfg == nil {
			cfg = &OpenRouterConfig{}
		}
		key, err := secrets.Load(secrets.Source{
			Name:  "openrouter api key",
			Value: cfg.APIKey,
			File:  cfg.APIKeyFile,
			Env:   "OPENROUTER_API_KEY",
		})
		if err != nil {
			return nil, err
		}
		return openrouter.New(openrouter.Config{
			APIKey:     key,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			MaxRetries: cfg.MaxRetries,
			Timeout:    config.Timeout,
		}, log)

	default:
		return nil, fmt.Errorf("unknown ai provider %q (supported: %s, %s, %s)", provider, gemini.Provider, openrouter.Provider, providerNone)
	}
}
