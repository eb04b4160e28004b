package llm

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
	"github.com/Veraticus/the-spread-must-flow/internal/service"
)

// ManagedClient wraps a provider client with rate limiting, response
// caching and retry.
type ManagedClient struct {
	client   Client
	limiter  *rateLimiter
	cache    *responseCache
	logger   *slog.Logger
	provider string
	model    string
	retry    service.RetryOptions
}

// NewManagedClient builds the provider client named in cfg and wraps it.
func NewManagedClient(cfg Config, logger *slog.Logger) (*ManagedClient, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return Wrap(client, cfg, logger), nil
}

// Wrap applies rate limiting, caching and retry to an existing client.
func Wrap(client Client, cfg Config, logger *slog.Logger) *ManagedClient {
	if logger == nil {
		logger = slog.Default()
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	return &ManagedClient{
		client:   client,
		limiter:  newRateLimiter(cfg.RateLimit),
		cache:    newResponseCache(cfg.CacheTTL),
		logger:   logger,
		provider: strings.ToLower(cfg.Provider),
		model:    cfg.Model,
		retry: service.RetryOptions{
			MaxAttempts:  cfg.MaxRetries,
			InitialDelay: retryDelay,
			MaxDelay:     30 * time.Second,
			Multiplier:   2.0,
		},
	}
}

// Complete returns a cached response when one is fresh, otherwise it waits
// for a rate limit token and calls the provider.
func (m *ManagedClient) Complete(ctx context.Context, systemPrompt, prompt string) (string, error) {
	key := cacheKey(m.provider, m.model, systemPrompt, prompt)
	if text, ok := m.cache.get(key); ok {
		m.logger.Debug("LLM cache hit", "provider", m.provider)
		return text, nil
	}

	var text string
	err := common.WithRetry(ctx, func() error {
		if err := m.limiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}
		var callErr error
		text, callErr = m.client.Complete(ctx, systemPrompt, prompt)
		return callErr
	}, m.retry)
	if err != nil {
		return "", err
	}

	m.cache.set(key, text)
	m.logger.Debug("LLM completion received", "provider", m.provider, "length", len(text))
	return text, nil
}

// Close releases background goroutines.
func (m *ManagedClient) Close() error {
	m.limiter.Close()
	m.cache.Close()
	return nil
}
