package codecheck

import (
	"context"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
	"github.com/rs/zerolog/log"
)

// ResilientProvider wraps a provider with a circuit breaker around retried calls.
type ResilientProvider struct {
	provider Provider
	breaker  circuitbreaker.CircuitBreaker[string]
	retrier  retry.Retry[string]
}

// ResilienceConfig tunes the wrapper. Zero values fall back to defaults.
type ResilienceConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	TripAfter    int
	OpenTimeout  time.Duration
}

func NewResilientProvider(provider Provider, cfg ResilienceConfig) *ResilientProvider {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = time.Second
	}
	if cfg.TripAfter <= 0 {
		cfg.TripAfter = 3
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = 60 * time.Second
	}
	name := provider.Name()
	return &ResilientProvider{
		provider: provider,
		breaker: circuitbreaker.New[string](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    10 * time.Second,
			Timeout:     cfg.OpenTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return int(counts.ConsecutiveFailures) >= cfg.TripAfter
			},
			OnStateChange: func(from, to circuitbreaker.State) {
				log.Warn().Str("provider", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			},
		}),
		retrier: retry.New[string](retry.Config{
			MaxAttempts:   cfg.MaxAttempts,
			InitialDelay:  cfg.InitialDelay,
			MaxDelay:      30 * time.Second,
			Multiplier:    2.0,
			BackoffPolicy: retry.BackoffExponential,
			Jitter:        true,
			IsRetryable:   isRetryable,
		}),
	}
}

func (p *ResilientProvider) Name() string { return p.provider.Name() }

func (p *ResilientProvider) Complete(ctx context.Context, system, prompt string) (string, error) {
	return p.breaker.Execute(ctx, func(ctx context.Context) (string, error) {
		return p.retrier.Do(ctx, func(ctx context.Context) (string, error) {
			return p.provider.Complete(ctx, system, prompt)
		})
	})
}
