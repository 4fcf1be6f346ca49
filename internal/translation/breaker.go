package translation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sony/gobreaker"
)

const (
	DefaultBreakerMaxFailures = 5
	DefaultBreakerCooldown    = 30 * time.Second

	CircuitDisabled = "disabled"
)

// BreakerSettings configures the per-provider circuit breaker. A zero MaxFailures disables it.
type BreakerSettings struct {
	MaxFailures uint32
	Cooldown    time.Duration
}

type breakerProvider struct {
	Provider
	cb *gobreaker.CircuitBreaker
}

// WithCircuitBreaker short-circuits calls to a provider after MaxFailures consecutive
// failures. While open, calls fail immediately with a network error until Cooldown elapses.
func WithCircuitBreaker(provider Provider, settings BreakerSettings) Provider {
	if provider == nil || settings.MaxFailures == 0 {
		return provider
	}
	cooldown := settings.Cooldown
	if cooldown <= 0 {
		cooldown = DefaultBreakerCooldown
	}
	maxFailures := settings.MaxFailures

	return &breakerProvider{
		Provider: provider,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        provider.Name(),
			MaxRequests: 1,
			Timeout:     cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || IsValidationError(err) || errors.Is(err, context.Canceled)
			},
		}),
	}
}

func (p *breakerProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	out, err := p.cb.Execute(func() (interface{}, error) {
		return p.Provider.Translate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, networkError(p.Name(), fmt.Errorf("circuit %s: %w", p.cb.State(), err))
		}
		return nil, err
	}
	resp, _ := out.(*TranslateResponse)
	return resp, nil
}

func (p *breakerProvider) State() gobreaker.State {
	return p.cb.State()
}

func circuitState(provider Provider) string {
	breaker, ok := provider.(*breakerProvider)
	if !ok {
		return CircuitDisabled
	}
	return breaker.State().String()
}

func (p *breakerProvider) Close() error {
	if closer, ok := p.Provider.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
