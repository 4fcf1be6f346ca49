package translation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"horse.fit/anubad/internal/globaltime"
)

// Orchestrator tries the primary provider and, only when it fails, the fallback provider.
// It holds no per-request state and is safe for concurrent use.
type Orchestrator struct {
	chain  []chainLink
	logger zerolog.Logger
}

type chainLink struct {
	role     ProviderRole
	provider Provider
}

func NewOrchestrator(primary, fallback Provider, logger zerolog.Logger) (*Orchestrator, error) {
	if primary == nil {
		return nil, fmt.Errorf("primary translation provider is required")
	}
	if fallback == nil {
		return nil, fmt.Errorf("fallback translation provider is required")
	}

	return &Orchestrator{
		chain: []chainLink{
			{role: RolePrimary, provider: primary},
			{role: RoleFallback, provider: fallback},
		},
		logger: logger,
	}, nil
}

// NewOrchestratorFromConfig builds both providers and wires them into an orchestrator.
func NewOrchestratorFromConfig(ctx context.Context, primaryCfg, fallbackCfg ProviderConfig, logger zerolog.Logger) (*Orchestrator, error) {
	primary, err := NewProvider(ctx, primaryCfg)
	if err != nil {
		return nil, fmt.Errorf("build primary provider: %w", err)
	}
	fallback, err := NewProvider(ctx, fallbackCfg)
	if err != nil {
		closeProvider(primary)
		return nil, fmt.Errorf("build fallback provider: %w", err)
	}
	return NewOrchestrator(primary, fallback, logger)
}

// ProviderNames returns the configured provider names keyed by role.
func (o *Orchestrator) ProviderNames() map[ProviderRole]string {
	names := make(map[ProviderRole]string, 2)
	if o == nil {
		return names
	}
	for _, link := range o.chain {
		names[link.role] = link.provider.Name()
	}
	return names
}

func (o *Orchestrator) Translate(ctx context.Context, sourceText string) (Result, error) {
	if o == nil || len(o.chain) == 0 {
		return Result{}, fmt.Errorf("translation orchestrator is not initialized")
	}

	text := strings.TrimSpace(sourceText)
	if text == "" {
		return Result{}, &ValidationError{Reason: "text must not be empty"}
	}

	req := TranslateRequest{
		Text:       text,
		SourceLang: SourceLanguage,
		TargetLang: TargetLanguage,
	}

	attempts := make([]AttemptError, 0, len(o.chain))
	for _, link := range o.chain {
		name := link.provider.Name()
		started := globaltime.Now()

		translated, callMs, err := translateWith(ctx, link.provider, req)
		if err != nil {
			attempts = append(attempts, AttemptError{
				Provider:     link.role,
				ProviderName: name,
				Reason:       err.Error(),
				Err:          err,
			})
			o.logger.Warn().
				Err(err).
				Str("provider", name).
				Str("role", link.role.String()).
				Dur("latency", globaltime.Since(started)).
				Msg("translation provider failed")
			continue
		}

		o.logger.Info().
			Str("provider", name).
			Str("role", link.role.String()).
			Dur("latency", globaltime.Since(started)).
			Int64("call_ms", callMs).
			Int("chars", len([]rune(text))).
			Msg("translation succeeded")

		return Result{
			SourceText:     text,
			TranslatedText: translated,
			ProviderUsed:   link.role,
			ProviderName:   name,
			Succeeded:      true,
		}, nil
	}

	return Result{}, &BothProvidersFailedError{Attempts: attempts}
}

// CircuitStates reports each provider's breaker state keyed by role.
// Providers built without a breaker report CircuitDisabled.
func (o *Orchestrator) CircuitStates() map[ProviderRole]string {
	states := make(map[ProviderRole]string, 2)
	if o == nil {
		return states
	}
	for _, link := range o.chain {
		states[link.role] = circuitState(link.provider)
	}
	return states
}

// Close releases provider resources (for example Cloud API clients).
func (o *Orchestrator) Close() error {
	if o == nil {
		return nil
	}
	var errs []error
	for _, link := range o.chain {
		if closer, ok := link.provider.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s provider: %w", link.role, err))
			}
		}
	}
	return errors.Join(errs...)
}

func translateWith(ctx context.Context, provider Provider, req TranslateRequest) (string, int64, error) {
	resp, err := provider.Translate(ctx, req)
	if err != nil {
		return "", 0, err
	}
	if resp == nil {
		return "", 0, malformedError(provider.Name(), "empty response", nil)
	}
	translated := NormalizeTranslatedText(resp.Text)
	if translated == "" {
		return "", 0, malformedError(provider.Name(), "translated text is empty", nil)
	}
	return translated, resp.LatencyMs, nil
}

func closeProvider(provider Provider) {
	if closer, ok := provider.(io.Closer); ok {
		_ = closer.Close()
	}
}
