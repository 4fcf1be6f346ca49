package translation

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

const (
	KindMyMemory       = "mymemory"
	KindLibreTranslate = "libretranslate"
	KindLocal          = "local"
	KindGoogle         = "google"
)

type providerBuilder func(ctx context.Context, cfg ProviderConfig) (Provider, error)

var providerBuilders = map[string]providerBuilder{
	KindMyMemory: func(_ context.Context, cfg ProviderConfig) (Provider, error) {
		return NewMyMemoryProvider(cfg), nil
	},
	KindLibreTranslate: func(_ context.Context, cfg ProviderConfig) (Provider, error) {
		return NewLibreTranslateProvider(cfg), nil
	},
	KindLocal: func(_ context.Context, cfg ProviderConfig) (Provider, error) {
		return NewLocalProvider(cfg), nil
	},
	KindGoogle: func(ctx context.Context, cfg ProviderConfig) (Provider, error) {
		return NewGoogleProvider(ctx, cfg)
	},
}

// NewProvider builds the provider selected by cfg.Kind and wraps it in a circuit breaker.
func NewProvider(ctx context.Context, cfg ProviderConfig) (Provider, error) {
	kind := normalizeProviderName(cfg.Kind)
	if kind == "" {
		return nil, fmt.Errorf("provider kind is required")
	}
	build, ok := providerBuilders[kind]
	if !ok {
		return nil, fmt.Errorf("unknown translation provider %q (available: %s)", kind, strings.Join(ProviderKinds(), ", "))
	}

	provider, err := build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return WithCircuitBreaker(provider, cfg.Breaker), nil
}

// ProviderKinds lists the provider kinds NewProvider accepts.
func ProviderKinds() []string {
	kinds := make([]string, 0, len(providerBuilders))
	for kind := range providerBuilders {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

func normalizeProviderName(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
