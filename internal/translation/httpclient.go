package translation

import (
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"horse.fit/anubad/internal/globaltime"
)

// DefaultTimeout bounds a single provider call when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// ProviderConfig is the startup configuration of one provider.
type ProviderConfig struct {
	Kind        string
	EndpointURL string
	Timeout     time.Duration
	APIKey      string
	Email       string // MyMemory "de" parameter
	Model       string // local chat-completions model
	Breaker     BreakerSettings
}

func (c ProviderConfig) timeout() time.Duration {
	if c.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.Timeout
}

func (c ProviderConfig) endpoint(fallback string) string {
	endpoint := strings.TrimSpace(c.EndpointURL)
	if endpoint == "" {
		return fallback
	}
	return endpoint
}

func newRestyClient(timeout time.Duration) *resty.Client {
	return resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "anubad/1.0")
}

// checkResponse maps transport failures and non-2xx statuses to provider errors.
func checkResponse(provider string, resp *resty.Response, err error) error {
	if err != nil {
		return networkError(provider, err)
	}
	if resp == nil {
		return networkError(provider, nil)
	}
	if !resp.IsSuccess() {
		return badStatusError(provider, resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

func latencySince(started time.Time) int64 {
	latency := globaltime.Since(started).Milliseconds()
	if latency < 0 {
		return 0
	}
	return latency
}
