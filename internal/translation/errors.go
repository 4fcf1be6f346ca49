package translation

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProviderNetwork           = errors.New("provider unreachable")
	ErrProviderBadStatus         = errors.New("provider returned an error status")
	ErrProviderMalformedResponse = errors.New("provider returned a malformed response")
)

// ValidationError rejects a request before any provider is called.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil || strings.TrimSpace(e.Reason) == "" {
		return "invalid translation request"
	}
	return "invalid translation request: " + e.Reason
}

func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// ProviderError is one failed provider call. Kind is one of the ErrProvider* sentinels.
type ProviderError struct {
	Provider   string
	Kind       error
	StatusCode int
	Detail     string
	Err        error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	var b strings.Builder
	b.WriteString(e.Provider)
	b.WriteString(": ")
	if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	} else {
		b.WriteString("provider error")
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *ProviderError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func networkError(provider string, err error) error {
	return &ProviderError{Provider: provider, Kind: ErrProviderNetwork, Err: err}
}

func badStatusError(provider string, status int, detail string) error {
	return &ProviderError{Provider: provider, Kind: ErrProviderBadStatus, StatusCode: status, Detail: truncateDetail(detail)}
}

func malformedError(provider, detail string, err error) error {
	return &ProviderError{Provider: provider, Kind: ErrProviderMalformedResponse, Detail: detail, Err: err}
}

// AttemptError records why one link of the fallback chain failed.
type AttemptError struct {
	Provider     ProviderRole
	ProviderName string
	Reason       string
	Err          error
}

func (e AttemptError) Error() string {
	return fmt.Sprintf("%s provider %s: %s", e.Provider, e.ProviderName, e.Reason)
}

func (e AttemptError) Unwrap() error {
	return e.Err
}

// BothProvidersFailedError is the only failure the orchestrator reports for a valid request.
type BothProvidersFailedError struct {
	Attempts []AttemptError
}

func (e *BothProvidersFailedError) Error() string {
	if e == nil || len(e.Attempts) == 0 {
		return "all translation providers failed"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		parts = append(parts, attempt.Error())
	}
	return "all translation providers failed: " + strings.Join(parts, "; ")
}

func (e *BothProvidersFailedError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, len(e.Attempts))
	for _, attempt := range e.Attempts {
		errs = append(errs, attempt)
	}
	return errs
}

// Attempt returns the recorded failure for role, if any.
func (e *BothProvidersFailedError) Attempt(role ProviderRole) (AttemptError, bool) {
	if e == nil {
		return AttemptError{}, false
	}
	for _, attempt := range e.Attempts {
		if attempt.Provider == role {
			return attempt, true
		}
	}
	return AttemptError{}, false
}

const maxErrorDetail = 256

func truncateDetail(detail string) string {
	trimmed := strings.TrimSpace(detail)
	runes := []rune(trimmed)
	if len(runes) <= maxErrorDetail {
		return trimmed
	}
	return string(runes[:maxErrorDetail]) + "..."
}
