package translation

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
)

type stubProvider struct {
	name string
	resp *TranslateResponse
	err  error

	mu    sync.Mutex
	calls int
	texts []string
}

func (p *stubProvider) Translate(_ context.Context, req TranslateRequest) (*TranslateResponse, error) {
	p.mu.Lock()
	p.calls++
	p.texts = append(p.texts, req.Text)
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}
	if p.resp == nil {
		return nil, nil
	}
	resp := *p.resp
	return &resp, nil
}

func (p *stubProvider) Name() string {
	return p.name
}

func (p *stubProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newStubOrchestrator(t *testing.T, primary, fallback Provider) *Orchestrator {
	t.Helper()

	orchestrator, err := NewOrchestrator(primary, fallback, zerolog.Nop())
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return orchestrator
}

func TestTranslate_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "mymemory", resp: &TranslateResponse{Text: "নমস্কাৰ"}}
	fallback := &stubProvider{name: "libretranslate", resp: &TranslateResponse{Text: "unused"}}
	orchestrator := newStubOrchestrator(t, primary, fallback)

	result, err := orchestrator.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if !result.Succeeded {
		t.Fatalf("expected succeeded result")
	}
	if result.TranslatedText != "নমস্কাৰ" {
		t.Fatalf("unexpected translated text: got %q want %q", result.TranslatedText, "নমস্কাৰ")
	}
	if result.SourceText != "Hello" {
		t.Fatalf("unexpected source text: got %q want Hello", result.SourceText)
	}
	if result.ProviderUsed != RolePrimary || result.ProviderName != "mymemory" {
		t.Fatalf("unexpected provider: %+v", result)
	}
	if primary.callCount() != 1 {
		t.Fatalf("unexpected primary call count: got %d want 1", primary.callCount())
	}
	if fallback.callCount() != 0 {
		t.Fatalf("fallback must not be called when primary succeeds, got %d calls", fallback.callCount())
	}
}

func TestTranslate_FallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "mymemory", err: badStatusError("mymemory", 503, "service unavailable")}
	fallback := &stubProvider{name: "libretranslate", resp: &TranslateResponse{Text: "সুপ্ৰভাত"}}
	orchestrator := newStubOrchestrator(t, primary, fallback)

	result, err := orchestrator.Translate(context.Background(), "Good morning")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}

	if result.ProviderUsed != RoleFallback {
		t.Fatalf("unexpected provider role: got %q want %q", result.ProviderUsed, RoleFallback)
	}
	if result.ProviderName != "libretranslate" {
		t.Fatalf("unexpected provider name: got %q want libretranslate", result.ProviderName)
	}
	if result.TranslatedText != "সুপ্ৰভাত" {
		t.Fatalf("unexpected translated text: got %q", result.TranslatedText)
	}
	if primary.callCount() != 1 || fallback.callCount() != 1 {
		t.Fatalf("unexpected call counts: primary=%d fallback=%d", primary.callCount(), fallback.callCount())
	}
}

func TestTranslate_EmptyPrimaryTextFallsBack(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "mymemory", resp: &TranslateResponse{Text: "   "}}
	fallback := &stubProvider{name: "libretranslate", resp: &TranslateResponse{Text: "ধন্যবাদ"}}
	orchestrator := newStubOrchestrator(t, primary, fallback)

	result, err := orchestrator.Translate(context.Background(), "Thank you")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if result.ProviderUsed != RoleFallback {
		t.Fatalf("unexpected provider role: got %q want fallback", result.ProviderUsed)
	}
}

func TestTranslate_NilResponseIsMalformed(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "mymemory"}
	fallback := &stubProvider{name: "libretranslate"}
	orchestrator := newStubOrchestrator(t, primary, fallback)

	_, err := orchestrator.Translate(context.Background(), "Hello")
	if !errors.Is(err, ErrProviderMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
}

func TestTranslate_EmptyInputNeverCallsProviders(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "mymemory", resp: &TranslateResponse{Text: "x"}}
	fallback := &stubProvider{name: "libretranslate", resp: &TranslateResponse{Text: "x"}}
	orchestrator := newStubOrchestrator(t, primary, fallback)

	for _, input := range []string{"", "   ", "\n\t"} {
		_, err := orchestrator.Translate(context.Background(), input)
		if !IsValidationError(err) {
			t.Fatalf("expected validation error for %q, got %v", input, err)
		}
	}
	if primary.callCount() != 0 || fallback.callCount() != 0 {
		t.Fatalf("providers must not be called: primary=%d fallback=%d", primary.callCount(), fallback.callCount())
	}
}

func TestTranslate_BothFailReportsEachAttempt(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "mymemory", err: networkError("mymemory", errors.New("dial tcp: connection refused"))}
	fallback := &stubProvider{name: "libretranslate", err: badStatusError("libretranslate", 500, "internal error")}
	orchestrator := newStubOrchestrator(t, primary, fallback)

	result, err := orchestrator.Translate(context.Background(), "Hello")
	if result.Succeeded {
		t.Fatalf("expected failed result")
	}

	var failed *BothProvidersFailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected BothProvidersFailedError, got %T: %v", err, err)
	}
	if len(failed.Attempts) != 2 {
		t.Fatalf("unexpected attempt count: got %d want 2", len(failed.Attempts))
	}

	primaryAttempt, ok := failed.Attempt(RolePrimary)
	if !ok || !errors.Is(primaryAttempt, ErrProviderNetwork) {
		t.Fatalf("unexpected primary attempt: %+v", primaryAttempt)
	}
	fallbackAttempt, ok := failed.Attempt(RoleFallback)
	if !ok || !errors.Is(fallbackAttempt, ErrProviderBadStatus) {
		t.Fatalf("unexpected fallback attempt: %+v", fallbackAttempt)
	}
	if !errors.Is(err, ErrProviderNetwork) || !errors.Is(err, ErrProviderBadStatus) {
		t.Fatalf("expected joined error to match both failure kinds: %v", err)
	}
}

func TestTranslate_IsIdempotent(t *testing.T) {
	t.Parallel()

	primary := &stubProvider{name: "mymemory", resp: &TranslateResponse{Text: "নমস্কাৰ", LatencyMs: 12}}
	fallback := &stubProvider{name: "libretranslate", resp: &TranslateResponse{Text: "unused"}}
	orchestrator := newStubOrchestrator(t, primary, fallback)

	first, err := orchestrator.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("first translate: %v", err)
	}
	primary.resp.LatencyMs = 90
	second, err := orchestrator.Translate(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("second translate: %v", err)
	}
	if first != second {
		t.Fatalf("expected identical results: first=%+v second=%+v", first, second)
	}
}

func TestTranslate_TrimsInputAndNormalizesOutput(t *testing.T) {
	t.Parallel()

	// vowel sign O written as its decomposed pair U+09C7 U+09BE
	primary := &stubProvider{name: "mymemory", resp: &TranslateResponse{Text: "  \u09a6\u09c7\u09be  "}}
	fallback := &stubProvider{name: "libretranslate", resp: &TranslateResponse{Text: "unused"}}
	orchestrator := newStubOrchestrator(t, primary, fallback)

	result, err := orchestrator.Translate(context.Background(), "  Give  ")
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	if result.SourceText != "Give" {
		t.Fatalf("unexpected source text: got %q want Give", result.SourceText)
	}
	if primary.texts[0] != "Give" {
		t.Fatalf("provider received untrimmed text: %q", primary.texts[0])
	}
	if result.TranslatedText != "\u09a6\u09cb" {
		t.Fatalf("unexpected normalized text: got %q want %q", result.TranslatedText, "\u09a6\u09cb")
	}
}

func TestNewOrchestrator_RequiresBothProviders(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{name: "mymemory"}
	if _, err := NewOrchestrator(nil, provider, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing primary")
	}
	if _, err := NewOrchestrator(provider, nil, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing fallback")
	}
}

func TestProviderNames(t *testing.T) {
	t.Parallel()

	orchestrator := newStubOrchestrator(t, &stubProvider{name: "mymemory"}, &stubProvider{name: "local"})
	names := orchestrator.ProviderNames()
	if names[RolePrimary] != "mymemory" || names[RoleFallback] != "local" {
		t.Fatalf("unexpected provider names: %+v", names)
	}
}

func TestTranslate_LogsProviderCallLatency(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	primary := &stubProvider{name: "mymemory", resp: &TranslateResponse{Text: "নমস্কাৰ", LatencyMs: 42}}
	fallback := &stubProvider{name: "libretranslate", resp: &TranslateResponse{Text: "unused"}}
	orchestrator, err := NewOrchestrator(primary, fallback, zerolog.New(&logs))
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}

	if _, err := orchestrator.Translate(context.Background(), "Hello"); err != nil {
		t.Fatalf("translate: %v", err)
	}
	if !strings.Contains(logs.String(), `"call_ms":42`) {
		t.Fatalf("expected provider call latency in log line, got %s", logs.String())
	}
}
