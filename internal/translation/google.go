package translation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"horse.fit/anubad/internal/globaltime"
)

// GoogleProvider calls the Google Cloud Translation (v2) API.
type GoogleProvider struct {
	client  *translate.Client
	timeout time.Duration
}

// NewGoogleProvider dials the Cloud Translation client. An empty API key falls back to
// application default credentials.
func NewGoogleProvider(ctx context.Context, cfg ProviderConfig) (*GoogleProvider, error) {
	opts := []option.ClientOption{}
	if apiKey := strings.TrimSpace(cfg.APIKey); apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if endpoint := strings.TrimSpace(cfg.EndpointURL); endpoint != "" {
		opts = append(opts, option.WithEndpoint(endpoint))
	}

	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create google translate client: %w", err)
	}

	return &GoogleProvider{
		client:  client,
		timeout: cfg.timeout(),
	}, nil
}

func (p *GoogleProvider) Name() string {
	return KindGoogle
}

func (p *GoogleProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil || p.client == nil {
		return nil, fmt.Errorf("google provider is not initialized")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &ValidationError{Reason: "text is required"}
	}
	sourceLang, targetLang := resolveLanguagePair(req)

	targetTag, err := language.Parse(targetLang)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid target language %q", targetLang)}
	}
	sourceTag, err := language.Parse(sourceLang)
	if err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("invalid source language %q", sourceLang)}
	}

	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	started := globaltime.Now()
	translations, err := p.client.Translate(callCtx, []string{text}, targetTag, &translate.Options{
		Source: sourceTag,
		Format: translate.Text,
	})
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return nil, badStatusError(p.Name(), apiErr.Code, apiErr.Message)
		}
		return nil, networkError(p.Name(), err)
	}
	if len(translations) == 0 {
		return nil, malformedError(p.Name(), "no translation returned", nil)
	}

	translated := NormalizeTranslatedText(translations[0].Text)
	if translated == "" {
		return nil, malformedError(p.Name(), "translation text is empty", nil)
	}

	return &TranslateResponse{
		Text:      translated,
		LatencyMs: latencySince(started),
	}, nil
}

func (p *GoogleProvider) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
