package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"horse.fit/anubad/internal/globaltime"
)

// DefaultLibreTranslateEndpoint is the hosted LibreTranslate instance. It requires an API key.
const DefaultLibreTranslateEndpoint = "https://libretranslate.com/translate"

// LibreTranslateProvider calls a LibreTranslate /translate endpoint.
type LibreTranslateProvider struct {
	endpointURL string
	apiKey      string
	client      *resty.Client
}

func NewLibreTranslateProvider(cfg ProviderConfig) *LibreTranslateProvider {
	return &LibreTranslateProvider{
		endpointURL: cfg.endpoint(DefaultLibreTranslateEndpoint),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		client:      newRestyClient(cfg.timeout()),
	}
}

func (p *LibreTranslateProvider) Name() string {
	return KindLibreTranslate
}

func (p *LibreTranslateProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil {
		return nil, fmt.Errorf("libretranslate provider is nil")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &ValidationError{Reason: "text is required"}
	}
	sourceLang, targetLang := resolveLanguagePair(req)

	payload := libreTranslateRequest{
		Q:      text,
		Source: sourceLang,
		Target: targetLang,
		Format: "text",
		APIKey: p.apiKey,
	}

	request := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload)
	if p.apiKey != "" {
		request.SetAuthToken(p.apiKey)
	}

	started := globaltime.Now()
	resp, err := request.Post(p.endpointURL)
	if err != nil {
		return nil, networkError(p.Name(), err)
	}
	if !resp.IsSuccess() {
		var errPayload libreTranslateError
		if unmarshalErr := json.Unmarshal(resp.Body(), &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error); msg != "" {
				return nil, badStatusError(p.Name(), resp.StatusCode(), msg)
			}
		}
		return nil, badStatusError(p.Name(), resp.StatusCode(), string(resp.Body()))
	}

	var parsed libreTranslateResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, malformedError(p.Name(), "decode response", err)
	}
	if parsed.TranslatedText == nil {
		return nil, malformedError(p.Name(), "response is missing translatedText", nil)
	}

	translated := NormalizeTranslatedText(*parsed.TranslatedText)
	if translated == "" {
		return nil, malformedError(p.Name(), "translatedText is empty", nil)
	}

	return &TranslateResponse{
		Text:      translated,
		LatencyMs: latencySince(started),
	}, nil
}

type libreTranslateRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreTranslateResponse struct {
	TranslatedText *string `json:"translatedText"`
}

type libreTranslateError struct {
	Error string `json:"error"`
}
