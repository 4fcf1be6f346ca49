package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"horse.fit/anubad/internal/globaltime"
)

// DefaultMyMemoryEndpoint is the public MyMemory GET endpoint. No API key is required.
const DefaultMyMemoryEndpoint = "https://api.mymemory.translated.net/get"

// MyMemoryProvider calls the MyMemory translation memory API.
type MyMemoryProvider struct {
	endpointURL string
	apiKey      string
	email       string
	client      *resty.Client
}

func NewMyMemoryProvider(cfg ProviderConfig) *MyMemoryProvider {
	return &MyMemoryProvider{
		endpointURL: cfg.endpoint(DefaultMyMemoryEndpoint),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		email:       strings.TrimSpace(cfg.Email),
		client:      newRestyClient(cfg.timeout()),
	}
}

func (p *MyMemoryProvider) Name() string {
	return KindMyMemory
}

func (p *MyMemoryProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil {
		return nil, fmt.Errorf("mymemory provider is nil")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &ValidationError{Reason: "text is required"}
	}
	sourceLang, targetLang := resolveLanguagePair(req)

	params := map[string]string{
		"q":        text,
		"langpair": sourceLang + "|" + targetLang,
	}
	if p.email != "" {
		params["de"] = p.email
	}
	if p.apiKey != "" {
		params["key"] = p.apiKey
	}

	started := globaltime.Now()
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(p.endpointURL)
	if err := checkResponse(p.Name(), resp, err); err != nil {
		return nil, err
	}

	var parsed myMemoryResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, malformedError(p.Name(), "decode response", err)
	}

	if strings.TrimSpace(parsed.ResponseStatus.String()) == "" {
		return nil, malformedError(p.Name(), "response is missing responseStatus", nil)
	}
	status, err := parsed.ResponseStatus.Int64()
	if err != nil {
		return nil, malformedError(p.Name(), "responseStatus is not numeric", err)
	}
	if status != http.StatusOK {
		return nil, badStatusError(p.Name(), int(status), parsed.ResponseDetails)
	}
	if parsed.ResponseData == nil {
		return nil, malformedError(p.Name(), "response is missing responseData", nil)
	}

	translated := NormalizeTranslatedText(parsed.ResponseData.TranslatedText)
	if translated == "" {
		return nil, malformedError(p.Name(), "responseData.translatedText is empty", nil)
	}

	return &TranslateResponse{
		Text:      translated,
		LatencyMs: latencySince(started),
	}, nil
}

type myMemoryResponse struct {
	ResponseData *struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	// MyMemory reports the status as a number on success and sometimes as a string on errors.
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}
