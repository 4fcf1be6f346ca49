package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"

	"horse.fit/anubad/internal/globaltime"
)

const (
	// DefaultLocalEndpoint points to a local OpenAI-compatible translation endpoint.
	DefaultLocalEndpoint = "http://127.0.0.1:8845/v1"
	// DefaultLocalModel is the default HY-MT model name.
	DefaultLocalModel = "tencent/HY-MT1.5-7B"
)

// LocalProvider translates text by calling an OpenAI-compatible chat completions endpoint.
type LocalProvider struct {
	endpointURL string
	model       string
	apiKey      string
	client      *resty.Client
}

// NewLocalProvider builds a local provider for the configured endpoint/model.
func NewLocalProvider(cfg ProviderConfig) *LocalProvider {
	normalizedEndpoint := normalizeEndpoint(cfg.EndpointURL)
	trimmedModel := strings.TrimSpace(cfg.Model)
	if trimmedModel == "" {
		trimmedModel = DefaultLocalModel
	}
	return &LocalProvider{
		endpointURL: chatCompletionsURL(normalizedEndpoint),
		model:       trimmedModel,
		apiKey:      strings.TrimSpace(cfg.APIKey),
		client:      newRestyClient(cfg.timeout()),
	}
}

func (p *LocalProvider) Name() string {
	return KindLocal
}

// ModelName returns the configured model identifier.
func (p *LocalProvider) ModelName() string {
	if p == nil {
		return ""
	}
	return p.model
}

func (p *LocalProvider) Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error) {
	if p == nil {
		return nil, fmt.Errorf("local provider is nil")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, &ValidationError{Reason: "text is required"}
	}
	_, targetLang := resolveLanguagePair(req)

	request := p.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(localChatRequest{
			Model: p.model,
			Messages: []localChatMessage{
				{
					Role:    "user",
					Content: buildHYMTPrompt(text, targetLang),
				},
			},
			Temperature: 0.7,
			TopP:        0.6,
		})
	if p.apiKey != "" {
		request.SetAuthToken(p.apiKey)
	}

	started := globaltime.Now()
	resp, err := request.Post(p.endpointURL)
	if err != nil {
		return nil, networkError(p.Name(), err)
	}
	if !resp.IsSuccess() {
		var errPayload localChatErrorResponse
		if unmarshalErr := json.Unmarshal(resp.Body(), &errPayload); unmarshalErr == nil {
			if msg := strings.TrimSpace(errPayload.Error.Message); msg != "" {
				return nil, badStatusError(p.Name(), resp.StatusCode(), msg)
			}
		}
		return nil, badStatusError(p.Name(), resp.StatusCode(), string(resp.Body()))
	}

	var parsed localChatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, malformedError(p.Name(), "decode response", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, malformedError(p.Name(), "response is missing choices", nil)
	}

	translated := NormalizeTranslatedText(parsed.Choices[0].Message.Content)
	if translated == "" {
		return nil, malformedError(p.Name(), "choice content is empty", nil)
	}

	return &TranslateResponse{
		Text:      translated,
		LatencyMs: latencySince(started),
	}, nil
}

type localChatRequest struct {
	Model       string             `json:"model"`
	Messages    []localChatMessage `json:"messages"`
	Temperature float64            `json:"temperature,omitempty"`
	TopP        float64            `json:"top_p,omitempty"`
}

type localChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type localChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type localChatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// HY-MT xx<=>xx template.
func buildHYMTPrompt(text, targetLang string) string {
	return fmt.Sprintf("Translate the following segment into %s, without additional explanation.\n\n%s", targetLanguageLabel(targetLang), text)
}

func normalizeEndpoint(raw string) string {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return DefaultLocalEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}

	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultLocalEndpoint
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/")
	if parsed.Path == "" {
		parsed.Path = "/v1"
	}
	return parsed.String()
}

func chatCompletionsURL(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || strings.TrimSpace(parsed.Host) == "" {
		return DefaultLocalEndpoint + "/chat/completions"
	}

	path := strings.TrimRight(parsed.Path, "/")
	switch {
	case strings.HasSuffix(path, "/chat/completions"):
		parsed.Path = path
	case strings.HasSuffix(path, "/v1"):
		parsed.Path = path + "/chat/completions"
	case path == "":
		parsed.Path = "/v1/chat/completions"
	default:
		parsed.Path = path + "/v1/chat/completions"
	}

	return parsed.String()
}
