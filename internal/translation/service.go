package translation

import "context"

const (
	// SourceLanguage is the only accepted input language.
	SourceLanguage = "en"
	// TargetLanguage is the only produced output language.
	TargetLanguage = "as"
)

//go:generate mockgen -source=service.go -destination=../mocks/translation/mock_provider.go -package=mock_translation Provider

// Provider translates free-form text between languages.
type Provider interface {
	Translate(ctx context.Context, req TranslateRequest) (*TranslateResponse, error)
	Name() string
}

// TranslateRequest describes one translation request.
type TranslateRequest struct {
	Text       string
	SourceLang string // ISO 639-1 (for example: "en", "as")
	TargetLang string
}

// TranslateResponse is one provider answer. LatencyMs covers the outbound call only.
type TranslateResponse struct {
	Text      string
	LatencyMs int64
}

// ProviderRole is the position of a provider in the fallback chain.
type ProviderRole string

const (
	RolePrimary  ProviderRole = "primary"
	RoleFallback ProviderRole = "fallback"
)

func (r ProviderRole) String() string {
	return string(r)
}

// Result is the orchestrator's normalized answer for one request.
// Succeeded results always carry non-empty TranslatedText and a ProviderUsed role.
type Result struct {
	SourceText     string       `json:"source_text"`
	TranslatedText string       `json:"translated_text"`
	ProviderUsed   ProviderRole `json:"provider"`
	ProviderName   string       `json:"service"`
	Succeeded      bool         `json:"succeeded"`
}
