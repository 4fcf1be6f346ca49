package translation

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeTranslatedText trims provider output and converts it to NFC so that
// equivalent Assamese sequences compare and store identically.
func NormalizeTranslatedText(raw string) string {
	return norm.NFC.String(strings.TrimSpace(raw))
}

// normalizeLangCode returns the base ISO 639 code ("en" for "en_US"), or "" when unparseable.
func normalizeLangCode(raw string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(raw, "_", "-"))
	if trimmed == "" {
		return ""
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return ""
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return ""
	}
	return base.String()
}

func resolveLanguagePair(req TranslateRequest) (string, string) {
	sourceLang := normalizeLangCode(req.SourceLang)
	if sourceLang == "" {
		sourceLang = SourceLanguage
	}
	targetLang := normalizeLangCode(req.TargetLang)
	if targetLang == "" {
		targetLang = TargetLanguage
	}
	return sourceLang, targetLang
}
