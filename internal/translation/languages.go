package translation

type LanguageOption struct {
	Code   string `json:"code"`
	Label  string `json:"label"`
	Native string `json:"native,omitempty"`
	Role   string `json:"role"`
}

type languageLabel struct {
	english string
	native  string
}

var translationLanguageLabels = map[string]languageLabel{
	SourceLanguage: {english: "English", native: "English"},
	TargetLanguage: {english: "Assamese", native: "অসমীয়া"},
}

// LanguageOptions describes the fixed source and target languages for the UI.
func LanguageOptions() []LanguageOption {
	source := translationLanguageLabels[SourceLanguage]
	target := translationLanguageLabels[TargetLanguage]
	return []LanguageOption{
		{Code: SourceLanguage, Label: source.english, Native: source.native, Role: "source"},
		{Code: TargetLanguage, Label: target.english, Native: target.native, Role: "target"},
	}
}

func targetLanguageLabel(code string) string {
	if labels, ok := translationLanguageLabels[normalizeLangCode(code)]; ok {
		return labels.english
	}
	return code
}
