package langdetect

import (
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// minLetters is the shortest input the detector is asked about. Short strings
// like "Hi" are too ambiguous to classify.
const minLetters = 6

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

// candidates are the languages users of an English-to-Assamese tool plausibly paste.
var candidates = []lingua.Language{
	lingua.English,
	lingua.Bengali,
	lingua.Hindi,
	lingua.French,
	lingua.German,
	lingua.Spanish,
	lingua.Portuguese,
	lingua.Indonesian,
}

// Detection is the best guess for an input text.
type Detection struct {
	Code       string  // ISO 639-1, empty when undetermined
	Confidence float64 // 0..1
}

// IsEnglish reports whether the text was positively detected as English.
func (d Detection) IsEnglish() bool {
	return d.Code == "en"
}

// Undetermined reports whether the detector declined to classify the text.
func (d Detection) Undetermined() bool {
	return d.Code == ""
}

func Detect(text string) Detection {
	sample := strings.TrimSpace(text)
	if sample == "" {
		return Detection{}
	}

	letterCount := 0
	for _, r := range sample {
		if unicode.IsLetter(r) {
			letterCount++
		}
	}
	if letterCount < minLetters {
		return Detection{}
	}

	d := getDetector()
	language, exists := d.DetectLanguageOf(sample)
	if !exists {
		return Detection{}
	}

	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return Detection{}
	}
	return Detection{
		Code:       code,
		Confidence: d.ComputeLanguageConfidence(sample, language),
	}
}

// DetectISO6391 returns only the language code of Detect.
func DetectISO6391(text string) string {
	return Detect(text).Code
}

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(candidates...).
			WithMinimumRelativeDistance(0.1).
			Build()
	})
	return detector
}
