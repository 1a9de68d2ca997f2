package translate

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// LinguaDetector detects the student languages lingua has models for.
// Kannada and Malayalam have none and come back as undetected.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

func NewLinguaDetector() *LinguaDetector {
	d := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English,
			lingua.Hindi,
			lingua.Urdu,
			lingua.Tamil,
			lingua.Telugu,
			lingua.Bengali,
			lingua.Marathi,
			lingua.Gujarati,
		).
		Build()
	return &LinguaDetector{detector: d}
}

// Detect returns the lower-case ISO 639-1 code of text.
func (d *LinguaDetector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
