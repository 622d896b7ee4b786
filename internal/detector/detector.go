package detector

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector. When at least two of isoCodes (ISO 639-1, any case)
// are known languages, detection is restricted to them, which is faster and
// far more accurate for the usual source/target pair. Otherwise every
// language is considered.
func New(isoCodes ...string) *Detector {
	wanted := make(map[string]bool, len(isoCodes))
	for _, code := range isoCodes {
		wanted[strings.ToLower(strings.TrimSpace(code))] = true
	}

	var langs []lingua.Language
	for _, lang := range lingua.AllLanguages() {
		if wanted[strings.ToLower(lang.IsoCode639_1().String())] {
			langs = append(langs, lang)
		}
	}

	builder := lingua.NewLanguageDetectorBuilder()
	var detector lingua.LanguageDetector
	if len(langs) >= 2 {
		detector = builder.FromLanguages(langs...).Build()
	} else {
		detector = builder.FromAllLanguages().Build()
	}

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the lower-case ISO 639-1 code of text's language.
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
