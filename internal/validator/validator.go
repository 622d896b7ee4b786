// Package validator rejects backend output that is not written in the target
// language, such as an echoed source passage or a half-translated chunk.
package validator

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/language"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/detector"
)

// minValidationLength is the rune count below which detection is unreliable
// and output is accepted as is.
const minValidationLength = 20

// maxHanRatio is the share of Han ideographs tolerated in output for a
// target language that is not written in Han script.
const maxHanRatio = 0.1

var hanTargets = map[string]bool{"zh": true, "ja": true}

// Validator is safe for concurrent use. Building the detector is expensive;
// reuse the instance.
type Validator struct {
	det *detector.Detector
}

// New creates a Validator. Passing the source and target language tags
// restricts detection to that pair.
func New(tags ...string) *Validator {
	codes := make([]string, len(tags))
	for i, tag := range tags {
		codes[i] = baseLanguage(tag)
	}
	return &Validator{det: detector.New(codes...)}
}

// IsValid reports whether translatedText appears to be written in targetLang.
// An empty targetLang disables validation; undecidable text passes.
func (v *Validator) IsValid(translatedText, targetLang string) (bool, error) {
	if targetLang == "" {
		return true, nil
	}

	text := strings.TrimSpace(translatedText)
	if text == "" {
		return false, fmt.Errorf("translation is empty")
	}

	target := baseLanguage(targetLang)
	if !hanTargets[target] {
		if ratio := hanRatio(text); ratio > maxHanRatio {
			return false, fmt.Errorf("%.0f%% of the output is untranslated Han text", ratio*100)
		}
	}

	if len([]rune(text)) < minValidationLength {
		return true, nil
	}

	detected, ok := v.det.DetectISO(text)
	if !ok {
		return true, nil
	}
	if detected != target {
		return false, fmt.Errorf("expected %s but detected %s", target, detected)
	}

	return true, nil
}

// baseLanguage reduces a tag such as "en-US" or "zh-Hans" to the ISO 639-1
// code the detector reports.
func baseLanguage(tag string) string {
	parsed, err := language.Parse(tag)
	if err != nil {
		return strings.ToLower(tag)
	}
	base, _ := parsed.Base()
	return base.String()
}

func hanRatio(text string) float64 {
	var han, letters int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.Is(unicode.Han, r) {
			han++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(han) / float64(letters)
}
