// Package langcheck verifies that a piece of text is written in the language
// it is supposed to be in. The humanize pipeline uses it to reject a round
// trip whose back-translation did not land in the source language.
package langcheck

import (
	"fmt"
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// Texts shorter than this are accepted without detection; lingua guesses
// poorly on a handful of words.
const minCheckLength = 20

// Checker is expensive to build. Build one and share it; it is safe for
// concurrent use.
type Checker struct {
	detector lingua.LanguageDetector
	// codes lists the loaded languages; nil means every language.
	codes map[string]bool
}

// New builds a checker restricted to the given ISO 639-1 codes. Unknown codes
// are ignored, and with fewer than two known codes every language is loaded.
func New(codes ...string) *Checker {
	langs := languagesFor(codes)

	builder := lingua.NewLanguageDetectorBuilder()
	if len(langs) < 2 {
		return &Checker{detector: builder.FromAllLanguages().Build()}
	}

	loaded := make(map[string]bool, len(langs))
	for _, lang := range langs {
		loaded[strings.ToLower(lang.IsoCode639_1().String())] = true
	}
	return &Checker{detector: builder.FromLanguages(langs...).Build(), codes: loaded}
}

// Covers reports whether the checker can recognise lang.
func (c *Checker) Covers(lang string) bool {
	return c.codes == nil || c.codes[strings.ToLower(strings.TrimSpace(lang))]
}

func languagesFor(codes []string) []lingua.Language {
	var langs []lingua.Language
	seen := make(map[lingua.Language]bool)
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		for _, lang := range lingua.AllLanguages() {
			if strings.EqualFold(lang.IsoCode639_1().String(), code) && !seen[lang] {
				seen[lang] = true
				langs = append(langs, lang)
			}
		}
	}
	return langs
}

// Detect returns the lower-case ISO 639-1 code of text's language.
func (c *Checker) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	lang, ok := c.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}

// Matches reports whether text appears to be written in lang.
//
// Short and undetectable texts pass, and so does any lang the checker was not
// built for, since it could only answer with one of its own languages.
// Empty text fails. On a mismatch the error names both codes.
func (c *Checker) Matches(text, lang string) (bool, error) {
	if lang == "" || strings.EqualFold(lang, "auto") || !c.Covers(lang) {
		return true, nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false, fmt.Errorf("text is empty")
	}

	if len([]rune(text)) < minCheckLength {
		return true, nil
	}

	detected, ok := c.Detect(text)
	if !ok {
		return true, nil
	}

	if !strings.EqualFold(detected, lang) {
		return false, fmt.Errorf("expected %s but detected %s", lang, detected)
	}
	return true, nil
}
