// Package lang validates and converts the book language tag.
package lang

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// parse accepts "pt-BR", "pt_BR", "PT-br" and ISO 639-2 codes like "fra".
func parse(lang string) (language.Tag, error) {
	tag, err := language.Parse(strings.ReplaceAll(strings.TrimSpace(lang), "_", "-"))
	if err != nil || tag == language.Und {
		return language.Und, fmt.Errorf("invalid language code %q (use BCP 47 tags like 'en', 'fr', 'pt-BR'): %w",
			lang, ErrInvalid)
	}
	return tag, nil
}

// Validate checks that lang is a well-formed, known language tag.
// Empty means unspecified and is valid.
func Validate(lang string) error {
	if lang == "" {
		return nil
	}
	_, err := parse(lang)
	return err
}

// Normalize returns the canonical BCP 47 form ("pt_br" -> "pt-BR").
// Invalid input is returned unchanged.
func Normalize(lang string) string {
	if lang == "" {
		return ""
	}
	tag, err := parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}

// ISO3 returns the ISO 639-2 code MP4 stream language fields expect
// ("pt-BR" -> "por"). Returns "" for empty or invalid input.
func ISO3(lang string) string {
	if lang == "" {
		return ""
	}
	tag, err := parse(lang)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	return base.ISO3()
}
