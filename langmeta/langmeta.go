// Package langmeta resolves target language codes: validation, English
// and native display names, emoji flags, and the optional project
// language catalog that restricts which targets are accepted.
package langmeta

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ErrUnknownLanguage is returned for codes that are not valid targets.
var ErrUnknownLanguage = errors.New("unknown language")

// Meta describes language display metadata.
type Meta struct {
	Code   string
	Name   string // English name, e.g. "German"
	Native string // autonym, e.g. "Deutsch"
	Flag   string
}

// Common lists the codes shown by `locsync languages` when no catalog is
// configured.
var Common = []string{
	"af", "am", "ar", "az", "be", "bg", "bn", "bs", "ca", "cs", "cy", "da",
	"de", "el", "en", "es", "es-MX", "et", "eu", "fa", "fi", "fil", "fr",
	"ga", "gl", "gu", "he", "hi", "hr", "hu", "hy", "id", "is", "it", "ja",
	"ka", "kk", "km", "kn", "ko", "lt", "lv", "mk", "ml", "mn", "mr", "ms",
	"my", "nb", "ne", "nl", "pa", "pl", "pt", "pt-BR", "ro", "ru", "si",
	"sk", "sl", "sq", "sr", "sv", "sw", "ta", "te", "th", "tr", "uk", "ur",
	"uz", "vi", "zh-CN", "zh-TW",
}

// canonicalize normalizes separators and case: "pt_br" -> "pt-BR".
func canonicalize(lang string) string {
	lang = strings.TrimSpace(strings.ReplaceAll(lang, "_", "-"))
	if lang == "" {
		return ""
	}
	parts := strings.Split(lang, "-")
	parts[0] = strings.ToLower(parts[0])
	for i := 1; i < len(parts); i++ {
		switch len(parts[i]) {
		case 2:
			parts[i] = strings.ToUpper(parts[i])
		case 4:
			parts[i] = strings.ToUpper(parts[i][:1]) + strings.ToLower(parts[i][1:])
		}
	}
	return strings.Join(parts, "-")
}

// Parse validates a language code and returns its BCP 47 tag.
func Parse(lang string) (language.Tag, error) {
	c := canonicalize(lang)
	if c == "" {
		return language.Und, fmt.Errorf("%w: empty code", ErrUnknownLanguage)
	}
	tag, err := language.Parse(c)
	if err != nil {
		return language.Und, fmt.Errorf("%w %q: %v", ErrUnknownLanguage, lang, err)
	}
	if base, conf := tag.Base(); conf == language.No || base.String() == "und" {
		return language.Und, fmt.Errorf("%w %q", ErrUnknownLanguage, lang)
	}
	return tag, nil
}

// Resolve returns best-effort metadata. Unknown codes come back with the
// code itself as name and no flag.
func Resolve(lang string) Meta {
	tag, err := Parse(lang)
	if err != nil {
		return Meta{Code: lang, Name: lang, Native: lang}
	}
	m := Meta{
		Code:   lang,
		Name:   display.English.Tags().Name(tag),
		Native: display.Self.Name(tag),
		Flag:   flagFor(tag),
	}
	if m.Name == "" {
		m.Name = lang
	}
	if m.Native == "" {
		m.Native = m.Name
	}
	return m
}

// DisplayName returns the label used in prompts, e.g. "German (Deutsch)".
func DisplayName(lang string) string {
	m := Resolve(lang)
	if m.Native == m.Name {
		return m.Name
	}
	return m.Name + " (" + m.Native + ")"
}

// flagFor builds the regional-indicator emoji for the tag's region, as
// given or inferred ("ja" -> JP).
func flagFor(tag language.Tag) string {
	region, conf := tag.Region()
	if conf == language.No {
		return ""
	}
	code := region.String()
	if len(code) != 2 || code[0] < 'A' || code[0] > 'Z' || code[1] < 'A' || code[1] > 'Z' {
		return ""
	}
	return string([]rune{
		0x1F1E6 + rune(code[0]-'A'),
		0x1F1E6 + rune(code[1]-'A'),
	})
}

// Known returns metadata for the catalog codes, or for Common when the
// catalog is nil, sorted by code.
func Known(c *Catalog) []Meta {
	codes := Common
	if c != nil {
		codes = c.Codes()
	}
	out := make([]Meta, 0, len(codes))
	for _, code := range codes {
		out = append(out, Resolve(code))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Validate checks that lang is a well-formed, known language and, when a
// catalog is given, that the catalog lists it.
func Validate(lang string, c *Catalog) error {
	if _, err := Parse(lang); err != nil {
		return err
	}
	if c != nil && !c.Contains(lang) {
		return fmt.Errorf("%w %q: not listed in %s", ErrUnknownLanguage, lang, c.Path)
	}
	return nil
}
