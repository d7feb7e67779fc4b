package badges

import (
	"maps"
	"slices"
	"strings"

	"github.com/meghashyamc/searchbadges/validation"
	"golang.org/x/text/language"
)

const DefaultLang = "en"

// Translations maps a language code to its translation keys.
type Translations map[string]map[string]string

// Lookup finds key for lang, trying the exact tag, its base language and
// finally DefaultLang.
func (t Translations) Lookup(lang string, key string) (string, bool) {
	if len(t) == 0 || key == "" {
		return "", false
	}
	for _, candidate := range append(languageChain(lang), DefaultLang) {
		keys, _ := langEntry(t, candidate)
		if value, ok := keys[key]; ok {
			return value, true
		}
	}
	return "", false
}

// Resolve returns the translation of key for lang, or key itself when no
// language in the fallback chain defines it.
func (t Translations) Resolve(lang string, key string) string {
	if value, ok := t.Lookup(lang, key); ok {
		return value
	}
	return key
}

// ValidLang reports whether lang is a well-formed BCP 47 language tag.
func ValidLang(lang string) bool {
	return validation.ValidLang(lang)
}

// BaseLanguage returns the lowercase base language of lang ("fr-CA" gives
// "fr"), or lang lowercased when it cannot be parsed.
func BaseLanguage(lang string) string {
	chain := languageChain(lang)
	if len(chain) == 0 {
		return ""
	}
	return strings.ToLower(chain[len(chain)-1])
}

// languageChain returns the canonical form of lang followed by its base
// language when they differ. Tags compare case-insensitively, so "pt-br"
// gives ["pt-BR", "pt"].
func languageChain(lang string) []string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return nil
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return []string{strings.ToLower(lang)}
	}
	chain := []string{tag.String()}
	base, confidence := tag.Base()
	if confidence == language.No {
		return chain
	}
	if baseLang := base.String(); baseLang != chain[0] {
		chain = append(chain, baseLang)
	}
	return chain
}

func canonicalLang(lang string) string {
	chain := languageChain(lang)
	if len(chain) == 0 {
		return ""
	}
	return chain[0]
}

// langEntry finds the value whose language key has the same canonical form
// as tag.
func langEntry[V any](values map[string]V, tag string) (V, bool) {
	if value, ok := values[tag]; ok {
		return value, true
	}
	for _, key := range slices.Sorted(maps.Keys(values)) {
		if canonicalLang(key) == tag {
			return values[key], true
		}
	}
	var zero V
	return zero, false
}
