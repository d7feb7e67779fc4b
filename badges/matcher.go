package badges

import (
	"cmp"
	"maps"
	"slices"
	"strings"
	"unicode"
)

// Suggestion pairs a keyword detected in the query with the filter it
// belongs to. Position is the rune offset of the keyword in the query.
type Suggestion struct {
	FilterID string       `json:"filter_id"`
	Keyword  string       `json:"keyword"`
	Config   FilterConfig `json:"config"`
	Position int          `json:"position"`
}

type matchEntry struct {
	filterID string
	keyword  string
	runes    []rune
	config   FilterConfig
}

// Matcher finds configured keywords inside free-text queries.
type Matcher struct {
	entries []matchEntry
}

// NewMatcher indexes the keywords every filter declares for lang.
func NewMatcher(filters map[string]FilterConfig, lang string) *Matcher {
	matcher := &Matcher{}
	for _, id := range slices.Sorted(maps.Keys(filters)) {
		config := filters[id]
		for _, keyword := range config.Keys.Keywords(lang) {
			keyword = strings.TrimSpace(keyword)
			if keyword == "" {
				continue
			}
			matcher.entries = append(matcher.entries, matchEntry{
				filterID: id,
				keyword:  keyword,
				runes:    lowerRunes(keyword),
				config:   config,
			})
		}
	}
	return matcher
}

// Suggest returns the keyword that appears first in query. When two
// keywords start at the same position the longer one wins.
func (m *Matcher) Suggest(query string) (Suggestion, bool) {
	suggestions := m.matchAll(query)
	if len(suggestions) == 0 {
		return Suggestion{}, false
	}
	return suggestions[0], true
}

// SuggestAll returns one suggestion per matched filter, in query order.
func (m *Matcher) SuggestAll(query string) []Suggestion {
	seen := make(map[string]struct{})
	var suggestions []Suggestion
	for _, suggestion := range m.matchAll(query) {
		if _, ok := seen[suggestion.FilterID]; ok {
			continue
		}
		seen[suggestion.FilterID] = struct{}{}
		suggestions = append(suggestions, suggestion)
	}
	return suggestions
}

func (m *Matcher) matchAll(query string) []Suggestion {
	text := lowerRunes(query)
	var suggestions []Suggestion
	for _, entry := range m.entries {
		position := findWord(text, entry.runes)
		if position < 0 {
			continue
		}
		suggestions = append(suggestions, Suggestion{
			FilterID: entry.filterID,
			Keyword:  entry.keyword,
			Config:   entry.config,
			Position: position,
		})
	}

	slices.SortStableFunc(suggestions, func(a, b Suggestion) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}
		if c := cmp.Compare(len([]rune(b.Keyword)), len([]rune(a.Keyword))); c != 0 {
			return c
		}
		return cmp.Compare(a.FilterID, b.FilterID)
	})
	return suggestions
}

// StripKeyword removes the first whole-word occurrence of keyword from
// query and normalises the remaining whitespace.
func StripKeyword(query string, keyword string) string {
	text := []rune(query)
	position := findWord(lowerRunes(query), lowerRunes(strings.TrimSpace(keyword)))
	if position < 0 {
		return strings.Join(strings.Fields(query), " ")
	}
	end := position + len([]rune(strings.TrimSpace(keyword)))
	stripped := string(text[:position]) + " " + string(text[end:])
	return strings.Join(strings.Fields(stripped), " ")
}

// findWord returns the rune offset of the first occurrence of word in text
// that sits on word boundaries, or -1.
func findWord(text []rune, word []rune) int {
	if len(word) == 0 {
		return -1
	}
	for i := 0; i+len(word) <= len(text); i++ {
		if i > 0 && isWordRune(text[i-1]) {
			continue
		}
		if !slices.Equal(text[i:i+len(word)], word) {
			continue
		}
		if end := i + len(word); end < len(text) && isWordRune(text[end]) {
			continue
		}
		return i
	}
	return -1
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func lowerRunes(s string) []rune {
	runes := []rune(s)
	for i, r := range runes {
		runes[i] = unicode.ToLower(r)
	}
	return runes
}
