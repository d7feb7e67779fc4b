package badges

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"gopkg.in/yaml.v3"
)

// KeysKind tells which shape a FilterConfig's keys were declared with.
type KeysKind int

const (
	KeysUnset KeysKind = iota
	// KeywordList holds an ordered list of keywords used for every language.
	KeywordList
	// PerLanguageKeyword holds exactly one keyword per language code.
	PerLanguageKeyword
)

func (k KeysKind) String() string {
	switch k {
	case KeywordList:
		return "keyword_list"
	case PerLanguageKeyword:
		return "per_language_keyword"
	default:
		return "unset"
	}
}

// Keys is the keyword set of a filter. It is either a KeywordList or a
// PerLanguageKeyword mapping; callers must switch on Kind before reading it.
type Keys struct {
	kind    KeysKind
	list    []string
	perLang map[string]string
}

func NewKeywordList(keywords ...string) Keys {
	return Keys{kind: KeywordList, list: slices.Clone(keywords)}
}

func NewPerLanguageKeyword(keywords map[string]string) Keys {
	perLang := make(map[string]string, len(keywords))
	maps.Copy(perLang, keywords)
	return Keys{kind: PerLanguageKeyword, perLang: perLang}
}

func (k Keys) Kind() KeysKind {
	return k.kind
}

func (k Keys) IsZero() bool {
	return k.kind == KeysUnset
}

// List returns the keywords of a KeywordList and nil for any other kind.
func (k Keys) List() []string {
	if k.kind != KeywordList {
		return nil
	}
	return slices.Clone(k.list)
}

// PerLanguage returns the language to keyword mapping of a
// PerLanguageKeyword and nil for any other kind.
func (k Keys) PerLanguage() map[string]string {
	if k.kind != PerLanguageKeyword {
		return nil
	}
	perLang := make(map[string]string, len(k.perLang))
	maps.Copy(perLang, k.perLang)
	return perLang
}

// Keywords returns the keywords that trigger the filter for lang. A
// PerLanguageKeyword falls back from a regional tag to its base language.
func (k Keys) Keywords(lang string) []string {
	switch k.kind {
	case KeywordList:
		return k.List()
	case PerLanguageKeyword:
		for _, candidate := range languageChain(lang) {
			if keyword, ok := langEntry(k.perLang, candidate); ok {
				return []string{keyword}
			}
		}
		return nil
	default:
		return nil
	}
}

// all returns every keyword regardless of language.
func (k Keys) all() []string {
	switch k.kind {
	case KeywordList:
		return k.list
	case PerLanguageKeyword:
		keywords := make([]string, 0, len(k.perLang))
		for _, lang := range slices.Sorted(maps.Keys(k.perLang)) {
			keywords = append(keywords, k.perLang[lang])
		}
		return keywords
	default:
		return nil
	}
}

func (k Keys) MarshalJSON() ([]byte, error) {
	switch k.kind {
	case KeywordList:
		list := k.list
		if list == nil {
			list = []string{}
		}
		return json.Marshal(list)
	case PerLanguageKeyword:
		perLang := k.perLang
		if perLang == nil {
			perLang = map[string]string{}
		}
		return json.Marshal(perLang)
	default:
		return []byte("null"), nil
	}
}

func (k *Keys) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("keys: empty value")
	}

	switch data[0] {
	case '[':
		var list []string
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("keys: keyword list must contain only strings: %w", err)
		}
		*k = NewKeywordList(list...)
	case '{':
		var perLang map[string]string
		if err := json.Unmarshal(data, &perLang); err != nil {
			return fmt.Errorf("keys: per-language keywords must map language codes to strings: %w", err)
		}
		*k = NewPerLanguageKeyword(perLang)
	case 'n':
		*k = Keys{}
	default:
		return fmt.Errorf("keys: expected a list of keywords or a mapping of language to keyword")
	}

	return nil
}

func (k Keys) MarshalYAML() (interface{}, error) {
	switch k.kind {
	case KeywordList:
		return k.list, nil
	case PerLanguageKeyword:
		return k.perLang, nil
	default:
		return nil, nil
	}
}

func (k *Keys) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []string
		if err := value.Decode(&list); err != nil {
			return fmt.Errorf("keys: keyword list must contain only strings: %w", err)
		}
		*k = NewKeywordList(list...)
	case yaml.MappingNode:
		var perLang map[string]string
		if err := value.Decode(&perLang); err != nil {
			return fmt.Errorf("keys: per-language keywords must map language codes to strings: %w", err)
		}
		*k = NewPerLanguageKeyword(perLang)
	case yaml.ScalarNode:
		if value.Tag != "!!null" {
			return fmt.Errorf("keys: expected a list of keywords or a mapping of language to keyword, got %q", value.Value)
		}
		*k = Keys{}
	default:
		return fmt.Errorf("keys: expected a list of keywords or a mapping of language to keyword")
	}

	return nil
}
