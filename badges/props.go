package badges

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/go-playground/validator"
	"github.com/meghashyamc/searchbadges/validation"
)

const (
	DefaultWidth          = "w-full"
	DefaultFocusRingClass = "focus:ring-blue-500"
	DefaultBadgePadding   = "5.5rem"
	DefaultPlaceholder    = "Search"

	placeholderTranslationKey = "search_placeholder"
)

type ShortcutStyle string

const (
	ShortcutAuto ShortcutStyle = ""
	ShortcutMac  ShortcutStyle = "mac"
	ShortcutWin  ShortcutStyle = "win"
)

// Props is the complete configuration of a search badges widget.
type Props struct {
	Filters      map[string]FilterConfig `json:"filters" yaml:"filters" validate:"required,min=1,dive"`
	Lang         string                  `json:"lang" yaml:"lang" validate:"required,valid_lang"`
	Translations Translations            `json:"translations,omitempty" yaml:"translations,omitempty" validate:"-"`
	Placeholder  string                  `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`

	Width          string        `json:"width,omitempty" yaml:"width,omitempty"`
	FocusRingClass string        `json:"focusRingClass,omitempty" yaml:"focusRingClass,omitempty"`
	BadgePadding   string        `json:"badgePadding,omitempty" yaml:"badgePadding,omitempty"`
	EnableShortcut *bool         `json:"enableShortcut,omitempty" yaml:"enableShortcut,omitempty"`
	ShortcutStyle  ShortcutStyle `json:"shortcutStyle,omitempty" yaml:"shortcutStyle,omitempty" validate:"omitempty,oneof=mac win"`
}

var propsValidator = validation.NewStruct()

// Validate checks required fields, every filter and that no two filters
// share a filterType. The first problem found is returned as a
// *ConfigurationError.
func (p Props) Validate() error {
	if err := propsValidator.Struct(p); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return toConfigurationError(validationErrs[0])
		}
		return err
	}

	seen := make(map[string]string, len(p.Filters))
	for _, id := range p.FilterIDs() {
		config := p.Filters[id]
		if err := validateKeys(id, config.Keys); err != nil {
			return err
		}
		if other, ok := seen[config.FilterType]; ok {
			return &ConfigurationError{
				Field:  fmt.Sprintf("filters[%s].filterType", id),
				Reason: fmt.Sprintf("filterType '%s' is already used by filter '%s'", config.FilterType, other),
			}
		}
		seen[config.FilterType] = id
	}

	return nil
}

func validateKeys(id string, keys Keys) error {
	field := fmt.Sprintf("filters[%s].keys", id)
	if keys.IsZero() {
		return &ConfigurationError{Field: field, Reason: "missing required field"}
	}
	for _, keyword := range keys.all() {
		if strings.TrimSpace(keyword) == "" {
			return &ConfigurationError{Field: field, Reason: "keywords cannot be blank"}
		}
	}
	return nil
}

func toConfigurationError(fieldErr validator.FieldError) *ConfigurationError {
	field := fieldErr.Namespace()
	if _, rest, found := strings.Cut(field, "."); found {
		field = rest
	}

	reason := fmt.Sprintf("failed '%s' check", fieldErr.Tag())
	switch fieldErr.Tag() {
	case "required":
		reason = "missing required field"
	case "min":
		reason = "must not be empty"
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fieldErr.Param())
	case "valid_lang":
		reason = "must be a valid language code"
	case "oneof":
		reason = fmt.Sprintf("must be one of: %s", fieldErr.Param())
	}

	return &ConfigurationError{Field: field, Reason: reason}
}

// FilterIDs returns the configured filter ids in sorted order.
func (p Props) FilterIDs() []string {
	return slices.Sorted(maps.Keys(p.Filters))
}

// WithDefaults returns a copy of p with every optional styling field set.
// ShortcutStyle stays ShortcutAuto; it is resolved per client.
func (p Props) WithDefaults() Props {
	if p.Width == "" {
		p.Width = DefaultWidth
	}
	if p.FocusRingClass == "" {
		p.FocusRingClass = DefaultFocusRingClass
	}
	if p.BadgePadding == "" {
		p.BadgePadding = DefaultBadgePadding
	}
	if p.EnableShortcut == nil {
		enabled := true
		p.EnableShortcut = &enabled
	}
	return p
}

func (p Props) ShortcutEnabled() bool {
	return p.EnableShortcut == nil || *p.EnableShortcut
}

// ShortcutStyleFor returns the forced shortcut style, or detects it from
// the client's User-Agent.
func (p Props) ShortcutStyleFor(userAgent string) ShortcutStyle {
	if p.ShortcutStyle != ShortcutAuto {
		return p.ShortcutStyle
	}
	return DetectShortcutStyle(userAgent)
}

func DetectShortcutStyle(userAgent string) ShortcutStyle {
	ua := strings.ToLower(userAgent)
	for _, marker := range []string{"macintosh", "mac os", "iphone", "ipad"} {
		if strings.Contains(ua, marker) {
			return ShortcutMac
		}
	}
	return ShortcutWin
}

func (s ShortcutStyle) Label() string {
	if s == ShortcutMac {
		return "⌘K"
	}
	return "Ctrl K"
}

// PlaceholderFor returns the search box placeholder for lang.
func (p Props) PlaceholderFor(lang string) string {
	if p.Placeholder != "" {
		return p.Translations.Resolve(lang, p.Placeholder)
	}
	if value, ok := p.Translations.Lookup(lang, placeholderTranslationKey); ok {
		return value
	}
	return DefaultPlaceholder
}
