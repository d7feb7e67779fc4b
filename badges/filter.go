package badges

// FilterConfig describes one keyword-triggered badge and the filter tag it
// applies to the search engine.
type FilterConfig struct {
	Keys Keys `json:"keys" yaml:"keys" validate:"-"`
	// Label is either display text or a translation key.
	Label string `json:"label" yaml:"label"`
	Badge string `json:"badge" yaml:"badge" validate:"required,max=8"`
	Color Color  `json:"color" yaml:"color" validate:"-"`
	// FilterType must match a tag value present in result filters.
	FilterType string `json:"filterType" yaml:"filterType" validate:"required"`
}

// DisplayLabel resolves the label for lang. A label with no matching
// translation is shown as written, and an empty label falls back to the badge.
func (f FilterConfig) DisplayLabel(lang string, translations Translations) string {
	if f.Label == "" {
		return f.Badge
	}
	return translations.Resolve(lang, f.Label)
}
