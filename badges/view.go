package badges

// FilterView is a filter with its label translated and its color expanded.
type FilterView struct {
	ID           string   `json:"id"`
	Label        string   `json:"label"`
	Badge        string   `json:"badge"`
	Color        Color    `json:"color"`
	ColorClasses string   `json:"color_classes"`
	FilterType   string   `json:"filter_type"`
	Keywords     []string `json:"keywords"`
}

// View is the fully resolved widget configuration for one client.
type View struct {
	Lang           string        `json:"lang"`
	Placeholder    string        `json:"placeholder"`
	Width          string        `json:"width"`
	FocusRingClass string        `json:"focus_ring_class"`
	BadgePadding   string        `json:"badge_padding"`
	EnableShortcut bool          `json:"enable_shortcut"`
	ShortcutStyle  ShortcutStyle `json:"shortcut_style,omitempty"`
	ShortcutLabel  string        `json:"shortcut_label,omitempty"`
	Filters        []FilterView  `json:"filters"`
}

// Resolve applies defaults and translations for lang. An empty lang uses
// the configured one.
func (p Props) Resolve(lang string, userAgent string) View {
	if lang == "" {
		lang = p.Lang
	}
	p = p.WithDefaults()

	view := View{
		Lang:           lang,
		Placeholder:    p.PlaceholderFor(lang),
		Width:          p.Width,
		FocusRingClass: p.FocusRingClass,
		BadgePadding:   p.BadgePadding,
		EnableShortcut: p.ShortcutEnabled(),
		Filters:        make([]FilterView, 0, len(p.Filters)),
	}
	if view.EnableShortcut {
		view.ShortcutStyle = p.ShortcutStyleFor(userAgent)
		view.ShortcutLabel = view.ShortcutStyle.Label()
	}

	for _, id := range p.FilterIDs() {
		config := p.Filters[id]
		keywords := config.Keys.Keywords(lang)
		if keywords == nil {
			keywords = []string{}
		}
		color := config.Color
		if color.IsZero() {
			color = Color{theme: ThemeBlue}
		}
		view.Filters = append(view.Filters, FilterView{
			ID:           id,
			Label:        config.DisplayLabel(lang, p.Translations),
			Badge:        config.Badge,
			Color:        color,
			ColorClasses: color.Classes(),
			FilterType:   config.FilterType,
			Keywords:     keywords,
		})
	}

	return view
}
