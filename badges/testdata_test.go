package badges

func noteFilter() FilterConfig {
	return FilterConfig{
		Keys:       NewKeywordList("note", "tip"),
		Label:      "Note",
		Badge:      "NOTE",
		Color:      ParseColor("blue"),
		FilterType: "note",
	}
}

func proFilter() FilterConfig {
	return FilterConfig{
		Keys:       NewPerLanguageKeyword(map[string]string{"en": "pro", "de": "profi"}),
		Label:      "filter_pro",
		Badge:      "PRO",
		Color:      ParseColor("purple"),
		FilterType: "pro",
	}
}

func devFilter() FilterConfig {
	return FilterConfig{
		Keys:       NewKeywordList("dev", "dev tools"),
		Label:      "Developer",
		Badge:      "DEV",
		Color:      CustomColor("bg-orange-200 text-orange-900"),
		FilterType: "dev",
	}
}

func validProps() Props {
	return Props{
		Filters: map[string]FilterConfig{
			"note": noteFilter(),
			"pro":  proFilter(),
			"dev":  devFilter(),
		},
		Lang: "en",
		Translations: Translations{
			"en": {"filter_pro": "Pro articles", "search_placeholder": "Search docs"},
			"fr": {"filter_pro": "Articles pro", "search_placeholder": "Rechercher"},
		},
	}
}
