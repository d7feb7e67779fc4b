package badges

import (
	"fmt"
	"strings"
)

type Theme string

const (
	ThemeEmerald Theme = "emerald"
	ThemeBlue    Theme = "blue"
	ThemePurple  Theme = "purple"
	ThemeAmber   Theme = "amber"
	ThemeRose    Theme = "rose"
	ThemeSlate   Theme = "slate"
	// ThemeCustom carries a raw style token instead of a named theme.
	ThemeCustom Theme = "custom"
)

var knownThemes = map[Theme]struct{}{
	ThemeEmerald: {},
	ThemeBlue:    {},
	ThemePurple:  {},
	ThemeAmber:   {},
	ThemeRose:    {},
	ThemeSlate:   {},
}

// Color is a badge color: one of the named themes, or ThemeCustom with
// the raw token the integrator supplied.
type Color struct {
	theme Theme
	token string
}

func ParseColor(value string) Color {
	value = strings.TrimSpace(value)
	if value == "" {
		return Color{}
	}
	if _, ok := knownThemes[Theme(strings.ToLower(value))]; ok {
		return Color{theme: Theme(strings.ToLower(value))}
	}
	return Color{theme: ThemeCustom, token: value}
}

func CustomColor(token string) Color {
	return Color{theme: ThemeCustom, token: token}
}

func (c Color) Theme() Theme {
	return c.theme
}

func (c Color) IsZero() bool {
	return c.theme == ""
}

func (c Color) IsCustom() bool {
	return c.theme == ThemeCustom
}

// Token is the raw style token of a custom color.
func (c Color) Token() string {
	return c.token
}

func (c Color) String() string {
	if c.IsCustom() {
		return c.token
	}
	return string(c.theme)
}

// Classes returns the style classes used to render a badge of this color.
func (c Color) Classes() string {
	switch {
	case c.IsZero():
		return ""
	case c.IsCustom():
		return c.token
	default:
		return fmt.Sprintf("bg-%[1]s-100 text-%[1]s-800 dark:bg-%[1]s-900 dark:text-%[1]s-200", c.theme)
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	*c = ParseColor(string(text))
	return nil
}
