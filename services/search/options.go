package search

import (
	"errors"
	"strings"

	"github.com/go-playground/validator"
	"github.com/meghashyamc/searchbadges/db/searchdb"
	"github.com/meghashyamc/searchbadges/validation"
)

// Options change search behaviour at runtime. Nil fields are left as they
// are.
type Options struct {
	ExcerptLength *int             `json:"excerpt_length,omitempty" validate:"omitempty,min=1,max=500"`
	BaseURL       *string          `json:"base_url,omitempty"`
	FilterKey     *string          `json:"filter_key,omitempty" validate:"omitempty,min=1"`
	Boosts        *searchdb.Boosts `json:"boosts,omitempty"`
}

var optionsValidator = validation.NewStruct()

// Options applies every valid option. Invalid options are logged and
// ignored.
func (s *Service) Options(opts Options) {
	invalid := invalidOptions(opts)
	for field := range invalid {
		s.logger.Warn("ignoring invalid search option", "option", field)
	}

	s.mu.Lock()
	if _, bad := invalid["excerpt_length"]; opts.ExcerptLength != nil && !bad {
		s.settings.ExcerptLength = *opts.ExcerptLength
	}
	if opts.BaseURL != nil {
		s.settings.BaseURL = *opts.BaseURL
	}
	if _, bad := invalid["filter_key"]; opts.FilterKey != nil && !bad {
		s.settings.FilterKey = strings.TrimSpace(*opts.FilterKey)
	}
	s.mu.Unlock()

	if _, bad := invalid["boosts"]; opts.Boosts != nil && !bad {
		s.engine.SetBoosts(*opts.Boosts)
	}
	s.logger.Info("search options updated", "settings", s.getSettings())
}

// invalidOptions returns the top level options that failed validation.
func invalidOptions(opts Options) map[string]struct{} {
	invalid := make(map[string]struct{})
	if opts.FilterKey != nil && strings.TrimSpace(*opts.FilterKey) == "" {
		invalid["filter_key"] = struct{}{}
	}

	err := optionsValidator.Struct(opts)
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return invalid
	}
	for _, fieldErr := range validationErrs {
		// Namespace is "Options.<field>[.<nested>]"
		parts := strings.Split(fieldErr.Namespace(), ".")
		if len(parts) > 1 {
			invalid[parts[1]] = struct{}{}
		}
	}
	return invalid
}
