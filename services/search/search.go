package search

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/meghashyamc/searchbadges/badges"
	"github.com/meghashyamc/searchbadges/db/kvdb"
	"github.com/meghashyamc/searchbadges/db/searchdb"
	"github.com/meghashyamc/searchbadges/logger"
)

// Engine is the full-text search backend.
type Engine interface {
	Search(query searchdb.Query) (*searchdb.Response, error)
	SetBoosts(boosts searchdb.Boosts)
}

// FragmentStore holds the stored payload of every indexed page.
type FragmentStore interface {
	Get(bucketName string, key string) (string, error)
}

// Recorder receives search counts; it may be nil.
type Recorder interface {
	SearchCompleted(badge string, results int, elapsed time.Duration)
	SuggestionsServed(count int)
}

var ErrUnknownFilter = errors.New("unknown filter")

// Settings shape results. They can be changed at runtime with Options.
type Settings struct {
	ExcerptLength int
	BaseURL       string
	FilterKey     string
}

type Service struct {
	logger   logger.Logger
	engine   Engine
	store    FragmentStore
	props    badges.Props
	recorder Recorder

	// filter ids by the filter type they select
	idsByType map[string][]string

	mu       sync.RWMutex
	settings Settings
}

// Request is a single search. With no FilterIDs the query is scanned for a
// badge keyword, which is then applied and removed from the query text.
type Request struct {
	Query     string
	Lang      string
	FilterIDs []string
	Limit     int
	Offset    int
}

// Match is a result together with the badges that describe it.
type Match struct {
	searchdb.Result
	Badges []string `json:"badges"`
}

type Response struct {
	// Query is the text that was sent to the engine.
	Query        string              `json:"query"`
	ActiveBadges []badges.FilterView `json:"active_badges"`
	Results      []Match             `json:"results"`
	Total        uint64              `json:"total"`
}

func New(logger logger.Logger, engine Engine, store FragmentStore, props badges.Props, recorder Recorder, settings Settings) *Service {
	if settings.ExcerptLength <= 0 {
		settings.ExcerptLength = searchdb.DefaultExcerptLength
	}
	if settings.FilterKey == "" {
		settings.FilterKey = "type"
	}

	idsByType := make(map[string][]string)
	for _, id := range props.FilterIDs() {
		filterType := props.Filters[id].FilterType
		idsByType[filterType] = append(idsByType[filterType], id)
	}

	return &Service{
		logger:    logger,
		engine:    engine,
		store:     store,
		props:     props,
		recorder:  recorder,
		idsByType: idsByType,
		settings:  settings,
	}
}

func (s *Service) getSettings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

func (s *Service) Search(req Request) (*Response, error) {
	start := time.Now()
	settings := s.getSettings()
	lang := s.lang(req.Lang)

	queryText := strings.Join(strings.Fields(req.Query), " ")
	filterIDs := req.FilterIDs
	if len(filterIDs) == 0 {
		if suggestion, ok := badges.NewMatcher(s.props.Filters, lang).Suggest(queryText); ok {
			s.logger.Debug("applying badge from query", "filter_id", suggestion.FilterID, "keyword", suggestion.Keyword)
			filterIDs = []string{suggestion.FilterID}
			queryText = badges.StripKeyword(queryText, suggestion.Keyword)
		}
	}

	activeBadges, filterTypes, err := s.activeBadges(filterIDs, lang)
	if err != nil {
		return nil, err
	}

	response := &Response{Query: queryText, ActiveBadges: activeBadges, Results: []Match{}}
	if queryText == "" && len(filterTypes) == 0 {
		return response, nil
	}

	query := searchdb.Query{
		Text:     queryText,
		Language: badges.BaseLanguage(lang),
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if len(filterTypes) > 0 {
		query.Filters = map[string][]string{settings.FilterKey: filterTypes}
	}

	engineResponse, err := s.engine.Search(query)
	if err != nil {
		s.logger.Error("search failed", "query", queryText, "err", err.Error())
		return nil, err
	}

	resultSettings := searchdb.ResultSettings{ExcerptLength: settings.ExcerptLength, BaseURL: settings.BaseURL}
	for _, hit := range engineResponse.Hits {
		fragment, err := s.loadFragment(hit.ID)
		if err != nil {
			s.logger.Warn("skipping hit without stored data", "id", hit.ID, "err", err.Error())
			continue
		}
		result := searchdb.BuildResult(hit, fragment, resultSettings, s.loadFragment)
		response.Results = append(response.Results, Match{
			Result: result,
			Badges: s.badgesFor(result.Filters[settings.FilterKey]),
		})
	}
	response.Total = engineResponse.Total

	if s.recorder != nil {
		s.recorder.SearchCompleted(strings.Join(filterIDs, ","), len(response.Results), time.Since(start))
	}
	return response, nil
}

// Suggest returns one suggestion per badge whose keyword appears in query.
func (s *Service) Suggest(query string, lang string) []badges.Suggestion {
	suggestions := badges.NewMatcher(s.props.Filters, s.lang(lang)).SuggestAll(query)
	if suggestions == nil {
		suggestions = []badges.Suggestion{}
	}
	if s.recorder != nil {
		s.recorder.SuggestionsServed(len(suggestions))
	}
	return suggestions
}

// Data loads the full stored payload of a result.
func (s *Service) Data(id string) (*searchdb.Fragment, error) {
	return s.loadFragment(id)
}

// Badges returns the widget configuration resolved for a client.
func (s *Service) Badges(lang string, userAgent string) badges.View {
	return s.props.Resolve(s.lang(lang), userAgent)
}

func (s *Service) lang(lang string) string {
	if lang == "" {
		return s.props.Lang
	}
	return lang
}

func (s *Service) activeBadges(filterIDs []string, lang string) ([]badges.FilterView, []string, error) {
	views := []badges.FilterView{}
	if len(filterIDs) == 0 {
		return views, nil, nil
	}

	resolved := make(map[string]badges.FilterView)
	for _, view := range s.props.Resolve(lang, "").Filters {
		resolved[view.ID] = view
	}

	var filterTypes []string
	for _, id := range filterIDs {
		view, ok := resolved[id]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownFilter, id)
		}
		if slices.Contains(filterTypes, view.FilterType) {
			continue
		}
		views = append(views, view)
		filterTypes = append(filterTypes, view.FilterType)
	}
	return views, filterTypes, nil
}

func (s *Service) badgesFor(filterTypes []string) []string {
	ids := make(map[string]struct{})
	for _, filterType := range filterTypes {
		for _, id := range s.idsByType[filterType] {
			ids[id] = struct{}{}
		}
	}
	if len(ids) == 0 {
		return []string{}
	}
	return slices.Sorted(maps.Keys(ids))
}

func (s *Service) loadFragment(id string) (*searchdb.Fragment, error) {
	value, err := s.store.Get(kvdb.FragmentsBucket, id)
	if err != nil {
		return nil, err
	}

	var fragment searchdb.Fragment
	if err := json.Unmarshal([]byte(value), &fragment); err != nil {
		s.logger.Error("failed to unmarshal fragment", "id", id, "err", err.Error())
		return nil, fmt.Errorf("failed to unmarshal fragment %s: %w", id, err)
	}
	return &fragment, nil
}
