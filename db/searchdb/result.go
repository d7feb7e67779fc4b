package searchdb

import (
	"errors"
	"html"
	"slices"
	"strings"
)

var ErrNoData = errors.New("result has no data loader")

// DefaultExcerptLength is the number of words shown in an excerpt.
const DefaultExcerptLength = 30

type WeightedLocation struct {
	Weight        float64 `json:"weight"`
	BalancedScore float64 `json:"balanced_score"`
	Location      int     `json:"location"`
}

type SubResult struct {
	Title     string `json:"title"`
	URL       string `json:"url"`
	Locations []int  `json:"locations"`
	Excerpt   string `json:"excerpt"`
}

// FragmentLoader fetches the stored payload of a document.
type FragmentLoader func(id string) (*Fragment, error)

// Result is a single search hit as handed to clients. Locations and
// weighted locations are word offsets into Content.
type Result struct {
	ID                string              `json:"id"`
	URL               string              `json:"url"`
	RawURL            string              `json:"raw_url"`
	Content           string              `json:"content"`
	RawContent        string              `json:"raw_content"`
	Excerpt           string              `json:"excerpt"`
	Filters           map[string][]string `json:"filters"`
	Meta              Meta                `json:"meta"`
	Anchors           []Anchor            `json:"anchors"`
	WeightedLocations []WeightedLocation  `json:"weighted_locations"`
	Locations         []int               `json:"locations"`
	Score             float64             `json:"score"`
	SubResults        []SubResult         `json:"sub_results"`
	WordCount         int                 `json:"word_count"`
	Language          string              `json:"language"`

	load FragmentLoader
}

// Data loads the full payload of the result. Every call goes back to the
// store.
func (r Result) Data() (*Fragment, error) {
	if r.load == nil {
		return nil, ErrNoData
	}
	return r.load(r.ID)
}

// ResultSettings control how results are shaped.
type ResultSettings struct {
	ExcerptLength int
	BaseURL       string
}

// BuildResult combines a hit with the fragment it points at.
func BuildResult(hit Hit, fragment *Fragment, settings ResultSettings, load FragmentLoader) Result {
	if settings.ExcerptLength <= 0 {
		settings.ExcerptLength = DefaultExcerptLength
	}
	words := Words(fragment.Content)
	locations := matchLocations(fragment.Content, words, hit.Terms)
	url := JoinURL(settings.BaseURL, fragment.URL)

	result := Result{
		ID:                fragment.ID,
		URL:               url,
		RawURL:            fragment.RawURL,
		Content:           fragment.Content,
		RawContent:        fragment.RawContent,
		Excerpt:           excerpt(fragment.Content, words, locations, 0, len(words), settings.ExcerptLength),
		Filters:           fragment.Filters,
		Meta:              fragment.Meta,
		Anchors:           fragment.Anchors,
		WeightedLocations: make([]WeightedLocation, 0, len(locations)),
		Locations:         locations,
		Score:             hit.Score,
		SubResults:        subResults(fragment, url, words, locations, settings.ExcerptLength),
		WordCount:         fragment.WordCount,
		Language:          fragment.Language,
		load:              load,
	}
	if result.Filters == nil {
		result.Filters = map[string][]string{}
	}
	if result.Anchors == nil {
		result.Anchors = []Anchor{}
	}
	for _, location := range locations {
		weight := weightAt(fragment.Weights, location)
		result.WeightedLocations = append(result.WeightedLocations, WeightedLocation{
			Weight:        weight,
			BalancedScore: weight * hit.Score,
			Location:      location,
		})
	}
	return result
}

// JoinURL prefixes a site-relative URL with the configured base URL.
func JoinURL(baseURL string, url string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if base == "" {
		return url
	}
	return base + "/" + strings.TrimPrefix(url, "/")
}

// matchLocations finds the words covered by each index term. A term such as
// "3.5" or "don't" spans several words, so it matches a run of consecutive
// words whose text in content, separators included, equals the term.
func matchLocations(content string, words []Word, terms []string) []int {
	locations := []int{}
	if len(terms) == 0 {
		return locations
	}
	matched := make([]bool, len(words))
	for _, term := range terms {
		span := len(Words(term))
		if span == 0 {
			continue
		}
		for i := 0; i+span <= len(words); i++ {
			if strings.EqualFold(content[words[i].Start:words[i+span-1].End], term) {
				for j := i; j < i+span; j++ {
					matched[j] = true
				}
			}
		}
	}
	for i, ok := range matched {
		if ok {
			locations = append(locations, i)
		}
	}
	return locations
}

func weightAt(weights []WeightRange, location int) float64 {
	for _, weight := range weights {
		if location >= weight.StartWord && location < weight.EndWord {
			return weight.Weight
		}
	}
	return 1
}

func subResults(fragment *Fragment, url string, words []Word, locations []int, length int) []SubResult {
	results := []SubResult{}
	for _, section := range fragment.Sections {
		var inSection []int
		for _, location := range locations {
			if location >= section.StartWord && location < section.EndWord {
				inSection = append(inSection, location)
			}
		}
		if len(inSection) == 0 {
			continue
		}
		results = append(results, SubResult{
			Title:     sectionTitle(section, fragment),
			URL:       sectionURL(url, section),
			Locations: inSection,
			Excerpt:   excerpt(fragment.Content, words, inSection, section.StartWord, section.EndWord, length),
		})
	}
	if len(results) > 0 {
		return results
	}

	// pages without headings, or with matches only in the title, get one
	// sub-result for the whole page
	return append(results, SubResult{
		Title:     fragment.Meta.Title,
		URL:       url,
		Locations: locations,
		Excerpt:   excerpt(fragment.Content, words, locations, 0, len(words), length),
	})
}

func sectionTitle(section Section, fragment *Fragment) string {
	if section.Title != "" {
		return section.Title
	}
	return fragment.Meta.Title
}

func sectionURL(url string, section Section) string {
	if section.AnchorID == "" {
		return url
	}
	return url + "#" + section.AnchorID
}

// excerpt renders up to length words of the span [from, to), choosing the
// window that covers the most locations and marking each of them.
func excerpt(content string, words []Word, locations []int, from int, to int, length int) string {
	to = min(to, len(words))
	if from >= to {
		return ""
	}
	start := excerptStart(locations, from, to, length)
	end := min(start+length, to)

	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteString(html.EscapeString(content[words[i-1].End:words[i].Start]))
		}
		text := html.EscapeString(words[i].Text)
		if slices.Contains(locations, i) {
			b.WriteString("<mark>" + text + "</mark>")
		} else {
			b.WriteString(text)
		}
	}
	return b.String()
}

func excerptStart(locations []int, from int, to int, length int) int {
	latest := max(from, to-length)
	best, bestCount := from, 0
	for _, location := range locations {
		start := min(max(from, location-length/4), latest)
		count := 0
		for _, other := range locations {
			if other >= start && other < start+length {
				count++
			}
		}
		if count > bestCount {
			best, bestCount = start, count
		}
	}
	return best
}
