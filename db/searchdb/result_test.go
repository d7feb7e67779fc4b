package searchdb

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func guideFragment() *Fragment {
	return &Fragment{
		ID:         "doc-guide",
		URL:        "/guide/",
		RawURL:     "/guide/index.html",
		Content:    "Setup Install the tool. Proxies Configure a proxy for the tool.",
		RawContent: "Setup Install the tool. Proxies Configure a proxy for the tool.",
		WordCount:  11,
		Language:   "en",
		Filters:    map[string][]string{"type": {"note"}},
		Meta:       Meta{Title: "Guide"},
		Anchors:    []Anchor{{Element: "h2", ID: "proxies", Text: "Proxies", Location: 4}},
		Sections: []Section{
			{Title: "Setup", StartWord: 0, EndWord: 4},
			{Title: "Proxies", AnchorID: "proxies", StartWord: 4, EndWord: 11},
		},
		Weights: []WeightRange{
			{StartWord: 0, EndWord: 1, Weight: 7},
			{StartWord: 4, EndWord: 5, Weight: 6},
		},
	}
}

func TestBuildResult(t *testing.T) {
	assert := require.New(t)

	fragment := guideFragment()
	result := BuildResult(Hit{ID: fragment.ID, Score: 2, Terms: []string{"tool"}}, fragment, ResultSettings{BaseURL: "/site/"}, nil)

	assert.Equal("doc-guide", result.ID)
	assert.Equal("/site/guide/", result.URL)
	assert.Equal("/guide/index.html", result.RawURL)
	assert.Equal([]int{3, 10}, result.Locations)
	assert.Equal([]WeightedLocation{
		{Weight: 1, BalancedScore: 2, Location: 3},
		{Weight: 1, BalancedScore: 2, Location: 10},
	}, result.WeightedLocations)
	assert.Equal("Setup Install the <mark>tool</mark>. Proxies Configure a proxy for the <mark>tool</mark>", result.Excerpt)
	assert.Equal([]SubResult{
		{Title: "Setup", URL: "/site/guide/", Locations: []int{3}, Excerpt: "Setup Install the <mark>tool</mark>"},
		{Title: "Proxies", URL: "/site/guide/#proxies", Locations: []int{10}, Excerpt: "Proxies Configure a proxy for the <mark>tool</mark>"},
	}, result.SubResults)
	assert.Equal(11, result.WordCount)
	assert.Equal("en", result.Language)
}

func TestBuildResultWeightsHeadings(t *testing.T) {
	assert := require.New(t)

	fragment := guideFragment()
	result := BuildResult(Hit{Score: 0.5, Terms: []string{"proxies", "setup"}}, fragment, ResultSettings{}, nil)

	assert.Equal([]int{0, 4}, result.Locations)
	assert.Equal([]WeightedLocation{
		{Weight: 7, BalancedScore: 3.5, Location: 0},
		{Weight: 6, BalancedScore: 3, Location: 4},
	}, result.WeightedLocations)
	assert.Equal("/guide/", result.URL)
}

func TestBuildResultWithoutMatchesInContent(t *testing.T) {
	assert := require.New(t)

	fragment := guideFragment()
	fragment.Filters = nil
	fragment.Anchors = nil
	result := BuildResult(Hit{Score: 1}, fragment, ResultSettings{ExcerptLength: 4}, nil)

	assert.Empty(result.Locations)
	assert.NotNil(result.Locations)
	assert.NotNil(result.Filters)
	assert.NotNil(result.Anchors)
	assert.Equal("Setup Install the tool", result.Excerpt)
	assert.Equal([]SubResult{{Title: "Guide", URL: "/guide/", Locations: []int{}, Excerpt: "Setup Install the tool"}}, result.SubResults)
}

func TestBuildResultLocatesMultiWordTerms(t *testing.T) {
	testCases := []struct {
		name              string
		content           string
		terms             []string
		expectedLocations []int
		expectedExcerpt   string
	}{
		{
			name:              "decimal number",
			content:           "Version 3.5 ships today. Version 3 5 does not.",
			terms:             []string{"3.5"},
			expectedLocations: []int{1, 2},
			expectedExcerpt:   "Version <mark>3</mark>.<mark>5</mark> ships",
		},
		{
			name:              "contraction",
			content:           "Don't upgrade yet, don t panic.",
			terms:             []string{"don't"},
			expectedLocations: []int{0, 1},
			expectedExcerpt:   "<mark>Don</mark>&#39;<mark>t</mark> upgrade yet",
		},
		{
			name:              "typographic apostrophe",
			content:           "You don’t need it.",
			terms:             []string{"don’t"},
			expectedLocations: []int{1, 2},
			expectedExcerpt:   "You <mark>don</mark>’<mark>t</mark> need",
		},
		{
			name:              "single word inside punctuation",
			content:           "Run (setup) first.",
			terms:             []string{"setup"},
			expectedLocations: []int{1},
			expectedExcerpt:   "Run (<mark>setup</mark>) first",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			fragment := &Fragment{ID: "doc", URL: "/doc/", Content: tc.content, Meta: Meta{Title: "Doc"}}

			result := BuildResult(Hit{Score: 1, Terms: tc.terms}, fragment, ResultSettings{ExcerptLength: 4}, nil)

			assert.Equal(tc.expectedLocations, result.Locations)
			assert.Len(result.WeightedLocations, len(tc.expectedLocations))
			assert.Equal(tc.expectedExcerpt, result.Excerpt)
			assert.Equal(tc.expectedLocations, result.SubResults[0].Locations)
		})
	}
}

func TestExcerptWindow(t *testing.T) {
	testCases := []struct {
		name      string
		content   string
		locations []int
		length    int
		expected  string
	}{
		{
			name:      "window moves to the match",
			content:   "Setup Install the tool. Proxies Configure a proxy for the tool.",
			locations: []int{7},
			length:    3,
			expected:  "<mark>proxy</mark> for the",
		},
		{
			name:      "window stays inside the content",
			content:   "one two three four five",
			locations: []int{4},
			length:    3,
			expected:  "three four <mark>five</mark>",
		},
		{
			name:      "window prefers the densest run of matches",
			content:   "alpha beta gamma delta alpha alpha epsilon",
			locations: []int{0, 4, 5},
			length:    3,
			expected:  "<mark>alpha</mark> <mark>alpha</mark> epsilon",
		},
		{
			name:     "markup in content is escaped",
			content:  "a <b> & c",
			length:   10,
			expected: "a &lt;b&gt; &amp; c",
		},
		{
			name:     "empty content",
			content:  "",
			length:   10,
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := require.New(t)
			words := Words(tc.content)
			assert.Equal(tc.expected, excerpt(tc.content, words, tc.locations, 0, len(words), tc.length))
		})
	}
}

func TestJoinURL(t *testing.T) {
	assert := require.New(t)

	assert.Equal("/guide/", JoinURL("", "/guide/"))
	assert.Equal("/guide/", JoinURL("/", "/guide/"))
	assert.Equal("/docs/guide/", JoinURL("/docs/", "/guide/"))
	assert.Equal("https://example.com/docs/guide/", JoinURL("https://example.com/docs", "/guide/"))
}

func TestResultData(t *testing.T) {
	assert := require.New(t)

	fragment := guideFragment()
	loads := 0
	loader := func(id string) (*Fragment, error) {
		loads++
		assert.Equal(fragment.ID, id)
		return fragment, nil
	}

	result := BuildResult(Hit{ID: fragment.ID}, fragment, ResultSettings{}, loader)
	data, err := result.Data()
	assert.NoError(err)
	assert.Equal(fragment, data)
	_, err = result.Data()
	assert.NoError(err)
	assert.Equal(2, loads, "data should be loaded on every call")

	_, err = Result{ID: "no-loader"}.Data()
	assert.ErrorIs(err, ErrNoData)
}

func TestResultJSONRoundTrip(t *testing.T) {
	assert := require.New(t)

	original := Result{
		ID:                "doc-1",
		URL:               "/",
		Filters:           map[string][]string{},
		Anchors:           []Anchor{},
		WeightedLocations: []WeightedLocation{},
		Locations:         []int{},
		SubResults:        []SubResult{},
	}

	data, err := json.Marshal(original)
	assert.NoError(err)
	assert.Contains(string(data), `"sub_results":[]`)
	assert.Contains(string(data), `"weighted_locations":[]`)

	var decoded Result
	assert.NoError(json.Unmarshal(data, &decoded))
	assert.Equal(original, decoded)
}
