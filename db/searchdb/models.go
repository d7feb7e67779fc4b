package searchdb

// Document is the part of a page that goes into the full-text index.
type Document struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	Language string `json:"language"`
	// FilterTags holds "category:value" pairs built from the page filters.
	FilterTags []string `json:"filter_tags"`
}

type Meta struct {
	Title string `json:"title"`
	Image string `json:"image"`
}

type Anchor struct {
	Element  string `json:"element"`
	ID       string `json:"id"`
	Text     string `json:"text"`
	Location int    `json:"location"`
}

// Section is a heading-delimited span of a page, in word offsets of the
// page content. The first section of a page has no anchor.
type Section struct {
	Title     string `json:"title"`
	AnchorID  string `json:"anchor_id,omitempty"`
	StartWord int    `json:"start_word"`
	EndWord   int    `json:"end_word"`
}

// WeightRange assigns a ranking weight to a span of words, such as a heading.
type WeightRange struct {
	StartWord int     `json:"start_word"`
	EndWord   int     `json:"end_word"`
	Weight    float64 `json:"weight"`
}

// Fragment is the full stored payload of an indexed page.
type Fragment struct {
	ID         string              `json:"id"`
	URL        string              `json:"url"`
	RawURL     string              `json:"raw_url"`
	Content    string              `json:"content"`
	RawContent string              `json:"raw_content"`
	WordCount  int                 `json:"word_count"`
	Language   string              `json:"language"`
	Filters    map[string][]string `json:"filters"`
	Meta       Meta                `json:"meta"`
	Anchors    []Anchor            `json:"anchors"`
	Sections   []Section           `json:"sections"`
	Weights    []WeightRange       `json:"weights"`
}

// Query is a single search against the index. An empty Text with filters
// returns every document carrying those filters.
type Query struct {
	Text     string
	Filters  map[string][]string
	Language string
	Limit    int
	Offset   int
}

type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
	// Terms are the analysed index terms this document matched on.
	Terms []string `json:"terms"`
}

type Response struct {
	Hits       []Hit   `json:"hits"`
	Total      uint64  `json:"total"`
	MaxScore   float64 `json:"max_score"`
	SearchTime string  `json:"search_time"`
}

// Boosts weigh the clauses of a free-text query.
type Boosts struct {
	Content      float64 `json:"content" validate:"min=0"`
	Title        float64 `json:"title" validate:"min=0"`
	URL          float64 `json:"url" validate:"min=0"`
	PhraseMatch  float64 `json:"phrase_match" validate:"min=0"`
	PartialMatch float64 `json:"partial_match" validate:"min=0"`
}

func DefaultBoosts() Boosts {
	return Boosts{
		Content:      3.0,
		Title:        2.0,
		URL:          1.0,
		PhraseMatch:  5.0,
		PartialMatch: 1.5,
	}
}

// FilterTag joins a filter category and value into an index term.
func FilterTag(category string, value string) string {
	return category + ":" + value
}
