package index

import (
	"fmt"
	"io"
	"os"
	"path"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/meghashyamc/searchbadges/badges"
	"github.com/meghashyamc/searchbadges/db/searchdb"
	"golang.org/x/net/html"
)

const (
	attrBody   = "data-pagefind-body"
	attrIgnore = "data-pagefind-ignore"
	attrFilter = "data-pagefind-filter"

	maxFileSize = 10 * 1024 * 1024 // 10MB
)

var headingWeights = map[string]float64{
	"h1": 7, "h2": 6, "h3": 5, "h4": 4, "h5": 3, "h6": 2,
}

var blockElements = map[string]struct{}{
	"address": {}, "article": {}, "aside": {}, "blockquote": {}, "br": {}, "dd": {},
	"div": {}, "dl": {}, "dt": {}, "figcaption": {}, "figure": {}, "footer": {},
	"h1": {}, "h2": {}, "h3": {}, "h4": {}, "h5": {}, "h6": {}, "header": {},
	"hr": {}, "li": {}, "main": {}, "nav": {}, "ol": {}, "p": {}, "pre": {},
	"section": {}, "table": {}, "td": {}, "th": {}, "tr": {}, "ul": {},
}

// page is everything extracted from one HTML file.
type page struct {
	document searchdb.Document
	fragment searchdb.Fragment
}

// documentID is stable for a file path so that reindexing a modified file
// replaces its previous entry.
func documentID(filePath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(filePath)).String()
}

func extractContent(fileInfo FileInfo, defaultLang string) (*page, error) {
	file, err := os.Open(fileInfo.Path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return extractPage(io.LimitReader(file, maxFileSize), fileInfo.Path, fileInfo.RelPath, defaultLang)
}

func extractPage(r io.Reader, filePath string, relPath string, defaultLang string) (*page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html %s: %w", filePath, err)
	}

	lang := strings.TrimSpace(doc.Find("html").AttrOr("lang", ""))
	if lang == "" {
		lang = defaultLang
	}

	filters := extractFilters(doc)

	root := doc.Find("[" + attrBody + "]")
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	root.Find("[" + attrIgnore + "], script, style, noscript, template, svg").Remove()

	title := strings.TrimSpace(root.Find("h1").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	image := doc.Find(`meta[property="og:image"]`).AttrOr("content", "")
	if image == "" {
		image = root.Find("img").First().AttrOr("src", "")
	}

	builder := newContentBuilder(title)
	for _, node := range root.Nodes {
		builder.walk(node)
	}
	rawContent, sections := builder.finish()
	content := strings.Join(strings.Fields(rawContent), " ")

	id := documentID(filePath)
	pageURL := prettyURL(relPath)

	var filterTags []string
	for category, values := range filters {
		for _, value := range values {
			filterTags = append(filterTags, searchdb.FilterTag(category, value))
		}
	}
	slices.Sort(filterTags)

	return &page{
		document: searchdb.Document{
			ID:         id,
			URL:        pageURL,
			Title:      title,
			Content:    content,
			Language:   badges.BaseLanguage(lang),
			FilterTags: filterTags,
		},
		fragment: searchdb.Fragment{
			ID:         id,
			URL:        pageURL,
			RawURL:     "/" + relPath,
			Content:    content,
			RawContent: rawContent,
			WordCount:  searchdb.CountWords(content),
			Language:   lang,
			Filters:    filters,
			Meta:       searchdb.Meta{Title: title, Image: image},
			Anchors:    builder.anchors,
			Sections:   sections,
			Weights:    builder.weights,
		},
	}, nil
}

// prettyURL maps a site-relative file path to the URL it is served at.
func prettyURL(relPath string) string {
	relPath = strings.TrimPrefix(path.Clean("/"+relPath), "/")
	if path.Base(relPath) == "index.html" {
		dir := path.Dir(relPath)
		if dir == "." {
			return "/"
		}
		return "/" + dir + "/"
	}
	return "/" + relPath
}

// extractFilters reads data-pagefind-filter attributes anywhere on the page.
// Supported forms are "key:value", "key" (value from the element text) and
// "key[attr]" (value from an attribute); several may be comma separated.
func extractFilters(doc *goquery.Document) map[string][]string {
	filters := make(map[string][]string)
	doc.Find("[" + attrFilter + "]").Each(func(_ int, s *goquery.Selection) {
		for _, spec := range strings.Split(s.AttrOr(attrFilter, ""), ",") {
			category, value := parseFilterSpec(strings.TrimSpace(spec), s)
			if category == "" || value == "" {
				continue
			}
			if !slices.Contains(filters[category], value) {
				filters[category] = append(filters[category], value)
			}
		}
	})
	for category := range filters {
		slices.Sort(filters[category])
	}
	return filters
}

func parseFilterSpec(spec string, s *goquery.Selection) (string, string) {
	if category, value, found := strings.Cut(spec, ":"); found {
		return strings.TrimSpace(category), strings.TrimSpace(value)
	}
	if open := strings.Index(spec, "["); open > 0 && strings.HasSuffix(spec, "]") {
		attr := spec[open+1 : len(spec)-1]
		return strings.TrimSpace(spec[:open]), strings.TrimSpace(s.AttrOr(attr, ""))
	}
	return spec, strings.Join(strings.Fields(s.Text()), " ")
}

type contentBuilder struct {
	text strings.Builder
	// words counts the words written so far, including one still open.
	words    int
	inWord   bool
	sections []searchdb.Section
	anchors  []searchdb.Anchor
	weights  []searchdb.WeightRange
}

func newContentBuilder(pageTitle string) *contentBuilder {
	return &contentBuilder{
		sections: []searchdb.Section{{Title: pageTitle}},
	}
}

func (b *contentBuilder) write(text string) {
	b.text.WriteString(text)
	for _, r := range text {
		isWord := searchdb.IsWordRune(r)
		if isWord && !b.inWord {
			b.words++
		}
		b.inWord = isWord
	}
}

// position is the offset of the word the next rune belongs to. An element
// starting mid-word shares the offset of that word.
func (b *contentBuilder) position() int {
	if b.inWord {
		return b.words - 1
	}
	return b.words
}

func (b *contentBuilder) breakBlock() {
	b.write("\n")
}

func (b *contentBuilder) walk(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.write(n.Data)
		return
	case html.ElementNode, html.DocumentNode:
	default:
		return
	}

	_, isBlock := blockElements[n.Data]
	weight, isHeading := headingWeights[n.Data]
	if isBlock {
		b.breakBlock()
	}

	id := nodeAttr(n, "id")
	start := 0
	if isHeading || id != "" {
		start = b.position()
	}
	if id != "" && n.Type == html.ElementNode {
		text := strings.Join(strings.Fields(nodeText(n)), " ")
		b.anchors = append(b.anchors, searchdb.Anchor{Element: n.Data, ID: id, Text: text, Location: start})
		if isHeading {
			b.sections = append(b.sections, searchdb.Section{Title: text, AnchorID: id, StartWord: start})
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		b.walk(child)
	}

	if isHeading {
		if end := b.words; end > start {
			b.weights = append(b.weights, searchdb.WeightRange{StartWord: start, EndWord: end, Weight: weight})
		}
	}
	if isBlock {
		b.breakBlock()
	}
}

// finish closes every section at the start of the next one.
func (b *contentBuilder) finish() (string, []searchdb.Section) {
	rawContent := strings.TrimSpace(b.text.String())
	total := b.words
	sections := b.sections
	for i := range sections {
		if i+1 < len(sections) {
			sections[i].EndWord = sections[i+1].StartWord
		} else {
			sections[i].EndWord = total
		}
	}
	return rawContent, sections
}

func nodeAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
			sb.WriteString(" ")
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return sb.String()
}
