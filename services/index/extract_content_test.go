package index

import (
	"strings"
	"testing"

	"github.com/meghashyamc/searchbadges/db/searchdb"
	"github.com/stretchr/testify/require"
)

const notePage = `<!DOCTYPE html>
<html lang="en-GB">
<head>
  <title>Install guide | Docs</title>
  <meta property="og:image" content="/img/install.png">
</head>
<body>
  <nav>Home Docs Blog</nav>
  <main>
    <h1>Install guide</h1>
    <span data-pagefind-filter="type:note, level:beginner"></span>
    <p>Download the installer and run it.</p>
    <div data-pagefind-ignore><p>Hidden advert text</p></div>
    <h2 id="proxies">Behind a proxy</h2>
    <p>A quick note about proxies.</p>
    <script>var tracking = true;</script>
    <h2 id="faq">FAQ</h2>
    <p>Ask on the <a href="/forum/">forum</a>.</p>
  </main>
  <footer><span data-pagefind-filter="author">Freda Smith</span></footer>
</body>
</html>`

func TestExtractPage(t *testing.T) {
	assert := require.New(t)

	page, err := extractPage(strings.NewReader(notePage), "/site/docs/install/index.html", "docs/install/index.html", "en")
	assert.NoError(err)

	fragment := page.fragment
	assert.Equal(documentID("/site/docs/install/index.html"), fragment.ID)
	assert.Equal("/docs/install/", fragment.URL)
	assert.Equal("/docs/install/index.html", fragment.RawURL)
	assert.Equal("en-GB", fragment.Language)
	assert.Equal(searchdb.Meta{Title: "Install guide", Image: "/img/install.png"}, fragment.Meta)
	assert.Equal(map[string][]string{
		"type":   {"note"},
		"level":  {"beginner"},
		"author": {"Freda Smith"},
	}, fragment.Filters)

	assert.Equal("Install guide Download the installer and run it. Behind a proxy A quick note about proxies. FAQ Ask on the forum.", fragment.Content)
	assert.NotContains(fragment.Content, "Hidden")
	assert.NotContains(fragment.Content, "tracking")
	assert.NotContains(fragment.Content, "Home Docs", "content outside main is not indexed")
	assert.Equal(searchdb.CountWords(fragment.Content), fragment.WordCount)

	assert.Equal([]searchdb.Anchor{
		{Element: "h2", ID: "proxies", Text: "Behind a proxy", Location: 8},
		{Element: "h2", ID: "faq", Text: "FAQ", Location: 16},
	}, fragment.Anchors)

	assert.Equal([]searchdb.Section{
		{Title: "Install guide", StartWord: 0, EndWord: 8},
		{Title: "Behind a proxy", AnchorID: "proxies", StartWord: 8, EndWord: 16},
		{Title: "FAQ", AnchorID: "faq", StartWord: 16, EndWord: 21},
	}, fragment.Sections)

	assert.Equal([]searchdb.WeightRange{
		{StartWord: 0, EndWord: 2, Weight: 7},
		{StartWord: 8, EndWord: 11, Weight: 6},
		{StartWord: 16, EndWord: 17, Weight: 6},
	}, fragment.Weights)

	document := page.document
	assert.Equal(fragment.ID, document.ID)
	assert.Equal("en", document.Language, "the index stores the base language")
	assert.Equal([]string{"author:Freda Smith", "level:beginner", "type:note"}, document.FilterTags)
	assert.Equal(fragment.Content, document.Content)
}

func TestExtractPageAnchorInsideWord(t *testing.T) {
	assert := require.New(t)

	const source = `<html><body><main>
<p>foo<b id="bar">bar</b> baz <i id="qux">qux</i></p>
<h2 id="next">Next</h2><p>tail</p>
</main></body></html>`

	page, err := extractPage(strings.NewReader(source), "/site/words.html", "words.html", "en")
	assert.NoError(err)

	fragment := page.fragment
	assert.Equal("foobar baz qux Next tail", fragment.Content)
	assert.Equal([]searchdb.Anchor{
		{Element: "b", ID: "bar", Text: "bar", Location: 0},
		{Element: "i", ID: "qux", Text: "qux", Location: 2},
		{Element: "h2", ID: "next", Text: "Next", Location: 3},
	}, fragment.Anchors)
	assert.Equal([]searchdb.Section{
		{Title: "", StartWord: 0, EndWord: 3},
		{Title: "Next", AnchorID: "next", StartWord: 3, EndWord: 5},
	}, fragment.Sections)
	assert.Equal([]searchdb.WeightRange{{StartWord: 3, EndWord: 4, Weight: 6}}, fragment.Weights)
	assert.Equal(5, fragment.WordCount)
}

func TestExtractPagePrefersPagefindBody(t *testing.T) {
	assert := require.New(t)
	const html = `<html><head><title>Changelog</title></head><body>
<main><p>Outer text</p><article data-pagefind-body><p>Release notes for version two.</p></article></main>
</body></html>`

	page, err := extractPage(strings.NewReader(html), "/site/changelog.html", "changelog.html", "fr")
	assert.NoError(err)

	assert.Equal("Release notes for version two.", page.fragment.Content)
	assert.Equal("Changelog", page.fragment.Meta.Title, "falls back to the title element without an h1")
	assert.Equal("fr", page.fragment.Language, "falls back to the default language")
	assert.Equal("/changelog.html", page.fragment.URL)
	assert.Empty(page.fragment.Anchors)
	assert.Len(page.fragment.Sections, 1)
}

func TestExtractFilterAttributeValue(t *testing.T) {
	assert := require.New(t)
	const html = `<html><body><main>
<p>Body</p>
<img data-pagefind-filter="type[data-kind]" data-kind="pro" src="/a.png">
<span data-pagefind-filter="type:pro"></span>
<span data-pagefind-filter="broken:"></span>
</main></body></html>`

	page, err := extractPage(strings.NewReader(html), "/site/p.html", "p.html", "en")
	assert.NoError(err)

	assert.Equal(map[string][]string{"type": {"pro"}}, page.fragment.Filters)
	assert.Equal("/a.png", page.fragment.Meta.Image)
}

func TestPrettyURL(t *testing.T) {
	assert := require.New(t)

	assert.Equal("/", prettyURL("index.html"))
	assert.Equal("/docs/", prettyURL("docs/index.html"))
	assert.Equal("/docs/page.html", prettyURL("docs/page.html"))
	assert.Equal("/docs/page.html", prettyURL("./docs/../docs/page.html"))
}

func TestDocumentIDIsStable(t *testing.T) {
	assert := require.New(t)

	assert.Equal(documentID("/site/a.html"), documentID("/site/a.html"))
	assert.NotEqual(documentID("/site/a.html"), documentID("/site/b.html"))
}
