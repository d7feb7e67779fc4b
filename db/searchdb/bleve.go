package searchdb

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/meghashyamc/searchbadges/config"
	"github.com/meghashyamc/searchbadges/logger"
)

const IndexingBatchSize = 100
const defaultSearchLimit = 10

const (
	indexFieldContent    = "content"
	indexFieldTitle      = "title"
	indexFieldURL        = "url"
	indexFieldLanguage   = "language"
	indexFieldFilterTags = "filter_tags"
)

type BleveDB struct {
	indexPath string
	logger    logger.Logger
	index     bleve.Index

	mu     sync.RWMutex
	boosts Boosts
}

func New(logger logger.Logger, cfg *config.Config) (*BleveDB, error) {
	indexPath := cfg.GetIndexPath()
	if err := os.MkdirAll(filepath.Dir(indexPath), 0755); err != nil {
		logger.Error("failed to create index directory", "err", err.Error(), "path", indexPath)
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	index, err := bleve.New(indexPath, createIndexMapping())
	if err != nil {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Error("could not open index", "err", err.Error(), "path", indexPath)
			return nil, err
		}
	}
	return &BleveDB{indexPath: indexPath, logger: logger, index: index, boosts: DefaultBoosts()}, nil
}

func (b *BleveDB) BuildIndex(documents []Document) error {

	batch := b.index.NewBatch()

	for i, doc := range documents {

		if err := batch.Index(doc.ID, doc); err != nil {
			b.logger.Error("could not index document", "id", doc.ID, "err", err.Error())
			return err
		}

		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not index documents", "err", err.Error())
			return err
		}
	}

	return nil
}

func createIndexMapping() mapping.IndexMapping {

	indexMapping := bleve.NewIndexMapping()
	docMapping := bleve.NewDocumentMapping()

	// URL and filters are matched exactly
	urlFieldMapping := bleve.NewTextFieldMapping()
	urlFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldURL, urlFieldMapping)

	titleFieldMapping := bleve.NewTextFieldMapping()
	titleFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt(indexFieldTitle, titleFieldMapping)

	// Content is read back from the fragment store, so only the index and
	// its term vectors are kept here.
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = standard.Name
	contentFieldMapping.Store = false
	contentFieldMapping.Index = true
	contentFieldMapping.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt(indexFieldContent, contentFieldMapping)

	languageFieldMapping := bleve.NewTextFieldMapping()
	languageFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldLanguage, languageFieldMapping)

	filterFieldMapping := bleve.NewTextFieldMapping()
	filterFieldMapping.Analyzer = keyword.Name
	docMapping.AddFieldMappingsAt(indexFieldFilterTags, filterFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)

	return indexMapping
}

func (b *BleveDB) SetBoosts(boosts Boosts) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.boosts = boosts
}

func (b *BleveDB) getBoosts() Boosts {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.boosts
}

func (b *BleveDB) Search(q Query) (*Response, error) {
	start := time.Now()
	if q.Limit <= 0 {
		q.Limit = defaultSearchLimit
	}

	searchQuery := b.buildQuery(q)

	searchRequest := bleve.NewSearchRequestOptions(searchQuery, q.Limit, q.Offset, false)
	searchRequest.IncludeLocations = true

	searchResult, err := b.index.Search(searchRequest)
	if err != nil {
		b.logger.Error("search failed", "err", err.Error())
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]Hit, len(searchResult.Hits))
	for i, hit := range searchResult.Hits {
		hits[i] = Hit{
			ID:    hit.ID,
			Score: hit.Score,
			Terms: matchedTerms(hit.Locations),
		}
	}

	return &Response{
		Hits:       hits,
		Total:      searchResult.Total,
		MaxScore:   searchResult.MaxScore,
		SearchTime: time.Since(start).String(),
	}, nil
}

func (b *BleveDB) buildQuery(q Query) query.Query {
	textQuery := b.buildSearchQuery(q.Text)
	restrictions := buildFilterQueries(q.Filters)

	if q.Language != "" {
		languageQuery := bleve.NewTermQuery(q.Language)
		languageQuery.SetField(indexFieldLanguage)
		restrictions = append(restrictions, languageQuery)
	}

	if len(restrictions) == 0 {
		return textQuery
	}
	return bleve.NewConjunctionQuery(append([]query.Query{textQuery}, restrictions...)...)
}

// buildFilterQueries requires one of the values of every filter category.
func buildFilterQueries(filters map[string][]string) []query.Query {
	var queries []query.Query
	for _, category := range slices.Sorted(maps.Keys(filters)) {
		values := filters[category]
		if len(values) == 0 {
			continue
		}
		anyValue := bleve.NewDisjunctionQuery()
		for _, value := range values {
			termQuery := bleve.NewTermQuery(FilterTag(category, value))
			termQuery.SetField(indexFieldFilterTags)
			anyValue.AddQuery(termQuery)
		}
		queries = append(queries, anyValue)
	}
	return queries
}

func (b *BleveDB) buildSearchQuery(queryString string) query.Query {
	boosts := b.getBoosts()

	quoted, remaining := parseQuotedQuery(queryString)
	remaining = strings.ToLower(remaining)

	if len(quoted) == 0 && remaining == "" {
		return bleve.NewMatchAllQuery()
	}

	var required []query.Query
	for _, phrase := range quoted {
		phrase = strings.ToLower(phrase)
		phraseQuery := bleve.NewDisjunctionQuery()

		contentPhrase := bleve.NewMatchPhraseQuery(phrase)
		contentPhrase.SetField(indexFieldContent)
		contentPhrase.SetBoost(boosts.PhraseMatch)
		phraseQuery.AddQuery(contentPhrase)

		titlePhrase := bleve.NewMatchPhraseQuery(phrase)
		titlePhrase.SetField(indexFieldTitle)
		titlePhrase.SetBoost(boosts.PhraseMatch)
		phraseQuery.AddQuery(titlePhrase)

		required = append(required, phraseQuery)
	}

	if remaining != "" {
		required = append(required, buildTermsQuery(remaining, boosts))
	}

	if len(required) == 1 {
		return required[0]
	}
	return bleve.NewConjunctionQuery(required...)
}

func buildTermsQuery(queryString string, boosts Boosts) query.Query {
	disjunctQuery := bleve.NewDisjunctionQuery()

	contentQuery := bleve.NewMatchQuery(queryString)
	contentQuery.SetField(indexFieldContent)
	contentQuery.SetBoost(boosts.Content)
	disjunctQuery.AddQuery(contentQuery)

	titleQuery := bleve.NewMatchQuery(queryString)
	titleQuery.SetField(indexFieldTitle)
	titleQuery.SetBoost(boosts.Title)
	disjunctQuery.AddQuery(titleQuery)

	urlQuery := bleve.NewMatchQuery(queryString)
	urlQuery.SetField(indexFieldURL)
	urlQuery.SetBoost(boosts.URL)
	disjunctQuery.AddQuery(urlQuery)

	phraseQuery := bleve.NewMatchPhraseQuery(queryString)
	phraseQuery.SetField(indexFieldContent)
	phraseQuery.SetBoost(boosts.PhraseMatch)
	disjunctQuery.AddQuery(phraseQuery)

	// Prefix matching only applies to the last word, which may still be
	// being typed.
	words := strings.Fields(queryString)
	if last := words[len(words)-1]; len(last) > 2 {
		titlePrefixQuery := bleve.NewPrefixQuery(last)
		titlePrefixQuery.SetField(indexFieldTitle)
		titlePrefixQuery.SetBoost(boosts.PartialMatch)
		disjunctQuery.AddQuery(titlePrefixQuery)

		contentPrefixQuery := bleve.NewPrefixQuery(last)
		contentPrefixQuery.SetField(indexFieldContent)
		contentPrefixQuery.SetBoost(boosts.PartialMatch)
		disjunctQuery.AddQuery(contentPrefixQuery)
	}

	return disjunctQuery
}

// parseQuotedQuery splits out double-quoted phrases. An unterminated quote
// is treated as ordinary text.
func parseQuotedQuery(input string) ([]string, string) {
	var quoted []string
	var remaining, current strings.Builder
	inQuote := false

	for _, r := range input {
		if r != '"' {
			if inQuote {
				current.WriteRune(r)
			} else {
				remaining.WriteRune(r)
			}
			continue
		}

		if inQuote {
			if phrase := strings.Join(strings.Fields(current.String()), " "); phrase != "" {
				quoted = append(quoted, phrase)
			}
			current.Reset()
		}
		inQuote = !inQuote
		remaining.WriteRune(' ')
	}

	if inQuote {
		remaining.WriteString(current.String())
	}

	return quoted, strings.Join(strings.Fields(remaining.String()), " ")
}

func matchedTerms(locations search.FieldTermLocationMap) []string {
	seen := make(map[string]struct{})
	for _, field := range []string{indexFieldContent, indexFieldTitle} {
		for term := range locations[field] {
			seen[term] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen))
}

func (b *BleveDB) DeleteDocuments(documentIDs []string) error {
	batch := b.index.NewBatch()

	for i, docID := range documentIDs {
		batch.Delete(docID)

		if (i+1)%IndexingBatchSize == 0 {
			if err := b.index.Batch(batch); err != nil {
				return err
			}
			batch = b.index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := b.index.Batch(batch); err != nil {
			b.logger.Error("could not delete documents", "err", err.Error())
			return err
		}
	}

	return nil
}

func (b *BleveDB) GetDocCount() (uint64, error) {
	return b.index.DocCount()
}

func (b *BleveDB) Close() error {

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			b.logger.Error("could not close search index", "err", err.Error())
			return err
		}
	}
	return nil
}
