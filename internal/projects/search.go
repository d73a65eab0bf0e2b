package projects

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
)

const minTermLength = 2

// fieldBoosts weights where a term matched.
var fieldBoosts = map[string]float64{
	"title":        4,
	"description":  3,
	"technologies": 2,
	"category":     1,
}

type SearchResult struct {
	Project Project `json:"project"`
	Score   float64 `json:"score"`
}

type Searcher interface {
	Search(projects []Project, q string) ([]SearchResult, error)
}

// BleveSearcher ranks projects with a throwaway in-memory bleve index built
// for each search. Terms match fuzzily (one edit for terms of four runes or
// more) or as prefixes.
type BleveSearcher struct {
	mapping mapping.IndexMapping
}

func NewBleveSearcher() *BleveSearcher {
	return &BleveSearcher{mapping: buildIndexMapping()}
}

func buildIndexMapping() mapping.IndexMapping {
	docMapping := bleve.NewDocumentMapping()
	for field := range fieldBoosts {
		docMapping.AddFieldMappingsAt(field, bleve.NewTextFieldMapping())
	}

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func (s *BleveSearcher) Search(projects []Project, q string) ([]SearchResult, error) {
	terms := searchTerms(q)
	if len(terms) == 0 {
		results := make([]SearchResult, 0, len(projects))
		for _, p := range projects {
			results = append(results, SearchResult{Project: p})
		}
		return results, nil
	}

	index, err := bleve.NewMemOnly(s.mapping)
	if err != nil {
		return nil, fmt.Errorf("fail to create search index: %w", err)
	}
	defer index.Close()

	byID := make(map[string]Project, len(projects))
	batch := index.NewBatch()
	for _, p := range projects {
		byID[p.ID] = p
		if err := batch.Index(p.ID, map[string]any{
			"title":        p.Title,
			"description":  p.Description,
			"technologies": p.Technologies,
			"category":     p.Category,
		}); err != nil {
			return nil, fmt.Errorf("fail to index project '%s': %w", p.ID, err)
		}
	}
	if err := index.Batch(batch); err != nil {
		return nil, fmt.Errorf("fail to index projects: %w", err)
	}

	request := bleve.NewSearchRequestOptions(buildQuery(terms), len(projects), 0, false)
	response, err := index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	results := make([]SearchResult, 0, len(response.Hits))
	for _, hit := range response.Hits {
		if p, ok := byID[hit.ID]; ok {
			results = append(results, SearchResult{Project: p, Score: hit.Score})
		}
	}
	return results, nil
}

func searchTerms(q string) []string {
	terms := make([]string, 0)
	for _, term := range strings.Fields(strings.ToLower(q)) {
		if utf8.RuneCountInString(term) >= minTermLength {
			terms = append(terms, term)
		}
	}
	return terms
}

func buildQuery(terms []string) query.Query {
	disjuncts := make([]query.Query, 0, len(terms)*len(fieldBoosts)*2)
	for _, term := range terms {
		for field, boost := range fieldBoosts {
			prefix := bleve.NewPrefixQuery(term)
			prefix.SetField(field)
			prefix.SetBoost(boost)
			disjuncts = append(disjuncts, prefix)

			if utf8.RuneCountInString(term) >= 4 {
				fuzzy := bleve.NewFuzzyQuery(term)
				fuzzy.SetField(field)
				fuzzy.SetFuzziness(1)
				fuzzy.SetBoost(boost)
				disjuncts = append(disjuncts, fuzzy)
			}
		}
	}
	return bleve.NewDisjunctionQuery(disjuncts...)
}
