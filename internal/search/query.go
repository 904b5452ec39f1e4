package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps results when SearchParams.Limit is unset.
const DefaultLimit = 20

// SearchParams configures a summary search.
type SearchParams struct {
	Query    string
	Platform string // exact platform filter, optional
	Limit    int
}

// SearchHit is one matching summary, ordered by score.
type SearchHit struct {
	URL        string  `json:"url"`
	Title      string  `json:"title"`
	Platform   string  `json:"platform,omitempty"`
	Difficulty string  `json:"difficulty,omitempty"`
	Score      float64 `json:"score"`
}

// SearchResult holds the hits for one query.
type SearchResult struct {
	Query  string      `json:"query"`
	Total  uint64      `json:"total"`
	TookMs int64       `json:"took_ms"`
	Hits   []SearchHit `json:"hits"`
}

// Search runs params against the index. A blank query matches nothing.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	q := strings.TrimSpace(params.Query)
	if q == "" {
		return &SearchResult{Query: params.Query, Hits: []SearchHit{}}, nil
	}
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildSearchQuery(q, params.Platform), limit, 0, false)
	req.Fields = []string{"url", "title", "platform", "difficulty"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		h := SearchHit{URL: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			h.Title = v
		}
		if v, ok := hit.Fields["platform"].(string); ok {
			h.Platform = v
		}
		if v, ok := hit.Fields["difficulty"].(string); ok {
			h.Difficulty = v
		}
		result.Hits = append(result.Hits, h)
	}
	return result, nil
}

// buildSearchQuery matches q against the text fields, weighting title and
// topics over the generated prose.
func buildSearchQuery(q, platform string) query.Query {
	match := func(field string, boost float64) query.Query {
		m := bleve.NewMatchQuery(q)
		m.SetField(field)
		m.SetBoost(boost)
		return m
	}

	fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
	fuzzy.SetField("title")
	fuzzy.SetFuzziness(1)
	fuzzy.SetBoost(0.8)

	text := bleve.NewDisjunctionQuery(
		match("title", 3.0),
		match("topics", 2.0),
		match("takeaways", 1.0),
		match("quick_summary", 0.5),
		fuzzy,
	)

	if platform == "" {
		return text
	}
	pq := bleve.NewTermQuery(platform)
	pq.SetField("platform")
	return bleve.NewConjunctionQuery(text, pq)
}
