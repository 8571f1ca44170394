package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"scheme-workers/internal/models"
)

const (
	DefaultSchemeIndex = "schemes"
	DefaultQueryIndex  = "search_queries"
	// DefaultMaxCandidates caps a single search; the catalog is far below it.
	DefaultMaxCandidates = 10000
)

// ElasticsearchAccessor reads scheme documents whose _source mirrors models.SchemeRecord.
type ElasticsearchAccessor struct {
	client        *elasticsearch.Client
	schemeIndex   string
	queryIndex    string
	maxCandidates int
	popularLimit  int
}

func NewElasticsearchAccessor(client *elasticsearch.Client, schemeIndex string) *ElasticsearchAccessor {
	if schemeIndex == "" {
		schemeIndex = DefaultSchemeIndex
	}
	return &ElasticsearchAccessor{
		client:        client,
		schemeIndex:   schemeIndex,
		queryIndex:    DefaultQueryIndex,
		maxCandidates: DefaultMaxCandidates,
		popularLimit:  DefaultPopularLimit,
	}
}

func (e *ElasticsearchAccessor) FetchByCategory(ctx context.Context, category string) ([]models.SchemeRecord, error) {
	return e.search(ctx, buildSchemeQuery(category))
}

func (e *ElasticsearchAccessor) FetchAll(ctx context.Context) ([]models.SchemeRecord, error) {
	return e.search(ctx, buildSchemeQuery(""))
}

func (e *ElasticsearchAccessor) FetchByID(ctx context.Context, id string) (*models.SchemeRecord, error) {
	req := esapi.GetRequest{Index: e.schemeIndex, DocumentID: id}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrSchemeNotFound, id)
	}
	if res.IsError() {
		return nil, fmt.Errorf("%w: get %s: %s", ErrCorpusQuery, id, res.String())
	}

	var doc struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
	}
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode document: %v", ErrCorpusQuery, err)
	}
	if !doc.Found {
		return nil, fmt.Errorf("%w: %s", ErrSchemeNotFound, id)
	}
	rec, err := decodeScheme(id, doc.Source)
	if err != nil {
		return nil, fmt.Errorf("%w: decode scheme %s: %v", ErrCorpusQuery, id, err)
	}
	return rec, nil
}

// FetchPopularQueries aggregates the query log index by exact query text.
func (e *ElasticsearchAccessor) FetchPopularQueries(ctx context.Context, prefix string) ([]string, error) {
	body := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"wildcard": map[string]interface{}{
				"query.keyword": map[string]interface{}{
					"value":            "*" + strings.ToLower(prefix) + "*",
					"case_insensitive": true,
				},
			},
		},
		"aggs": map[string]interface{}{
			"popular": map[string]interface{}{
				"terms": map[string]interface{}{
					"field": "query.keyword",
					"size":  e.popularLimit,
				},
			},
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.queryIndex},
		Body:  strings.NewReader(string(payload)),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: popular queries: %s", ErrCorpusQuery, res.String())
	}

	var parsed struct {
		Aggregations struct {
			Popular struct {
				Buckets []struct {
					Key      string `json:"key"`
					DocCount int    `json:"doc_count"`
				} `json:"buckets"`
			} `json:"popular"`
		} `json:"aggregations"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode aggregations: %v", ErrCorpusQuery, err)
	}

	out := make([]string, 0, len(parsed.Aggregations.Popular.Buckets))
	for _, b := range parsed.Aggregations.Popular.Buckets {
		out = append(out, b.Key)
	}
	return out, nil
}

func (e *ElasticsearchAccessor) search(ctx context.Context, query map[string]interface{}) ([]models.SchemeRecord, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}

	size := e.maxCandidates
	req := esapi.SearchRequest{
		Index: []string{e.schemeIndex},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorpusQuery, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("%w: search %s: %s", ErrCorpusQuery, e.schemeIndex, res.String())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string          `json:"_id"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode hits: %v", ErrCorpusQuery, err)
	}

	out := make([]models.SchemeRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		rec, err := decodeScheme(hit.ID, hit.Source)
		if err != nil {
			return nil, fmt.Errorf("%w: decode scheme %s: %v", ErrCorpusQuery, hit.ID, err)
		}
		out = append(out, *rec)
	}
	return out, nil
}

// schemeSource shadows the rules field so one bad rules value does not fail the document.
type schemeSource struct {
	models.SchemeRecord
	EligibilityRules json.RawMessage `json:"eligibilityRules,omitempty"`
}

// decodeScheme decodes a _source document. Rules that are not an object are kept as
// models.UndecodableRules for the scorer to skip.
func decodeScheme(id string, source json.RawMessage) (*models.SchemeRecord, error) {
	var src schemeSource
	if err := json.Unmarshal(source, &src); err != nil {
		return nil, err
	}
	rec := src.SchemeRecord
	if rec.ID == "" {
		rec.ID = id
	}
	if len(src.EligibilityRules) > 0 && string(src.EligibilityRules) != "null" {
		dec := json.NewDecoder(strings.NewReader(string(src.EligibilityRules)))
		dec.UseNumber()
		if err := dec.Decode(&rec.EligibilityRules); err != nil {
			rec.EligibilityRules = models.UndecodableRules(string(src.EligibilityRules))
		}
	}
	return &rec, nil
}

// buildSchemeQuery filters active schemes, optionally narrowed to one category.
func buildSchemeQuery(category string) map[string]interface{} {
	filters := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"active": true}},
	}
	if category != "" {
		filters = append(filters, map[string]interface{}{
			"term": map[string]interface{}{
				"category.keyword": map[string]interface{}{
					"value":            category,
					"case_insensitive": true,
				},
			},
		})
	}
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"filter": filters},
		},
	}
}
