// internal/admission/organizations/search.go
package organizations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"training-admissions/internal/common/errors"
	"training-admissions/internal/models"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// Finder returns organizations whose name resembles a query.
type Finder interface {
	Search(ctx context.Context, name string, limit int) ([]models.Organization, error)
}

// Searcher queries and maintains the organization index.
type Searcher struct {
	client *elasticsearch.Client
	index  string
}

func NewSearcher(client *elasticsearch.Client, index string) *Searcher {
	return &Searcher{client: client, index: index}
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			ID     string              `json:"_id"`
			Score  float64             `json:"_score"`
			Source models.Organization `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search runs a fuzzy name match. Results are ordered by relevance.
func (s *Searcher) Search(ctx context.Context, name string, limit int) ([]models.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []models.Organization{}, nil
	}
	limit = clampLimit(limit)

	body, err := json.Marshal(buildNameQuery(name))
	if err != nil {
		return nil, errors.NewSearchQueryFailedError("organizations", err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &limit,
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewSearchTimeoutError("organizations")
		}
		return nil, errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return nil, errors.NewIndexNotFoundError(s.index)
	}
	if res.IsError() {
		return nil, errors.NewSearchQueryFailedError("organizations", fmt.Errorf("%s", res.String()))
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, errors.NewSearchQueryFailedError("organizations", err)
	}

	orgs := make([]models.Organization, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		org := hit.Source
		if org.ID == "" {
			org.ID = hit.ID
		}
		orgs = append(orgs, org)
	}
	return orgs, nil
}

// Index stores org under its id so later searches can find it.
func (s *Searcher) Index(ctx context.Context, org models.Organization) error {
	body, err := json.Marshal(org)
	if err != nil {
		return errors.NewInternalError(err)
	}

	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: org.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return errors.NewElasticsearchConnectionFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return errors.NewSearchQueryFailedError("index_organization", fmt.Errorf("%s", res.String()))
	}
	return nil
}

func buildNameQuery(name string) map[string]interface{} {
	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{
						"match_phrase": map[string]interface{}{
							"name": map[string]interface{}{"query": name, "boost": 3},
						},
					},
					map[string]interface{}{
						"match": map[string]interface{}{
							"name": map[string]interface{}{
								"query":     name,
								"fuzziness": "AUTO",
								"operator":  "and",
							},
						},
					},
				},
				"minimum_should_match": 1,
			},
		},
	}
}

func clampLimit(limit int) int {
	if limit < 1 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
