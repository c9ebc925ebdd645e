package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"

	"inbox-scout-go/internal/config"
	"inbox-scout-go/internal/model"
)

// feedSize caps the recency feed.
const feedSize = 20

// indexMapping defines the document schema. Keyword fields carry exact
// owner/account filters; text fields carry full-text search.
const indexMapping = `{
  "mappings": {
    "properties": {
      "ownerUserId": {"type": "keyword"},
      "accountId":   {"type": "keyword"},
      "subject":     {"type": "text"},
      "from":        {"type": "text"},
      "body":        {"type": "text"},
      "date":        {"type": "date"},
      "folder":      {"type": "keyword"},
      "isRead":      {"type": "boolean"},
      "category":    {"type": "keyword"}
    }
  }
}`

// Indexer writes classified email records into the document index and
// serves the read-only search and feed queries over it.
type Indexer struct {
	es    *elasticsearch.Client
	index string
}

// New creates a new indexer
func New(cfg config.Index) (*Indexer, error) {
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: cfg.Addresses})
	if err != nil {
		return nil, fmt.Errorf("failed to create index client: %w", err)
	}

	return &Indexer{es: es, index: cfg.Name}, nil
}

// EnsureIndex creates the index with its mapping if it does not exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	res, err := i.es.Indices.Exists([]string{i.index}, i.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to check index existence: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("unexpected status checking index: %s", res.Status())
	}

	createRes, err := i.es.Indices.Create(
		i.index,
		i.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		i.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	defer createRes.Body.Close()

	if createRes.IsError() {
		return fmt.Errorf("failed to create index: %s", createRes.Status())
	}

	logrus.Infof("Created index %q", i.index)
	return nil
}

// IndexEmail upserts one record, keyed by its message id. Re-ingesting
// the same id overwrites the prior document, which makes overlapping
// sync windows idempotent. Records whose Message-Id header was absent
// carry a generated id, so their idempotence only holds per ingest.
func (i *Indexer) IndexEmail(ctx context.Context, record model.EmailRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	res, err := i.es.Index(
		i.index,
		bytes.NewReader(payload),
		i.es.Index.WithDocumentID(record.MessageID),
		i.es.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("failed to index record: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index write failed: %s", res.Status())
	}

	logrus.Debugf("Indexed email %q (%s)", record.Subject, record.MessageID)
	return nil
}

// Search runs a fuzzy multi-field query over the owner's documents.
func (i *Indexer) Search(ctx context.Context, userID, query string) ([]model.EmailRecord, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"ownerUserId": userID},
					},
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":     query,
							"fields":    []string{"subject", "body", "from", "category"},
							"fuzziness": "AUTO",
						},
					},
				},
			},
		},
	}

	return i.doSearch(ctx, body)
}

// Relevant returns the owner's documents most relevant to the query,
// capped at limit. Same fuzzy multi-field match as Search; used to build
// the chat assistant's context.
func (i *Indexer) Relevant(ctx context.Context, userID, query string, limit int) ([]model.EmailRecord, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": []interface{}{
					map[string]interface{}{
						"term": map[string]interface{}{"ownerUserId": userID},
					},
					map[string]interface{}{
						"multi_match": map[string]interface{}{
							"query":     query,
							"fields":    []string{"subject", "body", "from", "category"},
							"fuzziness": "AUTO",
						},
					},
				},
			},
		},
		"size": limit,
	}

	return i.doSearch(ctx, body)
}

// Feed returns the owner's documents newest first, capped at feedSize.
func (i *Indexer) Feed(ctx context.Context, userID string) ([]model.EmailRecord, error) {
	body := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"ownerUserId": userID},
		},
		"sort": []interface{}{
			map[string]interface{}{"date": map[string]interface{}{"order": "desc"}},
		},
		"size": feedSize,
	}

	return i.doSearch(ctx, body)
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source model.EmailRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func (i *Indexer) doSearch(ctx context.Context, body map[string]interface{}) ([]model.EmailRecord, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal search body: %w", err)
	}

	res, err := i.es.Search(
		i.es.Search.WithContext(ctx),
		i.es.Search.WithIndex(i.index),
		i.es.Search.WithBody(bytes.NewReader(payload)),
	)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search failed: %s", res.Status())
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	records := make([]model.EmailRecord, 0, len(parsed.Hits.Hits))
	for _, hit := range parsed.Hits.Hits {
		records = append(records, hit.Source)
	}

	return records, nil
}
