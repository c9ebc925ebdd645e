package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"inbox-scout-go/internal/config"
	"inbox-scout-go/internal/model"
)

// fakeIndex is a minimal in-memory stand-in for the document store: it
// keeps documents by id and answers exists/create/index/search requests.
type fakeIndex struct {
	docs       map[string]model.EmailRecord
	exists     bool
	creates    int
	lastSearch map[string]interface{}
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{docs: make(map[string]model.EmailRecord)}
}

func (f *fakeIndex) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")

		switch {
		case r.Method == http.MethodHead:
			if f.exists {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusNotFound)
			}

		case r.Method == http.MethodPut && !strings.Contains(r.URL.Path, "/_doc/"):
			f.exists = true
			f.creates++
			fmt.Fprint(w, `{"acknowledged": true}`)

		case strings.Contains(r.URL.Path, "/_doc/"):
			id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
			var record model.EmailRecord
			if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.docs[id] = record
			fmt.Fprint(w, `{"result": "created"}`)

		case strings.HasSuffix(r.URL.Path, "/_search"):
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.lastSearch = body
			f.respondSearch(w, body)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

// respondSearch filters stored docs by the term owner filter and, when a
// multi_match clause is present, by substring containment.
func (f *fakeIndex) respondSearch(w http.ResponseWriter, body map[string]interface{}) {
	owner, keyword := extractQuery(body["query"].(map[string]interface{}))

	var matches []model.EmailRecord
	for _, doc := range f.docs {
		if doc.OwnerUserID != owner {
			continue
		}
		if keyword != "" && !docMatches(doc, keyword) {
			continue
		}
		matches = append(matches, doc)
	}

	if _, sorted := body["sort"]; sorted {
		sort.Slice(matches, func(a, b int) bool {
			da, db := matches[a].Date, matches[b].Date
			if da == nil || db == nil {
				return db == nil
			}
			return da.After(*db)
		})
	}
	if size, ok := body["size"].(float64); ok && len(matches) > int(size) {
		matches = matches[:int(size)]
	}

	hits := make([]map[string]interface{}, 0, len(matches))
	for _, doc := range matches {
		hits = append(hits, map[string]interface{}{"_source": doc})
	}
	json.NewEncoder(w).Encode(map[string]interface{}{
		"hits": map[string]interface{}{"hits": hits},
	})
}

func extractQuery(query map[string]interface{}) (owner, keyword string) {
	if term, ok := query["term"].(map[string]interface{}); ok {
		owner = term["ownerUserId"].(string)
		return owner, ""
	}

	boolQuery := query["bool"].(map[string]interface{})
	for _, clause := range boolQuery["must"].([]interface{}) {
		m := clause.(map[string]interface{})
		if term, ok := m["term"].(map[string]interface{}); ok {
			owner = term["ownerUserId"].(string)
		}
		if mm, ok := m["multi_match"].(map[string]interface{}); ok {
			keyword = mm["query"].(string)
		}
	}
	return owner, keyword
}

func docMatches(doc model.EmailRecord, keyword string) bool {
	keyword = strings.ToLower(keyword)
	for _, field := range []string{doc.Subject, doc.Body, doc.From, string(doc.Category)} {
		if strings.Contains(strings.ToLower(field), keyword) {
			return true
		}
	}
	return false
}

func newTestIndexer(t *testing.T) (*Indexer, *fakeIndex) {
	t.Helper()

	fake := newFakeIndex()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	idx, err := New(config.Index{Addresses: []string{server.URL}, Name: "emails"})
	assert.NoError(t, err)
	return idx, fake
}

func record(id, owner, subject string, date time.Time) model.EmailRecord {
	return model.EmailRecord{
		MessageID:   id,
		OwnerUserID: owner,
		Subject:     subject,
		Body:        "body of " + subject,
		From:        "sender@example.com",
		Date:        &date,
		Folder:      "INBOX",
		Category:    model.CategoryGeneral,
	}
}

func TestEnsureIndexCreatesOnlyWhenMissing(t *testing.T) {
	idx, fake := newTestIndexer(t)

	assert.NoError(t, idx.EnsureIndex(context.Background()))
	assert.Equal(t, 1, fake.creates)

	// Second call sees the index and does not recreate it.
	assert.NoError(t, idx.EnsureIndex(context.Background()))
	assert.Equal(t, 1, fake.creates)
}

func TestIndexEmailUpsertIsIdempotent(t *testing.T) {
	idx, fake := newTestIndexer(t)

	rec := record("msg-1@example.com", "user-a", "First sync", time.Now())
	assert.NoError(t, idx.IndexEmail(context.Background(), rec))

	rec.Category = model.CategoryInterested
	assert.NoError(t, idx.IndexEmail(context.Background(), rec))

	assert.Len(t, fake.docs, 1)
	assert.Equal(t, model.CategoryInterested, fake.docs["msg-1@example.com"].Category)
}

func TestSearchIsOwnerScoped(t *testing.T) {
	idx, fake := newTestIndexer(t)

	now := time.Now()
	fake.docs["a1"] = record("a1", "user-a", "quarterly meeting notes", now)
	fake.docs["b1"] = record("b1", "user-b", "quarterly meeting notes", now)

	results, err := idx.Search(context.Background(), "user-a", "meeting")
	assert.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, "user-a", results[0].OwnerUserID)
}

func TestSearchRequestShape(t *testing.T) {
	idx, fake := newTestIndexer(t)

	_, err := idx.Search(context.Background(), "user-a", "meting")
	assert.NoError(t, err)

	payload, err := json.Marshal(fake.lastSearch)
	assert.NoError(t, err)
	assert.Contains(t, string(payload), `"fuzziness":"AUTO"`)
	assert.Contains(t, string(payload), `"category"`)
	assert.Contains(t, string(payload), `"ownerUserId":"user-a"`)
}

func TestRelevantCapsAndScopes(t *testing.T) {
	idx, fake := newTestIndexer(t)

	now := time.Now()
	for n := 0; n < 7; n++ {
		id := fmt.Sprintf("a-%d", n)
		fake.docs[id] = record(id, "user-a", fmt.Sprintf("project update %d", n), now)
	}
	fake.docs["b1"] = record("b1", "user-b", "project update", now)

	results, err := idx.Relevant(context.Background(), "user-a", "project", 5)
	assert.NoError(t, err)
	assert.Len(t, results, 5)
	for _, result := range results {
		assert.Equal(t, "user-a", result.OwnerUserID)
	}

	payload, _ := json.Marshal(fake.lastSearch)
	assert.Contains(t, string(payload), `"size":5`)
	assert.Contains(t, string(payload), `"fuzziness":"AUTO"`)
}

func TestFeedSortsNewestFirstAndCaps(t *testing.T) {
	idx, fake := newTestIndexer(t)

	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for n := 0; n < 25; n++ {
		id := fmt.Sprintf("msg-%d", n)
		fake.docs[id] = record(id, "user-a", fmt.Sprintf("mail %d", n), base.Add(time.Duration(n)*time.Hour))
	}

	results, err := idx.Feed(context.Background(), "user-a")
	assert.NoError(t, err)
	assert.Len(t, results, 20)
	assert.Equal(t, "mail 24", results[0].Subject)
	assert.True(t, results[0].Date.After(*results[1].Date))

	payload, _ := json.Marshal(fake.lastSearch)
	assert.Contains(t, string(payload), `"size":20`)
	assert.Contains(t, string(payload), `"order":"desc"`)
}
