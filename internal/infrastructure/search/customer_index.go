package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/clientsphere/internal/application"
	"github.com/oksasatya/clientsphere/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// tombstoneVersion outranks every UpdatedAt.UnixNano() version until 2116.
// Customer ids are never reused, so a tombstone is final.
const tombstoneVersion = 1 << 62

// customerMapping keeps a lowercased keyword copy of name for prefix lookups
// and deterministic sorting.
const customerMapping = `{
  "settings": {
    "analysis": {
      "normalizer": {
        "lowercase": {"type": "custom", "filter": ["lowercase"]}
      }
    }
  },
  "mappings": {
    "properties": {
      "id":         {"type": "keyword"},
      "name":       {"type": "text", "fields": {"sort": {"type": "keyword", "normalizer": "lowercase"}}},
      "email":      {"type": "keyword"},
      "company":    {"type": "text"},
      "status":     {"type": "keyword"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"},
      "deleted":    {"type": "boolean"}
    }
  }
}`

// CustomerIndex mirrors the customer store into Elasticsearch for autocomplete.
//
// Writes use external versioning so out-of-order events converge: a document
// is versioned by UpdatedAt and a deletion leaves a tombstone that no later
// upsert can overwrite.
type CustomerIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewCustomerIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *CustomerIndex {
	return &CustomerIndex{ES: es, Index: index, Logger: logger}
}

type customerDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	Deleted   bool   `json:"deleted,omitempty"`
}

func toDoc(c entity.Customer) customerDoc {
	return customerDoc{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Company:   c.Company,
		Status:    string(c.Status),
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (i *CustomerIndex) EnsureIndex(ctx context.Context) error {
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := esapi.IndicesExistsRequest{Index: []string{i.Index}}.Do(c, i.ES)
	if err != nil {
		return fmt.Errorf("es index exists: %w", err)
	}
	_ = res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{Index: i.Index, Body: strings.NewReader(customerMapping)}.Do(c, i.ES)
	if err != nil {
		return fmt.Errorf("es create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es create index: %s", res.Status())
	}
	i.Logger.WithField("index", i.Index).Info("elasticsearch index created")
	return nil
}

// Upsert writes c unless the index already holds the same or a newer
// version of it, or its tombstone.
func (i *CustomerIndex) Upsert(ctx context.Context, c entity.Customer) error {
	version := int(c.UpdatedAt.UnixNano())
	if version < 1 {
		version = 1
	}
	return i.put(ctx, c.ID, toDoc(c), version)
}

// Delete replaces the document with a tombstone. Repeating it is harmless.
func (i *CustomerIndex) Delete(ctx context.Context, id string) error {
	return i.put(ctx, id, customerDoc{ID: id, Deleted: true}, tombstoneVersion)
}

func (i *CustomerIndex) put(ctx context.Context, id string, doc customerDoc, version int) error {
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req := esapi.IndexRequest{
		Index:       i.Index,
		DocumentID:  id,
		Body:        bytes.NewReader(b),
		Refresh:     "false",
		Version:     &version,
		VersionType: "external",
	}
	res, err := req.Do(ctx, i.ES)
	if err != nil {
		return fmt.Errorf("es index customer: %w", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode == http.StatusConflict {
		// the index already holds a newer state
		i.Logger.WithFields(logrus.Fields{"customer_id": id, "version": version}).Debug("skipping stale customer document")
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("es index customer %s: %s", id, res.Status())
	}
	return nil
}

// Apply projects a change event onto the index.
func (i *CustomerIndex) Apply(ctx context.Context, ev application.CustomerEvent) error {
	switch ev.Type {
	case application.EventCustomerCreated, application.EventCustomerUpdated:
		if ev.Customer == nil {
			return fmt.Errorf("event %s for %s has no customer", ev.Type, ev.CustomerID)
		}
		return i.Upsert(ctx, *ev.Customer)
	case application.EventCustomerDeleted:
		return i.Delete(ctx, ev.CustomerID)
	default:
		i.Logger.WithField("type", ev.Type).Warn("ignoring unknown customer event")
		return nil
	}
}

// Suggest implements application.Suggester with a prefix query on the
// lowercased name, sorted by name then id.
func (i *CustomerIndex) Suggest(ctx context.Context, prefix string, size int) ([]application.Suggestion, error) {
	query := map[string]any{
		"query": map[string]any{
			"bool": map[string]any{
				"must": map[string]any{
					"prefix": map[string]any{
						"name.sort": map[string]any{"value": strings.ToLower(prefix)},
					},
				},
				"must_not": liveOnly,
			},
		},
		"sort": []any{
			map[string]any{"name.sort": "asc"},
			map[string]any{"id": "asc"},
		},
		"size": size,
	}
	hits, err := i.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("es suggest: %w", err)
	}

	out := make([]application.Suggestion, 0, len(hits))
	for _, h := range hits {
		out = append(out, application.Suggestion{
			ID:      h.Source.ID,
			Name:    h.Source.Name,
			Email:   h.Source.Email,
			Company: h.Source.Company,
			Status:  entity.CustomerStatus(h.Source.Status),
		})
	}
	return out, nil
}

// LiveIDs pages through the ids of non-tombstoned documents in id order,
// starting after the given id ("" for the first page).
func (i *CustomerIndex) LiveIDs(ctx context.Context, after string, size int) ([]string, error) {
	query := map[string]any{
		"query":   map[string]any{"bool": map[string]any{"must_not": liveOnly}},
		"sort":    []any{map[string]any{"id": "asc"}},
		"_source": []string{"id"},
		"size":    size,
	}
	if after != "" {
		query["search_after"] = []string{after}
	}
	hits, err := i.search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("es list ids: %w", err)
	}
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.Source.ID)
	}
	return ids, nil
}

// liveOnly excludes tombstones.
var liveOnly = map[string]any{"term": map[string]any{"deleted": true}}

type searchHit struct {
	Source customerDoc `json:"_source"`
}

func (i *CustomerIndex) search(ctx context.Context, query map[string]any) ([]searchHit, error) {
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.ES.Search(
		i.ES.Search.WithContext(c),
		i.ES.Search.WithIndex(i.Index),
		i.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("%s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []searchHit `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return parsed.Hits.Hits, nil
}

var _ application.Suggester = (*CustomerIndex)(nil)
