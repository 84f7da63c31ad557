package search

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

//go:embed mappings/*.json
var mappings embed.FS

// IndexNames maps each item kind to its index.
type IndexNames struct {
	Films   string
	Genres  string
	Persons string
}

// ElasticIndex implements Index over the Elasticsearch REST API.
type ElasticIndex struct {
	es *elasticsearch.Client
}

func NewElasticIndex(es *elasticsearch.Client) *ElasticIndex {
	return &ElasticIndex{es: es}
}

// NewElasticClient builds a client for url without contacting the cluster.
func NewElasticClient(url string) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
}

func (e *ElasticIndex) Ping(ctx context.Context) error {
	res, err := e.es.Ping(e.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: %s", res.Status())
	}
	return nil
}

func (e *ElasticIndex) Get(ctx context.Context, index, id string) (json.RawMessage, bool, error) {
	res, err := e.es.Get(index, id, e.es.Get.WithContext(ctx))
	if err != nil {
		return nil, false, fmt.Errorf("elasticsearch get: %w", err)
	}
	defer res.Body.Close()

	var doc struct {
		Found  bool            `json:"found"`
		Source json.RawMessage `json:"_source"`
		Error  json.RawMessage `json:"error"`
	}

	// A missing document is a 404 with "found": false; a missing index is a
	// 404 with an error body and counts as a backend failure.
	if res.StatusCode == http.StatusNotFound {
		if err := json.NewDecoder(res.Body).Decode(&doc); err == nil && doc.Error == nil {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("elasticsearch get %s/%s: %s", index, id, res.Status())
	}
	if res.IsError() {
		return nil, false, fmt.Errorf("elasticsearch get %s/%s: %s", index, id, res.Status())
	}

	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		return nil, false, fmt.Errorf("elasticsearch get decode: %w", err)
	}
	if !doc.Found {
		return nil, false, nil
	}
	return doc.Source, true, nil
}

func (e *ElasticIndex) Search(ctx context.Context, index string, q Query) ([]json.RawMessage, error) {
	body, err := json.Marshal(searchBody(q.Text))
	if err != nil {
		return nil, err
	}

	opts := []func(*esapi.SearchRequest){
		e.es.Search.WithContext(ctx),
		e.es.Search.WithIndex(index),
		e.es.Search.WithFrom(q.From),
		e.es.Search.WithSize(q.Size),
		e.es.Search.WithBody(bytes.NewReader(body)),
	}
	if q.Sort != "" {
		order := "asc"
		if q.Desc {
			order = "desc"
		}
		opts = append(opts, e.es.Search.WithSort(q.Sort+":"+order))
	}

	res, err := e.es.Search(opts...)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search %s: %s: %s", index, res.Status(), readReason(res.Body))
	}

	var out struct {
		Hits struct {
			Hits []struct {
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("elasticsearch search decode: %w", err)
	}

	sources := make([]json.RawMessage, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		sources = append(sources, h.Source)
	}
	return sources, nil
}

// EnsureIndexes creates any of the three indexes that do not exist yet,
// using the embedded mappings.
func (e *ElasticIndex) EnsureIndexes(ctx context.Context, names IndexNames) error {
	for _, it := range []struct{ index, mapping string }{
		{names.Films, "mappings/films.json"},
		{names.Genres, "mappings/genres.json"},
		{names.Persons, "mappings/persons.json"},
	} {
		if err := e.ensureIndex(ctx, it.index, it.mapping); err != nil {
			return err
		}
	}
	return nil
}

func (e *ElasticIndex) ensureIndex(ctx context.Context, index, mappingPath string) error {
	res, err := e.es.Indices.Exists([]string{index}, e.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch exists %s: %w", index, err)
	}
	res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("elasticsearch exists %s: %s", index, res.Status())
	}

	mapping, err := mappings.ReadFile(mappingPath)
	if err != nil {
		return err
	}
	res, err = e.es.Indices.Create(index,
		e.es.Indices.Create.WithContext(ctx),
		e.es.Indices.Create.WithBody(bytes.NewReader(mapping)))
	if err != nil {
		return fmt.Errorf("elasticsearch create %s: %w", index, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("elasticsearch create %s: %s: %s", index, res.Status(), readReason(res.Body))
	}
	return nil
}

func searchBody(text string) map[string]any {
	if text == "" {
		return map[string]any{"query": map[string]any{"match_all": map[string]any{}}}
	}
	return map[string]any{
		"query": map[string]any{
			"query_string": map[string]any{
				"query":            text,
				"default_operator": "AND",
			},
		},
	}
}

func readReason(r io.Reader) string {
	var e struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&e); err != nil || e.Error.Type == "" {
		return "unknown error"
	}
	return e.Error.Type + ": " + e.Error.Reason
}
