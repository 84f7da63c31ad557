// Package search is the read path over the document index: a cache-aside
// service per item kind and an Elasticsearch-backed Index.
package search

import (
	"context"
	"encoding/json"
)

// Query is one paginated request against an index. An empty Text matches
// every document; otherwise all terms must match.
type Query struct {
	From int
	Size int
	Sort string
	Desc bool
	Text string
}

// Index returns raw document sources. Get reports a missing document with
// found == false and a nil error.
type Index interface {
	Get(ctx context.Context, index, id string) (source json.RawMessage, found bool, err error)
	Search(ctx context.Context, index string, q Query) ([]json.RawMessage, error)
}
