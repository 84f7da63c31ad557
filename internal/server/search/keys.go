package search

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// ItemKey is the cache key of a single document: "{kind}:{id}".
func ItemKey(kind, id string) string {
	return kind + ":" + id
}

// PageKey is the cache key of one result page:
// "{kind}:{sort fingerprint}:{order}:{from}:{size}:{query fingerprint}".
// Caller-supplied text only enters the key as a digest, so no separator can
// be smuggled in.
func PageKey(kind string, p ListParams) string {
	return fmt.Sprintf("%s:%s:%s:%d:%d:%s",
		kind, Fingerprint(p.Sort), p.order(), p.PageNumber*p.PageSize, p.PageSize, Fingerprint(p.Query))
}

// Fingerprint is a short blake3 digest of caller-supplied text, or "" for none.
func Fingerprint(query string) string {
	if query == "" {
		return ""
	}
	sum := blake3.Sum256([]byte(query))
	return hex.EncodeToString(sum[:16])
}
