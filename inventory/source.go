package inventory

import (
	"context"
	"time"
)

// TagPair is one raw key/value pair as returned by the inventory API.
type TagPair struct {
	Key   string
	Value string
}

// Record is a raw inventory row before tag normalization.
type Record struct {
	ID        string
	Tags      []TagPair
	VolumeID  string
	SizeGB    int32
	Encrypted bool
	StartedAt time.Time
}

// Page is one page of inventory records. An empty NextToken means the
// inventory is exhausted.
type Page struct {
	Records   []Record
	NextToken string
}

// ApplyResult reports the fate of one entity in one tagging call.
type ApplyResult struct {
	EntityID string
	Err      error
}

// Source is the narrow boundary to the snapshot inventory. The engine has
// no knowledge of its transport; the concrete cloud API lives behind this
// interface.
type Source interface {
	// ListPage returns the page at token. An empty token starts from the
	// beginning of the inventory.
	ListPage(ctx context.Context, token string) (Page, error)

	// ApplyTags upserts tags onto each entity and reports per-entity
	// success or failure. Tag application merges; it never replaces
	// unrelated tags.
	ApplyTags(ctx context.Context, entityIDs []string, tags map[string]string) ([]ApplyResult, error)
}
