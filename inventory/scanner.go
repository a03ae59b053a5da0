package inventory

import (
	"context"
	"fmt"

	"github.com/tagwarden/tagwarden/types"
)

// ScanFailed reports an interrupted inventory read. ResumeToken identifies
// the first unread page so a caller can resume rather than restart an
// expensive scan from scratch.
type ScanFailed struct {
	ResumeToken string
	Err         error
}

func (e *ScanFailed) Error() string {
	return fmt.Sprintf("inventory scan failed (resume token %q): %v", e.ResumeToken, e.Err)
}

func (e *ScanFailed) Unwrap() error {
	return e.Err
}

// Scanner walks the paginated inventory and presents callers a single
// unified sequence of entities. Every new Scanner re-queries the source of
// truth; no state is carried between scans.
type Scanner struct {
	source Source
	token  string
	done   bool
}

// NewScanner starts a scan from the beginning of the inventory.
func NewScanner(source Source) *Scanner {
	return &Scanner{source: source}
}

// ResumeFrom continues a scan from a token carried by a previous
// ScanFailed.
func ResumeFrom(source Source, token string) *Scanner {
	return &Scanner{source: source, token: token}
}

// HasMorePages reports whether another page can be fetched.
func (s *Scanner) HasMorePages() bool {
	return !s.done
}

// ResumeToken returns the token of the next unread page. Empty means the
// scan is positioned at the start or has finished.
func (s *Scanner) ResumeToken() string {
	return s.token
}

// NextPage fetches and normalizes the next inventory page. A paging fault
// surfaces as ScanFailed carrying the token of the failed page; the
// scanner position is unchanged, so the same page may be retried or handed
// to ResumeFrom later.
func (s *Scanner) NextPage(ctx context.Context) ([]types.TaggedEntity, error) {
	if s.done {
		return nil, fmt.Errorf("no more pages available")
	}

	page, err := s.source.ListPage(ctx, s.token)
	if err != nil {
		return nil, &ScanFailed{ResumeToken: s.token, Err: err}
	}

	entities := make([]types.TaggedEntity, 0, len(page.Records))
	for _, rec := range page.Records {
		entities = append(entities, Normalize(rec))
	}

	s.token = page.NextToken
	if page.NextToken == "" {
		s.done = true
	}
	return entities, nil
}

// All drains the scanner into a slice. On failure it returns the entities
// read so far alongside the ScanFailed error.
func (s *Scanner) All(ctx context.Context) ([]types.TaggedEntity, error) {
	var out []types.TaggedEntity
	for s.HasMorePages() {
		entities, err := s.NextPage(ctx)
		if err != nil {
			return out, err
		}
		out = append(out, entities...)
	}
	return out, nil
}

// Normalize folds a raw tag list into a unique-key map. Duplicate keys in
// raw input are a data-integrity anomaly; last-seen-wins is the defined
// resolution.
func Normalize(rec Record) types.TaggedEntity {
	tags := make(map[string]string, len(rec.Tags))
	for _, pair := range rec.Tags {
		tags[pair.Key] = pair.Value
	}
	return types.TaggedEntity{
		ID:        rec.ID,
		Tags:      tags,
		VolumeID:  rec.VolumeID,
		SizeGB:    rec.SizeGB,
		Encrypted: rec.Encrypted,
		StartedAt: rec.StartedAt,
	}
}
