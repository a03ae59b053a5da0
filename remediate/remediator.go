package remediate

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/tagwarden/tagwarden/inventory"
	"github.com/tagwarden/tagwarden/telemetry"
	"github.com/tagwarden/tagwarden/types"
)

const (
	// DefaultBatchSize matches the tagging API's per-call resource limit.
	DefaultBatchSize = 20
	// MaxBatchSize is the hard ceiling the underlying API accepts.
	MaxBatchSize = 1000

	DefaultMaxRetries  = 4
	DefaultBackoffBase = 500 * time.Millisecond
)

// Tagger is the slice of the inventory source the remediator needs.
type Tagger interface {
	ApplyTags(ctx context.Context, entityIDs []string, tags map[string]string) ([]inventory.ApplyResult, error)
}

// Options configure remediation behavior.
type Options struct {
	// BatchSize caps how many entities go into one tagging call.
	BatchSize int
	// MaxRetries bounds retry attempts per batch after the first try.
	MaxRetries int
	// BackoffBase is the initial exponential backoff interval.
	BackoffBase time.Duration
	// DryRun computes the same outcome shape without any mutating call.
	DryRun bool
	// IsTransient classifies retriable faults. Defaults to IsThrottle.
	IsTransient func(error) bool
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = DefaultMaxRetries
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = DefaultBackoffBase
	}
	if o.IsTransient == nil {
		o.IsTransient = IsThrottle
	}
}

// Remediator applies a target tag set to entities in bounded batches.
// Tag application is upsert, so re-running over already-tagged entities is
// a no-op success rather than an error.
type Remediator struct {
	tagger Tagger
	opts   Options
	logger *telemetry.Logger
}

// NewRemediator validates options and builds a remediator.
func NewRemediator(tagger Tagger, opts Options) (*Remediator, error) {
	if tagger == nil {
		return nil, fmt.Errorf("tagger is required")
	}
	if opts.BatchSize > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds API limit %d", opts.BatchSize, MaxBatchSize)
	}
	opts.applyDefaults()

	return &Remediator{
		tagger: tagger,
		opts:   opts,
		logger: telemetry.NewLogger("remediator"),
	}, nil
}

// Remediate applies tags to every entity, one bounded batch per tagging
// call. A failed batch is isolated: its entities are marked failed and the
// run continues with the next batch. Cancellation is honored between
// batches; work already applied is reported, never rolled back. The
// returned outcome list always covers every input entity.
func (r *Remediator) Remediate(ctx context.Context, entityIDs []string, tags map[string]string) ([]types.RemediationOutcome, error) {
	if len(tags) == 0 {
		return nil, fmt.Errorf("no tags to apply")
	}

	outcomes := make([]types.RemediationOutcome, 0, len(entityIDs))
	batches := chunk(entityIDs, r.opts.BatchSize)

	for i, batch := range batches {
		if err := ctx.Err(); err != nil {
			for _, id := range entityIDs[len(outcomes):] {
				outcomes = append(outcomes, types.RemediationOutcome{
					EntityID:   id,
					Status:     types.StatusSkipped,
					SkipReason: "run canceled",
				})
			}
			return outcomes, err
		}

		if r.opts.DryRun {
			for _, id := range batch {
				outcomes = append(outcomes, types.RemediationOutcome{
					EntityID:   id,
					Status:     types.StatusSkipped,
					SkipReason: "dry run",
				})
			}
			continue
		}

		results, err := r.applyWithRetry(ctx, batch, tags)
		if err != nil {
			batchErr := &BatchError{EntityIDs: batch, Cause: err}
			r.logger.Error().
				Err(batchErr).
				Int("batch", i+1).
				Int("batch_size", len(batch)).
				Msg("batch remediation failed")

			for _, id := range batch {
				outcomes = append(outcomes, types.RemediationOutcome{
					EntityID: id,
					Status:   types.StatusFailed,
					Error:    err.Error(),
				})
			}
			continue
		}

		outcomes = append(outcomes, batchOutcomes(batch, results)...)
		r.logger.Debug().
			Int("batch", i+1).
			Int("batch_size", len(batch)).
			Msg("batch remediated")
	}

	return outcomes, nil
}

// applyWithRetry issues one tagging call with exponential backoff on
// transient faults. Non-transient errors fail the batch immediately.
func (r *Remediator) applyWithRetry(ctx context.Context, batch []string, tags map[string]string) ([]inventory.ApplyResult, error) {
	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = r.opts.BackoffBase
	policy := backoff.WithContext(
		backoff.WithMaxRetries(expo, uint64(r.opts.MaxRetries)),
		ctx,
	)

	var results []inventory.ApplyResult
	op := func() error {
		res, err := r.tagger.ApplyTags(ctx, batch, tags)
		if err != nil {
			if r.opts.IsTransient(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		results = res
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		return nil, err
	}
	return results, nil
}

// batchOutcomes folds per-id apply results into outcomes, preserving batch
// order. An id the source did not report on shares the call's success.
func batchOutcomes(batch []string, results []inventory.ApplyResult) []types.RemediationOutcome {
	failed := make(map[string]error, len(results))
	for _, res := range results {
		if res.Err != nil {
			failed[res.EntityID] = res.Err
		}
	}

	outcomes := make([]types.RemediationOutcome, 0, len(batch))
	for _, id := range batch {
		if err, ok := failed[id]; ok {
			outcomes = append(outcomes, types.RemediationOutcome{
				EntityID: id,
				Status:   types.StatusFailed,
				Error:    err.Error(),
			})
			continue
		}
		outcomes = append(outcomes, types.RemediationOutcome{
			EntityID: id,
			Status:   types.StatusApplied,
		})
	}
	return outcomes
}

// chunk splits ids into batches of at most size.
func chunk(ids []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}
