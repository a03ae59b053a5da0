package compliance

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/tagwarden/tagwarden/inventory"
	"github.com/tagwarden/tagwarden/telemetry"
	"github.com/tagwarden/tagwarden/types"
)

// DefaultConcurrency bounds the evaluation fan-out when no limit is given.
const DefaultConcurrency = 8

// Evaluator applies a rule set to scanned entities. Evaluation of one
// entity never depends on another entity's state, which is what makes the
// fan-out safe.
type Evaluator struct {
	rules  types.RuleSet
	limit  int
	logger *telemetry.Logger
}

// NewEvaluator creates an evaluator with a bounded concurrency limit.
func NewEvaluator(rules types.RuleSet, concurrencyLimit int) *Evaluator {
	if concurrencyLimit <= 0 {
		concurrencyLimit = DefaultConcurrency
	}
	return &Evaluator{
		rules:  rules,
		limit:  concurrencyLimit,
		logger: telemetry.NewLogger("evaluator"),
	}
}

// EvaluateAll evaluates every entity and returns one result per entity in
// input order. Workers write disjoint slots; aggregation happens after the
// fan-out completes, never under concurrent mutation.
func (ev *Evaluator) EvaluateAll(ctx context.Context, entities []types.TaggedEntity) ([]types.ComplianceResult, error) {
	results := make([]types.ComplianceResult, len(entities))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ev.limit)

	for i, entity := range entities {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = ev.rules.Evaluate(entity)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EvaluateScan drains a scanner page by page and evaluates as it goes. On
// a scan fault it returns the results accumulated so far together with the
// ScanFailed error, so the caller can report partial findings and resume.
func (ev *Evaluator) EvaluateScan(ctx context.Context, scanner *inventory.Scanner) ([]types.ComplianceResult, error) {
	var results []types.ComplianceResult

	for scanner.HasMorePages() {
		entities, err := scanner.NextPage(ctx)
		if err != nil {
			ev.logger.Error().Err(err).Msg("inventory scan interrupted")
			return results, err
		}

		pageResults, err := ev.EvaluateAll(ctx, entities)
		if err != nil {
			return results, err
		}
		results = append(results, pageResults...)

		ev.logger.Debug().
			Int("page_entities", len(entities)).
			Int("total_evaluated", len(results)).
			Msg("evaluated inventory page")
	}

	return results, nil
}
