package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/tagwarden/tagwarden/compliance"
	"github.com/tagwarden/tagwarden/config"
	"github.com/tagwarden/tagwarden/inventory"
	awsprovider "github.com/tagwarden/tagwarden/providers/aws"
	"github.com/tagwarden/tagwarden/types"
)

// engine bundles the per-run components built from configuration.
type engine struct {
	cfg    *config.Config
	rules  types.RuleSet
	source inventory.Source
}

func buildEngine(ctx context.Context) (*engine, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	rules, err := cfg.RuleSet()
	if err != nil {
		return nil, err
	}

	source, err := awsprovider.New(ctx, awsprovider.Options{
		Region:      cfg.Region,
		CallTimeout: cfg.CallTimeout,
	})
	if err != nil {
		return nil, err
	}

	return &engine{cfg: cfg, rules: rules, source: source}, nil
}

// scan runs the read path: paginate, evaluate, summarize. On a scan fault
// the partial report is still returned alongside the error so findings so
// far are never thrown away.
func (e *engine) scan(ctx context.Context, resumeToken string) (compliance.Report, error) {
	scanner := inventory.NewScanner(e.source)
	if resumeToken != "" {
		scanner = inventory.ResumeFrom(e.source, resumeToken)
	}

	evaluator := compliance.NewEvaluator(e.rules, e.cfg.ConcurrencyLimit)
	results, err := evaluator.EvaluateScan(ctx, scanner)
	return compliance.Summarize(results), err
}

func printReport(report compliance.Report, asJSON bool) error {
	if asJSON {
		return printJSON(report)
	}

	fmt.Printf("Scanned %d snapshots: %d compliant, %d non-compliant\n\n",
		report.Total, report.CompliantCount, report.NonCompliantCount)

	if len(report.ByViolationKey) > 0 {
		keys := make([]string, 0, len(report.ByViolationKey))
		for key := range report.ByViolationKey {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		fmt.Println("Violations by tag key:")
		for _, key := range keys {
			fmt.Printf("  %-20s %d\n", key, report.ByViolationKey[key])
		}
		fmt.Println()
	}

	if report.NonCompliantCount == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SNAPSHOT\tVIOLATION\tDETAIL")
	for _, result := range report.Results {
		for _, v := range result.Violations {
			detail := "-"
			if v.Reason == types.ReasonInvalidValue {
				detail = fmt.Sprintf("value %q not allowed", v.Value)
			}
			fmt.Fprintf(w, "%s\t%s %s\t%s\n", result.EntityID, v.Reason, v.Key, detail)
		}
	}
	return w.Flush()
}

func printOutcomes(outcomes []types.RemediationOutcome, asJSON bool) error {
	if asJSON {
		return printJSON(outcomes)
	}

	var applied, skipped, failed int
	for _, o := range outcomes {
		switch o.Status {
		case types.StatusApplied:
			applied++
		case types.StatusSkipped:
			skipped++
		case types.StatusFailed:
			failed++
		}
	}
	fmt.Printf("Remediation: %d applied, %d skipped, %d failed (of %d)\n",
		applied, skipped, failed, len(outcomes))

	if failed == 0 {
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SNAPSHOT\tSTATUS\tERROR")
	for _, o := range outcomes {
		if o.Status != types.StatusFailed {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", o.EntityID, o.Status, o.Error)
	}
	return w.Flush()
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// parseTagArgs parses key=value pairs from the command line.
func parseTagArgs(pairs []string) (map[string]string, error) {
	tags := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, found := strings.Cut(pair, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("invalid tag %q (expected key=value)", pair)
		}
		tags[key] = value
	}
	return tags, nil
}
