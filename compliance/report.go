package compliance

import (
	"github.com/tagwarden/tagwarden/types"
)

// Report aggregates one evaluation pass for human consumption.
type Report struct {
	Total             int                      `json:"total"`
	CompliantCount    int                      `json:"compliant_count"`
	NonCompliantCount int                      `json:"non_compliant_count"`
	ByViolationKey    map[string]int           `json:"by_violation_key"`
	Results           []types.ComplianceResult `json:"results"`
}

// Summarize folds evaluation results into a report. It is the single
// writer of the aggregate counters; parallel evaluation never increments
// them concurrently.
func Summarize(results []types.ComplianceResult) Report {
	report := Report{
		Total:          len(results),
		ByViolationKey: make(map[string]int),
		Results:        results,
	}

	for _, result := range results {
		if result.Compliant {
			report.CompliantCount++
			continue
		}
		report.NonCompliantCount++
		for _, v := range result.Violations {
			report.ByViolationKey[v.Key]++
		}
	}

	return report
}

// NonCompliantIDs returns the ids needing remediation, in result order.
func (r Report) NonCompliantIDs() []string {
	var ids []string
	for _, result := range r.Results {
		if !result.Compliant {
			ids = append(ids, result.EntityID)
		}
	}
	return ids
}
