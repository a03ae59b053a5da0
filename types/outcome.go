package types

// RemediationStatus tracks what happened to one entity in a remediation run.
type RemediationStatus string

const (
	StatusApplied RemediationStatus = "applied"
	StatusSkipped RemediationStatus = "skipped"
	StatusFailed  RemediationStatus = "failed"
)

// RemediationOutcome is the authoritative record of a single entity's fate
// in a single remediation attempt.
type RemediationOutcome struct {
	EntityID   string            `json:"entity_id"`
	Status     RemediationStatus `json:"status"`
	Error      string            `json:"error,omitempty"`
	SkipReason string            `json:"skip_reason,omitempty"`
}
