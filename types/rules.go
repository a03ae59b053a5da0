package types

import "fmt"

// ViolationReason classifies why a rule failed for an entity.
type ViolationReason string

const (
	ReasonMissingKey   ViolationReason = "missing_key"
	ReasonInvalidValue ViolationReason = "invalid_value"
)

// Violation records a single failed rule.
type Violation struct {
	Key    string          `json:"key"`
	Reason ViolationReason `json:"reason"`
	Value  string          `json:"value,omitempty"` // observed value, only for invalid_value
}

// ComplianceResult is the verdict for one entity in one evaluation pass.
// Results are produced fresh each run and never persisted.
type ComplianceResult struct {
	EntityID   string      `json:"entity_id"`
	Compliant  bool        `json:"compliant"`
	Violations []Violation `json:"violations,omitempty"`
}

// TagRule requires a tag key to be present. A nil AllowedValues accepts any
// value once the key exists; a non-nil set additionally requires exact
// membership. Keys and values compare case-sensitively - a set that wants
// both "dev" and "Dev" must list both.
type TagRule struct {
	Key           string
	AllowedValues map[string]struct{}
}

// NewTagRule builds a rule. With no allowed values the rule is
// presence-only.
func NewTagRule(key string, allowed ...string) TagRule {
	rule := TagRule{Key: key}
	if len(allowed) > 0 {
		rule.AllowedValues = make(map[string]struct{}, len(allowed))
		for _, v := range allowed {
			rule.AllowedValues[v] = struct{}{}
		}
	}
	return rule
}

// PresenceOnly reports whether the rule checks only that the key exists.
func (r TagRule) PresenceOnly() bool {
	return r.AllowedValues == nil
}

// ValidationError reports a malformed rule set. It is fatal at
// construction time and never reaches a scan.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "invalid rule set: " + e.Msg
}

// RuleSet is an ordered, immutable sequence of rules, shared read-only
// across every scan in a run.
type RuleSet struct {
	rules []TagRule
}

// NewRuleSet validates and freezes the rules. Empty keys, duplicate keys,
// and non-nil empty value sets are construction errors.
func NewRuleSet(rules ...TagRule) (RuleSet, error) {
	seen := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		if r.Key == "" {
			return RuleSet{}, &ValidationError{Msg: fmt.Sprintf("rule %d has empty key", i)}
		}
		if _, dup := seen[r.Key]; dup {
			return RuleSet{}, &ValidationError{Msg: fmt.Sprintf("duplicate rule for key %q", r.Key)}
		}
		if r.AllowedValues != nil && len(r.AllowedValues) == 0 {
			return RuleSet{}, &ValidationError{Msg: fmt.Sprintf("rule %q has an empty allowed-value set", r.Key)}
		}
		seen[r.Key] = struct{}{}
	}

	frozen := make([]TagRule, len(rules))
	copy(frozen, rules)
	return RuleSet{rules: frozen}, nil
}

// Rules returns the rules in declaration order.
func (rs RuleSet) Rules() []TagRule {
	out := make([]TagRule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// Len returns the number of rules.
func (rs RuleSet) Len() int {
	return len(rs.rules)
}

// Evaluate applies every rule in order and collects all violations rather
// than short-circuiting, so a single bad entity surfaces every defect at
// once. Pure and deterministic: identical input always yields identical
// output.
func (rs RuleSet) Evaluate(e TaggedEntity) ComplianceResult {
	result := ComplianceResult{EntityID: e.ID}

	for _, rule := range rs.rules {
		value, present := e.Tags[rule.Key]
		if !present {
			result.Violations = append(result.Violations, Violation{
				Key:    rule.Key,
				Reason: ReasonMissingKey,
			})
			continue
		}
		if rule.AllowedValues == nil {
			continue
		}
		if _, ok := rule.AllowedValues[value]; !ok {
			result.Violations = append(result.Violations, Violation{
				Key:    rule.Key,
				Reason: ReasonInvalidValue,
				Value:  value,
			})
		}
	}

	result.Compliant = len(result.Violations) == 0
	return result
}
