package types

import (
	"errors"
	"reflect"
	"testing"
)

func mustRuleSet(t *testing.T, rules ...TagRule) RuleSet {
	t.Helper()
	rs, err := NewRuleSet(rules...)
	if err != nil {
		t.Fatalf("NewRuleSet failed: %v", err)
	}
	return rs
}

func TestNewRuleSet_Validation(t *testing.T) {
	tests := []struct {
		name  string
		rules []TagRule
	}{
		{"empty key", []TagRule{NewTagRule("")}},
		{"duplicate key", []TagRule{NewTagRule("Environment"), NewTagRule("Environment", "prod")}},
		{"empty allowed set", []TagRule{{Key: "Environment", AllowedValues: map[string]struct{}{}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewRuleSet(tt.rules...)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
		})
	}
}

func TestEvaluate_MissingKey(t *testing.T) {
	rs := mustRuleSet(t, NewTagRule("CostCenter"))

	result := rs.Evaluate(TaggedEntity{ID: "snap-1", Tags: map[string]string{}})

	if result.Compliant {
		t.Error("expected non-compliant")
	}
	if len(result.Violations) != 1 {
		t.Fatalf("expected 1 violation, got %d", len(result.Violations))
	}
	if result.Violations[0].Key != "CostCenter" || result.Violations[0].Reason != ReasonMissingKey {
		t.Errorf("unexpected violation: %+v", result.Violations[0])
	}
}

func TestEvaluate_ValueSetCaseSensitivity(t *testing.T) {
	rs := mustRuleSet(t,
		NewTagRule("Environment", "Production", "dev", "Dev"),
		NewTagRule("CostCenter"),
	)

	tests := []struct {
		name       string
		envValue   string
		violations int
		reason     ViolationReason
	}{
		{"value in set", "Production", 0, ""},
		{"value not in set", "garbage", 1, ReasonInvalidValue},
		{"upper-cased variant not in set", "PRODUCTION", 1, ReasonInvalidValue},
		{"lower-cased variant in set", "dev", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entity := TaggedEntity{
				ID:   "snap-1",
				Tags: map[string]string{"Environment": tt.envValue, "CostCenter": "eng"},
			}
			result := rs.Evaluate(entity)
			if len(result.Violations) != tt.violations {
				t.Fatalf("expected %d violations, got %v", tt.violations, result.Violations)
			}
			if tt.violations == 1 {
				v := result.Violations[0]
				if v.Key != "Environment" || v.Reason != tt.reason {
					t.Errorf("unexpected violation: %+v", v)
				}
				if v.Value != tt.envValue {
					t.Errorf("expected observed value %q, got %q", tt.envValue, v.Value)
				}
			}
		})
	}
}

func TestEvaluate_RuleIndependence(t *testing.T) {
	rs := mustRuleSet(t, NewTagRule("Environment", "prod"), NewTagRule("CostCenter"))

	result := rs.Evaluate(TaggedEntity{ID: "snap-1", Tags: map[string]string{}})

	if len(result.Violations) != 2 {
		t.Fatalf("expected exactly 2 violations, got %v", result.Violations)
	}
	if result.Violations[0].Key != "Environment" || result.Violations[1].Key != "CostCenter" {
		t.Errorf("violations not in rule order: %v", result.Violations)
	}
	for _, v := range result.Violations {
		if v.Reason != ReasonMissingKey {
			t.Errorf("expected missing_key for %s, got %s", v.Key, v.Reason)
		}
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	rs := mustRuleSet(t, NewTagRule("Environment", "prod", "dev"), NewTagRule("CostCenter"))
	entity := TaggedEntity{ID: "snap-1", Tags: map[string]string{"Environment": "staging"}}

	first := rs.Evaluate(entity)
	second := rs.Evaluate(entity)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated evaluation differed:\n%+v\n%+v", first, second)
	}
}

func TestEvaluate_Scenario(t *testing.T) {
	rs := mustRuleSet(t, NewTagRule("Environment", "prod", "dev"), NewTagRule("CostCenter"))

	entities := []TaggedEntity{
		{ID: "A", Tags: map[string]string{}},
		{ID: "B", Tags: map[string]string{"Environment": "prod"}},
		{ID: "C", Tags: map[string]string{"Environment": "prod", "CostCenter": "x"}},
	}

	a := rs.Evaluate(entities[0])
	if a.Compliant || len(a.Violations) != 2 {
		t.Errorf("A: expected 2 violations, got %+v", a)
	}

	b := rs.Evaluate(entities[1])
	if b.Compliant || len(b.Violations) != 1 {
		t.Fatalf("B: expected 1 violation, got %+v", b)
	}
	if b.Violations[0].Key != "CostCenter" || b.Violations[0].Reason != ReasonMissingKey {
		t.Errorf("B: unexpected violation %+v", b.Violations[0])
	}

	c := rs.Evaluate(entities[2])
	if !c.Compliant || len(c.Violations) != 0 {
		t.Errorf("C: expected compliant, got %+v", c)
	}
}

func TestRules_ReturnsCopy(t *testing.T) {
	rs := mustRuleSet(t, NewTagRule("Environment", "prod"))

	rules := rs.Rules()
	rules[0].Key = "mutated"

	if rs.Rules()[0].Key != "Environment" {
		t.Error("RuleSet exposed internal rule slice")
	}
}
