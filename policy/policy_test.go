package policy

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tagwarden/tagwarden/types"
)

func testRules(t *testing.T) types.RuleSet {
	t.Helper()
	rules, err := types.NewRuleSet(
		types.NewTagRule("Environment", "prod", "dev", "Dev"),
		types.NewTagRule("CostCenter"),
	)
	require.NoError(t, err)
	return rules
}

func TestCompile_StatementShape(t *testing.T) {
	doc := Compile(testRules(t))

	require.Len(t, doc.Statement, 2)

	missing := doc.Statement[0]
	assert.Equal(t, "DenyMissingRequiredTags", missing.Sid)
	assert.Equal(t, "Deny", missing.Effect)
	nullClauses := missing.Condition["Null"]
	require.Len(t, nullClauses, 1, "one clause per presence-only rule")
	assert.Equal(t, "true", nullClauses["aws:RequestTag/CostCenter"])

	invalid := doc.Statement[1]
	assert.Equal(t, "DenyInvalidTagValues", invalid.Sid)
	assert.Equal(t, "Deny", invalid.Effect)
	neqClauses := invalid.Condition["StringNotEquals"]
	require.Len(t, neqClauses, 1, "one clause per value-restricted rule")
	assert.Equal(t, []string{"Dev", "dev", "prod"}, neqClauses["aws:RequestTag/Environment"])
}

func TestCompile_Deterministic(t *testing.T) {
	first, err := Compile(testRules(t)).Render()
	require.NoError(t, err)
	second, err := Compile(testRules(t)).Render()
	require.NoError(t, err)

	if !bytes.Equal(first, second) {
		t.Errorf("renders differ:\n%s\n---\n%s", first, second)
	}

	// Value construction order must not leak into the document.
	reordered, err := types.NewRuleSet(
		types.NewTagRule("Environment", "Dev", "prod", "dev"),
		types.NewTagRule("CostCenter"),
	)
	require.NoError(t, err)
	third, err := Compile(reordered).Render()
	require.NoError(t, err)
	assert.Equal(t, string(first), string(third))
}

func TestCompile_PresenceOnlyRules(t *testing.T) {
	rules, err := types.NewRuleSet(types.NewTagRule("Owner"), types.NewTagRule("CostCenter"))
	require.NoError(t, err)

	doc := Compile(rules)
	require.Len(t, doc.Statement, 1)
	assert.Equal(t, "DenyMissingRequiredTags", doc.Statement[0].Sid)
	assert.Len(t, doc.Statement[0].Condition["Null"], 2)
}

func TestGate_Check(t *testing.T) {
	ctx := context.Background()
	gate, err := NewGate(ctx, testRules(t))
	require.NoError(t, err)

	tests := []struct {
		name   string
		tags   map[string]string
		denies int
	}{
		{"compliant", map[string]string{"Environment": "prod", "CostCenter": "eng"}, 0},
		{"compliant mixed casing variant", map[string]string{"Environment": "Dev", "CostCenter": "eng"}, 0},
		{"no tags at all", nil, 2},
		{"missing cost center", map[string]string{"Environment": "prod"}, 1},
		{"invalid environment", map[string]string{"Environment": "staging", "CostCenter": "eng"}, 1},
		{"case mismatch is invalid", map[string]string{"Environment": "PROD", "CostCenter": "eng"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			denies, err := gate.Check(ctx, tt.tags)
			require.NoError(t, err)
			assert.Len(t, denies, tt.denies, "denies: %v", denies)
		})
	}
}

func TestGate_RepeatedChecksIdentical(t *testing.T) {
	ctx := context.Background()
	gate, err := NewGate(ctx, testRules(t))
	require.NoError(t, err)

	tags := map[string]string{"Environment": "garbage"}
	first, err := gate.Check(ctx, tags)
	require.NoError(t, err)
	second, err := gate.Check(ctx, tags)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
