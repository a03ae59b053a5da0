package policy

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/tagwarden/tagwarden/types"
)

const (
	documentVersion = "2012-10-17"

	sidMissingTags   = "DenyMissingRequiredTags"
	sidInvalidValues = "DenyInvalidTagValues"

	requestTagPrefix = "aws:RequestTag/"
)

// creation actions gated by the preventive policy.
var denyActions = []string{"ec2:CreateSnapshot", "ec2:CreateSnapshots"}

var denyResources = []string{"arn:aws:ec2:*::snapshot/*"}

// Document is the preventive enforcement artifact: a deterministic
// deny-statement pair derived from a rule set. Stateless and regenerable;
// it has no identity beyond its content.
type Document struct {
	Version   string      `json:"Version"`
	Statement []Statement `json:"Statement"`
}

// Statement is one deny statement of the document.
type Statement struct {
	Sid       string                    `json:"Sid"`
	Effect    string                    `json:"Effect"`
	Action    []string                  `json:"Action"`
	Resource  []string                  `json:"Resource"`
	Condition map[string]map[string]any `json:"Condition"`
}

// Compile renders a rule set into the deny-policy document. Presence-only
// rules become Null clauses in the missing-tag statement; value-restricted
// rules become StringNotEquals clauses in the invalid-value statement.
// StringNotEquals also denies when the key is absent, so value-restricted
// keys need no Null clause. Pure and deterministic: repeated compiles of
// the same rule set are byte-identical once rendered.
func Compile(rules types.RuleSet) Document {
	missing := make(map[string]any)
	invalid := make(map[string]any)

	for _, rule := range rules.Rules() {
		conditionKey := requestTagPrefix + rule.Key
		if rule.PresenceOnly() {
			missing[conditionKey] = "true"
			continue
		}
		invalid[conditionKey] = sortedValues(rule.AllowedValues)
	}

	doc := Document{Version: documentVersion}

	if len(missing) > 0 {
		doc.Statement = append(doc.Statement, Statement{
			Sid:       sidMissingTags,
			Effect:    "Deny",
			Action:    denyActions,
			Resource:  denyResources,
			Condition: map[string]map[string]any{"Null": missing},
		})
	}
	if len(invalid) > 0 {
		doc.Statement = append(doc.Statement, Statement{
			Sid:       sidInvalidValues,
			Effect:    "Deny",
			Action:    denyActions,
			Resource:  denyResources,
			Condition: map[string]map[string]any{"StringNotEquals": invalid},
		})
	}

	return doc
}

// Render serializes the document as indented JSON. Map keys marshal in
// sorted order, so output is deterministic.
func (d Document) Render() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to render policy document: %w", err)
	}
	return data, nil
}

func sortedValues(set map[string]struct{}) []string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
