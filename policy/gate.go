package policy

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/tagwarden/tagwarden/types"
)

// Gate is the executable form of the preventive policy: the same rule set
// compiled to Rego, evaluated offline against candidate tag sets. It lets
// enforcement be validated before a document is published anywhere.
type Gate struct {
	prepared rego.PreparedEvalQuery
}

// NewGate compiles the rule set into a Rego module and prepares it for
// evaluation.
func NewGate(ctx context.Context, rules types.RuleSet) (*Gate, error) {
	module := regoModule(rules)

	prepared, err := rego.New(
		rego.Query("data.tagwarden.deny"),
		rego.Module("tagwarden_gate.rego", module),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile gate policy: %w", err)
	}

	return &Gate{prepared: prepared}, nil
}

// Check evaluates a candidate tag set. An empty deny list means creation
// would be allowed under the compiled policy.
func (g *Gate) Check(ctx context.Context, tags map[string]string) ([]string, error) {
	if tags == nil {
		tags = map[string]string{}
	}

	rs, err := g.prepared.Eval(ctx, rego.EvalInput(map[string]any{"tags": tags}))
	if err != nil {
		return nil, fmt.Errorf("gate evaluation failed: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	raw, ok := rs[0].Expressions[0].Value.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected gate result type %T", rs[0].Expressions[0].Value)
	}

	denies := make([]string, 0, len(raw))
	for _, item := range raw {
		msg, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected deny entry type %T", item)
		}
		denies = append(denies, msg)
	}
	sort.Strings(denies)
	return denies, nil
}

// regoModule renders the rule set as a Rego module. Keys and values are
// emitted sorted so the module text is deterministic.
func regoModule(rules types.RuleSet) string {
	var presence []string
	restricted := make(map[string][]string)

	for _, rule := range rules.Rules() {
		if rule.PresenceOnly() {
			presence = append(presence, rule.Key)
			continue
		}
		restricted[rule.Key] = sortedValues(rule.AllowedValues)
	}
	sort.Strings(presence)

	restrictedKeys := make([]string, 0, len(restricted))
	for key := range restricted {
		restrictedKeys = append(restrictedKeys, key)
	}
	sort.Strings(restrictedKeys)

	var b strings.Builder
	b.WriteString("package tagwarden\n\nimport rego.v1\n\n")

	if len(presence) == 0 {
		b.WriteString("required := set()\n\n")
	} else {
		quoted := make([]string, len(presence))
		for i, key := range presence {
			quoted[i] = strconv.Quote(key)
		}
		fmt.Fprintf(&b, "required := {%s}\n\n", strings.Join(quoted, ", "))
	}

	b.WriteString("allowed := {")
	for i, key := range restrictedKeys {
		if i > 0 {
			b.WriteString(", ")
		}
		quoted := make([]string, len(restricted[key]))
		for j, v := range restricted[key] {
			quoted[j] = strconv.Quote(v)
		}
		fmt.Fprintf(&b, "%s: {%s}", strconv.Quote(key), strings.Join(quoted, ", "))
	}
	b.WriteString("}\n\n")

	b.WriteString(`deny contains msg if {
	some key in required
	not input.tags[key]
	msg := sprintf("missing required tag %q", [key])
}

deny contains msg if {
	some key in object.keys(allowed)
	not input.tags[key]
	msg := sprintf("missing required tag %q", [key])
}

deny contains msg if {
	some key, values in allowed
	value := input.tags[key]
	not value in values
	msg := sprintf("tag %q has value %q outside the allowed set", [key, value])
}
`)

	return b.String()
}
