package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tagwarden/tagwarden/config"
	"github.com/tagwarden/tagwarden/policy"
	"github.com/tagwarden/tagwarden/types"
)

var policyCheckTags []string

// policyCmd represents the policy command
var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Compile the tag rules into a preventive deny policy",
	Long: `Compile the configured tag rules into a service-control deny
policy: one statement denying snapshot creation with a required tag
absent, one denying creation with a value outside its allowed set.

Attaching the document to an enforcement point is up to you; this
command only produces the artifact. With --check, the same rules are
evaluated offline against a candidate tag set so enforcement can be
validated before anything is published.`,
	Example: `  tagwarden policy                                  # Print the policy JSON
  tagwarden policy --check Environment=prod --check CostCenter=eng
  tagwarden policy --check Environment=garbage      # Shows the denials`,
	RunE: runPolicyCmd,
}

func init() {
	rootCmd.AddCommand(policyCmd)

	policyCmd.Flags().StringArrayVar(&policyCheckTags, "check", nil, "Candidate tag (key=value) to test against the policy; repeatable")
}

func runPolicyCmd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	rules, err := cfg.RuleSet()
	if err != nil {
		return err
	}

	if len(policyCheckTags) > 0 {
		return checkCandidate(ctx, rules, policyCheckTags)
	}

	doc, err := policy.Compile(rules).Render()
	if err != nil {
		return err
	}
	fmt.Println(string(doc))
	return nil
}

func checkCandidate(ctx context.Context, rules types.RuleSet, pairs []string) error {
	tags, err := parseTagArgs(pairs)
	if err != nil {
		return err
	}

	gate, err := policy.NewGate(ctx, rules)
	if err != nil {
		return err
	}

	denies, err := gate.Check(ctx, tags)
	if err != nil {
		return err
	}

	if len(denies) == 0 {
		fmt.Println("Creation would be allowed")
		return nil
	}
	for _, deny := range denies {
		fmt.Printf("deny: %s\n", deny)
	}
	return fmt.Errorf("creation would be denied (%d rules)", len(denies))
}
