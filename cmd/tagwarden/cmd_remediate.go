package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tagwarden/tagwarden/remediate"
)

var (
	remediateApply  bool
	remediateVerify bool
	remediateJSON   bool
)

// remediateCmd represents the remediate command
var remediateCmd = &cobra.Command{
	Use:   "remediate",
	Short: "Bulk-apply required tags to non-compliant snapshots",
	Long: `Scan the snapshot inventory, then apply the configured tag set to
every non-compliant snapshot in bounded batches.

Runs dry by default: outcomes are computed but nothing is mutated.
Pass --apply to perform the tagging calls. Tagging is an upsert, so
re-running over already-tagged snapshots is a harmless no-op.`,
	Example: `  tagwarden remediate              # Dry run, show what would change
  tagwarden remediate --apply      # Actually tag the snapshots
  tagwarden remediate --apply --no-verify   # Skip the convergence re-scan`,
	RunE: runRemediateCmd,
}

func init() {
	rootCmd.AddCommand(remediateCmd)

	remediateCmd.Flags().BoolVar(&remediateApply, "apply", false, "Perform mutating calls (default is dry run)")
	remediateCmd.Flags().BoolVar(&remediateVerify, "verify", true, "Re-scan after applying to verify convergence")
	remediateCmd.Flags().BoolVar(&remediateJSON, "json", false, "Emit outcomes as JSON")
}

func runRemediateCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	if len(eng.cfg.ApplyTags) == 0 {
		return fmt.Errorf("apply_tags must be set in %s to remediate", cfgPath)
	}

	report, err := eng.scan(ctx, "")
	if err != nil {
		return fmt.Errorf("compliance scan failed: %w", err)
	}

	ids := report.NonCompliantIDs()
	if len(ids) == 0 {
		fmt.Printf("All %d snapshots are compliant, nothing to do\n", report.Total)
		return nil
	}
	fmt.Printf("Found %d non-compliant snapshots of %d\n", len(ids), report.Total)

	opts := eng.cfg.RemediateOptions()
	// The config can force dry-run; --apply can only lift the CLI default.
	opts.DryRun = opts.DryRun || !remediateApply

	remediator, err := remediate.NewRemediator(eng.source, opts)
	if err != nil {
		return err
	}

	outcomes, runErr := remediator.Remediate(ctx, ids, eng.cfg.ApplyTags)
	if err := printOutcomes(outcomes, remediateJSON); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}

	if opts.DryRun {
		fmt.Println("\nDry run: no tags were applied. Re-run with --apply to remediate.")
		return nil
	}

	if remediateVerify {
		verified, err := eng.scan(ctx, "")
		if err != nil {
			return fmt.Errorf("verification scan failed: %w", err)
		}
		fmt.Printf("\nAfter remediation: %d compliant, %d non-compliant\n",
			verified.CompliantCount, verified.NonCompliantCount)
	}
	return nil
}
