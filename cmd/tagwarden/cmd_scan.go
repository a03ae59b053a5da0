package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tagwarden/tagwarden/inventory"
)

var (
	scanResumeToken string
	scanJSON        bool
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan snapshots and report tag compliance",
	Long: `Scan the EBS snapshot inventory and evaluate every snapshot
against the configured tag rules.

The scan is read-only. A paging fault aborts with a resume token so a
large inventory never has to be re-read from the start.`,
	Example: `  tagwarden scan                       # Full compliance scan
  tagwarden scan --json                # Machine-readable report
  tagwarden scan --resume <token>      # Continue an interrupted scan`,
	RunE: runScanCmd,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanResumeToken, "resume", "", "Resume an interrupted scan from this page token")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Emit the report as JSON")
}

func runScanCmd(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}

	report, scanErr := eng.scan(ctx, scanResumeToken)
	if err := printReport(report, scanJSON); err != nil {
		return err
	}

	var failed *inventory.ScanFailed
	if errors.As(scanErr, &failed) {
		fmt.Printf("\nScan interrupted. Resume with: tagwarden scan --resume %s\n", failed.ResumeToken)
	}
	return scanErr
}
