package main

import (
	"context"
	"errors"
	"net/http"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/tagwarden/tagwarden/remediate"
	"github.com/tagwarden/tagwarden/telemetry"
)

var (
	sweepInterval    time.Duration
	sweepMetricsAddr string
	sweepRemediate   bool
)

// sweepCmd represents the sweep command
var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run compliance scans on an interval with metrics",
	Long: `Run the compliance scan continuously on an interval and expose
sweep metrics on a Prometheus endpoint.

Each sweep is the same batch scan the scan command runs; with
--remediate the configured tag set is also applied to non-compliant
snapshots (honoring dry_run from the config).`,
	Example: `  tagwarden sweep                            # Hourly sweeps, metrics on :9090
  tagwarden sweep --interval 15m             # Sweep every 15 minutes
  tagwarden sweep --remediate                # Also remediate each sweep`,
	RunE: runSweepCmd,
}

func init() {
	rootCmd.AddCommand(sweepCmd)

	sweepCmd.Flags().DurationVar(&sweepInterval, "interval", time.Hour, "Time between sweeps")
	sweepCmd.Flags().StringVar(&sweepMetricsAddr, "metrics", ":9090", "Metrics server address")
	sweepCmd.Flags().BoolVar(&sweepRemediate, "remediate", false, "Remediate non-compliant snapshots each sweep")
}

func runSweepCmd(cmd *cobra.Command, args []string) error {
	promExporter, err := otelprom.New()
	if err != nil {
		return err
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(promExporter))
	otel.SetMeterProvider(provider)

	metrics, err := telemetry.NewSweepMetrics()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: sweepMetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	var g run.Group
	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))
	g.Add(func() error {
		log.Info().Str("addr", sweepMetricsAddr).Msg("starting metrics server")
		return srv.ListenAndServe()
	}, func(error) {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	})
	g.Add(func() error {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()

		sweepOnce(ctx, eng, metrics)
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				sweepOnce(ctx, eng, metrics)
			}
		}
	}, func(error) {
		cancel()
	})

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) || errors.Is(err, context.Canceled) {
		log.Info().Msg("sweep stopped")
		return nil
	}
	return err
}

// sweepOnce runs one full sweep: scan, record metrics, optionally
// remediate. Failures are logged and counted, never fatal to the loop.
func sweepOnce(ctx context.Context, eng *engine, metrics *telemetry.SweepMetrics) {
	start := time.Now()

	report, err := eng.scan(ctx, "")
	status := "success"
	if err != nil {
		status = "failed"
		log.Error().Err(err).Msg("sweep scan failed")
	}

	metrics.RecordEntitiesScanned(ctx, int64(report.Total), eng.cfg.Region)
	for key, count := range report.ByViolationKey {
		metrics.RecordViolations(ctx, key, int64(count))
	}

	if sweepRemediate && err == nil && report.NonCompliantCount > 0 && len(eng.cfg.ApplyTags) > 0 {
		remediator, rerr := remediate.NewRemediator(eng.source, eng.cfg.RemediateOptions())
		if rerr != nil {
			log.Error().Err(rerr).Msg("failed to build remediator")
		} else {
			outcomes, rerr := remediator.Remediate(ctx, report.NonCompliantIDs(), eng.cfg.ApplyTags)
			if rerr != nil {
				log.Error().Err(rerr).Msg("remediation interrupted")
			}
			for _, o := range outcomes {
				metrics.RecordRemediation(ctx, string(o.Status))
			}
		}
	}

	metrics.RecordSweepDuration(ctx, time.Since(start).Seconds(), status)
	log.Info().
		Int("total", report.Total).
		Int("non_compliant", report.NonCompliantCount).
		Dur("elapsed", time.Since(start)).
		Str("status", status).
		Msg("sweep complete")
}
