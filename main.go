package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/lakerscorp/courier-sync/internal/config"
	"github.com/lakerscorp/courier-sync/internal/labels"
	"github.com/lakerscorp/courier-sync/internal/sales"
	"github.com/lakerscorp/courier-sync/internal/server"
	"github.com/lakerscorp/courier-sync/internal/store"
	coursync "github.com/lakerscorp/courier-sync/internal/sync"
	"github.com/lakerscorp/courier-sync/internal/telemetry"
	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/spf13/cobra"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "courier-sync",
	Short:   "Courier status synchronization for the retail order database",
	Version: version,
	RunE:    runSync,
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run a full reconciliation pass: create shipments, refresh statuses, print labels",
	RunE:  runSync,
}

var statusCmd = &cobra.Command{
	Use:   "status <tracking-id>",
	Short: "Query one shipment's remote status without persisting anything",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var resyncTerminalCmd = &cobra.Command{
	Use:   "resync-terminal",
	Short: "Backfill delivered flags for orders already persisted as delivered",
	RunE:  runResyncTerminal,
}

var labelsCmd = &cobra.Command{
	Use:   "labels",
	Short: "Dispatch pending shipping labels to the print sink",
	RunE:  runLabels,
}

var salesCmd = &cobra.Command{
	Use:   "sales",
	Short: "Push unsynced sales invoices to the reporting backend",
	RunE:  runSales,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve health and Prometheus metrics over HTTP",
	RunE:  runServe,
}

var courierFlag string

func init() {
	statusCmd.Flags().StringVar(&courierFlag, "courier", "welivery", "courier to query")
	rootCmd.AddCommand(syncCmd, statusCmd, resyncTerminalCmd, labelsCmd, salesCmd, serveCmd)
}

// bootstrap wires config, logging, and tracing for every command.
func bootstrap(ctx context.Context) (*config.Config, *otelzap.Logger, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
		tracerShutdown = func(context.Context) error { return nil }
	}

	cleanup := func() {
		tracerShutdown(ctx)
		logger.Sync()
	}
	return cfg, logger, cleanup, nil
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := initCourierRegistry(cfg, logger)
	metrics := telemetry.NewMetrics()

	logger.Info("Starting reconciliation pass",
		zap.Strings("couriers", registry.Names()),
		zap.String("version", cfg.Version),
	)

	var (
		runErr *multierror.Error
		total  coursync.Stats
	)
	started := time.Now()

	for _, provider := range registry.All() {
		engine := coursync.NewEngine(provider, st, coursync.Config{
			Workers: cfg.SyncWorkers,
		}, logger, metrics)

		stats, err := engine.Run(ctx)
		total.Merge(stats)
		if err != nil {
			runErr = multierror.Append(runErr, fmt.Errorf("%s: %w", provider.Name(), err))
			logger.Error("Reconciliation pass failed for courier",
				zap.String("courier", provider.Name()),
				zap.Error(err),
			)
		}
	}

	if cfg.LabelsEnabled {
		if err := dispatchLabels(ctx, cfg, registry, st, logger, metrics); err != nil {
			runErr = multierror.Append(runErr, err)
		}
	}

	// The summary is reported even when parts of the pass failed.
	logger.Info("Reconciliation pass finished",
		zap.Duration("elapsed", time.Since(started)),
		zap.Int("processed", total.Processed),
		zap.Int("succeeded", total.Succeeded),
		zap.Int("failed", total.Failed),
		zap.Int("skipped", total.Skipped),
		zap.Int("shipments_created", total.ShipmentsCreated),
		zap.Int("delivered_propagated", total.DeliveredPropagated),
	)
	return runErr.ErrorOrNil()
}

func dispatchLabels(ctx context.Context, cfg *config.Config, registry *courier.Registry, st store.RecordStore, logger *otelzap.Logger, metrics *telemetry.Metrics) error {
	sink, err := labels.NewFileSink(cfg.LabelsSpoolDir)
	if err != nil {
		return err
	}

	var dispatchErr *multierror.Error
	for _, provider := range registry.All() {
		dispatcher := labels.NewDispatcher(provider, st, sink, logger, metrics)
		if _, err := dispatcher.Run(ctx); err != nil {
			dispatchErr = multierror.Append(dispatchErr, fmt.Errorf("%s labels: %w", provider.Name(), err))
		}
	}
	return dispatchErr.ErrorOrNil()
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	trackingID := args[0]

	cfg, logger, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := initCourierRegistry(cfg, logger)
	provider, err := registry.Get(courierFlag)
	if err != nil {
		return err
	}

	engine := coursync.NewEngine(provider, st, coursync.Config{}, logger, nil)
	report, err := engine.QueryOne(ctx, trackingID)
	if err != nil {
		return err
	}

	fmt.Printf("tracking:   %s\n", report.TrackingID)
	fmt.Printf("remote:     %s\n", report.RawStatus)
	fmt.Printf("status:     %s (%d)\n", report.StatusText, report.StatusCode)
	fmt.Printf("date:       %s\n", report.StatusDate.Format(time.RFC3339))
	if report.Local != nil {
		fmt.Printf("order:      %s (series %s)\n", report.Local.OrderID, report.Local.TicketSeries)
	} else {
		fmt.Println("order:      not tracked locally")
	}
	return nil
}

func runResyncTerminal(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := initCourierRegistry(cfg, logger)
	metrics := telemetry.NewMetrics()

	var runErr *multierror.Error
	for _, provider := range registry.All() {
		engine := coursync.NewEngine(provider, st, coursync.Config{}, logger, metrics)
		if _, err := engine.ResyncTerminal(ctx); err != nil {
			runErr = multierror.Append(runErr, fmt.Errorf("%s: %w", provider.Name(), err))
		}
	}
	return runErr.ErrorOrNil()
}

func runLabels(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	registry := initCourierRegistry(cfg, logger)
	return dispatchLabels(ctx, cfg, registry, st, logger, telemetry.NewMetrics())
}

func runSales(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if !cfg.ReportingEnabled {
		return fmt.Errorf("sales reporting is disabled, set REPORTING_ENABLED=true")
	}

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client := sales.NewHTTPReportingClient(sales.HTTPReportingClientConfig{
		BaseURL:  cfg.ReportingBaseURL,
		User:     cfg.ReportingUser,
		Password: cfg.ReportingPassword,
	})
	syncer := sales.NewSyncer(sales.NewPostgresSource(st.DB()), client, logger, telemetry.NewMetrics())

	stats, err := syncer.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("Invoice sync summary",
		zap.Int("scanned", stats.Scanned),
		zap.Int("accepted", stats.Accepted),
		zap.Int("rejected", stats.Rejected),
	)
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, logger, cleanup, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info("Starting courier-sync metrics server",
		zap.Int("port", cfg.MetricsPort),
		zap.String("version", cfg.Version),
	)

	srv := server.New(server.Config{Port: cfg.MetricsPort}, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}
