package main

import (
	"context"

	"github.com/lakerscorp/courier-sync/internal/config"
	"github.com/lakerscorp/courier-sync/internal/store"
	"github.com/lakerscorp/courier-sync/internal/telemetry"
	"github.com/lakerscorp/courier-sync/pkg/courier"
	"github.com/lakerscorp/courier-sync/pkg/courier/andreani"
	"github.com/lakerscorp/courier-sync/pkg/courier/welivery"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

func initCourierRegistry(cfg *config.Config, logger *otelzap.Logger) *courier.Registry {
	registry := courier.NewRegistry()

	if cfg.WeliveryEnabled {
		registry.Register(welivery.New(welivery.Config{
			BaseURL:  cfg.WeliveryBaseURL,
			User:     cfg.WeliveryUser,
			Password: cfg.WeliveryPassword,
			UseMock:  cfg.WeliveryUseMock,
		}, logger))
	}

	if cfg.AndreaniEnabled {
		registry.Register(andreani.New(andreani.Config{
			BaseURL:  cfg.AndreaniBaseURL,
			User:     cfg.AndreaniUser,
			Password: cfg.AndreaniPassword,
			Contract: cfg.AndreaniContract,
			UseMock:  cfg.AndreaniUseMock,
		}, logger))
	}

	return registry
}

func openStore(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (*store.Postgres, error) {
	st, err := store.Open(ctx, store.Config{
		DatabaseURL:  cfg.DatabaseURL,
		TicketSeries: cfg.SyncTicketSeries,
		Retry: store.RetryPolicy{
			Attempts: cfg.SyncRetries,
			Step:     cfg.SyncRetryStep,
		},
	}, logger)
	if err != nil {
		return nil, err
	}

	if cfg.MigrateOnStart {
		if err := store.Migrate(st.DB()); err != nil {
			st.Close()
			return nil, err
		}
	}
	return st, nil
}
