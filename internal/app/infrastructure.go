package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/zap"

	"github.com/nagyyasser2/eshop-client-sub000/internal/config"
	"github.com/nagyyasser2/eshop-client-sub000/internal/storage"
	"github.com/nagyyasser2/eshop-client-sub000/pkg/observability"
)

type Infrastructure interface {
	Logger() *zap.Logger
	Store() storage.Store
	MetricsHandler() http.Handler
	MeterProvider() *metric.MeterProvider

	Shutdown(ctx context.Context) error
}

type infrastructure struct {
	logger         *zap.Logger
	store          storage.Store
	redisStore     *storage.RedisStore
	metricsHandler http.Handler
	meterProvider  *metric.MeterProvider
}

var _ Infrastructure = &infrastructure{}

func NewInfrastructure(ctx context.Context, cfg config.Config) (*infrastructure, error) {
	i := &infrastructure{}

	logger, err := observability.InitLogger(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	i.logger = logger

	meterProvider, metricsHandler, err := observability.InitTelemetry("eshop-client")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	i.meterProvider = meterProvider
	i.metricsHandler = metricsHandler

	switch cfg.Store.Backend {
	case "redis":
		rs, err := storage.NewRedisStore(
			cfg.Redis.Address(),
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.Prefix,
			logger,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect storage backend: %w", err)
		}
		i.redisStore = rs
		i.store = rs
	default:
		dir := cfg.Store.Dir
		if dir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to resolve home directory: %w", err)
			}
			dir = filepath.Join(home, ".eshop")
		}
		i.store = storage.NewFileStore(dir, logger)
	}

	return i, nil
}

func (i *infrastructure) Logger() *zap.Logger {
	return i.logger
}

func (i *infrastructure) Store() storage.Store {
	return i.store
}

func (i *infrastructure) MetricsHandler() http.Handler {
	return i.metricsHandler
}

func (i *infrastructure) MeterProvider() *metric.MeterProvider {
	return i.meterProvider
}

func (i *infrastructure) Shutdown(ctx context.Context) error {
	var errs []error

	if i.redisStore != nil {
		errs = append(errs, i.redisStore.Close())
	}
	errs = append(errs, observability.Shutdown(ctx, i.meterProvider, i.logger))

	return errors.Join(errs...)
}
