// Package bootstrap wires the scheduler's runtime dependencies from config.
package bootstrap

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/clinic-scheduler/internal/appointments"
	"github.com/wolfman30/clinic-scheduler/internal/calendar"
	"github.com/wolfman30/clinic-scheduler/internal/clinicapi"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/internal/directory"
	"github.com/wolfman30/clinic-scheduler/internal/observability/metrics"
	"github.com/wolfman30/clinic-scheduler/internal/scheduling"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, directory cache disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildAppointmentsRepository returns the Postgres store when DATABASE_URL is
// set, else an in-memory one. The returned close func is never nil.
func BuildAppointmentsRepository(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (appointments.Repository, func(), error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		logger.Warn("DATABASE_URL not set, canonical appointments kept in memory")
		return appointments.NewInMemoryRepository(), func() {}, nil
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return appointments.NewPostgresRepository(pool), pool.Close, nil
}

// SchedulingDeps are the shared collaborators of every clinic's manager.
type SchedulingDeps struct {
	Backend   scheduling.Backend
	Directory directory.Source
	Metrics   *metrics.SchedulingMetrics
	Logger    *logging.Logger
}

// BuildSchedulingDeps builds the backend and directory clients, caching the
// directory in Redis when a client is given.
func BuildSchedulingDeps(cfg *appconfig.Config, redisClient *redis.Client, m *metrics.SchedulingMetrics, logger *logging.Logger) (SchedulingDeps, error) {
	if cfg == nil {
		return SchedulingDeps{}, fmt.Errorf("bootstrap: config is required")
	}
	if strings.TrimSpace(cfg.BackendBaseURL) == "" {
		return SchedulingDeps{}, fmt.Errorf("bootstrap: BACKEND_BASE_URL is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	resolver := clinicapi.NewResolver(clinicapi.NewHTTPClient(cfg.BackendTimeout), m, logger)
	backend := clinicapi.NewAppointmentsClient(cfg.BackendBaseURL, cfg.BackendAPIPrefix, resolver, logger)

	var source directory.Source = clinicapi.NewDirectoryClient(cfg.BackendBaseURL, cfg.BackendAPIPrefix, resolver)
	if redisClient != nil {
		source = directory.NewCachedSource(source, redisClient, cfg.DirectoryCacheTTL, logger)
	}

	return SchedulingDeps{Backend: backend, Directory: source, Metrics: m, Logger: logger}, nil
}

// BuildRegistry returns the per-clinic manager registry.
func BuildRegistry(cfg *appconfig.Config, deps SchedulingDeps) (*scheduling.Registry, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	policy, err := calendar.ParseEndPolicy(cfg.CalendarMissingEndPolicy)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: CALENDAR_MISSING_END_POLICY: %w", err)
	}
	opts := scheduling.Options{Location: loc, EndPolicy: policy}
	return scheduling.NewRegistry(func(clinicID int64) *scheduling.Manager {
		return scheduling.NewManager(clinicID, deps.Backend, deps.Directory, deps.Metrics, deps.Logger, opts)
	}), nil
}
