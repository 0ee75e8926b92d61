package container

import (
	"context"
	"fmt"

	"abverdict/adapters/rng"
	"abverdict/adapters/stats/estimators"
	"abverdict/app"
	"abverdict/domain/stats"
	"abverdict/internal"
	"abverdict/internal/api"
	"abverdict/internal/cache"
	"abverdict/internal/config"
	"abverdict/ports"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Estimators
	RNG       ports.RNGPort
	Bootstrap ports.BootstrapPort
	RankTest  ports.RankTestPort

	// Pipeline
	Reports  *cache.Reports
	Analysis *app.AnalysisService

	// HTTP layer, built lazily by APIServer
	server *api.Server
}

// New creates a new dependency injection container
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel))
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		RNG:    rng.NewSeededAdapter(),
	}
	c.Bootstrap = estimators.NewBootstrap(c.RNG, logger)
	c.RankTest = estimators.NewMannWhitney(logger).WithMethod(stats.RankMethodAuto)
	c.Reports = cache.NewReports(cfg.Cache.Entries)
	c.Analysis = app.NewAnalysisService(c.Bootstrap, c.RankTest, c.Reports, cfg.Analysis, logger)

	logger.Debug("container ready: %d iterations, %d workers, cache %d entries",
		cfg.Analysis.Iterations, cfg.Analysis.Workers, cfg.Cache.Entries)
	return c, nil
}

// APIServer returns the HTTP server wired to the analysis service
func (c *Container) APIServer() *api.Server {
	if c.server == nil {
		c.server = api.NewServer(c.Analysis, c.Reports, c.Config.Server, c.Logger)
	}
	return c.server
}

// Shutdown releases resources. Nothing here holds external connections; the cache
// is purged so a reused container starts cold.
func (c *Container) Shutdown(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	st := c.Reports.Stats()
	c.Logger.Debug("shutting down: cache served %d hits, %d misses", st.Hits, st.Misses)
	c.Reports.Purge()
	return nil
}
