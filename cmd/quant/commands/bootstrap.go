package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wonny/premarket-signals/internal/brain"
	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/internal/marketdata"
	"github.com/wonny/premarket-signals/internal/risk"
	"github.com/wonny/premarket-signals/internal/service"
	"github.com/wonny/premarket-signals/internal/store"
	"github.com/wonny/premarket-signals/internal/strategyconfig"
	"github.com/wonny/premarket-signals/pkg/config"
	"github.com/wonny/premarket-signals/pkg/database"
	"github.com/wonny/premarket-signals/pkg/httputil"
	"github.com/wonny/premarket-signals/pkg/logger"
	"github.com/wonny/premarket-signals/pkg/redis"
)

// riskFlags selects the risk configuration for a command
type riskFlags struct {
	preset       string
	strategyFile string
}

// resolveRisk picks the risk config: --strategy file, then STRATEGY_FILE, then --preset
func resolveRisk(cfg *config.Config, flags riskFlags) (strategyconfig.RiskConfig, error) {
	path := flags.strategyFile
	if path == "" {
		path = cfg.Engine.StrategyFile
	}

	if path != "" {
		sc, _, err := strategyconfig.Load(path)
		if err != nil {
			return strategyconfig.RiskConfig{}, fmt.Errorf("load strategy %s: %w", path, err)
		}
		return sc.Risk, nil
	}

	return strategyconfig.Preset(flags.preset)
}

// loadConfig loads env config and applies global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, nil
}

// newLogger builds the logger; w overrides stdout (nil keeps the config's output)
func newLogger(cfg *config.Config, w io.Writer) *logger.Logger {
	if w != nil {
		return logger.NewWithWriter(w, cfg.LogLevel)
	}
	return logger.New(cfg)
}

// appOptions tunes what the app wires up
type appOptions struct {
	risk          strategyconfig.RiskConfig
	snapshotsFile string // use FileProvider instead of Yahoo
	persist       bool   // connect DB/Redis when configured
	publishers    []contracts.ResultPublisher
}

// app holds the wired collaborators of one process
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *database.DB // nil when not configured
	redis   *redis.Client
	cache   *redis.Cache
	repo    *store.RunRepository // nil when no DB
	service *service.ScanService
}

// newApp wires providers, engine and persistence for one process
func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, opts appOptions) (*app, error) {
	a := &app{
		cfg:   cfg,
		log:   log,
		redis: redis.Disabled(),
	}

	var svcOpts []service.Option

	if opts.persist {
		db, err := database.New(ctx, cfg)
		switch {
		case errors.Is(err, database.ErrNotConfigured):
			log.Info("DATABASE_URL not set, runs are not persisted")
		case err != nil:
			return nil, fmt.Errorf("connect to database: %w", err)
		default:
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
			a.db = db
			a.repo = store.NewRunRepository(db.Pool)
			svcOpts = append(svcOpts, service.WithRepository(a.repo))
			log.Info("Connected to database")
		}

		rc, err := redis.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = rc
	}
	a.cache = redis.NewCache(a.redis, "premarket")

	if a.redis.Enabled() {
		svcOpts = append(svcOpts, service.WithPublishers(store.NewResultCache(a.cache)))
	}
	svcOpts = append(svcOpts, service.WithPublishers(opts.publishers...))

	httpClient := httputil.NewWithTimeout(log, cfg.Yahoo.Timeout).
		WithRetry(2, 500*time.Millisecond).
		WithRateLimit(cfg.Yahoo.RequestsPerSecond, cfg.Yahoo.MaxConcurrent).
		WithCircuitBreaker(httputil.BreakerConfig{
			Name:                "yahoo",
			ConsecutiveFailures: 10,
			OpenTimeout:         30 * time.Second,
		})

	var provider contracts.SnapshotProvider
	if opts.snapshotsFile != "" {
		provider = marketdata.NewFileProvider(opts.snapshotsFile, log)
	} else {
		provider = marketdata.NewYahooProvider(httpClient, cfg.Yahoo.BaseURL, cfg.Yahoo.MaxConcurrent, log)
	}

	universe := newUniverse(cfg, httpClient, a.cache, log, opts.snapshotsFile != "")

	engine := brain.NewEngine(
		risk.SizingContext{AccountValue: cfg.Engine.AccountValue},
		log,
		brain.WithWorkers(cfg.Engine.Workers),
	)

	for _, w := range strategyconfig.Warn(opts.risk) {
		log.WithField("code", w.Code).Warn(w.Message)
	}

	svc, err := service.NewScanService(universe, provider, engine, opts.risk, log, svcOpts...)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.service = svc

	return a, nil
}

// newUniverse builds the symbol source. Snapshot files carry their own universe.
func newUniverse(cfg *config.Config, client *httputil.Client, cache *redis.Cache, log *logger.Logger, fromFile bool) contracts.UniverseSource {
	if fromFile {
		return fileUniverse{}
	}
	return marketdata.NewUniverse(marketdata.UniverseConfig{
		Source:      cfg.Engine.UniverseSource,
		Watchlist:   cfg.Engine.Watchlist,
		MaxSymbols:  cfg.Engine.MaxStocksToAnalyze,
		ScreenerURL: cfg.Yahoo.ScreenerURL,
	}, client, cache, log)
}

// fileUniverse returns no symbols so FileProvider keeps every snapshot in the file
type fileUniverse struct{}

func (fileUniverse) Symbols(context.Context) ([]string, error) { return nil, nil }

// Close releases database and redis connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
