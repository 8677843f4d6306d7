// Package app initializes and holds long-lived application services, acting as a dependency injection container.
package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/JakeFAU/productscraper/internal/api"
	"github.com/JakeFAU/productscraper/internal/cache/memory"
	rediscache "github.com/JakeFAU/productscraper/internal/cache/redis"
	"github.com/JakeFAU/productscraper/internal/clock"
	"github.com/JakeFAU/productscraper/internal/config"
	"github.com/JakeFAU/productscraper/internal/crawler"
	collyfetcher "github.com/JakeFAU/productscraper/internal/fetcher/colly"
	"github.com/JakeFAU/productscraper/internal/logging"
	"github.com/JakeFAU/productscraper/internal/metrics"
	"github.com/JakeFAU/productscraper/internal/parser"
	"github.com/JakeFAU/productscraper/internal/policy/ratelimit"
	"github.com/JakeFAU/productscraper/internal/storage/jsonfile"
	"github.com/JakeFAU/productscraper/internal/storage/postgres"
)

const redisConnectTimeout = 3 * time.Second

// App holds the shared, long-lived services: the fetch cache, the product
// store and the optional Postgres mirror. It is built once at startup.
type App struct {
	cfg    config.Config
	logger *zap.Logger
	cache  crawler.Cache
	redis  *goredis.Client
	store  *jsonfile.Store
	mirror *postgres.Mirror
}

// CrawlOptions override configuration for one crawl.
type CrawlOptions struct {
	// PageCount overrides scraper.page_count when non-nil; 0 means unbounded.
	PageCount *int
	// Proxy overrides scraper.proxy when non-empty.
	Proxy string
}

// Summary reports the outcome of a crawl.
type Summary struct {
	Crawl crawler.Result
	// Stored is false when nothing was scraped and the store was left alone.
	Stored bool
	Write  jsonfile.WriteResult
	Mirror *postgres.MirrorResult
}

// New builds the App. An unreachable Redis degrades to running without a cache.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	logger = logging.OrNop(logger)
	metrics.Init()

	store, err := jsonfile.New(cfg.Store.Path, logger.Named("store"))
	if err != nil {
		return nil, fmt.Errorf("init product store: %w", err)
	}

	a := &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
	a.buildCache(ctx)

	if cfg.Store.PostgresDSN != "" {
		mirror, err := postgres.NewMirror(ctx, postgres.MirrorConfig{
			DSN:   cfg.Store.PostgresDSN,
			Table: cfg.Store.PostgresTable,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init product mirror: %w", err)
		}
		a.mirror = mirror
	}

	logger.Info("application services initialized",
		zap.String("cache_backend", a.cacheBackend()),
		zap.String("store_path", store.Path()),
		zap.Bool("mirror", a.mirror != nil),
	)
	return a, nil
}

func (a *App) buildCache(ctx context.Context) {
	switch a.cfg.Cache.Backend {
	case config.CacheMemory:
		a.cache = memory.New(clock.NewSystem())
	case config.CacheRedis:
		connectCtx, cancel := context.WithTimeout(ctx, redisConnectTimeout)
		defer cancel()
		c, client, err := rediscache.Connect(connectCtx, rediscache.Config{
			Addr:     a.cfg.Cache.Redis.Addr,
			Password: a.cfg.Cache.Redis.Password,
			DB:       a.cfg.Cache.Redis.DB,
		})
		if err != nil {
			a.logger.Warn("redis unavailable; running without fetch cache", zap.Error(err))
			return
		}
		a.cache = c
		a.redis = client
	}
}

func (a *App) cacheBackend() string {
	switch {
	case a.redis != nil:
		return config.CacheRedis
	case a.cache != nil:
		return config.CacheMemory
	default:
		return config.CacheNone
	}
}

// Store exposes the product store.
func (a *App) Store() *jsonfile.Store {
	return a.store
}

// NewDriver assembles the fetch pipeline (cache, retry, throttle, colly) and parser
// into a crawl driver.
func (a *App) NewDriver(opts CrawlOptions) (*crawler.Driver, error) {
	sc := a.cfg.Scraper
	if opts.PageCount != nil {
		sc.PageCount = *opts.PageCount
	}
	if opts.Proxy != "" {
		sc.Proxy = opts.Proxy
	}

	transport, err := collyfetcher.New(collyfetcher.Config{
		UserAgent: sc.UserAgent,
		Timeout:   a.cfg.RequestTimeout(),
		Proxy:     sc.Proxy,
		Token:     sc.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("init fetcher: %w", err)
	}

	var limiter crawler.Limiter
	if sc.RequestsPerSecond > 0 {
		limiter = ratelimit.New(ratelimit.Config{RPS: sc.RequestsPerSecond, Burst: sc.Burst})
	}
	throttled := crawler.NewThrottledFetcher(transport, limiter)

	fetchLogger := a.logger.Named("fetch")
	retrying := crawler.NewRetryingFetcher(throttled, crawler.RetryPolicy{
		MaxAttempts: a.cfg.Retry.MaxAttempts,
		Delay:       a.cfg.RetryDelay(),
	}, fetchLogger)
	fetcher := crawler.NewCachedFetcher(a.cache, retrying, a.cfg.CacheTTL(), fetchLogger)

	driver, err := crawler.NewDriver(crawler.DriverConfig{
		PageURLTemplate: sc.PageURLTemplate,
		PageCount:       sc.PageCount,
	}, fetcher, parser.New(a.logger.Named("parser")), a.logger.Named("crawler"))
	if err != nil {
		return nil, fmt.Errorf("init crawl driver: %w", err)
	}
	return driver, nil
}

// Crawl runs one crawl and persists the result. A crawl that stops on an
// error still persists the records gathered before it.
func (a *App) Crawl(ctx context.Context, opts CrawlOptions) (Summary, error) {
	driver, err := a.NewDriver(opts)
	if err != nil {
		return Summary{}, err
	}

	res := driver.Run(ctx)
	summary := Summary{Crawl: res}
	if res.Err != nil {
		a.logger.Warn("crawl stopped early", zap.String("reason", string(res.Reason)), zap.Error(res.Err))
	}
	if len(res.Products) == 0 {
		return summary, nil
	}

	// Persist even when ctx was canceled mid-crawl.
	writeCtx := context.WithoutCancel(ctx)
	write, err := a.store.WriteAll(writeCtx, res.Products)
	if err != nil {
		return summary, fmt.Errorf("write products: %w", err)
	}
	summary.Stored = true
	summary.Write = write

	if a.mirror != nil {
		summary.Mirror = a.replicate(writeCtx, res)
	}
	return summary, nil
}

func (a *App) replicate(ctx context.Context, res crawler.Result) *postgres.MirrorResult {
	if err := a.mirror.EnsureSchema(ctx); err != nil {
		a.logger.Error("product mirror unavailable", zap.Error(err))
		return nil
	}
	mr, err := a.mirror.Replicate(ctx, res.Products)
	if err != nil {
		a.logger.Error("product mirror replication failed", zap.Error(err))
		return nil
	}
	a.logger.Info("product mirror updated",
		zap.String("crawl_id", mr.CrawlID.String()),
		zap.Int("upserted", mr.Upserted),
		zap.Int("unchanged", mr.Unchanged),
	)
	return &mr
}

// Server builds the read API backed by the product store.
func (a *App) Server() *api.Server {
	var checks []api.ReadinessCheck
	if a.redis != nil {
		client := a.redis
		checks = append(checks, api.ReadinessCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
	}
	return api.NewServer(a.store, checks, a.logger.Named("api"))
}

// Close releases the Redis client and the Postgres pool.
func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("error closing redis client", zap.Error(err))
		}
	}
	a.mirror.Close()
}
