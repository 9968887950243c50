// Package main provides the ledger server binary: a JSON-RPC HTTP API over
// the monster ledger and marketplace, backed by PostgreSQL with an optional
// Redis packed-trait cache.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/cory-johannsen/menagerie/internal/api"
	"github.com/cory-johannsen/menagerie/internal/config"
	"github.com/cory-johannsen/menagerie/internal/game/collection"
	"github.com/cory-johannsen/menagerie/internal/game/market"
	"github.com/cory-johannsen/menagerie/internal/game/seed"
	"github.com/cory-johannsen/menagerie/internal/observability"
	"github.com/cory-johannsen/menagerie/internal/server"
	"github.com/cory-johannsen/menagerie/internal/storage/postgres"
	"github.com/cory-johannsen/menagerie/internal/storage/rediscache"
)

const (
	healthInterval = 30 * time.Second
	healthTimeout  = 5 * time.Second
)

// loadConfig merges flags, environment, and the YAML file. Flag names double
// as config keys, so --api.port overrides api.port from the file.
func loadConfig() (config.Config, error) {
	pflag.String("config", "configs/dev.yaml", "path to configuration file")
	pflag.String("api.host", "", "override the HTTP bind host")
	pflag.Int("api.port", 0, "override the HTTP bind port")
	pflag.String("logging.level", "", "override the log level")
	pflag.Parse()

	v := viper.New()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		return config.Config{}, fmt.Errorf("binding flags: %w", err)
	}

	v.SetConfigFile(v.GetString("config"))
	v.SetEnvPrefix("MENAGERIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return config.LoadFromViper(v)
}

// newSeedSource builds the source for unseeded mints.
func newSeedSource(kind string, manifest *collection.Manifest) seed.Source {
	if kind == "entropy" {
		return seed.NewEntropySource(manifest.SeedLabel, nil)
	}
	return seed.NewCryptoSource()
}

func main() {
	start := time.Now()

	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env file")
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	logger.Info("starting ledger server",
		zap.String("http_addr", cfg.API.Addr()),
	)

	// Connect to PostgreSQL for ledger and market persistence
	dbStart := time.Now()
	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("connecting to database", zap.Error(err))
	}
	logger.Info("database connected",
		zap.String("host", cfg.Database.Host),
		zap.Duration("elapsed", time.Since(dbStart)),
	)
	monsterRepo := postgres.NewMonsterRepository(pool.DB())
	marketRepo := postgres.NewMarketRepository(pool.DB())

	// Load collection manifests and pick the one this server mints from.
	manifests, err := collection.LoadManifests(cfg.Ledger.CollectionsDir)
	if err != nil {
		logger.Fatal("loading collection manifests", zap.Error(err))
	}
	manifest, err := collection.FindManifest(manifests, cfg.Ledger.Collection)
	if err != nil {
		logger.Fatal("selecting collection", zap.Error(err))
	}
	logger.Info("collection loaded",
		zap.Int("manifests", len(manifests)),
		zap.String("collection", manifest.ID),
		zap.Uint64("max_supply", manifest.MaxSupply),
	)

	// Optional Redis cache for packed trait words.
	var cache *rediscache.Cache
	if cfg.Redis.Enabled {
		cacheStart := time.Now()
		client := rediscache.NewClient(cfg.Redis)
		cache = rediscache.NewCache(client, cfg.Redis.CacheTTL)
		if err := cache.Health(ctx, healthTimeout); err != nil {
			logger.Fatal("connecting to redis", zap.Error(err))
		}
		logger.Info("redis connected",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Duration("ttl", cfg.Redis.CacheTTL),
			zap.Duration("elapsed", time.Since(cacheStart)),
		)
	}
	var packedCache collection.PackedCache
	if cache != nil {
		packedCache = cache
	}

	bus := collection.NewBus()
	src := newSeedSource(cfg.Ledger.SeedSource, manifest)

	ledger := collection.NewService(manifest, monsterRepo, src, packedCache, bus,
		observability.WithComponent(logger, "collection"))

	mkt, err := market.NewService(marketRepo, ledger, cfg.Market.FeeBps,
		observability.WithComponent(logger, "market"))
	if err != nil {
		logger.Fatal("creating market service", zap.Error(err))
	}
	logger.Info("market open", zap.Uint64("fee_bps", cfg.Market.FeeBps))

	// Assemble the HTTP handler: JSON-RPC on /rpc, health on /healthz.
	checks := []api.HealthCheck{{Name: "postgres", Probe: pool.Health}}
	if cache != nil {
		checks = append(checks, api.HealthCheck{Name: "redis", Probe: cache.Health})
	}
	healthHandler := api.NewHealthHandler(healthTimeout,
		observability.WithComponent(logger, "health"), checks...)

	handler, err := api.NewHandler(ledger, mkt, healthHandler,
		observability.WithComponent(logger, "api"))
	if err != nil {
		logger.Fatal("assembling api handler", zap.Error(err))
	}

	httpServer := &http.Server{
		Addr:         cfg.API.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	// Wire lifecycle. Stop order is the reverse of Add order: the HTTP server
	// drains before the bus and stores go away.
	lifecycle := server.NewLifecycle(logger)

	dbHealth := server.NewHealthLoop("postgres", healthInterval, healthTimeout, pool.Health, logger)
	lifecycle.Add("postgres", &server.FuncService{
		StartFn: dbHealth.Start,
		StopFn: func() {
			dbHealth.Stop()
			pool.Close()
		},
	})

	if cache != nil {
		cacheHealth := server.NewHealthLoop("redis", healthInterval, healthTimeout, cache.Health, logger)
		lifecycle.Add("redis", &server.FuncService{
			StartFn: cacheHealth.Start,
			StopFn: func() {
				cacheHealth.Stop()
				if err := cache.Close(); err != nil {
					logger.Warn("closing redis client", zap.Error(err))
				}
			},
		})
	}

	// Drain ledger events into the log until the bus closes.
	_, events := bus.Subscribe(cfg.Ledger.EventBuffer)
	lifecycle.Add("events", &server.FuncService{
		StartFn: func() error {
			for e := range events {
				logger.Info("ledger event",
					zap.String("kind", string(e.Kind)),
					zap.String("event_id", e.ID),
					zap.Uint64("token_id", e.TokenID),
					zap.String("owner", e.Owner),
					zap.String("name", e.Name),
					zap.String("rarity", e.Rarity.String()),
				)
			}
			return nil
		},
		StopFn: bus.Close,
	})

	lifecycle.Add("http", &server.FuncService{
		StartFn: func() error {
			logger.Info("http server listening", zap.String("addr", cfg.API.Addr()))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		StopFn: func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Warn("http shutdown", zap.Error(err))
			}
		},
	})

	logger.Info("ledger server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("http_addr", cfg.API.Addr()),
	)

	if err := lifecycle.Run(ctx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}
