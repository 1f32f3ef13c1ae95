package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"vankino/internal/cache"
	"vankino/internal/civildate"
	"vankino/internal/config"
	"vankino/internal/httpapi"
	"vankino/internal/metrics"
	"vankino/internal/publisher"
	"vankino/internal/scheduler"
	"vankino/internal/service"
	"vankino/internal/storage/memory"
	"vankino/internal/storage/postgres"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the listings HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to config file"},
		},
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")

			cfg, err := config.Load(c.String("config"))
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger = setupLogger(cfg.LogLevel)

			cal, err := civildate.New(cfg.Listings.Timezone)
			if err != nil {
				return err
			}

			var (
				hypeStore  service.HypeStore
				stateStore service.VenueStateStore = memory.NewVenueStateStore()
				txManager  service.TransactionManager
			)
			if cfg.Database.Enabled() {
				db, err := sqlx.Connect("postgres", cfg.Database.DSN())
				if err != nil {
					return fmt.Errorf("connect to database: %w", err)
				}
				defer db.Close()

				if err := db.Ping(); err != nil {
					return fmt.Errorf("ping database: %w", err)
				}
				logger.Info("connected to database")

				hypeStore = postgres.NewHypeStore(db)
				stateStore = postgres.NewVenueStateStore(db)
				txManager = postgres.NewTransactionManager(db)
			} else {
				logger.Warn("no database configured, hype counts are kept in memory")
			}

			var listingCache service.ListingCache
			if !cfg.Cache.Disabled {
				var store cache.Store = cache.NewMemoryStore()
				if cfg.Redis.URL != "" {
					rs, err := cache.NewRedisStore(cfg.Redis.URL)
					if err != nil {
						logger.Warn("redis unavailable, using in-process cache", "error", err)
					} else {
						defer rs.Close()
						store = rs
						logger.Info("connected to redis")
					}
				}
				listingCache = cache.NewListingCache(store, cfg.Cache.TTL, logger)
			}

			var pub service.Publisher
			if cfg.RabbitMQ.Enabled() {
				rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
					URL:        cfg.RabbitMQ.URL,
					Exchange:   cfg.RabbitMQ.Exchange,
					RoutingKey: cfg.RabbitMQ.RoutingKey,
					QueueName:  cfg.RabbitMQ.QueueName,
				}, logger)
				if err != nil {
					return fmt.Errorf("connect to rabbitmq: %w", err)
				}
				defer rabbitMQ.Close()
				pub = rabbitMQ
			}

			sources, err := buildSources(cfg, cal, logger)
			if err != nil {
				return err
			}

			listings := service.NewListingService(
				sources,
				listingCache,
				stateStore,
				txManager,
				pub,
				cal,
				logger,
				cfg.Listings,
			)
			hype := service.NewHypeService(hypeStore, memory.NewHypeStore(), pub, logger)

			cacheTTL := cfg.Cache.TTL
			if cfg.Cache.Disabled {
				cacheTTL = 0
			}
			handler := httpapi.NewHandler(listings, hype, cacheTTL, logger)
			srv := &http.Server{
				Addr: cfg.Server.Addr,
				Handler: httpapi.NewRouter(handler, httpapi.RouterConfig{
					HypeRateLimit:  cfg.Server.HypeRateLimit,
					MetricsHandler: metrics.Handler(),
				}, logger),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}

			ctx, cancel := context.WithCancel(c.Context)
			defer cancel()

			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				sig := <-sigCh
				logger.Info("received shutdown signal", "signal", sig)
				cancel()
			}()

			g, gctx := errgroup.WithContext(ctx)

			g.Go(func() error {
				logger.Info("starting http server", "addr", cfg.Server.Addr, "sources", len(sources))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("http server: %w", err)
				}
				return nil
			})

			g.Go(func() error {
				<-gctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if cfg.Warmup.Schedule != "" {
				sched, err := scheduler.NewScheduler(listings, cal, cfg.Warmup.Schedule, cfg.Warmup.Days, logger)
				if err != nil {
					return err
				}
				g.Go(func() error {
					if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
						return err
					}
					return nil
				})
			}

			if err := g.Wait(); err != nil {
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
}
