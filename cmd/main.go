package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/staff-auth/config"
	"github.com/oksasatya/staff-auth/internal/container"
	"github.com/oksasatya/staff-auth/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/staff-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/staff-auth/internal/infrastructure/search"
	"github.com/oksasatya/staff-auth/internal/router"
	"github.com/oksasatya/staff-auth/pkg/helpers"
	"github.com/oksasatya/staff-auth/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env, cfg.LogLevel)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	c := container.New(cfg, logger)
	defer c.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Serve /health while dependencies come up.
	var current atomic.Pointer[gin.Engine]
	current.Store(router.NewStartupEngine(c))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { current.Load().ServeHTTP(w, r) }),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("service", cfg.ServiceName).Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	if err := initStore(ctx, c); err != nil {
		logger.WithError(err).Fatal("credential store unavailable")
	}
	initCache(ctx, c)
	initSearch(ctx, c)
	initNotifier(c)

	current.Store(router.NewEngine(c))
	c.SetState(container.StateReady)
	logger.Info("service ready")

	<-ctx.Done()
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.WithError(err).Error("server forced to shutdown")
	}
	logger.Info("server exited properly")
}

func retryLogger(logger *logrus.Logger, what string, max int) func(int, error) {
	return func(attempt int, err error) {
		logger.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "max": max}).Warnf("%s not ready, retrying", what)
	}
}

func initStore(ctx context.Context, c *container.Container) error {
	cfg := c.Cfg
	if cfg.StoreDriver == config.StoreMemory {
		c.Logger.Warn("STORE_DRIVER=memory: accounts are not persisted")
		c.Repo = memory.NewUserRepository()
		return nil
	}

	err := helpers.Retry(ctx, cfg.StartupMaxRetries, cfg.StartupRetryDelay, func(ctx context.Context) error {
		pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return err
		}
		c.PGPool = pool
		return nil
	}, retryLogger(c.Logger, "postgres", cfg.StartupMaxRetries))
	if err != nil {
		return err
	}

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, c.Logger); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	c.Repo = pginfra.NewUserRepository(c.PGPool)
	return nil
}

// initCache leaves c.Redis nil when the cache stays unreachable; the service
// then runs store-only.
func initCache(ctx context.Context, c *container.Container) {
	cfg := c.Cfg
	if !cfg.RedisEnabled {
		c.Logger.Info("directory cache disabled")
		return
	}
	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTimeout)
	err := helpers.Retry(ctx, cfg.StartupMaxRetries, cfg.StartupRetryDelay, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}, retryLogger(c.Logger, "redis", cfg.StartupMaxRetries))
	if err != nil {
		c.Logger.WithError(err).Warn("redis unavailable, running without directory cache")
		_ = rdb.Close()
		return
	}
	c.Redis = rdb
}

func initSearch(ctx context.Context, c *container.Container) {
	cfg := c.Cfg
	if !cfg.SearchEnabled {
		return
	}
	es, err := helpers.NewESClient(cfg.ESAddrs(), cfg.ElasticsearchUser, cfg.ElasticsearchPass, cfg.ESTimeout)
	if err != nil {
		c.Logger.WithError(err).Warn("elasticsearch client init failed, search disabled")
		return
	}
	if err := search.NewUserIndex(es, cfg.ESUsersIndex).EnsureIndex(ctx); err != nil {
		c.Logger.WithError(err).Warn("elasticsearch unavailable, search disabled")
		return
	}
	c.ES = es
}

func initNotifier(c *container.Container) {
	cfg := c.Cfg
	if cfg.RabbitMQURL == "" {
		return
	}
	pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
	if err != nil {
		c.Logger.WithError(err).Warn("rabbitmq unavailable, account notifications disabled")
		return
	}
	c.RabbitPub = pub
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
