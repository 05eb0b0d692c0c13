package container

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/staff-auth/config"
	"github.com/oksasatya/staff-auth/internal/domain/repository"
	"github.com/oksasatya/staff-auth/internal/infrastructure/postgres"
	"github.com/oksasatya/staff-auth/pkg/helpers"
)

// State is the process readiness.
type State int32

const (
	StateStarting State = iota
	StateReady
	StateDegraded
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "healthy"
	case StateDegraded:
		return "degraded"
	default:
		return "initializing"
	}
}

// Container is the process-lifetime context object. It is built once in main
// and passed to the router; nothing reads it through globals.
// Optional clients (PGPool, Redis, ES, RabbitPub) are nil when disabled.
// Client fields are assigned only while the state is StateStarting; the
// SetState(StateReady) store publishes them to request goroutines.
type Container struct {
	Cfg       *config.Config
	Logger    *logrus.Logger
	JWT       *helpers.JWTManager
	Repo      repository.UserRepository
	PGPool    *pgxpool.Pool
	Redis     *redis.Client
	ES        *elasticsearch.Client
	RabbitPub *helpers.RabbitPublisher

	state atomic.Int32
}

func New(cfg *config.Config, logger *logrus.Logger) *Container {
	return &Container{
		Cfg:    cfg,
		Logger: logger,
		JWT:    helpers.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL),
	}
}

func (c *Container) State() State     { return State(c.state.Load()) }
func (c *Container) SetState(s State) { c.state.Store(int32(s)) }

// StoreHealthy pings the credential store. The memory store is always healthy.
func (c *Container) StoreHealthy(ctx context.Context) bool {
	if c.PGPool == nil {
		return c.Repo != nil
	}
	return postgres.Ping(ctx, c.PGPool) == nil
}

// CacheHealthy pings redis. A disabled cache reports false.
func (c *Container) CacheHealthy(ctx context.Context) bool {
	if c.Redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return c.Redis.Ping(ctx).Err() == nil
}

// Close releases every client the container owns.
func (c *Container) Close() {
	if c.RabbitPub != nil {
		c.RabbitPub.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
