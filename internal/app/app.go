package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskhub/internal/auth"
	"taskhub/internal/cache"
	"taskhub/internal/config"
	"taskhub/internal/dto"
	"taskhub/internal/notify"
	"taskhub/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg      config.Config
	log      *slog.Logger
	stores   *Stores
	redis    *redis.Client
	hub      *notify.Hub
	registry *notify.Registry
	router   *gin.Engine
}

func New(ctx context.Context, cfg config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	stores, err := OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.stores = stores

	rdb, err := newRedis(cfg.Redis)
	if err != nil {
		stores.Close(ctx)
		return nil, err
	}
	a.redis = rdb

	if err := dto.RegisterValidators(); err != nil {
		_ = rdb.Close()
		stores.Close(ctx)
		return nil, err
	}

	a.hub = notify.NewHub(notify.HubConfig{
		SendBuffer:   cfg.WS.SendBuffer,
		PingInterval: cfg.WS.PingInterval.Duration(),
	}, log)
	a.router = a.newRouter()
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// Close drops push connections first so clients reconnect to the next instance,
// then releases the stores.
func (a *App) Close(ctx context.Context) error {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.stores != nil {
		a.stores.Close(ctx)
	}
	return nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func (a *App) newRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(a.log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:  a.cfg.HTTP.Origins(),
		AllowMethods:  []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", auth.TokenHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	tokens := auth.NewTokens(auth.TokenConfig{
		Secret: a.cfg.Auth.JWTSecret,
		TTL:    a.cfg.Auth.TokenTTL.Duration(),
		Issuer: a.cfg.Auth.Issuer,
	})
	revocations := auth.NewRevocations(a.redis)

	a.registry = notify.NewRegistry()
	dispatcher := notify.NewDispatcher(a.registry, a.hub, a.log)
	listener := notify.NewListener(dispatcher, a.log)

	taskCache := cache.NewTaskCache(a.redis, a.cfg.Redis.DefaultTTL.Duration())
	deps := routeDeps{
		gate:     auth.NewGate(tokens, revocations, a.log),
		tokens:   tokens,
		revoker:  revocations,
		sessions: a.hub,
		users:    service.NewUserService(a.stores.Users),
		tasks:    service.NewTaskService(a.stores.Tasks, a.stores.Users, taskCache, listener, a.log),
		ws:       notify.NewHandler(a.hub, a.registry, a.cfg.HTTP.Origins(), a.log),
	}
	Setup(r, a.cfg, a.hub, deps, a.log)
	return r
}

// requestLogger writes one structured line per request.
func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if p := auth.PrincipalFromContext(c); p != "" {
			attrs = append(attrs, "principal_id", p)
		}
		if status >= 500 {
			log.Error("http request", attrs...)
			return
		}
		log.Info("http request", attrs...)
	}
}
