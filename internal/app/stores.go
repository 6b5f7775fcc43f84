package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"taskhub/internal/config"
	"taskhub/internal/repo"
	"taskhub/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Stores is the task and user persistence selected by STORE_DRIVER.
type Stores struct {
	Tasks repo.TaskRepo
	Users repo.UserRepo

	pg    *pgxpool.Pool
	mongo *mongo.Client
}

// OpenStores connects the configured backend. Postgres migrations run here.
func OpenStores(ctx context.Context, cfg config.Config, log *slog.Logger) (*Stores, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		if err := migrations.Up(cfg.PG.DSN); err != nil {
			return nil, err
		}
		pool, err := newPostgres(ctx, cfg.PG.DSN)
		if err != nil {
			return nil, err
		}
		log.Info("store ready", "driver", cfg.Store.Driver)
		return &Stores{Tasks: repo.NewPGTaskRepo(pool), Users: repo.NewPGUserRepo(pool), pg: pool}, nil

	case config.DriverMongo:
		client, err := newMongo(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		tasks := repo.NewMongoTaskRepo(db)
		users := repo.NewMongoUserRepo(db)
		ictx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := tasks.EnsureIndexes(ictx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo task indexes: %w", err)
		}
		if err := users.EnsureIndexes(ictx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("mongo user indexes: %w", err)
		}
		log.Info("store ready", "driver", cfg.Store.Driver, "database", cfg.Mongo.Database)
		return &Stores{Tasks: tasks, Users: users, mongo: client}, nil

	case config.DriverMemory:
		log.Warn("using in-memory store, data is lost on restart")
		return &Stores{Tasks: repo.NewMemoryTaskRepo(), Users: repo.NewMemoryUserRepo()}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

// Close releases the backend connection.
func (s *Stores) Close(ctx context.Context) {
	if s.pg != nil {
		s.pg.Close()
	}
	if s.mongo != nil {
		_ = s.mongo.Disconnect(ctx)
	}
}

func newPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

func newMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}
