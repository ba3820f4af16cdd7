// Package app wires storage, services and transport into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"partyroom/internal/cache"
	"partyroom/internal/config"
	"partyroom/internal/model"
	"partyroom/internal/repository"
	"partyroom/internal/seed"
	"partyroom/internal/service"
	"partyroom/internal/transport/rest"
	"partyroom/internal/transport/ws"
)

const connectTimeout = 5 * time.Second

// App holds every long-lived dependency of the server
type App struct {
	cfg *config.Config
	log *slog.Logger

	mongo  *mongo.Client
	redis  *redis.Client
	badger *badger.DB

	SessionRepo  repository.SessionRepo
	QuestionRepo repository.QuestionRepo
	PoolCache    cache.PoolCache

	Hub          *ws.Hub
	Registry     *service.Registry
	Orchestrator *service.Orchestrator
	Questions    *service.QuestionService
	Auth         *service.AuthService
	Reaper       *service.Reaper
	Router       http.Handler
}

// New connects the configured backends and builds the service graph
func New(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}
	if err := a.connect(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	if err := a.buildStores(ctx); err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.buildServices()
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	if a.cfg.MongoURI != "" {
		client, err := ConnectMongo(ctx, a.cfg.MongoURI)
		if err != nil {
			return err
		}
		a.mongo = client
		a.log.Info("connected to MongoDB", "database", a.cfg.MongoDatabase)
	}

	if a.cfg.RedisURI != "" {
		client, err := ConnectRedis(ctx, a.cfg.RedisURI)
		if err != nil {
			return err
		}
		a.redis = client
		a.log.Info("connected to Redis")
	}

	if a.cfg.SessionStore == config.StoreBadger {
		db, err := badger.Open(badger.DefaultOptions(a.cfg.BadgerPath).WithLogger(nil))
		if err != nil {
			return fmt.Errorf("open badger at %s: %w", a.cfg.BadgerPath, err)
		}
		a.badger = db
		a.log.Info("opened badger session store", "path", a.cfg.BadgerPath)
	}
	return nil
}

func (a *App) buildStores(ctx context.Context) error {
	switch a.cfg.SessionStore {
	case config.StoreMongo:
		db := a.mongo.Database(a.cfg.MongoDatabase)
		if err := repository.EnsureSessionIndexes(ctx, db); err != nil {
			return fmt.Errorf("ensure session indexes: %w", err)
		}
		a.SessionRepo = repository.NewSessionRepo(db)
	case config.StoreRedis:
		a.SessionRepo = cache.NewSessionStore(a.redis, a.cfg.IdleSessionTTL)
	case config.StoreBadger:
		a.SessionRepo = repository.NewBadgerSessionRepo(a.badger)
	default:
		a.SessionRepo = repository.NewMemorySessionRepo()
	}

	if a.mongo != nil {
		a.QuestionRepo = repository.NewQuestionRepo(a.mongo.Database(a.cfg.MongoDatabase))
	} else {
		a.log.Warn("MONGO_URI not set, serving the built-in question set from memory")
		a.QuestionRepo = repository.NewMemoryQuestionRepo(seed.Questions()...)
	}

	if a.redis != nil {
		a.PoolCache = cache.NewPoolCache(a.redis, a.cfg.PoolCacheTTL)
	}
	a.log.Info("session store ready", "backend", a.cfg.SessionStore)
	return nil
}

func (a *App) buildServices() {
	defaults := model.SessionConfig{
		Selection:        model.SelectionMode(a.cfg.DefaultSelection),
		QuestionsPerRate: a.cfg.QuestionsPerRate,
	}

	a.Hub = ws.NewHub(a.log)
	a.Registry = service.NewRegistry(a.SessionRepo, defaults, a.log)
	a.Registry.SetBroadcaster(a.Hub)
	a.Questions = service.NewQuestionService(a.QuestionRepo, a.PoolCache, a.log)
	a.Orchestrator = service.NewOrchestrator(a.Registry, a.Questions, service.DisconnectPolicy(a.cfg.DisconnectPolicy), a.log)
	a.Auth = service.NewAuthService(a.cfg.AdminUsername, a.cfg.AdminPassword, a.cfg.JWTSecret)
	a.Reaper = service.NewReaper(a.Registry, a.cfg.ReapInterval, a.cfg.EndedSessionTTL, a.cfg.IdleSessionTTL, a.log)

	a.Router = rest.NewRouter(&rest.Container{
		AuthService:    a.Auth,
		Questions:      a.Questions,
		Registry:       a.Registry,
		Orchestrator:   a.Orchestrator,
		WSHub:          a.Hub,
		AllowedOrigins: a.cfg.CORSAllowedOrigins,
		Log:            a.log,
	})
}

// Close stops the hub and releases every backend connection
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.Hub != nil {
		a.Hub.Stop()
	}
	if a.badger != nil {
		errs = append(errs, a.badger.Close())
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.mongo != nil {
		errs = append(errs, a.mongo.Disconnect(ctx))
	}
	return errors.Join(errs...)
}

// ConnectMongo dials MongoDB and verifies the connection
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// ConnectRedis dials Redis from either a redis:// URL or a bare host:port
func ConnectRedis(ctx context.Context, uri string) (*redis.Client, error) {
	opts := &redis.Options{Addr: uri}
	if strings.Contains(uri, "://") {
		parsed, err := redis.ParseURL(uri)
		if err != nil {
			return nil, fmt.Errorf("parse redis uri: %w", err)
		}
		opts = parsed
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
