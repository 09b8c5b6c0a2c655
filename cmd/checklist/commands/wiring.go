package commands

import (
	"fmt"

	"github.com/btlz/tenx/backend/internal/checklist"
	"github.com/btlz/tenx/backend/internal/collector"
	"github.com/btlz/tenx/backend/internal/external/wb"
	"github.com/btlz/tenx/backend/internal/storage"
	"github.com/btlz/tenx/backend/pkg/config"
	"github.com/btlz/tenx/backend/pkg/database"
	"github.com/btlz/tenx/backend/pkg/httputil"
	"github.com/btlz/tenx/backend/pkg/logger"
	"github.com/btlz/tenx/backend/pkg/redis"
)

// runtime holds the wired application stack shared by the CLI commands.
type runtime struct {
	cfg       *config.Config
	log       *logger.Logger
	db        *database.DB
	redis     *redis.Client
	repo      *storage.Repository
	provider  *wb.Client
	service   *checklist.Service
	collector *collector.Collector
}

// newRuntime loads configuration and connects every dependency the
// commands need. Redis is optional: when unavailable the marketplace
// client simply runs without response caching.
func newRuntime() (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg)

	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	var cache *redis.Cache
	redisClient, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, API response caching disabled")
		redisClient = nil
	} else {
		cache = redis.NewCache(redisClient, "wb")
	}

	httpClient := httputil.New(cfg, log)
	provider := wb.NewClient(cfg.WB, httpClient, log, cache)

	repo := storage.NewRepository(db.Pool)

	service, err := checklist.NewService(cfg.Checklist, repo, provider, log)
	if err != nil {
		if redisClient != nil {
			_ = redisClient.Close()
		}
		db.Close()
		return nil, fmt.Errorf("create checklist service: %w", err)
	}

	col := collector.New(provider, repo, repo, log)

	return &runtime{
		cfg:       cfg,
		log:       log,
		db:        db,
		redis:     redisClient,
		repo:      repo,
		provider:  provider,
		service:   service,
		collector: col,
	}, nil
}

// Close releases the runtime's connections.
func (rt *runtime) Close() {
	if rt.redis != nil {
		_ = rt.redis.Close()
	}
	rt.db.Close()
}
