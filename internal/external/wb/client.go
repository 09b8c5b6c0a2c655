package wb

import (
	"github.com/btlz/tenx/backend/pkg/config"
	"github.com/btlz/tenx/backend/pkg/httputil"
	"github.com/btlz/tenx/backend/pkg/logger"
	"github.com/btlz/tenx/backend/pkg/redis"
)

// Client handles communication with the Wildberries seller APIs.
// All marketplace calls go through this client; it satisfies
// contracts.Provider.
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	cfg        config.WBConfig
	cache      *redis.Cache
}

// NewClient creates a new marketplace API client. The cache may be
// backed by a disabled redis client, in which case every call goes to
// the network.
func NewClient(cfg config.WBConfig, httpClient *httputil.Client, log *logger.Logger, cache *redis.Cache) *Client {
	httpClient.
		WithRateLimit(cfg.RequestsPerMin).
		WithHeader("Authorization", cfg.Token)

	return &Client{
		httpClient: httpClient,
		logger:     log,
		cfg:        cfg,
		cache:      cache,
	}
}
