// Package tsetmc is the public entry point of the library: one Client
// bundling the stock, price, market, trading, and data services behind
// a single configured HTTP gateway.
package tsetmc

import (
	"fmt"
	"time"

	"github.com/mshojaei77/tsetmc-go/common"
	"github.com/mshojaei77/tsetmc-go/interfaces"
	"github.com/mshojaei77/tsetmc-go/internal/storage/marketfs"
	"github.com/mshojaei77/tsetmc-go/internal/transport"
	"github.com/mshojaei77/tsetmc-go/services/data"
	"github.com/mshojaei77/tsetmc-go/services/market"
	"github.com/mshojaei77/tsetmc-go/services/price"
	"github.com/mshojaei77/tsetmc-go/services/stock"
	"github.com/mshojaei77/tsetmc-go/services/trading"
)

// Client is the top-level TSETMC client.
type Client struct {
	config *common.Config
	logger *common.Logger
	cache  interfaces.MarketCache

	stocks  interfaces.StockService
	prices  interfaces.PriceService
	market  interfaces.MarketService
	trading interfaces.TradingService
	data    interfaces.DataService
}

// Option configures the client
type Option func(*Client)

// WithConfig replaces the whole configuration
func WithConfig(config *common.Config) Option {
	return func(c *Client) {
		if config != nil {
			c.config = config
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithBaseURL overrides the www.tsetmc.com base URL
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.config.Client.BaseURL = baseURL
	}
}

// WithLegacyBaseURL overrides the old.tsetmc.com base URL
func WithLegacyBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.config.Client.LegacyBaseURL = baseURL
	}
}

// WithCDNBaseURL overrides the cdn.tsetmc.com base URL
func WithCDNBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.config.Client.CDNBaseURL = baseURL
	}
}

// WithIFBBaseURL overrides the www.ifb.ir base URL
func WithIFBBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.config.Client.IFBBaseURL = baseURL
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.config.Client.Timeout = timeout.String()
	}
}

// WithRateLimit sets the request rate limit per second
func WithRateLimit(requestsPerSecond int) Option {
	return func(c *Client) {
		c.config.Client.RateLimit = requestsPerSecond
	}
}

// WithUserAgent sets the User-Agent header
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.config.Client.UserAgent = ua
	}
}

// WithCacheDir enables the local file cache rooted at path
func WithCacheDir(path string) Option {
	return func(c *Client) {
		c.config.Cache.Enabled = true
		c.config.Cache.Path = path
	}
}

// WithoutCache disables the local file cache
func WithoutCache() Option {
	return func(c *Client) {
		c.config.Cache.Enabled = false
	}
}

// New creates a fully wired TSETMC client.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		config: common.NewDefaultConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = common.NewLogger(c.config.Logging.Level)
	}

	gatewayOpts := []transport.ClientOption{
		transport.WithLogger(c.logger),
		transport.WithTimeout(c.config.Client.GetTimeout()),
		transport.WithRateLimit(c.config.Client.RateLimit),
		transport.WithMaxRetries(c.config.Client.MaxRetries),
	}
	if c.config.Client.UserAgent != "" {
		gatewayOpts = append(gatewayOpts, transport.WithUserAgent(c.config.Client.UserAgent))
	}
	gateway := transport.NewClient(gatewayOpts...)

	if c.config.Cache.Enabled {
		store, err := marketfs.NewStore(c.logger, c.config.Cache.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open market cache: %w", err)
		}
		c.cache = store
	}

	clientCfg := &c.config.Client
	c.stocks = stock.NewService(gateway, clientCfg, c.logger)
	c.prices = price.NewService(gateway, c.stocks, c.cache, clientCfg, c.logger)
	c.market = market.NewService(gateway, c.cache, clientCfg, c.logger)
	c.trading = trading.NewService(gateway, c.stocks, c.cache, clientCfg, c.logger)
	c.data = data.NewService(gateway, c.stocks, c.prices, c.cache, clientCfg, c.logger)

	c.logger.Debug().Str("base_url", clientCfg.BaseURL).Bool("cache", c.config.Cache.Enabled).Msg("TSETMC client created")
	return c, nil
}

// Stocks returns the instrument lookup service.
func (c *Client) Stocks() interfaces.StockService { return c.stocks }

// Prices returns the daily price history service.
func (c *Client) Prices() interfaces.PriceService { return c.prices }

// Market returns the index and market-watch service.
func (c *Client) Market() interfaces.MarketService { return c.market }

// Trading returns the intraday data service.
func (c *Client) Trading() interfaces.TradingService { return c.trading }

// Data returns the bulk table service.
func (c *Client) Data() interfaces.DataService { return c.data }

// Cache returns the local file cache, nil when disabled.
func (c *Client) Cache() interfaces.MarketCache { return c.cache }

// Config returns the effective configuration.
func (c *Client) Config() *common.Config { return c.config }
