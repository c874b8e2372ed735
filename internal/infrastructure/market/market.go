package market

import (
	"context"
	"fmt"

	"guardswap/internal/shared/config"
	apperrors "guardswap/internal/shared/errors"

	"go.uber.org/zap"
)

// marketSource is one upstream strategy for market data. Sources are tried
// in a fixed priority order; the first snapshot carrying a price or market
// cap wins.
type marketSource interface {
	name() string
	fetchMarket(ctx context.Context, address string) (*Snapshot, error)
}

type tokenSource interface {
	name() string
	fetchTokens(ctx context.Context) ([]TokenRef, error)
}

type poolSource interface {
	name() string
	fetchPools(ctx context.Context, address string) ([]Pool, error)
}

type supplySource interface {
	name() string
	fetchSupply(ctx context.Context, address string) (*SupplyInfo, error)
}

type holdingsSource interface {
	name() string
	fetchHoldings(ctx context.Context, owner string) ([]Holding, error)
}

// Client aggregates token market data from the upstream providers with
// fallback ordering: the worker API when configured, then GeckoTerminal,
// with the chain explorer covering supply and wallet holdings.
type Client struct {
	logger *zap.Logger

	marketSources   []marketSource
	tokenSources    []tokenSource
	poolSources     []poolSource
	supplySources   []supplySource
	holdingsSources []holdingsSource
}

// NewClient builds the source chains from configuration.
func NewClient(cfg config.SourcesConfig, logger *zap.Logger) *Client {
	f := newFetcher(cfg.FetchTimeout, logger)
	gecko := newGeckoSource(f, cfg.GeckoNetwork)
	explorer := newExplorerSource(f, cfg.ExplorerAPIURL)

	c := &Client{
		logger:          logger,
		marketSources:   []marketSource{gecko},
		tokenSources:    []tokenSource{gecko},
		poolSources:     []poolSource{gecko},
		supplySources:   []supplySource{explorer},
		holdingsSources: []holdingsSource{explorer},
	}

	if cfg.APIBase != "" {
		worker := newWorkerSource(f, cfg.APIBase)
		c.marketSources = append([]marketSource{worker}, c.marketSources...)
		c.tokenSources = append([]tokenSource{worker}, c.tokenSources...)
		c.poolSources = append([]poolSource{worker}, c.poolSources...)
		c.supplySources = append([]supplySource{worker}, c.supplySources...)
	}

	return c
}

// FetchMarket returns the market snapshot for a token. Market data is
// best-effort: callers always receive a value, never an error. When no
// source yields a price or market cap the snapshot is degraded and
// downstream quoting must treat it as unavailable.
func (c *Client) FetchMarket(ctx context.Context, address string) *Snapshot {
	for _, source := range c.marketSources {
		snapshot, err := source.fetchMarket(ctx, address)
		if err != nil {
			c.logger.Debug("Market source failed",
				zap.String("source", source.name()),
				zap.String("address", address),
				zap.Error(err))
			continue
		}
		if snapshot.Price != nil || snapshot.MarketCap != nil {
			return snapshot
		}
	}
	return DegradedSnapshot(address)
}

// Tokens returns the swappable token list from the first source that
// yields a non-empty result.
func (c *Client) Tokens(ctx context.Context) ([]TokenRef, error) {
	var lastErr error
	for _, source := range c.tokenSources {
		refs, err := source.fetchTokens(ctx)
		if err != nil {
			c.logger.Debug("Token source failed",
				zap.String("source", source.name()),
				zap.Error(err))
			lastErr = err
			continue
		}
		if len(refs) > 0 {
			return refs, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, fmt.Errorf("%w: no token source yielded tokens", apperrors.ErrExternalService)
}

// Pools returns the liquidity pools holding a token, best-effort: an empty
// slice when every source fails.
func (c *Client) Pools(ctx context.Context, address string) []Pool {
	for _, source := range c.poolSources {
		pools, err := source.fetchPools(ctx, address)
		if err != nil {
			c.logger.Debug("Pool source failed",
				zap.String("source", source.name()),
				zap.String("address", address),
				zap.Error(err))
			continue
		}
		return pools
	}
	return nil
}

// Supply returns token supply and holder data, best-effort: unknown values
// with default decimals when every source fails.
func (c *Client) Supply(ctx context.Context, address string) *SupplyInfo {
	for _, source := range c.supplySources {
		info, err := source.fetchSupply(ctx, address)
		if err != nil {
			c.logger.Debug("Supply source failed",
				zap.String("source", source.name()),
				zap.String("address", address),
				zap.Error(err))
			continue
		}
		return info
	}
	return &SupplyInfo{Decimals: 18}
}

// WalletHoldings returns the ERC-20 positions of a wallet.
func (c *Client) WalletHoldings(ctx context.Context, owner string) ([]Holding, error) {
	var lastErr error
	for _, source := range c.holdingsSources {
		holdings, err := source.fetchHoldings(ctx, owner)
		if err != nil {
			c.logger.Debug("Holdings source failed",
				zap.String("source", source.name()),
				zap.String("owner", owner),
				zap.Error(err))
			lastErr = err
			continue
		}
		return holdings, nil
	}
	return nil, fmt.Errorf("%w: wallet holdings unavailable: %v", apperrors.ErrExternalService, lastErr)
}
