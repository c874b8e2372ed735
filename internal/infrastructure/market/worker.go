package market

import (
	"context"
	"fmt"
	"strings"

	"guardswap/internal/shared/utils"
)

// workerSource is the primary data provider: the aggregation worker behind
// the configured API base. It speaks GeckoTerminal-shaped attributes for
// market data and its own shapes for the rest.
type workerSource struct {
	f    *fetcher
	base string
}

func newWorkerSource(f *fetcher, base string) *workerSource {
	return &workerSource{f: f, base: strings.TrimRight(base, "/")}
}

func (s *workerSource) name() string { return "worker" }

type workerMarketResponse struct {
	Data *struct {
		Attributes workerMarketAttributes `json:"attributes"`
	} `json:"data"`
	Attributes *workerMarketAttributes `json:"attributes"`
	workerMarketAttributes
}

type workerMarketAttributes struct {
	PriceUSD       interface{} `json:"price_usd"`
	MarketCapUSD   interface{} `json:"market_cap_usd"`
	FDVUSD         interface{} `json:"fdv_usd"`
	VolumeUSD24h   interface{} `json:"volume_usd_24h"`
	PriceChange24h interface{} `json:"price_percent_change_24h"`
}

func (s *workerSource) fetchMarket(ctx context.Context, address string) (*Snapshot, error) {
	var payload workerMarketResponse
	if err := s.f.getJSON(ctx, fmt.Sprintf("%s/market/%s", s.base, address), &payload); err != nil {
		return nil, err
	}

	attrs := payload.workerMarketAttributes
	if payload.Data != nil {
		attrs = payload.Data.Attributes
	} else if payload.Attributes != nil {
		attrs = *payload.Attributes
	}

	mc := asFloat(attrs.MarketCapUSD)
	if mc == nil {
		mc = asFloat(attrs.FDVUSD)
	}

	return &Snapshot{
		Address:   address,
		Price:     asFloat(attrs.PriceUSD),
		MarketCap: mc,
		Volume24h: asFloat(attrs.VolumeUSD24h),
		Change24h: formatChange(asFloat(attrs.PriceChange24h)),
	}, nil
}

type workerTokenItem struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

type workerDiscoverResponse struct {
	Items []workerTokenItem `json:"items"`
}

// fetchTokens tries the curated /tokens list first, then the discovery
// endpoint.
func (s *workerSource) fetchTokens(ctx context.Context) ([]TokenRef, error) {
	var list []workerTokenItem
	err := s.f.getJSON(ctx, s.base+"/tokens", &list)
	if err == nil && len(list) > 0 {
		return mapWorkerTokens(list), nil
	}

	var discovered workerDiscoverResponse
	if err := s.f.getJSON(ctx, s.base+"/tokens/discover?limit=200&page=1", &discovered); err != nil {
		return nil, err
	}
	return mapWorkerTokens(discovered.Items), nil
}

func mapWorkerTokens(items []workerTokenItem) []TokenRef {
	refs := make([]TokenRef, 0, len(items))
	for _, item := range items {
		if !utils.IsAddress(item.Address) {
			continue
		}
		refs = append(refs, TokenRef{
			Address: strings.ToLower(item.Address),
			Symbol:  item.Symbol,
			Name:    item.Name,
		})
	}
	return refs
}

type workerPoolsResponse struct {
	Pools []struct {
		Address   string      `json:"address"`
		Dex       string      `json:"dex"`
		Liquidity interface{} `json:"liq"`
	} `json:"pools"`
}

func (s *workerSource) fetchPools(ctx context.Context, address string) ([]Pool, error) {
	var payload workerPoolsResponse
	if err := s.f.getJSON(ctx, fmt.Sprintf("%s/pools/%s", s.base, address), &payload); err != nil {
		return nil, err
	}
	pools := make([]Pool, 0, len(payload.Pools))
	for _, p := range payload.Pools {
		pools = append(pools, Pool{
			Address:   strings.ToLower(p.Address),
			Dex:       p.Dex,
			Liquidity: asFloat(p.Liquidity),
		})
	}
	return pools, nil
}

type workerSupplyResponse struct {
	SupplyTotal interface{} `json:"supplyTotal"`
	SupplyCirc  interface{} `json:"supplyCirc"`
	Decimals    interface{} `json:"decimals"`
	Holders     interface{} `json:"holders"`
}

func (s *workerSource) fetchSupply(ctx context.Context, address string) (*SupplyInfo, error) {
	var payload workerSupplyResponse
	if err := s.f.getJSON(ctx, fmt.Sprintf("%s/supply/%s", s.base, address), &payload); err != nil {
		return nil, err
	}

	decimals := uint8(18)
	if d := asInt(payload.Decimals); d != nil && *d >= 0 && *d <= 255 {
		decimals = uint8(*d)
	}
	return &SupplyInfo{
		Total:       asFloat(payload.SupplyTotal),
		Circulating: asFloat(payload.SupplyCirc),
		Decimals:    decimals,
		Holders:     asInt(payload.Holders),
	}, nil
}
