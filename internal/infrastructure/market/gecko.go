package market

import (
	"context"
	"fmt"
	"strings"

	"guardswap/internal/shared/utils"
)

const geckoAPIBase = "https://api.geckoterminal.com/api/v2"

// geckoSource reads public GeckoTerminal endpoints for the configured
// network. It is the fallback behind the worker.
type geckoSource struct {
	f       *fetcher
	network string
}

func newGeckoSource(f *fetcher, network string) *geckoSource {
	return &geckoSource{f: f, network: network}
}

func (s *geckoSource) name() string { return "geckoterminal" }

type geckoAttributes map[string]interface{}

type geckoEntity struct {
	Attributes geckoAttributes `json:"attributes"`
}

type geckoItemResponse struct {
	Data geckoEntity `json:"data"`
}

type geckoListResponse struct {
	Data []geckoEntity `json:"data"`
}

func (a geckoAttributes) float(keys ...string) *float64 {
	for _, key := range keys {
		if v, ok := a[key]; ok {
			if f := asFloat(v); f != nil {
				return f
			}
		}
	}
	return nil
}

// nestedH24 digs volume_usd.h24 / price_change_percentage.h24 shapes.
func (a geckoAttributes) nestedH24(key string) *float64 {
	nested, ok := a[key].(map[string]interface{})
	if !ok {
		return nil
	}
	return asFloat(nested["h24"])
}

func (s *geckoSource) fetchMarket(ctx context.Context, address string) (*Snapshot, error) {
	var payload geckoItemResponse
	url := fmt.Sprintf("%s/networks/%s/tokens/%s", geckoAPIBase, s.network, address)
	if err := s.f.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	attrs := payload.Data.Attributes
	price := attrs.float("price_usd")
	mc := attrs.float("market_cap_usd", "fdv_usd")
	vol := attrs.float("volume_usd_24h", "h24_volume_usd")
	if vol == nil {
		vol = attrs.nestedH24("volume_usd")
	}
	change := attrs.float("price_percent_change_24h", "h24_price_change_percentage")
	if change == nil {
		change = attrs.nestedH24("price_change_percentage")
	}

	// Volume and 24h change are often missing on the token endpoint; the
	// top pool usually has them.
	if vol == nil || change == nil {
		if pools, err := s.fetchPoolAttributes(ctx, address); err == nil && len(pools) > 0 {
			top := pools[0].Attributes
			if vol == nil {
				vol = top.float("volume_usd_24h", "h24_volume_usd")
				if vol == nil {
					vol = top.nestedH24("volume_usd")
				}
			}
			if change == nil {
				change = top.float("price_percent_change_24h", "h24_price_change_percentage")
				if change == nil {
					change = top.nestedH24("price_change_percentage")
				}
			}
		}
	}

	return &Snapshot{
		Address:   address,
		Price:     price,
		MarketCap: mc,
		Volume24h: vol,
		Change24h: formatChange(change),
	}, nil
}

func (s *geckoSource) fetchPoolAttributes(ctx context.Context, address string) ([]geckoEntity, error) {
	var payload geckoListResponse
	url := fmt.Sprintf("%s/networks/%s/tokens/%s/pools", geckoAPIBase, s.network, address)
	if err := s.f.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}
	return payload.Data, nil
}

func (s *geckoSource) fetchPools(ctx context.Context, address string) ([]Pool, error) {
	entities, err := s.fetchPoolAttributes(ctx, address)
	if err != nil {
		return nil, err
	}
	pools := make([]Pool, 0, len(entities))
	for _, e := range entities {
		addr, _ := e.Attributes["address"].(string)
		if addr == "" {
			addr, _ = e.Attributes["pool_address"].(string)
		}
		dex, _ := e.Attributes["dex"].(string)
		if dex == "" {
			dex, _ = e.Attributes["name"].(string)
		}
		if dex == "" {
			dex = "Pool"
		}
		pools = append(pools, Pool{
			Address:   strings.ToLower(addr),
			Dex:       dex,
			Liquidity: e.Attributes.float("reserve_in_usd", "reserve_usd", "liquidity_usd"),
		})
	}
	return pools, nil
}

// fetchTokens derives a token list from trending pools: both sides of each
// pool, deduplicated by address.
func (s *geckoSource) fetchTokens(ctx context.Context) ([]TokenRef, error) {
	var payload geckoListResponse
	url := fmt.Sprintf("%s/networks/%s/trending_pools?include=base_token,quote_token", geckoAPIBase, s.network)
	if err := s.f.getJSON(ctx, url, &payload); err != nil {
		return nil, err
	}

	seen := make(map[string]TokenRef)
	order := make([]string, 0)
	add := func(addr, symbol, name string) {
		if !utils.IsAddress(addr) {
			return
		}
		key := strings.ToLower(addr)
		if _, ok := seen[key]; ok {
			return
		}
		if symbol == "" {
			symbol = "TKN"
		}
		if name == "" {
			name = symbol
		}
		seen[key] = TokenRef{Address: key, Symbol: symbol, Name: name}
		order = append(order, key)
	}

	str := func(a geckoAttributes, key string) string {
		v, _ := a[key].(string)
		return v
	}
	for _, e := range payload.Data {
		a := e.Attributes
		add(str(a, "base_token_address"), str(a, "base_token_symbol"), str(a, "base_token_name"))
		add(str(a, "quote_token_address"), str(a, "quote_token_symbol"), str(a, "quote_token_name"))
	}

	refs := make([]TokenRef, 0, len(order))
	for _, key := range order {
		refs = append(refs, seen[key])
	}
	return refs, nil
}
