package market

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"guardswap/internal/shared/utils"
)

// explorerSource reads the Blockscout-style chain explorer: token supply
// and holder counts, and wallet holdings via the legacy account API with a
// v2 fallback.
type explorerSource struct {
	f    *fetcher
	base string
}

func newExplorerSource(f *fetcher, base string) *explorerSource {
	return &explorerSource{f: f, base: strings.TrimRight(base, "/")}
}

func (s *explorerSource) name() string { return "explorer" }

type explorerTokenResponse struct {
	Token map[string]interface{} `json:"token"`
	Data  map[string]interface{} `json:"data"`

	Decimals          interface{} `json:"decimals"`
	TotalSupply       interface{} `json:"total_supply"`
	CirculatingSupply interface{} `json:"circulating_supply"`
	HoldersCount      interface{} `json:"holders_count"`
	HolderCount       interface{} `json:"holder_count"`
	Holders           interface{} `json:"holders"`
}

func (s *explorerSource) fetchSupply(ctx context.Context, address string) (*SupplyInfo, error) {
	var payload explorerTokenResponse
	if err := s.f.getJSON(ctx, fmt.Sprintf("%s/api/v2/tokens/%s", s.base, address), &payload); err != nil {
		return nil, err
	}

	fields := payload.Token
	if fields == nil {
		fields = payload.Data
	}
	if fields == nil {
		fields = map[string]interface{}{
			"decimals":           payload.Decimals,
			"total_supply":       payload.TotalSupply,
			"circulating_supply": payload.CirculatingSupply,
			"holders_count":      payload.HoldersCount,
			"holder_count":       payload.HolderCount,
			"holders":            payload.Holders,
		}
	}

	decimals := uint8(18)
	if d := asInt(fields["decimals"]); d != nil && *d >= 0 && *d <= 255 {
		decimals = uint8(*d)
	}

	total := supplyFloat(fields["total_supply"], decimals)
	circ := supplyFloat(fields["circulating_supply"], decimals)
	if circ == nil {
		circ = total
	}

	holders := asInt(fields["holders_count"])
	if holders == nil {
		holders = asInt(fields["holder_count"])
	}
	if holders == nil {
		holders = asInt(fields["holders"])
	}

	return &SupplyInfo{
		Total:       total,
		Circulating: circ,
		Decimals:    decimals,
		Holders:     holders,
	}, nil
}

// supplyFloat scales a base-unit integer string by decimals; non-integer
// strings are taken as already-scaled numbers.
func supplyFloat(v interface{}, decimals uint8) *float64 {
	s, ok := v.(string)
	if !ok {
		return asFloat(v)
	}
	base := utils.GlobalBigIntPool.Get()
	defer utils.GlobalBigIntPool.Put(base)
	if _, valid := base.SetString(s, 10); valid {
		f := utils.ToDisplayFloat(base, decimals)
		return &f
	}
	return asFloat(s)
}

type explorerTokenListResponse struct {
	Result []struct {
		ContractAddress string      `json:"contractAddress"`
		Contract        string      `json:"contract"`
		Name            string      `json:"name"`
		Symbol          string      `json:"symbol"`
		Decimals        interface{} `json:"decimals"`
		Balance         interface{} `json:"balance"`
	} `json:"result"`
}

type explorerV2TokensResponse struct {
	Items []struct {
		Token map[string]interface{} `json:"token"`
		Value interface{}            `json:"value"`
	} `json:"items"`
}

// fetchHoldings tries the legacy account tokenlist first and falls back to
// the v2 address tokens endpoint.
func (s *explorerSource) fetchHoldings(ctx context.Context, owner string) ([]Holding, error) {
	var legacy explorerTokenListResponse
	url := fmt.Sprintf("%s/api?module=account&action=tokenlist&address=%s", s.base, owner)
	if err := s.f.getJSON(ctx, url, &legacy); err == nil && len(legacy.Result) > 0 {
		holdings := make([]Holding, 0, len(legacy.Result))
		for _, t := range legacy.Result {
			addr := strings.ToLower(firstNonEmpty(t.ContractAddress, t.Contract))
			if !utils.IsAddress(addr) {
				continue
			}
			holdings = append(holdings, Holding{
				Address:  addr,
				Name:     firstNonEmpty(t.Name, "Token"),
				Symbol:   firstNonEmpty(t.Symbol, "TKN"),
				Decimals: decimalsOrDefault(t.Decimals),
				Balance:  balanceString(t.Balance),
			})
		}
		return holdings, nil
	}

	var v2 explorerV2TokensResponse
	url = fmt.Sprintf("%s/api/v2/addresses/%s/tokens?type=ERC-20&limit=200", s.base, owner)
	if err := s.f.getJSON(ctx, url, &v2); err != nil {
		return nil, err
	}

	holdings := make([]Holding, 0, len(v2.Items))
	for _, item := range v2.Items {
		token := item.Token
		if token == nil {
			continue
		}
		addr, _ := token["address"].(string)
		if addr == "" {
			addr, _ = token["contract_address"].(string)
		}
		addr = strings.ToLower(addr)
		if !utils.IsAddress(addr) {
			continue
		}
		name, _ := token["name"].(string)
		symbol, _ := token["symbol"].(string)
		holdings = append(holdings, Holding{
			Address:  addr,
			Name:     firstNonEmpty(name, "Token"),
			Symbol:   firstNonEmpty(symbol, "TKN"),
			Decimals: decimalsOrDefault(token["decimals"]),
			Balance:  balanceString(item.Value),
		})
	}
	return holdings, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func decimalsOrDefault(v interface{}) uint8 {
	if d := asInt(v); d != nil && *d >= 0 && *d <= 255 {
		return uint8(*d)
	}
	return 18
}

func balanceString(v interface{}) string {
	switch b := v.(type) {
	case string:
		scratch := utils.GlobalBigIntPool.Get()
		_, ok := scratch.SetString(b, 10)
		utils.GlobalBigIntPool.Put(scratch)
		if ok {
			return b
		}
	case float64:
		return new(big.Int).SetInt64(int64(b)).String()
	}
	return "0"
}
