package market

import (
	"encoding/json"
	"math"
	"strconv"
)

// UnknownChange is the display value for a 24h change that could not be
// resolved from any source.
const UnknownChange = "—"

// TokenRef identifies a swappable token. Addresses are canonically
// lower-cased; an index holds at most one TokenRef per address.
type TokenRef struct {
	Address string `json:"address"`
	Symbol  string `json:"symbol,omitempty"`
	Name    string `json:"name,omitempty"`
}

// Snapshot is the best-effort market view of one token. Degraded is set
// when neither price nor market cap could be resolved; consumers must
// treat a degraded snapshot as "quote unavailable", never as zero.
type Snapshot struct {
	Address   string   `json:"address"`
	Price     *float64 `json:"price"`
	MarketCap *float64 `json:"mc"`
	Volume24h *float64 `json:"vol"`
	Change24h string   `json:"change"`
	Degraded  bool     `json:"degraded"`
}

// DegradedSnapshot is the value every market fetch falls back to: all
// fields unknown, flagged degraded.
func DegradedSnapshot(address string) *Snapshot {
	return &Snapshot{
		Address:   address,
		Change24h: UnknownChange,
		Degraded:  true,
	}
}

// Pool describes one liquidity pool holding the token.
type Pool struct {
	Address   string   `json:"address"`
	Dex       string   `json:"dex,omitempty"`
	Liquidity *float64 `json:"liq,omitempty"`
}

// SupplyInfo carries token supply and holder-count data from the explorer.
type SupplyInfo struct {
	Total       *float64 `json:"supplyTotal"`
	Circulating *float64 `json:"supplyCirc"`
	Decimals    uint8    `json:"decimals"`
	Holders     *int64   `json:"holders,omitempty"`
}

// Holding is one wallet token position. Balance stays a string-encoded
// base-unit integer across the wire; it is only floated at the display
// boundary.
type Holding struct {
	Address  string `json:"address"`
	Name     string `json:"name,omitempty"`
	Symbol   string `json:"symbol,omitempty"`
	Decimals uint8  `json:"decimals"`
	Balance  string `json:"balance"`
}

// asFloat coerces the loosely-typed numerics upstream sources emit
// (numbers, numeric strings, null) into a float pointer, nil for anything
// non-finite or unparseable.
func asFloat(v interface{}) *float64 {
	switch n := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		return &n
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	case json.Number:
		return asFloat(n.String())
	default:
		return nil
	}
}

// asInt coerces loosely-typed integers, nil when unparseable.
func asInt(v interface{}) *int64 {
	f := asFloat(v)
	if f == nil {
		return nil
	}
	i := int64(*f)
	return &i
}

// formatChange renders a 24h percentage change for display.
func formatChange(v *float64) string {
	if v == nil {
		return UnknownChange
	}
	return strconv.FormatFloat(*v, 'f', 2, 64) + " %"
}
