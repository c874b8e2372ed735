package usecases

import (
	"context"
	"strings"

	"guardswap/internal/infrastructure/market"

	"go.uber.org/zap"
)

// Stable-coin listings are excluded from the swappable set, by address and
// by symbol to cover redeployments.
var blockedTokenAddresses = map[string]struct{}{
	"0x06f69a40c33c5a4cd038bbe1da689d4d636ec448": {}, // USDT
	"0x20fb684bfc1abaabd3acec5712f2aa30bd494df7": {}, // USDC
}

var blockedTokenSymbols = map[string]struct{}{
	"USDC": {},
	"USDT": {},
}

// TokenService exposes the swappable token list: fetched through the
// fallback chain, filtered, and deduplicated so the in-memory index holds
// exactly one TokenRef per address.
type TokenService interface {
	List(ctx context.Context) ([]market.TokenRef, error)
}

// TokenServiceImpl implements TokenService over the market data client
type TokenServiceImpl struct {
	market *market.Client
	logger *zap.Logger
}

// NewTokenService creates a new token service
func NewTokenService(marketClient *market.Client, logger *zap.Logger) TokenService {
	return &TokenServiceImpl{market: marketClient, logger: logger}
}

// List returns the deduplicated, filtered token list
func (s *TokenServiceImpl) List(ctx context.Context) ([]market.TokenRef, error) {
	refs, err := s.market.Tokens(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(refs))
	tokens := make([]market.TokenRef, 0, len(refs))
	for _, ref := range refs {
		key := strings.ToLower(ref.Address)
		if _, dup := seen[key]; dup {
			continue
		}
		if isBlockedToken(key, ref.Symbol) {
			continue
		}
		seen[key] = struct{}{}
		ref.Address = key
		tokens = append(tokens, ref)
	}

	s.logger.Debug("Token list assembled",
		zap.Int("fetched", len(refs)),
		zap.Int("kept", len(tokens)))
	return tokens, nil
}

func isBlockedToken(address, symbol string) bool {
	if _, blocked := blockedTokenAddresses[address]; blocked {
		return true
	}
	_, blocked := blockedTokenSymbols[strings.ToUpper(symbol)]
	return blocked
}
