package http

import (
	"encoding/json"
	"fmt"
	"strings"

	"guardswap/internal/infrastructure/market"
	"guardswap/internal/shared/config"
	apperrors "guardswap/internal/shared/errors"
	"guardswap/internal/shared/utils"
	"guardswap/internal/usecases"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Handler binds the HTTP surface to the core services: the data-proxy
// endpoints the page shell reads, and the quote/swap operations.
type Handler struct {
	tokens usecases.TokenService
	quotes usecases.QuoteService
	swaps  usecases.SwapService
	market *market.Client
	logger *zap.Logger
	config *config.Config
}

func NewHandler(
	tokens usecases.TokenService,
	quotes usecases.QuoteService,
	swaps usecases.SwapService,
	marketClient *market.Client,
	logger *zap.Logger,
	cfg *config.Config,
) *Handler {
	return &Handler{
		tokens: tokens,
		quotes: quotes,
		swaps:  swaps,
		market: marketClient,
		logger: logger,
		config: cfg,
	}
}

// GetRateLimitConfig implements RateLimitable interface
func (h *Handler) GetRateLimitConfig() HTTPRateLimitConfig {
	return HTTPRateLimitConfig{
		RequestsPerMinute: h.config.RateLimit.RequestsPerMinute,
	}
}

func (h *Handler) writeJSON(ctx *fasthttp.RequestCtx, v interface{}) {
	ctx.SetContentType("application/json")
	if err := json.NewEncoder(ctx).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", zap.Error(err))
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	}
}

// addressFromPath pulls the trailing path segment and validates it as a
// token address.
func addressFromPath(ctx *fasthttp.RequestCtx) (string, error) {
	path := string(ctx.Path())
	address := strings.ToLower(strings.TrimSpace(path[strings.LastIndexByte(path, '/')+1:]))
	if !utils.IsAddress(address) {
		return "", fmt.Errorf("%w: invalid address %q", apperrors.ErrValidation, address)
	}
	return address, nil
}

// Tokens handles GET /api/tokens
func (h *Handler) Tokens(ctx *fasthttp.RequestCtx) {
	list, err := h.tokens.List(ctx)
	if err != nil {
		h.handleError(ctx, err)
		return
	}
	h.writeJSON(ctx, map[string]interface{}{"items": list})
}

// Market handles GET /api/market/{address}. Market data is best-effort:
// the response is always 200, degraded snapshots carry the flag.
func (h *Handler) Market(ctx *fasthttp.RequestCtx) {
	address, err := addressFromPath(ctx)
	if err != nil {
		h.handleError(ctx, err)
		return
	}
	h.writeJSON(ctx, h.market.FetchMarket(ctx, address))
}

// Pools handles GET /api/pools/{address}
func (h *Handler) Pools(ctx *fasthttp.RequestCtx) {
	address, err := addressFromPath(ctx)
	if err != nil {
		h.handleError(ctx, err)
		return
	}
	pools := h.market.Pools(ctx, address)
	if pools == nil {
		pools = []market.Pool{}
	}
	h.writeJSON(ctx, map[string]interface{}{"pools": pools})
}

// TokenInfo handles GET /api/token/{address}: supply and holder data.
func (h *Handler) TokenInfo(ctx *fasthttp.RequestCtx) {
	address, err := addressFromPath(ctx)
	if err != nil {
		h.handleError(ctx, err)
		return
	}
	h.writeJSON(ctx, h.market.Supply(ctx, address))
}

// WalletHoldings handles GET /api/wallet?address=0x...
func (h *Handler) WalletHoldings(ctx *fasthttp.RequestCtx) {
	address := strings.ToLower(strings.TrimSpace(string(ctx.QueryArgs().Peek("address"))))
	if !utils.IsAddress(address) {
		h.handleError(ctx, fmt.Errorf("%w: invalid address %q", apperrors.ErrValidation, address))
		return
	}
	holdings, err := h.market.WalletHoldings(ctx, address)
	if err != nil {
		h.handleError(ctx, err)
		return
	}
	if holdings == nil {
		holdings = []market.Holding{}
	}
	h.writeJSON(ctx, map[string]interface{}{"items": holdings})
}
