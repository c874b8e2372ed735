package http

import (
	"encoding/json"
	"fmt"
	"time"

	apperrors "guardswap/internal/shared/errors"
	"guardswap/internal/usecases"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

type quoteResponse struct {
	TokenIn               string  `json:"token_in"`
	TokenOut              string  `json:"token_out"`
	AmountIn              float64 `json:"amount_in"`
	EstimatedOut          float64 `json:"estimated_out"`
	Tolerance             string  `json:"tolerance"`
	EffectiveTolerancePct float64 `json:"effective_tolerance_pct"`
	MinOutHuman           float64 `json:"min_out_human"`
	MinOut                string  `json:"min_out"`
	FeeDisclosure         string  `json:"fee"`
}

// Quote handles GET /quote?src=&dst=&amount=&slippage=. It is recomputed
// on every call; superseded results are simply discarded by the caller.
func (h *Handler) Quote(ctx *fasthttp.RequestCtx) {
	src := string(ctx.QueryArgs().Peek("src"))
	dst := string(ctx.QueryArgs().Peek("dst"))
	amount := string(ctx.QueryArgs().Peek("amount"))

	tolerance, err := usecases.ParseSlippage(string(ctx.QueryArgs().Peek("slippage")), h.config.Swap.DefaultSlippagePct)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	result, err := h.quotes.Quote(ctx, src, dst, amount, tolerance)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	h.writeJSON(ctx, quoteResponse{
		TokenIn:               result.TokenIn,
		TokenOut:              result.TokenOut,
		AmountIn:              result.AmountIn,
		EstimatedOut:          result.EstimatedOut,
		Tolerance:             result.Tolerance.String(),
		EffectiveTolerancePct: result.EffectiveTolerancePct,
		MinOutHuman:           result.MinOutHuman,
		MinOut:                result.MinOut.String(),
		FeeDisclosure:         result.FeeDisclosure,
	})
}

type swapRequestBody struct {
	TokenIn    string `json:"token_in"`
	TokenOut   string `json:"token_out"`
	Amount     string `json:"amount"`
	Slippage   string `json:"slippage"`
	ConvertNow bool   `json:"convert_now"`
}

type swapResponse struct {
	TxHash        string `json:"tx_hash"`
	ExplorerTxURL string `json:"explorer_tx_url"`
	AmountIn      string `json:"amount_in"`
	MinOut        string `json:"min_out"`
	Approved      bool   `json:"approved"`
}

// Swap handles POST /swap. One swap at a time: a second request while one
// is in flight resolves immediately with BUSY.
func (h *Handler) Swap(ctx *fasthttp.RequestCtx) {
	startTime := time.Now()

	if !ctx.IsPost() {
		ctx.SetStatusCode(fasthttp.StatusMethodNotAllowed)
		return
	}

	var body swapRequestBody
	if err := json.Unmarshal(ctx.PostBody(), &body); err != nil {
		h.handleError(ctx, fmt.Errorf("%w: malformed request body", apperrors.ErrValidation))
		return
	}

	tolerance, err := usecases.ParseSlippage(body.Slippage, h.config.Swap.DefaultSlippagePct)
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	outcome, err := h.swaps.Execute(ctx, usecases.SwapRequest{
		TokenIn:    body.TokenIn,
		TokenOut:   body.TokenOut,
		AmountIn:   body.Amount,
		Tolerance:  tolerance,
		ConvertNow: body.ConvertNow,
	})
	if err != nil {
		h.handleError(ctx, err)
		return
	}

	h.logger.Info("Swap completed",
		zap.String("tx_hash", outcome.TxHash),
		zap.Duration("duration", time.Since(startTime)))

	h.writeJSON(ctx, swapResponse{
		TxHash:        outcome.TxHash,
		ExplorerTxURL: outcome.ExplorerTxURL,
		AmountIn:      outcome.AmountIn.String(),
		MinOut:        outcome.MinOut.String(),
		Approved:      outcome.Approved,
	})
}

type statusResponse struct {
	State     string `json:"state"`
	Connected bool   `json:"connected"`
	Address   string `json:"address,omitempty"`
}

// SwapStatus handles GET /swap/status: the orchestrator state and wallet
// session for the presentation layer to render.
func (h *Handler) SwapStatus(ctx *fasthttp.RequestCtx) {
	session := h.swaps.Session()
	resp := statusResponse{
		State:     h.swaps.State().String(),
		Connected: session.Connected,
	}
	if session.Connected {
		resp.Address = session.Address.Hex()
	}
	h.writeJSON(ctx, resp)
}
