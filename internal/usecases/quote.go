package usecases

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"guardswap/internal/infrastructure/erc20"
	"guardswap/internal/infrastructure/market"
	apperrors "guardswap/internal/shared/errors"
	"guardswap/internal/shared/utils"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FeeDisclosure accompanies every computed tolerance: the protocol fee is
// additive to the user-selected slippage and always shown next to it.
const FeeDisclosure = "Fee: 0.2% per swap (0.1% to LP, 0.1% burn)"

// SlippageTolerance is the user-chosen maximum acceptable deviation between
// estimated and actual output. Unlimited means no minimum-output floor is
// enforced.
type SlippageTolerance struct {
	Unlimited bool
	Pct       float64
}

func (s SlippageTolerance) String() string {
	if s.Unlimited {
		return "unlimited"
	}
	return strconv.FormatFloat(s.Pct, 'f', -1, 64)
}

// ParseSlippage parses a user-facing slippage selection. "nolimit" and
// "unlimited" disable the floor; an empty value falls back to defaultPct.
func ParseSlippage(value string, defaultPct float64) (SlippageTolerance, error) {
	v := strings.TrimSpace(strings.ToLower(value))
	switch v {
	case "nolimit", "unlimited":
		return SlippageTolerance{Unlimited: true}, nil
	case "":
		return SlippageTolerance{Pct: defaultPct}, nil
	}
	pct, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 {
		return SlippageTolerance{}, fmt.Errorf("%w: invalid slippage tolerance %q", apperrors.ErrInvalidInput, value)
	}
	return SlippageTolerance{Pct: pct}, nil
}

// QuoteResult is derived purely from the current market snapshots and user
// input. MinOut is in tokenOut base units; it is zero when the tolerance
// is unlimited.
type QuoteResult struct {
	TokenIn               string
	TokenOut              string
	AmountIn              float64
	EstimatedOut          float64
	Tolerance             SlippageTolerance
	EffectiveTolerancePct float64
	MinOutHuman           float64
	MinOut                *big.Int
	FeeDisclosure         string
}

// ComputeQuote derives the estimated output and the slippage-protected
// minimum for a trade. The protocol fee is added on top of the
// user-selected tolerance, never multiplied into it. MinOut is rendered in
// tokenOut base units at outDecimals. A missing or zero price makes the
// quote unavailable; zero is never silently substituted.
func ComputeQuote(amountIn float64, priceIn, priceOut *float64, tolerance SlippageTolerance, feePct float64, outDecimals uint8) (*QuoteResult, error) {
	if amountIn <= 0 || math.IsNaN(amountIn) || math.IsInf(amountIn, 0) {
		return nil, fmt.Errorf("%w: no amount to quote", apperrors.ErrDataUnavailable)
	}
	if priceIn == nil || *priceIn <= 0 || priceOut == nil || *priceOut <= 0 {
		return nil, fmt.Errorf("%w: missing price for trade pair", apperrors.ErrDataUnavailable)
	}

	usdValue := amountIn * *priceIn
	estimatedOut := usdValue / *priceOut

	result := &QuoteResult{
		AmountIn:      amountIn,
		EstimatedOut:  estimatedOut,
		Tolerance:     tolerance,
		MinOut:        new(big.Int),
		FeeDisclosure: FeeDisclosure,
	}

	if tolerance.Unlimited {
		// No floor enforced; the fee is still disclosed.
		result.EffectiveTolerancePct = feePct
		return result, nil
	}

	effective := tolerance.Pct + feePct
	factor := 1 - effective/100
	if factor < 0 {
		factor = 0
	}
	result.EffectiveTolerancePct = effective
	result.MinOutHuman = estimatedOut * factor
	result.MinOut = minOutBaseUnits(result.MinOutHuman, outDecimals)
	return result, nil
}

// minOutBaseUnits converts a human minimum-output bound to tokenOut base
// units. Non-positive or non-finite bounds collapse to zero, the fully
// permissive floor.
func minOutBaseUnits(minOutHuman float64, outDecimals uint8) *big.Int {
	if math.IsNaN(minOutHuman) || math.IsInf(minOutHuman, 0) || minOutHuman <= 0 {
		return new(big.Int)
	}
	base, err := utils.ToBaseUnits(utils.FormatFloatAmount(minOutHuman, int(outDecimals)), outDecimals)
	if err != nil {
		return new(big.Int)
	}
	return base
}

// QuoteService owns the in-memory market snapshot index and quote
// computation for the UI-facing flow. Quotes are recomputed on every input
// change and never cached across a pair change; only the last estimated
// output per pair is kept for the swap path.
type QuoteService interface {
	// RefreshPair fetches market snapshots for both sides of a pair in
	// parallel and stores them in the index
	RefreshPair(ctx context.Context, tokenIn, tokenOut string)

	// Snapshot returns the cached snapshot for a token, nil when absent
	Snapshot(address string) *market.Snapshot

	// Quote computes the estimated output and minimum bound for a trade
	Quote(ctx context.Context, tokenIn, tokenOut, amountHuman string, tolerance SlippageTolerance) (*QuoteResult, error)

	// MinOutForSwap derives the base-unit minimum output for submission,
	// preferring the most recently cached estimate for the pair
	MinOutForSwap(ctx context.Context, tokenIn, tokenOut, amountHuman string, tolerance SlippageTolerance, outDecimals uint8) (*big.Int, error)
}

// QuoteServiceImpl implements QuoteService over the market data client,
// with the token accessor supplying tokenOut decimals for base-unit bounds
type QuoteServiceImpl struct {
	market *market.Client
	tokens erc20.ERC20Client
	logger *zap.Logger
	feePct float64

	mu        sync.RWMutex
	snapshots map[string]*market.Snapshot
	estimates map[string]float64
}

// NewQuoteService creates a new quote service
func NewQuoteService(marketClient *market.Client, tokens erc20.ERC20Client, feePct float64, logger *zap.Logger) QuoteService {
	return &QuoteServiceImpl{
		market:    marketClient,
		tokens:    tokens,
		logger:    logger,
		feePct:    feePct,
		snapshots: make(map[string]*market.Snapshot),
		estimates: make(map[string]float64),
	}
}

func pairKey(tokenIn, tokenOut string) string {
	return strings.ToLower(tokenIn) + ">" + strings.ToLower(tokenOut)
}

// RefreshPair fetches both snapshots concurrently; market fetches never
// fail, they degrade.
func (s *QuoteServiceImpl) RefreshPair(ctx context.Context, tokenIn, tokenOut string) {
	g, gCtx := errgroup.WithContext(ctx)
	results := make([]*market.Snapshot, 2)

	for i, addr := range []string{tokenIn, tokenOut} {
		g.Go(func() error {
			results[i] = s.market.FetchMarket(gCtx, strings.ToLower(addr))
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	for _, snapshot := range results {
		if snapshot != nil {
			s.snapshots[snapshot.Address] = snapshot
		}
	}
	s.mu.Unlock()
}

// Snapshot returns the cached snapshot for a token, nil when absent
func (s *QuoteServiceImpl) Snapshot(address string) *market.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshots[strings.ToLower(address)]
}

// Quote computes the estimated output and minimum bound for a trade from
// the cached snapshots, refreshing any missing side first.
func (s *QuoteServiceImpl) Quote(ctx context.Context, tokenIn, tokenOut, amountHuman string, tolerance SlippageTolerance) (*QuoteResult, error) {
	in := strings.ToLower(strings.TrimSpace(tokenIn))
	out := strings.ToLower(strings.TrimSpace(tokenOut))
	if !utils.IsAddress(in) || !utils.IsAddress(out) {
		return nil, fmt.Errorf("%w: invalid token address", apperrors.ErrInvalidInput)
	}

	amountIn, err := strconv.ParseFloat(strings.TrimSpace(amountHuman), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid amount %q", apperrors.ErrInvalidInput, amountHuman)
	}

	if s.Snapshot(in) == nil || s.Snapshot(out) == nil {
		s.RefreshPair(ctx, in, out)
	}

	snapIn := s.Snapshot(in)
	snapOut := s.Snapshot(out)
	if snapIn == nil || snapOut == nil || snapIn.Degraded || snapOut.Degraded {
		return nil, fmt.Errorf("%w: degraded market data for pair", apperrors.ErrDataUnavailable)
	}

	// Decimals are session-cached, so this is one chain read per token.
	outDecimals, err := s.tokens.Decimals(ctx, common.HexToAddress(out))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read token decimals: %v", apperrors.ErrExternalService, err)
	}

	result, err := ComputeQuote(amountIn, snapIn.Price, snapOut.Price, tolerance, s.feePct, outDecimals)
	if err != nil {
		return nil, err
	}
	result.TokenIn = in
	result.TokenOut = out

	s.mu.Lock()
	s.estimates[pairKey(in, out)] = result.EstimatedOut
	s.mu.Unlock()

	return result, nil
}

// MinOutForSwap derives the base-unit minimum output for submission. The
// estimate captured at quote-display time is reused when present; prices
// are only re-fetched when no estimate was ever computed for the pair.
func (s *QuoteServiceImpl) MinOutForSwap(ctx context.Context, tokenIn, tokenOut, amountHuman string, tolerance SlippageTolerance, outDecimals uint8) (*big.Int, error) {
	if tolerance.Unlimited {
		return new(big.Int), nil
	}

	s.mu.RLock()
	estimate, ok := s.estimates[pairKey(tokenIn, tokenOut)]
	s.mu.RUnlock()

	if !ok {
		result, err := s.Quote(ctx, tokenIn, tokenOut, amountHuman, tolerance)
		if err != nil {
			return nil, err
		}
		estimate = result.EstimatedOut
	}

	effective := tolerance.Pct + s.feePct
	factor := 1 - effective/100
	if factor < 0 {
		factor = 0
	}
	return minOutBaseUnits(estimate*factor, outDecimals), nil
}
