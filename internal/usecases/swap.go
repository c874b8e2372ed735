package usecases

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"guardswap/internal/infrastructure/erc20"
	"guardswap/internal/infrastructure/guard"
	"guardswap/internal/infrastructure/wallet"
	apperrors "guardswap/internal/shared/errors"
	"guardswap/internal/shared/utils"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SwapState is the orchestrator's position in one swap attempt. Terminal
// states always return to Idle with the concurrency lock released.
type SwapState int32

const (
	StateIdle SwapState = iota
	StateConnecting
	StateSwitchingNetwork
	StateValidating
	StateCheckingAllowance
	StateApproving
	StateSwapping
	StateSettling
)

func (s SwapState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateSwitchingNetwork:
		return "switching_network"
	case StateValidating:
		return "validating"
	case StateCheckingAllowance:
		return "checking_allowance"
	case StateApproving:
		return "approving"
	case StateSwapping:
		return "swapping"
	case StateSettling:
		return "settling"
	default:
		return "unknown"
	}
}

// SwapRequest is one user-triggered swap attempt.
type SwapRequest struct {
	TokenIn    string
	TokenOut   string
	AmountIn   string
	Tolerance  SlippageTolerance
	ConvertNow bool
}

// SwapOutcome is the settled result of a successful swap: the transaction
// reference and its explorer link.
type SwapOutcome struct {
	TxHash        string
	ExplorerTxURL string
	AmountIn      *big.Int
	MinOut        *big.Int
	Approved      bool
}

// SwapService drives the full swap flow: connect, network check, input
// validation, balance/allowance check, conditional approval, minimum-output
// derivation and the guarded swap submission. At most one swap runs at a
// time; a second attempt resolves immediately with a busy error.
type SwapService interface {
	// Execute runs one swap attempt end to end
	Execute(ctx context.Context, req SwapRequest) (*SwapOutcome, error)

	// State returns the orchestrator's current state
	State() SwapState

	// Session returns the wallet session state
	Session() wallet.Session
}

// SwapServiceImpl implements the swap orchestrator
type SwapServiceImpl struct {
	sessions *wallet.Manager
	tokens   erc20.ERC20Client
	guard    guard.GuardClient
	quotes   QuoteService
	logger   *zap.Logger

	guardAddress   common.Address
	explorerWebURL string

	swapping atomic.Bool
	state    atomic.Int32
}

// NewSwapService creates a new swap orchestrator
func NewSwapService(
	sessions *wallet.Manager,
	tokens erc20.ERC20Client,
	guardClient guard.GuardClient,
	quotes QuoteService,
	guardAddress common.Address,
	explorerWebURL string,
	logger *zap.Logger,
) SwapService {
	return &SwapServiceImpl{
		sessions:       sessions,
		tokens:         tokens,
		guard:          guardClient,
		quotes:         quotes,
		guardAddress:   guardAddress,
		explorerWebURL: strings.TrimRight(explorerWebURL, "/"),
		logger:         logger,
	}
}

func (s *SwapServiceImpl) setState(state SwapState) {
	s.state.Store(int32(state))
	s.logger.Debug("Swap state changed", zap.String("state", state.String()))
}

// State returns the orchestrator's current state
func (s *SwapServiceImpl) State() SwapState {
	return SwapState(s.state.Load())
}

// Session returns the wallet session state
func (s *SwapServiceImpl) Session() wallet.Session {
	return s.sessions.Session()
}

// Execute runs one swap attempt end to end. The steps execute strictly
// sequentially. A leaked lock would disable swapping until restart, so the
// lock and state are restored on every exit path.
func (s *SwapServiceImpl) Execute(ctx context.Context, req SwapRequest) (*SwapOutcome, error) {
	if !s.swapping.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("%w: a swap is already in flight", apperrors.ErrBusy)
	}

	tokenIn := strings.ToLower(strings.TrimSpace(req.TokenIn))
	tokenOut := strings.ToLower(strings.TrimSpace(req.TokenOut))

	defer func() {
		s.setState(StateSettling)
		s.settle(tokenIn)
		s.setState(StateIdle)
		s.swapping.Store(false)
	}()

	s.setState(StateConnecting)
	session, err := s.sessions.Connect(ctx)
	if err != nil {
		return nil, err
	}

	s.setState(StateSwitchingNetwork)
	if err := s.sessions.EnsureChain(ctx); err != nil {
		return nil, err
	}

	s.setState(StateValidating)
	if !utils.IsAddress(tokenIn) || !utils.IsAddress(tokenOut) {
		return nil, fmt.Errorf("%w: invalid token address", apperrors.ErrInvalidInput)
	}
	if tokenIn == tokenOut {
		return nil, fmt.Errorf("%w: token in and token out are the same", apperrors.ErrInvalidInput)
	}
	amountHuman := strings.TrimSpace(req.AmountIn)
	amountFloat, err := strconv.ParseFloat(amountHuman, 64)
	if err != nil || math.IsNaN(amountFloat) || math.IsInf(amountFloat, 0) || amountFloat <= 0 {
		return nil, fmt.Errorf("%w: amount must be a positive number", apperrors.ErrInvalidInput)
	}

	in := common.HexToAddress(tokenIn)
	out := common.HexToAddress(tokenOut)

	s.setState(StateCheckingAllowance)
	decimalsIn, err := s.tokens.Decimals(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read token decimals: %v", apperrors.ErrExternalService, err)
	}
	amountIn, err := utils.ToBaseUnits(amountHuman, decimalsIn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	// A fractional amount below the token's resolution truncates to zero
	// base units; reject it here rather than submit a zero-amount swap.
	if amountIn.Sign() == 0 {
		return nil, fmt.Errorf("%w: amount %s is below the token's %d-decimal resolution",
			apperrors.ErrInvalidInput, amountHuman, decimalsIn)
	}

	var balance, allowance *big.Int
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var gErr error
		balance, gErr = s.tokens.BalanceOf(gCtx, in, session.Address)
		return gErr
	})
	g.Go(func() error {
		var gErr error
		allowance, gErr = s.tokens.Allowance(gCtx, in, session.Address, s.guardAddress)
		return gErr
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: unable to read balance and allowance: %v", apperrors.ErrExternalService, err)
	}

	if balance.Cmp(amountIn) < 0 {
		return nil, fmt.Errorf("%w: have %s, need %s base units",
			apperrors.ErrInsufficientBalance, balance.String(), amountIn.String())
	}

	approved := false
	if allowance.Cmp(amountIn) < 0 {
		s.setState(StateApproving)

		// Some tokens reject a non-zero to non-zero allowance change, so an
		// existing allowance is reset first. The reset is best-effort; only
		// the raise that follows has to succeed.
		if allowance.Sign() > 0 {
			if _, resetErr := s.tokens.Approve(ctx, in, s.guardAddress, new(big.Int), session.Address); resetErr != nil {
				s.logger.Warn("Allowance zero-reset failed, continuing",
					zap.String("token", tokenIn),
					zap.Error(resetErr))
			}
		}

		// Approve the maximum so future swaps of this token skip the step.
		if _, err := s.tokens.Approve(ctx, in, s.guardAddress, utils.MaxUint256, session.Address); err != nil {
			return nil, err
		}
		approved = true
	}

	decimalsOut, err := s.tokens.Decimals(ctx, out)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read token decimals: %v", apperrors.ErrExternalService, err)
	}
	minOut, err := s.quotes.MinOutForSwap(ctx, tokenIn, tokenOut, amountHuman, req.Tolerance, decimalsOut)
	if err != nil {
		return nil, err
	}

	s.setState(StateSwapping)
	receipt, err := s.guard.SwapViaGuard(ctx, session.Address, in, out, amountIn, minOut, session.Address, req.ConvertNow)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Swap settled",
		zap.String("tx_hash", receipt.TxHash.Hex()),
		zap.String("token_in", tokenIn),
		zap.String("token_out", tokenOut),
		zap.String("amount_in", amountIn.String()),
		zap.String("min_out", minOut.String()))

	return &SwapOutcome{
		TxHash:        receipt.TxHash.Hex(),
		ExplorerTxURL: fmt.Sprintf("%s/tx/%s", s.explorerWebURL, receipt.TxHash.Hex()),
		AmountIn:      amountIn,
		MinOut:        minOut,
		Approved:      approved,
	}, nil
}

// settle re-reads balance and allowance after an attempt, success or
// failure, so callers observe current on-chain state. Best-effort with its
// own deadline because the attempt's context may already be done.
func (s *SwapServiceImpl) settle(tokenIn string) {
	session := s.sessions.Session()
	if !session.Connected || !utils.IsAddress(tokenIn) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token := common.HexToAddress(tokenIn)
	balance, err := s.tokens.BalanceOf(ctx, token, session.Address)
	if err != nil {
		s.logger.Debug("Post-swap balance refresh failed", zap.Error(err))
		return
	}
	allowance, err := s.tokens.Allowance(ctx, token, session.Address, s.guardAddress)
	if err != nil {
		s.logger.Debug("Post-swap allowance refresh failed", zap.Error(err))
		return
	}

	s.logger.Debug("Post-swap state refreshed",
		zap.String("token", tokenIn),
		zap.String("balance", balance.String()),
		zap.String("allowance", allowance.String()))
}
