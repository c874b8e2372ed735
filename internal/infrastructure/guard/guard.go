package guard

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"guardswap/internal/infrastructure/ethereum"
	"guardswap/internal/infrastructure/wallet"
	apperrors "guardswap/internal/shared/errors"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const guardABIJSON = `[
	{"name":"swapViaGuard","type":"function","stateMutability":"nonpayable",
	 "inputs":[
		{"name":"tokenIn","type":"address"},
		{"name":"tokenOut","type":"address"},
		{"name":"amountIn","type":"uint256"},
		{"name":"minOut","type":"uint256"},
		{"name":"recipient","type":"address"},
		{"name":"convertNow","type":"bool"}],
	 "outputs":[{"name":"","type":"uint256"}]}
]`

// SwapReceipt is the settled outcome of a guard swap: the transaction
// reference the caller can link to on the explorer plus the mined receipt.
type SwapReceipt struct {
	TxHash  common.Hash
	Receipt *types.Receipt
}

// GuardClient submits swaps to the on-chain guard contract, which enforces
// the caller-specified minimum output.
type GuardClient interface {
	// SwapViaGuard submits the swap with no prior gas estimation and
	// blocks until it is mined
	SwapViaGuard(ctx context.Context, from, tokenIn, tokenOut common.Address, amountIn, minOut *big.Int, recipient common.Address, convertNow bool) (*SwapReceipt, error)
}

// GuardClientImpl implements GuardClient against a fixed guard deployment
type GuardClientImpl struct {
	address  common.Address
	client   ethereum.EthereumClient
	provider wallet.Provider
	abi      abi.ABI
	logger   *zap.Logger
}

// NewGuardClient creates a client for the guard contract at address
func NewGuardClient(address common.Address, client ethereum.EthereumClient, provider wallet.Provider, logger *zap.Logger) (GuardClient, error) {
	parsed, err := abi.JSON(strings.NewReader(guardABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse guard ABI: %w", err)
	}
	return &GuardClientImpl{
		address:  address,
		client:   client,
		provider: provider,
		abi:      parsed,
		logger:   logger,
	}, nil
}

// SwapViaGuard submits the swap transaction directly, without gas
// estimation, and waits for it to be mined. A revert surfaces as a chain
// transaction failure with the revert reason when it can be recovered.
func (c *GuardClientImpl) SwapViaGuard(ctx context.Context, from, tokenIn, tokenOut common.Address, amountIn, minOut *big.Int, recipient common.Address, convertNow bool) (*SwapReceipt, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("%w: no wallet endpoint configured", apperrors.ErrNoWalletFound)
	}

	data, err := c.abi.Pack("swapViaGuard", tokenIn, tokenOut, amountIn, minOut, recipient, convertNow)
	if err != nil {
		return nil, fmt.Errorf("failed to pack swapViaGuard call: %w", err)
	}

	hash, err := c.provider.SendTransaction(ctx, wallet.TxRequest{
		From: from,
		To:   c.address,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: swap rejected: %v", apperrors.ErrChainTransactionFailed, err)
	}

	c.logger.Info("Swap submitted",
		zap.String("token_in", tokenIn.Hex()),
		zap.String("token_out", tokenOut.Hex()),
		zap.String("amount_in", amountIn.String()),
		zap.String("min_out", minOut.String()),
		zap.String("tx_hash", hash.Hex()))

	receipt, err := ethereum.WaitMined(ctx, c.client, hash, c.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: swap not mined: %v", apperrors.ErrChainTransactionFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		reason := c.revertReason(ctx, from, data, receipt.BlockNumber)
		if reason != "" {
			return nil, fmt.Errorf("%w: swap reverted in tx %s: %s", apperrors.ErrChainTransactionFailed, hash.Hex(), reason)
		}
		return nil, fmt.Errorf("%w: swap reverted in tx %s", apperrors.ErrChainTransactionFailed, hash.Hex())
	}

	return &SwapReceipt{TxHash: hash, Receipt: receipt}, nil
}

// revertReason replays the failed call at its block to recover the revert
// reason. Best-effort: an empty string means the node did not give one.
func (c *GuardClientImpl) revertReason(ctx context.Context, from common.Address, data []byte, blockNumber *big.Int) string {
	msg := goethereum.CallMsg{From: from, To: &c.address, Data: data}
	_, err := c.client.CallContract(ctx, msg, blockNumber)
	if err == nil {
		return ""
	}
	return err.Error()
}
