package erc20

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"guardswap/internal/infrastructure/ethereum"
	"guardswap/internal/infrastructure/wallet"
	apperrors "guardswap/internal/shared/errors"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

const erc20ABIJSON = `[
	{"name":"decimals","type":"function","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
	{"name":"balanceOf","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"allowance","type":"function","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"name":"approve","type":"function","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]}
]`

// ERC20Client defines the token contract accessor: on-chain reads of
// decimals, balance and allowance, plus approval submission. Allowance is
// never cached across calls; only the immutable decimals value is.
type ERC20Client interface {
	// Decimals reads the token's decimal count, cached for the session
	Decimals(ctx context.Context, token common.Address) (uint8, error)

	// BalanceOf reads the owner's balance in base units
	BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error)

	// Allowance reads the spender's remaining allowance in base units
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)

	// Approve submits an approval transaction through the wallet provider
	// and blocks until it is mined
	Approve(ctx context.Context, token, spender common.Address, amount *big.Int, from common.Address) (*types.Receipt, error)
}

// ERC20ClientImpl implements ERC20Client on top of the pooled Ethereum
// client for reads and the wallet provider for writes
type ERC20ClientImpl struct {
	client   ethereum.EthereumClient
	provider wallet.Provider
	abi      abi.ABI
	logger   *zap.Logger

	mu       sync.RWMutex
	decimals map[common.Address]uint8
}

// NewERC20Client creates a new ERC-20 token accessor
func NewERC20Client(client ethereum.EthereumClient, provider wallet.Provider, logger *zap.Logger) (ERC20Client, error) {
	parsed, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ERC-20 ABI: %w", err)
	}
	return &ERC20ClientImpl{
		client:   client,
		provider: provider,
		abi:      parsed,
		logger:   logger,
		decimals: make(map[common.Address]uint8),
	}, nil
}

func (c *ERC20ClientImpl) call(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s call: %w", method, err)
	}

	out, err := c.client.CallContract(ctx, goethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	values, err := c.abi.Unpack(method, out)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s result: %w", method, err)
	}
	return values, nil
}

// Decimals reads the token's decimal count, cached for the session
func (c *ERC20ClientImpl) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	c.mu.RLock()
	cached, ok := c.decimals[token]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	values, err := c.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type for token %s", token.Hex())
	}

	c.mu.Lock()
	c.decimals[token] = decimals
	c.mu.Unlock()

	return decimals, nil
}

// BalanceOf reads the owner's balance in base units
func (c *ERC20ClientImpl) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	values, err := c.call(ctx, token, "balanceOf", owner)
	if err != nil {
		return nil, err
	}
	balance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf type for token %s", token.Hex())
	}
	return balance, nil
}

// Allowance reads the spender's remaining allowance in base units
func (c *ERC20ClientImpl) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	values, err := c.call(ctx, token, "allowance", owner, spender)
	if err != nil {
		return nil, err
	}
	allowance, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected allowance type for token %s", token.Hex())
	}
	return allowance, nil
}

// Approve submits an approval transaction through the wallet provider and
// blocks until it is mined. A reverted or unminable approval surfaces as a
// chain transaction failure.
func (c *ERC20ClientImpl) Approve(ctx context.Context, token, spender common.Address, amount *big.Int, from common.Address) (*types.Receipt, error) {
	if c.provider == nil {
		return nil, fmt.Errorf("%w: no wallet endpoint configured", apperrors.ErrNoWalletFound)
	}

	data, err := c.abi.Pack("approve", spender, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack approve call: %w", err)
	}

	hash, err := c.provider.SendTransaction(ctx, wallet.TxRequest{
		From: from,
		To:   token,
		Data: data,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: approval rejected: %v", apperrors.ErrChainTransactionFailed, err)
	}

	c.logger.Info("Approval submitted",
		zap.String("token", token.Hex()),
		zap.String("spender", spender.Hex()),
		zap.String("tx_hash", hash.Hex()))

	receipt, err := ethereum.WaitMined(ctx, c.client, hash, c.logger)
	if err != nil {
		return nil, fmt.Errorf("%w: approval not mined: %v", apperrors.ErrChainTransactionFailed, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: approval reverted in tx %s", apperrors.ErrChainTransactionFailed, hash.Hex())
	}
	return receipt, nil
}
