package ethereum

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

// WaitMined polls for the receipt of a submitted transaction until it is
// mined or ctx is done. No confirmation timeout is imposed here: a stuck
// transaction keeps the caller suspended, which is the accepted behavior
// for wallet-submitted transactions.
func WaitMined(ctx context.Context, client EthereumClient, txHash common.Hash, logger *zap.Logger) (*types.Receipt, error) {
	operation := func() (*types.Receipt, error) {
		receipt, err := client.TransactionReceipt(ctx, txHash)
		if err != nil {
			if errors.Is(err, ErrReceiptNotFound) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return receipt, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second

	notify := func(err error, duration time.Duration) {
		logger.Debug("Transaction not mined yet",
			zap.String("tx_hash", txHash.Hex()),
			zap.Duration("backoff", duration),
			zap.Error(err))
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithNotify(notify))
}
