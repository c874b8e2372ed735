package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"
)

// EIP-3085/3326 error code returned when the wallet does not know the
// requested chain and it has to be added before switching.
const unrecognizedChainCode = 4902

// NativeCurrency describes the chain's native asset for wallet_addEthereumChain.
type NativeCurrency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// ChainParams is the canonical chain deployment metadata handed to the
// wallet when the target network is unknown to it.
type ChainParams struct {
	ChainID           string         `json:"chainId"`
	ChainName         string         `json:"chainName"`
	RPCURLs           []string       `json:"rpcUrls"`
	NativeCurrency    NativeCurrency `json:"nativeCurrency"`
	BlockExplorerURLs []string       `json:"blockExplorerUrls"`
}

// TxRequest is an eth_sendTransaction payload. The wallet provider owns the
// keys and signs; amounts are base-unit integers, never floats.
type TxRequest struct {
	From  common.Address
	To    common.Address
	Data  []byte
	Value *big.Int
}

// Provider is the wallet RPC surface the session manager and the swap path
// drive: account access, chain switching and transaction submission.
type Provider interface {
	RequestAccounts(ctx context.Context) ([]common.Address, error)
	ChainID(ctx context.Context) (uint64, error)
	SwitchChain(ctx context.Context, chainIDHex string) error
	AddChain(ctx context.Context, params ChainParams) error
	SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error)
	Close()
}

// RPCProvider implements Provider over a JSON-RPC connection to a wallet
// endpoint.
type RPCProvider struct {
	client *rpc.Client
	logger *zap.Logger
}

// NewRPCProvider dials the wallet endpoint. An empty URL means no wallet is
// available; callers get a nil Provider and the session manager maps that to
// a no-wallet error at connect time.
func NewRPCProvider(rawURL string, logger *zap.Logger) (*RPCProvider, error) {
	client, err := rpc.Dial(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial wallet endpoint: %w", err)
	}
	logger.Info("Connected to wallet provider", zap.String("url", rawURL))
	return &RPCProvider{client: client, logger: logger}, nil
}

func (p *RPCProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	var accounts []common.Address
	if err := p.client.CallContext(ctx, &accounts, "eth_requestAccounts"); err != nil {
		return nil, err
	}
	return accounts, nil
}

func (p *RPCProvider) ChainID(ctx context.Context) (uint64, error) {
	var result hexutil.Big
	if err := p.client.CallContext(ctx, &result, "eth_chainId"); err != nil {
		return 0, err
	}
	return result.ToInt().Uint64(), nil
}

func (p *RPCProvider) SwitchChain(ctx context.Context, chainIDHex string) error {
	param := struct {
		ChainID string `json:"chainId"`
	}{ChainID: chainIDHex}
	return p.client.CallContext(ctx, nil, "wallet_switchEthereumChain", param)
}

func (p *RPCProvider) AddChain(ctx context.Context, params ChainParams) error {
	return p.client.CallContext(ctx, nil, "wallet_addEthereumChain", params)
}

func (p *RPCProvider) SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error) {
	arg := map[string]interface{}{
		"from": tx.From,
		"to":   tx.To,
		"data": hexutil.Bytes(tx.Data),
	}
	if tx.Value != nil && tx.Value.Sign() > 0 {
		arg["value"] = (*hexutil.Big)(tx.Value)
	}

	var hash common.Hash
	if err := p.client.CallContext(ctx, &hash, "eth_sendTransaction", arg); err != nil {
		return common.Hash{}, err
	}
	return hash, nil
}

func (p *RPCProvider) Close() {
	p.client.Close()
}

// IsUnrecognizedChain reports whether err is the wallet telling us the
// target chain has to be added before it can be switched to.
func IsUnrecognizedChain(err error) bool {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode() == unrecognizedChainCode
	}
	return false
}

// ChainIDHex renders a numeric chain ID in the 0x-prefixed form the wallet
// RPC surface expects.
func ChainIDHex(chainID uint64) string {
	return fmt.Sprintf("0x%x", chainID)
}
