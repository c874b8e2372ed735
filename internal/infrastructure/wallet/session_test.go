package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	apperrors "guardswap/internal/shared/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeProvider struct {
	accounts    []common.Address
	accountsErr error
	chainID     uint64
	chainIDErr  error
	switchErr   error
	addErr      error

	switchCalls int
	addCalls    int
	blockUntil  chan struct{}
}

func (f *fakeProvider) RequestAccounts(ctx context.Context) ([]common.Address, error) {
	if f.blockUntil != nil {
		<-f.blockUntil
	}
	return f.accounts, f.accountsErr
}

func (f *fakeProvider) ChainID(ctx context.Context) (uint64, error) {
	return f.chainID, f.chainIDErr
}

func (f *fakeProvider) SwitchChain(ctx context.Context, chainIDHex string) error {
	f.switchCalls++
	return f.switchErr
}

func (f *fakeProvider) AddChain(ctx context.Context, params ChainParams) error {
	f.addCalls++
	return f.addErr
}

func (f *fakeProvider) SendTransaction(ctx context.Context, tx TxRequest) (common.Hash, error) {
	return common.Hash{}, errors.New("not implemented")
}

func (f *fakeProvider) Close() {}

type fakeRPCError struct {
	code int
}

func (e *fakeRPCError) Error() string  { return "rpc error" }
func (e *fakeRPCError) ErrorCode() int { return e.code }

func testChainParams() ChainParams {
	return ChainParams{
		ChainID:   ChainIDHex(97741),
		ChainName: "Pepe Unchained V2",
	}
}

func TestConnect_Success(t *testing.T) {
	address := common.HexToAddress("0x53859FAe789c92dceB8c9aF61b13e458C4313fe7")
	provider := &fakeProvider{accounts: []common.Address{address}}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	session, err := manager.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, session.Connected)
	assert.Equal(t, address, session.Address)
	assert.Equal(t, session, manager.Session())
}

func TestConnect_NoProvider(t *testing.T) {
	manager := NewManager(nil, 97741, testChainParams(), zap.NewNop())

	_, err := manager.Connect(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoWalletFound)
}

func TestConnect_NoAccounts(t *testing.T) {
	manager := NewManager(&fakeProvider{}, 97741, testChainParams(), zap.NewNop())

	_, err := manager.Connect(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNoWalletFound)
	assert.False(t, manager.Session().Connected)
}

func TestConnect_BusyWhilePending(t *testing.T) {
	release := make(chan struct{})
	provider := &fakeProvider{
		accounts:   []common.Address{common.HexToAddress("0x" + "11")},
		blockUntil: release,
	}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	firstDone := make(chan error, 1)
	go func() {
		_, err := manager.Connect(context.Background())
		firstDone <- err
	}()

	// Wait until the first connect holds the connecting flag.
	require.Eventually(t, func() bool {
		manager.mu.Lock()
		defer manager.mu.Unlock()
		return manager.connecting
	}, time.Second, time.Millisecond)

	_, err := manager.Connect(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrBusy)

	close(release)
	require.NoError(t, <-firstDone)

	// Once the first finishes, connecting again is allowed.
	_, err = manager.Connect(context.Background())
	require.NoError(t, err)
}

func TestEnsureChain_AlreadyOnTarget(t *testing.T) {
	provider := &fakeProvider{chainID: 97741}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	require.NoError(t, manager.EnsureChain(context.Background()))
	assert.Zero(t, provider.switchCalls)
}

func TestEnsureChain_Switches(t *testing.T) {
	provider := &fakeProvider{chainID: 1}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	require.NoError(t, manager.EnsureChain(context.Background()))
	assert.Equal(t, 1, provider.switchCalls)
	assert.Zero(t, provider.addCalls)
}

func TestEnsureChain_AddsUnrecognizedChain(t *testing.T) {
	provider := &fakeProvider{chainID: 1, switchErr: &fakeRPCError{code: 4902}}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	require.NoError(t, manager.EnsureChain(context.Background()))
	assert.Equal(t, 1, provider.switchCalls)
	assert.Equal(t, 1, provider.addCalls)
}

func TestEnsureChain_AddFails(t *testing.T) {
	provider := &fakeProvider{
		chainID:   1,
		switchErr: &fakeRPCError{code: 4902},
		addErr:    errors.New("user rejected"),
	}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	err := manager.EnsureChain(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNetworkSwitchFailed)
}

func TestEnsureChain_SwitchFails(t *testing.T) {
	provider := &fakeProvider{chainID: 1, switchErr: errors.New("user rejected")}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	err := manager.EnsureChain(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNetworkSwitchFailed)
	assert.Zero(t, provider.addCalls)
}

func TestEnsureChain_ChainIDReadFails(t *testing.T) {
	provider := &fakeProvider{chainIDErr: errors.New("connection refused")}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	err := manager.EnsureChain(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrNetworkSwitchFailed)
}

func TestDisconnect_ClearsLocalSession(t *testing.T) {
	address := common.HexToAddress("0x53859FAe789c92dceB8c9aF61b13e458C4313fe7")
	provider := &fakeProvider{accounts: []common.Address{address}}
	manager := NewManager(provider, 97741, testChainParams(), zap.NewNop())

	_, err := manager.Connect(context.Background())
	require.NoError(t, err)

	manager.Disconnect()
	assert.False(t, manager.Session().Connected)
	assert.Equal(t, common.Address{}, manager.Session().Address)
}

func TestIsUnrecognizedChain(t *testing.T) {
	assert.True(t, IsUnrecognizedChain(&fakeRPCError{code: 4902}))
	assert.False(t, IsUnrecognizedChain(&fakeRPCError{code: 4001}))
	assert.False(t, IsUnrecognizedChain(errors.New("plain")))
	assert.False(t, IsUnrecognizedChain(nil))
}

func TestChainIDHex(t *testing.T) {
	assert.Equal(t, "0x17dcd", ChainIDHex(97741))
	assert.Equal(t, "0x1", ChainIDHex(1))
}
