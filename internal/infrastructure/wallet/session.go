package wallet

import (
	"context"
	"fmt"
	"sync"

	apperrors "guardswap/internal/shared/errors"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// Session is the wallet connection state for this process. It is never
// persisted; an explicit disconnect resets it.
type Session struct {
	Address   common.Address
	Connected bool
}

// Manager owns the wallet connection lifecycle: connect, chain
// verification with auto-switch/auto-add, and disconnect. The connect
// guard is wallet-level concurrency, independent of the swap lock.
type Manager struct {
	provider Provider
	chain    ChainParams
	chainID  uint64
	logger   *zap.Logger

	mu         sync.Mutex
	connecting bool
	session    Session
}

// NewManager creates a session manager. provider may be nil when no wallet
// endpoint is configured; every connect attempt then fails with a
// no-wallet error.
func NewManager(provider Provider, chainID uint64, chain ChainParams, logger *zap.Logger) *Manager {
	return &Manager{
		provider: provider,
		chain:    chain,
		chainID:  chainID,
		logger:   logger,
	}
}

// Connect requests account access from the wallet. A second call while one
// request is outstanding resolves immediately with a busy error and does
// not touch session state.
func (m *Manager) Connect(ctx context.Context) (Session, error) {
	m.mu.Lock()
	if m.connecting {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: eth_requestAccounts already pending", apperrors.ErrBusy)
	}
	if m.provider == nil {
		m.mu.Unlock()
		return Session{}, fmt.Errorf("%w: no wallet endpoint configured", apperrors.ErrNoWalletFound)
	}
	m.connecting = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.connecting = false
		m.mu.Unlock()
	}()

	accounts, err := m.provider.RequestAccounts(ctx)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", apperrors.ErrNoWalletFound, err)
	}
	if len(accounts) == 0 {
		return Session{}, fmt.Errorf("%w: wallet returned no accounts", apperrors.ErrNoWalletFound)
	}

	session := Session{Address: accounts[0], Connected: true}

	m.mu.Lock()
	m.session = session
	m.mu.Unlock()

	m.logger.Info("Wallet connected", zap.String("address", session.Address.Hex()))
	return session, nil
}

// EnsureChain verifies the wallet is on the target chain and switches it if
// not. An unrecognized chain is added with the canonical deployment
// metadata first; any other switch failure propagates as a network switch
// error.
func (m *Manager) EnsureChain(ctx context.Context) error {
	if m.provider == nil {
		return fmt.Errorf("%w: no wallet endpoint configured", apperrors.ErrNoWalletFound)
	}

	current, err := m.provider.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: unable to read active chain: %v", apperrors.ErrNetworkSwitchFailed, err)
	}
	if current == m.chainID {
		return nil
	}

	m.logger.Info("Switching wallet network",
		zap.Uint64("from_chain", current),
		zap.Uint64("to_chain", m.chainID))

	err = m.provider.SwitchChain(ctx, ChainIDHex(m.chainID))
	if err == nil {
		return nil
	}

	if IsUnrecognizedChain(err) {
		if addErr := m.provider.AddChain(ctx, m.chain); addErr != nil {
			return fmt.Errorf("%w: unable to add chain: %v", apperrors.ErrNetworkSwitchFailed, addErr)
		}
		return nil
	}

	return fmt.Errorf("%w: %v", apperrors.ErrNetworkSwitchFailed, err)
}

// Session returns the current session state.
func (m *Manager) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Disconnect clears the local session only. Wallet-side permission cannot
// be revoked from here; the wallet keeps the site authorized until the
// user removes it there.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.session = Session{}
	m.mu.Unlock()
	m.logger.Info("Wallet disconnected")
}
