package ContractInteraction

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceManager tracks nonces locally to avoid a PendingNonceAt round trip per
// transaction. An address is seeded from the node the first time it is used.
type NonceManager struct {
	nonces map[common.Address]uint64
	lock   sync.Mutex
	fetch  func(ctx context.Context, address common.Address) (uint64, error)
}

// NewNonceManager creates a nonce manager seeded by fetch.
func NewNonceManager(fetch func(ctx context.Context, address common.Address) (uint64, error)) *NonceManager {
	return &NonceManager{
		nonces: make(map[common.Address]uint64),
		fetch:  fetch,
	}
}

// GetNonce gets the next nonce for an address and increments it
func (nm *NonceManager) GetNonce(ctx context.Context, address common.Address) (uint64, error) {
	nm.lock.Lock()
	defer nm.lock.Unlock()

	nonce, exists := nm.nonces[address]
	if !exists {
		var err error
		nonce, err = nm.fetch(ctx, address)
		if err != nil {
			return 0, err
		}
	}
	nm.nonces[address] = nonce + 1
	return nonce, nil
}

// ResetNonce resets the nonce for an address to a specific value
func (nm *NonceManager) ResetNonce(address common.Address, nonce uint64) {
	nm.lock.Lock()
	defer nm.lock.Unlock()
	nm.nonces[address] = nonce
}

// PeekNonce gets the current nonce without incrementing. ok is false when the
// address has not been seen yet.
func (nm *NonceManager) PeekNonce(address common.Address) (nonce uint64, ok bool) {
	nm.lock.Lock()
	defer nm.lock.Unlock()

	nonce, ok = nm.nonces[address]
	return nonce, ok
}
