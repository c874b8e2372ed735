package utils

import (
	"math/big"
	"sync"
)

var (
	// MaxUint256 is the effectively-unlimited approval amount: approving it
	// once lets future swaps of the same token skip the approval step.
	MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

	GlobalBigIntPool = NewBigIntPool()
)

// BigIntPool provides a pool of reusable big.Int objects for memory optimization
type BigIntPool struct {
	pool sync.Pool
}

// NewBigIntPool creates a new BigInt pool
func NewBigIntPool() *BigIntPool {
	return &BigIntPool{
		pool: sync.Pool{
			New: func() interface{} {
				return new(big.Int)
			},
		},
	}
}

// Get retrieves a big.Int from the pool
func (p *BigIntPool) Get() *big.Int {
	return p.pool.Get().(*big.Int)
}

// Put returns a big.Int to the pool
func (p *BigIntPool) Put(x *big.Int) {
	if x != nil {
		x.SetInt64(0)
		p.pool.Put(x)
	}
}
