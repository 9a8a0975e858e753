// Package amm implements a constant-product liquidity pool with a 0.3% swap
// fee. Pool values are never modified in place; every operation returns the
// pool as it exists after the operation.
package amm

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Fee parameters. The input amount credited to the curve is
// amountIn * feeNumerator / feeDenominator.
const (
	feeNumerator   = 997
	feeDenominator = 1000
)

// Pool represents the reserves and liquidity shares for an asset pair.
type Pool struct {
	Pair        string
	Asset0      asset.Symbol
	Asset1      asset.Symbol
	Address     common.Address
	Reserve0    *uint256.Int
	Reserve1    *uint256.Int
	TotalSupply *uint256.Int
	Shares      map[common.Address]*uint256.Int
}

// New constructs an empty pool for the pair of assets.
func New(asset0, asset1 asset.Symbol) Pool {
	pair := PairName(asset0, asset1)

	return Pool{
		Pair:        pair,
		Asset0:      asset0,
		Asset1:      asset1,
		Address:     AddressOf(pair),
		Reserve0:    new(uint256.Int),
		Reserve1:    new(uint256.Int),
		TotalSupply: new(uint256.Int),
		Shares:      make(map[common.Address]*uint256.Int),
	}
}

// PairName returns the identifier for the pair.
func PairName(asset0, asset1 asset.Symbol) string {
	return fmt.Sprintf("%s-%s", asset0, asset1)
}

// AddressOf derives the ledger address that holds the reserves of a pool.
func AddressOf(pair string) common.Address {
	return common.BytesToAddress(crypto.Keccak256([]byte("lyrion-pool:" + pair))[12:])
}

// Has reports whether the asset is one side of the pool.
func (p Pool) Has(sym asset.Symbol) bool {
	return sym == p.Asset0 || sym == p.Asset1
}

// Other returns the asset on the opposite side of the pool.
func (p Pool) Other(sym asset.Symbol) asset.Symbol {
	if sym == p.Asset0 {
		return p.Asset1
	}
	return p.Asset0
}

// SharesOf returns the liquidity shares held by the provider.
func (p Pool) SharesOf(provider common.Address) *uint256.Int {
	if v, exists := p.Shares[provider]; exists {
		return v.Clone()
	}
	return new(uint256.Int)
}

// Reserve returns the reserve held for the asset.
func (p Pool) Reserve(sym asset.Symbol) *uint256.Int {
	if sym == p.Asset0 {
		return p.Reserve0.Clone()
	}
	return p.Reserve1.Clone()
}

// Clone returns a deep copy of the pool.
func (p Pool) Clone() Pool {
	p.Reserve0 = p.Reserve0.Clone()
	p.Reserve1 = p.Reserve1.Clone()
	p.TotalSupply = p.TotalSupply.Clone()
	p.Shares = p.copyShares()
	return p
}

// =============================================================================

// Quote returns the output amount for swapping amountIn against the
// reserves, rounded down.
func Quote(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, fault.New(fault.InsufficientLiquidity, "pool has no reserves")
	}

	inWithFee, overflow := new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(feeNumerator))
	if overflow {
		return nil, fault.New(fault.InternalFault, "swap input %s overflows", amountIn.Dec())
	}

	denominator, overflow := new(uint256.Int).MulOverflow(reserveIn, uint256.NewInt(feeDenominator))
	if overflow {
		return nil, fault.New(fault.InternalFault, "reserve %s overflows", reserveIn.Dec())
	}
	if _, overflow := denominator.AddOverflow(denominator, inWithFee); overflow {
		return nil, fault.New(fault.InternalFault, "swap denominator overflows")
	}

	out, overflow := new(uint256.Int).MulDivOverflow(inWithFee, reserveOut, denominator)
	if overflow {
		return nil, fault.New(fault.InternalFault, "swap output overflows")
	}

	return out, nil
}

// Quote returns the output amount for swapping amountIn of assetIn.
func (p Pool) Quote(assetIn asset.Symbol, amountIn *uint256.Int) (*uint256.Int, error) {
	if !p.Has(assetIn) {
		return nil, fault.New(fault.InvalidTransaction, "asset %s is not part of pool %s", assetIn, p.Pair)
	}
	return Quote(amountIn, p.Reserve(assetIn), p.Reserve(p.Other(assetIn)))
}

// Swap exchanges amountIn of assetIn for the other asset. The output must
// be at least minAmountOut, which may be nil. The caller is responsible for
// moving the funds between the trader and the pool address.
func (p Pool) Swap(assetIn asset.Symbol, amountIn, minAmountOut *uint256.Int) (Pool, *uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return Pool{}, nil, fault.New(fault.InvalidTransaction, "swap amount must be positive")
	}

	amountOut, err := p.Quote(assetIn, amountIn)
	if err != nil {
		return Pool{}, nil, err
	}

	reserveOut := p.Reserve(p.Other(assetIn))

	switch {
	case amountOut.IsZero():
		return Pool{}, nil, fault.New(fault.InsufficientLiquidity, "swap output rounds to zero")
	case !amountOut.Lt(reserveOut):
		return Pool{}, nil, fault.New(fault.InsufficientLiquidity, "swap output %s drains reserve %s", amountOut.Dec(), reserveOut.Dec())
	case minAmountOut != nil && amountOut.Lt(minAmountOut):
		return Pool{}, nil, fault.New(fault.InsufficientLiquidity, "insufficient output amount %s, min %s", amountOut.Dec(), minAmountOut.Dec())
	}

	reserveIn, overflow := new(uint256.Int).AddOverflow(p.Reserve(assetIn), amountIn)
	if overflow {
		return Pool{}, nil, fault.New(fault.InternalFault, "reserve overflows")
	}
	reserveOut.Sub(reserveOut, amountOut)

	np := p
	if assetIn == p.Asset0 {
		np.Reserve0, np.Reserve1 = reserveIn, reserveOut
	} else {
		np.Reserve0, np.Reserve1 = reserveOut, reserveIn
	}

	return np, amountOut, nil
}

// AddLiquidity deposits both assets and mints shares for the provider. The
// first deposit mints sqrt(amount0*amount1). Later deposits mint the lesser
// of the two proportional amounts; the excess of the other asset stays in
// the pool.
func (p Pool) AddLiquidity(provider common.Address, amount0, amount1 *uint256.Int) (Pool, *uint256.Int, error) {
	if amount0 == nil || amount0.IsZero() || amount1 == nil || amount1.IsZero() {
		return Pool{}, nil, fault.New(fault.InvalidTransaction, "liquidity amounts must be positive")
	}

	var minted *uint256.Int
	switch {
	case p.TotalSupply.IsZero():
		product := new(big.Int).Mul(amount0.ToBig(), amount1.ToBig())
		minted = uint256.MustFromBig(new(big.Int).Sqrt(product))

	case p.Reserve0.IsZero() || p.Reserve1.IsZero():
		return Pool{}, nil, fault.New(fault.InsufficientLiquidity, "pool %s has shares but no reserves", p.Pair)

	default:
		s0, overflow0 := new(uint256.Int).MulDivOverflow(amount0, p.TotalSupply, p.Reserve0)
		s1, overflow1 := new(uint256.Int).MulDivOverflow(amount1, p.TotalSupply, p.Reserve1)
		if overflow0 || overflow1 {
			return Pool{}, nil, fault.New(fault.InternalFault, "share calculation overflows")
		}
		minted = s0
		if s1.Lt(s0) {
			minted = s1
		}
	}

	if minted.IsZero() {
		return Pool{}, nil, fault.New(fault.InsufficientLiquidity, "deposit mints zero shares")
	}

	r0, o0 := new(uint256.Int).AddOverflow(p.Reserve0, amount0)
	r1, o1 := new(uint256.Int).AddOverflow(p.Reserve1, amount1)
	ts, o2 := new(uint256.Int).AddOverflow(p.TotalSupply, minted)
	if o0 || o1 || o2 {
		return Pool{}, nil, fault.New(fault.InternalFault, "pool totals overflow")
	}

	np := p
	np.Reserve0, np.Reserve1, np.TotalSupply = r0, r1, ts
	np.Shares = p.copyShares()
	np.Shares[provider] = new(uint256.Int).Add(p.SharesOf(provider), minted)

	return np, minted, nil
}

// RemoveLiquidity burns the provider's shares and returns the amounts of
// each asset owed.
func (p Pool) RemoveLiquidity(provider common.Address, shares *uint256.Int) (Pool, *uint256.Int, *uint256.Int, error) {
	if shares == nil || shares.IsZero() {
		return Pool{}, nil, nil, fault.New(fault.InvalidTransaction, "shares must be positive")
	}

	held := p.SharesOf(provider)
	if held.Lt(shares) {
		return Pool{}, nil, nil, fault.New(fault.InsufficientShares, "have %s, need %s", held.Dec(), shares.Dec())
	}

	amount0, overflow0 := new(uint256.Int).MulDivOverflow(shares, p.Reserve0, p.TotalSupply)
	amount1, overflow1 := new(uint256.Int).MulDivOverflow(shares, p.Reserve1, p.TotalSupply)
	if overflow0 || overflow1 {
		return Pool{}, nil, nil, fault.New(fault.InternalFault, "withdraw calculation overflows")
	}

	np := p
	np.Reserve0 = new(uint256.Int).Sub(p.Reserve0, amount0)
	np.Reserve1 = new(uint256.Int).Sub(p.Reserve1, amount1)
	np.TotalSupply = new(uint256.Int).Sub(p.TotalSupply, shares)
	np.Shares = p.copyShares()

	remaining := new(uint256.Int).Sub(held, shares)
	if remaining.IsZero() {
		delete(np.Shares, provider)
	} else {
		np.Shares[provider] = remaining
	}

	return np, amount0, amount1, nil
}

// CheckShares validates the total supply equals the sum of all shares.
func (p Pool) CheckShares() error {
	sum := new(uint256.Int)
	for _, v := range p.Shares {
		if _, overflow := sum.AddOverflow(sum, v); overflow {
			return fault.New(fault.InternalFault, "pool %s shares overflow", p.Pair)
		}
	}

	if !sum.Eq(p.TotalSupply) {
		return fault.New(fault.InternalFault, "pool %s total supply %s, shares sum %s", p.Pair, p.TotalSupply.Dec(), sum.Dec())
	}

	return nil
}

// Digest returns a hash of the pool's reserves and shares.
func (p Pool) Digest() common.Hash {
	r0 := p.Reserve0.Bytes32()
	r1 := p.Reserve1.Bytes32()
	ts := p.TotalSupply.Bytes32()

	data := [][]byte{[]byte(p.Pair), r0[:], r1[:], ts[:]}
	for _, provider := range sortedProviders(p.Shares) {
		s := p.Shares[provider].Bytes32()
		data = append(data, provider.Bytes(), s[:])
	}

	return crypto.Keccak256Hash(data...)
}

func (p Pool) copyShares() map[common.Address]*uint256.Int {
	cpy := make(map[common.Address]*uint256.Int, len(p.Shares))
	for k, v := range p.Shares {
		cpy[k] = v
	}
	return cpy
}
