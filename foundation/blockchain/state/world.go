package state

import (
	"math/big"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/amm"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/genesis"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/ledger"
)

// world is the ledger and the pools at a point in the chain. A world that
// has been published in a snapshot is never mutated.
type world struct {
	ledger *ledger.Ledger
	pools  map[string]amm.Pool
}

// genesisWorld mints the genesis balances and bootstraps the genesis pools.
func genesisWorld(gen genesis.Genesis) (world, error) {
	w := world{
		ledger: ledger.New(),
		pools:  make(map[string]amm.Pool),
	}

	for hex, balances := range gen.Balances {
		addr := common.HexToAddress(hex)
		for sym, amount := range balances {
			v := genesis.Amount(amount)
			if v.IsZero() {
				continue
			}
			if err := w.ledger.Credit(addr, sym, v); err != nil {
				return world{}, err
			}
		}
	}

	for _, gp := range gen.Pools {
		pool := amm.New(gp.Asset0, gp.Asset1)
		if _, exists := w.pools[pool.Pair]; exists {
			return world{}, fault.New(fault.InvalidTransaction, "duplicate pool %s", pool.Pair)
		}

		r0, r1 := genesis.Amount(gp.Reserve0), genesis.Amount(gp.Reserve1)
		pool, _, err := pool.AddLiquidity(common.HexToAddress(gp.Provider), r0, r1)
		if err != nil {
			return world{}, err
		}

		if err := w.ledger.Credit(pool.Address, pool.Asset0, r0); err != nil {
			return world{}, err
		}
		if err := w.ledger.Credit(pool.Address, pool.Asset1, r1); err != nil {
			return world{}, err
		}

		w.pools[pool.Pair] = pool
	}

	if err := w.check(); err != nil {
		return world{}, err
	}

	return w, nil
}

// clone returns a world that can be changed without affecting w.
func (w world) clone() world {
	pools := make(map[string]amm.Pool, len(w.pools))
	for k, v := range w.pools {
		pools[k] = v
	}

	return world{
		ledger: w.ledger.Clone(),
		pools:  pools,
	}
}

// pairs returns the pool names in sorted order.
func (w world) pairs() []string {
	pairs := make([]string, 0, len(w.pools))
	for pair := range w.pools {
		pairs = append(pairs, pair)
	}
	sort.Strings(pairs)
	return pairs
}

// isPool reports whether the address holds the reserves of a pool.
func (w world) isPool(addr common.Address) bool {
	for _, pool := range w.pools {
		if pool.Address == addr {
			return true
		}
	}
	return false
}

// root returns the digest of the ledger and every pool.
func (w world) root() common.Hash {
	lr := w.ledger.Root()
	data := [][]byte{lr[:]}
	for _, pair := range w.pairs() {
		d := w.pools[pair].Digest()
		data = append(data, d[:])
	}
	return crypto.Keccak256Hash(data...)
}

// check validates the pool reserves match the balances held by the pool
// addresses and the shares add up.
func (w world) check() error {
	for _, pair := range w.pairs() {
		pool := w.pools[pair]

		if err := pool.CheckShares(); err != nil {
			return err
		}

		for _, sym := range []asset.Symbol{pool.Asset0, pool.Asset1} {
			held := w.ledger.Balance(pool.Address, sym)
			if !held.Eq(pool.Reserve(sym)) {
				return fault.New(fault.InternalFault, "pool %s holds %s %s, reserve is %s", pair, held.Dec(), sym, pool.Reserve(sym).Dec())
			}
		}
	}

	return nil
}

// =============================================================================

// apply executes the transaction against the world. Either every change is
// made or none is.
func (w world) apply(tx database.BlockTx, beneficiary common.Address) error {
	if w.isPool(tx.From) {
		return fault.New(fault.InvalidTransaction, "pool address %s cannot send transactions", tx.From)
	}

	j := w.ledger.Begin()

	if err := j.CheckNonce(tx.From, tx.Nonce); err != nil {
		return err
	}

	value, err := asset.FromBig(tx.Value)
	if err != nil {
		return err
	}

	var staged *amm.Pool

	switch tx.Type {
	case database.TxTransfer:
		if w.isPool(tx.To) {
			return fault.New(fault.InvalidTransaction, "transfers to pool address %s are not allowed", tx.To)
		}
		if err := j.Transfer(tx.From, tx.To, tx.Asset, value); err != nil {
			return err
		}

	case database.TxSwap:
		pool, err := w.pool(tx.Pair)
		if err != nil {
			return err
		}

		minOut, err := asset.FromBig(tx.MinAmountOut)
		if err != nil {
			return err
		}

		if err := j.Debit(tx.From, tx.Asset, value); err != nil {
			return err
		}

		np, amountOut, err := pool.Swap(tx.Asset, value, minOut)
		if err != nil {
			return err
		}

		assetOut := pool.Other(tx.Asset)
		if err := j.Credit(pool.Address, tx.Asset, value); err != nil {
			return err
		}
		if err := j.Debit(pool.Address, assetOut, amountOut); err != nil {
			return fault.New(fault.InternalFault, "pool %s: %s", pool.Pair, err)
		}
		if err := j.Credit(tx.From, assetOut, amountOut); err != nil {
			return err
		}
		staged = &np

	case database.TxAddLiquidity:
		pool, err := w.pool(tx.Pair)
		if err != nil {
			return err
		}

		amount0, amount1, err := depositAmounts(pool, tx.Asset, value, tx.Amount1)
		if err != nil {
			return err
		}

		if err := j.Debit(tx.From, pool.Asset0, amount0); err != nil {
			return err
		}
		if err := j.Debit(tx.From, pool.Asset1, amount1); err != nil {
			return err
		}

		np, _, err := pool.AddLiquidity(tx.From, amount0, amount1)
		if err != nil {
			return err
		}

		if err := j.Credit(pool.Address, pool.Asset0, amount0); err != nil {
			return err
		}
		if err := j.Credit(pool.Address, pool.Asset1, amount1); err != nil {
			return err
		}
		staged = &np

	case database.TxRemoveLiquidity:
		pool, err := w.pool(tx.Pair)
		if err != nil {
			return err
		}

		np, amount0, amount1, err := pool.RemoveLiquidity(tx.From, value)
		if err != nil {
			return err
		}
		if amount0.IsZero() && amount1.IsZero() {
			return fault.New(fault.InsufficientLiquidity, "withdrawal of %s shares returns nothing", value.Dec())
		}

		for _, leg := range []struct {
			sym    asset.Symbol
			amount *uint256.Int
		}{{pool.Asset0, amount0}, {pool.Asset1, amount1}} {
			if leg.amount.IsZero() {
				continue
			}
			if err := j.Debit(pool.Address, leg.sym, leg.amount); err != nil {
				return fault.New(fault.InternalFault, "pool %s: %s", pool.Pair, err)
			}
			if err := j.Credit(tx.From, leg.sym, leg.amount); err != nil {
				return err
			}
		}
		staged = &np

	default:
		return fault.New(fault.InvalidTransaction, "unknown transaction type %d", tx.Type)
	}

	fee, err := asset.FromBig(tx.Fee())
	if err != nil {
		return err
	}
	if !fee.IsZero() && tx.From != beneficiary {
		if err := j.Transfer(tx.From, beneficiary, asset.LYR, fee); err != nil {
			return err
		}
	}

	j.IncrementNonce(tx.From)
	j.Commit()

	if staged != nil {
		w.pools[staged.Pair] = *staged
	}

	return nil
}

// pool looks up the pool for the pair.
func (w world) pool(pair string) (amm.Pool, error) {
	pool, exists := w.pools[pair]
	if !exists {
		return amm.Pool{}, fault.New(fault.InvalidTransaction, "unknown pool %q", pair)
	}
	return pool, nil
}

// depositAmounts orders the deposit so amount0 matches the pool's asset0.
// The transaction's asset names the side of value.
func depositAmounts(pool amm.Pool, sym asset.Symbol, value *uint256.Int, amount1 *big.Int) (*uint256.Int, *uint256.Int, error) {
	if !pool.Has(sym) {
		return nil, nil, fault.New(fault.InvalidTransaction, "asset %s is not part of pool %s", sym, pool.Pair)
	}

	other, err := asset.FromBig(amount1)
	if err != nil {
		return nil, nil, err
	}
	if other == nil || other.IsZero() {
		return nil, nil, fault.New(fault.InvalidTransaction, "amount1 must be positive")
	}

	if sym == pool.Asset0 {
		return value, other, nil
	}
	return other, value, nil
}

// =============================================================================

// snapshot is the sealed view served to readers.
type snapshot struct {
	world world
	block database.Block
	stats Stats
}

// next returns the snapshot that follows s once block has been sealed.
func (s *snapshot) next(w world, block database.Block) *snapshot {
	stats := s.stats
	stats.Height = block.Header.Number
	stats.TotalTransactions += block.Header.TxCount
	stats.FailedTransactions += block.Header.FailedCount
	stats.TotalGasUsed += block.Header.GasUsed
	if stats.FirstBlockTime == 0 {
		stats.FirstBlockTime = block.Header.TimeStamp
	}
	stats.LatestBlockTime = block.Header.TimeStamp

	return &snapshot{
		world: w,
		block: block,
		stats: stats,
	}
}

// Stats represents the running totals for the chain.
type Stats struct {
	Height             uint64
	TotalTransactions  uint64
	FailedTransactions uint64
	TotalGasUsed       uint64
	FirstBlockTime     uint64
	LatestBlockTime    uint64
	Pending            int
	TVL                *uint256.Int
}

// AvgBlockTime returns the average seconds between blocks since the first
// block after genesis.
func (st Stats) AvgBlockTime() time.Duration {
	if st.Height < 2 {
		return 0
	}
	secs := st.LatestBlockTime - st.FirstBlockTime
	return time.Duration(secs) * time.Second / time.Duration(st.Height-1)
}
