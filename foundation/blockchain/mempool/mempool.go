// Package mempool maintains the ordering queue of transactions waiting to be
// sealed into a block. Transactions leave the queue in arrival order; a
// transaction whose nonce is ahead of its sender's next nonce is held back
// until the gap closes or it expires.
package mempool

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Config represents the limits applied by the mempool.
type Config struct {
	Capacity    int           // Maximum number of queued transactions.
	MaxNonceGap uint64        // How far ahead of the account nonce a transaction may be.
	StaleAfter  time.Duration // How long a held back transaction may wait.
	LastSeq     uint64        // Arrival sequence already used by sealed blocks.
}

// Mempool represents the queue of pending transactions.
type Mempool struct {
	mu    sync.Mutex
	cfg   Config
	queue  []database.BlockTx
	byHash map[common.Hash]database.BlockTx
	seq    uint64
}

// New constructs a new mempool.
func New(cfg Config) *Mempool {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10_000
	}
	if cfg.MaxNonceGap == 0 {
		cfg.MaxNonceGap = 64
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = time.Minute
	}

	return &Mempool{
		cfg:    cfg,
		byHash: make(map[common.Hash]database.BlockTx),
		seq:    cfg.LastSeq,
	}
}

// Count returns the current number of transactions in the queue.
func (mp *Mempool) Count() int {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return len(mp.queue)
}

// Submit adds a transaction to the end of the queue. The account nonce is
// the sender's nonce in the latest sealed state. When assignNonce is true
// the transaction receives the next nonce after those already queued for
// the sender.
func (mp *Mempool) Submit(tx database.SignedTx, accountNonce uint64, assignNonce bool, now time.Time) (database.BlockTx, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if len(mp.queue) >= mp.cfg.Capacity {
		return database.BlockTx{}, fault.New(fault.InvalidTransaction, "mempool is full, %d transactions", len(mp.queue))
	}

	if assignNonce {
		tx.Nonce = mp.nextNonce(tx.From, accountNonce)
	}

	switch {
	case tx.Nonce < accountNonce:
		return database.BlockTx{}, fault.New(fault.InvalidNonce, "nonce %d already used, account nonce is %d", tx.Nonce, accountNonce)
	case tx.Nonce > accountNonce+mp.cfg.MaxNonceGap:
		return database.BlockTx{}, fault.New(fault.InvalidTransaction, "nonce %d is too far ahead of account nonce %d", tx.Nonce, accountNonce)
	}

	mp.seq++
	blockTx := database.NewBlockTx(tx, mp.seq, uint64(now.UnixMilli()))
	mp.queue = append(mp.queue, blockTx)
	mp.byHash[blockTx.Hash()] = blockTx

	return blockTx, nil
}

// Drain removes the transactions that are ready for the next block in
// arrival order, bounded by the transaction count and total gas. A
// transaction is ready when its nonce does not exceed the sender's expected
// nonce; duplicates of a nonce are ready and are left for the block builder
// to reject. Held back transactions older than the stale limit are removed
// and returned separately.
func (mp *Mempool) Drain(maxTx int, maxGas uint64, nonceOf func(common.Address) uint64, now time.Time) (ready []database.BlockTx, stale []database.BlockTx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	expected := make(map[common.Address]uint64)
	staleBefore := uint64(now.Add(-mp.cfg.StaleAfter).UnixMilli())

	var gas uint64
	var full bool
	keep := mp.queue[:0:0]

	for _, tx := range mp.queue {
		if full {
			keep = append(keep, tx)
			continue
		}

		exp, exists := expected[tx.From]
		if !exists {
			exp = nonceOf(tx.From)
		}

		switch {
		case tx.Nonce <= exp:
			if len(ready) >= maxTx || gas+tx.Gas > maxGas {
				full = true
				keep = append(keep, tx)
				continue
			}

			ready = append(ready, tx)
			gas += tx.Gas
			if tx.Nonce == exp {
				exp++
			}

		case tx.TimeStamp < staleBefore:
			stale = append(stale, tx)

		default:
			keep = append(keep, tx)
		}

		expected[tx.From] = exp
	}

	mp.queue = keep

	if len(ready)+len(stale) > 0 {
		kept := make(map[uint64]struct{}, len(keep))
		for _, tx := range keep {
			kept[tx.Seq] = struct{}{}
		}
		for hash, tx := range mp.byHash {
			if _, exists := kept[tx.Seq]; !exists {
				delete(mp.byHash, hash)
			}
		}
	}

	return ready, stale
}

// NextNonce returns the nonce the sender should use for its next
// transaction, accounting for the transactions already queued.
func (mp *Mempool) NextNonce(addr common.Address, accountNonce uint64) uint64 {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	return mp.nextNonce(addr, accountNonce)
}

// Get returns the queued transaction with the specified hash.
func (mp *Mempool) Get(hash common.Hash) (database.BlockTx, bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	tx, exists := mp.byHash[hash]
	return tx, exists
}

// Copy returns a copy of the queue in arrival order.
func (mp *Mempool) Copy() []database.BlockTx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	cpy := make([]database.BlockTx, len(mp.queue))
	copy(cpy, mp.queue)
	return cpy
}

// Truncate clears all the transactions from the queue.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.queue = nil
	mp.byHash = make(map[common.Hash]database.BlockTx)
}

// =============================================================================

// nextNonce walks the queued nonces for the sender starting at the account
// nonce until it finds a gap.
func (mp *Mempool) nextNonce(addr common.Address, accountNonce uint64) uint64 {
	queued := make(map[uint64]struct{})
	for _, tx := range mp.queue {
		if tx.From == addr {
			queued[tx.Nonce] = struct{}{}
		}
	}

	next := accountNonce
	for {
		if _, exists := queued[next]; !exists {
			return next
		}
		next++
	}
}
