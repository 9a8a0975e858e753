package state

import (
	"fmt"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Submission represents a transaction handed to the sequencer.
type Submission struct {
	Tx database.SignedTx

	// AssignNonce requests the sequencer pick the sender's next nonce. Only
	// allowed for unsigned transactions since a signature covers the nonce.
	AssignNonce bool

	// Verified marks a transaction whose sender was already authenticated by
	// the caller, such as a decoded raw Ethereum transaction.
	Verified bool
}

// SubmitTransaction validates the transaction and queues it for the next
// block. Nothing in the ledger or pools is touched.
func (s *State) SubmitTransaction(sub Submission) (database.BlockTx, error) {
	if err := s.Halted(); err != nil {
		return database.BlockTx{}, fmt.Errorf("%w: %w", ErrHalted, err)
	}

	tx := sub.Tx

	if err := tx.Validate(s.genesis.ChainID); err != nil {
		return database.BlockTx{}, err
	}

	switch {
	case tx.Signed() && sub.AssignNonce:
		return database.BlockTx{}, fault.New(fault.InvalidTransaction, "nonce is required for a signed transaction")

	case !tx.Signed() && !sub.Verified && !s.devMode:
		return database.BlockTx{}, fault.New(fault.InvalidTransaction, "transaction must be signed")
	}

	if tx.GasPrice < s.genesis.GasPrice {
		return database.BlockTx{}, fault.New(fault.InvalidTransaction, "gas price %d is below the minimum %d", tx.GasPrice, s.genesis.GasPrice)
	}

	snap := s.snap.Load()

	if snap.world.isPool(tx.From) {
		return database.BlockTx{}, fault.New(fault.InvalidTransaction, "pool address %s cannot send transactions", tx.From)
	}

	switch tx.Type {
	case database.TxTransfer:
		if snap.world.isPool(tx.To) {
			return database.BlockTx{}, fault.New(fault.InvalidTransaction, "transfers to pool address %s are not allowed", tx.To)
		}

	default:
		pool, err := snap.world.pool(tx.Pair)
		if err != nil {
			return database.BlockTx{}, err
		}
		if tx.Type != database.TxRemoveLiquidity && !pool.Has(tx.Asset) {
			return database.BlockTx{}, fault.New(fault.InvalidTransaction, "asset %s is not part of pool %s", tx.Asset, pool.Pair)
		}
	}

	blockTx, err := s.mempool.Submit(tx, snap.world.ledger.Nonce(tx.From), sub.AssignNonce, s.now())
	if err != nil {
		return database.BlockTx{}, err
	}

	s.evHandler("state: SubmitTransaction: queued: tx[%s] hash[%s]", blockTx, blockTx.Hash())

	return blockTx, nil
}
