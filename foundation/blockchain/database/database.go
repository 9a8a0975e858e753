// Package database handles the lower level support for maintaining the
// chain of sealed blocks and the indexes used to query it.
package database

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// DatabaseIterator walks the stored blocks converting them into blocks.
type DatabaseIterator struct {
	iterator Iterator
}

// Next retrieves the next block from storage.
func (di *DatabaseIterator) Next() (Block, error) {
	blockData, err := di.iterator.Next()
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData)
}

// Done returns the end of chain value.
func (di *DatabaseIterator) Done() bool {
	return di.iterator.Done()
}

// =============================================================================

// TxLocation identifies where a transaction was recorded.
type TxLocation struct {
	BlockNumber uint64
	Index       int
	Failed      bool
}

// AccountTx is a transaction recorded in a block that involves an account.
type AccountTx struct {
	TxLocation
	BlockTx   BlockTx
	BlockTime uint64
	Reason    string
}

// Database manages the sealed blocks and their indexes.
type Database struct {
	mu sync.RWMutex

	blocks    []Block
	byHash    map[common.Hash]uint64
	txs       map[common.Hash]TxLocation
	failures  map[common.Hash]TxLocation
	byAccount map[common.Address][]TxLocation

	serializer Serializer
}

// New constructs a database holding the genesis block. Stored blocks are
// not loaded here; the caller replays them through ForEach and Write so
// state can be rebuilt alongside.
func New(genesisBlock Block, serializer Serializer) *Database {
	db := Database{
		serializer: serializer,
	}
	db.reset(genesisBlock)

	return &db
}

// Close closes the open blocks database.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Reset re-initializes the database back to the genesis block.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.serializer.Reset(); err != nil {
		return err
	}
	db.reset(db.blocks[0])

	return nil
}

// ForEach returns an iterator over the blocks held by the serializer.
func (db *Database) ForEach() *DatabaseIterator {
	return &DatabaseIterator{iterator: db.serializer.ForEach()}
}

// Write persists a new block through the serializer and indexes it.
func (db *Database) Write(block Block) error {
	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("writing block %d: %w", block.Header.Number, err)
	}

	return db.Index(block)
}

// Index adds a block that is already persisted to the in memory indexes.
func (db *Database) Index(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	next := uint64(len(db.blocks))
	if block.Header.Number != next {
		return fault.New(fault.InternalFault, "block %d is out of order, exp %d", block.Header.Number, next)
	}

	db.blocks = append(db.blocks, block)
	db.byHash[block.Hash()] = block.Header.Number

	for i, tx := range block.Trans {
		loc := TxLocation{BlockNumber: block.Header.Number, Index: i}
		db.txs[tx.Hash()] = loc
		db.indexAccounts(tx, loc)
	}

	for i, ftx := range block.Failed {
		loc := TxLocation{BlockNumber: block.Header.Number, Index: i, Failed: true}
		db.failures[ftx.Hash()] = loc
		db.indexAccounts(ftx.Tx, loc)
	}

	return nil
}

// LatestBlock returns the most recently sealed block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// Height returns the number of the latest block.
func (db *Database) Height() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks) - 1)
}

// GetBlock returns the block at the specified height.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, fault.New(fault.NotFound, "block %d", num)
	}

	return db.blocks[num], nil
}

// GetBlockByHash returns the block with the specified hash.
func (db *Database) GetBlockByHash(hash common.Hash) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	num, exists := db.byHash[hash]
	if !exists {
		return Block{}, fault.New(fault.NotFound, "block %s", hash)
	}

	return db.blocks[num], nil
}

// GetTransaction returns an included transaction by hash.
func (db *Database) GetTransaction(hash common.Hash) (BlockTx, TxLocation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	loc, exists := db.txs[hash]
	if !exists {
		return BlockTx{}, TxLocation{}, fault.New(fault.NotFound, "transaction %s", hash)
	}

	return db.blocks[loc.BlockNumber].Trans[loc.Index], loc, nil
}

// GetFailure returns a failed transaction by hash.
func (db *Database) GetFailure(hash common.Hash) (FailedTx, TxLocation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	loc, exists := db.failures[hash]
	if !exists {
		return FailedTx{}, TxLocation{}, fault.New(fault.NotFound, "failed transaction %s", hash)
	}

	return db.blocks[loc.BlockNumber].Failed[loc.Index], loc, nil
}

// TransactionsByAccount returns the transactions sent or received by the
// account up to and including maxBlock, newest first.
func (db *Database) TransactionsByAccount(addr common.Address, maxBlock uint64) []AccountTx {
	db.mu.RLock()
	defer db.mu.RUnlock()

	locs := db.byAccount[addr]

	txs := make([]AccountTx, 0, len(locs))
	for i := len(locs) - 1; i >= 0; i-- {
		loc := locs[i]
		if loc.BlockNumber > maxBlock {
			continue
		}

		block := db.blocks[loc.BlockNumber]
		atx := AccountTx{
			TxLocation: loc,
			BlockTime:  block.Header.TimeStamp,
		}

		if loc.Failed {
			ftx := block.Failed[loc.Index]
			atx.BlockTx = ftx.Tx
			atx.Reason = ftx.Reason
		} else {
			atx.BlockTx = block.Trans[loc.Index]
		}

		txs = append(txs, atx)
	}

	return txs
}

// =============================================================================

func (db *Database) reset(genesisBlock Block) {
	db.blocks = []Block{genesisBlock}
	db.byHash = map[common.Hash]uint64{genesisBlock.Hash(): 0}
	db.txs = make(map[common.Hash]TxLocation)
	db.failures = make(map[common.Hash]TxLocation)
	db.byAccount = make(map[common.Address][]TxLocation)
}

func (db *Database) indexAccounts(tx BlockTx, loc TxLocation) {
	db.byAccount[tx.From] = append(db.byAccount[tx.From], loc)

	if tx.To != (common.Address{}) && tx.To != tx.From {
		db.byAccount[tx.To] = append(db.byAccount[tx.To], loc)
	}
}
