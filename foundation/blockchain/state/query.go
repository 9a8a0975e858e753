package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/amm"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/genesis"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/ledger"
)

// TxStatus represents where a transaction is in its lifecycle.
type TxStatus string

// The set of transaction statuses.
const (
	TxPending TxStatus = "pending"
	TxSuccess TxStatus = "success"
	TxFailed  TxStatus = "failed"
)

// TxRecord is a transaction looked up by hash.
type TxRecord struct {
	Tx        database.BlockTx
	Status    TxStatus
	Location  database.TxLocation
	BlockHash common.Hash
	BlockTime uint64
	Kind      fault.Kind
	Reason    string
}

// TxProof is the merkle path of an included transaction.
type TxProof struct {
	Tx    database.BlockTx
	Block database.Block
	Index int
	Proof []common.Hash
}

// =============================================================================

// ChainID returns the chain id from the genesis.
func (s *State) ChainID() uint64 {
	return s.genesis.ChainID
}

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// Beneficiary returns the account receiving the fees.
func (s *State) Beneficiary() common.Address {
	return s.beneficiary
}

// DevMode reports whether unsigned transactions are accepted.
func (s *State) DevMode() bool {
	return s.devMode
}

// LatestBlock returns the last sealed block.
func (s *State) LatestBlock() database.Block {
	return s.snap.Load().block
}

// Height returns the number of the last sealed block.
func (s *State) Height() uint64 {
	return s.snap.Load().block.Header.Number
}

// =============================================================================

// Balance returns the balance of the asset for the account.
func (s *State) Balance(addr common.Address, sym asset.Symbol) *uint256.Int {
	return s.snap.Load().world.ledger.Balance(addr, sym)
}

// Balances returns the balance of every asset for the account.
func (s *State) Balances(addr common.Address) map[asset.Symbol]*uint256.Int {
	l := s.snap.Load().world.ledger

	balances := make(map[asset.Symbol]*uint256.Int, len(asset.All))
	for _, sym := range asset.All {
		balances[sym] = l.Balance(addr, sym)
	}
	return balances
}

// Nonce returns the next nonce the ledger expects from the account.
func (s *State) Nonce(addr common.Address) uint64 {
	return s.snap.Load().world.ledger.Nonce(addr)
}

// PendingNonce returns the nonce the account should use next, accounting
// for the transactions waiting in the mempool.
func (s *State) PendingNonce(addr common.Address) uint64 {
	return s.mempool.NextNonce(addr, s.Nonce(addr))
}

// Account returns the account as of the last sealed block.
func (s *State) Account(addr common.Address) (ledger.Account, error) {
	acct, exists := s.snap.Load().world.ledger.Account(addr)
	if !exists {
		return ledger.Account{}, fault.New(fault.NotFound, "account %s", addr)
	}
	return acct, nil
}

// Accounts returns the addresses held by the ledger in sorted order.
func (s *State) Accounts() []common.Address {
	return s.snap.Load().world.ledger.Addresses()
}

// =============================================================================

// Pool returns the pool for the pair.
func (s *State) Pool(pair string) (amm.Pool, error) {
	pool, exists := s.snap.Load().world.pools[pair]
	if !exists {
		return amm.Pool{}, fault.New(fault.NotFound, "pool %q", pair)
	}
	return pool.Clone(), nil
}

// Pools returns every pool ordered by pair.
func (s *State) Pools() []amm.Pool {
	w := s.snap.Load().world

	pools := make([]amm.Pool, 0, len(w.pools))
	for _, pair := range w.pairs() {
		pools = append(pools, w.pools[pair].Clone())
	}
	return pools
}

// DefaultPair returns the first pool created at genesis.
func (s *State) DefaultPair() (string, error) {
	if len(s.genesis.Pools) == 0 {
		return "", fault.New(fault.NotFound, "no pools configured")
	}
	gp := s.genesis.Pools[0]
	return amm.PairName(gp.Asset0, gp.Asset1), nil
}

// LPBalance returns the liquidity shares the provider holds in the pool.
func (s *State) LPBalance(pair string, provider common.Address) (*uint256.Int, error) {
	pool, err := s.Pool(pair)
	if err != nil {
		return nil, err
	}
	return pool.SharesOf(provider), nil
}

// Quote returns the output of swapping amountIn of assetIn against the
// current reserves of the pool.
func (s *State) Quote(pair string, assetIn asset.Symbol, amountIn *uint256.Int) (*uint256.Int, error) {
	pool, err := s.Pool(pair)
	if err != nil {
		return nil, err
	}
	if amountIn == nil || amountIn.IsZero() {
		return nil, fault.New(fault.InvalidTransaction, "amount must be positive")
	}
	return pool.Quote(assetIn, amountIn)
}

// =============================================================================

// GetBlock returns the sealed block at the height.
func (s *State) GetBlock(num uint64) (database.Block, error) {
	if num > s.Height() {
		return database.Block{}, fault.New(fault.NotFound, "block %d", num)
	}
	return s.db.GetBlock(num)
}

// GetBlockByHash returns the sealed block with the hash.
func (s *State) GetBlockByHash(hash common.Hash) (database.Block, error) {
	block, err := s.db.GetBlockByHash(hash)
	if err != nil {
		return database.Block{}, err
	}
	if block.Header.Number > s.Height() {
		return database.Block{}, fault.New(fault.NotFound, "block %s", hash)
	}
	return block, nil
}

// LatestBlocks returns up to n blocks, newest first.
func (s *State) LatestBlocks(n int) []database.Block {
	height := s.Height()

	var blocks []database.Block
	for num := int64(height); num >= 0 && len(blocks) < n; num-- {
		block, err := s.db.GetBlock(uint64(num))
		if err != nil {
			break
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// Transaction returns the transaction with the hash, whether it is still
// queued, was included, or failed.
func (s *State) Transaction(hash common.Hash) (TxRecord, error) {
	height := s.Height()

	if tx, loc, err := s.db.GetTransaction(hash); err == nil && loc.BlockNumber <= height {
		return s.record(tx, TxSuccess, loc, "", ""), nil
	}

	if ftx, loc, err := s.db.GetFailure(hash); err == nil && loc.BlockNumber <= height {
		return s.record(ftx.Tx, TxFailed, loc, ftx.Kind, ftx.Reason), nil
	}

	if tx, exists := s.mempool.Get(hash); exists {
		return TxRecord{Tx: tx, Status: TxPending}, nil
	}

	return TxRecord{}, fault.New(fault.NotFound, "transaction %s", hash)
}

// TransactionProof returns the merkle proof that an included transaction is
// part of its block. Queued and failed transactions have no proof.
func (s *State) TransactionProof(hash common.Hash) (TxProof, error) {
	tx, loc, err := s.db.GetTransaction(hash)
	if err != nil || loc.BlockNumber > s.Height() {
		return TxProof{}, fault.New(fault.NotFound, "transaction %s is not included in a block", hash)
	}

	block, err := s.db.GetBlock(loc.BlockNumber)
	if err != nil {
		return TxProof{}, err
	}

	return TxProof{
		Tx:    tx,
		Block: block,
		Index: loc.Index,
		Proof: block.Proof(loc.Index),
	}, nil
}

// TransactionsByAccount returns the sealed transactions sent or received by
// the account, newest first.
func (s *State) TransactionsByAccount(addr common.Address, limit int) []database.AccountTx {
	txs := s.db.TransactionsByAccount(addr, s.Height())
	if limit > 0 && len(txs) > limit {
		txs = txs[:limit]
	}
	return txs
}

// Mempool returns a copy of the queued transactions in arrival order.
func (s *State) Mempool() []database.BlockTx {
	return s.mempool.Copy()
}

// Stats returns the running totals for the chain.
func (s *State) Stats() Stats {
	snap := s.snap.Load()

	stats := snap.stats
	stats.Height = snap.block.Header.Number
	stats.Pending = s.mempool.Count()

	tvl := new(uint256.Int)
	for _, pool := range snap.world.pools {
		tvl.Add(tvl, pool.Reserve0)
		tvl.Add(tvl, pool.Reserve1)
	}
	stats.TVL = tvl

	return stats
}

// =============================================================================

func (s *State) record(tx database.BlockTx, status TxStatus, loc database.TxLocation, kind fault.Kind, reason string) TxRecord {
	rec := TxRecord{
		Tx:       tx,
		Status:   status,
		Location: loc,
		Kind:     kind,
		Reason:   reason,
	}

	if block, err := s.db.GetBlock(loc.BlockNumber); err == nil {
		rec.BlockHash = block.Hash()
		rec.BlockTime = block.Header.TimeStamp
	}

	return rec
}
