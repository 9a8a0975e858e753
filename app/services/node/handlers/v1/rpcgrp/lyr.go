package rpcgrp

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
)

// Limits applied to list queries.
const (
	defaultLatestBlocks = 10
	maxLatestBlocks     = 100
	maxAccountTxs       = 100
)

func (h Handlers) getBalances(ctx context.Context, params []json.RawMessage) (any, error) {
	addr, err := addressParam(params, 0)
	if err != nil {
		return nil, err
	}

	bals := make(map[string]string, len(asset.All))
	for sym, bal := range h.State.Balances(addr) {
		bals[sym.String()] = asset.Hex(bal)
	}

	return bals, nil
}

func (h Handlers) getPool(ctx context.Context, params []json.RawMessage) (any, error) {
	pair, err := h.pairParam(params, 0)
	if err != nil {
		return nil, err
	}

	pool, err := h.State.Pool(pair)
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"pair":        pool.Pair,
		"address":     pool.Address.Hex(),
		"asset0":      pool.Asset0.String(),
		"asset1":      pool.Asset1.String(),
		"reserve0":    asset.Hex(pool.Reserve0),
		"reserve1":    asset.Hex(pool.Reserve1),
		"totalSupply": asset.Hex(pool.TotalSupply),
	}, nil
}

func (h Handlers) getLPBalance(ctx context.Context, params []json.RawMessage) (any, error) {
	pair, err := h.pairParam(params, 0)
	if err != nil {
		return nil, err
	}

	addr, err := addressParam(params, 1)
	if err != nil {
		return nil, err
	}

	shares, err := h.State.LPBalance(pair, addr)
	if err != nil {
		return nil, err
	}

	return asset.Hex(shares), nil
}

func (h Handlers) quote(ctx context.Context, params []json.RawMessage) (any, error) {
	pair, err := h.pairParam(params, 0)
	if err != nil {
		return nil, err
	}

	assetIn, err := symbolParam(params, 1)
	if err != nil {
		return nil, err
	}

	if !present(params, 2) {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "missing amount param")
	}

	var q quantity
	if err := json.Unmarshal(params[2], &q); err != nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "invalid amount param")
	}

	amountIn, err := q.Amount()
	if err != nil {
		return nil, err
	}

	out, err := h.State.Quote(pair, assetIn, amountIn)
	if err != nil {
		return nil, err
	}

	return asset.Hex(out), nil
}

func (h Handlers) getNetworkStats(ctx context.Context, params []json.RawMessage) (any, error) {
	stats := h.State.Stats()

	return map[string]any{
		"blockHeight":         stats.Height,
		"totalTransactions":   stats.TotalTransactions,
		"failedTransactions":  stats.FailedTransactions,
		"pendingTransactions": stats.Pending,
		"totalGasUsed":        stats.TotalGasUsed,
		"avgBlockTime":        stats.AvgBlockTime().Seconds(),
		"activeValidators":    1,
		"tvl":                 asset.Decimal(stats.TVL),
		"chainId":             h.State.ChainID(),
	}, nil
}

func (h Handlers) getTransactionsByBlock(ctx context.Context, params []json.RawMessage) (any, error) {
	tag, err := blockTagParam(params, 0)
	if err != nil {
		return nil, err
	}

	num := tag.number
	if tag.latest {
		num = h.State.Height()
	}

	block, err := h.State.GetBlock(num)
	if err != nil {
		return nil, err
	}

	txs := make([]map[string]any, len(block.Trans))
	for i, tx := range block.Trans {
		txs[i] = toListedTx(tx, i)
	}

	return txs, nil
}

func (h Handlers) getTransactionsByAddress(ctx context.Context, params []json.RawMessage) (any, error) {
	addr, err := addressParam(params, 0)
	if err != nil {
		return nil, err
	}

	limit, err := intParam(params, 1, maxAccountTxs)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxAccountTxs {
		limit = maxAccountTxs
	}

	atxs := h.State.TransactionsByAccount(addr, limit)

	txs := make([]map[string]any, len(atxs))
	for i, atx := range atxs {
		txs[i] = toAccountTx(addr, atx)
	}

	return txs, nil
}

func (h Handlers) getLatestBlocks(ctx context.Context, params []json.RawMessage) (any, error) {
	n, err := intParam(params, 0, defaultLatestBlocks)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		n = defaultLatestBlocks
	}
	if n > maxLatestBlocks {
		n = maxLatestBlocks
	}

	blocks := h.State.LatestBlocks(n)

	objs := make([]map[string]any, len(blocks))
	for i, block := range blocks {
		objs[i] = toBlock(block, false)
	}

	return objs, nil
}

func (h Handlers) getTransactionStatus(ctx context.Context, params []json.RawMessage) (any, error) {
	hash, err := hashParam(params, 0)
	if err != nil {
		return nil, err
	}

	rec, err := h.State.Transaction(hash)
	if err != nil {
		return nil, err
	}

	status := map[string]any{
		"status":      string(rec.Status),
		"reason":      rec.Reason,
		"blockNumber": nil,
	}
	if rec.Status != state.TxPending {
		status["blockNumber"] = hexutil.EncodeUint64(rec.Location.BlockNumber)
	}

	return status, nil
}

func (h Handlers) getTransactionProof(ctx context.Context, params []json.RawMessage) (any, error) {
	hash, err := hashParam(params, 0)
	if err != nil {
		return nil, err
	}

	p, err := h.State.TransactionProof(hash)
	if err != nil {
		return nil, err
	}

	proof := make([]string, len(p.Proof))
	for i, sibling := range p.Proof {
		proof[i] = sibling.Hex()
	}

	return map[string]any{
		"hash":             hash.Hex(),
		"blockNumber":      hexutil.EncodeUint64(p.Block.Header.Number),
		"blockHash":        p.Block.Hash().Hex(),
		"transactionsRoot": p.Block.Header.TransRoot.Hex(),
		"transactionIndex": hexutil.EncodeUint64(uint64(p.Index)),
		"proof":            proof,
	}, nil
}

func (h Handlers) getAccounts(ctx context.Context, params []json.RawMessage) (any, error) {
	type account struct {
		Name     string            `json:"name"`
		Address  string            `json:"address"`
		Nonce    string            `json:"nonce"`
		Balances map[string]string `json:"balances"`
	}

	accounts := []account{}
	for addr, name := range h.NS.Copy() {
		bals := make(map[string]string, len(asset.All))
		for sym, bal := range h.State.Balances(addr) {
			bals[sym.String()] = asset.Hex(bal)
		}

		accounts = append(accounts, account{
			Name:     name,
			Address:  addr.Hex(),
			Nonce:    hexutil.EncodeUint64(h.State.Nonce(addr)),
			Balances: bals,
		})
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Name < accounts[j].Name
	})

	return accounts, nil
}

// =============================================================================

// pairParam reads an optional pool pair, defaulting to the first
// genesis pool.
func (h Handlers) pairParam(params []json.RawMessage, i int) (string, error) {
	if !present(params, i) {
		return h.State.DefaultPair()
	}
	return stringParam(params, i, "pair")
}
