package rpcgrp

import (
	"context"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
)

func (h Handlers) chainID(ctx context.Context, params []json.RawMessage) (any, error) {
	return hexutil.EncodeUint64(h.State.ChainID()), nil
}

func (h Handlers) blockNumber(ctx context.Context, params []json.RawMessage) (any, error) {
	return hexutil.EncodeUint64(h.State.Height()), nil
}

func (h Handlers) getBlockByNumber(ctx context.Context, params []json.RawMessage) (any, error) {
	tag, err := blockTagParam(params, 0)
	if err != nil {
		return nil, err
	}

	full, err := boolParam(params, 1)
	if err != nil {
		return nil, err
	}

	var block database.Block
	switch tag.latest {
	case true:
		block = h.State.LatestBlock()
	default:
		if block, err = h.State.GetBlock(tag.number); err != nil {
			return nil, err
		}
	}

	return toBlock(block, full), nil
}

func (h Handlers) getBlockByHash(ctx context.Context, params []json.RawMessage) (any, error) {
	hash, err := hashParam(params, 0)
	if err != nil {
		return nil, err
	}

	full, err := boolParam(params, 1)
	if err != nil {
		return nil, err
	}

	block, err := h.State.GetBlockByHash(hash)
	if err != nil {
		return nil, err
	}

	return toBlock(block, full), nil
}

func (h Handlers) getTransactionByHash(ctx context.Context, params []json.RawMessage) (any, error) {
	hash, err := hashParam(params, 0)
	if err != nil {
		return nil, err
	}

	rec, err := h.State.Transaction(hash)
	if err != nil {
		return nil, err
	}

	return toRecordObject(rec, h.State.Height()), nil
}

func (h Handlers) getTransactionReceipt(ctx context.Context, params []json.RawMessage) (any, error) {
	hash, err := hashParam(params, 0)
	if err != nil {
		return nil, err
	}

	rec, err := h.State.Transaction(hash)
	if err != nil || rec.Status == state.TxPending {
		return nil, nil
	}

	tx := rec.Tx
	receipt := map[string]any{
		"transactionHash":   tx.Hash().Hex(),
		"transactionIndex":  hexutil.EncodeUint64(uint64(rec.Location.Index)),
		"blockHash":         rec.BlockHash.Hex(),
		"blockNumber":       hexutil.EncodeUint64(rec.Location.BlockNumber),
		"from":              tx.From.Hex(),
		"to":                tx.To.Hex(),
		"contractAddress":   nil,
		"logs":              []any{},
		"logsBloom":         emptyBloom,
		"type":              hexutil.EncodeUint64(uint64(tx.Type)),
		"effectiveGasPrice": hexutil.EncodeUint64(tx.GasPrice),
	}

	switch rec.Status {
	case state.TxSuccess:
		block, err := h.State.GetBlock(rec.Location.BlockNumber)
		if err != nil {
			return nil, err
		}

		var cumulative uint64
		for _, btx := range block.Trans[:rec.Location.Index+1] {
			cumulative += btx.Gas
		}

		receipt["status"] = "0x1"
		receipt["gasUsed"] = hexutil.EncodeUint64(tx.Gas)
		receipt["cumulativeGasUsed"] = hexutil.EncodeUint64(cumulative)

	case state.TxFailed:
		receipt["status"] = "0x0"
		receipt["gasUsed"] = "0x0"
		receipt["cumulativeGasUsed"] = "0x0"
		receipt["failureReason"] = rec.Reason
	}

	return receipt, nil
}

func (h Handlers) getBalance(ctx context.Context, params []json.RawMessage) (any, error) {
	addr, err := addressParam(params, 0)
	if err != nil {
		return nil, err
	}

	return asset.Hex(h.State.Balance(addr, asset.LYR)), nil
}

func (h Handlers) getTransactionCount(ctx context.Context, params []json.RawMessage) (any, error) {
	addr, err := addressParam(params, 0)
	if err != nil {
		return nil, err
	}

	if present(params, 1) {
		tag, err := stringParam(params, 1, "block")
		if err == nil && tag == "pending" {
			return hexutil.EncodeUint64(h.State.PendingNonce(addr)), nil
		}
	}

	return hexutil.EncodeUint64(h.State.Nonce(addr)), nil
}

func (h Handlers) estimateGas(ctx context.Context, params []json.RawMessage) (any, error) {
	if !present(params, 0) {
		return hexutil.EncodeUint64(database.TxTransfer.Gas()), nil
	}

	var obj struct {
		Type quantity `json:"type"`
	}
	if err := json.Unmarshal(params[0], &obj); err != nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "invalid transaction object")
	}

	var typ uint64
	if !obj.Type.IsZero() {
		var err error
		if typ, err = obj.Type.Uint64(); err != nil {
			return nil, err
		}
	}

	txType := database.TxType(typ)
	if typ > 0xff || !txType.Valid() {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "unknown transaction type %d", typ)
	}

	return hexutil.EncodeUint64(txType.Gas()), nil
}
