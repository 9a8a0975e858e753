package rpcgrp

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
)

// Values clients expect in a block object that have no meaning for a
// single sequencer chain.
const (
	emptyUncles = "0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347"
	emptyBloom  = "0x0000000000000000000000000000000000000000000000000000000000000000"
	emptyNonce  = "0x0000000000000000"
)

func toBlock(block database.Block, full bool) map[string]any {
	var txs []any
	for i, tx := range block.Trans {
		switch full {
		case true:
			txs = append(txs, toTxObject(tx, block, i))
		default:
			txs = append(txs, tx.Hash().Hex())
		}
	}
	if txs == nil {
		txs = []any{}
	}

	return map[string]any{
		"number":             hexutil.EncodeUint64(block.Header.Number),
		"hash":               block.Hash().Hex(),
		"parentHash":         block.Header.ParentHash.Hex(),
		"nonce":              emptyNonce,
		"sha3Uncles":         emptyUncles,
		"logsBloom":          emptyBloom,
		"transactionsRoot":   block.Header.TransRoot.Hex(),
		"stateRoot":          block.Header.StateRoot.Hex(),
		"receiptsRoot":       common.Hash{}.Hex(),
		"miner":              block.Header.Beneficiary.Hex(),
		"difficulty":         "0x1",
		"totalDifficulty":    "0x1",
		"extraData":          "0x",
		"size":               hexutil.EncodeUint64(block.Size()),
		"gasLimit":           hexutil.EncodeUint64(block.Header.GasLimit),
		"gasUsed":            hexutil.EncodeUint64(block.Header.GasUsed),
		"timestamp":          hexutil.EncodeUint64(block.Header.TimeStamp),
		"transactions":       txs,
		"failedTransactions": hexutil.EncodeUint64(block.Header.FailedCount),
		"uncles":             []string{},
		"baseFeePerGas":      nil,
	}
}

// toTxObject renders an included transaction with the shape used by the
// explorer.
func toTxObject(tx database.BlockTx, block database.Block, index int) map[string]any {
	return map[string]any{
		"hash":             tx.Hash().Hex(),
		"blockNumber":      block.Header.Number,
		"blockHash":        block.Hash().Hex(),
		"transactionIndex": index,
		"from":             tx.From.Hex(),
		"to":               tx.To.Hex(),
		"value":            decimal(tx),
		"gas":              tx.Gas,
		"gasPrice":         uint64String(tx.GasPrice),
		"nonce":            tx.Nonce,
		"type":             uint8(tx.Type),
		"data":             common.Bytes2Hex(tx.Data),
		"timestamp":        block.Header.TimeStamp,
		"asset":            tx.Asset.String(),
		"pair":             tx.Pair,
		"fee":              tx.Fee().String(),
		"status":           string(state.TxSuccess),
	}
}

// toRecordObject renders a transaction from any point of its lifecycle.
func toRecordObject(rec state.TxRecord, height uint64) map[string]any {
	tx := rec.Tx

	obj := map[string]any{
		"hash":             tx.Hash().Hex(),
		"blockNumber":      nil,
		"blockHash":        nil,
		"transactionIndex": nil,
		"from":             tx.From.Hex(),
		"to":               tx.To.Hex(),
		"value":            decimal(tx),
		"gas":              tx.Gas,
		"gasPrice":         uint64String(tx.GasPrice),
		"nonce":            tx.Nonce,
		"type":             uint8(tx.Type),
		"data":             common.Bytes2Hex(tx.Data),
		"timestamp":        tx.TimeStamp / 1000,
		"asset":            tx.Asset.String(),
		"pair":             tx.Pair,
		"fee":              "0",
		"confirmations":    uint64(0),
		"status":           string(rec.Status),
	}

	if rec.Status == state.TxPending {
		return obj
	}

	obj["blockNumber"] = rec.Location.BlockNumber
	obj["blockHash"] = rec.BlockHash.Hex()
	obj["transactionIndex"] = rec.Location.Index
	obj["timestamp"] = rec.BlockTime
	obj["confirmations"] = height - rec.Location.BlockNumber + 1

	switch rec.Status {
	case state.TxSuccess:
		obj["fee"] = tx.Fee().String()
	case state.TxFailed:
		obj["failureReason"] = rec.Reason
		obj["failureKind"] = string(rec.Kind)
	}

	return obj
}

// toListedTx renders the short form used by lyr_getTransactionsByBlock.
func toListedTx(tx database.BlockTx, index int) map[string]any {
	return map[string]any{
		"index":    index,
		"hash":     tx.Hash().Hex(),
		"from":     tx.From.Hex(),
		"to":       tx.To.Hex(),
		"value":    decimal(tx),
		"gas":      tx.Gas,
		"gasPrice": uint64String(tx.GasPrice),
		"nonce":    tx.Nonce,
		"type":     uint8(tx.Type),
		"asset":    tx.Asset.String(),
	}
}

// toAccountTx renders an entry of an account's history.
func toAccountTx(addr common.Address, atx database.AccountTx) map[string]any {
	tx := atx.BlockTx

	isFrom := tx.From == addr
	isTo := tx.To == addr

	direction := "send"
	switch {
	case tx.Type == database.TxSwap:
		direction = "swap"
	case isTo && !isFrom:
		direction = "receive"
	}

	status := string(state.TxSuccess)
	if atx.Failed {
		status = string(state.TxFailed)
	}

	var to string
	if tx.To != (common.Address{}) {
		to = tx.To.Hex()
	}

	obj := map[string]any{
		"hash":        tx.Hash().Hex(),
		"type":        tx.Type.String(),
		"direction":   direction,
		"from":        tx.From.Hex(),
		"to":          to,
		"value":       decimal(tx),
		"symbol":      tx.Asset.String(),
		"blockNumber": atx.BlockNumber,
		"timestamp":   atx.BlockTime,
		"status":      status,
	}

	if atx.Failed {
		obj["failureReason"] = atx.Reason
	}

	return obj
}

// =============================================================================

func decimal(tx database.BlockTx) string {
	if tx.Value == nil {
		return "0"
	}
	return tx.Value.String()
}

func uint64String(v uint64) string {
	return strconv.FormatUint(v, 10)
}
