package rpcgrp

import (
	"context"
	"encoding/json"
	"math/big"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/lyrion-l2/lyrion-node/foundation/validate"
)

// txObject is the transaction object accepted by eth_sendTransaction.
type txObject struct {
	ChainID      quantity `json:"chainId"`
	From         string   `json:"from" validate:"required,eth_addr"`
	To           string   `json:"to" validate:"omitempty,eth_addr"`
	Type         quantity `json:"type"`
	Value        quantity `json:"value"`
	Data         string   `json:"data"`
	Nonce        quantity `json:"nonce"`
	Gas          quantity `json:"gas"`
	GasPrice     quantity `json:"gasPrice"`
	Asset        string   `json:"asset"`
	Pair         string   `json:"pair"`
	Amount1      quantity `json:"amount1"`
	MinAmountOut quantity `json:"minAmountOut"`
	V            quantity `json:"v"`
	R            quantity `json:"r"`
	S            quantity `json:"s"`
}

func (h Handlers) sendTransaction(ctx context.Context, params []json.RawMessage) (any, error) {
	if !present(params, 0) {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "missing transaction object")
	}

	var obj txObject
	if err := json.Unmarshal(params[0], &obj); err != nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "invalid transaction object: %s", err)
	}

	if err := validate.Check(obj); err != nil {
		return nil, err
	}

	sub, err := h.toSubmission(obj)
	if err != nil {
		return nil, err
	}

	tx, err := h.State.SubmitTransaction(sub)
	if err != nil {
		return nil, err
	}

	return tx.Hash().Hex(), nil
}

func (h Handlers) sendRawTransaction(ctx context.Context, params []json.RawMessage) (any, error) {
	rawHex, err := stringParam(params, 0, "raw transaction")
	if err != nil {
		return nil, err
	}

	raw, err := hexutil.Decode(rawHex)
	if err != nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "invalid raw transaction: %s", err)
	}

	var ethTx types.Transaction
	if err := ethTx.UnmarshalBinary(raw); err != nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "tx decode failed: %s", err)
	}

	chainID := h.State.ChainID()

	signer := types.LatestSignerForChainID(new(big.Int).SetUint64(chainID))
	from, err := types.Sender(signer, &ethTx)
	if err != nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "signature verification failed: %s", err)
	}

	if ethTx.To() == nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "contract creation is not supported")
	}

	gasPrice := ethTx.GasPrice()
	if !gasPrice.IsUint64() {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "gas price %s out of range", gasPrice)
	}

	sym := asset.LYR
	if data := ethTx.Data(); len(data) > 0 {
		if sym, err = dataSymbol(data); err != nil {
			return nil, err
		}
	}

	tx := database.Tx{
		ChainID:  chainID,
		Nonce:    ethTx.Nonce(),
		Type:     database.TxTransfer,
		From:     from,
		To:       *ethTx.To(),
		Asset:    sym,
		Value:    ethTx.Value(),
		GasPrice: gasPrice.Uint64(),
		Data:     ethTx.Data(),
	}

	sub := state.Submission{
		Tx:       database.SignedTx{Tx: tx},
		Verified: true,
	}

	blockTx, err := h.State.SubmitTransaction(sub)
	if err != nil {
		return nil, err
	}

	return blockTx.Hash().Hex(), nil
}

// =============================================================================

// toSubmission translates the wallet's transaction object into a node
// transaction. An explicit asset field wins over the legacy use of data.
func (h Handlers) toSubmission(obj txObject) (state.Submission, error) {
	chainID := h.State.ChainID()
	if !obj.ChainID.IsZero() {
		id, err := obj.ChainID.Uint64()
		if err != nil {
			return state.Submission{}, err
		}
		chainID = id
	}

	var typ uint64
	if !obj.Type.IsZero() {
		var err error
		if typ, err = obj.Type.Uint64(); err != nil {
			return state.Submission{}, err
		}
	}
	if typ > 0xff || !database.TxType(typ).Valid() {
		return state.Submission{}, errs.NewRPCError(errs.CodeInvalidParams, "unknown transaction type %d", typ)
	}
	txType := database.TxType(typ)

	value, err := obj.Value.Amount()
	if err != nil {
		return state.Submission{}, err
	}

	var data []byte
	if obj.Data != "" && obj.Data != "0x" {
		if data, err = hexutil.Decode(obj.Data); err != nil {
			return state.Submission{}, errs.NewRPCError(errs.CodeInvalidParams, "invalid data: %s", err)
		}
	}

	sym := asset.LYR
	switch {
	case obj.Asset != "":
		if sym, err = asset.Parse(obj.Asset); err != nil {
			return state.Submission{}, err
		}
	case txType == database.TxTransfer && len(data) > 0:
		if sym, err = dataSymbol(data); err != nil {
			return state.Submission{}, err
		}
	}

	tx := database.Tx{
		ChainID: chainID,
		Type:    txType,
		From:    common.HexToAddress(obj.From),
		Asset:   sym,
		Value:   value.ToBig(),
		Data:    data,
	}

	switch txType {
	case database.TxTransfer:
		if obj.To != "" {
			tx.To = common.HexToAddress(obj.To)
		}

	default:
		tx.Pair = obj.Pair
		if tx.Pair == "" {
			if tx.Pair, err = h.State.DefaultPair(); err != nil {
				return state.Submission{}, err
			}
		}
	}

	switch txType {
	case database.TxAddLiquidity:
		amount1 := value
		switch {
		case !obj.Amount1.IsZero():
			if amount1, err = obj.Amount1.Amount(); err != nil {
				return state.Submission{}, err
			}
		case len(data) >= 32:
			amount1 = new(uint256.Int).SetBytes(data[:32])
		}
		tx.Amount1 = amount1.ToBig()

	case database.TxSwap:
		if !obj.MinAmountOut.IsZero() {
			minOut, err := obj.MinAmountOut.Amount()
			if err != nil {
				return state.Submission{}, err
			}
			tx.MinAmountOut = minOut.ToBig()
		}
	}

	tx.GasPrice = h.State.Genesis().GasPrice
	if !obj.GasPrice.IsZero() {
		if tx.GasPrice, err = obj.GasPrice.Uint64(); err != nil {
			return state.Submission{}, err
		}
	}

	sub := state.Submission{AssignNonce: obj.Nonce.IsZero()}
	if !sub.AssignNonce {
		if tx.Nonce, err = obj.Nonce.Uint64(); err != nil {
			return state.Submission{}, err
		}
	}

	signed := database.SignedTx{Tx: tx}
	if !obj.V.IsZero() || !obj.R.IsZero() || !obj.S.IsZero() {
		for _, sig := range []struct {
			q   quantity
			dst **big.Int
		}{{obj.V, &signed.V}, {obj.R, &signed.R}, {obj.S, &signed.S}} {
			v, err := sig.q.Amount()
			if err != nil {
				return state.Submission{}, err
			}
			*sig.dst = v.ToBig()
		}
	}
	sub.Tx = signed

	return sub, nil
}

// dataSymbol reads the asset symbol the wallet places in the data of a
// transfer.
func dataSymbol(data []byte) (asset.Symbol, error) {
	if !utf8.Valid(data) {
		return "", errs.NewRPCError(errs.CodeInvalidParams, "data is not an asset symbol")
	}
	return asset.Parse(string(data))
}
