// Package rpcgrp maintains the group of handlers for the JSON-RPC gateway
// used by the wallet, the explorer and the exchange frontends.
package rpcgrp

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/business/web/metrics"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/lyrion-l2/lyrion-node/foundation/nameservice"
	"github.com/lyrion-l2/lyrion-node/foundation/web"
	"go.uber.org/zap"
)

// maxBodyBytes bounds the size of a request body.
const maxBodyBytes = 1 << 20

// maxBatch bounds the number of calls in a batch request.
const maxBatch = 100

// Handlers manages the set of JSON-RPC endpoints.
type Handlers struct {
	Log     *zap.SugaredLogger
	State   *state.State
	NS      *nameservice.NameService
	Metrics *metrics.Metrics
}

// request is a single JSON-RPC call.
type request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

// response is a single JSON-RPC reply. A nil result is sent as null.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *errs.RPCError  `json:"error,omitempty"`
}

// method executes a call with its positional parameters.
type method func(ctx context.Context, params []json.RawMessage) (any, error)

// RPC handles a single or batch JSON-RPC request posted by a client.
func (h Handlers) RPC(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return web.Respond(ctx, w, failure(nil, errs.NewRPCError(errs.CodeInvalidRequest, "reading body: %s", err)), http.StatusOK)
	}

	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		var batch []json.RawMessage
		if err := json.Unmarshal(body, &batch); err != nil {
			return web.Respond(ctx, w, failure(nil, errs.NewRPCError(errs.CodeParse, "parse error")), http.StatusOK)
		}

		switch {
		case len(batch) == 0:
			return web.Respond(ctx, w, failure(nil, errs.NewRPCError(errs.CodeInvalidRequest, "empty batch")), http.StatusOK)
		case len(batch) > maxBatch:
			return web.Respond(ctx, w, failure(nil, errs.NewRPCError(errs.CodeInvalidRequest, "batch of %d exceeds %d calls", len(batch), maxBatch)), http.StatusOK)
		}

		resps := make([]response, len(batch))
		for i, raw := range batch {
			resps[i] = h.call(ctx, raw)
		}
		return web.Respond(ctx, w, resps, http.StatusOK)
	}

	return web.Respond(ctx, w, h.call(ctx, body), http.StatusOK)
}

// call decodes and executes one JSON-RPC call.
func (h Handlers) call(ctx context.Context, raw json.RawMessage) response {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return failure(nil, errs.NewRPCError(errs.CodeParse, "parse error"))
	}

	if req.JSONRPC != "2.0" || req.Method == "" {
		return failure(req.ID, errs.NewRPCError(errs.CodeInvalidRequest, "invalid request"))
	}

	h.Metrics.RPCRequest(req.Method)

	fn, exists := h.methods()[req.Method]
	if !exists {
		h.Metrics.RPCError(req.Method)
		return failure(req.ID, errs.NewRPCError(errs.CodeMethodNotFound, "the method %s does not exist/is not available", req.Method))
	}

	params, perr := positional(req.Params)
	if perr != nil {
		h.Metrics.RPCError(req.Method)
		return failure(req.ID, perr)
	}

	result, err := fn(ctx, params)
	if err != nil {
		h.Metrics.RPCError(req.Method)

		rpcErr := errs.ToRPCError(err)
		if rpcErr.Code == errs.CodeInternal {
			h.Log.Errorw("rpc", "traceid", web.GetTraceID(ctx), "method", req.Method, "ERROR", err)
		}
		return failure(req.ID, rpcErr)
	}

	data, err := json.Marshal(result)
	if err != nil {
		h.Log.Errorw("rpc", "traceid", web.GetTraceID(ctx), "method", req.Method, "ERROR", err)
		return failure(req.ID, errs.NewRPCError(errs.CodeInternal, "internal error"))
	}

	return response{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  data,
	}
}

// methods returns the dispatch table.
func (h Handlers) methods() map[string]method {
	return map[string]method{
		"eth_chainId":                  h.chainID,
		"eth_blockNumber":              h.blockNumber,
		"eth_getBlockByNumber":         h.getBlockByNumber,
		"eth_getBlockByHash":           h.getBlockByHash,
		"eth_getTransactionByHash":     h.getTransactionByHash,
		"eth_getTransactionReceipt":    h.getTransactionReceipt,
		"eth_getBalance":               h.getBalance,
		"eth_getTransactionCount":      h.getTransactionCount,
		"eth_estimateGas":              h.estimateGas,
		"eth_sendTransaction":          h.sendTransaction,
		"eth_sendRawTransaction":       h.sendRawTransaction,
		"lyr_getBalances":              h.getBalances,
		"lyr_getPool":                  h.getPool,
		"lyr_getLPBalance":             h.getLPBalance,
		"lyr_quote":                    h.quote,
		"lyr_getNetworkStats":          h.getNetworkStats,
		"lyr_getTransactionsByBlock":   h.getTransactionsByBlock,
		"lyr_getTransactionsByAddress": h.getTransactionsByAddress,
		"lyr_getLatestBlocks":          h.getLatestBlocks,
		"lyr_getTransactionStatus":     h.getTransactionStatus,
		"lyr_getTransactionProof":      h.getTransactionProof,
		"lyr_getAccounts":              h.getAccounts,
	}
}

func failure(id json.RawMessage, err *errs.RPCError) response {
	return response{
		JSONRPC: "2.0",
		ID:      id,
		Error:   err,
	}
}
