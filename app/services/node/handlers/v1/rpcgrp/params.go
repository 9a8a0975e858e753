package rpcgrp

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
)

// positional splits the params member into its positional values.
func positional(raw json.RawMessage) ([]json.RawMessage, *errs.RPCError) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var params []json.RawMessage
	if err := json.Unmarshal(raw, &params); err != nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "params must be an array")
	}

	return params, nil
}

// present reports whether the optional parameter was supplied.
func present(params []json.RawMessage, i int) bool {
	return i < len(params) && !bytes.Equal(bytes.TrimSpace(params[i]), []byte("null"))
}

func stringParam(params []json.RawMessage, i int, name string) (string, error) {
	if !present(params, i) {
		return "", errs.NewRPCError(errs.CodeInvalidParams, "missing %s param", name)
	}

	var s string
	if err := json.Unmarshal(params[i], &s); err != nil {
		return "", errs.NewRPCError(errs.CodeInvalidParams, "invalid %s param", name)
	}

	return s, nil
}

func addressParam(params []json.RawMessage, i int) (common.Address, error) {
	s, err := stringParam(params, i, "address")
	if err != nil {
		return common.Address{}, err
	}

	if !common.IsHexAddress(s) {
		return common.Address{}, errs.NewRPCError(errs.CodeInvalidParams, "invalid address %q", s)
	}

	return common.HexToAddress(s), nil
}

func hashParam(params []json.RawMessage, i int) (common.Hash, error) {
	s, err := stringParam(params, i, "hash")
	if err != nil {
		return common.Hash{}, err
	}

	b, err := hexutil.Decode(s)
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, errs.NewRPCError(errs.CodeInvalidParams, "invalid hash %q", s)
	}

	return common.BytesToHash(b), nil
}

func boolParam(params []json.RawMessage, i int) (bool, error) {
	if !present(params, i) {
		return false, nil
	}

	var b bool
	if err := json.Unmarshal(params[i], &b); err != nil {
		return false, errs.NewRPCError(errs.CodeInvalidParams, "invalid boolean param")
	}

	return b, nil
}

func symbolParam(params []json.RawMessage, i int) (asset.Symbol, error) {
	s, err := stringParam(params, i, "asset")
	if err != nil {
		return "", err
	}
	return asset.Parse(s)
}

// intParam reads an optional JSON number or quantity string.
func intParam(params []json.RawMessage, i int, def int) (int, error) {
	if !present(params, i) {
		return def, nil
	}

	var q quantity
	if err := json.Unmarshal(params[i], &q); err != nil {
		return 0, errs.NewRPCError(errs.CodeInvalidParams, "invalid number param")
	}

	n, err := q.Uint64()
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

// =============================================================================

// blockTag is a block number parameter, either a number or one of the
// named tags.
type blockTag struct {
	latest bool
	number uint64
}

func blockTagParam(params []json.RawMessage, i int) (blockTag, error) {
	if !present(params, i) {
		return blockTag{latest: true}, nil
	}

	var q quantity
	if err := json.Unmarshal(params[i], &q); err != nil {
		return blockTag{}, errs.NewRPCError(errs.CodeInvalidParams, "invalid block number param")
	}

	switch strings.ToLower(string(q)) {
	case "latest", "pending", "safe", "finalized":
		return blockTag{latest: true}, nil
	case "earliest":
		return blockTag{number: 0}, nil
	}

	n, err := q.Uint64()
	if err != nil {
		return blockTag{}, err
	}

	return blockTag{number: n}, nil
}

// =============================================================================

// quantity accepts a JSON number, a hex string or a decimal string.
type quantity string

// UnmarshalJSON implements the json.Unmarshaler interface.
func (q *quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = quantity(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*q = quantity(n.String())
	return nil
}

// IsZero reports whether no value was provided.
func (q quantity) IsZero() bool {
	return q == ""
}

// Amount parses the quantity as a base unit amount.
func (q quantity) Amount() (*uint256.Int, error) {
	if q.IsZero() {
		return new(uint256.Int), nil
	}

	v, err := asset.ParseAmount(string(q))
	if err != nil {
		return nil, errs.NewRPCError(errs.CodeInvalidParams, "invalid quantity %q", string(q))
	}

	return v, nil
}

// Uint64 parses the quantity as an unsigned integer.
func (q quantity) Uint64() (uint64, error) {
	s := string(q)

	var n uint64
	var err error
	switch {
	case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
		n, err = strconv.ParseUint(s[2:], 16, 64)
	default:
		n, err = strconv.ParseUint(s, 10, 64)
	}

	if err != nil {
		return 0, errs.NewRPCError(errs.CodeInvalidParams, "invalid quantity %q", s)
	}

	return n, nil
}
