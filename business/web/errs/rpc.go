package errs

import (
	"errors"
	"fmt"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
	"github.com/lyrion-l2/lyrion-node/foundation/validate"
)

// The set of JSON-RPC error codes returned by the node.
const (
	CodeParse          = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternal       = -32603
	CodeInvalidNonce   = -32000
	CodeNotFound       = -32001
	CodeRejected       = -32003
	CodeRateLimited    = -32005
)

// RPCError is the error object of a JSON-RPC response.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// NewRPCError constructs an error with the specified code.
func NewRPCError(code int, format string, args ...any) *RPCError {
	return &RPCError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (re *RPCError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", re.Code, re.Message)
}

// RPCCode maps an error to its JSON-RPC code.
func RPCCode(err error) int {
	var re *RPCError
	if errors.As(err, &re) {
		return re.Code
	}

	if validate.IsFieldErrors(err) {
		return CodeInvalidParams
	}

	switch fault.KindOf(err) {
	case fault.InvalidTransaction:
		return CodeInvalidParams
	case fault.InvalidNonce:
		return CodeInvalidNonce
	case fault.NotFound:
		return CodeNotFound
	case fault.InsufficientBalance, fault.InsufficientLiquidity, fault.InsufficientShares, fault.StaleNonce:
		return CodeRejected
	}

	return CodeInternal
}

// ToRPCError converts any error into the JSON-RPC error object.
func ToRPCError(err error) *RPCError {
	var re *RPCError
	if errors.As(err, &re) {
		return re
	}

	rpcErr := RPCError{
		Code:    RPCCode(err),
		Message: err.Error(),
	}

	if fe := validate.GetFieldErrors(err); fe != nil {
		rpcErr.Data = fe.Fields()
	}

	if rpcErr.Code == CodeInternal {
		rpcErr.Message = "internal error"
	}

	return &rpcErr
}
