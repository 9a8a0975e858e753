package errs_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lyrion-l2/lyrion-node/business/web/errs"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
	"github.com/lyrion-l2/lyrion-node/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestRPCCode(t *testing.T) {
	tt := []struct {
		name string
		err  error
		code int
	}{
		{"invalid", fault.New(fault.InvalidTransaction, "bad"), errs.CodeInvalidParams},
		{"nonce", fault.New(fault.InvalidNonce, "got 1, exp 0"), errs.CodeInvalidNonce},
		{"notfound", fault.New(fault.NotFound, "block 9"), errs.CodeNotFound},
		{"balance", fault.New(fault.InsufficientBalance, "short"), errs.CodeRejected},
		{"liquidity", fault.New(fault.InsufficientLiquidity, "short"), errs.CodeRejected},
		{"shares", fault.New(fault.InsufficientShares, "short"), errs.CodeRejected},
		{"stale", fault.New(fault.StaleNonce, "late"), errs.CodeRejected},
		{"wrapped", fmt.Errorf("submit: %w", fault.New(fault.InvalidNonce, "dup")), errs.CodeInvalidNonce},
		{"fields", validate.FieldErrors{{Field: "from", Err: "from is required"}}, errs.CodeInvalidParams},
		{"rpc", errs.NewRPCError(errs.CodeMethodNotFound, "nope"), errs.CodeMethodNotFound},
		{"unknown", errors.New("boom"), errs.CodeInternal},
	}

	t.Log("Given the need to map errors to JSON-RPC codes.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling the %s error.", testID, tst.name)
				{
					if code := errs.RPCCode(tst.err); code != tst.code {
						t.Fatalf("\t%s\tTest %d:\tShould get code %d, got %d.", failed, testID, tst.code, code)
					}
					t.Logf("\t%s\tTest %d:\tShould get code %d.", success, testID, tst.code)
				}
			}

			t.Run(tst.name, f)
		}
	}
}

func TestToRPCError(t *testing.T) {
	t.Log("Given the need to hide internal details from clients.")
	{
		rpcErr := errs.ToRPCError(errors.New("ledger corrupted"))
		if rpcErr.Code != errs.CodeInternal || rpcErr.Message != "internal error" {
			t.Fatalf("\t%s\tShould mask internal errors: %+v", failed, rpcErr)
		}
		t.Logf("\t%s\tShould mask internal errors.", success)

		rpcErr = errs.ToRPCError(validate.FieldErrors{{Field: "from", Err: "from is required"}})
		fields, ok := rpcErr.Data.(map[string]string)
		if !ok || fields["from"] != "from is required" {
			t.Fatalf("\t%s\tShould carry the field errors: %+v", failed, rpcErr)
		}
		t.Logf("\t%s\tShould carry the field errors.", success)
	}
}
