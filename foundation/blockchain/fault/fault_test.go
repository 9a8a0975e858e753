package fault_test

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func TestKindOf(t *testing.T) {
	type table struct {
		name string
		err  error
		kind fault.Kind
	}

	tt := []table{
		{name: "nil", err: nil, kind: ""},
		{name: "direct", err: fault.New(fault.InsufficientBalance, "have %d, need %d", 1, 2), kind: fault.InsufficientBalance},
		{name: "wrapped", err: fmt.Errorf("apply: %w", fault.New(fault.InvalidNonce, "got 3, exp 2")), kind: fault.InvalidNonce},
		{name: "sentinel", err: fault.NotFound, kind: fault.NotFound},
		{name: "foreign", err: io.ErrUnexpectedEOF, kind: fault.InternalFault},
	}

	t.Log("Given the need to classify errors by kind.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a %s error.", testID, tst.name)
			{
				f := func(t *testing.T) {
					got := fault.KindOf(tst.err)
					if got != tst.kind {
						t.Logf("\t%s\tTest %d:\tgot: %q", failed, testID, got)
						t.Logf("\t%s\tTest %d:\texp: %q", failed, testID, tst.kind)
						t.Fatalf("\t%s\tTest %d:\tShould get back the right kind.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get back the right kind.", success, testID)

					if tst.err != nil && tst.kind != fault.InternalFault && !errors.Is(tst.err, tst.kind) {
						t.Fatalf("\t%s\tTest %d:\tShould match the kind with errors.Is.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould match the kind with errors.Is.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func TestMessage(t *testing.T) {
	t.Log("Given the need to render a kind with its detail.")
	{
		err := fault.New(fault.InsufficientShares, "have %d, need %d", 5, 10)
		exp := "insufficient shares: have 5, need 10"
		if err.Error() != exp {
			t.Logf("\t%s\tgot: %s", failed, err)
			t.Logf("\t%s\texp: %s", failed, exp)
			t.Fatalf("\t%s\tShould render the kind and detail.", failed)
		}
		t.Logf("\t%s\tShould render the kind and detail.", success)

		if !fault.IsInternal(fault.New(fault.InternalFault, "reserve mismatch")) {
			t.Fatalf("\t%s\tShould identify an internal fault.", failed)
		}
		t.Logf("\t%s\tShould identify an internal fault.", success)
	}
}
