package validate_test

import (
	"testing"

	"github.com/lyrion-l2/lyrion-node/foundation/validate"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type params struct {
	From string `json:"from" validate:"required,eth_addr"`
	To   string `json:"to" validate:"omitempty,eth_addr"`
}

func TestCheck(t *testing.T) {
	t.Log("Given the need to validate request parameters.")
	{
		good := params{From: "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"}
		if err := validate.Check(good); err != nil {
			t.Fatalf("\t%s\tShould accept a valid address: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a valid address.", success)

		err := validate.Check(params{To: "bob"})
		if !validate.IsFieldErrors(err) {
			t.Fatalf("\t%s\tShould return field errors, got %v.", failed, err)
		}
		t.Logf("\t%s\tShould return field errors.", success)

		fields := validate.GetFieldErrors(err).Fields()
		if _, exists := fields["from"]; !exists {
			t.Fatalf("\t%s\tShould name the missing from field: %v", failed, fields)
		}
		if _, exists := fields["to"]; !exists {
			t.Fatalf("\t%s\tShould name the invalid to field: %v", failed, fields)
		}
		t.Logf("\t%s\tShould name the fields by their json tag.", success)
	}
}
