package commands

import (
	"fmt"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/pkg/errors"
)

// Reset removes every stored block so the node starts again from genesis.
// The confirm argument must be "yes".
func Reset(st *state.State, confirm string) error {
	if confirm != "yes" {
		return errors.New("reset removes every stored block, run: reset yes")
	}

	height := st.Height()
	if err := st.Reset(); err != nil {
		return errors.Wrap(err, "resetting chain")
	}

	fmt.Printf("Removed %d blocks, chain is back at genesis\n", height)

	return nil
}
