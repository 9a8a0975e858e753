package commands

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/pkg/errors"
)

// Proof prints the merkle proof of an included transaction and checks it
// against the transaction root of its block.
func Proof(st *state.State, hash string) error {
	if hash == "" {
		return errors.New("a transaction hash is required")
	}

	p, err := st.TransactionProof(common.HexToHash(hash))
	if err != nil {
		return errors.Wrap(err, "finding transaction")
	}

	fmt.Printf("Block: %d  Hash: %s\n", p.Block.Header.Number, p.Block.Hash())
	fmt.Printf("TransRoot: %s  Index: %d\n", p.Block.Header.TransRoot, p.Index)
	for i, sibling := range p.Proof {
		fmt.Printf("  %d: %s\n", i, sibling)
	}

	if !p.Block.VerifyProof(p.Tx, p.Index, p.Proof) {
		return errors.Errorf("proof for %s does not match the transaction root", hash)
	}
	fmt.Println("Proof verified")

	return nil
}
