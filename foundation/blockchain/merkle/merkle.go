// Package merkle computes merkle roots over ordered lists of hashes. The
// block transaction root is built with this package.
package merkle

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Hashable represents the behavior concrete data must exhibit to be used as
// a leaf of the tree.
type Hashable interface {
	Hash() common.Hash
}

// Root returns the merkle root of the values. An empty list produces the
// zero hash. When a level has an odd number of nodes the last node is
// paired with itself.
func Root[T Hashable](values []T) common.Hash {
	if len(values) == 0 {
		return common.Hash{}
	}

	level := make([]common.Hash, len(values))
	for i, v := range values {
		level[i] = v.Hash()
	}

	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		next := make([]common.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, crypto.Keccak256Hash(level[i][:], level[i+1][:]))
		}
		level = next
	}

	return level[0]
}

// Proof returns the sibling hashes needed to prove the value at index is
// part of the tree.
func Proof[T Hashable](values []T, index int) []common.Hash {
	if index < 0 || index >= len(values) {
		return nil
	}

	level := make([]common.Hash, len(values))
	for i, v := range values {
		level[i] = v.Hash()
	}

	var proof []common.Hash
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}

		proof = append(proof, level[index^1])

		next := make([]common.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, crypto.Keccak256Hash(level[i][:], level[i+1][:]))
		}
		level = next
		index /= 2
	}

	return proof
}

// Verify checks the leaf at index hashes up to the root using the proof.
func Verify(root, leaf common.Hash, index int, proof []common.Hash) bool {
	h := leaf
	for _, sibling := range proof {
		if index%2 == 0 {
			h = crypto.Keccak256Hash(h[:], sibling[:])
		} else {
			h = crypto.Keccak256Hash(sibling[:], h[:])
		}
		index /= 2
	}
	return h == root
}
