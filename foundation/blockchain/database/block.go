package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/merkle"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/signature"
)

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number      uint64         `json:"number"`       // Ethereum: Block number in the chain.
	ParentHash  common.Hash    `json:"parent_hash"`  // Bitcoin: Hash of the previous block in the chain.
	TimeStamp   uint64         `json:"timestamp"`    // Bitcoin: Time the block was sealed, in seconds.
	Beneficiary common.Address `json:"beneficiary"`  // Ethereum: The account who is receiving fees.
	StateRoot   common.Hash    `json:"state_root"`   // Ethereum: Digest of the ledger and pools after the block.
	TransRoot   common.Hash    `json:"trans_root"`   // Bitcoin/Ethereum: Merkle root of the included transactions.
	GasUsed     uint64         `json:"gas_used"`     // Ethereum: Gas charged for the included transactions.
	GasLimit    uint64         `json:"gas_limit"`    // Ethereum: Maximum gas allowed in the block.
	TxCount     uint64         `json:"tx_count"`     // Number of included transactions.
	FailedCount uint64         `json:"failed_count"` // Number of transactions recorded as failed.
}

// FailedTx records a transaction that was drained for a block but could not
// be applied.
type FailedTx struct {
	Tx     BlockTx    `json:"tx"`
	Kind   fault.Kind `json:"kind"`
	Reason string     `json:"reason"`
}

// Hash returns the hash of the failed transaction.
func (ftx FailedTx) Hash() common.Hash {
	return ftx.Tx.Hash()
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  []BlockTx
	Failed []FailedTx
}

// NewBlock constructs a block sealing the included and failed transactions
// on top of the parent.
func NewBlock(parent Block, beneficiary common.Address, timeStamp uint64, gasLimit uint64, stateRoot common.Hash, trans []BlockTx, failed []FailedTx) Block {
	if timeStamp < parent.Header.TimeStamp {
		timeStamp = parent.Header.TimeStamp
	}

	var gasUsed uint64
	for _, tx := range trans {
		gasUsed += tx.Gas
	}

	return Block{
		Header: BlockHeader{
			Number:      parent.Header.Number + 1,
			ParentHash:  parent.Hash(),
			TimeStamp:   timeStamp,
			Beneficiary: beneficiary,
			StateRoot:   stateRoot,
			TransRoot:   merkle.Root(trans),
			GasUsed:     gasUsed,
			GasLimit:    gasLimit,
			TxCount:     uint64(len(trans)),
			FailedCount: uint64(len(failed)),
		},
		Trans:  trans,
		Failed: failed,
	}
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() common.Hash {

	// Hashing the block header and not the whole block so the chain can be
	// checked by only needing block headers. The transaction root in the
	// header binds the transactions.

	return signature.Hash(b.Header)
}

// Size returns the encoded size of the block in bytes.
func (b Block) Size() uint64 {
	data, err := json.Marshal(NewBlockData(b))
	if err != nil {
		return 0
	}
	return uint64(len(data))
}

// Proof returns the merkle proof for the transaction at the index.
func (b Block) Proof(index int) []common.Hash {
	return merkle.Proof(b.Trans, index)
}

// VerifyProof reports whether the proof places the transaction at index
// under the transaction root of the block.
func (b Block) VerifyProof(tx BlockTx, index int, proof []common.Hash) bool {
	return merkle.Verify(b.Header.TransRoot, tx.Hash(), index, proof)
}

// ValidateBlock takes a block and validates it can follow the previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	evHandler("database: ValidateBlock: validate: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.ParentHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.ParentHash, previousBlock.Hash())
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: block's timestamp is not before parent block's timestamp", b.Header.Number)

	if b.Header.TimeStamp < previousBlock.Header.TimeStamp {
		return fmt.Errorf("block timestamp is before parent block, parent %d, block %d", previousBlock.Header.TimeStamp, b.Header.TimeStamp)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: merkle root does match transactions", b.Header.Number)

	if root := merkle.Root(b.Trans); b.Header.TransRoot != root {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", root, b.Header.TransRoot)
	}

	evHandler("database: ValidateBlock: validate: blk[%d]: check: counts and gas match the body", b.Header.Number)

	if b.Header.TxCount != uint64(len(b.Trans)) || b.Header.FailedCount != uint64(len(b.Failed)) {
		return errors.New("transaction counts do not match the block body")
	}

	var gasUsed uint64
	for _, tx := range b.Trans {
		gasUsed += tx.Gas
	}
	if gasUsed != b.Header.GasUsed {
		return fmt.Errorf("gas used does not match transactions, got %d, exp %d", gasUsed, b.Header.GasUsed)
	}

	return nil
}

// =============================================================================

// BlockData represents what can be serialized to disk.
type BlockData struct {
	Hash   common.Hash `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []BlockTx   `json:"trans"`
	Failed []FailedTx  `json:"failed"`
}

// NewBlockData constructs block data from a block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans,
		Failed: block.Failed,
	}
}

// ToBlock converts a storage block into a database block.
func ToBlock(blockData BlockData) (Block, error) {
	block := Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
		Failed: blockData.Failed,
	}

	if hash := block.Hash(); hash != blockData.Hash {
		return Block{}, fmt.Errorf("block %d hash mismatch, got %s, exp %s", blockData.Header.Number, hash, blockData.Hash)
	}

	return block, nil
}
