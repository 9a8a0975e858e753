package database

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/signature"
)

// TxType identifies the operation a transaction performs. The numeric values
// are part of the wire contract with clients.
type TxType uint8

// The set of transaction types.
const (
	TxTransfer        TxType = 0
	TxSwap            TxType = 1
	TxAddLiquidity    TxType = 2
	TxRemoveLiquidity TxType = 3
)

// Valid reports whether the type is known.
func (t TxType) Valid() bool {
	return t <= TxRemoveLiquidity
}

// String returns the name used by clients for the type.
func (t TxType) String() string {
	switch t {
	case TxTransfer:
		return "transfer"
	case TxSwap:
		return "swap"
	case TxAddLiquidity:
		return "add_liquidity"
	case TxRemoveLiquidity:
		return "remove_liquidity"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Gas returns the gas charged for the type.
func (t TxType) Gas() uint64 {
	switch t {
	case TxTransfer:
		return 21_000
	case TxSwap:
		return 30_000
	default:
		return 50_000
	}
}

// =============================================================================

// Tx is the transactional information submitted by a client.
type Tx struct {
	ChainID      uint64         `json:"chain_id"`                 // Ethereum: The chain id that is listed in the genesis file.
	Nonce        uint64         `json:"nonce"`                    // Ethereum: Unique id for the transaction supplied by the user.
	Type         TxType         `json:"type"`                     // Operation to perform.
	From         common.Address `json:"from"`                     // Ethereum: Account sending the transaction.
	To           common.Address `json:"to"`                       // Ethereum: Account receiving a transfer.
	Asset        asset.Symbol   `json:"asset"`                    // Asset transferred, swapped in, or deposited as asset0.
	Pair         string         `json:"pair,omitempty"`           // Pool used by swap and liquidity operations.
	Value        *big.Int       `json:"value"`                    // Ethereum: Amount, amountIn, amount0, or shares depending on type.
	Amount1      *big.Int       `json:"amount1,omitempty"`        // Second asset deposited by AddLiquidity.
	MinAmountOut *big.Int       `json:"min_amount_out,omitempty"` // Slippage guard for Swap.
	GasPrice     uint64         `json:"gas_price"`                // Ethereum: Fee paid per unit of gas, in LYR base units.
	Data         hexutil.Bytes  `json:"data,omitempty"`           // Ethereum: Extra data related to the transaction.
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// Validate performs the structural checks that do not depend on state.
func (tx Tx) Validate(chainID uint64) error {
	if tx.ChainID != chainID {
		return fault.New(fault.InvalidTransaction, "invalid chain id, got[%d] exp[%d]", tx.ChainID, chainID)
	}

	if !tx.Type.Valid() {
		return fault.New(fault.InvalidTransaction, "unknown transaction type %d", tx.Type)
	}

	if tx.From == (common.Address{}) {
		return fault.New(fault.InvalidTransaction, "from address is required")
	}

	if !tx.Asset.Valid() {
		return fault.New(fault.InvalidTransaction, "unknown asset %q", tx.Asset)
	}

	if tx.Value == nil || tx.Value.Sign() <= 0 {
		return fault.New(fault.InvalidTransaction, "value must be positive")
	}

	for _, v := range []*big.Int{tx.Value, tx.Amount1, tx.MinAmountOut} {
		if _, err := asset.FromBig(v); err != nil {
			return err
		}
	}

	switch tx.Type {
	case TxTransfer:
		if tx.To == (common.Address{}) {
			return fault.New(fault.InvalidTransaction, "to address is required for a transfer")
		}
		if tx.To == tx.From {
			return fault.New(fault.InvalidTransaction, "transfer to self is not allowed")
		}

	case TxAddLiquidity:
		if tx.Amount1 == nil || tx.Amount1.Sign() <= 0 {
			return fault.New(fault.InvalidTransaction, "amount1 must be positive")
		}
	}

	return nil
}

// =============================================================================

// SignedTx is a transaction with the optional signature of the sender.
type SignedTx struct {
	Tx
	V *big.Int `json:"v,omitempty"` // Ethereum: Recovery identifier, either 29 or 30 with lyrionID.
	R *big.Int `json:"r,omitempty"` // Ethereum: First coordinate of the ECDSA signature.
	S *big.Int `json:"s,omitempty"` // Ethereum: Second coordinate of the ECDSA signature.
}

// Signed reports whether signature values are present.
func (tx SignedTx) Signed() bool {
	return tx.V != nil && tx.R != nil && tx.S != nil
}

// Validate checks the transaction and, when signed, that the signature was
// produced by the from address.
func (tx SignedTx) Validate(chainID uint64) error {
	if err := tx.Tx.Validate(chainID); err != nil {
		return err
	}

	if !tx.Signed() {
		return nil
	}

	addr, err := tx.FromAddress()
	if err != nil {
		return fault.New(fault.InvalidTransaction, "signature: %s", err)
	}

	if addr != tx.From {
		return fault.New(fault.InvalidTransaction, "signature does not match from address, got %s", addr)
	}

	return nil
}

// FromAddress recovers the address that signed the transaction.
func (tx SignedTx) FromAddress() (common.Address, error) {
	return signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%d:%s", tx.From, tx.Nonce, tx.Type)
}

// =============================================================================

// BlockTx represents the transaction as it's recorded inside a block. The
// sequence number is assigned on arrival and makes the hash unique even when
// a client resubmits identical data.
type BlockTx struct {
	SignedTx
	Seq       uint64 `json:"seq"`       // Arrival order at the sequencer.
	TimeStamp uint64 `json:"timestamp"` // Ethereum: The time the transaction was received, in milliseconds.
	Gas       uint64 `json:"gas"`       // Ethereum: Gas charged if the transaction succeeds.
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx, seq uint64, timeStamp uint64) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		Seq:       seq,
		TimeStamp: timeStamp,
		Gas:       signedTx.Type.Gas(),
	}
}

// Hash implements the merkle Hashable interface.
func (tx BlockTx) Hash() common.Hash {
	return signature.Hash(tx)
}

// Fee returns the LYR fee paid when the transaction succeeds.
func (tx BlockTx) Fee() *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(tx.Gas), new(big.Int).SetUint64(tx.GasPrice))
}
