// Package asset defines the assets held in ledger accounts and helpers for
// working with their base unit amounts.
package asset

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Symbol identifies an asset.
type Symbol string

// The set of known assets.
const (
	LYR  Symbol = "LYR"
	FLR  Symbol = "FLR"
	USDT Symbol = "USDT"
)

// All lists the known assets in their canonical order.
var All = []Symbol{LYR, FLR, USDT}

// Decimals is the number of implied decimal places for every asset.
const Decimals = 18

// Parse converts a string into a known asset symbol.
func Parse(s string) (Symbol, error) {
	sym := Symbol(strings.ToUpper(strings.TrimSpace(s)))
	if !sym.Valid() {
		return "", fault.New(fault.InvalidTransaction, "unknown asset %q", s)
	}

	return sym, nil
}

// Valid reports whether the symbol is a known asset.
func (s Symbol) Valid() bool {
	switch s {
	case LYR, FLR, USDT:
		return true
	}
	return false
}

// String implements the fmt.Stringer interface.
func (s Symbol) String() string {
	return string(s)
}

// =============================================================================

var unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)

// Units returns the base unit amount for a number of whole tokens.
func Units(whole uint64) *uint256.Int {
	v := new(big.Int).Mul(new(big.Int).SetUint64(whole), unit)
	return uint256.MustFromBig(v)
}

// ParseAmount parses a base unit amount written as 0x hex or as a decimal
// string.
func ParseAmount(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fault.New(fault.InvalidTransaction, "empty amount")
	}

	v := new(big.Int)
	var ok bool
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		if len(s) == 2 {
			return new(uint256.Int), nil
		}
		v, ok = v.SetString(s[2:], 16)
	default:
		v, ok = v.SetString(s, 10)
	}
	if !ok {
		return nil, fault.New(fault.InvalidTransaction, "malformed amount %q", s)
	}

	return FromBig(v)
}

// ParseUnits parses a number of whole tokens with up to 18 decimal places,
// such as "1.5", into base units.
func ParseUnits(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)

	whole, frac, _ := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	if len(frac) > Decimals {
		return nil, fault.New(fault.InvalidTransaction, "amount %q has more than %d decimals", s, Decimals)
	}

	digits := whole + frac + strings.Repeat("0", Decimals-len(frac))
	if strings.ContainsAny(digits, "+-") {
		return nil, fault.New(fault.InvalidTransaction, "malformed amount %q", s)
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fault.New(fault.InvalidTransaction, "malformed amount %q", s)
	}

	return FromBig(v)
}

// FromBig converts a big integer to a base unit amount.
func FromBig(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return new(uint256.Int), nil
	}
	if v.Sign() < 0 {
		return nil, fault.New(fault.InvalidTransaction, "negative amount %s", v)
	}

	amount, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fault.New(fault.InvalidTransaction, "amount %s exceeds 256 bits", v)
	}

	return amount, nil
}

// Hex returns the amount in the 0x quantity encoding.
func Hex(v *uint256.Int) string {
	if v == nil {
		return "0x0"
	}
	return hexutil.EncodeBig(v.ToBig())
}

// Decimal returns the amount as a base ten string.
func Decimal(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}
