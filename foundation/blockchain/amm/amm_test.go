package amm_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/amm"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/fault"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

var (
	provider = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	trader   = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
)

func genesisPool(t *testing.T) amm.Pool {
	p, shares, err := amm.New(asset.LYR, asset.FLR).AddLiquidity(provider, asset.Units(1_000_000), asset.Units(40_000))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to bootstrap the pool: %v", failed, err)
	}
	if shares.Dec() != "200000000000000000000000" {
		t.Fatalf("\t%s\tShould mint sqrt(r0*r1) shares, got %s.", failed, shares.Dec())
	}
	return p
}

func product(p amm.Pool) *uint256.Int {
	return new(uint256.Int).Mul(p.Reserve0, p.Reserve1)
}

func TestQuote(t *testing.T) {
	t.Log("Given the need to quote swaps against reserves.")
	{
		p := genesisPool(t)

		out, err := p.Quote(asset.LYR, asset.Units(100))
		if err != nil {
			t.Fatalf("\t%s\tShould be able to quote: %v", failed, err)
		}
		if out.Dec() != "3987602436037127098" {
			t.Logf("\t%s\tgot: %s", failed, out.Dec())
			t.Logf("\t%s\texp: %s", failed, "3987602436037127098")
			t.Fatalf("\t%s\tShould get the floor of the constant product formula.", failed)
		}
		t.Logf("\t%s\tShould get the floor of the constant product formula.", success)

		_, err = amm.Quote(uint256.NewInt(10), new(uint256.Int), uint256.NewInt(10))
		if !errors.Is(err, fault.InsufficientLiquidity) {
			t.Fatalf("\t%s\tShould fail against an empty reserve: %v", failed, err)
		}
		t.Logf("\t%s\tShould fail against an empty reserve.", success)

		prev := new(uint256.Int)
		for _, n := range []uint64{1, 2, 10, 100, 1_000, 50_000, 1_000_000} {
			q, err := p.Quote(asset.LYR, asset.Units(n))
			if err != nil {
				t.Fatalf("\t%s\tShould quote %d LYR: %v", failed, n, err)
			}
			if q.Lt(prev) {
				t.Fatalf("\t%s\tShould be monotonic in the input: %d LYR quoted %s < %s.", failed, n, q.Dec(), prev.Dec())
			}
			prev = q
		}
		t.Logf("\t%s\tShould be monotonic in the input.", success)
	}
}

func TestSwap(t *testing.T) {
	t.Log("Given the need to swap against the pool.")
	{
		p := genesisPool(t)
		before := p.Clone()

		t.Logf("\tTest 0:\tWhen swapping 100 LYR for FLR.")
		{
			np, out, err := p.Swap(asset.LYR, asset.Units(100), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to swap: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to swap.", success)

			if !np.Reserve0.Eq(new(uint256.Int).Add(before.Reserve0, asset.Units(100))) {
				t.Fatalf("\t%s\tTest 0:\tShould add the input to reserve0.", failed)
			}
			if !np.Reserve1.Eq(new(uint256.Int).Sub(before.Reserve1, out)) {
				t.Fatalf("\t%s\tTest 0:\tShould remove the output from reserve1.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould move the reserves.", success)

			if !p.Reserve0.Eq(before.Reserve0) || !p.Reserve1.Eq(before.Reserve1) {
				t.Fatalf("\t%s\tTest 0:\tShould not modify the original pool.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not modify the original pool.", success)
		}

		t.Logf("\tTest 1:\tWhen swapping with a minimum output above the quote.")
		{
			_, _, err := p.Swap(asset.FLR, asset.Units(10), asset.Units(1_000_000))
			if !errors.Is(err, fault.InsufficientLiquidity) {
				t.Fatalf("\t%s\tTest 1:\tShould fail the slippage guard: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail the slippage guard.", success)
		}

		t.Logf("\tTest 2:\tWhen swapping an amount that rounds to zero.")
		{
			_, _, err := p.Swap(asset.LYR, uint256.NewInt(1), nil)
			if !errors.Is(err, fault.InsufficientLiquidity) {
				t.Fatalf("\t%s\tTest 2:\tShould fail with insufficient liquidity: %v", failed, err)
			}
			t.Logf("\t%s\tTest 2:\tShould fail with insufficient liquidity.", success)
		}

		t.Logf("\tTest 3:\tWhen swapping an asset outside the pool.")
		{
			_, _, err := p.Swap(asset.USDT, asset.Units(1), nil)
			if !errors.Is(err, fault.InvalidTransaction) {
				t.Fatalf("\t%s\tTest 3:\tShould reject the asset: %v", failed, err)
			}
			t.Logf("\t%s\tTest 3:\tShould reject the asset.", success)
		}
	}
}

func TestConstantProduct(t *testing.T) {
	t.Log("Given the need to never decrease the constant product.")
	{
		p := genesisPool(t)

		swaps := []struct {
			in     asset.Symbol
			amount uint64
		}{
			{asset.LYR, 100}, {asset.FLR, 7}, {asset.LYR, 250_000}, {asset.FLR, 3_000}, {asset.LYR, 1}, {asset.FLR, 1},
		}

		for i, s := range swaps {
			k := product(p)

			np, _, err := p.Swap(s.in, asset.Units(s.amount), nil)
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to swap %d %s: %v", failed, i, s.amount, s.in, err)
			}

			if product(np).Lt(k) {
				t.Fatalf("\t%s\tTest %d:\tShould not decrease the product.", failed, i)
			}
			t.Logf("\t%s\tTest %d:\tShould not decrease the product after %d %s.", success, i, s.amount, s.in)

			p = np
		}
	}
}

func TestLiquidity(t *testing.T) {
	t.Log("Given the need to add and remove liquidity.")
	{
		p := genesisPool(t)

		t.Logf("\tTest 0:\tWhen a second provider adds and then removes.")
		{
			a0, a1 := asset.Units(1_000), asset.Units(50)

			np, minted, err := p.AddLiquidity(trader, a0, a1)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to add: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to add.", success)

			exp := new(uint256.Int).Div(new(uint256.Int).Mul(a0, p.TotalSupply), p.Reserve0)
			if !minted.Eq(exp) {
				t.Logf("\t%s\tTest 0:\tgot: %s", failed, minted.Dec())
				t.Logf("\t%s\tTest 0:\texp: %s", failed, exp.Dec())
				t.Fatalf("\t%s\tTest 0:\tShould mint the lesser proportional amount.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould mint the lesser proportional amount.", success)

			if err := np.CheckShares(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould keep the supply equal to the shares: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the supply equal to the shares.", success)

			rp, out0, out1, err := np.RemoveLiquidity(trader, minted)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to remove: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to remove.", success)

			if a0.Lt(out0) || a1.Lt(out1) {
				t.Fatalf("\t%s\tTest 0:\tShould not return more than deposited: %s/%s.", failed, out0.Dec(), out1.Dec())
			}
			t.Logf("\t%s\tTest 0:\tShould not return more than deposited.", success)

			if !rp.SharesOf(trader).IsZero() {
				t.Fatalf("\t%s\tTest 0:\tShould burn the shares.", failed)
			}
			if err := rp.CheckShares(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould keep the supply equal to the shares: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould burn the shares.", success)
		}

		t.Logf("\tTest 1:\tWhen removing more shares than held.")
		{
			_, _, _, err := p.RemoveLiquidity(trader, uint256.NewInt(1))
			if !errors.Is(err, fault.InsufficientShares) {
				t.Fatalf("\t%s\tTest 1:\tShould fail with insufficient shares: %v", failed, err)
			}
			t.Logf("\t%s\tTest 1:\tShould fail with insufficient shares.", success)
		}

		t.Logf("\tTest 2:\tWhen the last provider withdraws everything.")
		{
			all := p.SharesOf(provider)
			rp, out0, out1, err := p.RemoveLiquidity(provider, all)
			if err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould be able to remove: %v", failed, err)
			}
			if !out0.Eq(p.Reserve0) || !out1.Eq(p.Reserve1) {
				t.Fatalf("\t%s\tTest 2:\tShould return the full reserves.", failed)
			}
			if !rp.TotalSupply.IsZero() || !rp.Reserve0.IsZero() || !rp.Reserve1.IsZero() {
				t.Fatalf("\t%s\tTest 2:\tShould empty the pool.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould empty the pool.", success)
		}
	}
}
