package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	amount0 string
	amount1 string
	shares  string
)

var liquidityCmd = &cobra.Command{
	Use:   "liquidity",
	Short: "Manage pool liquidity",
}

var addLiquidityCmd = &cobra.Command{
	Use:   "add",
	Short: "Deposit both assets of a pool",
	Run:   addLiquidityRun,
}

var removeLiquidityCmd = &cobra.Command{
	Use:   "remove",
	Short: "Withdraw liquidity shares from a pool",
	Run:   removeLiquidityRun,
}

var sharesCmd = &cobra.Command{
	Use:   "shares",
	Short: "Print your liquidity shares in a pool",
	Run:   sharesRun,
}

func init() {
	rootCmd.AddCommand(liquidityCmd)
	liquidityCmd.AddCommand(addLiquidityCmd, removeLiquidityCmd, sharesCmd)

	liquidityCmd.PersistentFlags().StringVarP(&pair, "pair", "x", "LYR-FLR", "Pool to provide liquidity to.")
	liquidityCmd.PersistentFlags().Uint64VarP(&gasPrice, "gas-price", "g", 1_000_000_000, "Fee per unit of gas in LYR base units.")

	addLiquidityCmd.Flags().StringVar(&amount0, "amount0", "", "Whole tokens of the first asset of the pool.")
	addLiquidityCmd.Flags().StringVar(&amount1, "amount1", "", "Whole tokens of the second asset of the pool.")

	removeLiquidityCmd.Flags().StringVar(&shares, "shares", "", "Shares to withdraw in base units, 0x hex or decimal.")
}

func addLiquidityRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	c := newClient(url)

	var pool map[string]string
	if err := c.call(cmd.Context(), "lyr_getPool", &pool, pair); err != nil {
		log.Fatal(err)
	}

	sym, err := asset.Parse(pool["asset0"])
	if err != nil {
		log.Fatal(err)
	}

	a0, err := asset.ParseUnits(amount0)
	if err != nil {
		log.Fatal(err)
	}

	a1, err := asset.ParseUnits(amount1)
	if err != nil {
		log.Fatal(err)
	}

	tx := database.Tx{
		Type:     database.TxAddLiquidity,
		Asset:    sym,
		Pair:     pair,
		Value:    a0.ToBig(),
		Amount1:  a1.ToBig(),
		GasPrice: gasPrice,
	}

	hash, err := c.submit(cmd.Context(), privateKey, tx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(hash)
}

func removeLiquidityRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	v, err := asset.ParseAmount(shares)
	if err != nil {
		log.Fatal(err)
	}

	tx := database.Tx{
		Type:     database.TxRemoveLiquidity,
		Asset:    asset.LYR,
		Pair:     pair,
		Value:    v.ToBig(),
		GasPrice: gasPrice,
	}

	hash, err := newClient(url).submit(cmd.Context(), privateKey, tx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(hash)
}

func sharesRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	addr := crypto.PubkeyToAddress(privateKey.PublicKey)

	var held string
	if err := newClient(url).call(cmd.Context(), "lyr_getLPBalance", &held, pair, addr.Hex()); err != nil {
		log.Fatal(err)
	}

	v, err := hexutil.DecodeBig(held)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(v)
}
