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
	pair   string
	minOut string
)

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Swap an asset through a pool",
	Run:   swapRun,
}

func init() {
	rootCmd.AddCommand(swapCmd)
	swapCmd.Flags().StringVarP(&pair, "pair", "x", "LYR-FLR", "Pool to swap through.")
	swapCmd.Flags().StringVarP(&symbol, "asset", "s", "LYR", "Asset to swap in.")
	swapCmd.Flags().StringVarP(&value, "value", "v", "", "Whole tokens to swap in.")
	swapCmd.Flags().StringVarP(&minOut, "min-out", "m", "", "Minimum whole tokens to receive.")
	swapCmd.Flags().Uint64VarP(&gasPrice, "gas-price", "g", 1_000_000_000, "Fee per unit of gas in LYR base units.")
}

func swapRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	sym, err := asset.Parse(symbol)
	if err != nil {
		log.Fatal(err)
	}

	amount, err := asset.ParseUnits(value)
	if err != nil {
		log.Fatal(err)
	}

	c := newClient(url)

	var quote string
	if err := c.call(cmd.Context(), "lyr_quote", &quote, pair, sym.String(), asset.Hex(amount)); err != nil {
		log.Fatal(err)
	}
	out, err := hexutil.DecodeBig(quote)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("Quoted output:", out)

	tx := database.Tx{
		Type:     database.TxSwap,
		Asset:    sym,
		Pair:     pair,
		Value:    amount.ToBig(),
		GasPrice: gasPrice,
	}

	if minOut != "" {
		v, err := asset.ParseUnits(minOut)
		if err != nil {
			log.Fatal(err)
		}
		if !v.IsZero() {
			tx.MinAmountOut = v.ToBig()
		}
	}

	hash, err := c.submit(cmd.Context(), privateKey, tx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(hash)
}
