package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/spf13/cobra"
)

var (
	to       string
	value    string
	symbol   string
	gasPrice uint64
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a transfer",
	Run:   sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the transfer.")
	sendCmd.Flags().StringVarP(&value, "value", "v", "", "Whole tokens to send, such as 1.5.")
	sendCmd.Flags().StringVarP(&symbol, "asset", "s", "LYR", "Asset to send.")
	sendCmd.Flags().Uint64VarP(&gasPrice, "gas-price", "g", 1_000_000_000, "Fee per unit of gas in LYR base units.")
}

func sendRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	if !common.IsHexAddress(to) {
		log.Fatalf("invalid to address %q", to)
	}

	sym, err := asset.Parse(symbol)
	if err != nil {
		log.Fatal(err)
	}

	amount, err := asset.ParseUnits(value)
	if err != nil {
		log.Fatal(err)
	}

	tx := database.Tx{
		Type:     database.TxTransfer,
		To:       common.HexToAddress(to),
		Asset:    sym,
		Value:    amount.ToBig(),
		GasPrice: gasPrice,
	}

	hash, err := newClient(url).submit(cmd.Context(), privateKey, tx)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(hash)
}
