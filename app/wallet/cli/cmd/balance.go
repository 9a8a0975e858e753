package cmd

import (
	"fmt"
	"log"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/asset"
	"github.com/spf13/cobra"
)

var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Print your balances.",
	Run:   balanceRun,
}

func init() {
	rootCmd.AddCommand(balanceCmd)
}

func balanceRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		log.Fatal(err)
	}

	addr := crypto.PubkeyToAddress(privateKey.PublicKey)
	fmt.Println("For Account:", addr)

	var bals map[string]string
	if err := newClient(url).call(cmd.Context(), "lyr_getBalances", &bals, addr.Hex()); err != nil {
		log.Fatal(err)
	}

	for _, sym := range asset.All {
		v, err := hexutil.DecodeBig(bals[sym.String()])
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%-5s %s\n", sym, v)
	}
}
