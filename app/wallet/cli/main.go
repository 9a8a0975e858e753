// This program is a wallet for the LYRION node. It signs transactions with
// a local key and submits them over JSON-RPC.
package main

import "github.com/lyrion-l2/lyrion-node/app/wallet/cli/cmd"

func main() {
	cmd.Execute()
}
