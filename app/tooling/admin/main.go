// This program performs administrative tasks against a stored chain while
// the node is stopped.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ardanlabs/conf/v3"
	"github.com/lyrion-l2/lyrion-node/app/tooling/admin/commands"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/lyrion-l2/lyrion-node/foundation/logger"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {
	cfg := struct {
		conf.Version
		Args  conf.Args
		State struct {
			GenesisPath string `conf:"default:zblock/genesis.json"`
			DBPath      string `conf:"default:zblock/blocks/"`
			Storage     string `conf:"default:disk"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "LYRION chain administration",
		},
	}

	const prefix = "LYRION"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	st, err := commands.Open(log, cfg.State.GenesisPath, cfg.State.Storage, cfg.State.DBPath)
	if err != nil {
		return err
	}
	defer st.Shutdown()

	return processCommands(cfg.Args, st)
}

// processCommands handles the execution of the commands specified on
// the command line.
func processCommands(args conf.Args, st *state.State) error {
	switch args.Num(0) {
	case "verify":
		if err := commands.Verify(st); err != nil {
			return fmt.Errorf("verifying chain: %w", err)
		}

	case "bals":
		if err := commands.Balances(st, args.Num(1)); err != nil {
			return fmt.Errorf("getting balances: %w", err)
		}

	case "blocks":
		if err := commands.Blocks(st, args.Num(1), args.Num(2)); err != nil {
			return fmt.Errorf("getting blocks: %w", err)
		}

	case "trans":
		if err := commands.Transactions(st, args.Num(1)); err != nil {
			return fmt.Errorf("getting transactions: %w", err)
		}

	case "pools":
		commands.Pools(st)

	case "proof":
		if err := commands.Proof(st, args.Num(1)); err != nil {
			return fmt.Errorf("proving transaction: %w", err)
		}

	case "reset":
		if err := commands.Reset(st, args.Num(1)); err != nil {
			return fmt.Errorf("resetting chain: %w", err)
		}

	default:
		fmt.Println("verify:    replay the stored chain and report the state root")
		fmt.Println("bals:      print the balances of every account or of one: bals <address>")
		fmt.Println("blocks:    print the headers of a range of blocks: blocks <from> <to>")
		fmt.Println("trans:     print the transactions of an account: trans <address>")
		fmt.Println("pools:     print the reserves of every pool")
		fmt.Println("proof:     print and check the merkle proof of a transaction: proof <hash>")
		fmt.Println("reset:     remove every stored block: reset yes")
		fmt.Println("provide a command to get more help.")
		return commands.ErrHelp
	}

	return nil
}
