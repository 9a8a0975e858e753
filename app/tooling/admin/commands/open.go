// Package commands contains the functionality for the set of commands
// currently supported by the admin tool.
package commands

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database/storage/disk"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database/storage/leveldb"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/genesis"
	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/state"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrHelp provides context that help was given.
var ErrHelp = errors.New("provided help")

// Open replays the stored chain into a state that is never handed a
// worker, so nothing new is sealed.
func Open(log *zap.SugaredLogger, genesisPath string, storage string, dbPath string) (*state.State, error) {
	gen, err := genesis.Load(genesisPath)
	if err != nil {
		return nil, errors.Wrap(err, "loading genesis")
	}

	var ser database.Serializer
	switch storage {
	case "disk":
		if ser, err = disk.New(dbPath); err != nil {
			return nil, errors.Wrap(err, "opening disk storage")
		}
	case "leveldb":
		if ser, err = leveldb.New(dbPath); err != nil {
			return nil, errors.Wrap(err, "opening leveldb storage")
		}
	default:
		return nil, errors.Errorf("unknown storage %q, expecting disk or leveldb", storage)
	}

	ev := func(v string, args ...any) {
		log.Debugf(v, args...)
	}

	st, err := state.New(state.Config{
		Genesis:   gen,
		Storage:   ser,
		DevMode:   true,
		EvHandler: ev,
	})
	if err != nil {
		ser.Close()
		return nil, errors.Wrap(err, "replaying chain")
	}

	return st, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
