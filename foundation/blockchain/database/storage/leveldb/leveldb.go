// Package leveldb implements the ability to read and write blocks to a
// LevelDB key/value store.
package leveldb

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lyrion-l2/lyrion-node/foundation/blockchain/database"
	"github.com/syndtr/goleveldb/leveldb"
	ldb_opt "github.com/syndtr/goleveldb/leveldb/opt"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"
)

// Key prefixes.
var (
	blockPrefix = []byte{'B'}
	versionKey  = []byte{0x00, 'V', 'E', 'R', 'S', 'I', 'O', 'N'}
)

// currentVersion identifies the layout of the stored blocks.
const currentVersion = 0x100

// LevelDB represents the serialization implementation for reading and
// storing blocks in a LevelDB database. This implements the
// database.Serializer interface.
type LevelDB struct {
	db *leveldb.DB
}

// New opens or creates the database at the specified path.
func New(dbPath string) (*LevelDB, error) {
	db, err := leveldb.OpenFile(dbPath, &ldb_opt.Options{
		ErrorIfMissing: false,
	})
	if err != nil {
		return nil, fmt.Errorf("opening leveldb: %w", err)
	}

	ldb := LevelDB{db: db}

	version, err := ldb.version()
	if err != nil {
		db.Close()
		return nil, err
	}

	switch {
	case version == 0:
		if err := ldb.putVersion(); err != nil {
			db.Close()
			return nil, err
		}
	case version != currentVersion:
		db.Close()
		return nil, fmt.Errorf("leveldb version %#x, exp %#x", version, currentVersion)
	}

	return &ldb, nil
}

// Close closes the database.
func (l *LevelDB) Close() error {
	return l.db.Close()
}

// Write stores the block under its number.
func (l *LevelDB) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return l.db.Put(blockKey(blockData.Header.Number), data, &ldb_opt.WriteOptions{Sync: true})
}

// GetBlock returns the block stored under the number.
func (l *LevelDB) GetBlock(num uint64) (database.BlockData, error) {
	data, err := l.db.Get(blockKey(num), nil)
	if err != nil {
		return database.BlockData{}, err
	}

	var blockData database.BlockData
	if err := json.Unmarshal(data, &blockData); err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (l *LevelDB) ForEach() database.Iterator {
	return &Iterator{ldb: l}
}

// Reset deletes every stored block.
func (l *LevelDB) Reset() error {
	iter := l.db.NewIterator(ldb_util.BytesPrefix(blockPrefix), nil)
	defer iter.Release()

	batch := new(leveldb.Batch)
	for iter.Next() {
		key := make([]byte, len(iter.Key()))
		copy(key, iter.Key())
		batch.Delete(key)
	}
	if err := iter.Error(); err != nil {
		return err
	}

	return l.db.Write(batch, &ldb_opt.WriteOptions{Sync: true})
}

func (l *LevelDB) version() (int, error) {
	data, err := l.db.Get(versionKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(data) != 4 {
		return 0, errors.New("malformed leveldb version")
	}

	return int(binary.BigEndian.Uint32(data)), nil
}

func (l *LevelDB) putVersion() error {
	data := binary.BigEndian.AppendUint32(nil, currentVersion)
	return l.db.Put(versionKey, data, nil)
}

func blockKey(num uint64) []byte {
	return binary.BigEndian.AppendUint64(append([]byte{}, blockPrefix...), num)
}

// =============================================================================

// Iterator walks the stored blocks in order. This implements the database
// Iterator interface.
type Iterator struct {
	ldb     *LevelDB
	current uint64
	eoc     bool
}

// Next retrieves the next block.
func (li *Iterator) Next() (database.BlockData, error) {
	if li.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	li.current++
	blockData, err := li.ldb.GetBlock(li.current)
	if errors.Is(err, leveldb.ErrNotFound) {
		li.eoc = true
		return database.BlockData{}, nil
	}

	return blockData, err
}

// Done returns the end of chain value.
func (li *Iterator) Done() bool {
	return li.eoc
}
