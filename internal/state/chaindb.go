package state

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/pebble"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/ethereum/go-ethereum/triedb/pathdb"
	"github.com/holiman/uint256"
)

//go:generate mockgen -source chaindb.go -destination chaindb_mocks.go -package state

// StateView is a read-only view of the world state at one root.
// *gethstate.StateDB satisfies it.
type StateView interface {
	GetBalance(addr common.Address) *uint256.Int
	GetNonce(addr common.Address) uint64
	GetCode(addr common.Address) []byte
	GetState(addr common.Address, key common.Hash) common.Hash
	// Error returns the first database failure hit by any getter.
	Error() error
}

// ChainDB is the part of a node's chain database the local backend needs.
// Header lookups return nil when the header is not present.
type ChainDB interface {
	HeadHeader() *types.Header
	CanonicalHeader(number uint64) *types.Header
	Header(hash common.Hash, number uint64) *types.Header
	Body(hash common.Hash, number uint64) *types.Body
	StateAt(root common.Hash) (StateView, error)
	Close() error
}

// rawChainDB reads a go-ethereum data directory through rawdb.
type rawChainDB struct {
	db    ethdb.Database
	trie  *triedb.Database
	state gethstate.Database
}

// OpenChainDB opens the chaindata directory of a go-ethereum node read-only.
// engine is "leveldb" or "pebble"; ancient defaults to <path>/ancient.
func OpenChainDB(path, engine, ancient string) (ChainDB, error) {
	const (
		cacheMB   = 512
		handles   = 512
		namespace = "eth-sim/db/"
	)
	var (
		kv  ethdb.KeyValueStore
		err error
	)
	switch engine {
	case "pebble":
		kv, err = pebble.New(path, cacheMB, handles, namespace, true)
	case "leveldb", "":
		kv, err = leveldb.New(path, cacheMB, handles, namespace, true)
	default:
		return nil, fmt.Errorf("unknown database engine %q", engine)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database at %s: %w", engine, path, err)
	}
	if ancient == "" {
		ancient = path + "/ancient"
	}
	db, err := rawdb.Open(kv, rawdb.OpenOptions{
		Ancient:          ancient,
		MetricsNamespace: namespace,
		ReadOnly:         true,
	})
	if err != nil {
		_ = kv.Close()
		return nil, fmt.Errorf("open chain database: %w", err)
	}
	return NewChainDB(db), nil
}

// NewChainDB wraps an already opened database. The trie scheme is detected
// from the database itself.
func NewChainDB(db ethdb.Database) ChainDB {
	config := triedb.HashDefaults
	if rawdb.ReadStateScheme(db) == rawdb.PathScheme {
		config = &triedb.Config{PathDB: pathdb.ReadOnly}
	}
	tdb := triedb.NewDatabase(db, config)
	return &rawChainDB{
		db:    db,
		trie:  tdb,
		state: gethstate.NewDatabase(tdb, nil),
	}
}

func (c *rawChainDB) HeadHeader() *types.Header {
	return rawdb.ReadHeadHeader(c.db)
}

func (c *rawChainDB) CanonicalHeader(number uint64) *types.Header {
	hash := rawdb.ReadCanonicalHash(c.db, number)
	if hash == (common.Hash{}) {
		return nil
	}
	return rawdb.ReadHeader(c.db, hash, number)
}

func (c *rawChainDB) Header(hash common.Hash, number uint64) *types.Header {
	return rawdb.ReadHeader(c.db, hash, number)
}

func (c *rawChainDB) Body(hash common.Hash, number uint64) *types.Body {
	return rawdb.ReadBody(c.db, hash, number)
}

func (c *rawChainDB) StateAt(root common.Hash) (StateView, error) {
	sdb, err := gethstate.New(root, c.state)
	if err != nil {
		return nil, err
	}
	return sdb, nil
}

func (c *rawChainDB) Close() error {
	if err := c.trie.Close(); err != nil {
		_ = c.db.Close()
		return err
	}
	return c.db.Close()
}
