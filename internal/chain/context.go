package chain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// BlockContext is an immutable snapshot of one block header. All fields are
// values, so copies never share state.
type BlockContext struct {
	Hash       common.Hash
	ParentHash common.Hash
	Number     uint64
	Time       uint64
	Coinbase   common.Address
	Difficulty uint256.Int
	// Random is nil when the header carried no mix hash.
	Random   *common.Hash
	BaseFee  uint256.Int
	GasLimit uint64
	// ExcessBlobGas is nil for blocks before Cancun.
	ExcessBlobGas *uint64
}

func (b BlockContext) String() string {
	return fmt.Sprintf("#%d (%s)", b.Number, b.Hash.TerminalString())
}

// Mode selects between a message call and a contract creation.
type Mode uint8

const (
	ModeCall Mode = iota
	ModeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeCall:
		return "call"
	case ModeCreate:
		return "create"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// AccessEntry is an access list entry with its keys expanded to 256 bits.
type AccessEntry struct {
	Address common.Address
	Keys    []common.Hash
}

// TransactionContext is everything the engine needs to run one transaction.
type TransactionContext struct {
	Hash     common.Hash
	From     common.Address
	Mode     Mode
	To       common.Address // zero in ModeCreate
	Value    uint256.Int
	Data     []byte
	GasLimit uint64
	// GasPrice is the effective price: the sender's max fee when declared.
	GasPrice   uint256.Int
	GasTipCap  uint256.Int
	Nonce      uint64
	AccessList []AccessEntry
	ChainID    uint64

	// BlobHashes and BlobFeeCap are set for blob transactions only.
	BlobHashes []common.Hash
	BlobFeeCap uint256.Int
	// Authorizations is the EIP-7702 authorization list of a set-code
	// transaction.
	Authorizations []types.SetCodeAuthorization
}

// Recipient returns the call target and false for contract creations.
func (t *TransactionContext) Recipient() (common.Address, bool) {
	if t.Mode == ModeCreate {
		return common.Address{}, false
	}
	return t.To, true
}
