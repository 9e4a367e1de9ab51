package chain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// Header is a block header as returned by eth_getBlockByNumber and the
// newHeads subscription. Optional fields are pointers so that absence can be
// told apart from zero.
type Header struct {
	Hash       *common.Hash    `json:"hash"`
	ParentHash common.Hash     `json:"parentHash"`
	Number     *hexutil.Big    `json:"number"`
	Timestamp  hexutil.Uint64  `json:"timestamp"`
	Miner      *common.Address `json:"miner"`
	Difficulty *hexutil.Big    `json:"difficulty"`
	MixHash    *common.Hash    `json:"mixHash"`
	BaseFee    *hexutil.Big    `json:"baseFeePerGas"`
	GasLimit   hexutil.Uint64  `json:"gasLimit"`
	// ExcessBlobGas is absent before Cancun.
	ExcessBlobGas *hexutil.Uint64 `json:"excessBlobGas"`
}

// AccessTuple is one access list entry. Storage keys are kept as the hex
// strings sent by the node and expanded by the builder.
type AccessTuple struct {
	Address     common.Address `json:"address"`
	StorageKeys []string       `json:"storageKeys"`
}

// Transaction is a pending transaction object as returned by
// eth_getTransactionByHash, txpool_content or a full pending subscription.
type Transaction struct {
	Hash                 common.Hash     `json:"hash"`
	Type                 hexutil.Uint64  `json:"type"`
	From                 *common.Address `json:"from"`
	To                   *common.Address `json:"to"`
	Value                *hexutil.Big    `json:"value"`
	Input                hexutil.Bytes   `json:"input"`
	Gas                  *hexutil.Uint64 `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Nonce                *hexutil.Uint64 `json:"nonce"`
	AccessList           []AccessTuple   `json:"accessList"`
	ChainID              *hexutil.Big    `json:"chainId"`
	BlockNumber          *hexutil.Big    `json:"blockNumber"`

	// blob transactions (type 3)
	MaxFeePerBlobGas    *hexutil.Big  `json:"maxFeePerBlobGas"`
	BlobVersionedHashes []common.Hash `json:"blobVersionedHashes"`

	// set-code transactions (type 4)
	AuthorizationList []types.SetCodeAuthorization `json:"authorizationList"`
}
