package state

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/valo/eth-sim/internal/chain"
	"github.com/valo/eth-sim/internal/rpcclient"
)

// RemoteBackend reads every account and slot from a node over JSON-RPC at
// the block being simulated. It keeps no cache.
type RemoteBackend struct {
	name   string
	caller rpcclient.Caller
}

func NewRemoteBackend(name string, caller rpcclient.Caller) *RemoteBackend {
	return &RemoteBackend{name: name, caller: caller}
}

func (b *RemoteBackend) Name() string { return b.name }

func (b *RemoteBackend) Open(_ context.Context, block chain.BlockContext) (Reader, error) {
	return &remoteReader{caller: b.caller, block: blockArg(block)}, nil
}

// blockArg pins requests to the block hash when known so that a reorg of
// the tip cannot mix state from two blocks.
func blockArg(block chain.BlockContext) rpc.BlockNumberOrHash {
	if block.Hash != (common.Hash{}) {
		return rpc.BlockNumberOrHashWithHash(block.Hash, false)
	}
	return rpc.BlockNumberOrHashWithNumber(rpc.BlockNumber(block.Number))
}

type remoteReader struct {
	caller rpcclient.Caller
	block  rpc.BlockNumberOrHash
}

func (r *remoteReader) Account(ctx context.Context, addr common.Address) (Account, error) {
	var (
		balance hexutil.Big
		nonce   hexutil.Uint64
		code    hexutil.Bytes
	)
	batch := []rpc.BatchElem{
		{Method: "eth_getBalance", Args: []interface{}{addr, r.block}, Result: &balance},
		{Method: "eth_getTransactionCount", Args: []interface{}{addr, r.block}, Result: &nonce},
		{Method: "eth_getCode", Args: []interface{}{addr, r.block}, Result: &code},
	}
	if err := r.caller.BatchCallContext(ctx, batch); err != nil {
		return Account{}, classify("account "+addr.Hex(), err)
	}
	for _, elem := range batch {
		if elem.Error != nil {
			return Account{}, classify(elem.Method+" "+addr.Hex(), elem.Error)
		}
	}

	var acc Account
	if overflow := acc.Balance.SetFromBig(balance.ToInt()); overflow {
		return Account{}, fmt.Errorf("%w: balance of %s overflows", ErrBackendUnavailable, addr.Hex())
	}
	acc.Nonce = uint64(nonce)
	if len(code) > 0 {
		acc.Code = code
	}
	return acc, nil
}

func (r *remoteReader) Storage(ctx context.Context, addr common.Address, key common.Hash) (common.Hash, error) {
	var value hexutil.Bytes
	if err := r.caller.CallContext(ctx, &value, "eth_getStorageAt", addr, key, r.block); err != nil {
		return common.Hash{}, classify("storage "+addr.Hex()+"/"+key.Hex(), err)
	}
	if len(value) > common.HashLength {
		return common.Hash{}, fmt.Errorf("%w: storage value of %d bytes", ErrBackendUnavailable, len(value))
	}
	return common.BytesToHash(value), nil
}

func (r *remoteReader) BlockHash(ctx context.Context, number uint64) (common.Hash, error) {
	var header *chain.Header
	if err := r.caller.CallContext(ctx, &header, "eth_getBlockByNumber", rpc.BlockNumber(number), false); err != nil {
		return common.Hash{}, classify(fmt.Sprintf("block hash #%d", number), err)
	}
	if header == nil || header.Hash == nil {
		return common.Hash{}, fmt.Errorf("block hash #%d: %w", number, ErrDataNotFound)
	}
	return *header.Hash, nil
}

// node error messages for state that is absent at the requested block
var notFoundMessages = []string{
	"not found",
	"missing trie node",
	"unknown block",
	"state is not available",
	"historical state",
	"pruned",
}

func classify(what string, err error) error {
	var rpcErr rpc.Error
	if errors.As(err, &rpcErr) {
		msg := strings.ToLower(rpcErr.Error())
		for _, m := range notFoundMessages {
			if strings.Contains(msg, m) {
				return fmt.Errorf("%s: %w: %w", what, ErrDataNotFound, err)
			}
		}
	}
	return fmt.Errorf("%s: %w: %w", what, ErrBackendUnavailable, err)
}
