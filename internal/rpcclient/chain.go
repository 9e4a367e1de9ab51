package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/valo/eth-sim/internal/chain"
)

var ErrNotFound = errors.New("not found")

// ChainReader issues the block, transaction and pool queries that the
// monitors and the replay command need.
type ChainReader struct {
	caller Caller
}

func NewChainReader(caller Caller) *ChainReader {
	return &ChainReader{caller: caller}
}

// Dial connects to an http, ws or ipc endpoint.
func Dial(ctx context.Context, url string) (*rpc.Client, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return client, nil
}

func (r *ChainReader) LatestHeader(ctx context.Context) (*chain.Header, error) {
	var header *chain.Header
	if err := r.caller.CallContext(ctx, &header, "eth_getBlockByNumber", "latest", false); err != nil {
		return nil, err
	}
	if header == nil {
		return nil, fmt.Errorf("latest block: %w", ErrNotFound)
	}
	return header, nil
}

// TransactionByHash returns ErrNotFound when the node does not know hash,
// which is common for pending transactions that were just announced.
func (r *ChainReader) TransactionByHash(ctx context.Context, hash common.Hash) (*chain.Transaction, error) {
	var raw json.RawMessage
	if err := r.caller.CallContext(ctx, &raw, "eth_getTransactionByHash", hash); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("transaction %s: %w", hash.Hex(), ErrNotFound)
	}
	var tx chain.Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("decode transaction %s: %w", hash.Hex(), err)
	}
	return &tx, nil
}

func (r *ChainReader) ChainID(ctx context.Context) (uint64, error) {
	var id hexutil.Uint64
	if err := r.caller.CallContext(ctx, &id, "eth_chainId"); err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// PendingPool returns the raw pending transactions of txpool_content,
// ordered by sender and then nonce. Items are left undecoded so that one bad
// entry does not spoil the rest.
func (r *ChainReader) PendingPool(ctx context.Context) ([]json.RawMessage, error) {
	var content struct {
		Pending map[common.Address]map[string]json.RawMessage `json:"pending"`
	}
	if err := r.caller.CallContext(ctx, &content, "txpool_content"); err != nil {
		return nil, err
	}

	senders := make([]common.Address, 0, len(content.Pending))
	for sender := range content.Pending {
		senders = append(senders, sender)
	}
	sort.Slice(senders, func(i, j int) bool { return senders[i].Cmp(senders[j]) < 0 })

	var out []json.RawMessage
	for _, sender := range senders {
		byNonce := content.Pending[sender]
		nonces := make([]string, 0, len(byNonce))
		for nonce := range byNonce {
			nonces = append(nonces, nonce)
		}
		sort.Slice(nonces, func(i, j int) bool { return nonceLess(nonces[i], nonces[j]) })
		for _, nonce := range nonces {
			out = append(out, byNonce[nonce])
		}
	}
	return out, nil
}

func nonceLess(a, b string) bool {
	x, errA := strconv.ParseUint(a, 10, 64)
	y, errB := strconv.ParseUint(b, 10, 64)
	if errA != nil || errB != nil {
		return a < b
	}
	return x < y
}
