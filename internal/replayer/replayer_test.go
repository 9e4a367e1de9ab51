package replayer

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/valo/eth-sim/internal/config"
	"github.com/valo/eth-sim/internal/recorder"
	"github.com/valo/eth-sim/internal/rpcclient"
)

var (
	sender    = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	recipient = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	transfer  = common.HexToHash("0x7701")
)

const tipNumber = 20_000_000

func headerJSON(number uint64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"hash": "%s",
		"parentHash": "%s",
		"number": "%#x",
		"timestamp": "%#x",
		"gasLimit": "0x1c9c380",
		"baseFeePerGas": "0x1",
		"difficulty": "0x0",
		"miner": "0x00000000000000000000000000000000000000c0",
		"mixHash": "0x0000000000000000000000000000000000000000000000000000000000000001"
	}`, common.BigToHash(new(big.Int).SetUint64(number)).Hex(), common.BigToHash(new(big.Int).SetUint64(number-1)).Hex(),
		number, 1_717_281_407+12*(number-tipNumber)))
}

func transferJSON() json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"hash": "%s",
		"type": "0x2",
		"from": "%s",
		"to": "%s",
		"gas": "0x5208",
		"nonce": "0x5",
		"value": "0x3e8",
		"maxFeePerGas": "0x2",
		"maxPriorityFeePerGas": "0x1",
		"input": "0x",
		"chainId": "0x1"
	}`, transfer.Hex(), sender.Hex(), recipient.Hex()))
}

// fakeNode serves the eth namespace of a node whose only funded account is
// sender.
type fakeNode struct {
	mu      sync.Mutex
	head    json.RawMessage
	heads   []json.RawMessage
	pending []json.RawMessage
	txs     map[common.Hash]json.RawMessage
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		head:    headerJSON(tipNumber),
		heads:   []json.RawMessage{headerJSON(tipNumber + 1)},
		pending: []json.RawMessage{transferJSON()},
		txs:     map[common.Hash]json.RawMessage{transfer: transferJSON()},
	}
}

func (n *fakeNode) ChainId() hexutil.Uint64 { return 1 }

func (n *fakeNode) GetBlockByNumber(number rpc.BlockNumber, full bool) (json.RawMessage, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.head, nil
}

func (n *fakeNode) GetTransactionByHash(hash common.Hash) json.RawMessage {
	return n.txs[hash]
}

func (n *fakeNode) GetBalance(addr common.Address, _ rpc.BlockNumberOrHash) *hexutil.Big {
	if addr == sender {
		return (*hexutil.Big)(new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil))
	}
	return (*hexutil.Big)(new(big.Int))
}

func (n *fakeNode) GetTransactionCount(addr common.Address, _ rpc.BlockNumberOrHash) hexutil.Uint64 {
	if addr == sender {
		return 5
	}
	return 0
}

func (n *fakeNode) GetCode(common.Address, rpc.BlockNumberOrHash) hexutil.Bytes {
	return nil
}

func (n *fakeNode) GetStorageAt(common.Address, common.Hash, rpc.BlockNumberOrHash) hexutil.Bytes {
	return make(hexutil.Bytes, 32)
}

func (n *fakeNode) NewHeads(ctx context.Context) (*rpc.Subscription, error) {
	return notify(ctx, n.heads)
}

func (n *fakeNode) NewPendingTransactions(ctx context.Context, _ *bool) (*rpc.Subscription, error) {
	return notify(ctx, n.pending)
}

func notify(ctx context.Context, items []json.RawMessage) (*rpc.Subscription, error) {
	notifier, ok := rpc.NotifierFromContext(ctx)
	if !ok {
		return nil, rpc.ErrNotificationsUnsupported
	}
	sub := notifier.CreateSubscription()
	go func() {
		for _, item := range items {
			if err := notifier.Notify(sub.ID, item); err != nil {
				return
			}
		}
	}()
	return sub, nil
}

// fakePool serves txpool_content.
type fakePool struct {
	pending map[common.Address]map[string]json.RawMessage
}

func (p *fakePool) Content() map[string]map[common.Address]map[string]json.RawMessage {
	return map[string]map[common.Address]map[string]json.RawMessage{
		"pending": p.pending,
		"queued":  {},
	}
}

func dialNode(t *testing.T, node *fakeNode) *rpc.Client {
	t.Helper()
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", node))
	require.NoError(t, srv.RegisterName("txpool", &fakePool{pending: map[common.Address]map[string]json.RawMessage{
		sender: {"5": transferJSON()},
	}}))
	client := rpc.DialInProc(srv)
	t.Cleanup(func() {
		client.Close()
		srv.Stop()
	})
	return client
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		Backends:           []string{config.BackendRemote, config.BackendCaching},
		FeedMode:           config.FeedFull,
		FeedBuffer:         4,
		TxPoolPollInterval: 10 * time.Millisecond,
		Workers:            2,
		QueueSize:          4,
		RateLimit:          1000,
		RateBurst:          10,
		RequestTimeout:     time.Second,
		RetryInitial:       time.Millisecond,
		RetryMax:           1,
		MaxDiscoveryRounds: 64,
		RecordFile:         filepath.Join(t.TempDir(), "records.jsonl"),
		RecordFormat:       recorder.FormatJSONL,
	}
}

func readRecords(t *testing.T, path string) []recorder.SimulationRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	var out []recorder.SimulationRecord
	require.NoError(t, recorder.ReadRecords(f, recorder.FormatJSONL, func(rec recorder.SimulationRecord) error {
		out = append(out, rec)
		return nil
	}))
	return out
}

// countRecords is safe to call from a polling goroutine; it returns -1 when
// the file cannot be read.
func countRecords(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return -1
	}
	defer f.Close()
	n := 0
	if err := recorder.ReadRecords(f, recorder.FormatJSONL, func(recorder.SimulationRecord) error {
		n++
		return nil
	}); err != nil {
		return -1
	}
	return n
}

func TestEngine_ReplayAgreesAcrossBackends(t *testing.T) {
	client := dialNode(t, newFakeNode())
	cfg := testConfig(t)

	e, err := newEngine(context.Background(), cfg, client, client)
	require.NoError(t, err)

	records, err := e.Replay(context.Background(), transfer)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	require.Len(t, records, 2)
	for i, name := range cfg.Backends {
		rec := records[i]
		require.Equal(t, name, rec.Backend)
		require.Equal(t, e.RunID(), rec.RunID)
		require.Equal(t, uint64(tipNumber), rec.Block)
		require.Empty(t, rec.Error)
		require.True(t, rec.Succeeded())
		require.Equal(t, uint64(21000), rec.GasUsed())
	}
	require.True(t, recorder.Compare(records).Agree())

	stored := readRecords(t, cfg.RecordFile)
	require.Len(t, stored, 2)
	require.Equal(t, transfer, stored[0].TxHash)
}

func TestEngine_ReplayUnknownHash(t *testing.T) {
	client := dialNode(t, newFakeNode())
	e, err := newEngine(context.Background(), testConfig(t), client, client)
	require.NoError(t, err)
	defer e.Close()

	_, err = e.Replay(context.Background(), common.HexToHash("0xdead"))
	require.ErrorIs(t, err, rpcclient.ErrNotFound)
}

func TestEngine_RefusesToStartWithoutTip(t *testing.T) {
	node := newFakeNode()
	node.head = nil
	client := dialNode(t, node)

	_, err := newEngine(context.Background(), testConfig(t), client, client)
	require.ErrorIs(t, err, rpcclient.ErrNotFound)
	require.ErrorContains(t, err, "seed chain tip")
}

func TestEngine_StreamingModesNeedSubscriber(t *testing.T) {
	client := dialNode(t, newFakeNode())
	_, err := newEngine(context.Background(), testConfig(t), client, nil)
	require.Error(t, err)
}

func TestEngine_RunSimulatesPendingTransactions(t *testing.T) {
	tests := map[string]struct {
		mode      string
		subscribe bool
	}{
		"full":   {mode: config.FeedFull, subscribe: true},
		"txpool": {mode: config.FeedTxPool},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			client := dialNode(t, newFakeNode())
			cfg := testConfig(t)
			cfg.FeedMode = test.mode
			var subscriber *rpc.Client
			if test.subscribe {
				subscriber = client
			}

			e, err := newEngine(context.Background(), cfg, client, subscriber)
			require.NoError(t, err)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- e.Run(ctx) }()

			require.Eventually(t, func() bool {
				return countRecords(cfg.RecordFile) == 2
			}, 10*time.Second, 10*time.Millisecond)
			if test.subscribe {
				require.Eventually(t, func() bool { return e.tracker.Number() == tipNumber+1 }, 5*time.Second, 10*time.Millisecond)
			}

			cancel()
			select {
			case err := <-done:
				require.NoError(t, err)
			case <-time.After(5 * time.Second):
				t.Fatal("engine did not stop")
			}
			require.NoError(t, e.Close())

			for _, rec := range readRecords(t, cfg.RecordFile) {
				require.Equal(t, transfer, rec.TxHash)
				require.True(t, rec.Succeeded())
			}
		})
	}
}

func TestEngine_RunStopsWhenHeadFeedEnds(t *testing.T) {
	srv := rpc.NewServer()
	require.NoError(t, srv.RegisterName("eth", newFakeNode()))
	client := rpc.DialInProc(srv)
	defer client.Close()

	e, err := newEngine(context.Background(), testConfig(t), client, client)
	require.NoError(t, err)
	defer e.Close()

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()
	require.Eventually(t, func() bool { return e.tracker.Number() == tipNumber+1 }, 5*time.Second, 10*time.Millisecond)

	srv.Stop()
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("engine kept running without a head feed")
	}
}
