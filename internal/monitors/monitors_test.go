package monitors

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/valo/eth-sim/internal/chain"
)

// streamService pushes canned notifications to every subscriber of the eth
// namespace.
type streamService struct {
	heads   []json.RawMessage
	pending []json.RawMessage
	hashes  []json.RawMessage
}

func (s *streamService) NewHeads(ctx context.Context) (*rpc.Subscription, error) {
	return stream(ctx, s.heads)
}

func (s *streamService) NewPendingTransactions(ctx context.Context, full *bool) (*rpc.Subscription, error) {
	if full != nil && *full {
		return stream(ctx, s.pending)
	}
	return stream(ctx, s.hashes)
}

func stream(ctx context.Context, items []json.RawMessage) (*rpc.Subscription, error) {
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

func dialStream(t *testing.T, svc *streamService) (*rpc.Client, *rpc.Server) {
	t.Helper()
	srv := rpc.NewServer()
	if svc != nil {
		require.NoError(t, srv.RegisterName("eth", svc))
	}
	client := rpc.DialInProc(srv)
	t.Cleanup(func() {
		client.Close()
		srv.Stop()
	})
	return client, srv
}

// start runs fn in the background and stops it when the test ends.
func start(t *testing.T, fn func(ctx context.Context)) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		fn(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel
}

func headJSON(n uint64) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"hash":"%s","number":"0x%x","timestamp":"0x%x","gasLimit":"0x1c9c380","baseFeePerGas":"0x7"}`,
		common.BigToHash(new(big.Int).SetUint64(n)).Hex(), n, 1_700_000_000+n))
}

func txHash(n byte) common.Hash {
	return common.BytesToHash([]byte{n})
}

func txJSON(n byte) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(
		`{"hash":"%s","from":"0x00000000000000000000000000000000000000aa","to":"0x00000000000000000000000000000000000000bb","gas":"0x5208","nonce":"0x%x","value":"0x0","input":"0x"}`,
		txHash(n).Hex(), n))
}

func receive(t *testing.T, out <-chan chain.Transaction, n int) []common.Hash {
	t.Helper()
	var got []common.Hash
	for len(got) < n {
		select {
		case tx := <-out:
			got = append(got, tx.Hash)
		case <-time.After(5 * time.Second):
			t.Fatalf("received %d of %d transactions", len(got), n)
		}
	}
	return got
}

func requireQuiet(t *testing.T, out <-chan chain.Transaction) {
	t.Helper()
	select {
	case tx := <-out:
		t.Fatalf("unexpected transaction %s", tx.Hash.Hex())
	case <-time.After(100 * time.Millisecond):
	}
}

func requireFatal(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		require.Error(t, err)
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("no fatal error reported")
	}
	return nil
}
