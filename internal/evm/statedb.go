package evm

import (
	"bytes"
	"context"
	"fmt"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethstate "github.com/ethereum/go-ethereum/core/state"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
	"golang.org/x/exp/maps"

	"github.com/valo/eth-sim/internal/state"
)

// preState holds the values read from a backend for one execution round.
type preState struct {
	accounts map[common.Address]state.Account
	slots    map[slot]common.Hash
	hashes   map[uint64]common.Hash
}

// loadPreState reads every item in known. Accounts delegating their code
// (EIP-7702) pull the delegation target into known as well.
func loadPreState(ctx context.Context, reader state.Reader, known *accessSet) (*preState, error) {
	pre := &preState{
		accounts: make(map[common.Address]state.Account, len(known.accounts)),
		slots:    make(map[slot]common.Hash, len(known.slots)),
		hashes:   make(map[uint64]common.Hash, len(known.blocks)),
	}
	for i := 0; i < len(known.accounts); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		addr := known.accounts[i]
		acc, err := reader.Account(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("%w: account %s: %w", ErrStateAccess, addr.Hex(), err)
		}
		pre.accounts[addr] = acc
		if target, ok := types.ParseDelegation(acc.Code); ok {
			known.addAccount(target)
		}
	}
	for _, k := range known.slots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := reader.Storage(ctx, k.addr, k.key)
		if err != nil {
			return nil, fmt.Errorf("%w: slot %s/%s: %w", ErrStateAccess, k.addr.Hex(), k.key.Hex(), err)
		}
		pre.slots[k] = v
	}
	for _, n := range known.blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h, err := reader.BlockHash(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("%w: block hash #%d: %w", ErrStateAccess, n, err)
		}
		pre.hashes[n] = h
	}
	return pre, nil
}

// newStateDB builds a throwaway in-memory StateDB holding pre. The prefill is
// finalised so that loaded slots count as committed values for gas pricing.
func newStateDB(pre *preState) (*gethstate.StateDB, error) {
	db := gethstate.NewDatabase(triedb.NewDatabase(rawdb.NewMemoryDatabase(), nil), nil)
	sdb, err := gethstate.New(types.EmptyRootHash, db)
	if err != nil {
		return nil, err
	}
	for addr, acc := range pre.accounts {
		if acc.Empty() {
			continue
		}
		sdb.SetBalance(addr, new(uint256.Int).Set(&acc.Balance), tracing.BalanceChangeUnspecified)
		sdb.SetNonce(addr, acc.Nonce, tracing.NonceChangeUnspecified)
		if len(acc.Code) > 0 {
			sdb.SetCode(addr, acc.Code, tracing.CodeChangeUnspecified)
		}
	}
	for k, v := range pre.slots {
		if v != (common.Hash{}) {
			sdb.SetState(k.addr, k.key, v)
		}
	}
	sdb.Finalise(true)
	return sdb, nil
}

// diff compares the finalised post state against pre for every loaded item.
func diff(sdb *gethstate.StateDB, pre *preState) []AccountChange {
	keysByAddr := make(map[common.Address][]common.Hash)
	for k := range pre.slots {
		keysByAddr[k.addr] = append(keysByAddr[k.addr], k.key)
	}

	addrs := maps.Keys(pre.accounts)
	slices.SortFunc(addrs, func(a, b common.Address) int { return a.Cmp(b) })

	var changes []AccountChange
	for _, addr := range addrs {
		before := pre.accounts[addr]
		change := AccountChange{
			Address:       addr,
			BalanceBefore: new(uint256.Int).Set(&before.Balance),
			BalanceAfter:  new(uint256.Int).Set(sdb.GetBalance(addr)),
			NonceBefore:   before.Nonce,
			NonceAfter:    sdb.GetNonce(addr),
		}
		if code := sdb.GetCode(addr); !bytes.Equal(code, before.Code) {
			change.CodeChanged = true
			change.Code = common.CopyBytes(code)
		}

		keys := keysByAddr[addr]
		slices.SortFunc(keys, func(a, b common.Hash) int { return a.Cmp(b) })
		for _, key := range keys {
			was := pre.slots[slot{addr, key}]
			if now := sdb.GetState(addr, key); now != was {
				change.Storage = append(change.Storage, StorageChange{Key: key, Before: was, After: now})
			}
		}

		if !change.BalanceBefore.Eq(change.BalanceAfter) ||
			change.NonceBefore != change.NonceAfter ||
			change.CodeChanged ||
			len(change.Storage) > 0 {
			changes = append(changes, change)
		}
	}
	return changes
}
