package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/tracing"
	"github.com/ethereum/go-ethereum/core/vm"
)

type slot struct {
	addr common.Address
	key  common.Hash
}

// accessSet is an insertion-ordered set of accounts, storage slots and
// block numbers whose hashes were requested.
type accessSet struct {
	accounts     []common.Address
	slots        []slot
	blocks       []uint64
	seenAccounts map[common.Address]struct{}
	seenSlots    map[slot]struct{}
	seenBlocks   map[uint64]struct{}
}

func newAccessSet() *accessSet {
	return &accessSet{
		seenAccounts: make(map[common.Address]struct{}),
		seenSlots:    make(map[slot]struct{}),
		seenBlocks:   make(map[uint64]struct{}),
	}
}

func (s *accessSet) hasAccount(addr common.Address) bool {
	_, ok := s.seenAccounts[addr]
	return ok
}

func (s *accessSet) hasSlot(addr common.Address, key common.Hash) bool {
	_, ok := s.seenSlots[slot{addr, key}]
	return ok
}

func (s *accessSet) addAccount(addr common.Address) bool {
	if s.hasAccount(addr) {
		return false
	}
	s.seenAccounts[addr] = struct{}{}
	s.accounts = append(s.accounts, addr)
	return true
}

// addSlot also adds the owning account.
func (s *accessSet) addSlot(addr common.Address, key common.Hash) bool {
	s.addAccount(addr)
	k := slot{addr, key}
	if _, ok := s.seenSlots[k]; ok {
		return false
	}
	s.seenSlots[k] = struct{}{}
	s.slots = append(s.slots, k)
	return true
}

func (s *accessSet) hasBlock(number uint64) bool {
	_, ok := s.seenBlocks[number]
	return ok
}

func (s *accessSet) addBlock(number uint64) bool {
	if s.hasBlock(number) {
		return false
	}
	s.seenBlocks[number] = struct{}{}
	s.blocks = append(s.blocks, number)
	return true
}

func (s *accessSet) empty() bool {
	return len(s.accounts) == 0 && len(s.slots) == 0 && len(s.blocks) == 0
}

// merge adds everything in other and reports how many items were new.
func (s *accessSet) merge(other *accessSet) int {
	added := 0
	for _, a := range other.accounts {
		if s.addAccount(a) {
			added++
		}
	}
	for _, k := range other.slots {
		if s.addSlot(k.addr, k.key) {
			added++
		}
	}
	for _, n := range other.blocks {
		if s.addBlock(n) {
			added++
		}
	}
	return added
}

// discovery is a tracer collecting the accounts, slots and block hashes an
// execution touched that were not loaded before it started.
type discovery struct {
	known *accessSet
	found *accessSet
}

func newDiscovery(known *accessSet) *discovery {
	return &discovery{known: known, found: newAccessSet()}
}

func (d *discovery) hooks() *tracing.Hooks {
	return &tracing.Hooks{
		OnOpcode: d.onOpcode,
		OnEnter:  d.onEnter,
	}
}

func (d *discovery) account(addr common.Address) {
	if !d.known.hasAccount(addr) {
		d.found.addAccount(addr)
	}
}

func (d *discovery) slot(addr common.Address, key common.Hash) {
	if !d.known.hasSlot(addr, key) {
		d.found.addSlot(addr, key)
	}
}

func (d *discovery) blockHash(number uint64) {
	if !d.known.hasBlock(number) {
		d.found.addBlock(number)
	}
}

func (d *discovery) onOpcode(_ uint64, op byte, _, _ uint64, scope tracing.OpContext, _ []byte, _ int, _ error) {
	if scope == nil {
		return
	}
	stack := scope.StackData()
	switch vm.OpCode(op) {
	case vm.SLOAD, vm.SSTORE:
		if len(stack) >= 1 {
			d.slot(scope.Address(), common.Hash(stack[len(stack)-1].Bytes32()))
		}
	case vm.BALANCE, vm.EXTCODESIZE, vm.EXTCODECOPY, vm.EXTCODEHASH, vm.SELFDESTRUCT:
		if len(stack) >= 1 {
			d.account(common.Address(stack[len(stack)-1].Bytes20()))
		}
	case vm.CALL, vm.CALLCODE, vm.DELEGATECALL, vm.STATICCALL:
		// the target is read while pricing the call, before any frame is entered
		if len(stack) >= 2 {
			d.account(common.Address(stack[len(stack)-2].Bytes20()))
		}
	}
}

func (d *discovery) onEnter(_ int, _ byte, from, to common.Address, _ []byte, _ uint64, _ *big.Int) {
	d.account(from)
	d.account(to)
}
