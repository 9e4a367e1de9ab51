package evm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Status is how an execution ended.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusReverted Status = "reverted"
	StatusHalted   Status = "halted"
)

// StorageChange is one slot whose value differs after execution.
type StorageChange struct {
	Key    common.Hash `json:"key" msgpack:"key"`
	Before common.Hash `json:"before" msgpack:"before"`
	After  common.Hash `json:"after" msgpack:"after"`
}

// AccountChange describes one touched account whose state differs after
// execution. Code is only set when it changed.
type AccountChange struct {
	Address       common.Address  `json:"address" msgpack:"address"`
	BalanceBefore *uint256.Int    `json:"balanceBefore" msgpack:"balance_before"`
	BalanceAfter  *uint256.Int    `json:"balanceAfter" msgpack:"balance_after"`
	NonceBefore   uint64          `json:"nonceBefore" msgpack:"nonce_before"`
	NonceAfter    uint64          `json:"nonceAfter" msgpack:"nonce_after"`
	CodeChanged   bool            `json:"codeChanged,omitempty" msgpack:"code_changed,omitempty"`
	Code          []byte          `json:"code,omitempty" msgpack:"code,omitempty"`
	Storage       []StorageChange `json:"storage,omitempty" msgpack:"storage,omitempty"`
}

// Outcome is the result of one execution. Changes are ordered by address
// and each account's storage by key.
type Outcome struct {
	Status     Status          `json:"status" msgpack:"status"`
	GasUsed    uint64          `json:"gasUsed" msgpack:"gas_used"`
	ReturnData []byte          `json:"returnData,omitempty" msgpack:"return_data,omitempty"`
	HaltReason string          `json:"haltReason,omitempty" msgpack:"halt_reason,omitempty"`
	Changes    []AccountChange `json:"changes,omitempty" msgpack:"changes,omitempty"`
	// Rounds is the number of executions needed to discover all state.
	Rounds int `json:"rounds" msgpack:"rounds"`
}

// Succeeded reports whether execution ended without revert or halt.
func (o Outcome) Succeeded() bool {
	return o.Status == StatusSuccess
}
