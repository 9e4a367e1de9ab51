package chain

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
)

// ErrMalformed is returned when a header or transaction lacks a required
// field or carries a value that does not fit the execution environment.
var ErrMalformed = errors.New("malformed input")

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

// NewBlockContext maps a header onto a block context. Optional fields take
// their zero value except the mix hash, which stays absent.
func NewBlockContext(h *Header) (BlockContext, error) {
	if h == nil {
		return BlockContext{}, malformed("nil header")
	}
	if h.Number == nil {
		return BlockContext{}, malformed("header without number")
	}
	number := h.Number.ToInt()
	if !number.IsUint64() {
		return BlockContext{}, malformed("block number %v out of range", number)
	}

	ctx := BlockContext{
		ParentHash: h.ParentHash,
		Number:     number.Uint64(),
		Time:       uint64(h.Timestamp),
		GasLimit:   uint64(h.GasLimit),
	}
	if h.Hash != nil {
		ctx.Hash = *h.Hash
	}
	if h.Miner != nil {
		ctx.Coinbase = *h.Miner
	}
	if err := setWord(&ctx.Difficulty, h.Difficulty, "difficulty"); err != nil {
		return BlockContext{}, err
	}
	if err := setWord(&ctx.BaseFee, h.BaseFee, "base fee"); err != nil {
		return BlockContext{}, err
	}
	if h.MixHash != nil {
		random := *h.MixHash
		ctx.Random = &random
	}
	if h.ExcessBlobGas != nil {
		excess := uint64(*h.ExcessBlobGas)
		ctx.ExcessBlobGas = &excess
	}
	return ctx, nil
}

// NewTransactionContext maps a pending transaction onto a transaction
// context. The gas price is replaced by the sender's max fee so the
// simulation runs at the highest price the sender would pay.
func NewTransactionContext(tx *Transaction) (TransactionContext, error) {
	if tx == nil {
		return TransactionContext{}, malformed("nil transaction")
	}
	if tx.From == nil {
		return TransactionContext{}, malformed("transaction %s without sender", tx.Hash.Hex())
	}
	if tx.Gas == nil {
		return TransactionContext{}, malformed("transaction %s without gas limit", tx.Hash.Hex())
	}
	if tx.Nonce == nil {
		return TransactionContext{}, malformed("transaction %s without nonce", tx.Hash.Hex())
	}
	if tx.Type > types.SetCodeTxType {
		return TransactionContext{}, malformed("transaction %s has unsupported type %d", tx.Hash.Hex(), uint64(tx.Type))
	}

	ctx := TransactionContext{
		Hash:     tx.Hash,
		From:     *tx.From,
		GasLimit: uint64(*tx.Gas),
		Nonce:    uint64(*tx.Nonce),
		Data:     common.CopyBytes(tx.Input),
	}
	if tx.To == nil {
		ctx.Mode = ModeCreate
	} else {
		ctx.Mode = ModeCall
		ctx.To = *tx.To
	}
	if err := setWord(&ctx.Value, tx.Value, "value"); err != nil {
		return TransactionContext{}, err
	}

	price := tx.MaxFeePerGas
	if price == nil {
		price = tx.GasPrice
	}
	if err := setWord(&ctx.GasPrice, price, "gas price"); err != nil {
		return TransactionContext{}, err
	}

	tip := tx.MaxPriorityFeePerGas
	if tip == nil {
		tip = tx.GasPrice
	}
	if err := setWord(&ctx.GasTipCap, tip, "priority fee"); err != nil {
		return TransactionContext{}, err
	}
	if ctx.GasTipCap.Gt(&ctx.GasPrice) {
		ctx.GasTipCap = ctx.GasPrice
	}

	if tx.ChainID != nil {
		id := tx.ChainID.ToInt()
		if !id.IsUint64() {
			return TransactionContext{}, malformed("chain id %v out of range", id)
		}
		ctx.ChainID = id.Uint64()
	}

	if len(tx.AccessList) > 0 {
		ctx.AccessList = make([]AccessEntry, 0, len(tx.AccessList))
		for _, tuple := range tx.AccessList {
			entry := AccessEntry{Address: tuple.Address}
			if len(tuple.StorageKeys) > 0 {
				entry.Keys = make([]common.Hash, 0, len(tuple.StorageKeys))
			}
			for _, raw := range tuple.StorageKeys {
				key, err := ExpandStorageKey(raw)
				if err != nil {
					return TransactionContext{}, err
				}
				entry.Keys = append(entry.Keys, key)
			}
			ctx.AccessList = append(ctx.AccessList, entry)
		}
	}

	switch tx.Type {
	case types.BlobTxType:
		if len(tx.BlobVersionedHashes) == 0 || tx.MaxFeePerBlobGas == nil {
			return TransactionContext{}, malformed("blob transaction %s without blob hashes or blob fee cap", tx.Hash.Hex())
		}
		ctx.BlobHashes = append([]common.Hash(nil), tx.BlobVersionedHashes...)
		if err := setWord(&ctx.BlobFeeCap, tx.MaxFeePerBlobGas, "blob fee cap"); err != nil {
			return TransactionContext{}, err
		}
	case types.SetCodeTxType:
		if len(tx.AuthorizationList) == 0 {
			return TransactionContext{}, malformed("set-code transaction %s without authorizations", tx.Hash.Hex())
		}
		ctx.Authorizations = append([]types.SetCodeAuthorization(nil), tx.AuthorizationList...)
	}
	return ctx, nil
}

// Build derives both contexts for one simulation.
func Build(h *Header, tx *Transaction) (BlockContext, TransactionContext, error) {
	block, err := NewBlockContext(h)
	if err != nil {
		return BlockContext{}, TransactionContext{}, err
	}
	txCtx, err := NewTransactionContext(tx)
	if err != nil {
		return BlockContext{}, TransactionContext{}, err
	}
	return block, txCtx, nil
}

// ExpandStorageKey converts a hex storage key of up to 32 bytes into a
// left-padded 256-bit key.
func ExpandStorageKey(raw string) (common.Hash, error) {
	digits := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
	if len(digits) == 0 || len(digits) > 2*common.HashLength {
		return common.Hash{}, malformed("storage key %q", raw)
	}
	if len(digits)%2 == 1 {
		digits = "0" + digits
	}
	b, err := hex.DecodeString(digits)
	if err != nil {
		return common.Hash{}, malformed("storage key %q: %v", raw, err)
	}
	return common.BytesToHash(b), nil
}

func setWord(dst *uint256.Int, v *hexutil.Big, field string) error {
	if v == nil {
		dst.Clear()
		return nil
	}
	if overflow := dst.SetFromBig((*big.Int)(v)); overflow || v.ToInt().Sign() < 0 {
		return malformed("%s %v does not fit 256 bits", field, v.ToInt())
	}
	return nil
}
