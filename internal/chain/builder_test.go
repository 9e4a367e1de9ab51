package chain

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func u64(v uint64) *hexutil.Uint64 {
	h := hexutil.Uint64(v)
	return &h
}

func big64(v int64) *hexutil.Big {
	return (*hexutil.Big)(big.NewInt(v))
}

func baseTx() *Transaction {
	from := common.HexToAddress("0x1000")
	to := common.HexToAddress("0x2000")
	return &Transaction{
		Hash:  common.HexToHash("0xabcd"),
		From:  &from,
		To:    &to,
		Gas:   u64(50_000),
		Nonce: u64(3),
		Value: big64(1),
	}
}

func TestNewTransactionContext_EffectivePriceIsMaxFee(t *testing.T) {
	tests := map[string]struct {
		gasPrice, maxFee, maxTip *hexutil.Big
		price, tip               uint64
	}{
		"dynamic fee": {
			gasPrice: big64(30), maxFee: big64(100), maxTip: big64(2),
			price: 100, tip: 2,
		},
		"dynamic fee without node price": {
			maxFee: big64(100), maxTip: big64(7),
			price: 100, tip: 7,
		},
		"legacy": {
			gasPrice: big64(40),
			price:    40, tip: 40,
		},
		"tip above cap": {
			maxFee: big64(10), maxTip: big64(50),
			price: 10, tip: 10,
		},
		"no price at all": {},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			tx := baseTx()
			tx.GasPrice, tx.MaxFeePerGas, tx.MaxPriorityFeePerGas = test.gasPrice, test.maxFee, test.maxTip

			ctx, err := NewTransactionContext(tx)
			require.NoError(t, err)
			require.Equal(t, test.price, ctx.GasPrice.Uint64())
			require.Equal(t, test.tip, ctx.GasTipCap.Uint64())
			if test.maxFee != nil {
				require.False(t, ctx.GasPrice.Lt(uint256.MustFromBig(test.maxFee.ToInt())))
			}
		})
	}
}

func TestNewTransactionContext_ModeFollowsRecipientPresence(t *testing.T) {
	call := baseTx()
	call.Input = nil
	ctx, err := NewTransactionContext(call)
	require.NoError(t, err)
	require.Equal(t, ModeCall, ctx.Mode)
	to, ok := ctx.Recipient()
	require.True(t, ok)
	require.Equal(t, *call.To, to)

	create := baseTx()
	create.To = nil
	create.Input = hexutil.Bytes{0x60, 0x00}
	ctx, err = NewTransactionContext(create)
	require.NoError(t, err)
	require.Equal(t, ModeCreate, ctx.Mode)
	_, ok = ctx.Recipient()
	require.False(t, ok)

	// empty data to nowhere is still a creation
	empty := baseTx()
	empty.To = nil
	ctx, err = NewTransactionContext(empty)
	require.NoError(t, err)
	require.Equal(t, ModeCreate, ctx.Mode)
}

func TestNewTransactionContext_AccessListExpansionKeepsOrder(t *testing.T) {
	tx := baseTx()
	tx.AccessList = []AccessTuple{
		{Address: common.HexToAddress("0xbb"), StorageKeys: []string{"0x02", "0x01"}},
		{Address: common.HexToAddress("0xaa")},
		{Address: common.HexToAddress("0xbb"), StorageKeys: []string{
			"0x00000000000000000000000000000000000000000000000000000000000000ff",
		}},
	}

	ctx, err := NewTransactionContext(tx)
	require.NoError(t, err)
	require.Len(t, ctx.AccessList, 3)
	require.Equal(t, common.HexToAddress("0xbb"), ctx.AccessList[0].Address)
	require.Equal(t, []common.Hash{common.BigToHash(big.NewInt(2)), common.BigToHash(big.NewInt(1))}, ctx.AccessList[0].Keys)
	require.Empty(t, ctx.AccessList[1].Keys)
	require.Equal(t, common.BigToHash(big.NewInt(255)), ctx.AccessList[2].Keys[0])
}

func TestNewTransactionContext_RejectsMalformed(t *testing.T) {
	tests := map[string]func(*Transaction){
		"no sender":   func(tx *Transaction) { tx.From = nil },
		"no gas":      func(tx *Transaction) { tx.Gas = nil },
		"no nonce":    func(tx *Transaction) { tx.Nonce = nil },
		"negative":    func(tx *Transaction) { tx.Value = big64(-1) },
		"long key":    func(tx *Transaction) { tx.AccessList = []AccessTuple{{StorageKeys: []string{"0x1" + strings.Repeat("0", 64)}}} },
		"non hex key": func(tx *Transaction) { tx.AccessList = []AccessTuple{{StorageKeys: []string{"0xzz"}}} },
		"empty key":   func(tx *Transaction) { tx.AccessList = []AccessTuple{{StorageKeys: []string{"0x"}}} },
		"huge maxfee": func(tx *Transaction) { tx.MaxFeePerGas = (*hexutil.Big)(new(big.Int).Lsh(big.NewInt(1), 256)) },
		"deposit":     func(tx *Transaction) { tx.Type = 0x7e },
		"blob without hashes": func(tx *Transaction) {
			tx.Type = types.BlobTxType
			tx.MaxFeePerBlobGas = big64(1)
		},
		"blob without fee cap": func(tx *Transaction) {
			tx.Type = types.BlobTxType
			tx.BlobVersionedHashes = []common.Hash{common.HexToHash("0x01")}
		},
		"set-code without authorizations": func(tx *Transaction) { tx.Type = types.SetCodeTxType },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			tx := baseTx()
			mutate(tx)
			_, err := NewTransactionContext(tx)
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestNewTransactionContext_CarriesBlobFields(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{
		"hash": "0x00000000000000000000000000000000000000000000000000000000000000b3",
		"type": "0x3",
		"from": "0x0000000000000000000000000000000000001000",
		"to": "0x0000000000000000000000000000000000002000",
		"gas": "0x5208",
		"nonce": "0x0",
		"maxFeePerGas": "0x64",
		"maxPriorityFeePerGas": "0x1",
		"maxFeePerBlobGas": "0x2a",
		"blobVersionedHashes": [
			"0x0100000000000000000000000000000000000000000000000000000000000001",
			"0x0100000000000000000000000000000000000000000000000000000000000002"
		]
	}`), &tx))

	ctx, err := NewTransactionContext(&tx)
	require.NoError(t, err)
	require.Equal(t, uint64(42), ctx.BlobFeeCap.Uint64())
	require.Equal(t, []common.Hash{
		common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000001"),
		common.HexToHash("0x0100000000000000000000000000000000000000000000000000000000000002"),
	}, ctx.BlobHashes)
	require.Empty(t, ctx.Authorizations)
}

func TestNewTransactionContext_CarriesAuthorizations(t *testing.T) {
	var tx Transaction
	require.NoError(t, json.Unmarshal([]byte(`{
		"hash": "0x00000000000000000000000000000000000000000000000000000000000000b4",
		"type": "0x4",
		"from": "0x0000000000000000000000000000000000001000",
		"to": "0x0000000000000000000000000000000000002000",
		"gas": "0x186a0",
		"nonce": "0x1",
		"maxFeePerGas": "0x64",
		"maxPriorityFeePerGas": "0x1",
		"authorizationList": [{
			"chainId": "0x1",
			"address": "0x0000000000000000000000000000000000003000",
			"nonce": "0x7",
			"yParity": "0x1",
			"r": "0x2a",
			"s": "0x2b"
		}]
	}`), &tx))

	ctx, err := NewTransactionContext(&tx)
	require.NoError(t, err)
	require.Equal(t, ModeCall, ctx.Mode)
	require.Len(t, ctx.Authorizations, 1)
	auth := ctx.Authorizations[0]
	require.Equal(t, uint64(1), auth.ChainID.Uint64())
	require.Equal(t, common.HexToAddress("0x3000"), auth.Address)
	require.Equal(t, uint64(7), auth.Nonce)
	require.Equal(t, uint8(1), auth.V)
	require.Empty(t, ctx.BlobHashes)
}

func TestNewBlockContext_Defaults(t *testing.T) {
	var h Header
	require.NoError(t, json.Unmarshal([]byte(`{
		"hash": "0x00000000000000000000000000000000000000000000000000000000000000aa",
		"number": "0x10",
		"timestamp": "0x64",
		"gasLimit": "0x1c9c380",
		"difficulty": "0x0"
	}`), &h))

	ctx, err := NewBlockContext(&h)
	require.NoError(t, err)
	require.Equal(t, uint64(16), ctx.Number)
	require.Equal(t, uint64(100), ctx.Time)
	require.Equal(t, uint64(30_000_000), ctx.GasLimit)
	require.Equal(t, common.Address{}, ctx.Coinbase)
	require.True(t, ctx.BaseFee.IsZero())
	require.Nil(t, ctx.Random, "absent mix hash must stay absent")
	require.Nil(t, ctx.ExcessBlobGas)
}

func TestNewBlockContext_CopiesExcessBlobGas(t *testing.T) {
	h := &Header{Number: big64(1), ExcessBlobGas: u64(393216)}

	ctx, err := NewBlockContext(h)
	require.NoError(t, err)
	require.NotNil(t, ctx.ExcessBlobGas)
	require.Equal(t, uint64(393216), *ctx.ExcessBlobGas)
}

func TestNewBlockContext_CopiesMixHash(t *testing.T) {
	mix := common.HexToHash("0x01")
	miner := common.HexToAddress("0xc0")
	h := &Header{Number: big64(1), MixHash: &mix, Miner: &miner, BaseFee: big64(7)}

	ctx, err := NewBlockContext(h)
	require.NoError(t, err)
	require.NotNil(t, ctx.Random)
	require.Equal(t, mix, *ctx.Random)
	require.Equal(t, miner, ctx.Coinbase)
	require.Equal(t, uint64(7), ctx.BaseFee.Uint64())

	mix[0] = 0xff
	require.NotEqual(t, mix, *ctx.Random)
}

func TestNewBlockContext_RequiresNumber(t *testing.T) {
	_, err := NewBlockContext(&Header{})
	require.ErrorIs(t, err, ErrMalformed)
}

func TestBuild_IsDeterministic(t *testing.T) {
	h := &Header{Number: big64(5), BaseFee: big64(9)}
	tx := baseTx()
	tx.MaxFeePerGas = big64(11)

	b1, t1, err := Build(h, tx)
	require.NoError(t, err)
	b2, t2, err := Build(h, tx)
	require.NoError(t, err)
	require.Equal(t, b1, b2)
	require.Equal(t, t1, t2)
}
