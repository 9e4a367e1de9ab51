package evm

import (
	"math/big"

	"github.com/ethereum/go-ethereum/params"
)

// ChainConfig returns the fork schedule for chainID. Unknown chains get a
// copy of the developer config with every fork active from genesis.
func ChainConfig(chainID uint64) *params.ChainConfig {
	for _, known := range []*params.ChainConfig{
		params.MainnetChainConfig,
		params.SepoliaChainConfig,
		params.HoleskyChainConfig,
	} {
		if known.ChainID.Uint64() == chainID {
			return known
		}
	}
	cfg := *params.AllDevChainProtocolChanges
	cfg.ChainID = new(big.Int).SetUint64(chainID)
	return &cfg
}
