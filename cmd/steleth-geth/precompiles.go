package main

import (
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethvm "github.com/ethereum/go-ethereum/core/vm"

	"github.com/steleth/steleth/crypto"
	"github.com/steleth/steleth/geth"
)

// precompileInjector swaps the provider-backed precompile set into geth EVM
// instances, picking the fork level from the block timestamp.
type precompileInjector struct {
	provider   *crypto.Provider
	pragueTime *uint64
	osakaTime  *uint64
}

func newPrecompileInjector(p *crypto.Provider, prague, osaka *uint64) *precompileInjector {
	return &precompileInjector{provider: p, pragueTime: prague, osakaTime: osaka}
}

// forkLevelAtTime determines the active fork level at the given block time.
func (pi *precompileInjector) forkLevelAtTime(time uint64) geth.ForkLevel {
	if pi.osakaTime != nil && time >= *pi.osakaTime {
		return geth.ForkOsaka
	}
	if pi.pragueTime != nil && time >= *pi.pragueTime {
		return geth.ForkPrague
	}
	return geth.ForkCancun
}

// InjectIntoEVM replaces the EVM's precompiles with the provider-backed set
// for the block being executed.
func (pi *precompileInjector) InjectIntoEVM(evm *gethvm.EVM, blockTime uint64) {
	geth.InjectIntoEVM(evm, pi.provider, pi.forkLevelAtTime(blockTime))
}

// Addresses returns the precompile addresses active at the given block
// time, for access-list warming.
func (pi *precompileInjector) Addresses(blockTime uint64) []gethcommon.Address {
	return geth.PrecompileAddresses(pi.provider, pi.forkLevelAtTime(blockTime))
}
