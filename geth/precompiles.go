// Package geth adapts the provider-backed precompiles to go-ethereum's EVM.
// This is the only package that imports go-ethereum directly; everything
// else stays on the repo's own types.
package geth

import (
	gethcommon "github.com/ethereum/go-ethereum/common"
	gethvm "github.com/ethereum/go-ethereum/core/vm"

	"github.com/steleth/steleth/core/types"
	"github.com/steleth/steleth/core/vm"
	"github.com/steleth/steleth/crypto"
)

// ForkLevel selects which precompile set is active.
type ForkLevel int

const (
	ForkCancun ForkLevel = iota
	ForkPrague
	ForkOsaka
)

// PrecompileAdapter wraps a repo precompile to satisfy go-ethereum's
// PrecompiledContract interface.
type PrecompileAdapter struct {
	inner vm.PrecompiledContract
	name  string
}

// RequiredGas delegates to the wrapped precompile.
func (a *PrecompileAdapter) RequiredGas(input []byte) uint64 {
	return a.inner.RequiredGas(input)
}

// Run delegates to the wrapped precompile.
func (a *PrecompileAdapter) Run(input []byte) ([]byte, error) {
	return a.inner.Run(input)
}

// Name returns the human-readable name of the precompile.
func (a *PrecompileAdapter) Name() string { return a.name }

// NewPrecompileAdapter wraps a precompile for use with go-ethereum.
func NewPrecompileAdapter(inner vm.PrecompiledContract, name string) *PrecompileAdapter {
	return &PrecompileAdapter{inner: inner, name: name}
}

var precompileNames = map[types.Address]string{
	types.BytesToAddress([]byte{0x01}):       "ecrecover",
	types.BytesToAddress([]byte{0x02}):       "sha256",
	types.BytesToAddress([]byte{0x03}):       "ripemd160",
	types.BytesToAddress([]byte{0x04}):       "identity",
	types.BytesToAddress([]byte{0x05}):       "modexp",
	types.BytesToAddress([]byte{0x06}):       "bn256Add",
	types.BytesToAddress([]byte{0x07}):       "bn256ScalarMul",
	types.BytesToAddress([]byte{0x08}):       "bn256Pairing",
	types.BytesToAddress([]byte{0x09}):       "blake2f",
	types.BytesToAddress([]byte{0x0a}):       "kzgPointEvaluation",
	types.BytesToAddress([]byte{0x0b}):       "bls12381G1Add",
	types.BytesToAddress([]byte{0x0c}):       "bls12381G1MSM",
	types.BytesToAddress([]byte{0x0d}):       "bls12381G2Add",
	types.BytesToAddress([]byte{0x0e}):       "bls12381G2MSM",
	types.BytesToAddress([]byte{0x0f}):       "bls12381Pairing",
	types.BytesToAddress([]byte{0x10}):       "bls12381MapFpToG1",
	types.BytesToAddress([]byte{0x11}):       "bls12381MapFp2ToG2",
	types.BytesToAddress([]byte{0x01, 0x00}): "p256Verify",
}

func contractSet(p *crypto.Provider, level ForkLevel) map[types.Address]vm.PrecompiledContract {
	switch level {
	case ForkCancun:
		return vm.PrecompiledContractsCancun(p)
	case ForkPrague:
		return vm.PrecompiledContractsPrague(p)
	default:
		return vm.PrecompiledContractsOsaka(p)
	}
}

// Precompiles builds the go-ethereum precompile map backed by the given
// provider at the given fork level.
func Precompiles(p *crypto.Provider, level ForkLevel) gethvm.PrecompiledContracts {
	out := make(gethvm.PrecompiledContracts)
	for addr, contract := range contractSet(p, level) {
		out[ToGethAddress(addr)] = NewPrecompileAdapter(contract, precompileNames[addr])
	}
	return out
}

// PrecompileAddresses returns the active precompile addresses, for EIP-2929
// access list warming.
func PrecompileAddresses(p *crypto.Provider, level ForkLevel) []gethcommon.Address {
	set := contractSet(p, level)
	addrs := make([]gethcommon.Address, 0, len(set))
	for addr := range set {
		addrs = append(addrs, ToGethAddress(addr))
	}
	return addrs
}

// InjectIntoEVM replaces the EVM's precompile set with the provider-backed
// one. Addresses outside the map stop resolving as precompiles, so the
// caller picks the fork level matching the block being executed.
func InjectIntoEVM(evm *gethvm.EVM, p *crypto.Provider, level ForkLevel) {
	evm.SetPrecompiles(Precompiles(p, level))
}
