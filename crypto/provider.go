package crypto

import "github.com/steleth/steleth/core/types"

// Provider bundles the precompile-facing crypto surface behind one handle.
// Precompile dispatch and other consumers hold a *Provider explicitly rather
// than reaching for package globals, so tests can substitute a provider
// without racing the rest of the process.
type Provider struct{}

// NewProvider returns the standard provider.
func NewProvider() *Provider {
	return &Provider{}
}

// installed is the process-wide provider handle, set by Install. Consumers
// that are not constructed with an explicit provider fall back to it.
var installed = NewProvider()

// Install registers p as the provider returned by Installed.
func (p *Provider) Install() {
	installed = p
}

// Installed returns the most recently installed provider.
func Installed() *Provider {
	return installed
}

// Modexp computes base^exp mod modulus per EIP-198 semantics. Total.
func (p *Provider) Modexp(base, exp, mod []byte) []byte {
	return ModExp(base, exp, mod)
}

// Bn254G1Add adds two G1 points given as 64-byte uncompressed encodings.
func (p *Provider) Bn254G1Add(p1, p2 []byte) ([]byte, error) {
	return BN254Add(p1, p2)
}

// Bn254G1Mul multiplies a G1 point by a 32-byte big-endian scalar.
func (p *Provider) Bn254G1Mul(point, scalar []byte) ([]byte, error) {
	return BN254ScalarMul(point, scalar)
}

// Bn254PairingCheck evaluates the pairing product over 192-byte pairs.
func (p *Provider) Bn254PairingCheck(pairs []byte) (bool, error) {
	return BN254PairingCheck(pairs)
}

// P256VerifySignature verifies an ECDSA signature over secp256r1. Total: any
// malformed input verifies false.
func (p *Provider) P256VerifySignature(hash, sig, pubkey []byte) bool {
	return P256VerifySignature(hash, sig, pubkey)
}

// Ecrecover recovers the uncompressed secp256k1 public key from a 65-byte
// [R || S || V] signature.
func (p *Provider) Ecrecover(hash, sig []byte) ([]byte, error) {
	return Ecrecover(hash, sig)
}

// KZGPointEvaluation runs the EIP-4844 point evaluation over a 192-byte
// input.
func (p *Provider) KZGPointEvaluation(input []byte) ([]byte, error) {
	return KZGPointEvaluation(input)
}

// Keccak256 hashes with legacy Keccak-256.
func (p *Provider) Keccak256(data ...[]byte) []byte {
	return Keccak256(data...)
}

// Keccak256Hash hashes into a Hash value.
func (p *Provider) Keccak256Hash(data ...[]byte) types.Hash {
	return Keccak256Hash(data...)
}

// BLS12-381 operations in the EIP-2537 encodings.

func (p *Provider) BLS12381G1Add(input []byte) ([]byte, error) { return BLS12G1Add(input) }
func (p *Provider) BLS12381G1MSM(input []byte) ([]byte, error) { return BLS12G1MSM(input) }
func (p *Provider) BLS12381G2Add(input []byte) ([]byte, error) { return BLS12G2Add(input) }
func (p *Provider) BLS12381G2MSM(input []byte) ([]byte, error) { return BLS12G2MSM(input) }
func (p *Provider) BLS12381MapG1(input []byte) ([]byte, error) { return BLS12MapFpToG1(input) }
func (p *Provider) BLS12381MapG2(input []byte) ([]byte, error) { return BLS12MapFp2ToG2(input) }
func (p *Provider) BLS12381PairingCheck(input []byte) (bool, error) {
	return BLS12PairingCheck(input)
}
