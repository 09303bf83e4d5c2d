package crypto

// secp256r1 (NIST P-256) signature verification for the P256VERIFY
// precompile (EIP-7951). Verification runs on the repository's own affine
// engine rather than the standard library, so the host and the proving
// build exercise the same code path.

import "github.com/steleth/steleth/crypto/ec"

// p256VerifyInputLength is the exact P256VERIFY input size:
// hash(32) ‖ r(32) ‖ s(32) ‖ x(32) ‖ y(32).
const p256VerifyInputLength = 160

// P256Verify implements the EIP-7951 verification core over the packed
// 160-byte input. Any malformed input, including a wrong-length buffer,
// yields false; it never returns an error and never panics.
func P256Verify(input []byte) bool {
	if len(input) != p256VerifyInputLength {
		return false
	}
	return ec.VerifySignature(input[:32], input[32:96], input[96:160])
}

// P256VerifySignature verifies an ECDSA signature over secp256r1. The
// signature is 64-byte big-endian r‖s; the public key is 64-byte
// uncompressed x‖y with no prefix byte. Malformed input yields false.
func P256VerifySignature(hash, sig, pubkey []byte) bool {
	return ec.VerifySignature(hash, sig, pubkey)
}
