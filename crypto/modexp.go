package crypto

import "github.com/steleth/steleth/crypto/bigmod"

// ModExp computes base^exp mod modulus over arbitrary big-endian byte
// strings. It is total: a zero or empty modulus yields an empty result, and
// otherwise the output is left-padded to the modulus length. Moduli up to
// 512 bytes run on the fixed-width arithmetic backend.
func ModExp(base, exp, mod []byte) []byte {
	return bigmod.ModExpBytes(base, exp, mod)
}
